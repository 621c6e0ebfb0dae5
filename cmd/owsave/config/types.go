// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

// CurrentConfigVersion is written into new config files.
const CurrentConfigVersion = "1"

// OwsaveConfig is the editor configuration in ~/.owsave/owsave.yaml.
//
// Every field can be overridden by the environment variable named in its
// env tag.
type OwsaveConfig struct {
	Meta MetaConfig `yaml:"meta"`

	// Logging: where and how much the editor logs
	Logging LoggingConfig `yaml:"logging"`

	// Catalog: optional YAML file replacing the embedded schema catalog
	Catalog string `yaml:"catalog,omitempty" env:"OWSAVE_CATALOG"`

	// Backups: copies made before every save
	Backups BackupConfig `yaml:"backups"`

	// Editor: interactive editor behavior
	Editor EditorConfig `yaml:"editor"`
}

type MetaConfig struct {
	Version string `yaml:"version"`
}

type LoggingConfig struct {
	Dir   string `yaml:"dir" env:"OWSAVE_LOG_DIR" validate:"required"`
	Level string `yaml:"level" env:"OWSAVE_LOG_LEVEL" validate:"oneof=debug info warn error"`
}

type BackupConfig struct {
	Enabled bool `yaml:"enabled" env:"OWSAVE_BACKUPS"`
	Max     int  `yaml:"max" env:"OWSAVE_MAX_BACKUPS" validate:"gte=0,lte=1000"`
}

type EditorConfig struct {
	// FactSort is the initial ship log sort: catalog, reveal or alpha
	FactSort    string `yaml:"fact_sort" env:"OWSAVE_FACT_SORT" validate:"oneof=catalog reveal alpha"`
	ConfirmSave bool   `yaml:"confirm_save" env:"OWSAVE_CONFIRM_SAVE"`
	WatchFile   bool   `yaml:"watch_file" env:"OWSAVE_WATCH"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() OwsaveConfig {
	return OwsaveConfig{
		Meta:    MetaConfig{Version: CurrentConfigVersion},
		Logging: LoggingConfig{Dir: "~/.owsave/logs", Level: "info"},
		Backups: BackupConfig{Enabled: true, Max: 5},
		Editor:  EditorConfig{FactSort: "catalog", ConfirmSave: true, WatchFile: true},
	}
}
