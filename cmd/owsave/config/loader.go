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

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// DefaultPath is ~/.owsave/owsave.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".owsave", "owsave.yaml"), nil
}

// Load reads the config at path, creating it with defaults if it does
// not exist, then applies environment overrides and validates the result.
// An empty path means DefaultPath. The first-run notice goes to notice,
// which may be nil.
func Load(path string, notice io.Writer) (OwsaveConfig, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return OwsaveConfig{}, err
		}
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if notice != nil {
			fmt.Fprintf(notice, "First run detected, creating the config at %s\n", path)
		}
		if err := createDefault(path); err != nil {
			return OwsaveConfig{}, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return OwsaveConfig{}, fmt.Errorf("failed to read the config file: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (OwsaveConfig, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return OwsaveConfig{}, fmt.Errorf("failed to parse the config file: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return OwsaveConfig{}, fmt.Errorf("parse env: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return OwsaveConfig{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func createDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
