// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// LoadFileConfig loads a YAML config file without applying defaults or env overrides.
func LoadFileConfig(path string) (*FileConfig, error) {
	loader := NewLoader(path, "")
	return loader.loadFile(path)
}

// Marshal renders cfg as the YAML document written by "config init" and "config dump".
func Marshal(cfg AppConfig) ([]byte, error) {
	out, err := yaml.Marshal(ToFileConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return out, nil
}
