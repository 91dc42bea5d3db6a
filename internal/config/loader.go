// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{} // Mechanical tracking of consumed keys
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Path returns the config file path, if any.
func (l *Loader) Path() string {
	return l.configPath
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envLookup(key string) (string, bool) {
	l.ConsumedEnvKeys[key] = struct{}{}
	return os.LookupEnv(key)
}

// Load loads configuration with precedence: ENV > File > Defaults
// It enforces Strict Validated Order: Parse File (Strict) -> Apply Env -> Validate
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		mergeFileConfig(&cfg, fileCfg)
	}

	l.mergeEnvConfig(&cfg)

	cfg.Version = l.version
	cfg.ConfigPath = l.configPath
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.Language = strings.ToLower(strings.TrimSpace(cfg.Language))

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile loads configuration from a YAML file with STRICT parsing.
// Unknown fields will cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("%w: %s (only YAML supported)", ErrUnsupportedFormat, ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return parseFileConfig(data)
}

func parseFileConfig(data []byte) (*FileConfig, error) {
	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("strict config parse error: %w: %v", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, ErrMultipleDocuments
	}
	return &fileCfg, nil
}

func mergeFileConfig(cfg *AppConfig, f *FileConfig) {
	if f.LockTimeoutMinutes != nil {
		cfg.LockTimeoutMinutes = *f.LockTimeoutMinutes
	}
	if f.LogDirectory != nil {
		cfg.LogDirectory = os.ExpandEnv(*f.LogDirectory)
	}
	if f.LogLevel != nil {
		cfg.LogLevel = *f.LogLevel
	}
	if f.Language != nil {
		cfg.Language = *f.Language
	}
	if s := f.Status; s != nil {
		if s.ListenAddr != nil {
			cfg.Status.ListenAddr = *s.ListenAddr
		}
		if s.Metrics != nil {
			cfg.Status.Metrics = *s.Metrics
		}
		if s.ShutdownEnabled != nil {
			cfg.Status.ShutdownEnabled = *s.ShutdownEnabled
		}
	}
}

func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.LockTimeoutMinutes = l.envInt(EnvLockTimeoutMinutes, cfg.LockTimeoutMinutes)
	cfg.LogDirectory = l.envString(EnvLogDirectory, cfg.LogDirectory)
	cfg.LogLevel = l.envString(EnvLogLevel, cfg.LogLevel)
	cfg.Language = l.envString(EnvLanguage, cfg.Language)

	// An explicitly empty listen address disables the status API.
	if v, ok := l.envLookup(EnvStatusListenAddr); ok {
		cfg.Status.ListenAddr = strings.TrimSpace(v)
	}
	cfg.Status.Metrics = l.envBool(EnvMetricsEnabled, cfg.Status.Metrics)
	cfg.Status.ShutdownEnabled = l.envBool(EnvShutdownEnabled, cfg.Status.ShutdownEnabled)
}
