// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import "time"

// Defaults
const (
	DefaultLockTimeoutMinutes = 60
	DefaultLogDirectory       = "logs"
	DefaultLogLevel           = "info"
	DefaultLanguage           = "zh"
	DefaultStatusListenAddr   = "127.0.0.1:8765"
	DefaultConfigFileName     = "autolock.yaml"

	// MaxLockTimeoutMinutes bounds the timeout to one week.
	MaxLockTimeoutMinutes = 7 * 24 * 60
)

// SupportedLanguages lists the base languages the indicator renders.
// Regional tags such as "zh-CN" validate against their base.
var SupportedLanguages = []string{"en", "zh"}

// Environment variables
const (
	EnvLockTimeoutMinutes = "AUTOLOCK_LOCK_TIMEOUT_MINUTES"
	EnvLogDirectory       = "AUTOLOCK_LOG_DIR"
	EnvLogLevel           = "AUTOLOCK_LOG_LEVEL"
	EnvLanguage           = "AUTOLOCK_LANGUAGE"
	EnvStatusListenAddr   = "AUTOLOCK_STATUS_LISTEN"
	EnvMetricsEnabled     = "AUTOLOCK_METRICS_ENABLED"
	EnvShutdownEnabled    = "AUTOLOCK_SHUTDOWN_ENABLED"
	EnvConfigPath         = "AUTOLOCK_CONFIG"
)

// AppConfig is the effective configuration.
type AppConfig struct {
	Version    string
	ConfigPath string

	LockTimeoutMinutes int
	LogDirectory       string
	LogLevel           string
	Language           string
	Status             StatusConfig
}

// StatusConfig configures the loopback status API.
type StatusConfig struct {
	ListenAddr      string // empty disables the API
	Metrics         bool
	ShutdownEnabled bool
}

// LockTimeout returns the countdown duration.
func (c AppConfig) LockTimeout() time.Duration {
	return time.Duration(c.LockTimeoutMinutes) * time.Minute
}

// FileConfig represents the YAML configuration structure. Pointer fields
// distinguish "absent" from zero values.
type FileConfig struct {
	LockTimeoutMinutes *int              `yaml:"lockTimeoutMinutes,omitempty" json:"lockTimeoutMinutes,omitempty"`
	LogDirectory       *string           `yaml:"logDirectory,omitempty" json:"logDirectory,omitempty"`
	LogLevel           *string           `yaml:"logLevel,omitempty" json:"logLevel,omitempty"`
	Language           *string           `yaml:"language,omitempty" json:"language,omitempty"`
	Status             *StatusFileConfig `yaml:"status,omitempty" json:"status,omitempty"`
}

// StatusFileConfig is the YAML form of StatusConfig.
type StatusFileConfig struct {
	ListenAddr      *string `yaml:"listenAddr,omitempty" json:"listenAddr,omitempty"`
	Metrics         *bool   `yaml:"metrics,omitempty" json:"metrics,omitempty"`
	ShutdownEnabled *bool   `yaml:"shutdownEnabled,omitempty" json:"shutdownEnabled,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		LockTimeoutMinutes: DefaultLockTimeoutMinutes,
		LogDirectory:       DefaultLogDirectory,
		LogLevel:           DefaultLogLevel,
		Language:           DefaultLanguage,
		Status: StatusConfig{
			ListenAddr:      DefaultStatusListenAddr,
			Metrics:         true,
			ShutdownEnabled: true,
		},
	}
}

// ToFileConfig converts an effective configuration into its full YAML form.
func ToFileConfig(cfg AppConfig) FileConfig {
	return FileConfig{
		LockTimeoutMinutes: &cfg.LockTimeoutMinutes,
		LogDirectory:       &cfg.LogDirectory,
		LogLevel:           &cfg.LogLevel,
		Language:           &cfg.Language,
		Status: &StatusFileConfig{
			ListenAddr:      &cfg.Status.ListenAddr,
			Metrics:         &cfg.Status.Metrics,
			ShutdownEnabled: &cfg.Status.ShutdownEnabled,
		},
	}
}
