// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"strings"

	"github.com/ManuGH/autolock/internal/validate"
)

// Validate validates an AppConfig using the centralized validation package
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.Range("lockTimeoutMinutes", cfg.LockTimeoutMinutes, 1, MaxLockTimeoutMinutes)
	v.NotEmpty("logDirectory", cfg.LogDirectory)
	if strings.TrimSpace(cfg.LogDirectory) != "" {
		v.Directory("logDirectory", cfg.LogDirectory, false)
	}
	v.LogLevel("logLevel", cfg.LogLevel)
	v.Language("language", cfg.Language, SupportedLanguages)

	if cfg.Status.ListenAddr != "" {
		v.ListenAddr("status.listenAddr", cfg.Status.ListenAddr)
	}

	return v.Err()
}
