// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config provides configuration management for AutoLock.
//
// Precedence is ENV > YAML file > defaults. The lock timeout is fixed for the
// lifetime of the process; file changes are detected and reported but require
// a restart.
package config
