// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

//go:build !linux && !windows

package session

import "github.com/rs/zerolog"

// NewPlatformSource reports ErrUnsupportedPlatform.
func NewPlatformSource(zerolog.Logger) (Source, error) {
	return nil, ErrUnsupportedPlatform
}
