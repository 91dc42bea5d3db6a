// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

//go:build !linux && !windows

package lockaction

import "github.com/rs/zerolog"

// NewPlatformLocker reports ErrUnsupportedPlatform.
func NewPlatformLocker(zerolog.Logger) (Locker, error) {
	return nil, ErrUnsupportedPlatform
}
