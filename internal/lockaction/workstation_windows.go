// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

//go:build windows

package lockaction

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sys/windows"
)

var procLockWorkStation = windows.NewLazySystemDLL("user32.dll").NewProc("LockWorkStation")

// Workstation calls user32!LockWorkStation.
type Workstation struct{}

// NewPlatformLocker returns the LockWorkStation locker.
func NewPlatformLocker(zerolog.Logger) (Locker, error) {
	if err := procLockWorkStation.Find(); err != nil {
		return nil, fmt.Errorf("resolve LockWorkStation: %w", err)
	}
	return Workstation{}, nil
}

// Lock implements Locker. LockWorkStation is asynchronous and returns immediately.
func (Workstation) Lock(context.Context) error {
	if ok, _, err := procLockWorkStation.Call(); ok == 0 {
		return fmt.Errorf("LockWorkStation: %w", err)
	}
	return nil
}
