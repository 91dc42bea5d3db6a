// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

//go:build windows

package instance

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/windows"
)

// Guard owns the named mutex until Release.
type Guard struct {
	handle windows.Handle
	once   sync.Once
}

// Acquire creates the global named mutex. dir is ignored on Windows.
func Acquire(string) (*Guard, error) {
	name, err := windows.UTF16PtrFromString(`Global\` + Name)
	if err != nil {
		return nil, err
	}
	h, err := windows.CreateMutex(nil, false, name)
	if errors.Is(err, windows.ERROR_ALREADY_EXISTS) {
		if h != 0 {
			_ = windows.CloseHandle(h)
		}
		return nil, ErrAlreadyRunning
	}
	if err != nil {
		return nil, fmt.Errorf("create instance mutex: %w", err)
	}
	return &Guard{handle: h}, nil
}

// Release closes the mutex handle. It is safe to call more than once.
func (g *Guard) Release() error {
	var err error
	g.once.Do(func() { err = windows.CloseHandle(g.handle) })
	return err
}
