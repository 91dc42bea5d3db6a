// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package lockaction issues the operating system's "lock now" request.
package lockaction

import (
	"context"
	"errors"
)

// ErrUnsupportedPlatform is returned by NewPlatformLocker where no lock
// facility is known.
var ErrUnsupportedPlatform = errors.New("workstation locking is not supported on this platform")

// Locker requests an immediate workstation lock. Lock returns once the
// request has been issued; it does not wait for the screen to lock.
type Locker interface {
	Lock(ctx context.Context) error
}

// Func adapts a function to Locker.
type Func func(ctx context.Context) error

// Lock calls f.
func (f Func) Lock(ctx context.Context) error { return f(ctx) }

// Unavailable is a Locker that always fails with err. The daemon uses it when
// no platform locker could be created so the failure surfaces in the lock logs.
func Unavailable(err error) Locker {
	return Func(func(context.Context) error { return err })
}
