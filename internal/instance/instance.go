// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package instance ensures only one AutoLock process runs per user.
package instance

import "errors"

// ErrAlreadyRunning is returned by Acquire when another process holds the guard.
var ErrAlreadyRunning = errors.New("AutoLock is already running")

// Name identifies the guard. On unix it is the lock file name inside the
// directory passed to Acquire; on Windows it names a global mutex.
const Name = "AutoLock_SingleInstance"
