// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

//go:build unix

package instance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"golang.org/x/sys/unix"
)

// Guard holds an exclusive flock on the lock file until Release.
type Guard struct {
	file *os.File
	once sync.Once
}

// Acquire takes the single-instance lock in dir. An empty dir uses
// $XDG_RUNTIME_DIR, falling back to the temp directory.
func Acquire(dir string) (*Guard, error) {
	if dir == "" {
		dir = os.Getenv("XDG_RUNTIME_DIR")
	}
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	path := filepath.Join(dir, Name+".lock")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrAlreadyRunning
		}
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}

	// Record the owner for humans; the flock is what matters.
	if err := f.Truncate(0); err == nil {
		_, _ = f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
	}
	return &Guard{file: f}, nil
}

// Release drops the lock. It is safe to call more than once.
func (g *Guard) Release() error {
	var err error
	g.once.Do(func() {
		_ = unix.Flock(int(g.file.Fd()), unix.LOCK_UN)
		err = g.file.Close()
	})
	return err
}
