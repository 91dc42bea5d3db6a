// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DailyFilePrefix is the file name prefix of the rotating log files.
const DailyFilePrefix = "AutoLock_"

// DailyFile is an io.WriteCloser that appends to AutoLock_yyyyMMdd.log in a
// directory and switches files when the local date changes.
// Writes after Close are dropped silently; the logging sink must never fail
// back into its callers.
type DailyFile struct {
	dir string
	now func() time.Time

	mu     sync.Mutex
	date   string
	file   *os.File
	closed bool
}

// ResolveDir makes a relative log directory relative to the executable's directory.
func ResolveDir(dir string) (string, error) {
	if dir == "" {
		return "", errors.New("log directory is empty")
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir), nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), dir), nil
}

// OpenDailyFile creates dir if needed and opens today's log file.
func OpenDailyFile(dir string) (*DailyFile, error) {
	return openDailyFile(dir, time.Now)
}

func openDailyFile(dir string, now func() time.Time) (*DailyFile, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	d := &DailyFile{dir: dir, now: now}
	if err := d.rotateLocked(now()); err != nil {
		return nil, err
	}
	return d, nil
}

// Write implements io.Writer.
func (d *DailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return len(p), nil
	}
	now := d.now()
	if now.Format("20060102") != d.date || d.file == nil {
		if err := d.rotateLocked(now); err != nil {
			return 0, err
		}
	}
	return d.file.Write(p)
}

// Path returns the file currently written to.
func (d *DailyFile) Path() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return filepath.Join(d.dir, fileName(d.date))
}

// Close flushes and closes the current file.
func (d *DailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.closeFileLocked()
}

func (d *DailyFile) rotateLocked(now time.Time) error {
	if err := d.closeFileLocked(); err != nil {
		return err
	}
	date := now.Format("20060102")
	// #nosec G304 -- directory comes from operator configuration
	f, err := os.OpenFile(filepath.Join(d.dir, fileName(date)), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	d.file = f
	d.date = date
	return nil
}

func (d *DailyFile) closeFileLocked() error {
	if d.file == nil {
		return nil
	}
	f := d.file
	d.file = nil
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync log file: %w", err)
	}
	return f.Close()
}

func fileName(date string) string {
	return DailyFilePrefix + date + ".log"
}

// FileFormat wraps w so entries are written as human-readable lines
// ("[2006-01-02 15:04:05] INF message key=value") instead of JSON.
func FileFormat(w io.Writer) io.Writer {
	return zerolog.ConsoleWriter{
		Out:     w,
		NoColor: true,
		FormatTimestamp: func(i interface{}) string {
			s, ok := i.(string)
			if !ok {
				return "[]"
			}
			ts, err := time.Parse(zerolog.TimeFieldFormat, s)
			if err != nil {
				return "[" + s + "]"
			}
			return "[" + ts.Local().Format("2006-01-02 15:04:05") + "]"
		},
	}
}
