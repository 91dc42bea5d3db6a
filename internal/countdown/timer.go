// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package countdown implements the resettable lock countdown.
//
// A Timer is started on logon/unlock and stopped on lock/logoff. While it runs,
// a periodic check recomputes the elapsed wall-clock time once per tick and,
// when the timeout is reached, invokes the lock action exactly once.
package countdown

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ManuGH/autolock/internal/clock"
	xglog "github.com/ManuGH/autolock/internal/log"
	"github.com/ManuGH/autolock/internal/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultTickInterval is the cadence of the periodic check.
	DefaultTickInterval = time.Second

	// DefaultLockTimeout bounds a single lock action call.
	DefaultLockTimeout = 10 * time.Second
)

var (
	// ErrInvalidTimeout is returned for a non-positive countdown duration.
	ErrInvalidTimeout = errors.New("countdown timeout must be positive")

	// ErrMissingLocker is returned when no lock action is configured.
	ErrMissingLocker = errors.New("lock action is required")

	// ErrClosed is the panic value of Start after Close.
	ErrClosed = errors.New("countdown: Start called after Close")
)

// Locker secures the workstation. It is called at most once per timeout.
type Locker interface {
	Lock(ctx context.Context) error
}

// LockerFunc adapts a function to Locker.
type LockerFunc func(ctx context.Context) error

// Lock calls f(ctx).
func (f LockerFunc) Lock(ctx context.Context) error { return f(ctx) }

// Config holds the Timer's collaborators.
type Config struct {
	Timeout time.Duration
	Locker  Locker
	Logger  zerolog.Logger

	// Optional
	Clock        clock.Clock   // defaults to clock.Real
	TickInterval time.Duration // defaults to DefaultTickInterval
	LockTimeout  time.Duration // defaults to DefaultLockTimeout
}

// State is a consistent snapshot of the countdown.
type State struct {
	Running     bool
	Timeout     time.Duration
	Remaining   time.Duration
	StartedAt   time.Time // zero when not running
	CountdownID string    // empty when not running
}

// Timer is the countdown state machine. All methods are safe for concurrent use.
type Timer struct {
	timeout     time.Duration
	interval    time.Duration
	lockTimeout time.Duration
	clock       clock.Clock
	locker      Locker
	logger      zerolog.Logger

	mu        sync.Mutex
	running   bool
	startedAt time.Time
	active    *schedule
	closed    bool

	// firing tracks a lock action running outside mu so Close can wait for it.
	firing sync.WaitGroup
}

// schedule is one countdown's periodic check. A check only acts while its
// schedule is the active one; superseded schedules are inert.
type schedule struct {
	id    string
	timer clock.Timer
}

// New creates an idle Timer.
func New(cfg Config) (*Timer, error) {
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTimeout, cfg.Timeout)
	}
	if cfg.Locker == nil {
		return nil, ErrMissingLocker
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = DefaultLockTimeout
	}

	return &Timer{
		timeout:     cfg.Timeout,
		interval:    cfg.TickInterval,
		lockTimeout: cfg.LockTimeout,
		clock:       cfg.Clock,
		locker:      cfg.Locker,
		logger:      cfg.Logger.With().Str(xglog.FieldComponent, "countdown").Logger(),
	}, nil
}

// Timeout returns the configured countdown duration.
func (t *Timer) Timeout() time.Duration {
	return t.timeout
}

// Start (re)starts the countdown from now. Any previously scheduled check is
// cancelled before the new one is armed. Start panics after Close.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		panic(ErrClosed)
	}

	t.cancelLocked()
	s := &schedule{id: uuid.NewString()}
	t.active = s
	t.startedAt = t.now()
	t.running = true
	t.armLocked(s)

	metrics.IncCountdownStart()
	t.logger.Info().
		Str(xglog.FieldEvent, "countdown.started").
		Str(xglog.FieldCountdownID, s.id).
		Dur(xglog.FieldTimeout, t.timeout).
		Msgf("countdown started, duration=%s", t.timeout)
}

// Stop cancels a running countdown. Stopping an idle timer is a no-op and logs nothing.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return
	}
	id := t.active.id
	t.running = false
	t.cancelLocked()

	metrics.IncCountdownStop()
	t.logger.Info().
		Str(xglog.FieldEvent, "countdown.stopped").
		Str(xglog.FieldCountdownID, id).
		Msg("countdown stopped")
}

// Running reports whether a countdown is in progress.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Remaining returns the time left before the lock action fires. An idle timer
// reports the full timeout. The result is never negative.
func (t *Timer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remainingLocked()
}

// Snapshot returns the full countdown state under a single lock acquisition.
func (t *Timer) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := State{
		Running:   t.running,
		Timeout:   t.timeout,
		Remaining: t.remainingLocked(),
	}
	if t.running {
		st.StartedAt = t.startedAt
		st.CountdownID = t.active.id
	}
	return st
}

// Close cancels any scheduled check and waits for an in-flight lock action.
// After Close returns no check runs and the lock action is not invoked again.
func (t *Timer) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.running = false
	t.cancelLocked()
	t.mu.Unlock()

	t.firing.Wait()
	t.logger.Debug().Str(xglog.FieldEvent, "countdown.closed").Msg("countdown timer closed")
	return nil
}

// now reads the wall clock without the monotonic reading, so time spent in
// system suspend counts toward the deadline.
func (t *Timer) now() time.Time {
	return t.clock.Now().Round(0)
}

func (t *Timer) remainingLocked() time.Duration {
	if !t.running {
		return t.timeout
	}
	remaining := t.timeout - t.now().Sub(t.startedAt)
	switch {
	case remaining < 0:
		return 0
	case remaining > t.timeout:
		// wall clock stepped backwards
		return t.timeout
	}
	return remaining
}

func (t *Timer) armLocked(s *schedule) {
	s.timer = t.clock.AfterFunc(t.interval, func() { t.tick(s) })
}

func (t *Timer) cancelLocked() {
	if t.active == nil {
		return
	}
	if t.active.timer != nil {
		t.active.timer.Stop()
	}
	t.active = nil
}

func (t *Timer) tick(s *schedule) {
	if fire := t.check(s); fire {
		t.fire(s.id)
	}
}

// check evaluates one tick. It reports whether the caller must run the lock
// action; in that case firing has been incremented.
func (t *Timer) check(s *schedule) (fire bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active != s || !t.running {
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			fire = false
			metrics.IncCountdownCheckPanic()
			t.logger.Error().
				Str(xglog.FieldEvent, "countdown.check_panic").
				Str(xglog.FieldCountdownID, s.id).
				Interface("panic", r).
				Msg("countdown check failed, retrying on next tick")
			if t.active == s && t.running {
				t.armLocked(s)
			}
		}
	}()

	elapsed := t.now().Sub(t.startedAt)
	if elapsed < t.timeout {
		t.armLocked(s)
		return false
	}

	t.running = false
	t.active = nil

	metrics.IncCountdownTimeout()
	t.logger.Info().
		Str(xglog.FieldEvent, "countdown.timeout").
		Str(xglog.FieldCountdownID, s.id).
		Dur(xglog.FieldElapsed, elapsed).
		Msg("timeout reached, locking")

	// Add under mu so Close, which clears active under mu, always waits for it.
	t.firing.Add(1)
	return true
}

// fire invokes the lock action outside mu. Failures are logged, never retried.
func (t *Timer) fire(id string) {
	defer t.firing.Done()

	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordLockAction("panic", time.Since(started))
			t.logger.Error().
				Str(xglog.FieldEvent, "lock.panic").
				Str(xglog.FieldCountdownID, id).
				Interface("panic", r).
				Msg("lock action panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), t.lockTimeout)
	defer cancel()

	if err := t.locker.Lock(ctx); err != nil {
		metrics.RecordLockAction("failure", time.Since(started))
		t.logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "lock.failed").
			Str(xglog.FieldCountdownID, id).
			Msg("failed to lock workstation")
		return
	}
	metrics.RecordLockAction("success", time.Since(started))
	t.logger.Debug().
		Str(xglog.FieldEvent, "lock.issued").
		Str(xglog.FieldCountdownID, id).
		Msg("workstation lock issued")
}
