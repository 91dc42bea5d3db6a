// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/autolock/internal/config"
	"github.com/rs/zerolog"
)

// Trigger requests a shutdown from outside the signal path (the status
// API's close control). Only the first Fire counts.
type Trigger struct {
	once   sync.Once
	done   chan struct{}
	mu     sync.Mutex
	reason string
}

// NewTrigger returns an unfired trigger.
func NewTrigger() *Trigger {
	return &Trigger{done: make(chan struct{})}
}

// Fire requests shutdown. It reports whether this call was the first.
func (t *Trigger) Fire(reason string) bool {
	fired := false
	t.once.Do(func() {
		t.mu.Lock()
		t.reason = reason
		t.mu.Unlock()
		close(t.done)
		fired = true
	})
	return fired
}

// Done is closed once Fire has been called.
func (t *Trigger) Done() <-chan struct{} {
	return t.done
}

// Reason returns the reason passed to the first Fire.
func (t *Trigger) Reason() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reason
}

// App owns the long-lived runtime lifecycle (signals, config watcher,
// shutdown trigger) and delegates component management to Manager.
type App struct {
	logger  zerolog.Logger
	manager Manager
	watcher *config.Watcher
	trigger *Trigger
	signals []os.Signal
}

// NewApp creates a new App orchestrator. watcher and trigger may be nil.
func NewApp(logger zerolog.Logger, manager Manager, watcher *config.Watcher, trigger *Trigger) *App {
	return &App{
		logger:  logger,
		manager: manager,
		watcher: watcher,
		trigger: trigger,
		signals: []os.Signal{os.Interrupt, syscall.SIGTERM},
	}
}

// Run blocks until a signal arrives, the trigger fires, ctx is cancelled or
// a fatal error occurs. The ordered shutdown has completed when it returns.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	ctx, stop := signal.NotifyContext(ctx, a.signals...)
	defer stop()

	// The manager context ends on signal or trigger; the group context also
	// ends when a sibling fails.
	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gctx)
	defer cancel()

	if a.trigger != nil {
		g.Go(func() error {
			select {
			case <-a.trigger.Done():
				a.logger.Info().
					Str("event", "shutdown.requested").
					Str("reason", a.trigger.Reason()).
					Msg("shutdown requested")
				cancel()
			case <-runCtx.Done():
			}
			return nil
		})
	}

	// Config watcher is best-effort: a failure never stops the daemon.
	if a.watcher != nil {
		g.Go(func() error {
			if err := a.watcher.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn().Err(err).Str("event", "config.watcher_failed").Msg("config watcher stopped")
			}
			return nil
		})
	}

	// Main lifecycle.
	g.Go(func() error {
		defer cancel()
		return a.manager.Start(runCtx)
	})

	return g.Wait()
}
