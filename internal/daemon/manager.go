// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package daemon owns AutoLock's process lifecycle: startup wiring and the
// ordered shutdown sequence.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	xglog "github.com/ManuGH/autolock/internal/log"
	"github.com/rs/zerolog"
)

// ShutdownHook is a function that performs cleanup during graceful shutdown.
// Hooks run after the fixed shutdown steps, in reverse registration order (LIFO).
type ShutdownHook func(ctx context.Context) error

// Manager manages the daemon lifecycle.
type Manager interface {
	// Start brings up all components and blocks until ctx is done, then shuts down.
	Start(ctx context.Context) error

	// Shutdown runs the ordered shutdown sequence once.
	Shutdown(ctx context.Context) error

	// RegisterShutdownHook registers a function to be called during shutdown
	RegisterShutdownHook(name string, hook ShutdownHook)
}

type manager struct {
	serverCfg ServerConfig
	deps      Deps

	apiServer *http.Server
	listener  net.Listener

	shutdownHooks []namedHook

	started  bool
	stopping bool
	mu       sync.Mutex

	logger zerolog.Logger
}

type namedHook struct {
	name string
	hook ShutdownHook
}

// step is one stage of the shutdown sequence.
type step struct {
	name string
	run  func(ctx context.Context) error
}

// NewManager creates a new daemon manager with the given configuration and dependencies.
func NewManager(serverCfg ServerConfig, deps Deps) (Manager, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	if serverCfg.ShutdownTimeout <= 0 {
		serverCfg.ShutdownTimeout = DefaultServerConfig("").ShutdownTimeout
	}

	return &manager{
		serverCfg:     serverCfg,
		deps:          deps,
		logger:        deps.Logger.With().Str(xglog.FieldComponent, "daemon").Logger(),
		shutdownHooks: make([]namedHook, 0),
	}, nil
}

// Start brings the daemon up: status API, session subscription, countdown,
// indicator. It blocks until ctx is cancelled or the API server fails.
func (m *manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrManagerAlreadyStarted
	}
	m.started = true
	m.mu.Unlock()

	errChan := make(chan error, 1)

	if m.deps.APIHandler != nil && m.serverCfg.ListenAddr != "" {
		if err := m.startAPIServer(errChan); err != nil {
			m.mu.Lock()
			m.stopping = true
			m.mu.Unlock()
			return fmt.Errorf("failed to start status API: %w", err)
		}
	}

	// A missing session facility is not fatal: the countdown still locks
	// once, it just cannot observe unlocks.
	if err := m.deps.Bridge.Start(ctx); err != nil {
		m.logger.Warn().
			Err(err).
			Str(xglog.FieldEvent, "session.subscribe_failed").
			Msg("session notifications unavailable; countdown runs from startup only")
	}

	// The user is logged in when AutoLock starts.
	m.deps.Countdown.Start()

	if m.deps.Indicator != nil {
		m.deps.Indicator.Start()
	}

	m.logger.Info().Str(xglog.FieldEvent, "program.started").Msg("program started")

	var runErr error
	select {
	case runErr = <-errChan:
		m.logger.Error().Err(runErr).Msg("status API failed, initiating shutdown")
	case <-ctx.Done():
		m.logger.Debug().Msg("shutdown signal received")
	}

	// Use a detached-but-bounded context so shutdown can complete even if parent is canceled.
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*m.serverCfg.ShutdownTimeout)
	defer cancel()
	if err := m.Shutdown(shutdownCtx); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

func (m *manager) startAPIServer(errChan chan<- error) error {
	ln, err := net.Listen("tcp", m.serverCfg.ListenAddr)
	if err != nil {
		return err
	}

	m.listener = ln
	m.apiServer = &http.Server{
		Handler:           m.deps.APIHandler,
		ReadTimeout:       m.serverCfg.ReadTimeout,
		ReadHeaderTimeout: m.serverCfg.ReadTimeout / 2,
		WriteTimeout:      m.serverCfg.WriteTimeout,
		IdleTimeout:       m.serverCfg.IdleTimeout,
	}

	m.logger.Info().
		Str("addr", ln.Addr().String()).
		Msg("status API listening")

	go func() {
		if err := m.apiServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error().
				Err(err).
				Str(xglog.FieldEvent, "api.server.failed").
				Msg("status API server failed")
			errChan <- fmt.Errorf("status API: %w", err)
		}
	}()
	return nil
}

// shutdownSteps is the fixed teardown order: stop the indicator, close the
// countdown, unsubscribe from session notifications, log and close the log
// sink, then release the status API.
func (m *manager) shutdownSteps() []step {
	return []step{
		{"indicator", func(context.Context) error {
			if m.deps.Indicator != nil {
				m.deps.Indicator.Stop()
			}
			return nil
		}},
		{"countdown", func(context.Context) error {
			return m.deps.Countdown.Close()
		}},
		{"session", func(context.Context) error {
			return m.deps.Bridge.Close()
		}},
		{"log", func(context.Context) error {
			m.logger.Info().Str(xglog.FieldEvent, "program.stopped").Msg("program stopped")
			if m.deps.LogSink != nil {
				return m.deps.LogSink.Close()
			}
			return nil
		}},
		{"status_api", func(ctx context.Context) error {
			if m.apiServer == nil {
				return nil
			}
			return m.apiServer.Shutdown(ctx)
		}},
	}
}

// Shutdown runs the ordered shutdown sequence. Every step runs even if an
// earlier one fails; errors are joined.
func (m *manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.stopping {
		m.mu.Unlock()
		return nil
	}
	if !m.started {
		m.mu.Unlock()
		return ErrManagerNotStarted
	}
	m.stopping = true
	hooks := append([]namedHook(nil), m.shutdownHooks...)
	m.mu.Unlock()

	m.logger.Debug().Msg("shutting down")

	// Create a bounded shutdown context independent from caller cancellation.
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.serverCfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	for _, s := range m.shutdownSteps() {
		if err := s.run(shutdownCtx); err != nil {
			m.logger.Error().Err(err).Str("step", s.name).Msg("shutdown step failed")
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}

	for i := len(hooks) - 1; i >= 0; i-- {
		hook := hooks[i]
		hookStart := time.Now()
		if err := hook.hook(shutdownCtx); err != nil {
			m.logger.Error().
				Err(err).
				Str("hook", hook.name).
				Dur("duration", time.Since(hookStart)).
				Msg("shutdown hook failed")
			errs = append(errs, fmt.Errorf("hook %s: %w", hook.name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	return nil
}

// RegisterShutdownHook registers a cleanup function to be called during shutdown.
func (m *manager) RegisterShutdownHook(name string, hook ShutdownHook) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.shutdownHooks = append(m.shutdownHooks, namedHook{
		name: name,
		hook: hook,
	})
}
