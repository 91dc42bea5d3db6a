// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package session relays OS session switch notifications to the countdown.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	xglog "github.com/ManuGH/autolock/internal/log"
	"github.com/ManuGH/autolock/internal/metrics"
	"github.com/rs/zerolog"
)

var (
	// ErrAlreadyStarted is returned when Start is called more than once.
	ErrAlreadyStarted = errors.New("session bridge already started")

	// ErrMissingSource is returned when the bridge has no notification source.
	ErrMissingSource = errors.New("session source is required")
)

// Countdown is the part of the countdown timer the bridge drives.
type Countdown interface {
	Start()
	Stop()
}

// Bridge forwards exactly one Start or Stop per relevant notification. It keeps
// no state besides its subscription handle; the countdown is shared, not owned.
type Bridge struct {
	countdown Countdown
	source    Source
	logger    zerolog.Logger

	mu      sync.Mutex
	started bool
	sub     Subscription
}

// NewBridge creates a bridge between source and countdown.
func NewBridge(countdown Countdown, source Source, logger zerolog.Logger) *Bridge {
	return &Bridge{
		countdown: countdown,
		source:    source,
		logger:    logger.With().Str(xglog.FieldComponent, "session").Logger(),
	}
}

// Start subscribes to the source. It may be called at most once.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return ErrAlreadyStarted
	}
	if b.source == nil {
		return ErrMissingSource
	}
	b.started = true

	sub, err := b.source.Subscribe(ctx, b.Handle)
	if err != nil {
		metrics.IncSessionSubscriptionError()
		return fmt.Errorf("subscribe to session notifications: %w", err)
	}
	b.sub = sub
	b.logger.Info().Str(xglog.FieldEvent, "session.subscribed").Msg("listening for session changes")
	return nil
}

// Subscribed reports whether the bridge holds a live subscription.
func (b *Bridge) Subscribed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sub != nil
}

// Close unsubscribes. It is safe to call multiple times.
func (b *Bridge) Close() error {
	b.mu.Lock()
	sub := b.sub
	b.sub = nil
	b.mu.Unlock()

	if sub == nil {
		return nil
	}
	if err := sub.Close(); err != nil {
		return fmt.Errorf("unsubscribe from session notifications: %w", err)
	}
	b.logger.Info().Str(xglog.FieldEvent, "session.unsubscribed").Msg("stopped listening for session changes")
	return nil
}

// Handle maps one notification onto the countdown. It runs on the source's
// delivery goroutine.
func (b *Bridge) Handle(ev Event) {
	metrics.IncSessionEvent(ev.Reason.String())

	switch ev.Reason {
	case ReasonUnlock:
		b.event(ev).Msg("unlocked, restarting countdown")
		b.countdown.Start()
	case ReasonLogon:
		b.event(ev).Msg("logon, starting countdown")
		b.countdown.Start()
	case ReasonLock:
		b.countdown.Stop()
	case ReasonLogoff:
		b.countdown.Stop()
		b.event(ev).Msg("logoff")
	default:
		b.logger.Debug().
			Str(xglog.FieldEvent, "session.ignored").
			Str(xglog.FieldReason, ev.Reason.String()).
			Msg("ignoring session notification")
	}
}

func (b *Bridge) event(ev Event) *zerolog.Event {
	e := b.logger.Info().
		Str(xglog.FieldEvent, "session."+ev.Reason.String()).
		Str(xglog.FieldReason, ev.Reason.String())
	if ev.SessionID != "" {
		e = e.Str(xglog.FieldSessionID, ev.SessionID)
	}
	return e
}
