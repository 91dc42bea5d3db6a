// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

//go:build linux

package lockaction

import (
	"context"
	"fmt"

	xglog "github.com/ManuGH/autolock/internal/log"
	"github.com/ManuGH/autolock/internal/session"
	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"
)

// Logind locks the caller's session via org.freedesktop.login1.Session.Lock.
type Logind struct {
	logger zerolog.Logger
}

// NewPlatformLocker returns the systemd-logind locker.
func NewPlatformLocker(logger zerolog.Logger) (Locker, error) {
	return &Logind{logger: logger.With().Str(xglog.FieldComponent, "lockaction").Logger()}, nil
}

// Lock asks logind to lock the current session. A fresh bus connection is used
// per call since locks are rare.
func (l *Logind) Lock(ctx context.Context) error {
	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("connect system bus: %w", err)
	}
	defer func() { _ = conn.Close() }()

	path, id, err := session.CurrentLogindSession(ctx, conn)
	if err != nil {
		return err
	}

	call := conn.Object("org.freedesktop.login1", path).
		CallWithContext(ctx, "org.freedesktop.login1.Session.Lock", 0)
	if call.Err != nil {
		return fmt.Errorf("lock session %s: %w", id, call.Err)
	}

	l.logger.Debug().
		Str(xglog.FieldEvent, "lockaction.requested").
		Str(xglog.FieldSessionID, id).
		Msg("session lock requested")
	return nil
}
