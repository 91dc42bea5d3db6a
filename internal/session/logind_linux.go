// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

//go:build linux

package session

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	xglog "github.com/ManuGH/autolock/internal/log"
	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"
)

// LogindSource delivers session changes of the caller's systemd-logind session.
type LogindSource struct {
	logger zerolog.Logger
}

// NewPlatformSource returns the systemd-logind source.
func NewPlatformSource(logger zerolog.Logger) (Source, error) {
	return &LogindSource{logger: logger.With().Str(xglog.FieldComponent, "logind").Logger()}, nil
}

// Subscribe opens a system bus connection owned by the returned subscription.
func (s *LogindSource) Subscribe(ctx context.Context, h Handler) (Subscription, error) {
	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("connect system bus: %w", err)
	}

	path, id, err := CurrentLogindSession(ctx, conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	matches := [][]dbus.MatchOption{
		{
			dbus.WithMatchObjectPath(path),
			dbus.WithMatchInterface(propertiesIface),
			dbus.WithMatchMember("PropertiesChanged"),
		},
		{
			dbus.WithMatchObjectPath(logindManagerPath),
			dbus.WithMatchInterface(logindManagerIface),
			dbus.WithMatchMember("SessionNew"),
		},
		{
			dbus.WithMatchObjectPath(logindManagerPath),
			dbus.WithMatchInterface(logindManagerIface),
			dbus.WithMatchMember("SessionRemoved"),
		},
	}
	for _, m := range matches {
		if err := conn.AddMatchSignalContext(ctx, m...); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("add logind match: %w", err)
		}
	}

	sub := &logindSubscription{
		conn:    conn,
		signals: make(chan *dbus.Signal, 16),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	conn.Signal(sub.signals)

	s.logger.Info().
		Str(xglog.FieldEvent, "logind.subscribed").
		Str(xglog.FieldSessionID, id).
		Str(xglog.FieldPath, string(path)).
		Msg("subscribed to logind session signals")

	go sub.loop(h, path, id)
	return sub, nil
}

type logindSubscription struct {
	conn    *dbus.Conn
	signals chan *dbus.Signal
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func (s *logindSubscription) loop(h Handler, path dbus.ObjectPath, id string) {
	defer close(s.stopped)
	for {
		select {
		case <-s.done:
			return
		case sig, ok := <-s.signals:
			if !ok {
				return
			}
			if reason, ok := classifyLogind(sig, path, id); ok {
				h(Event{Reason: reason, SessionID: id, At: time.Now()})
			}
		}
	}
}

func (s *logindSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		<-s.stopped
		s.conn.RemoveSignal(s.signals)
		err = s.conn.Close()
	})
	return err
}

// CurrentLogindSession resolves the object path and id of the logind session
// this process belongs to, preferring $XDG_SESSION_ID.
func CurrentLogindSession(ctx context.Context, conn *dbus.Conn) (dbus.ObjectPath, string, error) {
	mgr := conn.Object(logindDest, logindManagerPath)

	var path dbus.ObjectPath
	if id := os.Getenv("XDG_SESSION_ID"); id != "" {
		if err := mgr.CallWithContext(ctx, logindManagerIface+".GetSession", 0, id).Store(&path); err == nil {
			return path, id, nil
		}
	}

	if err := mgr.CallWithContext(ctx, logindManagerIface+".GetSessionByPID", 0, uint32(os.Getpid())).Store(&path); err != nil {
		return "", "", fmt.Errorf("resolve logind session: %w", err)
	}

	v, err := conn.Object(logindDest, path).GetProperty(logindSessionIface + ".Id")
	if err != nil {
		return "", "", fmt.Errorf("read logind session id: %w", err)
	}
	id, _ := v.Value().(string)
	return path, id, nil
}
