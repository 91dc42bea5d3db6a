// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/autolock/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func reserveListenAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve listen addr: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	return addr
}

func waitForListen(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return errors.New("listen timeout")
}

// recorder collects component calls in order.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type fakeCountdown struct {
	rec      *recorder
	closeErr error
}

func (f *fakeCountdown) Start()       { f.rec.add("countdown.start") }
func (f *fakeCountdown) Close() error { f.rec.add("countdown.close"); return f.closeErr }

type fakeBridge struct {
	rec      *recorder
	startErr error
	closeErr error
}

func (f *fakeBridge) Start(context.Context) error { f.rec.add("bridge.start"); return f.startErr }
func (f *fakeBridge) Close() error                { f.rec.add("bridge.close"); return f.closeErr }

type fakeIndicator struct{ rec *recorder }

func (f *fakeIndicator) Start() { f.rec.add("indicator.start") }
func (f *fakeIndicator) Stop()  { f.rec.add("indicator.stop") }

type fakeSink struct{ rec *recorder }

func (f *fakeSink) Close() error { f.rec.add("log.close"); return nil }

func newDeps(rec *recorder) Deps {
	return Deps{
		Logger:    log.WithComponent("test"),
		Countdown: &fakeCountdown{rec: rec},
		Bridge:    &fakeBridge{rec: rec},
		Indicator: &fakeIndicator{rec: rec},
		LogSink:   &fakeSink{rec: rec},
	}
}

func testServerConfig(addr string) ServerConfig {
	cfg := DefaultServerConfig(addr)
	cfg.ShutdownTimeout = 2 * time.Second
	return cfg
}

func TestNewManager_ValidDeps(t *testing.T) {
	mgr, err := NewManager(testServerConfig(""), newDeps(&recorder{}))
	require.NoError(t, err)
	require.NotNil(t, mgr)
}

func TestNewManager_MissingDeps(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Deps)
		want   error
	}{
		{"countdown", func(d *Deps) { d.Countdown = nil }, ErrMissingCountdown},
		{"bridge", func(d *Deps) { d.Bridge = nil }, ErrMissingBridge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newDeps(&recorder{})
			tt.mutate(&deps)
			_, err := NewManager(testServerConfig(""), deps)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestManager_StartAndShutdownOrder(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	rec := &recorder{}
	addr := reserveListenAddr(t)
	deps := newDeps(rec)
	deps.APIHandler = http.NotFoundHandler()

	mgr, err := NewManager(testServerConfig(addr), deps)
	require.NoError(t, err)

	var apiClosedBeforeHook bool
	mgr.RegisterShutdownHook("first", func(context.Context) error {
		rec.add("hook.first")
		return nil
	})
	mgr.RegisterShutdownHook("second", func(context.Context) error {
		conn, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
		if err == nil {
			_ = conn.Close()
		}
		apiClosedBeforeHook = err != nil
		rec.add("hook.second")
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mgr.Start(ctx) }()

	require.NoError(t, waitForListen(addr, 2*time.Second))
	require.Eventually(t, func() bool {
		return len(rec.Calls()) == 3
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"bridge.start", "countdown.start", "indicator.start"}, rec.Calls())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancellation")
	}

	assert.Equal(t, []string{
		"bridge.start", "countdown.start", "indicator.start",
		"indicator.stop", "countdown.close", "bridge.close", "log.close",
		"hook.second", "hook.first",
	}, rec.Calls())
	assert.True(t, apiClosedBeforeHook, "status API must be released before hooks run")

	// A second shutdown is a no-op.
	require.NoError(t, mgr.Shutdown(context.Background()))
	assert.Len(t, rec.Calls(), 9)
}

func TestManager_SubscribeFailureIsNotFatal(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	rec := &recorder{}
	deps := newDeps(rec)
	deps.Bridge = &fakeBridge{rec: rec, startErr: errors.New("no session bus")}

	mgr, err := NewManager(testServerConfig(""), deps)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, mgr.Start(ctx))

	assert.Contains(t, rec.Calls(), "countdown.start")
	assert.Contains(t, rec.Calls(), "bridge.close")
}

func TestManager_ShutdownJoinsErrors(t *testing.T) {
	rec := &recorder{}
	errCountdown := errors.New("countdown close failed")
	errBridge := errors.New("unsubscribe failed")
	errHook := errors.New("hook failed")

	deps := newDeps(rec)
	deps.Countdown = &fakeCountdown{rec: rec, closeErr: errCountdown}
	deps.Bridge = &fakeBridge{rec: rec, closeErr: errBridge}

	mgr, err := NewManager(testServerConfig(""), deps)
	require.NoError(t, err)
	mgr.RegisterShutdownHook("broken", func(context.Context) error { return errHook })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = mgr.Start(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, errCountdown)
	assert.ErrorIs(t, err, errBridge)
	assert.ErrorIs(t, err, errHook)
	// Every step still ran.
	assert.Contains(t, rec.Calls(), "log.close")
}

func TestManager_ShutdownBeforeStart(t *testing.T) {
	mgr, err := NewManager(testServerConfig(""), newDeps(&recorder{}))
	require.NoError(t, err)
	require.ErrorIs(t, mgr.Shutdown(context.Background()), ErrManagerNotStarted)
}

func TestManager_StartTwice(t *testing.T) {
	mgr, err := NewManager(testServerConfig(""), newDeps(&recorder{}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, mgr.Start(ctx))
	require.ErrorIs(t, mgr.Start(ctx), ErrManagerAlreadyStarted)
}

func TestManager_ListenFailure(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	rec := &recorder{}
	deps := newDeps(rec)
	deps.APIHandler = http.NotFoundHandler()

	mgr, err := NewManager(testServerConfig(ln.Addr().String()), deps)
	require.NoError(t, err)

	err = mgr.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start status API")
	assert.Empty(t, rec.Calls(), "nothing starts when the status API cannot bind")
}
