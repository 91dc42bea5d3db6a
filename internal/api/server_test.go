// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/autolock/internal/countdown"
	"github.com/ManuGH/autolock/internal/health"
	xglog "github.com/ManuGH/autolock/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCountdown struct{ state countdown.State }

func (c staticCountdown) Snapshot() countdown.State { return c.state }

type staticText string

func (s staticText) Text() string { return string(s) }

type staticLogs []xglog.Entry

func (l staticLogs) Entries() []xglog.Entry { return l }

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "127.0.0.1:50000"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestStatus(t *testing.T) {
	started := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	srv := New(Deps{
		Countdown: staticCountdown{countdown.State{
			Running:     true,
			Timeout:     time.Hour,
			Remaining:   59*time.Minute + 30*time.Second + 700*time.Millisecond,
			StartedAt:   started,
			CountdownID: "c-1",
		}},
		Indicator: staticText("AutoLock - 59 min 30 s remaining"),
		Version:   "v1.2.3",
	})

	w := do(t, srv, http.MethodGet, "/api/v1/status")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Running)
	assert.Equal(t, int64(3570), resp.RemainingSeconds)
	assert.Equal(t, int64(3600), resp.TimeoutSeconds)
	require.NotNil(t, resp.StartedAt)
	assert.True(t, started.Equal(*resp.StartedAt))
	assert.Equal(t, "c-1", resp.CountdownID)
	assert.Equal(t, "AutoLock - 59 min 30 s remaining", resp.Text)
	assert.Equal(t, "v1.2.3", resp.Version)
}

func TestStatus_Paused(t *testing.T) {
	srv := New(Deps{Countdown: staticCountdown{countdown.State{Timeout: time.Hour, Remaining: time.Hour}}})

	w := do(t, srv, http.MethodGet, "/api/v1/status")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "startedAt")
	assert.Contains(t, w.Body.String(), `"remainingSeconds":3600`)
}

func TestLogs(t *testing.T) {
	entries := staticLogs{
		{Level: "info", Message: "program started"},
		{Level: "debug", Message: "tick"},
		{Level: "info", Message: "countdown started, duration=1h0m0s"},
		{Level: "error", Message: "failed to lock workstation"},
	}
	srv := New(Deps{Countdown: staticCountdown{}, Logs: entries})

	decode := func(w *httptest.ResponseRecorder) []string {
		require.Equal(t, http.StatusOK, w.Code)
		var resp LogsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		msgs := make([]string, 0, len(resp.Entries))
		for _, e := range resp.Entries {
			msgs = append(msgs, e.Message)
		}
		return msgs
	}

	assert.Len(t, decode(do(t, srv, http.MethodGet, "/api/v1/logs")), 4)
	assert.Equal(t,
		[]string{"countdown started, duration=1h0m0s", "failed to lock workstation"},
		decode(do(t, srv, http.MethodGet, "/api/v1/logs?limit=2")))
	assert.Equal(t,
		[]string{"program started", "countdown started, duration=1h0m0s"},
		decode(do(t, srv, http.MethodGet, "/api/v1/logs?level=INFO")))

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/api/v1/logs?limit=0").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/api/v1/logs?limit=x").Code)
}

func TestLogs_NoSource(t *testing.T) {
	srv := New(Deps{Countdown: staticCountdown{}})
	w := do(t, srv, http.MethodGet, "/api/v1/logs")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"entries":[]}`, w.Body.String())
}

func TestShutdown(t *testing.T) {
	var (
		mu      sync.Mutex
		reasons []string
	)
	srv := New(Deps{
		Countdown: staticCountdown{},
		Shutdown: func(reason string) {
			mu.Lock()
			defer mu.Unlock()
			reasons = append(reasons, reason)
		},
	})

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, srv, http.MethodGet, "/api/v1/shutdown").Code)

	w := do(t, srv, http.MethodPost, "/api/v1/shutdown")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"shuttingDown":true,"accepted":true}`, w.Body.String())

	w = do(t, srv, http.MethodPost, "/api/v1/shutdown")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"shuttingDown":true,"accepted":false}`, w.Body.String())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"api"}, reasons, "shutdown is triggered once")
}

func TestShutdown_RejectsCrossSite(t *testing.T) {
	var fired []string
	srv := New(Deps{
		Countdown: staticCountdown{},
		Shutdown:  func(reason string) { fired = append(fired, reason) },
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/shutdown", strings.NewReader("x"))
	req.RemoteAddr = "127.0.0.1:50000"
	req.Host = "127.0.0.1:8765"
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, fired, "a cross-site request must not trigger shutdown")

	// The local CLI sends no Origin and still works.
	assert.Equal(t, http.StatusAccepted, do(t, srv, http.MethodPost, "/api/v1/shutdown").Code)
	assert.Equal(t, []string{"api"}, fired)
}

func TestShutdown_Disabled(t *testing.T) {
	srv := New(Deps{Countdown: staticCountdown{}})
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodPost, "/api/v1/shutdown").Code)
}

func TestProbesAndMetrics(t *testing.T) {
	hm := health.NewManager("v1")
	hm.RegisterChecker(health.NewSessionChecker(func() bool { return true }))

	srv := New(Deps{Countdown: staticCountdown{}, Health: hm, Metrics: true})

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/healthz").Code)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/readyz").Code)

	w := do(t, srv, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "autolock_http_requests_in_flight")

	noMetrics := New(Deps{Countdown: staticCountdown{}})
	assert.Equal(t, http.StatusNotFound, do(t, noMetrics, http.MethodGet, "/metrics").Code)
	assert.Equal(t, http.StatusNotFound, do(t, noMetrics, http.MethodGet, "/healthz").Code)
}
