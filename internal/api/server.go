// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package api serves the loopback status API: countdown state, recent logs,
// health probes, metrics and the shutdown control.
package api

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ManuGH/autolock/internal/api/middleware"
	"github.com/ManuGH/autolock/internal/countdown"
	"github.com/ManuGH/autolock/internal/health"
	xglog "github.com/ManuGH/autolock/internal/log"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// DefaultLogLimit is the number of entries /api/v1/logs returns by default.
const DefaultLogLimit = 100

// Countdown is the read-only countdown view.
type Countdown interface {
	Snapshot() countdown.State
}

// Indicator provides the rendered status line.
type Indicator interface {
	Text() string
}

// LogSource provides recent log entries, oldest first.
type LogSource interface {
	Entries() []xglog.Entry
}

// Deps are the collaborators the API reads from.
type Deps struct {
	Countdown Countdown
	Indicator Indicator // optional
	Logs      LogSource // optional
	Health    *health.Manager
	Version   string
	Metrics   bool

	// Shutdown, if set, enables POST /api/v1/shutdown. It must not block.
	Shutdown func(reason string)
}

// Server is the status API handler.
type Server struct {
	deps   Deps
	logger zerolog.Logger
	router chi.Router

	shutdownOnce sync.Once
}

// StatusResponse is the body of GET /api/v1/status.
type StatusResponse struct {
	Running          bool       `json:"running"`
	RemainingSeconds int64      `json:"remainingSeconds"`
	TimeoutSeconds   int64      `json:"timeoutSeconds"`
	StartedAt        *time.Time `json:"startedAt,omitempty"`
	CountdownID      string     `json:"countdownId,omitempty"`
	Text             string     `json:"text,omitempty"`
	Version          string     `json:"version,omitempty"`
}

// LogsResponse is the body of GET /api/v1/logs.
type LogsResponse struct {
	Entries []xglog.Entry `json:"entries"`
}

// New builds the router.
func New(deps Deps) *Server {
	s := &Server{
		deps:   deps,
		logger: xglog.WithComponent("api"),
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableMetrics:   s.deps.Metrics,
		EnableLogging:   true,
		EnableRateLimit: true,
	})

	if s.deps.Health != nil {
		r.Get("/healthz", s.deps.Health.ServeHealth)
		r.Get("/readyz", s.deps.Health.ServeReady)
	}
	if s.deps.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/logs", s.handleLogs)
		if s.deps.Shutdown != nil {
			r.With(middleware.ControlRateLimit()).Post("/shutdown", s.handleShutdown)
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { writeNotFound(w) })
	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	st := s.deps.Countdown.Snapshot()
	resp := StatusResponse{
		Running:          st.Running,
		RemainingSeconds: int64(st.Remaining / time.Second),
		TimeoutSeconds:   int64(st.Timeout / time.Second),
		CountdownID:      st.CountdownID,
		Version:          s.deps.Version,
	}
	if st.Running {
		started := st.StartedAt
		resp.StartedAt = &started
	}
	if s.deps.Indicator != nil {
		resp.Text = s.deps.Indicator.Text()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleLogs returns the newest entries, oldest first. Query: limit, level.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit := DefaultLogLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}
	level := strings.ToLower(r.URL.Query().Get("level"))

	var entries []xglog.Entry
	if s.deps.Logs != nil {
		entries = s.deps.Logs.Entries()
	}

	out := make([]xglog.Entry, 0, len(entries))
	for _, e := range entries {
		if level == "" || e.Level == level {
			out = append(out, e)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	writeJSON(w, http.StatusOK, LogsResponse{Entries: out})
}

func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	requested := false
	s.shutdownOnce.Do(func() {
		requested = true
		s.logger.Info().
			Str(xglog.FieldEvent, "shutdown.requested").
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Msg("shutdown requested via status API")
		s.deps.Shutdown("api")
	})
	writeJSON(w, http.StatusAccepted, map[string]bool{"shuttingDown": true, "accepted": requested})
}
