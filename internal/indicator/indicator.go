// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package indicator is the status shell: it samples the countdown once per
// second and keeps the human readable status line.
package indicator

import (
	"sync"
	"time"

	"github.com/ManuGH/autolock/internal/clock"
	"github.com/ManuGH/autolock/internal/countdown"
	xglog "github.com/ManuGH/autolock/internal/log"
	"github.com/ManuGH/autolock/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/time/rate"
)

// DefaultInterval is the refresh period.
const DefaultInterval = time.Second

// Countdown is the read-only view the indicator polls.
type Countdown interface {
	Snapshot() countdown.State
}

// Config configures an Indicator.
type Config struct {
	Countdown Countdown
	Language  language.Tag
	Logger    zerolog.Logger

	// Optional
	Clock    clock.Clock
	Interval time.Duration
}

// Status is the last rendered sample.
type Status struct {
	Text      string
	Running   bool
	Remaining time.Duration
	Timeout   time.Duration
	SampledAt time.Time
}

// Indicator polls a Countdown. It never mutates it.
type Indicator struct {
	countdown Countdown
	printer   *message.Printer
	clock     clock.Clock
	interval  time.Duration
	logger    zerolog.Logger
	debug     rate.Sometimes

	mu       sync.Mutex
	status   Status
	started  bool
	stopped  bool
	timer    clock.Timer
	inflight sync.WaitGroup
}

// New creates an indicator and renders an initial sample.
func New(cfg Config) *Indicator {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Language == language.Und {
		cfg.Language = language.Chinese
	}
	i := &Indicator{
		countdown: cfg.Countdown,
		printer:   newPrinter(cfg.Language),
		clock:     cfg.Clock,
		interval:  cfg.Interval,
		logger:    cfg.Logger.With().Str(xglog.FieldComponent, "indicator").Logger(),
		debug:     rate.Sometimes{First: 1, Interval: time.Minute},
	}
	i.Refresh()
	return i
}

// Start begins periodic refresh. Calls after the first, or after Stop, are no-ops.
func (i *Indicator) Start() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.started || i.stopped {
		return
	}
	i.started = true
	i.timer = i.clock.AfterFunc(i.interval, i.tick)
}

// Stop halts refresh and waits for an in-flight refresh to finish. The last
// status stays readable.
func (i *Indicator) Stop() {
	i.mu.Lock()
	if i.stopped {
		i.mu.Unlock()
		return
	}
	i.stopped = true
	if i.timer != nil {
		i.timer.Stop()
	}
	i.mu.Unlock()

	i.inflight.Wait()
	i.logger.Debug().Str(xglog.FieldEvent, "indicator.stopped").Msg("status indicator stopped")
}

// Refresh samples the countdown and re-renders the status.
func (i *Indicator) Refresh() Status {
	st := i.countdown.Snapshot()
	s := Status{
		Text:      Render(i.printer, st.Running, st.Remaining),
		Running:   st.Running,
		Remaining: st.Remaining,
		Timeout:   st.Timeout,
		SampledAt: i.clock.Now(),
	}

	i.mu.Lock()
	i.status = s
	i.mu.Unlock()

	metrics.RecordIndicator(s.Running, s.Remaining)
	i.debug.Do(func() {
		i.logger.Debug().
			Str(xglog.FieldEvent, "indicator.refresh").
			Bool("running", s.Running).
			Dur(xglog.FieldRemaining, s.Remaining).
			Msg(s.Text)
	})
	return s
}

// Status returns the last rendered sample.
func (i *Indicator) Status() Status {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.status
}

// Text returns the last rendered status line.
func (i *Indicator) Text() string {
	return i.Status().Text
}

func (i *Indicator) tick() {
	i.mu.Lock()
	if i.stopped {
		i.mu.Unlock()
		return
	}
	i.inflight.Add(1)
	i.mu.Unlock()
	defer i.inflight.Done()

	i.Refresh()

	i.mu.Lock()
	if !i.stopped {
		i.timer = i.clock.AfterFunc(i.interval, i.tick)
	}
	i.mu.Unlock()
}
