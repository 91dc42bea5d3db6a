// SPDX-License-Identifier: MIT
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Countdown state machine
	countdownStartsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autolock_countdown_starts_total",
		Help: "Total number of countdown (re)starts",
	})

	countdownStopsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autolock_countdown_stops_total",
		Help: "Total number of running countdowns stopped before timeout",
	})

	countdownTimeoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autolock_countdown_timeouts_total",
		Help: "Total number of countdowns that reached their timeout",
	})

	countdownCheckPanicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autolock_countdown_check_panics_total",
		Help: "Total number of periodic countdown checks that panicked and were recovered",
	})

	lockActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autolock_lock_actions_total",
		Help: "Lock action invocations by outcome",
	}, []string{"outcome"}) // outcome=success|failure|panic

	lockActionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "autolock_lock_action_duration_seconds",
		Help:    "Latency of the OS lock call",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	// UI shell
	countdownRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "autolock_countdown_running",
		Help: "Whether a countdown is currently running (1) or paused (0)",
	})

	countdownRemainingSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "autolock_countdown_remaining_seconds",
		Help: "Seconds until the workstation is locked, as last sampled by the indicator",
	})
)

// IncCountdownStart records a countdown (re)start.
func IncCountdownStart() { countdownStartsTotal.Inc() }

// IncCountdownStop records a running countdown being stopped.
func IncCountdownStop() { countdownStopsTotal.Inc() }

// IncCountdownTimeout records a countdown reaching its timeout.
func IncCountdownTimeout() { countdownTimeoutsTotal.Inc() }

// IncCountdownCheckPanic records a recovered panic in the periodic check.
func IncCountdownCheckPanic() { countdownCheckPanicsTotal.Inc() }

// RecordLockAction records the outcome and latency of one lock action.
func RecordLockAction(outcome string, took time.Duration) {
	lockActionsTotal.WithLabelValues(outcome).Inc()
	lockActionDuration.Observe(took.Seconds())
}

// RecordIndicator publishes the state sampled by the status indicator.
func RecordIndicator(running bool, remaining time.Duration) {
	if running {
		countdownRunning.Set(1)
	} else {
		countdownRunning.Set(0)
	}
	countdownRemainingSeconds.Set(remaining.Seconds())
}
