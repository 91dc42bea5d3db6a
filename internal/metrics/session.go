// SPDX-License-Identifier: MIT
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autolock_session_events_total",
		Help: "Session switch notifications received by reason",
	}, []string{"reason"}) // reason=logon|logoff|lock|unlock|other

	sessionSubscriptionErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autolock_session_subscription_errors_total",
		Help: "Total number of failed session notification subscriptions",
	})
)

// IncSessionEvent records a session switch notification.
func IncSessionEvent(reason string) { sessionEventsTotal.WithLabelValues(reason).Inc() }

// IncSessionSubscriptionError records a failed subscription attempt.
func IncSessionSubscriptionError() { sessionSubscriptionErrors.Inc() }
