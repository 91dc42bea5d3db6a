// SPDX-License-Identifier: MIT
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	buildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "autolock_build_info",
		Help: "Build information; the value is always 1",
	}, []string{"version", "commit"})

	configChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autolock_config_checks_total",
		Help: "Config file re-checks after a change by outcome",
	}, []string{"outcome"}) // outcome=unchanged|restart_required|invalid
)

// SetBuildInfo publishes the running build.
func SetBuildInfo(version, commit string) {
	buildInfo.WithLabelValues(version, commit).Set(1)
}

// IncConfigCheck records the outcome of a config file re-check.
func IncConfigCheck(outcome string) { configChecksTotal.WithLabelValues(outcome).Inc() }
