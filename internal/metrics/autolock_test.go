// SPDX-License-Identifier: MIT
package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gaugeValue(t *testing.T, gauge prometheus.Gauge) float64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, gauge.Write(metric))
	return metric.GetGauge().GetValue()
}

func TestCountdownCounters(t *testing.T) {
	starts := testutil.ToFloat64(countdownStartsTotal)
	stops := testutil.ToFloat64(countdownStopsTotal)
	timeouts := testutil.ToFloat64(countdownTimeoutsTotal)

	IncCountdownStart()
	IncCountdownStart()
	IncCountdownStop()
	IncCountdownTimeout()

	assert.Equal(t, starts+2, testutil.ToFloat64(countdownStartsTotal))
	assert.Equal(t, stops+1, testutil.ToFloat64(countdownStopsTotal))
	assert.Equal(t, timeouts+1, testutil.ToFloat64(countdownTimeoutsTotal))
}

func TestRecordLockAction(t *testing.T) {
	before := testutil.ToFloat64(lockActionsTotal.WithLabelValues("failure"))
	RecordLockAction("failure", 20*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(lockActionsTotal.WithLabelValues("failure")))
}

func TestRecordIndicator(t *testing.T) {
	RecordIndicator(true, 90*time.Second)
	assert.Equal(t, 1.0, gaugeValue(t, countdownRunning))
	assert.Equal(t, 90.0, gaugeValue(t, countdownRemainingSeconds))

	RecordIndicator(false, time.Hour)
	assert.Equal(t, 0.0, gaugeValue(t, countdownRunning))
	assert.Equal(t, 3600.0, gaugeValue(t, countdownRemainingSeconds))
}

func TestIncSessionEvent(t *testing.T) {
	before := testutil.ToFloat64(sessionEventsTotal.WithLabelValues("unlock"))
	IncSessionEvent("unlock")
	assert.Equal(t, before+1, testutil.ToFloat64(sessionEventsTotal.WithLabelValues("unlock")))
}

func TestProcessMetrics(t *testing.T) {
	SetBuildInfo("v1.2.3", "abc")
	assert.Equal(t, 1.0, testutil.ToFloat64(buildInfo.WithLabelValues("v1.2.3", "abc")))

	before := testutil.ToFloat64(configChecksTotal.WithLabelValues("invalid"))
	IncConfigCheck("invalid")
	assert.Equal(t, before+1, testutil.ToFloat64(configChecksTotal.WithLabelValues("invalid")))
}
