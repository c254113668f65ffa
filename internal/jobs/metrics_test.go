package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	assert.NoError(t, m.Track("gl:integrity").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("gl:integrity").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("gl:integrity", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("gl:integrity", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("gl:integrity")))
}

func TestCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddImbalance(1, 12)
	m.AddImbalance(1, 12)
	m.AddProvisioned(3)
	m.AddProvisioned(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.imbalances.WithLabelValues("1", "12")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.provisioned))

	var nilMetrics *Metrics
	nilMetrics.AddImbalance(1, 1)
	assert.NoError(t, nilMetrics.Track("x").End(nil))
}
