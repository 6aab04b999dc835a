package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_IsolatedRegistry(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncCommandsEnqueued("create")
	m.IncCommandsEnqueued("create")
	m.IncCommandsProcessed("create", "applied")
	m.ObserveArchiveRun("archived", 3, time.Now())
	m.SetStreamBreakerState(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CommandsEnqueued.WithLabelValues("create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsProcessed.WithLabelValues("create", "applied")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ArchiveRows))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StreamBreakerState))

	// A second registry must not collide with the first.
	assert.NotPanics(t, func() { New(prometheus.NewRegistry()) })
}
