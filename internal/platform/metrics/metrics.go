package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	CommandsEnqueued  *prometheus.CounterVec
	CommandsProcessed *prometheus.CounterVec
	CommandsFailed    prometheus.Counter
	CommandsDropped   prometheus.Counter
	CommandsPoisoned  prometheus.Counter

	AuditEventsEmitted *prometheus.CounterVec
	AuditEmitFailures  prometheus.Counter

	ArchiveRuns     *prometheus.CounterVec
	ArchiveRows     prometheus.Counter
	ArchiveDuration prometheus.Histogram

	StreamFailures     prometheus.Counter
	StreamBreakerState prometheus.Gauge

	QueueOpLatency *prometheus.HistogramVec
	HTTPLatency    *prometheus.HistogramVec
}

// New creates and registers all metrics on reg. Passing nil registers on the
// default Prometheus registry, which is what the server exposes on /metrics.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		CommandsEnqueued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "abcretail_order_commands_enqueued_total",
			Help: "Order commands appended to the order queue",
		}, []string{"action"}),
		CommandsProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "abcretail_order_commands_processed_total",
			Help: "Order commands handled by the worker, by outcome (applied, duplicate)",
		}, []string{"action", "outcome"}),
		CommandsFailed: f.NewCounter(prometheus.CounterOpts{
			Name: "abcretail_order_commands_failed_total",
			Help: "Order commands left on the queue after a store failure",
		}),
		CommandsDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "abcretail_order_commands_dropped_total",
			Help: "Undecodable order commands deleted without processing",
		}),
		CommandsPoisoned: f.NewCounter(prometheus.CounterOpts{
			Name: "abcretail_order_commands_poisoned_total",
			Help: "Order commands moved to the poison queue after repeated failures",
		}),
		AuditEventsEmitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "abcretail_audit_events_emitted_total",
			Help: "Audit events appended to the audit queue",
		}, []string{"entity", "action"}),
		AuditEmitFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "abcretail_audit_emit_failures_total",
			Help: "Audit events that could not be appended",
		}),
		ArchiveRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "abcretail_audit_archive_runs_total",
			Help: "Archiver runs by result (empty, archived, failed)",
		}, []string{"result"}),
		ArchiveRows: f.NewCounter(prometheus.CounterOpts{
			Name: "abcretail_audit_archive_rows_total",
			Help: "Audit rows written to archive files",
		}),
		ArchiveDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "abcretail_audit_archive_duration_seconds",
			Help:    "Duration of a single archiver run",
			Buckets: prometheus.DefBuckets,
		}),
		StreamFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "abcretail_audit_stream_failures_total",
			Help: "Archived rows that could not be mirrored to the stream",
		}),
		StreamBreakerState: f.NewGauge(prometheus.GaugeOpts{
			Name: "abcretail_audit_stream_circuit_breaker_state",
			Help: "Stream sink circuit breaker state (0=closed, 1=open)",
		}),
		QueueOpLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "abcretail_queue_op_duration_seconds",
			Help:    "Latency of queue channel operations",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"queue", "op"}),
		HTTPLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "abcretail_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

func (m *Metrics) IncCommandsEnqueued(action string) {
	m.CommandsEnqueued.WithLabelValues(action).Inc()
}

func (m *Metrics) IncCommandsProcessed(action, outcome string) {
	m.CommandsProcessed.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) IncCommandsFailed()   { m.CommandsFailed.Inc() }
func (m *Metrics) IncCommandsDropped()  { m.CommandsDropped.Inc() }
func (m *Metrics) IncCommandsPoisoned() { m.CommandsPoisoned.Inc() }

func (m *Metrics) IncAuditEmitted(entity, action string) {
	m.AuditEventsEmitted.WithLabelValues(entity, action).Inc()
}

func (m *Metrics) IncAuditEmitFailures() { m.AuditEmitFailures.Inc() }

// ObserveArchiveRun records one archiver run and its row count.
func (m *Metrics) ObserveArchiveRun(result string, rows int, start time.Time) {
	m.ArchiveRuns.WithLabelValues(result).Inc()
	m.ArchiveRows.Add(float64(rows))
	m.ArchiveDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncStreamFailures() { m.StreamFailures.Inc() }

func (m *Metrics) SetStreamBreakerState(open bool) {
	if open {
		m.StreamBreakerState.Set(1)
	} else {
		m.StreamBreakerState.Set(0)
	}
}

// ObserveQueueOp records latency for one queue operation.
func (m *Metrics) ObserveQueueOp(queue, op string, start time.Time) {
	m.QueueOpLatency.WithLabelValues(queue, op).Observe(time.Since(start).Seconds())
}

// ObserveHTTPLatency records latency for one request.
func (m *Metrics) ObserveHTTPLatency(route, method string, start time.Time) {
	m.HTTPLatency.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
}
