package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics.
type Metrics struct {
	// History provider metrics
	historyFetchTotal    *prometheus.CounterVec
	historyFetchDuration *prometheus.HistogramVec

	// Scan metrics
	scansTotal       *prometheus.CounterVec
	cardsPerScan     prometheus.Histogram
	transactionScore prometheus.Histogram

	// Identity and rendering metrics
	skullsGeneratedTotal *prometheus.CounterVec
	renderStreamsActive  prometheus.Gauge
	playbackHandoffs     prometheus.Counter

	// Cache metrics
	cacheLookupsTotal *prometheus.CounterVec

	// Mint metrics
	mintsTotal *prometheus.CounterVec

	// Upstream collaborator metrics
	upstreamCallsTotal *prometheus.CounterVec

	// Database metrics
	dbQueryDuration   *prometheus.HistogramVec
	dbOperationsTotal *prometheus.CounterVec

	// HTTP metrics
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsTotal    *prometheus.CounterVec
	sseActiveConnections prometheus.Gauge
	sseEventsSent        *prometheus.CounterVec

	// NATS metrics
	natsMessagesPublished *prometheus.CounterVec
	natsPublishDuration   *prometheus.HistogramVec

	// Workflow metrics
	activityDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		historyFetchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crypt_history_fetch_total",
				Help: "Total number of wallet history fetches by status",
			},
			[]string{"status"},
		),
		historyFetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crypt_history_fetch_duration_seconds",
				Help:    "Duration of wallet history fetches in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"status"},
		),

		scansTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crypt_scans_total",
				Help: "Total number of wallet scans by outcome (empty, relaxed, full)",
			},
			[]string{"outcome"},
		),
		cardsPerScan: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "crypt_cards_per_scan",
				Help:    "Number of cards produced per wallet scan",
				Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 7, 8},
			},
		),
		transactionScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "crypt_transaction_score",
				Help:    "Distribution of transaction interest scores",
				Buckets: []float64{-75, -50, -25, 0, 25, 50, 75, 100, 150},
			},
		),

		skullsGeneratedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crypt_skulls_generated_total",
				Help: "Total number of skull identities generated by output format",
			},
			[]string{"format"},
		),
		renderStreamsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "crypt_render_streams_active",
				Help: "Number of open animated skull frame streams",
			},
		),
		playbackHandoffs: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "crypt_playback_handoffs_total",
				Help: "Total number of times playback ownership moved to a new card",
			},
		),

		cacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crypt_cache_lookups_total",
				Help: "Total number of scan cache lookups by result (hit, miss, error)",
			},
			[]string{"result"},
		),

		mintsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crypt_mints_total",
				Help: "Total number of card mint attempts by status",
			},
			[]string{"status"},
		),

		upstreamCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crypt_upstream_calls_total",
				Help: "Total number of calls to decoration collaborators by service and status",
			},
			[]string{"service", "status"},
		),

		dbQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "db_query_duration_seconds",
				Help:    "Duration of database queries in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"operation", "table"},
		),
		dbOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "db_operations_total",
				Help: "Total number of database operations",
			},
			[]string{"operation", "status"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"handler", "method", "status"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),
		sseActiveConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sse_active_connections",
				Help: "Number of active SSE connections",
			},
		),
		sseEventsSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sse_events_sent_total",
				Help: "Total number of SSE events sent",
			},
			[]string{"event_type"},
		),

		natsMessagesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nats_messages_published_total",
				Help: "Total number of NATS messages published",
			},
			[]string{"subject", "status"},
		),
		natsPublishDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nats_publish_duration_seconds",
				Help:    "Duration of NATS publish operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"subject"},
		),

		activityDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crypt_activity_duration_seconds",
				Help:    "Duration of Temporal activity executions in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"activity", "status"},
		),
	}
}

// History and scan metric helpers

// RecordHistoryFetch records one call to the history provider.
func (m *Metrics) RecordHistoryFetch(status string, duration float64) {
	m.historyFetchTotal.WithLabelValues(status).Inc()
	m.historyFetchDuration.WithLabelValues(status).Observe(duration)
}

// ObserveScore records the score of one ranked transaction.
func (m *Metrics) ObserveScore(score int) {
	m.transactionScore.Observe(float64(score))
}

// RecordScan records the outcome of a completed scan.
func (m *Metrics) RecordScan(cards int, relaxed bool) {
	outcome := "full"
	switch {
	case cards == 0:
		outcome = "empty"
	case relaxed:
		outcome = "relaxed"
	}
	m.scansTotal.WithLabelValues(outcome).Inc()
	m.cardsPerScan.Observe(float64(cards))
}

// Identity and rendering metric helpers

// RecordSkullGenerated records a generated skull by output format (json, png,
// stream, terminal).
func (m *Metrics) RecordSkullGenerated(format string) {
	m.skullsGeneratedTotal.WithLabelValues(format).Inc()
}

// RecordRenderStreamChange adjusts the open frame stream gauge.
func (m *Metrics) RecordRenderStreamChange(delta float64) {
	m.renderStreamsActive.Add(delta)
}

// RecordPlaybackHandoff records playback ownership moving to a new owner.
func (m *Metrics) RecordPlaybackHandoff() {
	m.playbackHandoffs.Inc()
}

// RecordCacheLookup records a scan cache lookup result.
func (m *Metrics) RecordCacheLookup(result string) {
	m.cacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordMint records a mint attempt.
func (m *Metrics) RecordMint(status string) {
	m.mintsTotal.WithLabelValues(status).Inc()
}

// RecordUpstreamCall records a call to a decoration collaborator such as the
// soundtrack or identity service.
func (m *Metrics) RecordUpstreamCall(service string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.upstreamCallsTotal.WithLabelValues(service, status).Inc()
}

// Database metric helpers

// RecordDBQuery records a database query with duration.
func (m *Metrics) RecordDBQuery(operation, table string, duration float64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.dbQueryDuration.WithLabelValues(operation, table).Observe(duration)
	m.dbOperationsTotal.WithLabelValues(operation, status).Inc()
}

// HTTP metric helpers

// RecordHTTPRequest records an HTTP request with duration.
func (m *Metrics) RecordHTTPRequest(handler, method string, statusCode int, duration float64) {
	status := statusCodeToString(statusCode)
	m.httpRequestDuration.WithLabelValues(handler, method, status).Observe(duration)
	m.httpRequestsTotal.WithLabelValues(handler, method, status).Inc()
}

// RecordSSEConnectionChange records a change in SSE connection count.
func (m *Metrics) RecordSSEConnectionChange(delta float64) {
	m.sseActiveConnections.Add(delta)
}

// RecordSSEEventSent records an SSE event being sent.
func (m *Metrics) RecordSSEEventSent(eventType string) {
	m.sseEventsSent.WithLabelValues(eventType).Inc()
}

// NATS metric helpers

// RecordNATSPublish records a NATS publish operation.
func (m *Metrics) RecordNATSPublish(subject, status string, duration float64) {
	m.natsMessagesPublished.WithLabelValues(subject, status).Inc()
	m.natsPublishDuration.WithLabelValues(subject).Observe(duration)
}

// RecordActivityDuration records how long a workflow activity ran.
func (m *Metrics) RecordActivityDuration(activity string, duration float64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.activityDuration.WithLabelValues(activity, status).Observe(duration)
}

// Helper functions

func statusCodeToString(code int) string {
	// Group status codes by class
	switch {
	case code >= 100 && code < 600:
		return strconv.Itoa(code/100) + "xx"
	default:
		return "unknown"
	}
}
