package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Query compilation metrics
	QueriesCompiled     *prometheus.CounterVec
	QueryDuration       *prometheus.HistogramVec
	RenderIntents       *prometheus.CounterVec
	ResolutionFallbacks prometheus.Counter

	// Store metrics
	StoreReadDuration *prometheus.HistogramVec
	BreakdownRows     *prometheus.HistogramVec

	// Ingestion metrics
	RecordsIngested *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		QueriesCompiled: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queries_compiled_total",
				Help: "Total number of analytics queries compiled",
			},
			[]string{"outcome"},
		),

		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "query_duration_seconds",
				Help:    "End-to-end query compile and execute duration",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"outcome"},
		),

		RenderIntents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "render_intents_total",
				Help: "Render intents chosen by the visual classifier",
			},
			[]string{"intent"},
		),

		ResolutionFallbacks: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "entity_resolution_fallbacks_total",
				Help: "Named-entity lookups degraded to a substring filter",
			},
		),

		StoreReadDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "store_read_duration_seconds",
				Help:    "Metric store aggregation read duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		BreakdownRows: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "breakdown_rows",
				Help:    "Breakdown rows returned after filtering and capping",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
			},
			[]string{"dimension"},
		),

		RecordsIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "records_ingested_total",
				Help: "Total facts and entities ingested",
			},
			[]string{"kind"},
		),
	}
}

// HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// Query compilation outcome and duration
func (m *Metrics) RecordQueryCompiled(outcome string, duration time.Duration) {
	m.QueriesCompiled.WithLabelValues(outcome).Inc()
	m.QueryDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// Render intent chosen by the classifier
func (m *Metrics) RecordRenderIntent(intent string) {
	m.RenderIntents.WithLabelValues(intent).Inc()
}

// Named-entity resolution fallback
func (m *Metrics) RecordResolutionFallback() {
	m.ResolutionFallbacks.Inc()
}

// Store read aggregation duration
func (m *Metrics) RecordStoreRead(operation string, duration time.Duration) {
	m.StoreReadDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// Breakdown result size
func (m *Metrics) RecordBreakdownRows(dimension string, count int) {
	m.BreakdownRows.WithLabelValues(dimension).Observe(float64(count))
}

// Ingested record count
func (m *Metrics) RecordIngest(kind string, count int) {
	m.RecordsIngested.WithLabelValues(kind).Add(float64(count))
}

// HTTP requests in flight counter
func (m *Metrics) IncHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// HTTP requests in flight counter
func (m *Metrics) DecHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}
