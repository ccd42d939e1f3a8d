package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/bobpool/internal/domain"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Entry metrics
	EntriesCreated *prometheus.CounterVec
	EntriesRevised *prometheus.CounterVec
	EntryErrors    *prometheus.CounterVec
	PoolBalance    *prometheus.GaugeVec
	MalformedSkips *prometheus.CounterVec

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxErrors    prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics on the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates all metrics on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Entry metrics
		EntriesCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bobpool_entries_created_total",
				Help: "Total number of ledger entries created by kind",
			},
			[]string{"kind"},
		),
		EntriesRevised: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bobpool_entries_revised_total",
				Help: "Total number of ledger entries revised by kind",
			},
			[]string{"kind"},
		),
		EntryErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bobpool_entry_errors_total",
				Help: "Total number of failed entry operations",
			},
			[]string{"operation", "reason"},
		),
		PoolBalance: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bobpool_pool_balance",
				Help: "Last observed pool balance per restaurant",
			},
			[]string{"restaurant_id"},
		),
		MalformedSkips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bobpool_malformed_entries_skipped_total",
				Help: "Entries skipped by the aggregator because they violate entry invariants",
			},
			[]string{"restaurant_id"},
		),

		// Outbox metrics
		OutboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "bobpool_outbox_published_total",
			Help: "Total number of outbox events published",
		}),
		OutboxErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "bobpool_outbox_errors_total",
			Help: "Total number of outbox publish failures",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bobpool_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bobpool_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Rate limiting metrics
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bobpool_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"method"},
		),
	}
}

func (m *Metrics) EntryCreated(kind domain.EntryKind) {
	m.EntriesCreated.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) EntryRevised(kind domain.EntryKind) {
	m.EntriesRevised.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) EntryFailed(operation, reason string) {
	m.EntryErrors.WithLabelValues(operation, reason).Inc()
}

func (m *Metrics) PoolObserved(restaurantID int64, balance int64) {
	m.PoolBalance.WithLabelValues(strconv.FormatInt(restaurantID, 10)).Set(float64(balance))
}

func (m *Metrics) MalformedSkipped(restaurantID int64, count int) {
	m.MalformedSkips.WithLabelValues(strconv.FormatInt(restaurantID, 10)).Add(float64(count))
}

func (m *Metrics) EventPublished() {
	m.OutboxPublished.Inc()
}

func (m *Metrics) EventFailed() {
	m.OutboxErrors.Inc()
}

func (m *Metrics) RateLimited(method string) {
	m.RateLimitHits.WithLabelValues(method).Inc()
}
