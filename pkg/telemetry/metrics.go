package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/weft/pkg/reconcile"
)

// Reload statuses.
const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusExceeded = "exceeded"
)

// MetricsConfig configures Metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "weft").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for reload duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures Metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "weft",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics records reload and mutation metrics.
type Metrics struct {
	mutations      *prometheus.CounterVec
	reloads        *prometheus.CounterVec
	reloadDuration prometheus.Histogram
	requests       *prometheus.CounterVec
	depthExceeded  prometheus.Counter
}

// NewMetrics registers the metrics with the configured registry. Registering
// twice with the same registry panics, as promauto does.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "mutations_total",
			Help:        "Total number of tree mutations applied by the reconciler",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		reloads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "reloads_total",
			Help:        "Total number of component reloads by status",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		reloadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "reload_duration_seconds",
			Help:        "Reload duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "reload_requests_total",
			Help:        "Total number of reload requests by result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		depthExceeded: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "reload_depth_exceeded_total",
			Help:        "Total number of reloads aborted by the depth guard",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Observe implements reconcile.Observer.
func (m *Metrics) Observe(mu reconcile.Mutation) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(mu.Op.String()).Inc()
}

// ObserveReload records a finished reload.
func (m *Metrics) ObserveReload(d time.Duration, status string) {
	if m == nil {
		return
	}
	m.reloads.WithLabelValues(status).Inc()
	m.reloadDuration.Observe(d.Seconds())
}

// ObserveRequest records the outcome of a reload request.
func (m *Metrics) ObserveRequest(scheduled bool) {
	if m == nil {
		return
	}
	result := "coalesced"
	if scheduled {
		result = "scheduled"
	}
	m.requests.WithLabelValues(result).Inc()
}

// ObserveDepthExceeded records a depth guard trip.
func (m *Metrics) ObserveDepthExceeded() {
	if m == nil {
		return
	}
	m.depthExceeded.Inc()
	m.reloads.WithLabelValues(StatusExceeded).Inc()
}

var _ reconcile.Observer = (*Metrics)(nil)
