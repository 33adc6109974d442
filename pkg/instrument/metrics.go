package instrument

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/vango-dev/reactor/pkg/reactive"
)

// MetricsConfig configures the Prometheus spy.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "reactor").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for reaction duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus spy.
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
		Namespace: "reactor",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a reactive.Spy that records runtime activity as Prometheus
// metrics.
//
// Metrics collected:
//   - reactor_changes_total: Counter of committed changes by type
//   - reactor_vetoes_total: Counter of intercepted and vetoed changes by type
//   - reactor_transactions_total: Counter of outermost transactions
//   - reactor_batch_depth: Gauge of the current transaction nesting depth
//   - reactor_reaction_runs_total: Counter of reaction runs by status
//   - reactor_reaction_duration_seconds: Histogram of reaction run duration
type Metrics struct {
	changesTotal     *prometheus.CounterVec
	vetoesTotal      *prometheus.CounterVec
	transactions     prometheus.Counter
	batchDepth       prometheus.Gauge
	reactionRuns     *prometheus.CounterVec
	reactionDuration prometheus.Histogram
}

// NewMetrics creates and registers the metrics. Install the result on a
// runtime with reactive.WithSpy or Runtime.SetSpy.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	m := instrument.NewMetrics(instrument.WithRegistry(reg))
//	rt := reactive.NewRuntime(reactive.WithSpy(m))
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		changesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "changes_total",
			Help:        "Total number of committed property changes",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),

		vetoesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "vetoes_total",
			Help:        "Total number of changes vetoed by an interceptor",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),

		transactions: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "transactions_total",
			Help:        "Total number of outermost transactions",
			ConstLabels: config.ConstLabels,
		}),

		batchDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "batch_depth",
			Help:        "Current transaction nesting depth",
			ConstLabels: config.ConstLabels,
		}),

		reactionRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "reaction_runs_total",
			Help:        "Total number of reaction runs",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		reactionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "reaction_duration_seconds",
			Help:        "Reaction run duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
	}
}

// SpyEvent implements reactive.Spy.
func (m *Metrics) SpyEvent(ev reactive.Event) {
	switch ev.Kind {
	case reactive.EventChange:
		if ev.Change != nil {
			m.changesTotal.WithLabelValues(ev.Change.Type.String()).Inc()
		}
	case reactive.EventVeto:
		if ev.Change != nil {
			m.vetoesTotal.WithLabelValues(ev.Change.Type.String()).Inc()
		}
	case reactive.EventTransactionStart:
		m.batchDepth.Set(float64(ev.Depth))
		if ev.Depth == 1 {
			m.transactions.Inc()
		}
	case reactive.EventTransactionEnd:
		m.batchDepth.Set(float64(ev.Depth))
	case reactive.EventReactionEnd:
		status := "success"
		if ev.Err != nil {
			status = "error"
		}
		m.reactionRuns.WithLabelValues(status).Inc()
		m.reactionDuration.Observe(ev.Duration.Seconds())
	}
}

// Snapshot is a point-in-time copy of the counters, for reports.
type Snapshot struct {
	Changes        map[string]float64 `json:"changes"`
	Vetoes         map[string]float64 `json:"vetoes"`
	Transactions   float64            `json:"transactions"`
	ReactionRuns   float64            `json:"reactionRuns"`
	ReactionErrors float64            `json:"reactionErrors"`
}

// Snapshot reads the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		Changes: make(map[string]float64),
		Vetoes:  make(map[string]float64),
	}
	for _, t := range []reactive.ChangeType{reactive.ChangeAdd, reactive.ChangeUpdate, reactive.ChangeRemove} {
		name := t.String()
		if v := counterValue(m.changesTotal.WithLabelValues(name)); v > 0 {
			s.Changes[name] = v
		}
		if v := counterValue(m.vetoesTotal.WithLabelValues(name)); v > 0 {
			s.Vetoes[name] = v
		}
	}
	s.Transactions = counterValue(m.transactions)
	s.ReactionErrors = counterValue(m.reactionRuns.WithLabelValues("error"))
	s.ReactionRuns = counterValue(m.reactionRuns.WithLabelValues("success")) + s.ReactionErrors
	return s
}

func counterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

var _ reactive.Spy = (*Metrics)(nil)
