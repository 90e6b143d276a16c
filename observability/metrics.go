package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Rebalance metrics
	RebalanceRunsTotal    *prometheus.CounterVec
	RebalanceDuration     prometheus.Histogram
	RebalanceSignalsTotal *prometheus.CounterVec
	StocksAnalyzed        prometheus.Histogram

	// Momentum metrics
	MomentumBatchOutcomes *prometheus.CounterVec
	MomentumBatchDuration prometheus.Histogram

	// Order metrics
	OrderSubmissionsTotal *prometheus.CounterVec
	FillsAppliedTotal     *prometheus.CounterVec

	// External API metrics
	ExternalAPIRequestsTotal *prometheus.CounterVec
	ExternalAPIErrorsTotal   *prometheus.CounterVec
	ExternalAPIDuration      *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBErrorsTotal   *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// defaultBuckets are the default histogram buckets for duration metrics (in seconds)
var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120}

// universeBuckets are histogram buckets for per-batch universe sizes
var universeBuckets = []float64{0, 10, 25, 50, 100, 250, 500, 1000}

// globalMetrics is the global metrics instance
var globalMetrics *Metrics

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	m := &Metrics{
		RebalanceRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "momentum_trader",
				Subsystem: "rebalance",
				Name:      "runs_total",
				Help:      "Total number of rebalance runs by final status",
			},
			[]string{"status"},
		),
		RebalanceDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "momentum_trader",
				Subsystem: "rebalance",
				Name:      "duration_seconds",
				Help:      "Duration of full rebalance runs in seconds",
				Buckets:   defaultBuckets,
			},
		),
		RebalanceSignalsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "momentum_trader",
				Subsystem: "rebalance",
				Name:      "signals_total",
				Help:      "Total trading signals generated by type",
			},
			[]string{"signal_type"},
		),
		StocksAnalyzed: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "momentum_trader",
				Subsystem: "rebalance",
				Name:      "stocks_analyzed",
				Help:      "Distribution of universe sizes analyzed per rebalance",
				Buckets:   universeBuckets,
			},
		),
		MomentumBatchOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "momentum_trader",
				Subsystem: "momentum",
				Name:      "batch_outcomes_total",
				Help:      "Per-instrument outcomes of momentum batch calculations",
			},
			[]string{"outcome"},
		),
		MomentumBatchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "momentum_trader",
				Subsystem: "momentum",
				Name:      "batch_duration_seconds",
				Help:      "Duration of momentum batch calculations in seconds",
				Buckets:   defaultBuckets,
			},
		),
		OrderSubmissionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "momentum_trader",
				Subsystem: "orders",
				Name:      "submissions_total",
				Help:      "Total order submissions by side and result",
			},
			[]string{"side", "result"},
		),
		FillsAppliedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "momentum_trader",
				Subsystem: "orders",
				Name:      "fills_applied_total",
				Help:      "Total fills applied to the portfolio ledger by side",
			},
			[]string{"side"},
		),
		ExternalAPIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "momentum_trader",
				Subsystem: "external_api",
				Name:      "requests_total",
				Help:      "Total external API requests",
			},
			[]string{"service", "operation"},
		),
		ExternalAPIErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "momentum_trader",
				Subsystem: "external_api",
				Name:      "errors_total",
				Help:      "Total external API errors",
			},
			[]string{"service", "operation"},
		),
		ExternalAPIDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "momentum_trader",
				Subsystem: "external_api",
				Name:      "duration_seconds",
				Help:      "Duration of external API requests in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"service", "operation"},
		),
		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "momentum_trader",
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "Duration of database queries in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"operation"},
		),
		DBErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "momentum_trader",
				Subsystem: "db",
				Name:      "errors_total",
				Help:      "Total database errors",
			},
			[]string{"operation"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "momentum_trader",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "momentum_trader",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   defaultBuckets,
			},
			[]string{"method", "path"},
		),
		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "momentum_trader",
				Subsystem: "circuit_breaker",
				Name:      "state",
				Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"breaker"},
		),
		CircuitBreakerTrips: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "momentum_trader",
				Subsystem: "circuit_breaker",
				Name:      "trips_total",
				Help:      "Total circuit breaker trips",
			},
			[]string{"breaker"},
		),
	}

	return m
}

// InitMetrics initializes the global metrics instance
func InitMetrics(reg prometheus.Registerer) *Metrics {
	globalMetrics = NewMetrics(reg)
	return globalMetrics
}

// GetMetrics returns the global metrics instance, initializing it if needed
func GetMetrics() *Metrics {
	if globalMetrics == nil {
		globalMetrics = NewMetrics(prometheus.NewRegistry())
	}
	return globalMetrics
}

// RecordRebalance records the outcome and duration of a rebalance run
func (m *Metrics) RecordRebalance(status string, duration time.Duration) {
	m.RebalanceRunsTotal.WithLabelValues(status).Inc()
	m.RebalanceDuration.Observe(duration.Seconds())
}

// RecordSignal records a generated trading signal
func (m *Metrics) RecordSignal(signalType string) {
	m.RebalanceSignalsTotal.WithLabelValues(signalType).Inc()
}

// RecordMomentumOutcome records a per-instrument batch outcome
// (scored, unavailable, failed)
func (m *Metrics) RecordMomentumOutcome(outcome string) {
	m.MomentumBatchOutcomes.WithLabelValues(outcome).Inc()
}

// RecordOrderSubmission records an order submission attempt
func (m *Metrics) RecordOrderSubmission(side, result string) {
	m.OrderSubmissionsTotal.WithLabelValues(side, result).Inc()
}

// RecordFillApplied records a fill applied to the ledger
func (m *Metrics) RecordFillApplied(side string) {
	m.FillsAppliedTotal.WithLabelValues(side).Inc()
}

// RecordExternalAPIRequest records an external API call
func (m *Metrics) RecordExternalAPIRequest(service, operation string, duration time.Duration, err error) {
	m.ExternalAPIRequestsTotal.WithLabelValues(service, operation).Inc()
	m.ExternalAPIDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
	if err != nil {
		m.ExternalAPIErrorsTotal.WithLabelValues(service, operation).Inc()
	}
}

// SetCircuitBreakerState records a circuit breaker state change
func (m *Metrics) SetCircuitBreakerState(breaker string, state int) {
	m.CircuitBreakerState.WithLabelValues(breaker).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(breaker string) {
	m.CircuitBreakerTrips.WithLabelValues(breaker).Inc()
}
