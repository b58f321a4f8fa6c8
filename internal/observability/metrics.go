// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Royalty metrics
	RoyaltyCalculations      *prometheus.CounterVec
	RoyaltyCalculationErrors *prometheus.CounterVec

	// Payout metrics
	PayoutsSubmitted       *prometheus.CounterVec
	PayoutsConfirmed       *prometheus.CounterVec
	PayoutsFailed          *prometheus.CounterVec
	SubmissionErrors       *prometheus.CounterVec
	RegistrationsSubmitted *prometheus.CounterVec

	// Monitor metrics
	MonitorsInFlight    prometheus.Gauge
	MonitorPolls        *prometheus.CounterVec
	MonitorPollErrors   *prometheus.CounterVec
	ConfirmationLatency *prometheus.HistogramVec

	// Chain client metrics
	RPCCallLatency *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "royalty_engine"
	}

	return &Metrics{
		// Royalty metrics
		RoyaltyCalculations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "royalty",
			Name:      "calculations_total",
			Help:      "Total number of royalty calculations by platform",
		}, []string{"platform"}),
		RoyaltyCalculationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "royalty",
			Name:      "calculation_errors_total",
			Help:      "Total number of royalty calculation errors by type",
		}, []string{"error_type"}),

		// Payout metrics
		PayoutsSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payout",
			Name:      "submitted_total",
			Help:      "Total number of payouts submitted by chain",
		}, []string{"chain"}),
		PayoutsConfirmed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payout",
			Name:      "confirmed_total",
			Help:      "Total number of payouts confirmed by chain",
		}, []string{"chain"}),
		PayoutsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payout",
			Name:      "failed_total",
			Help:      "Total number of payouts failed by chain and reason",
		}, []string{"chain", "reason"}),
		SubmissionErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payout",
			Name:      "submission_errors_total",
			Help:      "Total number of chain submission errors by chain",
		}, []string{"chain"}),
		RegistrationsSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rights",
			Name:      "registrations_submitted_total",
			Help:      "Total number of rights registrations submitted by chain",
		}, []string{"chain"}),

		// Monitor metrics
		MonitorsInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "in_flight",
			Help:      "Number of transactions currently being monitored",
		}),
		MonitorPolls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "polls_total",
			Help:      "Total number of confirmation polls by chain",
		}, []string{"chain"}),
		MonitorPollErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "poll_errors_total",
			Help:      "Total number of confirmation poll errors by chain",
		}, []string{"chain"}),
		ConfirmationLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "confirmation_latency_seconds",
			Help:      "Time from submission to terminal status in seconds",
			Buckets:   []float64{5, 15, 30, 60, 120, 180, 300, 600},
		}, []string{"chain", "status"}),

		// Chain client metrics
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "rpc_call_latency_seconds",
			Help:      "Chain RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"chain", "method"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordCalculation increments the royalty calculations counter.
func RecordCalculation(platform string) {
	DefaultMetrics.RoyaltyCalculations.WithLabelValues(platform).Inc()
}

// RecordCalculationError records a royalty calculation error.
func RecordCalculationError(errorType string) {
	DefaultMetrics.RoyaltyCalculationErrors.WithLabelValues(errorType).Inc()
}

// RecordPayoutSubmitted increments the payouts submitted counter.
func RecordPayoutSubmitted(chain string) {
	DefaultMetrics.PayoutsSubmitted.WithLabelValues(chain).Inc()
}

// RecordRegistrationSubmitted increments the registrations submitted counter.
func RecordRegistrationSubmitted(chain string) {
	DefaultMetrics.RegistrationsSubmitted.WithLabelValues(chain).Inc()
}

// RecordSubmissionError records a chain submission error.
func RecordSubmissionError(chain string) {
	DefaultMetrics.SubmissionErrors.WithLabelValues(chain).Inc()
}

// RecordConfirmed records a confirmed transaction and its latency.
func RecordConfirmed(chain string, seconds float64) {
	DefaultMetrics.PayoutsConfirmed.WithLabelValues(chain).Inc()
	DefaultMetrics.ConfirmationLatency.WithLabelValues(chain, "CONFIRMED").Observe(seconds)
}

// RecordFailed records a failed transaction with its reason and latency.
func RecordFailed(chain, reason string, seconds float64) {
	DefaultMetrics.PayoutsFailed.WithLabelValues(chain, reason).Inc()
	DefaultMetrics.ConfirmationLatency.WithLabelValues(chain, "FAILED").Observe(seconds)
}

// MonitorStarted increments the in-flight monitor gauge.
func MonitorStarted() {
	DefaultMetrics.MonitorsInFlight.Inc()
}

// MonitorFinished decrements the in-flight monitor gauge.
func MonitorFinished() {
	DefaultMetrics.MonitorsInFlight.Dec()
}

// RecordPoll records a confirmation poll.
func RecordPoll(chain string, err error) {
	DefaultMetrics.MonitorPolls.WithLabelValues(chain).Inc()
	if err != nil {
		DefaultMetrics.MonitorPollErrors.WithLabelValues(chain).Inc()
	}
}

// RecordRPCCall records the latency of a single chain RPC call.
func RecordRPCCall(chain, method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(chain, method).Observe(seconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(operation).Inc()
	}
}
