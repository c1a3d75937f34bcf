package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
)

// ExternalAPIMetrics contains all metrics for external API monitoring
type ExternalAPIMetrics struct {
	// API call duration histogram
	apiDuration *prometheus.HistogramVec

	// API call count counter
	apiCalls *prometheus.CounterVec

	// Circuit breaker state gauge
	circuitBreakerState *prometheus.GaugeVec

	// Timeout count counter
	timeouts *prometheus.CounterVec
}

// NewExternalAPIMetrics creates a new instance of external API metrics
func NewExternalAPIMetrics() *ExternalAPIMetrics {
	return &ExternalAPIMetrics{
		apiDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "withdrawal_engine_external_api_duration_seconds",
				Help:    "Duration of external API calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"api_name", "endpoint", "status"},
		),

		apiCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "withdrawal_engine_external_api_calls_total",
				Help: "Total number of external API calls",
			},
			[]string{"api_name", "status"},
		),

		circuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "withdrawal_engine_circuit_breaker_state",
				Help: "Current state of circuit breakers (0=closed, 1=half-open, 2=open)",
			},
			[]string{"api_name"},
		),

		timeouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "withdrawal_engine_external_api_timeouts_total",
				Help: "Total number of external API timeouts",
			},
			[]string{"api_name", "timeout_type"},
		),
	}
}

// MustRegister registers all metrics with the provided registry
func (m *ExternalAPIMetrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(
		m.apiDuration,
		m.apiCalls,
		m.circuitBreakerState,
		m.timeouts,
	)
}

// RecordAPICall records an API call with duration and status
func (m *ExternalAPIMetrics) RecordAPICall(apiName, endpoint, status string, duration float64) {
	m.apiDuration.WithLabelValues(apiName, endpoint, status).Observe(duration)
	m.apiCalls.WithLabelValues(apiName, status).Inc()
}

// UpdateCircuitBreakerState updates the circuit breaker state metric
func (m *ExternalAPIMetrics) UpdateCircuitBreakerState(apiName string, state gobreaker.State) {
	m.circuitBreakerState.WithLabelValues(apiName).Set(float64(state))
}

// RecordTimeout records a timeout event
func (m *ExternalAPIMetrics) RecordTimeout(apiName, timeoutType string) {
	m.timeouts.WithLabelValues(apiName, timeoutType).Inc()
}

// EngineMetrics tracks the withdrawal pipeline: admissions into the
// request queue and the lifecycle of queued transactions.
type EngineMetrics struct {
	admissions         *prometheus.CounterVec
	duplicateHits      prometheus.Counter
	validationFailures *prometheus.CounterVec
	broadcasts         *prometheus.CounterVec
	feeBumps           *prometheus.CounterVec
	settlements        *prometheus.CounterVec
	pendingRequests    *prometheus.GaugeVec
	inFlightTx         *prometheus.GaugeVec
}

// NewEngineMetrics creates a new instance of withdrawal pipeline metrics
func NewEngineMetrics() *EngineMetrics {
	return &EngineMetrics{
		admissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "withdrawal_engine_admissions_total",
				Help: "Total number of withdrawal requests admitted into the queue",
			},
			[]string{"network"},
		),

		duplicateHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "withdrawal_engine_duplicate_hits_total",
				Help: "Total number of submissions deduplicated by idempotency key",
			},
		),

		validationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "withdrawal_engine_validation_failures_total",
				Help: "Total number of submissions rejected during validation",
			},
			[]string{"field"},
		),

		broadcasts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "withdrawal_engine_broadcasts_total",
				Help: "Total number of transaction broadcast attempts",
			},
			[]string{"network", "status"},
		),

		feeBumps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "withdrawal_engine_fee_bumps_total",
				Help: "Total number of replacement transactions issued with bumped fees",
			},
			[]string{"network"},
		),

		settlements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "withdrawal_engine_settlements_total",
				Help: "Total number of withdrawals reaching a terminal state",
			},
			[]string{"network", "state"},
		),

		pendingRequests: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "withdrawal_engine_pending_requests",
				Help: "Withdrawal requests admitted but not yet settled",
			},
			[]string{"network"},
		),

		inFlightTx: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "withdrawal_engine_tx_in_flight",
				Help: "Transactions handed to a partition worker and not yet settled",
			},
			[]string{"network"},
		),
	}
}

// MustRegister registers all metrics with the provided registry
func (m *EngineMetrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(
		m.admissions,
		m.duplicateHits,
		m.validationFailures,
		m.broadcasts,
		m.feeBumps,
		m.settlements,
		m.pendingRequests,
		m.inFlightTx,
	)
}

func (m *EngineMetrics) RecordAdmission(network string) {
	if m == nil {
		return
	}
	m.admissions.WithLabelValues(network).Inc()
}

func (m *EngineMetrics) RecordDuplicateHit() {
	if m == nil {
		return
	}
	m.duplicateHits.Inc()
}

func (m *EngineMetrics) RecordValidationFailure(field string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(field).Inc()
}

func (m *EngineMetrics) RecordBroadcast(network, status string) {
	if m == nil {
		return
	}
	m.broadcasts.WithLabelValues(network, status).Inc()
}

func (m *EngineMetrics) RecordFeeBump(network string) {
	if m == nil {
		return
	}
	m.feeBumps.WithLabelValues(network).Inc()
}

func (m *EngineMetrics) RecordSettlement(network, state string) {
	if m == nil {
		return
	}
	m.settlements.WithLabelValues(network, state).Inc()
}

func (m *EngineMetrics) SetPendingRequests(network string, n float64) {
	if m == nil {
		return
	}
	m.pendingRequests.WithLabelValues(network).Set(n)
}

func (m *EngineMetrics) SetInFlightTx(network string, n float64) {
	if m == nil {
		return
	}
	m.inFlightTx.WithLabelValues(network).Set(n)
}

// BackgroundJobMetrics tracks cron job executions
type BackgroundJobMetrics struct {
	jobRuns     *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
}

// NewBackgroundJobMetrics creates a new instance of background job metrics
func NewBackgroundJobMetrics() *BackgroundJobMetrics {
	return &BackgroundJobMetrics{
		jobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "withdrawal_engine_background_job_runs_total",
				Help: "Total number of background job executions",
			},
			[]string{"job_name", "status"},
		),

		jobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "withdrawal_engine_background_job_duration_seconds",
				Help:    "Duration of background job executions in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"job_name"},
		),
	}
}

// MustRegister registers all metrics with the provided registry
func (m *BackgroundJobMetrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(m.jobRuns, m.jobDuration)
}

// RecordJobRun records one job execution with its outcome and duration
func (m *BackgroundJobMetrics) RecordJobRun(jobName, status string, duration float64) {
	m.jobRuns.WithLabelValues(jobName, status).Inc()
	m.jobDuration.WithLabelValues(jobName).Observe(duration)
}
