package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	workflowsInitiatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "workflows_initiated_total",
			Help: "Total number of workflow instances created",
		},
	)

	decisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_decisions_total",
			Help: "Total number of step decisions",
		},
		[]string{"decision"}, // APPROUVE, REJETE
	)

	workflowsByState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "workflows_by_state",
			Help: "Number of workflows by state",
		},
		[]string{"state"},
	)

	lateStepsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "workflow_late_steps",
			Help: "Number of pending current steps past the lateness threshold",
		},
	)

	eventsDispatchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_dispatched_total",
			Help: "Total number of notification events dispatched",
		},
		[]string{"result"}, // success, failed
	)

	databaseConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_active",
			Help: "Number of active database connections",
		},
	)

	databaseConnectionsIdle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	databaseConnectionsMax = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_max",
			Help: "Maximum number of database connections",
		},
	)
)

var once sync.Once

func init() {
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
	prometheus.MustRegister(workflowsInitiatedTotal)
	prometheus.MustRegister(decisionsTotal)
	prometheus.MustRegister(workflowsByState)
	prometheus.MustRegister(lateStepsGauge)
	prometheus.MustRegister(eventsDispatchedTotal)
	prometheus.MustRegister(databaseConnectionsActive)
	prometheus.MustRegister(databaseConnectionsIdle)
	prometheus.MustRegister(databaseConnectionsMax)

	once.Do(func() {
		// runtime collectors may already be registered elsewhere
		_ = prometheus.Register(prometheus.NewGoCollector())
		_ = prometheus.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	})
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest records one API request.
func RecordAPIRequest(method, path string, status int, duration float64) {
	statusText := http.StatusText(status)
	if statusText == "" {
		statusText = fmt.Sprintf("%d", status)
	}
	apiRequestsTotal.WithLabelValues(method, path, statusText).Inc()
	apiRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordWorkflowInitiated records a created workflow instance.
func RecordWorkflowInitiated() {
	workflowsInitiatedTotal.Inc()
}

// RecordDecision records a step decision by outcome.
func RecordDecision(decision string) {
	decisionsTotal.WithLabelValues(decision).Inc()
}

// SetWorkflowsByState sets the per-state workflow gauge.
func SetWorkflowsByState(state string, count float64) {
	workflowsByState.WithLabelValues(state).Set(count)
}

// SetLateSteps sets the late step gauge.
func SetLateSteps(count float64) {
	lateStepsGauge.Set(count)
}

// RecordEventDispatched records one outbox delivery attempt outcome.
func RecordEventDispatched(result string) {
	eventsDispatchedTotal.WithLabelValues(result).Inc()
}

// SetDatabaseConnections sets the connection pool gauges.
func SetDatabaseConnections(active, idle, max float64) {
	databaseConnectionsActive.Set(active)
	databaseConnectionsIdle.Set(idle)
	databaseConnectionsMax.Set(max)
}
