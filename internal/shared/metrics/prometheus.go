package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Business metrics
	helpRequestsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "help_requests_created_total",
			Help: "Total number of help requests created",
		},
		[]string{"emergency_type", "severity"},
	)

	helpRequestsStatusChanged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "help_requests_status_changed_total",
			Help: "Total number of help request status changes",
		},
		[]string{"from_status", "to_status"},
	)

	tasksAssigned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tasks_assigned_total",
			Help: "Total number of tasks assigned to volunteers",
		},
	)

	tasksStatusChanged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasks_status_changed_total",
			Help: "Total number of task status changes",
		},
		[]string{"from_status", "to_status"},
	)

	loginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"role", "outcome"},
	)

	donationsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "donations_received_total",
			Help: "Total number of donations received",
		},
		[]string{"purpose"},
	)

	donationAmount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "donation_amount_total",
			Help: "Total donated amount by purpose",
		},
		[]string{"purpose"},
	)

	auditEntriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_entries_total",
			Help: "Total number of audit entries created",
		},
	)

	zonePredictionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zone_prediction_requests_total",
			Help: "Total number of zone prediction requests",
		},
		[]string{"status"},
	)

	zonePredictionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zone_prediction_duration_seconds",
			Help:    "Zone prediction request duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"status"},
	)

	// Database metrics
	dbConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware creates HTTP metrics middleware
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizePath normalizes URL paths for metrics to avoid cardinality explosion
func normalizePath(path string) string {
	if len(path) > 100 {
		return "/api/..."
	}
	return path
}

// --- Business metric helpers ---

// RecordHelpRequestCreated records a help request creation
func RecordHelpRequestCreated(emergencyType, severity string) {
	helpRequestsCreated.WithLabelValues(emergencyType, severity).Inc()
}

// RecordHelpRequestStatusChange records a help request status change
func RecordHelpRequestStatusChange(fromStatus, toStatus string) {
	helpRequestsStatusChanged.WithLabelValues(fromStatus, toStatus).Inc()
}

// RecordTaskAssigned records a task assignment
func RecordTaskAssigned() {
	tasksAssigned.Inc()
}

// RecordTaskStatusChange records a task status change
func RecordTaskStatusChange(fromStatus, toStatus string) {
	tasksStatusChanged.WithLabelValues(fromStatus, toStatus).Inc()
}

// RecordLoginAttempt records a login attempt by claimed role
func RecordLoginAttempt(role string, success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	loginAttempts.WithLabelValues(role, outcome).Inc()
}

// RecordDonation records a donation and its amount
func RecordDonation(purpose string, amount float64) {
	donationsReceived.WithLabelValues(purpose).Inc()
	donationAmount.WithLabelValues(purpose).Add(amount)
}

// RecordAuditEntry records an audit entry creation
func RecordAuditEntry() {
	auditEntriesTotal.Inc()
}

// RecordZonePrediction records a zone prediction call
func RecordZonePrediction(status string, duration time.Duration) {
	zonePredictionRequests.WithLabelValues(status).Inc()
	zonePredictionDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordDBConnections records active database connections
func RecordDBConnections(count int) {
	dbConnectionsActive.Set(float64(count))
}

// RecordDBQuery records a database query duration
func RecordDBQuery(operation string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
