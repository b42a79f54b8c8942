package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status_code"},
	)

	httpRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000},
		},
		[]string{"method", "endpoint"},
	)

	httpResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000},
		},
		[]string{"method", "endpoint"},
	)

	// Database metrics
	dbConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	dbConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	dbQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	// Business metrics
	contactSubmissionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "contact_submissions_total",
			Help: "Total number of stored contact form submissions",
		},
	)

	conversationsStartedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversations_started_total",
			Help: "Conversation start requests by outcome",
		},
		[]string{"result"}, // created, existing
	)

	chatMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Total number of stored chat messages",
		},
		[]string{"sender"},
	)

	feedbackSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_submissions_total",
			Help: "Total number of feedback submissions by sentiment",
		},
		[]string{"sentiment"},
	)

	analyticsEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_events_total",
			Help: "Total number of tracked analytics events",
		},
		[]string{"event_type", "schema"},
	)

	storageErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_errors_total",
			Help: "Storage failures surfaced to callers",
		},
		[]string{"operation"},
	)

	idleConversationsClosedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "idle_conversations_closed_total",
			Help: "Conversations completed by the idle sweep",
		},
	)
)

// PrometheusMiddleware creates a middleware that records Prometheus metrics
func PrometheusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		endpoint := EndpointLabel(r.URL.Path)
		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		if r.ContentLength > 0 {
			httpRequestSize.WithLabelValues(r.Method, endpoint).Observe(float64(r.ContentLength))
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		statusCode := strconv.Itoa(wrapped.statusCode)
		httpRequestsTotal.WithLabelValues(r.Method, endpoint, statusCode).Inc()
		httpRequestDuration.WithLabelValues(r.Method, endpoint, statusCode).Observe(duration)
		httpResponseSize.WithLabelValues(r.Method, endpoint).Observe(float64(wrapped.size))
	})
}

// resourceCollections are the API collections whose next path segment is
// a record key.
var resourceCollections = map[string]bool{
	"contacts":      true,
	"conversations": true,
	"feedback":      true,
}

// EndpointLabel collapses record keys in path so the label set stays
// bounded, e.g. /api/v1/contacts/42 becomes /api/v1/contacts/:id.
func EndpointLabel(path string) string {
	if path == "/health" {
		return path
	}
	if !strings.HasPrefix(path, "/api/v1/") {
		return "unmatched"
	}
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) > 3 && resourceCollections[segments[2]] {
		segments[3] = ":id"
	}
	if len(segments) > 5 {
		return "unmatched"
	}
	return "/" + strings.Join(segments, "/")
}

// responseWriter wraps http.ResponseWriter to capture status code and response size
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}

// RecordContactSubmission records a new contact form submission
func RecordContactSubmission() {
	contactSubmissionsTotal.Inc()
}

// RecordConversationStart records whether a start request created a conversation
func RecordConversationStart(created bool) {
	result := "existing"
	if created {
		result = "created"
	}
	conversationsStartedTotal.WithLabelValues(result).Inc()
}

// RecordChatMessage records a stored chat message
func RecordChatMessage(sender string) {
	chatMessagesTotal.WithLabelValues(sender).Inc()
}

// RecordFeedback records a feedback submission
func RecordFeedback(sentiment string) {
	feedbackSubmissionsTotal.WithLabelValues(sentiment).Inc()
}

// RecordAnalyticsEvent records a tracked event and its schema check result
func RecordAnalyticsEvent(eventType, schema string) {
	analyticsEventsTotal.WithLabelValues(eventType, schema).Inc()
}

// RecordStorageError records a storage failure
func RecordStorageError(operation string) {
	storageErrorsTotal.WithLabelValues(operation).Inc()
}

// RecordIdleConversationsClosed records conversations closed by the sweep
func RecordIdleConversationsClosed(n int64) {
	idleConversationsClosedTotal.Add(float64(n))
}

// RecordDBQuery records a database query
func RecordDBQuery(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	dbQueriesTotal.WithLabelValues(operation, status).Inc()
	dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnections updates database connection metrics
func UpdateDBConnections(active, idle int) {
	dbConnectionsActive.Set(float64(active))
	dbConnectionsIdle.Set(float64(idle))
}

