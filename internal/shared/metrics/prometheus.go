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
	complaintsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaints_created_total",
			Help: "Total number of complaints created",
		},
		[]string{"category", "routed"},
	)

	complaintStatusChanged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaint_status_changed_total",
			Help: "Total number of complaint status changes",
		},
		[]string{"from_status", "to_status"},
	)

	routingMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "routing_misses_total",
			Help: "Complaints created without a resolvable organization",
		},
	)

	notificationsPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_persisted_total",
			Help: "Total number of notifications written to the directory",
		},
		[]string{"type"},
	)

	realtimeBroadcasts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_broadcasts_total",
			Help: "Total number of realtime broadcast deliveries by event",
		},
		[]string{"event"},
	)

	realtimeDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "realtime_dropped_messages_total",
			Help: "Messages dropped because a client send queue was full",
		},
	)

	realtimeClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_connected_clients",
			Help: "Number of currently connected realtime clients",
		},
	)

	mirrorAppends = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_mirror_appends_total",
			Help: "Complaint events mirrored to the event store",
		},
		[]string{"outcome"},
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

// RecordComplaintCreated records a complaint creation
func RecordComplaintCreated(category string, routed bool) {
	complaintsCreated.WithLabelValues(category, strconv.FormatBool(routed)).Inc()
	if !routed {
		routingMisses.Inc()
	}
}

// RecordStatusChange records a complaint status change
func RecordStatusChange(fromStatus, toStatus string) {
	complaintStatusChanged.WithLabelValues(fromStatus, toStatus).Inc()
}

// RecordNotification records a persisted notification
func RecordNotification(notificationType string) {
	notificationsPersisted.WithLabelValues(notificationType).Inc()
}

// RecordBroadcast records a realtime delivery to one client
func RecordBroadcast(event string) {
	realtimeBroadcasts.WithLabelValues(event).Inc()
}

// RecordDroppedMessage records a message dropped on a full client queue
func RecordDroppedMessage() {
	realtimeDropped.Inc()
}

// RecordClientCount records the number of connected realtime clients
func RecordClientCount(count int) {
	realtimeClients.Set(float64(count))
}

// RecordMirrorAppend records an event mirror append outcome
func RecordMirrorAppend(ok bool) {
	outcome := "error"
	if ok {
		outcome = "ok"
	}
	mirrorAppends.WithLabelValues(outcome).Inc()
}
