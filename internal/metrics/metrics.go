package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marsclock_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marsclock_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	conversionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marsclock_conversions_total",
			Help: "Total number of Earth-to-Mars time conversions performed.",
		},
	)

	conversionErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marsclock_conversion_errors_total",
			Help: "Total number of rejected conversion requests by reason.",
		},
		[]string{"reason"},
	)

	snapshotAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "marsclock_snapshot_age_seconds",
			Help: "Age of the current site clock snapshot in seconds.",
		},
	)

	streamConnectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marsclock_stream_connections_total",
			Help: "Total SSE stream connection events.",
		},
		[]string{"event"},
	)

	streamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "marsclock_streams_active",
			Help: "Number of currently active SSE streams.",
		},
	)

	streamMessagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marsclock_stream_messages_total",
			Help: "Total SSE messages sent.",
		},
	)

	streamBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marsclock_stream_bytes_total",
			Help: "Total bytes written to SSE streams.",
		},
	)

	streamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marsclock_stream_errors_total",
			Help: "Total SSE stream errors by kind.",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(conversionsTotal)
	prometheus.MustRegister(conversionErrorsTotal)
	prometheus.MustRegister(snapshotAgeSeconds)
	prometheus.MustRegister(streamConnectionsTotal)
	prometheus.MustRegister(streamsActive)
	prometheus.MustRegister(streamMessagesTotal)
	prometheus.MustRegister(streamBytesTotal)
	prometheus.MustRegister(streamErrorsTotal)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// knownRoutes are the exact paths served by the API. Anything else is
// collapsed to "other" so bot and scanner traffic cannot blow up label
// cardinality.
var knownRoutes = map[string]bool{
	"/":                    true,
	"/healthz":             true,
	"/readyz":              true,
	"/metrics":             true,
	"/api/v1/marstime":     true,
	"/api/v1/sites":        true,
	"/api/v1/almanac":      true,
	"/api/v1/stream/clock": true,
}

// normalizeRoute maps a request path to a bounded metrics label.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	// Embedded frontend assets share one label.
	if path == "/app.js" || path == "/styles.css" || strings.HasPrefix(path, "/static/") {
		return "/static"
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap exposes the wrapped writer so http.ResponseController can reach
// Flush and SetWriteDeadline on the SSE path.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}

// IncConversions counts one completed conversion.
func IncConversions() {
	conversionsTotal.Inc()
}

// IncConversionErrors counts one rejected conversion request.
func IncConversionErrors(reason string) {
	conversionErrorsTotal.WithLabelValues(reason).Inc()
}

// SetSnapshotAge publishes the age of the current site clock snapshot.
func SetSnapshotAge(seconds float64) {
	snapshotAgeSeconds.Set(seconds)
}

// IncStreamConnections counts a stream connect or disconnect event.
func IncStreamConnections(event string) {
	streamConnectionsTotal.WithLabelValues(event).Inc()
}

// IncStreamsActive increments the active stream gauge.
func IncStreamsActive() {
	streamsActive.Inc()
}

// DecStreamsActive decrements the active stream gauge.
func DecStreamsActive() {
	streamsActive.Dec()
}

// IncStreamMessages counts one SSE message sent.
func IncStreamMessages() {
	streamMessagesTotal.Inc()
}

// AddStreamBytes adds to the SSE bytes counter.
func AddStreamBytes(n int64) {
	streamBytesTotal.Add(float64(n))
}

// IncStreamErrors counts one stream error of the given kind.
func IncStreamErrors(kind string) {
	streamErrorsTotal.WithLabelValues(kind).Inc()
}
