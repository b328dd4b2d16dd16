// Package metrics exposes Prometheus instrumentation for the tracking
// service: HTTP traffic, prediction outcomes, Kepler solver behavior,
// streaming connections, and TLE dataset freshness.
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
			Name: "rotorgo_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rotorgo_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	predictTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rotorgo_predict_total",
			Help: "Total number of orbit predictions by result.",
		},
		[]string{"result"},
	)

	predictDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rotorgo_predict_duration_seconds",
			Help:    "Orbit prediction duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		},
	)

	keplerIterations = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rotorgo_kepler_iterations",
			Help:    "Newton-Raphson iterations per Kepler equation solve.",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 50, 100},
		},
	)

	streamConnectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rotorgo_stream_connections_total",
			Help: "Stream connection events.",
		},
		[]string{"event"},
	)

	streamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rotorgo_streams_active",
			Help: "Currently connected streaming clients.",
		},
	)

	streamMessagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rotorgo_stream_messages_total",
			Help: "Total streaming messages sent.",
		},
	)

	streamBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rotorgo_stream_bytes_total",
			Help: "Total bytes written to streaming clients.",
		},
	)

	streamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rotorgo_stream_errors_total",
			Help: "Streaming errors by reason.",
		},
		[]string{"reason"},
	)

	tleDatasetCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rotorgo_tle_dataset_count",
			Help: "Number of element sets in the current TLE dataset.",
		},
	)

	tleDatasetAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rotorgo_tle_dataset_age_seconds",
			Help: "Age of the current TLE dataset in seconds.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		predictTotal,
		predictDurationSeconds,
		keplerIterations,
		streamConnectionsTotal,
		streamsActive,
		streamMessagesTotal,
		streamBytesTotal,
		streamErrorsTotal,
		tleDatasetCount,
		tleDatasetAgeSeconds,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordPredict records one prediction outcome and its duration.
func RecordPredict(d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	predictTotal.WithLabelValues(result).Inc()
	predictDurationSeconds.Observe(d.Seconds())
}

// ObserveKeplerIterations records the iteration count of one Kepler solve.
func ObserveKeplerIterations(n int) {
	keplerIterations.Observe(float64(n))
}

// IncStreamConnections counts a stream connect/disconnect event.
func IncStreamConnections(event string) {
	streamConnectionsTotal.WithLabelValues(event).Inc()
}

// IncStreamsActive / DecStreamsActive track the live stream gauge.
func IncStreamsActive() { streamsActive.Inc() }
func DecStreamsActive() { streamsActive.Dec() }

// IncStreamMessages counts one streamed message.
func IncStreamMessages() { streamMessagesTotal.Inc() }

// AddStreamBytes counts bytes written to a streaming client.
func AddStreamBytes(n int64) { streamBytesTotal.Add(float64(n)) }

// IncStreamErrors counts a streaming error by reason.
func IncStreamErrors(reason string) { streamErrorsTotal.WithLabelValues(reason).Inc() }

// SetTLEDatasetCount records the size of the loaded dataset.
func SetTLEDatasetCount(n int) { tleDatasetCount.Set(float64(n)) }

// SetTLEDatasetAge records the dataset age gauge.
func SetTLEDatasetAge(seconds float64) { tleDatasetAgeSeconds.Set(seconds) }

// knownRoutes are the exact paths served by the API; anything else collapses
// to "other" to keep label cardinality bounded against bot traffic.
var knownRoutes = map[string]bool{
	"/":                    true,
	"/healthz":             true,
	"/readyz":              true,
	"/metrics":             true,
	"/api/v1/sun":          true,
	"/api/v1/tle/metadata": true,
	"/api/v1/tle/fetch":    true,
}

// parameterized route prefixes collapse to a single label each.
var routePrefixes = []struct {
	prefix string
	label  string
}{
	{"/api/v1/track/", "/api/v1/track/{catalog}"},
	{"/api/v1/passes/", "/api/v1/passes/{catalog}"},
	{"/api/v1/stream/track/", "/api/v1/stream/track/{catalog}"},
}

// normalizeRoute maps a request path to a bounded metric label.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	for _, r := range routePrefixes {
		if strings.HasPrefix(path, r.prefix) {
			return r.label
		}
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

// Flush and Unwrap keep SSE streaming working through the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }

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
