// Package metrics exposes Prometheus collectors for ingestion, linking and
// the HTTP API on a private registry.
package metrics

import (
	"bufio"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "scripture"

var (
	// Registry holds the application's collectors.
	Registry = prometheus.NewRegistry()

	versesFlushed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "verses_flushed_total",
			Help:      "Verses written to the store.",
		},
		[]string{"source"},
	)

	wordsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "words_written_total",
			Help:      "Words written to the store.",
		},
		[]string{"source"},
	)

	linesSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "lines_skipped_total",
			Help:      "Input lines skipped, by reason.",
		},
		[]string{"reason"},
	)

	flushRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "flush_retries_total",
			Help:      "Verse writes retried after a transient failure.",
		},
	)

	flushErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "flush_errors_total",
			Help:      "Verse writes that failed after every attempt.",
		},
	)

	ingestRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "runs_total",
			Help:      "Completed source ingestions, by result.",
		},
		[]string{"result"},
	)

	ingestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "run_duration_seconds",
			Help:      "Duration of one source ingestion.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
	)

	referencesLinked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refs",
			Name:      "linked_total",
			Help:      "Scripture references turned into links, by language.",
		},
		[]string{"language"},
	)

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)
)

func init() {
	Registry.MustRegister(
		versesFlushed,
		wordsWritten,
		linesSkipped,
		flushRetries,
		flushErrors,
		ingestRuns,
		ingestDuration,
		referencesLinked,
		httpInFlight,
		httpRequests,
		httpDuration,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordFlush counts one verse write.
func RecordFlush(source string, words int) {
	versesFlushed.WithLabelValues(source).Inc()
	wordsWritten.WithLabelValues(source).Add(float64(words))
}

// RecordSkipped counts skipped input lines. reason is "malformed" or
// "unmapped".
func RecordSkipped(reason string, n int) {
	if n > 0 {
		linesSkipped.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordFlushRetry counts a retried verse write.
func RecordFlushRetry() {
	flushRetries.Inc()
}

// RecordFlushError counts a verse write that gave up.
func RecordFlushError() {
	flushErrors.Inc()
}

// RecordIngestRun records a finished source ingestion. result is "ok",
// "failed" (the source could not be read) or "fatal" (the run halted).
func RecordIngestRun(result string, duration time.Duration) {
	ingestRuns.WithLabelValues(result).Inc()
	ingestDuration.Observe(duration.Seconds())
}

// RecordLinked counts references linked for a language.
func RecordLinked(language string, n int) {
	if language == "" {
		language = "unknown"
	}
	if n > 0 {
		referencesLinked.WithLabelValues(language).Add(float64(n))
	}
}

// InstrumentHandler wraps next with request counting. Routes are labelled
// by their chi pattern so path parameters do not explode cardinality.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := routePattern(r)
		method := strings.ToUpper(r.Method)
		httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	r.status = http.StatusSwitchingProtocols
	return http.NewResponseController(r.ResponseWriter).Hijack()
}
