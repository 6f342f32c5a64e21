package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordFlush(t *testing.T) {
	before := testutil.ToFloat64(wordsWritten.WithLabelValues("test-flush"))
	RecordFlush("test-flush", 12)
	RecordFlush("test-flush", 3)

	if got := testutil.ToFloat64(versesFlushed.WithLabelValues("test-flush")); got != 2 {
		t.Errorf("verses_flushed_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(wordsWritten.WithLabelValues("test-flush")) - before; got != 15 {
		t.Errorf("words_written_total delta = %v, want 15", got)
	}
}

func TestRecordSkippedIgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(linesSkipped.WithLabelValues("unmapped"))
	RecordSkipped("unmapped", 0)
	RecordSkipped("unmapped", 4)
	if got := testutil.ToFloat64(linesSkipped.WithLabelValues("unmapped")) - before; got != 4 {
		t.Errorf("lines_skipped_total delta = %v, want 4", got)
	}
}

func TestRecordIngestRun(t *testing.T) {
	for _, result := range []string{"fatal", "failed"} {
		before := testutil.ToFloat64(ingestRuns.WithLabelValues(result))
		RecordIngestRun(result, time.Second)
		if got := testutil.ToFloat64(ingestRuns.WithLabelValues(result)) - before; got != 1 {
			t.Errorf("runs_total{result=%s} delta = %v, want 1", result, got)
		}
	}
}

func TestInstrumentHandlerUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(InstrumentHandler)
	r.Get("/v1/verses/{book}/{chapter}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/verses/John/3", nil))

	if got := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/v1/verses/{book}/{chapter}", "404")); got < 1 {
		t.Errorf("requests_total for route pattern = %v, want >= 1", got)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "scripture_http_requests_total") {
		t.Error("/metrics output lacks scripture_http_requests_total")
	}
}
