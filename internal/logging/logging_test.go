package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// captureLogOutput swaps the global logger for one writing JSON to a
// buffer while f runs.
func captureLogOutput(f func()) string {
	var buf bytes.Buffer
	old := GetLogger()
	SetLogger(New(&buf, LevelDebug, FormatJSON))
	f()
	SetLogger(old)
	return buf.String()
}

func decode(t *testing.T, line string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &m); err != nil {
		t.Fatalf("log line %q is not JSON: %v", line, err)
	}
	return m
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if got != tt.want || (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) = %v, %v, want %v, err %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"", FormatJSON, false},
		{"text", FormatText, false},
		{"console", FormatText, false},
		{"xml", FormatJSON, true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if got != tt.want || (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) = %v, %v, want %v, err %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestNewRespectsLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn, FormatText)
	l.Info("hidden")
	l.Warn("shown", "k", "v")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %q", out)
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "k=v") {
		t.Errorf("text output = %q, want msg=shown k=v", out)
	}
}

func TestNewFormatsTimestampRFC3339(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, LevelInfo, FormatJSON).Info("tick")

	m := decode(t, buf.String())
	ts, ok := m["time"].(string)
	if !ok {
		t.Fatalf("time field missing: %v", m)
	}
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("time %q is not RFC3339: %v", ts, err)
	}
}

func TestOr(t *testing.T) {
	custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	if Or(custom) != custom {
		t.Error("Or(custom) did not return custom")
	}
	if Or(nil) != GetLogger() {
		t.Error("Or(nil) did not return the global logger")
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc")
	if got := GetRequestID(ctx); got != "abc" {
		t.Errorf("GetRequestID() = %q, want %q", got, "abc")
	}
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID(empty) = %q, want empty", got)
	}

	out := captureLogOutput(func() {
		InfoContext(ctx, "with id")
	})
	if m := decode(t, out); m["request_id"] != "abc" {
		t.Errorf("request_id = %v, want abc", m["request_id"])
	}
}

func TestLoggingFunctions(t *testing.T) {
	tests := []struct {
		name  string
		log   func()
		level string
	}{
		{"debug", func() { Debug("m") }, "DEBUG"},
		{"info", func() { Info("m") }, "INFO"},
		{"warn", func() { Warn("m") }, "WARN"},
		{"error", func() { Error("m") }, "ERROR"},
		{"warn context", func() { WarnContext(context.Background(), "m") }, "WARN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := decode(t, captureLogOutput(tt.log))
			if m["level"] != tt.level {
				t.Errorf("level = %v, want %s", m["level"], tt.level)
			}
		})
	}
}

func TestIngestEvents(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelDebug, FormatJSON)

	IngestStarted(l, "run-1", "61-Mt-morphgnt.txt")
	IngestFinished(l, "run-1", "61-Mt-morphgnt.txt", 1071, 18299, 2, 1, 1500*time.Millisecond)
	FlushFailed(l, "Matt.1.1", 3, errors.New("database is locked"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d log lines, want 3", len(lines))
	}

	started := decode(t, lines[0])
	if started["msg"] != "ingest_started" || started["run_id"] != "run-1" {
		t.Errorf("started = %v", started)
	}

	finished := decode(t, lines[1])
	if finished["msg"] != "ingest_finished" || finished["verses"] != float64(1071) || finished["duration_ms"] != float64(1500) {
		t.Errorf("finished = %v", finished)
	}

	failed := decode(t, lines[2])
	if failed["level"] != "ERROR" || failed["verse"] != "Matt.1.1" || failed["error"] != "database is locked" {
		t.Errorf("failed = %v", failed)
	}
}

func TestServerAndSecurityEvents(t *testing.T) {
	out := captureLogOutput(func() {
		ServerStartup("api", "http", ":8080", "websocket_protocol", "ws")
		SecurityEvent("invalid_api_key", "api", "remote_addr", "10.0.0.1")
		WebSocketEvent("client_connected", 2)
	})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d log lines, want 3", len(lines))
	}
	if m := decode(t, lines[0]); m["msg"] != "server_startup" || m["addr"] != ":8080" {
		t.Errorf("startup = %v", m)
	}
	if m := decode(t, lines[1]); m["level"] != "WARN" || m["event"] != "invalid_api_key" {
		t.Errorf("security = %v", m)
	}
	if m := decode(t, lines[2]); m["client_count"] != float64(2) {
		t.Errorf("websocket = %v", m)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || rec.Header().Get("X-Request-ID") != seen {
		t.Errorf("generated id = %q, header = %q", seen, rec.Header().Get("X-Request-ID"))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "given")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "given" {
		t.Errorf("request id = %q, want given", seen)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	h := CombinedMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("x"))
	}))

	out := captureLogOutput(func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/linkify", nil))
	})
	m := decode(t, out)
	if m["msg"] != "http_request" || m["status_code"] != float64(http.StatusTeapot) || m["path"] != "/v1/linkify" {
		t.Errorf("access log = %v", m)
	}
	if m["request_id"] == nil {
		t.Error("access log has no request_id")
	}
}

func TestResponseWriterDefaultsToOK(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}
	_, _ = rw.Write([]byte("body"))
	if rw.statusCode != http.StatusOK || rec.Code != http.StatusOK {
		t.Errorf("status = %d/%d, want 200", rw.statusCode, rec.Code)
	}
	if rw.Unwrap() != rec {
		t.Error("Unwrap() did not return the wrapped writer")
	}
}
