package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareCountsRequestsByNormalizedPath(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	handler := m.Middleware("api", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing/123" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/chat", "/chat", "/missing/123"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, path, nil))
	}

	if got := testutil.ToFloat64(m.requestTotal.WithLabelValues("api", http.MethodPost, "/chat", "200")); got != 2 {
		t.Fatalf("expected 2 /chat requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.requestTotal.WithLabelValues("api", http.MethodPost, "other", "404")); got != 1 {
		t.Fatalf("expected unknown path folded into other, got %v", got)
	}
	if got := testutil.ToFloat64(m.requestInFlight); got != 0 {
		t.Fatalf("expected no in-flight requests, got %v", got)
	}
}

func TestRecordChatTurn(t *testing.T) {
	m := NewHTTPServerMetrics("api")

	m.RecordChatTurn("api", "answered", false, 2, 1, 300*time.Millisecond)
	m.RecordChatTurn("api", "no_context", true, 0, 0, 10*time.Millisecond)
	m.RecordChatTurn("api", "", true, 0, 3, time.Second)

	if got := testutil.ToFloat64(m.chatTurnsTotal.WithLabelValues("api", "answered")); got != 1 {
		t.Fatalf("answered = %v", got)
	}
	if got := testutil.ToFloat64(m.chatTurnsTotal.WithLabelValues("api", "unknown")); got != 1 {
		t.Fatalf("unknown = %v", got)
	}
	if got := testutil.ToFloat64(m.chatFallbacksTotal.WithLabelValues("api")); got != 2 {
		t.Fatalf("fallbacks = %v", got)
	}
	if got := testutil.CollectAndCount(m.llmAttempts); got != 1 {
		t.Fatalf("expected one attempts series, got %d", got)
	}
}

func TestHandlerExposesRegisteredMetrics(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	m.RecordRateLimited("api")
	m.RecordOverloaded("api")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	for _, name := range []string{"course_assistant_http_rate_limited_total", "course_assistant_http_overloaded_total"} {
		if !strings.Contains(body, name) {
			t.Fatalf("expected %s in exposition", name)
		}
	}
}

func TestWorkerMetrics(t *testing.T) {
	m := NewWorkerMetrics("worker")

	m.Track(time.Now().Add(-time.Second))("answered", nil)
	m.Track(time.Time{})("no_context", errors.New("db down"))
	m.Track(time.Now().Add(time.Hour))("", nil)

	if got := testutil.ToFloat64(m.saved.WithLabelValues("answered", "saved")); got != 1 {
		t.Fatalf("saved = %v", got)
	}
	if got := testutil.ToFloat64(m.saved.WithLabelValues("no_context", "failed")); got != 1 {
		t.Fatalf("failed = %v", got)
	}
	if got := testutil.ToFloat64(m.saved.WithLabelValues("unknown", "saved")); got != 1 {
		t.Fatalf("unknown = %v", got)
	}
	if got := testutil.ToFloat64(m.pending); got != 0 {
		t.Fatalf("pending = %v", got)
	}
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `course_assistant_transcripts_lag_seconds_count{service="worker"} 1`) {
		t.Fatalf("expected exactly one lag observation:\n%s", rec.Body.String())
	}

	pending := m.Track(time.Time{})
	if got := testutil.ToFloat64(m.pending); got != 1 {
		t.Fatalf("pending while saving = %v", got)
	}
	pending("answered", nil)
}
