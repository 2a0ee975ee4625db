package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/kirillkom/course-assistant/internal/core/domain"
	"github.com/kirillkom/course-assistant/internal/infrastructure/resilience"
)

type completerFake struct {
	calls   int
	results []error
	text    string
}

func (f *completerFake) Model() string { return "test-model" }

func (f *completerFake) Complete(context.Context, domain.BuiltPrompt) (string, error) {
	f.calls++
	if f.calls <= len(f.results) && f.results[f.calls-1] != nil {
		return "", f.results[f.calls-1]
	}
	return f.text, nil
}

func fastExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})
}

func TestClientRetriesTransientStatus(t *testing.T) {
	completer := &completerFake{
		results: []error{&HTTPStatusError{Provider: "openai", Operation: "chat", StatusCode: http.StatusTooManyRequests, Status: "429 Too Many Requests"}},
		text:    "ok",
	}
	resp := NewClient(completer, fastExecutor()).Generate(context.Background(), domain.BuiltPrompt{})

	if !resp.Success || resp.Text != "ok" {
		t.Fatalf("expected success, got %+v", resp)
	}
	if resp.Attempts != 2 || completer.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d (calls %d)", resp.Attempts, completer.calls)
	}
	if resp.Model != "test-model" {
		t.Fatalf("unexpected model %q", resp.Model)
	}
}

func TestClientStopsOnFatalStatus(t *testing.T) {
	completer := &completerFake{
		results: []error{&HTTPStatusError{Provider: "openai", Operation: "chat", StatusCode: http.StatusBadRequest, Status: "400 Bad Request"}},
	}
	resp := NewClient(completer, fastExecutor()).Generate(context.Background(), domain.BuiltPrompt{})

	if resp.Success || resp.Attempts != 1 {
		t.Fatalf("expected single failed attempt, got %+v", resp)
	}
	if !errors.Is(resp.Err, domain.ErrGenerationFatal) {
		t.Fatalf("expected fatal generation error, got %v", resp.Err)
	}
	if resp.Error == "" {
		t.Fatalf("expected error text")
	}
}

func TestClientExhaustsRetries(t *testing.T) {
	unavailable := &HTTPStatusError{Provider: "openai", Operation: "chat", StatusCode: http.StatusServiceUnavailable, Status: "503 Service Unavailable"}
	completer := &completerFake{results: []error{unavailable, unavailable, unavailable}}
	resp := NewClient(completer, fastExecutor()).Generate(context.Background(), domain.BuiltPrompt{})

	if resp.Success || resp.Attempts != 3 {
		t.Fatalf("expected 3 failed attempts, got %+v", resp)
	}
	if !errors.Is(resp.Err, domain.ErrGenerationTransport) {
		t.Fatalf("expected transport error, got %v", resp.Err)
	}
}

func TestClientDoesNotRetryMalformedResponse(t *testing.T) {
	completer := &completerFake{results: []error{Malformed("openai", "chat", "no choices")}}
	resp := NewClient(completer, fastExecutor()).Generate(context.Background(), domain.BuiltPrompt{})
	if resp.Success || completer.calls != 1 {
		t.Fatalf("expected one failed call, got %+v (calls %d)", resp, completer.calls)
	}
}

func TestClientHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	completer := &completerFake{text: "never"}
	resp := NewClient(completer, fastExecutor()).Generate(ctx, domain.BuiltPrompt{})
	if resp.Success {
		t.Fatalf("expected failure for cancelled context")
	}
	if completer.calls != 0 || resp.Attempts != 1 {
		t.Fatalf("expected no transport call and attempts=1, got calls=%d attempts=%d", completer.calls, resp.Attempts)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{name: "408", err: &HTTPStatusError{StatusCode: http.StatusRequestTimeout}, retryable: true},
		{name: "504", err: &HTTPStatusError{StatusCode: http.StatusGatewayTimeout}, retryable: true},
		{name: "404", err: &HTTPStatusError{StatusCode: http.StatusNotFound}},
		{name: "422", err: &HTTPStatusError{StatusCode: http.StatusUnprocessableEntity}},
		{name: "cancelled", err: context.Canceled},
		{name: "deadline", err: context.DeadlineExceeded, retryable: true},
		{name: "malformed", err: Malformed("p", "op", "x")},
		{name: "unknown", err: errors.New("boom")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err).Retryable; got != tc.retryable {
				t.Fatalf("Classify(%v).Retryable = %v, want %v", tc.err, got, tc.retryable)
			}
		})
	}
}

type embedderFake struct {
	calls int
	errs  []error
}

func (f *embedderFake) EmbedQuery(context.Context, string) ([]float32, error) {
	f.calls++
	if f.calls <= len(f.errs) {
		return nil, f.errs[f.calls-1]
	}
	return []float32{1, 2}, nil
}

func TestRetryingEmbedder(t *testing.T) {
	inner := &embedderFake{errs: []error{&HTTPStatusError{StatusCode: http.StatusBadGateway}}}
	vec, err := NewRetryingEmbedder(inner, fastExecutor()).EmbedQuery(context.Background(), "q")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	if len(vec) != 2 || inner.calls != 2 {
		t.Fatalf("expected retry then success, got %v after %d calls", vec, inner.calls)
	}

	failing := &embedderFake{errs: []error{
		&HTTPStatusError{StatusCode: http.StatusBadGateway},
		&HTTPStatusError{StatusCode: http.StatusBadGateway},
		&HTTPStatusError{StatusCode: http.StatusBadGateway},
	}}
	_, err = NewRetryingEmbedder(failing, fastExecutor()).EmbedQuery(context.Background(), "q")
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
}
