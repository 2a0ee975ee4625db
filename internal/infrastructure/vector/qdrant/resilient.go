package qdrant

import (
	"context"
	"errors"
	"net"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kirillkom/course-assistant/internal/core/domain"
	"github.com/kirillkom/course-assistant/internal/core/ports"
	"github.com/kirillkom/course-assistant/internal/infrastructure/resilience"
)

// RetryingStore runs searches under the shared retry policy.
type RetryingStore struct {
	inner    ports.VectorStore
	executor *resilience.Executor
}

func NewRetryingStore(inner ports.VectorStore, executor *resilience.Executor) *RetryingStore {
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	return &RetryingStore{inner: inner, executor: executor}
}

func (s *RetryingStore) Search(ctx context.Context, queryVector []float32, k int) ([]domain.Passage, error) {
	var out []domain.Passage
	err := s.executor.Execute(ctx, "qdrant.search", func(callCtx context.Context) error {
		passages, err := s.inner.Search(callCtx, queryVector, k)
		if err != nil {
			return err
		}
		out = passages
		return nil
	}, classifySearchError)
	if err != nil {
		if classifySearchError(err).Retryable {
			return nil, domain.WrapError(domain.ErrTemporary, "qdrant search", err)
		}
		return nil, err
	}
	return out, nil
}

// Ping checks the wrapped store directly, without retries.
func (s *RetryingStore) Ping(ctx context.Context) error {
	hc, ok := s.inner.(ports.HealthChecker)
	if !ok {
		return nil
	}
	return hc.Ping(ctx)
}

func classifySearchError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusTooManyRequests, statusErr.StatusCode >= 500:
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		default:
			return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
		}
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}
