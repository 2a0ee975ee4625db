package llm

import (
	"context"

	"github.com/kirillkom/course-assistant/internal/core/domain"
	"github.com/kirillkom/course-assistant/internal/core/ports"
	"github.com/kirillkom/course-assistant/internal/infrastructure/resilience"
)

// RetryingEmbedder runs an embedder under the shared retry policy.
type RetryingEmbedder struct {
	inner    ports.Embedder
	executor *resilience.Executor
}

func NewRetryingEmbedder(inner ports.Embedder, executor *resilience.Executor) *RetryingEmbedder {
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	return &RetryingEmbedder{inner: inner, executor: executor}
}

func (e *RetryingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := e.executor.Execute(ctx, "llm.embed", func(callCtx context.Context) error {
		out, err := e.inner.EmbedQuery(callCtx, text)
		if err != nil {
			return err
		}
		vector = out
		return nil
	}, Classify)
	if err != nil {
		if Classify(err).Retryable {
			return nil, domain.WrapError(domain.ErrTemporary, "embed query", err)
		}
		return nil, err
	}
	return vector, nil
}
