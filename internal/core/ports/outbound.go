package ports

import (
	"context"

	"github.com/kirillkom/course-assistant/internal/core/domain"
)

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -destination=mocks/mock_outbound.go -package=mocks github.com/kirillkom/course-assistant/internal/core/ports Embedder,VectorStore,CrossEncoder,LanguageModel,TurnRecorder,TranscriptStore,HealthChecker

// Embedder builds query vectors with the model the index was built with.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorStore returns the k nearest passages by cosine similarity.
type VectorStore interface {
	Search(ctx context.Context, queryVector []float32, k int) ([]domain.Passage, error)
}

// CrossEncoder scores each text against the query; higher is more relevant.
// The returned slice is aligned with texts.
type CrossEncoder interface {
	Score(ctx context.Context, query string, texts []string) ([]float64, error)
}

// LanguageModel invokes the generation service with bounded retries.
// Failures are reported inside the response, never as a panic or error value.
type LanguageModel interface {
	Generate(ctx context.Context, prompt domain.BuiltPrompt) domain.LLMResponse
}

// TurnRecorder receives every completed chat turn.
type TurnRecorder interface {
	RecordTurn(ctx context.Context, record domain.TurnRecord) error
}

// TranscriptStore persists chat turns durably.
type TranscriptStore interface {
	SaveTurn(ctx context.Context, record domain.TurnRecord) error
	ListSession(ctx context.Context, sessionID string, limit int) ([]domain.TurnRecord, error)
}

// HealthChecker reports whether a dependency can serve requests right now.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
