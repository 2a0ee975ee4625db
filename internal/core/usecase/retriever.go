package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/kirillkom/course-assistant/internal/core/domain"
	"github.com/kirillkom/course-assistant/internal/core/ports"
)

type Retriever struct {
	embedder  ports.Embedder
	store     ports.VectorStore
	reranker  ports.CrossEncoder
	topK      int
	threshold float64
	rerank    bool
	rerankTop int
}

// NewRetriever builds a retriever. reranker may be nil, in which case the
// rerank stage is skipped even when enabled in cfg.
func NewRetriever(embedder ports.Embedder, store ports.VectorStore, reranker ports.CrossEncoder, cfg Config) *Retriever {
	cfg = cfg.normalize()
	return &Retriever{
		embedder:  embedder,
		store:     store,
		reranker:  reranker,
		topK:      cfg.TopK,
		threshold: cfg.RelevanceThreshold,
		rerank:    cfg.RerankEnabled && reranker != nil,
		rerankTop: cfg.RerankTopN,
	}
}

// Retrieve returns passages scoring at or above the relevance threshold,
// ordered by descending score with ranks 1..N. An empty result is not an
// error; embedding or search failures are wrapped as
// domain.ErrRetrievalTransport.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]domain.RetrievalResult, error) {
	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, domain.WrapError(domain.ErrRetrievalTransport, "embed query", err)
	}
	if len(vector) == 0 {
		return nil, domain.WrapError(domain.ErrRetrievalTransport, "embed query", fmt.Errorf("empty embedding"))
	}

	passages, err := r.store.Search(ctx, vector, r.topK)
	if err != nil {
		return nil, domain.WrapError(domain.ErrRetrievalTransport, "vector search", err)
	}

	results := make([]domain.RetrievalResult, 0, len(passages))
	for _, p := range passages {
		score := clampScore(p.Score)
		if score < r.threshold {
			continue
		}
		results = append(results, domain.RetrievalResult{
			Score:    score,
			Content:  p.Content,
			Metadata: p.Metadata,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	for i := range results {
		results[i].Rank = i + 1
	}

	if r.rerank && len(results) > 0 {
		results = r.applyCrossEncoder(ctx, query, results)
	}
	return results, nil
}

func (r *Retriever) applyCrossEncoder(ctx context.Context, query string, results []domain.RetrievalResult) []domain.RetrievalResult {
	texts := make([]string, len(results))
	for i, res := range results {
		texts[i] = res.Content
	}

	scores, err := r.reranker.Score(ctx, query, texts)
	if err == nil && len(scores) != len(results) {
		err = fmt.Errorf("cross-encoder returned %d scores for %d passages", len(scores), len(results))
	}
	if err != nil {
		slog.Warn("rerank_skipped", "error", err, "results", len(results))
		return results
	}
	return applyRerank(results, scores, r.rerankTop)
}

func clampScore(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}
