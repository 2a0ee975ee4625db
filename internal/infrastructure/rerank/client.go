// Package rerank calls a cross-encoder service (text-embeddings-inference
// compatible /rerank endpoint).
package rerank

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/course-assistant/internal/infrastructure/llm"
	"github.com/kirillkom/course-assistant/internal/infrastructure/resilience"
)

const provider = "rerank"

type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL string, timeout time.Duration, executor *resilience.Executor) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}
}

type scoreItem struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// Score returns one score per text, aligned with texts.
func (c *Client) Score(ctx context.Context, query string, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return []float64{}, nil
	}

	request := map[string]any{
		"query": query,
		"texts": texts,
	}
	var items []scoreItem
	err := c.executor.Execute(ctx, "rerank.score", func(callCtx context.Context) error {
		items = nil
		return llm.PostJSON(callCtx, c.httpClient, provider, "score", c.baseURL+"/rerank", nil, request, &items)
	}, llm.Classify)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(texts))
	seen := make([]bool, len(texts))
	for _, item := range items {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, llm.Malformed(provider, "score", fmt.Sprintf("index %d out of range", item.Index))
		}
		scores[item.Index] = item.Score
		seen[item.Index] = true
	}
	for i, ok := range seen {
		if !ok {
			return nil, llm.Malformed(provider, "score", fmt.Sprintf("missing score for text %d", i))
		}
	}
	return scores, nil
}
