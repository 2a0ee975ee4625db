package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/kirillkom/course-assistant/internal/core/domain"
	"github.com/kirillkom/course-assistant/internal/infrastructure/llm"
)

const provider = "ollama"

type Client struct {
	baseURL    string
	opts       llm.Options
	httpClient *http.Client
}

func New(baseURL string, opts llm.Options) *Client {
	opts = opts.Normalize()
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
	}
}

func (c *Client) Model() string {
	return c.opts.Model
}

// Complete sends the rendered prompt to /api/generate without streaming.
func (c *Client) Complete(ctx context.Context, prompt domain.BuiltPrompt) (string, error) {
	reqBody := map[string]any{
		"model":  c.opts.Model,
		"prompt": prompt.Rendered,
		"stream": false,
		"options": map[string]any{
			"temperature": c.opts.Temperature,
			"num_predict": c.opts.MaxTokens,
		},
	}

	var response struct {
		Response *string `json:"response"`
		Done     bool    `json:"done"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	if response.Response == nil {
		return "", llm.Malformed(provider, "generate", "missing response field")
	}
	return *response.Response, nil
}

type Embedder struct {
	client *Client
	model  string
}

func NewEmbedder(client *Client, model string) *Embedder {
	return &Embedder{client: client, model: model}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.model,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := e.client.postJSON(ctx, "/api/embed", request, &response, "embed"); err != nil {
		return nil, err
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any, operation string) error {
	return llm.PostJSON(ctx, c.httpClient, provider, operation, c.baseURL+path, nil, payload, out)
}
