// Package openai talks to OpenAI-compatible chat completion and embedding
// endpoints (Groq, Gemini's compatibility layer, vLLM).
package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/kirillkom/course-assistant/internal/core/domain"
	"github.com/kirillkom/course-assistant/internal/infrastructure/llm"
)

const (
	provider       = "openai"
	DefaultBaseURL = "https://api.groq.com/openai/v1"
)

type Client struct {
	baseURL    string
	apiKey     string
	opts       llm.Options
	httpClient *http.Client
}

func New(baseURL, apiKey string, opts llm.Options) *Client {
	opts = opts.Normalize()
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) Model() string {
	return c.opts.Model
}

// Complete sends the system instruction and the user message as separate
// chat messages and returns the first choice.
func (c *Client) Complete(ctx context.Context, prompt domain.BuiltPrompt) (string, error) {
	req := chatRequest{
		Model:       c.opts.Model,
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: prompt.SystemInstruction},
			{Role: "user", Content: prompt.UserMessage},
		},
	}

	var resp chatResponse
	if err := llm.PostJSON(ctx, c.httpClient, provider, "chat", c.baseURL+"/chat/completions", c.headers(), req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", llm.Malformed(provider, "chat", "no choices in response")
	}
	content := resp.Choices[0].Message.Content
	if content == nil {
		return "", llm.Malformed(provider, "chat", "choice without message content")
	}
	return *content, nil
}

func (c *Client) headers() map[string]string {
	if c.apiKey == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + c.apiKey}
}

type Embedder struct {
	client *Client
	model  string
}

func NewEmbedder(client *Client, model string) *Embedder {
	return &Embedder{client: client, model: model}
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	request := map[string]any{
		"model": e.model,
		"input": []string{text},
	}

	var response struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := llm.PostJSON(ctx, e.client.httpClient, provider, "embed", e.client.baseURL+"/embeddings", e.client.headers(), request, &response); err != nil {
		return nil, err
	}
	if len(response.Data) == 0 || len(response.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return response.Data[0].Embedding, nil
}
