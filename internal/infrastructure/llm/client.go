package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/kirillkom/course-assistant/internal/core/domain"
	"github.com/kirillkom/course-assistant/internal/infrastructure/resilience"
)

const (
	DefaultModel       = "llama-3.3-70b-versatile"
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 1024
	DefaultTimeout     = 60 * time.Second
)

// Completer is one provider call without retries.
type Completer interface {
	Complete(ctx context.Context, prompt domain.BuiltPrompt) (string, error)
	Model() string
}

// Options are the generation parameters shared by the providers.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

func (o Options) Normalize() Options {
	out := o
	if out.Model == "" {
		out.Model = DefaultModel
	}
	if out.Temperature < 0 {
		out.Temperature = DefaultTemperature
	}
	if out.MaxTokens <= 0 {
		out.MaxTokens = DefaultMaxTokens
	}
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	return out
}

// Client wraps a Completer with retries and circuit breaking and reports
// every outcome inside domain.LLMResponse.
type Client struct {
	completer Completer
	executor  *resilience.Executor
}

func NewClient(completer Completer, executor *resilience.Executor) *Client {
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	return &Client{completer: completer, executor: executor}
}

func (c *Client) Generate(ctx context.Context, prompt domain.BuiltPrompt) domain.LLMResponse {
	attempts := 0
	var text string
	err := c.executor.Execute(ctx, "llm.generate", func(callCtx context.Context) error {
		attempts++
		out, err := c.completer.Complete(callCtx, prompt)
		if err != nil {
			return err
		}
		text = out
		return nil
	}, Classify)
	if attempts == 0 {
		attempts = 1
	}

	resp := domain.LLMResponse{Attempts: attempts, Model: c.completer.Model()}
	if err != nil {
		kind := domain.ErrGenerationFatal
		if Classify(err).Retryable || ctx.Err() != nil {
			kind = domain.ErrGenerationTransport
		}
		resp.Err = domain.WrapError(kind, "llm generate", err)
		resp.Error = err.Error()
		slog.Warn("llm_generate_failed", "model", resp.Model, "attempts", attempts, "error", err)
		return resp
	}

	resp.Text = text
	resp.Success = true
	return resp
}
