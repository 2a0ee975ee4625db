package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/course-assistant/internal/core/domain"
	"github.com/kirillkom/course-assistant/internal/core/ports"
)

type ResponseGenerator struct {
	prompts   *PromptBuilder
	model     ports.LanguageModel
	separator string
	refusal   string
	apology   string
}

func NewResponseGenerator(prompts *PromptBuilder, model ports.LanguageModel, cfg Config) *ResponseGenerator {
	cfg = cfg.normalize()
	return &ResponseGenerator{
		prompts:   prompts,
		model:     model,
		separator: cfg.ContextSeparator,
		refusal:   cfg.RefusalPhrase,
		apology:   cfg.Apology,
	}
}

// Generate answers req without post-processing the model text.
// A FromPipeline request whose output failed never reaches the model.
func (g *ResponseGenerator) Generate(ctx context.Context, req domain.GenerationRequest) domain.GeneratorResponse {
	return g.GenerateWithHistory(ctx, req, "")
}

// GenerateWithHistory is Generate with a rendered conversation excerpt
// forwarded to the prompt builder.
func (g *ResponseGenerator) GenerateWithHistory(ctx context.Context, req domain.GenerationRequest, history string) domain.GeneratorResponse {
	switch r := req.(type) {
	case domain.RawQuery:
		return g.answer(ctx, r.Query, r.ContextBlocks, history)
	case domain.FromPipeline:
		if !r.Output.Success {
			return domain.GeneratorResponse{
				Answer:  g.refusal,
				Success: true,
				Error:   r.Output.Error,
			}
		}
		query := r.Output.CleanedQuery
		if query == "" {
			query = r.Output.OriginalQuery
		}
		return g.answer(ctx, query, splitContext(r.Output.ContextString, g.separator), history)
	default:
		return domain.GeneratorResponse{
			Answer: g.apology,
			Error:  fmt.Sprintf("unsupported generation request %T", req),
		}
	}
}

func (g *ResponseGenerator) answer(ctx context.Context, query string, blocks []string, history string) domain.GeneratorResponse {
	if strings.TrimSpace(query) == "" {
		return domain.GeneratorResponse{
			Answer: g.apology,
			Error:  "cannot generate a response for an empty query",
		}
	}

	prompt := g.prompts.BuildWithHistory(query, blocks, history)
	resp := g.model.Generate(ctx, prompt)
	if !resp.Success {
		slog.Error("generation_failed", "attempts", resp.Attempts, "error", resp.Error)
		return domain.GeneratorResponse{
			Answer:      g.apology,
			Raw:         &resp,
			Error:       resp.Error,
			ModelCalled: true,
		}
	}

	slog.Debug("generation_succeeded", "attempts", resp.Attempts, "model", resp.Model, "blocks", len(blocks))
	return domain.GeneratorResponse{
		Answer:      resp.Text,
		Raw:         &resp,
		Success:     true,
		ModelCalled: true,
	}
}
