package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"unicode"

	"github.com/kirillkom/course-assistant/internal/core/domain"
)

const noContextMessage = "no relevant context found"

// RetrievalPipeline is the single place where "context found" versus "not
// found" is decided. Downstream stages trust PipelineOutput.Success.
type RetrievalPipeline struct {
	preprocessor *QueryPreprocessor
	retriever    *Retriever
	separator    string
}

func NewRetrievalPipeline(preprocessor *QueryPreprocessor, retriever *Retriever, cfg Config) *RetrievalPipeline {
	cfg = cfg.normalize()
	return &RetrievalPipeline{
		preprocessor: preprocessor,
		retriever:    retriever,
		separator:    cfg.ContextSeparator,
	}
}

// Run validates rawQuery, retrieves passages and assembles the context
// string. Invalid queries and empty retrievals come back as an unsuccessful
// PipelineOutput; only transport failures are returned as errors.
func (p *RetrievalPipeline) Run(ctx context.Context, rawQuery string) (domain.PipelineOutput, error) {
	out := domain.PipelineOutput{
		OriginalQuery: rawQuery,
		Results:       []domain.RetrievalResult{},
	}

	cleaned, err := p.preprocessor.Preprocess(rawQuery)
	if err != nil {
		slog.Warn("pipeline_rejected", "reason", err.Error())
		out.Error = err.Error()
		out.Reason = domain.ErrInvalidQuery
		return out, nil
	}
	out.CleanedQuery = cleaned

	results, err := p.retriever.Retrieve(ctx, cleaned)
	if err != nil {
		return out, fmt.Errorf("retrieve: %w", err)
	}
	if len(results) == 0 {
		out.Error = noContextMessage
		out.Reason = domain.ErrNoContextFound
		return out, nil
	}

	entries := make([]string, 0, len(results))
	for _, res := range results {
		entries = append(entries, formatContextEntry(res))
	}

	out.Success = true
	out.Results = results
	out.ContextString = strings.Join(entries, p.separator)
	return out, nil
}

func splitContext(contextString, separator string) []string {
	if strings.TrimSpace(contextString) == "" {
		return nil
	}
	parts := strings.Split(contextString, separator)
	blocks := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			blocks = append(blocks, part)
		}
	}
	return blocks
}

func formatContextEntry(res domain.RetrievalResult) string {
	label := SectionLabel(res.Metadata)
	if label == "" {
		return fmt.Sprintf("[Source %d]\n%s", res.Rank, strings.TrimSpace(res.Content))
	}
	return fmt.Sprintf("[Source %d] [Section: %s]\n%s", res.Rank, label, strings.TrimSpace(res.Content))
}

// SectionLabel derives a human-readable section name from passage metadata:
// heading, then title-cased type, then section id, then the last path
// segment of the source URL.
func SectionLabel(meta map[string]string) string {
	if len(meta) == 0 {
		return ""
	}
	if heading := strings.TrimSpace(meta[domain.MetaHeading]); heading != "" {
		return heading
	}
	if kind := strings.TrimSpace(meta[domain.MetaType]); kind != "" {
		return titleCase(strings.ReplaceAll(kind, "_", " "))
	}
	if section := strings.TrimSpace(meta[domain.MetaSection]); section != "" {
		return section
	}
	if source := strings.TrimRight(strings.TrimSpace(meta[domain.MetaSource]), "/"); source != "" {
		if base := path.Base(source); base != "." && base != "/" {
			return base
		}
		return source
	}
	return ""
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
