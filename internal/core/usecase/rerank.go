package usecase

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/kirillkom/course-assistant/internal/core/domain"
)

// LexicalScorer is an in-process stand-in for a cross-encoder: it scores a
// passage by the share of query tokens it contains, with a bonus for tokens
// that also appear in the passage's first line (usually its heading).
type LexicalScorer struct{}

func NewLexicalScorer() *LexicalScorer {
	return &LexicalScorer{}
}

func (LexicalScorer) Score(_ context.Context, query string, texts []string) ([]float64, error) {
	queryTokens := toTokenSet(query)
	scores := make([]float64, len(texts))
	for i, text := range texts {
		heading := text
		if idx := strings.IndexByte(text, '\n'); idx >= 0 {
			heading = text[:idx]
		}
		overlap := tokenOverlap(queryTokens, toTokenSet(text))
		headingHit := tokenOverlap(queryTokens, toTokenSet(heading))
		scores[i] = 0.8*overlap + 0.2*headingHit
	}
	return scores, nil
}

// applyRerank orders results by scores (aligned with results), breaking ties
// by the original rank, keeps at most topN and renumbers ranks from 1.
func applyRerank(results []domain.RetrievalResult, scores []float64, topN int) []domain.RetrievalResult {
	out := make([]domain.RetrievalResult, len(results))
	copy(out, results)
	for i := range out {
		out[i].RerankScore = scores[i]
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RerankScore != out[j].RerankScore {
			return out[i].RerankScore > out[j].RerankScore
		}
		return out[i].Rank < out[j].Rank
	})

	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func tokenOverlap(query, chunk map[string]struct{}) float64 {
	if len(query) == 0 || len(chunk) == 0 {
		return 0
	}
	matches := 0
	for token := range query {
		if _, ok := chunk[token]; ok {
			matches++
		}
	}
	return float64(matches) / float64(len(query))
}

func toTokenSet(s string) map[string]struct{} {
	tokens := splitAlphaNumLower(s)
	out := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		out[token] = struct{}{}
	}
	return out
}

func splitAlphaNumLower(s string) []string {
	if s == "" {
		return nil
	}

	tokens := make([]string, 0, 16)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}
