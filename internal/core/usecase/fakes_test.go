package usecase

import (
	"context"

	"github.com/kirillkom/course-assistant/internal/core/domain"
)

type embedderFake struct {
	calls  int
	query  string
	vector []float32
	err    error
}

func (f *embedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.calls++
	f.query = text
	if f.err != nil {
		return nil, f.err
	}
	if f.vector == nil {
		return []float32{0.1, 0.2, 0.3}, nil
	}
	return f.vector, nil
}

type vectorStoreFake struct {
	k        int
	passages []domain.Passage
	err      error
}

func (f *vectorStoreFake) Search(_ context.Context, _ []float32, k int) ([]domain.Passage, error) {
	f.k = k
	if f.err != nil {
		return nil, f.err
	}
	return f.passages, nil
}

type languageModelFake struct {
	calls   int
	prompts []domain.BuiltPrompt
	resp    domain.LLMResponse
}

func (f *languageModelFake) Generate(_ context.Context, prompt domain.BuiltPrompt) domain.LLMResponse {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	return f.resp
}

func coursePassages() []domain.Passage {
	return []domain.Passage{
		{
			Content:  "The programme fee is $100 payable in two instalments.",
			Score:    0.91,
			Metadata: map[string]string{domain.MetaHeading: "Pricing", domain.MetaSource: "https://example.com/course/pricing"},
		},
		{
			Content:  "Classes run every Saturday and Sunday.",
			Score:    0.78,
			Metadata: map[string]string{domain.MetaType: "class_schedule"},
		},
		{
			Content: "Unrelated marketing copy.",
			Score:   0.31,
		},
	}
}
