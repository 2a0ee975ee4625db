package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/course-assistant/internal/core/domain"
)

const (
	truncationMarker = "\n... [truncated]"
	noContextLine    = "No relevant context was found in the knowledge base."
)

const systemTemplate = `You are the %s, a helpful and professional assistant that answers questions about the course.

Rules:
1. Answer ONLY using information from the CONTEXT BLOCKS provided with the question.
2. If the context blocks do not contain the answer, reply with exactly: "%s".
3. Cite the section you used with a tag such as [Section: Pricing].
4. Never invent fees, dates, cohort numbers or instructor names.
5. Keep answers concise, friendly and precise.`

// PromptBuilder renders the system instruction, numbered context blocks and
// the user query in a fixed order. It never reorders blocks.
type PromptBuilder struct {
	system          string
	maxContextChars int
}

func NewPromptBuilder(cfg Config) *PromptBuilder {
	cfg = cfg.normalize()
	return &PromptBuilder{
		system:          fmt.Sprintf(systemTemplate, cfg.Persona, cfg.RefusalPhrase),
		maxContextChars: cfg.MaxContextChars,
	}
}

func (b *PromptBuilder) Build(query string, contextBlocks []string) domain.BuiltPrompt {
	return b.BuildWithHistory(query, contextBlocks, "")
}

// BuildWithHistory is Build with an optional rendered conversation excerpt
// placed ahead of the context blocks.
func (b *PromptBuilder) BuildWithHistory(query string, contextBlocks []string, history string) domain.BuiltPrompt {
	query = strings.TrimSpace(query)
	blocks := make([]string, len(contextBlocks))
	copy(blocks, contextBlocks)

	var msg strings.Builder
	if history = strings.TrimSpace(history); history != "" {
		msg.WriteString("CONVERSATION SO FAR:\n")
		msg.WriteString(history)
		msg.WriteString("\n\n")
	}

	if len(blocks) == 0 {
		msg.WriteString(noContextLine)
	} else {
		msg.WriteString("CONTEXT BLOCKS:\n")
		msg.WriteString(b.formatBlocks(blocks))
	}
	msg.WriteString("\n\nUSER QUESTION: ")
	msg.WriteString(query)

	userMessage := msg.String()
	return domain.BuiltPrompt{
		SystemInstruction: b.system,
		ContextBlocks:     blocks,
		UserQuery:         query,
		UserMessage:       userMessage,
		Rendered:          b.system + "\n\n" + userMessage,
	}
}

func (b *PromptBuilder) formatBlocks(blocks []string) string {
	parts := make([]string, len(blocks))
	for i, block := range blocks {
		parts[i] = fmt.Sprintf("[Block %d]\n%s", i+1, strings.TrimSpace(block))
	}
	joined := strings.Join(parts, "\n\n")

	if b.maxContextChars > 0 {
		runes := []rune(joined)
		if len(runes) > b.maxContextChars {
			joined = string(runes[:b.maxContextChars]) + truncationMarker
		}
	}
	return joined
}
