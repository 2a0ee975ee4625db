package usecase

import "strings"

const (
	DefaultRefusalPhrase    = "I'm sorry, I don't have information on that specific detail"
	DefaultApology          = "I'm sorry, I couldn't generate an answer right now. Please try again in a moment."
	DefaultContextSeparator = "\n\n---\n\n"
	DefaultPersona          = "NextLeap admissions assistant"
)

// DefaultDenyPatterns reject attempts to override the system instruction or
// smuggle markup/SQL through the query.
var DefaultDenyPatterns = []string{
	`ignore\b.{0,30}\binstructions?`,
	`you are now`,
	`act as`,
	`disregard (the |your )?(above|system|previous)`,
	`<\s*script`,
	`--|;|drop table`,
}

// Config carries every tunable of the chat core. Components take it by value
// in their constructors and never read global state.
type Config struct {
	MinQueryLength int
	MaxQueryLength int
	DenyPatterns   []string

	TopK               int
	RelevanceThreshold float64
	RerankEnabled      bool
	RerankTopN         int
	ContextSeparator   string

	Persona            string
	RefusalPhrase      string
	Apology            string
	MaxContextChars    int
	PromptHistoryTurns int

	HistoryCapacity int
}

func DefaultConfig() Config {
	return Config{
		MinQueryLength: 3,
		MaxQueryLength: 500,
		DenyPatterns:   append([]string(nil), DefaultDenyPatterns...),

		TopK:               5,
		RelevanceThreshold: 0.7,
		RerankEnabled:      false,
		RerankTopN:         3,
		ContextSeparator:   DefaultContextSeparator,

		Persona:            DefaultPersona,
		RefusalPhrase:      DefaultRefusalPhrase,
		Apology:            DefaultApology,
		MaxContextChars:    4000,
		PromptHistoryTurns: 0,

		HistoryCapacity: 20,
	}
}

func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()

	if out.MinQueryLength <= 0 {
		out.MinQueryLength = def.MinQueryLength
	}
	if out.MaxQueryLength <= 0 {
		out.MaxQueryLength = def.MaxQueryLength
	}
	if out.MaxQueryLength < out.MinQueryLength {
		out.MaxQueryLength = out.MinQueryLength
	}
	if out.DenyPatterns == nil {
		out.DenyPatterns = def.DenyPatterns
	}

	if out.TopK <= 0 {
		out.TopK = def.TopK
	}
	if out.RelevanceThreshold < 0 || out.RelevanceThreshold > 1 {
		out.RelevanceThreshold = def.RelevanceThreshold
	}
	if out.RerankTopN <= 0 {
		out.RerankTopN = def.RerankTopN
	}
	if out.ContextSeparator == "" {
		out.ContextSeparator = def.ContextSeparator
	}

	if strings.TrimSpace(out.Persona) == "" {
		out.Persona = def.Persona
	}
	if strings.TrimSpace(out.RefusalPhrase) == "" {
		out.RefusalPhrase = def.RefusalPhrase
	}
	if strings.TrimSpace(out.Apology) == "" {
		out.Apology = def.Apology
	}
	if out.MaxContextChars < 0 {
		out.MaxContextChars = 0
	}
	if out.PromptHistoryTurns < 0 {
		out.PromptHistoryTurns = 0
	}

	if out.HistoryCapacity <= 0 {
		out.HistoryCapacity = def.HistoryCapacity
	}
	return out
}
