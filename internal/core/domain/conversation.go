package domain

import "time"

// Outcome classifies how a chat turn ended. Replies that look identical to
// the user still carry distinct outcomes for logs and metrics.
type Outcome string

const (
	OutcomeAnswered        Outcome = "answered"
	OutcomeModelDeclined   Outcome = "model_declined"
	OutcomeNoContext       Outcome = "no_context"
	OutcomeInvalidQuery    Outcome = "invalid_query"
	OutcomeRetrievalError  Outcome = "retrieval_error"
	OutcomeGenerationError Outcome = "generation_error"

	OutcomeGenerationTransport Outcome = "generation_transport"
	OutcomeGenerationFatal     Outcome = "generation_fatal"
)

type ChatReply struct {
	Answer     string   `json:"answer"`
	Citations  []string `json:"citations"`
	IsFallback bool     `json:"is_fallback"`
	Turn       int      `json:"turn"`
	Success    bool     `json:"success"`
	Error      string   `json:"error,omitempty"`

	Outcome  Outcome `json:"-"`
	Sources  int     `json:"-"`
	Attempts int     `json:"-"`
}

// ConversationTurn is immutable once appended to a history.
type ConversationTurn struct {
	Turn        int       `json:"turn"`
	UserMessage string    `json:"user_message"`
	BotAnswer   string    `json:"bot_answer"`
	IsFallback  bool      `json:"is_fallback"`
	Timestamp   time.Time `json:"timestamp"`
}

// TurnRecord is the durable form of a turn handed to transcript sinks.
type TurnRecord struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	Turn        int       `json:"turn"`
	UserMessage string    `json:"user_message"`
	BotAnswer   string    `json:"bot_answer"`
	Citations   []string  `json:"citations"`
	IsFallback  bool      `json:"is_fallback"`
	Outcome     Outcome   `json:"outcome"`
	CreatedAt   time.Time `json:"created_at"`
}
