package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/course-assistant/internal/core/domain"
	"github.com/kirillkom/course-assistant/internal/core/ports"
)

// Chatbot composes retrieval, generation, formatting and history into one
// request/response cycle. Chat never returns an error: every failure becomes
// a fallback reply.
type Chatbot struct {
	pipeline  *RetrievalPipeline
	generator *ResponseGenerator
	formatter *ResponseFormatter
	history   *ConversationHistory
	recorders []ports.TurnRecorder

	refusal      string
	apology      string
	historyTurns int

	mu        sync.RWMutex
	sessionID string
}

func NewChatbot(
	pipeline *RetrievalPipeline,
	generator *ResponseGenerator,
	formatter *ResponseFormatter,
	history *ConversationHistory,
	cfg Config,
	recorders ...ports.TurnRecorder,
) *Chatbot {
	cfg = cfg.normalize()
	if history == nil {
		history = NewConversationHistory(cfg.HistoryCapacity)
	}
	active := make([]ports.TurnRecorder, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			active = append(active, r)
		}
	}
	return &Chatbot{
		pipeline:     pipeline,
		generator:    generator,
		formatter:    formatter,
		history:      history,
		recorders:    active,
		refusal:      cfg.RefusalPhrase,
		apology:      cfg.Apology,
		historyTurns: cfg.PromptHistoryTurns,
		sessionID:    uuid.NewString(),
	}
}

func (c *Chatbot) Chat(ctx context.Context, message string) (reply domain.ChatReply) {
	start := time.Now()
	var turn *domain.ConversationTurn
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("chat_panic", "panic", fmt.Sprint(rec))
			// A turn already in history keeps its reply.
			if turn == nil {
				reply = c.recoverTurn(ctx, message)
			}
		}
		slog.Info("chat_turn",
			"session_id", c.SessionID(),
			"turn", reply.Turn,
			"outcome", string(reply.Outcome),
			"is_fallback", reply.IsFallback,
			"sources", reply.Sources,
			"attempts", reply.Attempts,
			"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
		)
	}()

	reply = c.answer(ctx, message)
	turn = c.appendTurn(message, &reply)
	c.record(ctx, message, reply, *turn)
	return reply
}

// recoverTurn commits the apology for a turn whose answer panicked. A second
// panic leaves history untouched and still yields the apology.
func (c *Chatbot) recoverTurn(ctx context.Context, message string) (reply domain.ChatReply) {
	reply = domain.ChatReply{
		Answer:     c.apology,
		Citations:  []string{},
		IsFallback: true,
		Error:      "internal error",
		Outcome:    domain.OutcomeGenerationError,
	}
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("chat_panic_unrecoverable", "panic", fmt.Sprint(rec))
		}
	}()
	turn := c.appendTurn(message, &reply)
	c.record(ctx, message, reply, *turn)
	return reply
}

func (c *Chatbot) answer(ctx context.Context, message string) domain.ChatReply {
	out, err := c.pipeline.Run(ctx, message)
	if err != nil {
		slog.Error("retrieval_failed", "error", err)
		return domain.ChatReply{
			Answer:     c.apology,
			Citations:  []string{},
			IsFallback: true,
			Error:      err.Error(),
			Outcome:    domain.OutcomeRetrievalError,
		}
	}

	var historyContext string
	if c.historyTurns > 0 {
		historyContext = c.history.AsContext(c.historyTurns)
	}
	gen := c.generator.GenerateWithHistory(ctx, domain.FromPipeline{Output: out}, historyContext)
	formatted := c.formatter.Format(gen.Answer)

	reply := domain.ChatReply{
		Answer:     formatted.CleanText,
		Citations:  formatted.Citations,
		IsFallback: formatted.IsFallback,
		Success:    true,
		Sources:    len(out.Results),
	}
	if gen.Raw != nil {
		reply.Attempts = gen.Raw.Attempts
	}
	if reply.Answer == "" {
		reply.Answer = c.refusal
	}

	switch {
	case !out.Success && domain.IsKind(out.Reason, domain.ErrInvalidQuery):
		reply.IsFallback = true
		reply.Success = false
		reply.Error = out.Error
		reply.Outcome = domain.OutcomeInvalidQuery
	case !out.Success:
		reply.IsFallback = true
		reply.Outcome = domain.OutcomeNoContext
	case !gen.Success:
		reply.IsFallback = true
		reply.Success = false
		reply.Error = gen.Error
		reply.Outcome = generationOutcome(gen)
	case reply.IsFallback:
		reply.Outcome = domain.OutcomeModelDeclined
	default:
		reply.Outcome = domain.OutcomeAnswered
		if len(reply.Citations) == 0 {
			reply.Citations = resultLabels(out.Results)
		}
	}
	if reply.IsFallback {
		reply.Citations = []string{}
	}
	return reply
}

// appendTurn stores the reply in history and stamps its turn number.
func (c *Chatbot) appendTurn(message string, reply *domain.ChatReply) *domain.ConversationTurn {
	if reply.Citations == nil {
		reply.Citations = []string{}
	}
	turn := c.history.Append(message, reply.Answer, reply.IsFallback)
	reply.Turn = turn.Turn
	return &turn
}

// record hands the committed turn to every recorder. Recorder errors and
// panics are logged and never reach the caller.
func (c *Chatbot) record(ctx context.Context, message string, reply domain.ChatReply, turn domain.ConversationTurn) {
	if len(c.recorders) == 0 {
		return
	}
	record := domain.TurnRecord{
		ID:          uuid.NewString(),
		SessionID:   c.SessionID(),
		Turn:        turn.Turn,
		UserMessage: message,
		BotAnswer:   reply.Answer,
		Citations:   reply.Citations,
		IsFallback:  reply.IsFallback,
		Outcome:     reply.Outcome,
		CreatedAt:   turn.Timestamp,
	}
	for _, recorder := range c.recorders {
		recordTurn(ctx, recorder, record)
	}
}

func recordTurn(ctx context.Context, recorder ports.TurnRecorder, record domain.TurnRecord) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("turn_record_panic", "session_id", record.SessionID, "turn", record.Turn, "panic", fmt.Sprint(rec))
		}
	}()
	if err := recorder.RecordTurn(ctx, record); err != nil {
		slog.Warn("turn_record_failed", "session_id", record.SessionID, "turn", record.Turn, "error", err)
	}
}

// Clear wipes the history and starts a new session.
func (c *Chatbot) Clear() {
	c.history.Clear()
	c.mu.Lock()
	c.sessionID = uuid.NewString()
	c.mu.Unlock()
	slog.Info("chat_history_cleared")
}

func (c *Chatbot) History(n int) []domain.ConversationTurn {
	return c.history.Recent(n)
}

func (c *Chatbot) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// generationOutcome splits model failures by the kind the LLM client
// attached; untyped failures stay generation_error.
func generationOutcome(gen domain.GeneratorResponse) domain.Outcome {
	if gen.Raw == nil {
		return domain.OutcomeGenerationError
	}
	switch {
	case domain.IsKind(gen.Raw.Err, domain.ErrGenerationFatal):
		return domain.OutcomeGenerationFatal
	case domain.IsKind(gen.Raw.Err, domain.ErrGenerationTransport):
		return domain.OutcomeGenerationTransport
	default:
		return domain.OutcomeGenerationError
	}
}

func resultLabels(results []domain.RetrievalResult) []string {
	labels := make([]string, 0, len(results))
	seen := make(map[string]struct{}, len(results))
	for _, res := range results {
		label := SectionLabel(res.Metadata)
		key := strings.ToLower(label)
		if label == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		labels = append(labels, label)
	}
	return labels
}
