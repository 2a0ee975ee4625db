package usecase

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/kirillkom/course-assistant/internal/core/domain"
	"github.com/kirillkom/course-assistant/internal/core/ports"
	"github.com/kirillkom/course-assistant/internal/core/ports/mocks"
)

var _ ports.ChatService = (*Chatbot)(nil)

type chatbotMocks struct {
	embedder *mocks.MockEmbedder
	store    *mocks.MockVectorStore
	model    *mocks.MockLanguageModel
}

func newTestChatbot(t *testing.T, cfg Config, recorders ...ports.TurnRecorder) (*Chatbot, chatbotMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := chatbotMocks{
		embedder: mocks.NewMockEmbedder(ctrl),
		store:    mocks.NewMockVectorStore(ctrl),
		model:    mocks.NewMockLanguageModel(ctrl),
	}

	pre, err := NewQueryPreprocessor(cfg)
	if err != nil {
		t.Fatalf("NewQueryPreprocessor() error = %v", err)
	}
	pipeline := NewRetrievalPipeline(pre, NewRetriever(m.embedder, m.store, nil, cfg), cfg)
	generator := NewResponseGenerator(NewPromptBuilder(cfg), m.model, cfg)
	bot := NewChatbot(pipeline, generator, NewResponseFormatter(cfg), NewConversationHistory(cfg.HistoryCapacity), cfg, recorders...)
	return bot, m
}

func (m chatbotMocks) expectRetrieval(passages []domain.Passage) {
	m.embedder.EXPECT().EmbedQuery(gomock.Any(), gomock.Any()).Return([]float32{0.1, 0.2}, nil)
	m.store.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any()).Return(passages, nil)
}

func TestChatbotAnswersWithCitations(t *testing.T) {
	bot, m := newTestChatbot(t, DefaultConfig())
	m.expectRetrieval(coursePassages())
	m.model.EXPECT().Generate(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p domain.BuiltPrompt) domain.LLMResponse {
		if !strings.Contains(p.UserMessage, "[Section: Pricing]") {
			t.Fatalf("expected section label in context:\n%s", p.UserMessage)
		}
		return domain.LLMResponse{Text: "Answer: The fee is $100 [Block 1] [Section: Pricing].", Success: true, Attempts: 1}
	})

	reply := bot.Chat(context.Background(), "What is the course fee?")
	if !reply.Success || reply.IsFallback {
		t.Fatalf("expected successful answer, got %+v", reply)
	}
	if reply.Answer != "The fee is $100 [Section: Pricing]." {
		t.Fatalf("unexpected answer %q", reply.Answer)
	}
	if !reflect.DeepEqual(reply.Citations, []string{"Pricing"}) {
		t.Fatalf("unexpected citations %q", reply.Citations)
	}
	if reply.Turn != 1 || reply.Outcome != domain.OutcomeAnswered || reply.Sources != 2 || reply.Attempts != 1 {
		t.Fatalf("unexpected reply metadata: %+v", reply)
	}

	history := bot.History(5)
	if len(history) != 1 || history[0].BotAnswer != reply.Answer {
		t.Fatalf("expected reply in history, got %+v", history)
	}
}

func TestChatbotCitesRetrievedSectionsWhenModelOmitsTags(t *testing.T) {
	bot, m := newTestChatbot(t, DefaultConfig())
	m.expectRetrieval(coursePassages())
	m.model.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(domain.LLMResponse{Text: "The fee is $100.", Success: true, Attempts: 2})

	reply := bot.Chat(context.Background(), "What is the course fee?")
	if !reflect.DeepEqual(reply.Citations, []string{"Pricing", "Class Schedule"}) {
		t.Fatalf("unexpected citations %q", reply.Citations)
	}
}

func TestChatbotNoContextNeverCallsModel(t *testing.T) {
	cfg := DefaultConfig()
	bot, m := newTestChatbot(t, cfg)
	m.expectRetrieval([]domain.Passage{{Content: "noise", Score: 0.2}})

	reply := bot.Chat(context.Background(), "Who is the CEO of the company?")
	if reply.Answer != cfg.RefusalPhrase {
		t.Fatalf("expected refusal phrase, got %q", reply.Answer)
	}
	if !reply.IsFallback || !reply.Success || reply.Outcome != domain.OutcomeNoContext {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if len(reply.Citations) != 0 || reply.Citations == nil {
		t.Fatalf("expected empty citations, got %v", reply.Citations)
	}
}

func TestChatbotRejectsInvalidQuery(t *testing.T) {
	cfg := DefaultConfig()
	bot, _ := newTestChatbot(t, cfg)

	reply := bot.Chat(context.Background(), "hi")
	if reply.Success || !reply.IsFallback {
		t.Fatalf("expected failed fallback reply, got %+v", reply)
	}
	if reply.Outcome != domain.OutcomeInvalidQuery || !strings.Contains(reply.Error, "too short") {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if reply.Answer != cfg.RefusalPhrase {
		t.Fatalf("unexpected answer %q", reply.Answer)
	}
	if reply.Turn != 1 {
		t.Fatalf("rejected queries still occupy a turn, got %d", reply.Turn)
	}
}

func TestChatbotGenerationFailure(t *testing.T) {
	cfg := DefaultConfig()
	bot, m := newTestChatbot(t, cfg)
	m.expectRetrieval(coursePassages())
	m.model.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(domain.LLMResponse{Error: "upstream status 503", Attempts: 3})

	reply := bot.Chat(context.Background(), "What is the course fee?")
	if reply.Answer != cfg.Apology {
		t.Fatalf("expected apology, got %q", reply.Answer)
	}
	if reply.Success || !reply.IsFallback || reply.Outcome != domain.OutcomeGenerationError || reply.Attempts != 3 {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if len(reply.Citations) != 0 {
		t.Fatalf("fallback replies carry no citations, got %q", reply.Citations)
	}
}

func TestChatbotGenerationFailureKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.Outcome
	}{
		{name: "transport", err: domain.WrapError(domain.ErrGenerationTransport, "llm generate", errors.New("status 503")), want: domain.OutcomeGenerationTransport},
		{name: "fatal", err: domain.WrapError(domain.ErrGenerationFatal, "llm generate", errors.New("status 401")), want: domain.OutcomeGenerationFatal},
		{name: "untyped", err: errors.New("boom"), want: domain.OutcomeGenerationError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			bot, m := newTestChatbot(t, cfg)
			m.expectRetrieval(coursePassages())
			m.model.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(domain.LLMResponse{Error: tt.err.Error(), Err: tt.err, Attempts: 1})

			reply := bot.Chat(context.Background(), "What is the course fee?")
			if reply.Outcome != tt.want {
				t.Fatalf("expected outcome %q, got %q", tt.want, reply.Outcome)
			}
			if reply.Answer != cfg.Apology || reply.Success || !reply.IsFallback {
				t.Fatalf("unexpected reply: %+v", reply)
			}
		})
	}
}

func TestChatbotModelPanicBecomesApology(t *testing.T) {
	cfg := DefaultConfig()
	bot, m := newTestChatbot(t, cfg)
	m.expectRetrieval(coursePassages())
	m.model.EXPECT().Generate(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, domain.BuiltPrompt) domain.LLMResponse {
		panic("model exploded")
	})

	reply := bot.Chat(context.Background(), "What is the course fee?")
	if reply.Answer != cfg.Apology || !reply.IsFallback || reply.Success {
		t.Fatalf("expected apology fallback, got %+v", reply)
	}
	if reply.Outcome != domain.OutcomeGenerationError || reply.Turn != 1 {
		t.Fatalf("unexpected reply metadata: %+v", reply)
	}
	if len(reply.Citations) != 0 || reply.Citations == nil {
		t.Fatalf("expected empty citations, got %v", reply.Citations)
	}
	if history := bot.History(10); len(history) != 1 || history[0].BotAnswer != cfg.Apology {
		t.Fatalf("expected exactly one apology turn, got %+v", history)
	}
}

func TestChatbotRecorderPanicKeepsSingleTurn(t *testing.T) {
	tests := []struct {
		name   string
		panics func(call int) bool
	}{
		{name: "always", panics: func(int) bool { return true }},
		{name: "first call only", panics: func(call int) bool { return call == 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			sink := mocks.NewMockTurnRecorder(ctrl)
			after := mocks.NewMockTurnRecorder(ctrl)

			bot, m := newTestChatbot(t, DefaultConfig(), sink, after)
			m.expectRetrieval(coursePassages())
			m.model.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(domain.LLMResponse{Text: "The fee is $100 [Section: Pricing].", Success: true, Attempts: 1})

			calls := 0
			sink.EXPECT().RecordTurn(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, domain.TurnRecord) error {
				calls++
				if tt.panics(calls) {
					panic("recorder blew up")
				}
				return nil
			}).Times(1)
			after.EXPECT().RecordTurn(gomock.Any(), gomock.Any()).Return(nil).Times(1)

			reply := bot.Chat(context.Background(), "What is the course fee?")
			if !reply.Success || reply.IsFallback || reply.Turn != 1 {
				t.Fatalf("a failing sink must not change the reply: %+v", reply)
			}
			if reply.Answer != "The fee is $100 [Section: Pricing]." {
				t.Fatalf("unexpected answer %q", reply.Answer)
			}
			if history := bot.History(10); len(history) != 1 {
				t.Fatalf("expected exactly one turn, got %d", len(history))
			}
		})
	}
}

func TestChatbotRetrievalFailure(t *testing.T) {
	cfg := DefaultConfig()
	bot, m := newTestChatbot(t, cfg)
	m.embedder.EXPECT().EmbedQuery(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))

	reply := bot.Chat(context.Background(), "What is the course fee?")
	if reply.Answer != cfg.Apology || reply.Success || reply.Outcome != domain.OutcomeRetrievalError {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}

func TestChatbotModelDeclines(t *testing.T) {
	cfg := DefaultConfig()
	bot, m := newTestChatbot(t, cfg)
	m.expectRetrieval(coursePassages())
	m.model.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(domain.LLMResponse{
		Text: cfg.RefusalPhrase + ". [Section: Pricing]", Success: true, Attempts: 1,
	})

	reply := bot.Chat(context.Background(), "Is there a scholarship?")
	if !reply.IsFallback || !reply.Success || reply.Outcome != domain.OutcomeModelDeclined {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if len(reply.Citations) != 0 {
		t.Fatalf("declined answers carry no citations, got %q", reply.Citations)
	}
}

func TestChatbotRecordsTurns(t *testing.T) {
	ctrl := gomock.NewController(t)
	recorder := mocks.NewMockTurnRecorder(ctrl)
	failing := mocks.NewMockTurnRecorder(ctrl)

	bot, m := newTestChatbot(t, DefaultConfig(), recorder, nil, failing)
	m.expectRetrieval(coursePassages())
	m.model.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(domain.LLMResponse{Text: "The fee is $100 [Section: Pricing].", Success: true, Attempts: 1})

	var got domain.TurnRecord
	recorder.EXPECT().RecordTurn(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r domain.TurnRecord) error {
		got = r
		return nil
	})
	failing.EXPECT().RecordTurn(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	reply := bot.Chat(context.Background(), "What is the course fee?")
	if !reply.Success {
		t.Fatalf("recorder failures must not affect the reply: %+v", reply)
	}
	if got.ID == "" || got.SessionID != bot.SessionID() || got.Turn != 1 {
		t.Fatalf("unexpected record identity: %+v", got)
	}
	if got.UserMessage != "What is the course fee?" || got.BotAnswer != reply.Answer || got.Outcome != domain.OutcomeAnswered {
		t.Fatalf("unexpected record payload: %+v", got)
	}
}

func TestChatbotClearStartsNewSession(t *testing.T) {
	bot, _ := newTestChatbot(t, DefaultConfig())

	bot.Chat(context.Background(), "hi")
	bot.Chat(context.Background(), "yo")
	if len(bot.History(10)) != 2 {
		t.Fatalf("expected 2 turns before clear")
	}
	session := bot.SessionID()

	bot.Clear()
	if len(bot.History(10)) != 0 {
		t.Fatalf("expected empty history after clear")
	}
	if bot.SessionID() == session {
		t.Fatalf("expected a new session id after clear")
	}
	if reply := bot.Chat(context.Background(), "ok"); reply.Turn != 1 {
		t.Fatalf("expected turn numbering to restart, got %d", reply.Turn)
	}
}

func TestChatbotIncludesHistoryInPrompt(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PromptHistoryTurns = 2
	bot, m := newTestChatbot(t, cfg)

	m.embedder.EXPECT().EmbedQuery(gomock.Any(), gomock.Any()).Return([]float32{0.1}, nil).Times(2)
	m.store.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any()).Return(coursePassages(), nil).Times(2)

	var prompts []domain.BuiltPrompt
	m.model.EXPECT().Generate(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p domain.BuiltPrompt) domain.LLMResponse {
		prompts = append(prompts, p)
		return domain.LLMResponse{Text: "The fee is $100 [Section: Pricing].", Success: true, Attempts: 1}
	}).Times(2)

	bot.Chat(context.Background(), "What is the course fee?")
	bot.Chat(context.Background(), "Can I pay in instalments?")

	if strings.Contains(prompts[0].UserMessage, "CONVERSATION SO FAR") {
		t.Fatalf("first prompt must not carry history")
	}
	if !strings.Contains(prompts[1].UserMessage, "User: What is the course fee?\nAssistant: The fee is $100 [Section: Pricing].") {
		t.Fatalf("second prompt must carry the first turn:\n%s", prompts[1].UserMessage)
	}
}
