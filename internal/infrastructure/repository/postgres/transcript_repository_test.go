package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/course-assistant/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*TranscriptRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return NewTranscriptRepository(db), mock, func() { _ = db.Close() }
}

func TestEnsureSchemaTakesAdvisoryLock(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").WithArgs(schemaLockID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS chat_turns").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveTurnInsertsIdempotently(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	createdAt := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec("(?s)INSERT INTO chat_turns.*ON CONFLICT \\(id\\) DO NOTHING").
		WithArgs("turn-1", "session-1", 1, "What is the fee?", "It is $100 [Section: Pricing].", `["Pricing"]`, false, "answered", createdAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveTurn(context.Background(), domain.TurnRecord{
		ID:          "turn-1",
		SessionID:   "session-1",
		Turn:        1,
		UserMessage: "What is the fee?",
		BotAnswer:   "It is $100 [Section: Pricing].",
		Citations:   []string{"Pricing"},
		Outcome:     domain.OutcomeAnswered,
		CreatedAt:   createdAt,
	})
	if err != nil {
		t.Fatalf("SaveTurn() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveTurnRequiresIdentity(t *testing.T) {
	repo, _, done := newRepoWithMock(t)
	defer done()

	err := repo.SaveTurn(context.Background(), domain.TurnRecord{Turn: 1})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSaveTurnWrapsDriverError(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO chat_turns").WillReturnError(errors.New("connection reset"))
	err := repo.SaveTurn(context.Background(), domain.TurnRecord{ID: "a", SessionID: "s"})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestListSessionDecodesRows(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "session_id", "turn", "user_message", "bot_answer", "citations", "is_fallback", "outcome", "created_at"}).
		AddRow("t1", "s1", 1, "fee?", "$100", []byte(`["Pricing"]`), false, "answered", now).
		AddRow("t2", "s1", 2, "ceo?", "I'm sorry", []byte(`[]`), true, "no_context", now)
	mock.ExpectQuery("SELECT id, session_id, turn").WithArgs("s1", 10).WillReturnRows(rows)

	turns, err := repo.ListSession(context.Background(), "s1", 10)
	if err != nil {
		t.Fatalf("ListSession() error = %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Citations[0] != "Pricing" || turns[1].Outcome != domain.OutcomeNoContext || !turns[1].IsFallback {
		t.Fatalf("unexpected turns: %+v", turns)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
