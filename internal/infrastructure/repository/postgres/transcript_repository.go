package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/course-assistant/internal/core/domain"
)

const schemaLockID int64 = 2026101801

type TranscriptRepository struct {
	db *sql.DB
}

func NewTranscriptRepository(db *sql.DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *TranscriptRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS chat_turns (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	turn INTEGER NOT NULL,
	user_message TEXT NOT NULL,
	bot_answer TEXT NOT NULL,
	citations JSONB NOT NULL DEFAULT '[]'::jsonb,
	is_fallback BOOLEAN NOT NULL DEFAULT FALSE,
	outcome TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chat_turns_session ON chat_turns(session_id, turn);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// SaveTurn is idempotent on record ID so redelivered events are harmless.
func (r *TranscriptRepository) SaveTurn(ctx context.Context, record domain.TurnRecord) error {
	if record.ID == "" || record.SessionID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "save turn", fmt.Errorf("id and session_id are required"))
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	citations := record.Citations
	if citations == nil {
		citations = []string{}
	}
	citationsJSON, err := json.Marshal(citations)
	if err != nil {
		return fmt.Errorf("marshal citations: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO chat_turns (id, session_id, turn, user_message, bot_answer, citations, is_fallback, outcome, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO NOTHING
`, record.ID, record.SessionID, record.Turn, record.UserMessage, record.BotAnswer, string(citationsJSON), record.IsFallback, string(record.Outcome), record.CreatedAt)
	if err != nil {
		return fmt.Errorf("save turn: %w", err)
	}
	return nil
}

// ListSession returns up to limit turns of a session in ascending turn order.
func (r *TranscriptRepository) ListSession(ctx context.Context, sessionID string, limit int) ([]domain.TurnRecord, error) {
	if limit <= 0 {
		return []domain.TurnRecord{}, nil
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, session_id, turn, user_message, bot_answer, citations, is_fallback, outcome, created_at
FROM chat_turns
WHERE session_id = $1
ORDER BY turn ASC
LIMIT $2
`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list session: %w", err)
	}
	defer rows.Close()

	out := make([]domain.TurnRecord, 0, limit)
	for rows.Next() {
		var (
			rec       domain.TurnRecord
			citations []byte
			outcome   string
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.SessionID,
			&rec.Turn,
			&rec.UserMessage,
			&rec.BotAnswer,
			&citations,
			&rec.IsFallback,
			&outcome,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		rec.Outcome = domain.Outcome(outcome)
		rec.Citations = []string{}
		if len(citations) > 0 {
			if err := json.Unmarshal(citations, &rec.Citations); err != nil {
				return nil, fmt.Errorf("decode citations: %w", err)
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}
	return out, nil
}
