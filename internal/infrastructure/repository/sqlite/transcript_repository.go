// Package sqlite keeps chat transcripts in a local SQLite file for
// single-node deployments and the CLI.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kirillkom/course-assistant/internal/core/domain"
)

type TranscriptRepository struct {
	db *sql.DB
}

func NewTranscriptRepository(db *sql.DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

// OpenDB opens path with WAL journaling; one writer at a time.
func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *TranscriptRepository) EnsureSchema(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS chat_turns (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			turn INTEGER NOT NULL,
			user_message TEXT NOT NULL,
			bot_answer TEXT NOT NULL,
			citations TEXT NOT NULL DEFAULT '[]',
			is_fallback INTEGER NOT NULL DEFAULT 0,
			outcome TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chat_turns_session ON chat_turns(session_id, turn);`,
	}
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

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
VALUES (?,?,?,?,?,?,?,?,?)
ON CONFLICT (id) DO NOTHING
`, record.ID, record.SessionID, record.Turn, record.UserMessage, record.BotAnswer, string(citationsJSON), record.IsFallback, string(record.Outcome), record.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save turn: %w", err)
	}
	return nil
}

func (r *TranscriptRepository) ListSession(ctx context.Context, sessionID string, limit int) ([]domain.TurnRecord, error) {
	if limit <= 0 {
		return []domain.TurnRecord{}, nil
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, session_id, turn, user_message, bot_answer, citations, is_fallback, outcome, created_at
FROM chat_turns
WHERE session_id = ?
ORDER BY turn ASC
LIMIT ?
`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list session: %w", err)
	}
	defer rows.Close()

	out := make([]domain.TurnRecord, 0, limit)
	for rows.Next() {
		var (
			rec       domain.TurnRecord
			citations string
			outcome   string
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Turn, &rec.UserMessage, &rec.BotAnswer, &citations, &rec.IsFallback, &outcome, &createdAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		rec.Outcome = domain.Outcome(outcome)
		rec.Citations = []string{}
		if err := json.Unmarshal([]byte(citations), &rec.Citations); err != nil {
			return nil, fmt.Errorf("decode citations: %w", err)
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("decode created_at: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}
	return out, nil
}
