// Package storage persists debate and consensus sessions to SQLite so
// past runs can be listed and replayed through the API.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/quorumtrade/quorum/internal/models"
)

// Session kinds and statuses.
const (
	KindDebate    = "debate"
	KindConsensus = "consensus"

	StatusRunning = "running"
	StatusDone    = "done"
	StatusError   = "error"
)

type Store struct {
	db *sql.DB
}

type SessionRecord struct {
	ID     string
	Kind   string
	Topic  string
	Status string
}

type SessionWithMeta struct {
	SessionRecord
	RowID     int64
	CreatedAt string
	UpdatedAt string
}

type MessageWithMeta struct {
	SessionID string
	Seq       int
	Round     int
	AgentID   string
	Role      string
	Content   string
	Tokens    int
	CreatedAt string
}

func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("db path is required")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=3000;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    topic TEXT,
    status TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
    session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    round INTEGER NOT NULL,
    agent_id TEXT NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    tokens INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY(session_id, seq)
);

CREATE TABLE IF NOT EXISTS results (
    session_id TEXT PRIMARY KEY REFERENCES sessions(id) ON DELETE CASCADE,
    kind TEXT NOT NULL,
    payload TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, seq);
`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *Store) CreateSession(ctx context.Context, session SessionRecord) error {
	if session.Status == "" {
		session.Status = StatusRunning
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO sessions (id, kind, topic, status)
VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    kind=excluded.kind,
    topic=excluded.topic,
    status=excluded.status,
    updated_at=CURRENT_TIMESTAMP
`, session.ID, session.Kind, session.Topic, session.Status)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *Store) UpdateSessionStatus(ctx context.Context, sessionID, status string) error {
	if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(status) == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
UPDATE sessions
SET status = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`, status, sessionID)
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	return nil
}

// SaveTranscript writes the full ordered transcript in one transaction.
// Re-saving a session replaces its messages.
func (s *Store) SaveTranscript(ctx context.Context, sessionID string, transcript []models.RoundMessage) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transcript tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear transcript: %w", err)
	}
	for i, msg := range transcript {
		_, err := tx.ExecContext(ctx, `
INSERT INTO messages (session_id, seq, round, agent_id, role, content, tokens)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, sessionID, i+1, msg.Round, msg.AgentID, string(msg.Role), msg.Content, msg.TokensUsed)
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transcript: %w", err)
	}
	return nil
}

// SaveDebateResult stores the terminal payload and marks the session done.
func (s *Store) SaveDebateResult(ctx context.Context, result *models.DebateResult) error {
	if err := s.SaveTranscript(ctx, result.SessionID, result.Transcript); err != nil {
		return err
	}
	if err := s.saveResult(ctx, result.SessionID, KindDebate, result); err != nil {
		return err
	}
	return s.UpdateSessionStatus(ctx, result.SessionID, StatusDone)
}

// SaveConsensusResult stores the terminal payload and marks the session done.
func (s *Store) SaveConsensusResult(ctx context.Context, result *models.ConsensusResult) error {
	if err := s.saveResult(ctx, result.SessionID, KindConsensus, result); err != nil {
		return err
	}
	return s.UpdateSessionStatus(ctx, result.SessionID, StatusDone)
}

func (s *Store) saveResult(ctx context.Context, sessionID, kind string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s result: %w", kind, err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO results (session_id, kind, payload)
VALUES (?, ?, ?)
ON CONFLICT(session_id) DO UPDATE SET
    kind=excluded.kind,
    payload=excluded.payload
`, sessionID, kind, string(data))
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// GetResult returns the stored terminal payload as raw JSON, or nil when
// the session has none yet.
func (s *Store) GetResult(ctx context.Context, sessionID string) (string, []byte, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT kind, payload FROM results WHERE session_id = ? LIMIT 1
`, sessionID)

	var kind, raw string
	if err := row.Scan(&kind, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, nil
		}
		return "", nil, fmt.Errorf("get result: %w", err)
	}
	return kind, []byte(raw), nil
}

// ListSessions pages newest-first by rowid. Cursor 0 starts at the top.
func (s *Store) ListSessions(ctx context.Context, cursor int64, limit int) ([]SessionWithMeta, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT rowid, id, kind, topic, status, created_at, updated_at
FROM sessions
WHERE (? = 0 OR rowid < ?)
ORDER BY rowid DESC
LIMIT ?
`, cursor, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionWithMeta
	for rows.Next() {
		var rec SessionWithMeta
		if err := rows.Scan(&rec.RowID, &rec.ID, &rec.Kind, &rec.Topic, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions rows: %w", err)
	}
	return sessions, nil
}

// GetSession returns nil without error when the session does not exist.
func (s *Store) GetSession(ctx context.Context, sessionID string) (*SessionWithMeta, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("session id is required")
	}
	row := s.db.QueryRowContext(ctx, `
SELECT rowid, id, kind, topic, status, created_at, updated_at
FROM sessions
WHERE id = ?
LIMIT 1
`, sessionID)

	var rec SessionWithMeta
	if err := row.Scan(&rec.RowID, &rec.ID, &rec.Kind, &rec.Topic, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &rec, nil
}

func (s *Store) ListMessages(ctx context.Context, sessionID string) ([]MessageWithMeta, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("session id is required")
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT session_id, seq, round, agent_id, role, content, tokens, created_at
FROM messages
WHERE session_id = ?
ORDER BY seq ASC
`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []MessageWithMeta
	for rows.Next() {
		var rec MessageWithMeta
		if err := rows.Scan(&rec.SessionID, &rec.Seq, &rec.Round, &rec.AgentID, &rec.Role, &rec.Content, &rec.Tokens, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list messages rows: %w", err)
	}
	return msgs, nil
}
