package history

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tchow/agentdash/internal/logging"
)

var historyLog = logging.ForComponent(logging.CompHistory)

// Direction records which way a message travelled.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// Message is one persisted chat message.
type Message struct {
	ID        string
	AgentName string // empty for messages not tied to an agent
	Content   string
	Direction Direction
	Timestamp time.Time
	Metadata  string // opaque JSON blob, "{}" when unset
}

// Store persists chat messages in SQLite. Safe for concurrent use from
// multiple goroutines within one process; WAL mode plus busy timeout
// keeps external readers workable too.
type Store struct {
	db *sql.DB
}

// Open creates or opens the history database at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("history: mkdir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("history: open: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: wal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: busy timeout: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			id         TEXT PRIMARY KEY,
			agent_name TEXT NOT NULL DEFAULT '',
			content    TEXT NOT NULL,
			direction  TEXT NOT NULL,
			timestamp  INTEGER NOT NULL,
			metadata   TEXT NOT NULL DEFAULT '{}'
		);
		CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp);
		CREATE INDEX IF NOT EXISTS idx_messages_agent ON messages(agent_name);
	`)
	if err != nil {
		return fmt.Errorf("history: migrate: %w", err)
	}
	return nil
}

// Close checkpoints WAL and closes the database.
func (s *Store) Close() error {
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}

// Save persists one message.
func (s *Store) Save(msg Message) error {
	if msg.ID == "" {
		return fmt.Errorf("history: message id is required")
	}
	meta := msg.Metadata
	if meta == "" {
		meta = "{}"
	}
	_, err := s.db.Exec(`
		INSERT INTO messages (id, agent_name, content, direction, timestamp, metadata)
		VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.AgentName, msg.Content, string(msg.Direction), msg.Timestamp.UnixMilli(), meta)
	if err != nil {
		return fmt.Errorf("history: save message: %w", err)
	}
	return nil
}

// Recent returns up to limit messages, newest last, optionally filtered
// by agent name.
func (s *Store) Recent(agentName string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, agent_name, content, direction, timestamp, metadata
		FROM messages`
	args := []any{}
	if agentName != "" {
		query += ` WHERE agent_name = ?`
		args = append(args, agentName)
	}
	query += ` ORDER BY timestamp DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("history: query recent: %w", err)
	}
	defer rows.Close()

	msgs, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	// reverse into chronological order
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// Prune deletes the oldest messages beyond keep, returning how many were
// removed.
func (s *Store) Prune(keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := s.db.Exec(`
		DELETE FROM messages WHERE id NOT IN (
			SELECT id FROM messages ORDER BY timestamp DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("history: prune: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		historyLog.Info("history_pruned", slog.Int64("removed", n), slog.Int("kept", keep))
	}
	return int(n), nil
}

// Count returns the number of stored messages.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("history: count: %w", err)
	}
	return n, nil
}

func scanMessages(rows *sql.Rows) ([]Message, error) {
	var msgs []Message
	for rows.Next() {
		var m Message
		var dir string
		var ts int64
		if err := rows.Scan(&m.ID, &m.AgentName, &m.Content, &dir, &ts, &m.Metadata); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		m.Direction = Direction(dir)
		m.Timestamp = time.UnixMilli(ts)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: rows: %w", err)
	}
	return msgs, nil
}
