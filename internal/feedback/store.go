// Package feedback persists the activation log: which constraints fired
// in which session, why, and how useful the user found them. The store
// is an optional subsystem; the server degrades to in-memory-only
// operation when it cannot be opened.
package feedback

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Session is one assistant working session receiving reminders.
type Session struct {
	ID        string  `json:"id"`
	StartedAt string  `json:"started_at"`
	EndedAt   *string `json:"ended_at,omitempty"`
}

// ActivationRecord is one logged constraint activation.
type ActivationRecord struct {
	ID           int64  `json:"id"`
	SessionID    string `json:"session_id"`
	ConstraintID string `json:"constraint_id"`
	Reason       string `json:"reason"`
	Score        *int   `json:"score,omitempty"`
	Note         string `json:"note,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// ConstraintStats aggregates how a single constraint has performed.
type ConstraintStats struct {
	ConstraintID string   `json:"constraint_id"`
	Activations  int      `json:"activations"`
	Rated        int      `json:"rated"`
	AverageScore *float64 `json:"average_score,omitempty"`
}

// Stats is the aggregate view over the whole log.
type Stats struct {
	TotalSessions    int               `json:"total_sessions"`
	TotalActivations int               `json:"total_activations"`
	PerConstraint    []ConstraintStats `json:"per_constraint"`
}

// Config holds feedback store configuration.
type Config struct {
	DataDir string
}

// DefaultConfig returns the default store location under the user's
// home directory.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{DataDir: filepath.Join(home, ".tenet")}
}

// Store is the activation log backed by SQLite.
type Store struct {
	db *sql.DB
}

// New creates the data directory if needed, opens SQLite with WAL mode,
// and runs migrations.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("feedback: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "feedback.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("feedback: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("feedback: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("feedback: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			started_at TEXT NOT NULL DEFAULT (datetime('now')),
			ended_at   TEXT
		);

		CREATE TABLE IF NOT EXISTS activations (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id    TEXT    NOT NULL,
			constraint_id TEXT    NOT NULL,
			reason        TEXT    NOT NULL DEFAULT '',
			score         INTEGER,
			note          TEXT    NOT NULL DEFAULT '',
			created_at    TEXT    NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		);

		CREATE INDEX IF NOT EXISTS idx_act_session    ON activations(session_id);
		CREATE INDEX IF NOT EXISTS idx_act_constraint ON activations(constraint_id);
		CREATE INDEX IF NOT EXISTS idx_act_created    ON activations(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// StartSession registers a new session and returns its id. An empty id
// generates a fresh UUID; a caller-supplied id is reused if it already
// exists.
func (s *Store) StartSession(id string) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	_, err := s.db.Exec(`INSERT OR IGNORE INTO sessions (id) VALUES (?)`, id)
	if err != nil {
		return "", fmt.Errorf("feedback: start session: %w", err)
	}
	return id, nil
}

// EndSession marks a session as finished.
func (s *Store) EndSession(id string) error {
	res, err := s.db.Exec(`UPDATE sessions SET ended_at = datetime('now') WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("feedback: end session: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("feedback: session %q not found", id)
	}
	return nil
}

// RecordActivation logs one served reminder and returns the record id.
func (s *Store) RecordActivation(sessionID, constraintID, reason string) (int64, error) {
	if _, err := s.StartSession(sessionID); err != nil {
		return 0, err
	}
	res, err := s.db.Exec(
		`INSERT INTO activations (session_id, constraint_id, reason) VALUES (?, ?, ?)`,
		sessionID, constraintID, reason,
	)
	if err != nil {
		return 0, fmt.Errorf("feedback: record activation: %w", err)
	}
	return res.LastInsertId()
}

// Rate attaches a usefulness score (1..5) and optional note to a logged
// activation.
func (s *Store) Rate(activationID int64, score int, note string) error {
	if score < 1 || score > 5 {
		return fmt.Errorf("feedback: score %d out of range 1..5", score)
	}
	res, err := s.db.Exec(
		`UPDATE activations SET score = ?, note = ? WHERE id = ?`,
		score, note, activationID,
	)
	if err != nil {
		return fmt.Errorf("feedback: rate activation: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("feedback: activation %d not found", activationID)
	}
	return nil
}

// RecentActivations returns the newest records, optionally filtered by
// session.
func (s *Store) RecentActivations(sessionID string, limit int) ([]ActivationRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, session_id, constraint_id, reason, score, note, created_at
		FROM activations
	`
	args := []any{}
	if sessionID != "" {
		query += " WHERE session_id = ?"
		args = append(args, sessionID)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("feedback: recent activations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []ActivationRecord
	for rows.Next() {
		var r ActivationRecord
		if err := rows.Scan(&r.ID, &r.SessionID, &r.ConstraintID, &r.Reason, &r.Score, &r.Note, &r.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Stats aggregates activation counts and average scores per constraint.
func (s *Store) Stats() (*Stats, error) {
	stats := &Stats{}

	_ = s.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&stats.TotalSessions)
	_ = s.db.QueryRow("SELECT COUNT(*) FROM activations").Scan(&stats.TotalActivations)

	rows, err := s.db.Query(`
		SELECT constraint_id,
		       COUNT(*),
		       COUNT(score),
		       AVG(score)
		FROM activations
		GROUP BY constraint_id
		ORDER BY COUNT(*) DESC, constraint_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("feedback: stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var cs ConstraintStats
		if err := rows.Scan(&cs.ConstraintID, &cs.Activations, &cs.Rated, &cs.AverageScore); err != nil {
			return nil, err
		}
		stats.PerConstraint = append(stats.PerConstraint, cs)
	}
	return stats, rows.Err()
}
