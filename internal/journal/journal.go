package journal

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"stagehand/internal/config"
)

// Store manages bootstrap history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Session is one recorded bootstrap run.
type Session struct {
	ID         string
	RuntimeDir string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string // "running", "completed", or "failed:<state>"
}

// Launch is one recorded daemon launch attempt.
type Launch struct {
	SessionID string
	Daemon    string
	Stage     string
	PID       int
	Required  bool
	Outcome   string // "launched" or "failed"
	Detail    string
	At        time.Time
}

// Transition is one recorded sequencer state entry.
type Transition struct {
	SessionID string
	State     string
	At        time.Time
}

// Open initializes or connects to the journal database in the log directory
// and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.LogDir, "journal.db"))
}

// OpenPath opens the journal at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) applyMigrations(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
            id TEXT PRIMARY KEY,
            runtime_dir TEXT NOT NULL,
            started_at TEXT NOT NULL,
            finished_at TEXT,
            status TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS transitions (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            session_id TEXT NOT NULL REFERENCES sessions(id),
            state TEXT NOT NULL,
            at TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS launches (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            session_id TEXT NOT NULL REFERENCES sessions(id),
            daemon TEXT NOT NULL,
            stage TEXT NOT NULL,
            pid INTEGER NOT NULL,
            required INTEGER NOT NULL,
            outcome TEXT NOT NULL,
            detail TEXT,
            at TEXT NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_transitions_session ON transitions(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_launches_session ON launches(session_id)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// BeginSession records a new bootstrap run in the "running" state.
func (s *Store) BeginSession(ctx context.Context, id, runtimeDir string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, runtime_dir, started_at, status) VALUES (?, ?, ?, ?)`,
		id, runtimeDir, now(), "running",
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// FinishSession marks the run's terminal status, for example "completed" or
// "failed:DisplayServerLaunched".
func (s *Store) FinishSession(ctx context.Context, id, status string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET finished_at = ?, status = ? WHERE id = ?`,
		now(), status, id,
	)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	return nil
}

// RecordTransition appends a sequencer state entry for the session.
func (s *Store) RecordTransition(ctx context.Context, sessionID, state string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transitions (session_id, state, at) VALUES (?, ?, ?)`,
		sessionID, state, now(),
	)
	if err != nil {
		return fmt.Errorf("insert transition: %w", err)
	}
	return nil
}

// RecordLaunch appends a daemon launch attempt for the session.
func (s *Store) RecordLaunch(ctx context.Context, l Launch) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO launches (session_id, daemon, stage, pid, required, outcome, detail, at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.SessionID, l.Daemon, l.Stage, l.PID, boolInt(l.Required), l.Outcome, l.Detail, now(),
	)
	if err != nil {
		return fmt.Errorf("insert launch: %w", err)
	}
	return nil
}

// Sessions returns the most recent runs, newest first.
func (s *Store) Sessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, runtime_dir, started_at, COALESCE(finished_at, ''), status
         FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var sess Session
		var started, finished string
		if err := rows.Scan(&sess.ID, &sess.RuntimeDir, &started, &finished, &sess.Status); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.StartedAt = parseTime(started)
		sess.FinishedAt = parseTime(finished)
		out = append(out, sess)
	}
	return out, rows.Err()
}

// Launches returns the launch attempts for one session in insert order.
func (s *Store) Launches(ctx context.Context, sessionID string) ([]Launch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, daemon, stage, pid, required, outcome, COALESCE(detail, ''), at
         FROM launches WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query launches: %w", err)
	}
	defer rows.Close()

	var out []Launch
	for rows.Next() {
		var l Launch
		var required int
		var at string
		if err := rows.Scan(&l.SessionID, &l.Daemon, &l.Stage, &l.PID, &required, &l.Outcome, &l.Detail, &at); err != nil {
			return nil, fmt.Errorf("scan launch: %w", err)
		}
		l.Required = required != 0
		l.At = parseTime(at)
		out = append(out, l)
	}
	return out, rows.Err()
}

// Transitions returns the state history for one session in insert order.
func (s *Store) Transitions(ctx context.Context, sessionID string) ([]Transition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, state, at FROM transitions WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	var out []Transition
	for rows.Next() {
		var tr Transition
		var at string
		if err := rows.Scan(&tr.SessionID, &tr.State, &at); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		tr.At = parseTime(at)
		out = append(out, tr)
	}
	return out, rows.Err()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
