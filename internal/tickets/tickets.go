// Package tickets is the moderation queue: suggested corrections wait here as
// pending tickets until a moderator approves or rejects them. The retrieval
// core never imports this package; moderation drives the core, not the other
// way around.
package tickets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/faqline/faqline/internal/faqerr"
)

// Ticket statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// ErrNotFound is returned when no ticket matches the given token.
var ErrNotFound = errors.New("ticket not found")

// Ticket is one suggested correction awaiting moderation.
type Ticket struct {
	ID           int64
	Token        string
	Question     string
	OldAnswer    string
	EditedAnswer string
	Note         string
	Status       string
	SuggestedBy  string
	CreatedAt    time.Time
	ResolvedAt   *time.Time
}

// Stats counts tickets per status.
type Stats struct {
	Pending  int
	Approved int
	Rejected int
}

// Store persists moderation tickets in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the ticket database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open ticket database: %w", err)
	}

	// Single writer keeps SQLite lock contention out of the picture.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// WAL must be set via PRAGMA; modernc.org/sqlite may ignore DSN params.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize ticket schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tickets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		token TEXT NOT NULL UNIQUE,
		question TEXT NOT NULL,
		old_answer TEXT NOT NULL DEFAULT '',
		edited_answer TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		suggested_by TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		resolved_at TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(status, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Submit files a new pending ticket and returns it with its generated token.
func (s *Store) Submit(ctx context.Context, question, oldAnswer, editedAnswer, note, suggestedBy string) (*Ticket, error) {
	if question == "" {
		return nil, faqerr.Validationf("ticket question must not be empty")
	}
	if editedAnswer == "" {
		return nil, faqerr.Validationf("ticket edited answer must not be empty")
	}

	t := &Ticket{
		Token:        uuid.NewString(),
		Question:     question,
		OldAnswer:    oldAnswer,
		EditedAnswer: editedAnswer,
		Note:         note,
		Status:       StatusPending,
		SuggestedBy:  suggestedBy,
		CreatedAt:    time.Now().UTC(),
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tickets (token, question, old_answer, edited_answer, note, status, suggested_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Token, t.Question, t.OldAnswer, t.EditedAnswer, t.Note, t.Status, t.SuggestedBy, t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert ticket: %w", err)
	}
	t.ID, _ = res.LastInsertId()
	return t, nil
}

// Pending returns unresolved tickets oldest first.
func (s *Store) Pending(ctx context.Context) ([]Ticket, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, token, question, old_answer, edited_answer, note, status, suggested_by, created_at, resolved_at
		FROM tickets WHERE status = ? ORDER BY created_at, id`, StatusPending)
	if err != nil {
		return nil, fmt.Errorf("query pending tickets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Get returns the ticket with the given token.
func (s *Store) Get(ctx context.Context, token string) (*Ticket, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, token, question, old_answer, edited_answer, note, status, suggested_by, created_at, resolved_at
		FROM tickets WHERE token = ?`, token)
	t, err := scanTicket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Resolve flips a pending ticket to approved or rejected. A ticket already
// resolved stays as it is and the call fails.
func (s *Store) Resolve(ctx context.Context, token, status string) (*Ticket, error) {
	if status != StatusApproved && status != StatusRejected {
		return nil, faqerr.Validationf("invalid resolution status %q", status)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE tickets SET status = ?, resolved_at = ? WHERE token = ? AND status = ?`,
		status, now, token, StatusPending)
	if err != nil {
		return nil, fmt.Errorf("resolve ticket: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("resolve ticket: %w", err)
	}
	if n == 0 {
		if _, err := s.Get(ctx, token); err != nil {
			return nil, err
		}
		return nil, faqerr.Validationf("ticket %s is not pending", token)
	}
	return s.Get(ctx, token)
}

// Stats counts tickets per status.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM tickets GROUP BY status`)
	if err != nil {
		return Stats{}, fmt.Errorf("query ticket stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var st Stats
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, err
		}
		switch status {
		case StatusPending:
			st.Pending = count
		case StatusApproved:
			st.Approved = count
		case StatusRejected:
			st.Rejected = count
		}
	}
	return st, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTicket(sc scanner) (Ticket, error) {
	var t Ticket
	var resolved sql.NullTime
	err := sc.Scan(&t.ID, &t.Token, &t.Question, &t.OldAnswer, &t.EditedAnswer,
		&t.Note, &t.Status, &t.SuggestedBy, &t.CreatedAt, &resolved)
	if err != nil {
		return Ticket{}, err
	}
	if resolved.Valid {
		t.ResolvedAt = &resolved.Time
	}
	return t, nil
}
