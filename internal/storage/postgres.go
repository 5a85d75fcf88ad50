package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignite/contact-intake/internal/contact"
)

// PostgresStore persists submissions in the contact_submissions table.
// The caller owns the *sql.DB (and the lib/pq driver import).
type PostgresStore struct{ db *sql.DB }

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

// EnsureSchema creates the submissions table and its index if they do
// not exist. Column widths mirror the shared schema caps.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS contact_submissions (
			id UUID PRIMARY KEY,
			name VARCHAR(200) NOT NULL,
			email VARCHAR(320) NOT NULL,
			message VARCHAR(5000) NOT NULL,
			originating_address TEXT,
			created_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create contact_submissions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_contact_submissions_created_at
		ON contact_submissions (created_at DESC)
	`)
	if err != nil {
		return fmt.Errorf("index contact_submissions: %w", err)
	}
	return nil
}

// Create inserts one submission and returns its assigned id.
func (s *PostgresStore) Create(ctx context.Context, sub *contact.Submission) (string, error) {
	if err := checkLimits(sub); err != nil {
		return "", err
	}

	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contact_submissions
			(id, name, email, message, originating_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, sub.Name, sub.Email, sub.Message, sub.OriginatingAddress, sub.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("create submission: %w", err)
	}
	return id, nil
}

// Recent returns up to limit submissions, newest first.
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]contact.Submission, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, message, COALESCE(originating_address,''), created_at
		FROM contact_submissions
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var subs []contact.Submission
	for rows.Next() {
		var sub contact.Submission
		if err := rows.Scan(
			&sub.ID, &sub.Name, &sub.Email, &sub.Message,
			&sub.OriginatingAddress, &sub.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// Available reports whether the database answers a ping.
func (s *PostgresStore) Available(ctx context.Context) bool {
	return s.db.PingContext(ctx) == nil
}

// Name identifies the backend in logs and startup output.
func (s *PostgresStore) Name() string { return "postgres" }
