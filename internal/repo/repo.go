// Package repo is an optional Postgres audit trail of users and message
// traffic. It records what passed through the bot; it is not a state store
// and restores nothing on restart.
package repo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository wraps a pgx pool. Callers tolerate a nil *Repository, so the
// bot runs without a database entirely.
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New connects to Postgres and ensures the audit tables exist.
func New(ctx context.Context, databaseURL string, logger *slog.Logger) (*Repository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgx ping: %w", err)
	}
	r := &Repository{pool: pool, logger: logger.With("component", "repo")}
	if err := r.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repository) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	wa_jid TEXT UNIQUE NOT NULL,
	display_name TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS messages (
	id UUID PRIMARY KEY,
	user_id UUID REFERENCES users(id),
	chat_jid TEXT NOT NULL,
	direction TEXT NOT NULL,
	kind TEXT NOT NULL,
	content TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`
	if _, err := r.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// User is an audited sender.
type User struct {
	ID          uuid.UUID
	WAJID       string
	DisplayName *string
}

// UpsertUserByWA records a sender by WhatsApp JID, updating the display
// name when a non-empty one is seen.
func (r *Repository) UpsertUserByWA(ctx context.Context, waJID, displayName string) (*User, error) {
	var name *string
	if trimmed := strings.TrimSpace(displayName); trimmed != "" {
		name = &trimmed
	}
	user := User{ID: uuid.New(), WAJID: waJID, DisplayName: name}
	const q = `
INSERT INTO users (id, wa_jid, display_name)
VALUES ($1, $2, $3)
ON CONFLICT (wa_jid) DO UPDATE
SET display_name = COALESCE(EXCLUDED.display_name, users.display_name)
RETURNING id, display_name`
	if err := r.pool.QueryRow(ctx, q, user.ID, user.WAJID, user.DisplayName).Scan(&user.ID, &user.DisplayName); err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return &user, nil
}

// MessageRecord is one audited message.
type MessageRecord struct {
	UserID    uuid.UUID
	ChatJID   string
	Direction string
	Kind      string
	Content   string
}

// InsertMessage appends a message to the audit log.
func (r *Repository) InsertMessage(ctx context.Context, rec MessageRecord) error {
	const q = `
INSERT INTO messages (id, user_id, chat_jid, direction, kind, content)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))`
	if _, err := r.pool.Exec(ctx, q, uuid.New(), rec.UserID, rec.ChatJID, rec.Direction, rec.Kind, rec.Content); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// Close releases the pool.
func (r *Repository) Close() {
	r.pool.Close()
}
