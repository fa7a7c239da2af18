package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS chat_messages (
		id           TEXT PRIMARY KEY,
		room_id      TEXT        NOT NULL,
		sender_id    TEXT        NOT NULL,
		display_name TEXT        NOT NULL,
		text         TEXT        NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS chat_messages_room_created_idx
		ON chat_messages (room_id, created_at DESC, id DESC)`,
	`CREATE TABLE IF NOT EXISTS room_sessions (
		session_id        TEXT PRIMARY KEY,
		room_id           TEXT        NOT NULL,
		code              TEXT        NOT NULL,
		language          TEXT        NOT NULL,
		participant_count INT         NOT NULL,
		created_at        TIMESTAMPTZ NOT NULL,
		closed_at         TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS room_sessions_room_idx ON room_sessions (room_id)`,
}

// Migrate creates the archive tables if they are missing.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i, err)
		}
	}
	return nil
}
