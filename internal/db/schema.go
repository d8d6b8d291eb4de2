package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is idempotent; EnsureSchema may run on every boot.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
    user_id    TEXT PRIMARY KEY,
    email      TEXT,
    tier       TEXT NOT NULL DEFAULT 'free',
    credits    INT  NOT NULL DEFAULT 10,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS waitlist (
    id         UUID PRIMARY KEY,
    email      TEXT NOT NULL,
    role       TEXT,
    source     TEXT NOT NULL DEFAULT 'landing',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS waitlist_email_uniq ON waitlist (lower(email))`,
}

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range Schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
