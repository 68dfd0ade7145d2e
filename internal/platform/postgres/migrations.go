package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	txcontext "atelier/pkg/platform/tx"
)

// Migration is one forward-only schema step.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Migrations is the ordered schema history. Append only.
var Migrations = []Migration{
	{
		Version: 1,
		Name:    "guest_quota",
		SQL: `CREATE TABLE IF NOT EXISTS guest_quota (
	ip_key       TEXT PRIMARY KEY,
	used         INTEGER NOT NULL DEFAULT 0 CHECK (used >= 0),
	window_start TIMESTAMPTZ NOT NULL,
	last_used_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS guest_quota_window_start_idx ON guest_quota (window_start);`,
	},
	{
		Version: 2,
		Name:    "profiles",
		SQL: `CREATE TABLE IF NOT EXISTS profiles (
	user_id             UUID PRIMARY KEY,
	email               TEXT NOT NULL DEFAULT '',
	tier                TEXT NOT NULL DEFAULT 'free',
	subscription_status TEXT NOT NULL DEFAULT 'none',
	current_period_end  TIMESTAMPTZ,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Version: 3,
		Name:    "credits",
		SQL: `CREATE TABLE IF NOT EXISTS credit_accounts (
	user_id    UUID PRIMARY KEY,
	balance    INTEGER NOT NULL DEFAULT 0 CHECK (balance >= 0),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS credit_transactions (
	id            UUID PRIMARY KEY,
	user_id       UUID NOT NULL REFERENCES credit_accounts (user_id),
	kind          TEXT NOT NULL,
	amount        INTEGER NOT NULL,
	balance_after INTEGER NOT NULL,
	reference     TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS credit_transactions_user_idx ON credit_transactions (user_id, created_at DESC);`,
	},
	{
		Version: 4,
		Name:    "archive_images",
		SQL: `CREATE TABLE IF NOT EXISTS archive_images (
	id         UUID PRIMARY KEY,
	user_id    UUID NOT NULL,
	image_data TEXT NOT NULL,
	mime_type  TEXT NOT NULL,
	prompt     TEXT NOT NULL DEFAULT '',
	config     JSONB NOT NULL DEFAULT '{}',
	tags       TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS archive_images_user_idx ON archive_images (user_id, created_at DESC);`,
	},
	{
		Version: 5,
		Name:    "billing_events",
		SQL: `CREATE TABLE IF NOT EXISTS billing_events (
	event_id     TEXT PRIMARY KEY,
	event_type   TEXT NOT NULL,
	processed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Version: 6,
		Name:    "audit_events",
		SQL: `CREATE TABLE IF NOT EXISTS audit_events (
	id          UUID PRIMARY KEY,
	category    TEXT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	user_id     UUID,
	subject     TEXT NOT NULL DEFAULT '',
	action      TEXT NOT NULL,
	decision    TEXT NOT NULL DEFAULT '',
	reason      TEXT NOT NULL DEFAULT '',
	amount      INTEGER NOT NULL DEFAULT 0,
	request_id  TEXT NOT NULL DEFAULT '',
	actor_id    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS audit_events_user_idx ON audit_events (user_id, occurred_at DESC);`,
	},
}

const createVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version    INTEGER PRIMARY KEY,
	name       TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Apply runs every migration newer than the recorded schema version, each in
// its own transaction. It returns the number of migrations applied.
func Apply(ctx context.Context, db *sql.DB, logger *slog.Logger) (int, error) {
	if _, err := db.ExecContext(ctx, createVersionTable); err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}

	applied := 0
	for _, m := range Migrations {
		if m.Version <= current {
			continue
		}
		err := txcontext.Run(ctx, db, func(ctx context.Context) error {
			tx, _ := txcontext.From(ctx)
			if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.Version, m.Name)
			return err
		})
		if err != nil {
			return applied, fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
		}
		applied++
		if logger != nil {
			logger.InfoContext(ctx, "migration applied", "version", m.Version, "name", m.Name)
		}
	}
	return applied, nil
}
