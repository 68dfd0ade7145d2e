package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	txcontext "atelier/pkg/platform/tx"
)

// PostgresStore uses billing_events. Marking inside the caller's transaction
// makes the mark and the resulting ledger writes commit together.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) MarkProcessed(ctx context.Context, eventID, eventType string, now time.Time) (bool, error) {
	res, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO billing_events (event_id, event_type, processed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id) DO NOTHING
	`, eventID, eventType, now)
	if err != nil {
		return false, fmt.Errorf("mark billing event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func (s *PostgresStore) Forget(ctx context.Context, eventID string) error {
	if _, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM billing_events WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("forget billing event: %w", err)
	}
	return nil
}
