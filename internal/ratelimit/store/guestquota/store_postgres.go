package guestquota

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"atelier/internal/ratelimit/models"
)

// PostgresStore persists guest rows in the guest_quota table. Consume is a
// single upsert so concurrent requests for one key serialize on the row lock.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// The WHERE clause on the conflict branch makes the update a no-op once the
// limit is reached inside a live window; RETURNING then yields no row.
const consumeQuery = `
	INSERT INTO guest_quota (ip_key, used, window_start, last_used_at)
	VALUES ($1, 1, $2, $2)
	ON CONFLICT (ip_key) DO UPDATE SET
		used = CASE WHEN guest_quota.window_start <= $4 THEN 1 ELSE guest_quota.used + 1 END,
		window_start = CASE WHEN guest_quota.window_start <= $4 THEN $2 ELSE guest_quota.window_start END,
		last_used_at = $2
	WHERE guest_quota.used < $3 OR guest_quota.window_start <= $4
	RETURNING ip_key, used, window_start, last_used_at
`

func (s *PostgresStore) Consume(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (*models.GuestQuota, bool, error) {
	cutoff := now.Add(-window)
	row, err := scanQuota(s.db.QueryRowContext(ctx, consumeQuery, key, now, limit, cutoff))
	if err == nil {
		return row, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("consume guest quota: %w", err)
	}

	row, err = s.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	return row, false, nil
}

func (s *PostgresStore) Release(ctx context.Context, key string) (*models.GuestQuota, error) {
	query := `
		UPDATE guest_quota SET used = GREATEST(used - 1, 0)
		WHERE ip_key = $1
		RETURNING ip_key, used, window_start, last_used_at
	`
	row, err := scanQuota(s.db.QueryRowContext(ctx, query, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("release guest quota: %w", err)
	}
	return row, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (*models.GuestQuota, error) {
	query := `SELECT ip_key, used, window_start, last_used_at FROM guest_quota WHERE ip_key = $1`
	row, err := scanQuota(s.db.QueryRowContext(ctx, query, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get guest quota: %w", err)
	}
	return row, nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM guest_quota WHERE ip_key = $1`, key); err != nil {
		return fmt.Errorf("delete guest quota: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.GuestQuota, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ip_key, used, window_start, last_used_at
		FROM guest_quota
		ORDER BY last_used_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list guest quota: %w", err)
	}
	defer rows.Close()

	var out []*models.GuestQuota
	for rows.Next() {
		row, err := scanQuota(rows)
		if err != nil {
			return nil, fmt.Errorf("scan guest quota: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate guest quota: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM guest_quota WHERE window_start <= $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired guest quota: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuota(row scanner) (*models.GuestQuota, error) {
	var q models.GuestQuota
	if err := row.Scan(&q.IPKey, &q.Used, &q.WindowStart, &q.LastUsedAt); err != nil {
		return nil, err
	}
	return &q, nil
}
