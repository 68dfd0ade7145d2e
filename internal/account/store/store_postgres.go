package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"atelier/internal/account/models"
	id "atelier/pkg/domain"
	"atelier/pkg/platform/sentinel"
	txcontext "atelier/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const profileColumns = `user_id, email, tier, subscription_status, current_period_end, created_at, updated_at`

func (s *PostgresStore) Get(ctx context.Context, userID id.UserID) (*models.Profile, error) {
	p, err := scanProfile(s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, uuid.UUID(userID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) CreateIfAbsent(ctx context.Context, p *models.Profile) (*models.Profile, bool, error) {
	row, err := scanProfile(s.execer(ctx).QueryRowContext(ctx, `
		INSERT INTO profiles (user_id, email, tier, subscription_status, current_period_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING `+profileColumns,
		uuid.UUID(p.UserID), p.Email, string(p.Tier), string(p.SubscriptionStatus), p.CurrentPeriodEnd, p.CreatedAt, p.UpdatedAt,
	))
	if err == nil {
		return row, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("insert profile: %w", err)
	}
	existing, err := s.Get(ctx, p.UserID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (s *PostgresStore) UpdateSubscription(ctx context.Context, userID id.UserID, sub models.Subscription, now time.Time) (*models.Profile, error) {
	p, err := scanProfile(s.execer(ctx).QueryRowContext(ctx, `
		UPDATE profiles
		SET tier = $2, subscription_status = $3, current_period_end = $4, updated_at = $5
		WHERE user_id = $1
		RETURNING `+profileColumns,
		uuid.UUID(userID), string(sub.Tier), string(sub.Status), sub.PeriodEnd, now,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update subscription: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) UpdateEmail(ctx context.Context, userID id.UserID, email string, now time.Time) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE profiles SET email = $2, updated_at = $3 WHERE user_id = $1`,
		uuid.UUID(userID), email, now)
	if err != nil {
		return fmt.Errorf("update profile email: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanProfile(row *sql.Row) (*models.Profile, error) {
	var (
		p         models.Profile
		userID    uuid.UUID
		tier      string
		status    string
		periodEnd sql.NullTime
	)
	if err := row.Scan(&userID, &p.Email, &tier, &status, &periodEnd, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.UserID = id.UserID(userID)
	p.Tier = id.Tier(tier)
	p.SubscriptionStatus = models.SubscriptionStatus(status)
	if periodEnd.Valid {
		t := periodEnd.Time
		p.CurrentPeriodEnd = &t
	}
	return &p, nil
}
