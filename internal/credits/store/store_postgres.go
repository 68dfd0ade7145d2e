package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"atelier/internal/credits/models"
	id "atelier/pkg/domain"
	"atelier/pkg/platform/sentinel"
	txcontext "atelier/pkg/platform/tx"
)

// PostgresStore keeps balances in credit_accounts and the ledger in
// credit_transactions. Balance changes and their ledger row commit together.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) EnsureAccount(ctx context.Context, userID id.UserID, initial int, now time.Time) (*models.Account, bool, error) {
	var acct *models.Account
	created := false
	err := txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		res, err := s.execer(ctx).ExecContext(ctx, `
			INSERT INTO credit_accounts (user_id, balance, updated_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id) DO NOTHING
		`, uuid.UUID(userID), initial, now)
		if err != nil {
			return fmt.Errorf("insert credit account: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		created = n == 1

		if created && initial > 0 {
			if err := s.insertTransaction(ctx, &models.Transaction{
				ID:           id.NewTransactionID(),
				UserID:       userID,
				Kind:         models.KindGrant,
				Amount:       initial,
				BalanceAfter: initial,
				Reference:    "signup",
				CreatedAt:    now,
			}); err != nil {
				return err
			}
		}

		acct, err = s.Get(ctx, userID)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return acct, created, nil
}

func (s *PostgresStore) Get(ctx context.Context, userID id.UserID) (*models.Account, error) {
	acct := &models.Account{UserID: userID}
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT balance, updated_at FROM credit_accounts WHERE user_id = $1`,
		uuid.UUID(userID),
	).Scan(&acct.Balance, &acct.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get credit account: %w", err)
	}
	return acct, nil
}

// Apply moves the balance by txn.Amount with a guarded update, so concurrent
// deductions can never overdraw, and appends the ledger row.
func (s *PostgresStore) Apply(ctx context.Context, txn *models.Transaction) (*models.Account, error) {
	var acct *models.Account
	err := txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		a := &models.Account{UserID: txn.UserID}
		err := s.execer(ctx).QueryRowContext(ctx, `
			UPDATE credit_accounts
			SET balance = balance + $2, updated_at = $3
			WHERE user_id = $1 AND balance + $2 >= 0
			RETURNING balance, updated_at
		`, uuid.UUID(txn.UserID), txn.Amount, txn.CreatedAt).Scan(&a.Balance, &a.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			if _, getErr := s.Get(ctx, txn.UserID); getErr != nil {
				return getErr
			}
			return sentinel.ErrInsufficient
		}
		if err != nil {
			return fmt.Errorf("update credit balance: %w", err)
		}

		txn.BalanceAfter = a.Balance
		if err := s.insertTransaction(ctx, txn); err != nil {
			return err
		}
		acct = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return acct, nil
}

func (s *PostgresStore) ListTransactions(ctx context.Context, userID id.UserID, limit int) ([]*models.Transaction, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, kind, amount, balance_after, reference, created_at
		FROM credit_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, uuid.UUID(userID), limit)
	if err != nil {
		return nil, fmt.Errorf("list credit transactions: %w", err)
	}
	defer rows.Close()

	var out []*models.Transaction
	for rows.Next() {
		var (
			txID uuid.UUID
			kind string
			t    = &models.Transaction{UserID: userID}
		)
		if err := rows.Scan(&txID, &kind, &t.Amount, &t.BalanceAfter, &t.Reference, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan credit transaction: %w", err)
		}
		t.ID = id.TransactionID(txID)
		t.Kind = models.TransactionKind(kind)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credit transactions: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) insertTransaction(ctx context.Context, t *models.Transaction) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO credit_transactions (id, user_id, kind, amount, balance_after, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.UUID(t.ID), uuid.UUID(t.UserID), string(t.Kind), t.Amount, t.BalanceAfter, t.Reference, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert credit transaction: %w", err)
	}
	return nil
}
