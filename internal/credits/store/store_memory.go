// Package store persists credit accounts and their ledger.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"atelier/internal/credits/models"
	id "atelier/pkg/domain"
	"atelier/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu       sync.Mutex
	accounts map[id.UserID]*models.Account
	ledger   map[id.UserID][]*models.Transaction
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		accounts: make(map[id.UserID]*models.Account),
		ledger:   make(map[id.UserID][]*models.Transaction),
	}
}

func (s *InMemoryStore) EnsureAccount(_ context.Context, userID id.UserID, initial int, now time.Time) (*models.Account, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if acct, ok := s.accounts[userID]; ok {
		out := *acct
		return &out, false, nil
	}
	acct := &models.Account{UserID: userID, Balance: initial, UpdatedAt: now}
	s.accounts[userID] = acct
	if initial > 0 {
		s.ledger[userID] = append(s.ledger[userID], &models.Transaction{
			ID:           id.NewTransactionID(),
			UserID:       userID,
			Kind:         models.KindGrant,
			Amount:       initial,
			BalanceAfter: initial,
			Reference:    "signup",
			CreatedAt:    now,
		})
	}
	out := *acct
	return &out, true, nil
}

func (s *InMemoryStore) Get(_ context.Context, userID id.UserID) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *acct
	return &out, nil
}

// Apply adds txn.Amount to the balance and records txn, refusing to go below
// zero.
func (s *InMemoryStore) Apply(_ context.Context, txn *models.Transaction) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[txn.UserID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if acct.Balance+txn.Amount < 0 {
		return nil, sentinel.ErrInsufficient
	}
	acct.Balance += txn.Amount
	acct.UpdatedAt = txn.CreatedAt

	row := *txn
	row.BalanceAfter = acct.Balance
	txn.BalanceAfter = acct.Balance
	s.ledger[txn.UserID] = append(s.ledger[txn.UserID], &row)

	out := *acct
	return &out, nil
}

// ListTransactions returns the newest limit rows.
func (s *InMemoryStore) ListTransactions(_ context.Context, userID id.UserID, limit int) ([]*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.ledger[userID]
	out := make([]*models.Transaction, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		cp := *rows[i]
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
