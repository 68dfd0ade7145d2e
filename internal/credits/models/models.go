package models

import (
	"time"

	id "atelier/pkg/domain"
)

// TransactionKind classifies a ledger row.
type TransactionKind string

const (
	KindGrant        TransactionKind = "grant"
	KindPurchase     TransactionKind = "purchase"
	KindGeneration   TransactionKind = "generation"
	KindRefund       TransactionKind = "refund"
	KindSubscription TransactionKind = "subscription"
	KindAdjustment   TransactionKind = "adjustment"
)

func (k TransactionKind) IsValid() bool {
	switch k {
	case KindGrant, KindPurchase, KindGeneration, KindRefund, KindSubscription, KindAdjustment:
		return true
	}
	return false
}

// IsCredit reports whether the kind adds to a balance.
func (k TransactionKind) IsCredit() bool {
	return k != KindGeneration
}

// Account is a user's current credit balance. Balance is never negative.
type Account struct {
	UserID    id.UserID `json:"user_id"`
	Balance   int       `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transaction is an append-only ledger row. Amount is signed: deductions are
// negative.
type Transaction struct {
	ID           id.TransactionID `json:"id"`
	UserID       id.UserID        `json:"user_id"`
	Kind         TransactionKind  `json:"kind"`
	Amount       int              `json:"amount"`
	BalanceAfter int              `json:"balance_after"`
	Reference    string           `json:"reference,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// BalanceResponse is the body of GET /api/credits.
type BalanceResponse struct {
	Balance int `json:"balance"`
}

// HistoryResponse is the body of GET /api/credits/history.
type HistoryResponse struct {
	Balance      int            `json:"balance"`
	Transactions []*Transaction `json:"transactions"`
}
