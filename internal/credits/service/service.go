// Package service owns credit balances: provisioning, guarded deductions,
// refunds and grants, each recorded in the ledger.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"atelier/internal/credits/metrics"
	"atelier/internal/credits/models"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
	"atelier/pkg/platform/audit"
	"atelier/pkg/platform/sentinel"
	"atelier/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store

type Store interface {
	EnsureAccount(ctx context.Context, userID id.UserID, initial int, now time.Time) (*models.Account, bool, error)
	Get(ctx context.Context, userID id.UserID) (*models.Account, error)
	Apply(ctx context.Context, txn *models.Transaction) (*models.Account, error)
	ListTransactions(ctx context.Context, userID id.UserID, limit int) ([]*models.Transaction, error)
}

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

type Service struct {
	store          Store
	auditPublisher audit.Emitter
	logger         *slog.Logger
	metrics        *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher audit.Emitter) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("credit store is required")
	}
	svc := &Service{store: store}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// EnsureAccount provisions an account holding initial credits on first call.
// Later calls return the existing account untouched.
func (s *Service) EnsureAccount(ctx context.Context, userID id.UserID, initial int) (*models.Account, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}
	if initial < 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "initial credits cannot be negative")
	}
	acct, created, err := s.store.EnsureAccount(ctx, userID, initial, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to provision credit account")
	}
	if created {
		s.metrics.IncAccountsCreated()
		s.metrics.AddMoved(string(models.KindGrant), initial)
		audit.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
			UserID:   userID,
			Action:   string(audit.EventCreditsGranted),
			Decision: "granted",
			Reason:   "signup",
			Amount:   initial,
		})
	}
	return acct, nil
}

func (s *Service) Balance(ctx context.Context, userID id.UserID) (int, error) {
	acct, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return 0, dErrors.New(dErrors.CodeNotFound, "credit account not found")
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read balance")
	}
	return acct.Balance, nil
}

// Deduct charges amount for a generation. It fails with insufficient_credits
// and leaves the balance untouched when the account cannot cover it.
func (s *Service) Deduct(ctx context.Context, userID id.UserID, amount int, reference string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "deduction must be positive")
	}
	txn, err := s.apply(ctx, userID, models.KindGeneration, -amount, reference)
	if err != nil {
		if errors.Is(err, sentinel.ErrInsufficient) {
			s.metrics.IncInsufficient()
			balance, _ := s.Balance(ctx, userID)
			audit.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
				UserID:   userID,
				Action:   string(audit.EventCreditsDeducted),
				Decision: "denied",
				Reason:   "insufficient_credits",
				Amount:   amount,
			}, "balance", balance)
			return nil, dErrors.Wrap(err, dErrors.CodeInsufficientCredits,
				fmt.Sprintf("this generation costs %d credits but only %d remain", amount, balance))
		}
		return nil, err
	}
	audit.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
		UserID:   userID,
		Action:   string(audit.EventCreditsDeducted),
		Decision: "charged",
		Reason:   reference,
		Amount:   amount,
	}, "balance_after", txn.BalanceAfter)
	return txn, nil
}

// Refund returns credits for a failed or partially failed generation.
func (s *Service) Refund(ctx context.Context, userID id.UserID, amount int, reference string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "refund must be positive")
	}
	txn, err := s.apply(ctx, userID, models.KindRefund, amount, reference)
	if err != nil {
		return nil, err
	}
	audit.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
		UserID:   userID,
		Action:   string(audit.EventCreditsRefunded),
		Decision: "refunded",
		Reason:   reference,
		Amount:   amount,
	}, "balance_after", txn.BalanceAfter)
	return txn, nil
}

// Grant adds credits for purchases, subscription renewals and manual
// adjustments.
func (s *Service) Grant(ctx context.Context, userID id.UserID, amount int, kind models.TransactionKind, reference string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "grant must be positive")
	}
	if !kind.IsValid() || !kind.IsCredit() || kind == models.KindRefund {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unsupported grant kind")
	}
	txn, err := s.apply(ctx, userID, kind, amount, reference)
	if err != nil {
		return nil, err
	}
	event := audit.EventCreditsGranted
	if kind == models.KindPurchase {
		event = audit.EventCreditsPurchased
	}
	audit.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
		UserID:   userID,
		Action:   string(event),
		Decision: "granted",
		Reason:   reference,
		Amount:   amount,
		ActorID:  string(kind),
	}, "balance_after", txn.BalanceAfter)
	return txn, nil
}

// History returns the newest ledger rows, bounded by MaxHistoryLimit.
func (s *Service) History(ctx context.Context, userID id.UserID, limit int) ([]*models.Transaction, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, MaxHistoryLimit)
	txns, err := s.store.ListTransactions(ctx, userID, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read credit history")
	}
	if txns == nil {
		txns = []*models.Transaction{}
	}
	return txns, nil
}

func (s *Service) apply(ctx context.Context, userID id.UserID, kind models.TransactionKind, delta int, reference string) (*models.Transaction, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}
	txn := &models.Transaction{
		ID:        id.NewTransactionID(),
		UserID:    userID,
		Kind:      kind,
		Amount:    delta,
		Reference: reference,
		CreatedAt: requestcontext.Now(ctx),
	}
	if _, err := s.store.Apply(ctx, txn); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrInsufficient):
			return nil, err
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "credit account not found")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update credits")
		}
	}
	s.metrics.AddMoved(string(kind), delta)
	return txn, nil
}
