// Package service holds the operator actions behind the /admin routes.
package service

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"

	"atelier/internal/admin/models"
	creditmodels "atelier/internal/credits/models"
	rlmodels "atelier/internal/ratelimit/models"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Credits,GuestQuota

// Credits is the ledger write used for manual adjustments.
type Credits interface {
	Grant(ctx context.Context, userID id.UserID, amount int, kind creditmodels.TransactionKind, reference string) (*creditmodels.Transaction, error)
}

// GuestQuota is the operator view of the anonymous allowance.
type GuestQuota interface {
	List(ctx context.Context) ([]rlmodels.GuestQuotaEntry, error)
	Reset(ctx context.Context, ip string) error
	ResetKey(ctx context.Context, key string) error
}

type Service struct {
	credits Credits
	guests  GuestQuota
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(credits Credits, guests GuestQuota, opts ...Option) (*Service, error) {
	if credits == nil {
		return nil, errors.New("credits service is required")
	}
	if guests == nil {
		return nil, errors.New("guest quota service is required")
	}
	s := &Service{credits: credits, guests: guests}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GrantCredits records a manual adjustment. The reason lands in the ledger
// reference so support can trace it later.
func (s *Service) GrantCredits(ctx context.Context, req models.GrantRequest) (*creditmodels.Transaction, error) {
	userID, err := id.ParseUserID(strings.TrimSpace(req.UserID))
	if err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "amount must be positive")
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "reason is required")
	}
	if len(reason) > models.MaxReasonLength {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "reason is too long")
	}
	txn, err := s.credits.Grant(ctx, userID, req.Amount, creditmodels.KindAdjustment, "admin:"+reason)
	if err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "manual credit grant",
			"user_id", userID.String(),
			"amount", req.Amount,
			"balance_after", txn.BalanceAfter,
		)
	}
	return txn, nil
}

func (s *Service) ListGuestQuota(ctx context.Context) ([]rlmodels.GuestQuotaEntry, error) {
	return s.guests.List(ctx)
}

// ResetGuestQuota accepts either a raw client address or a pseudonymized key
// copied from ListGuestQuota.
func (s *Service) ResetGuestQuota(ctx context.Context, target string) error {
	target = strings.TrimSpace(target)
	if target == "" {
		return dErrors.New(dErrors.CodeBadRequest, "address or key is required")
	}
	if net.ParseIP(target) != nil {
		return s.guests.Reset(ctx, target)
	}
	return s.guests.ResetKey(ctx, target)
}
