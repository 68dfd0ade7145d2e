// Package service provisions user profiles and keeps their subscription tier
// in step with billing.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"atelier/internal/account/models"
	creditmodels "atelier/internal/credits/models"
	"atelier/internal/entitlement"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
	"atelier/pkg/platform/audit"
	"atelier/pkg/platform/sentinel"
	txcontext "atelier/pkg/platform/tx"
	"atelier/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Credits

type Store interface {
	Get(ctx context.Context, userID id.UserID) (*models.Profile, error)
	CreateIfAbsent(ctx context.Context, p *models.Profile) (*models.Profile, bool, error)
	UpdateSubscription(ctx context.Context, userID id.UserID, sub models.Subscription, now time.Time) (*models.Profile, error)
	UpdateEmail(ctx context.Context, userID id.UserID, email string, now time.Time) error
}

// Credits is the slice of the credit service accounts depend on.
type Credits interface {
	EnsureAccount(ctx context.Context, userID id.UserID, initial int) (*creditmodels.Account, error)
	Balance(ctx context.Context, userID id.UserID) (int, error)
}

type Service struct {
	store          Store
	credits        Credits
	tx             txcontext.Runner
	auditPublisher audit.Emitter
	logger         *slog.Logger
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

// WithTxRunner makes profile creation and the signup grant commit together.
func WithTxRunner(r txcontext.Runner) Option {
	return func(s *Service) {
		s.tx = r
	}
}

func New(store Store, credits Credits, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("profile store is required")
	}
	if credits == nil {
		return nil, fmt.Errorf("credit service is required")
	}
	svc := &Service{store: store, credits: credits, tx: txcontext.NopRunner{}}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Resolve returns the caller's profile, provisioning a free profile and its
// signup credits on first sight.
func (s *Service) Resolve(ctx context.Context, userID id.UserID, email string) (*models.Profile, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "user id is required")
	}
	email = strings.TrimSpace(strings.ToLower(email))
	now := requestcontext.Now(ctx)

	existing, err := s.store.Get(ctx, userID)
	switch {
	case err == nil:
		if email != "" && existing.Email != email {
			if err := s.store.UpdateEmail(ctx, userID, email, now); err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update profile")
			}
			existing.Email = email
		}
		return existing, nil
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}

	free := entitlement.For(id.TierFree)
	var (
		profile *models.Profile
		created bool
	)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		profile, created, err = s.store.CreateIfAbsent(ctx, &models.Profile{
			UserID:             userID,
			Email:              email,
			Tier:               id.TierFree,
			SubscriptionStatus: models.StatusNone,
			CreatedAt:          now,
			UpdatedAt:          now,
		})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create profile")
		}
		if !created {
			return nil
		}
		_, err = s.credits.EnsureAccount(ctx, userID, free.MonthlyCredits)
		return err
	})
	if err != nil {
		return nil, err
	}

	if created {
		audit.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
			UserID:   userID,
			Action:   string(audit.EventProfileCreated),
			Decision: "provisioned",
			Amount:   free.MonthlyCredits,
		}, "tier", id.TierFree)
	}
	return profile, nil
}

// Me returns the profile with its entitlements and current balance.
func (s *Service) Me(ctx context.Context, userID id.UserID, email string) (*models.MeResponse, error) {
	profile, err := s.Resolve(ctx, userID, email)
	if err != nil {
		return nil, err
	}
	balance, err := s.credits.Balance(ctx, userID)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, err
		}
		balance = 0
	}
	return &models.MeResponse{
		Profile:      profile,
		Entitlements: entitlement.For(profile.Tier),
		Credits:      balance,
	}, nil
}

// Tier returns the caller's current tier, provisioning the profile if needed.
func (s *Service) Tier(ctx context.Context, userID id.UserID, email string) (id.Tier, error) {
	p, err := s.Resolve(ctx, userID, email)
	if err != nil {
		return "", err
	}
	return p.Tier, nil
}

// ApplySubscription records a tier change pushed by billing. Users unknown to
// us are provisioned first so webhook ordering does not matter.
func (s *Service) ApplySubscription(ctx context.Context, userID id.UserID, sub models.Subscription) (*models.Profile, error) {
	if !sub.Tier.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown tier")
	}
	if !sub.Status.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown subscription status")
	}
	before, err := s.Resolve(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateSubscription(ctx, userID, sub, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update subscription")
	}

	audit.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
		UserID:   userID,
		Action:   string(audit.EventSubscriptionChanged),
		Decision: string(sub.Status),
		Reason:   fmt.Sprintf("%s->%s", before.Tier, sub.Tier),
		ActorID:  "billing",
	})
	return updated, nil
}
