// Package service sells tiers and credit packs and applies the payment
// service's webhooks to accounts and credits.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	accountmodels "atelier/internal/account/models"
	"atelier/internal/billing/metrics"
	"atelier/internal/billing/models"
	creditmodels "atelier/internal/credits/models"
	"atelier/internal/entitlement"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
	"atelier/pkg/platform/audit"
	txcontext "atelier/pkg/platform/tx"
	"atelier/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Checkout,Verifier,EventStore,Accounts,Credits

type Checkout interface {
	CreateSession(ctx context.Context, s models.CheckoutSession) (*models.Session, error)
}

type Verifier interface {
	Verify(header string, body []byte, now time.Time) error
}

type EventStore interface {
	MarkProcessed(ctx context.Context, eventID, eventType string, now time.Time) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

type Accounts interface {
	Resolve(ctx context.Context, userID id.UserID, email string) (*accountmodels.Profile, error)
	ApplySubscription(ctx context.Context, userID id.UserID, sub accountmodels.Subscription) (*accountmodels.Profile, error)
}

type Credits interface {
	Grant(ctx context.Context, userID id.UserID, amount int, kind creditmodels.TransactionKind, reference string) (*creditmodels.Transaction, error)
}

// EventParser decodes a verified webhook body.
type EventParser func(body []byte) (*models.Event, error)

type Service struct {
	checkout       Checkout
	verifier       Verifier
	parse          EventParser
	events         EventStore
	accounts       Accounts
	credits        Credits
	tx             txcontext.Runner
	successURL     string
	cancelURL      string
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

func WithTxRunner(r txcontext.Runner) Option {
	return func(s *Service) {
		if r != nil {
			s.tx = r
		}
	}
}

// WithRedirects sets where checkout returns the user.
func WithRedirects(successURL, cancelURL string) Option {
	return func(s *Service) {
		s.successURL = successURL
		s.cancelURL = cancelURL
	}
}

func New(checkout Checkout, verifier Verifier, parse EventParser, events EventStore, accounts Accounts, credits Credits, opts ...Option) (*Service, error) {
	switch {
	case checkout == nil:
		return nil, fmt.Errorf("checkout client is required")
	case verifier == nil:
		return nil, fmt.Errorf("webhook verifier is required")
	case parse == nil:
		return nil, fmt.Errorf("event parser is required")
	case events == nil:
		return nil, fmt.Errorf("billing event store is required")
	case accounts == nil:
		return nil, fmt.Errorf("account service is required")
	case credits == nil:
		return nil, fmt.Errorf("credit service is required")
	}
	svc := &Service{
		checkout: checkout,
		verifier: verifier,
		parse:    parse,
		events:   events,
		accounts: accounts,
		credits:  credits,
		tx:       txcontext.NopRunner{},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Tiers lists every tier with its entitlements and price, plus credit packs.
func (s *Service) Tiers() *models.TiersResponse {
	resp := &models.TiersResponse{}
	for _, limits := range entitlement.Catalog() {
		offer := models.TierOffer{Limits: limits}
		if p, ok := models.SubscriptionFor(limits.Tier); ok {
			offer.ProductID = p.ID
			offer.PriceCents = p.PriceCents
			offer.Currency = p.Currency
		}
		resp.Tiers = append(resp.Tiers, offer)
	}
	for _, p := range models.Catalog() {
		if p.Kind == models.KindCreditPack {
			resp.Packs = append(resp.Packs, p)
		}
	}
	return resp
}

func (s *Service) CreateCheckout(ctx context.Context, userID id.UserID, email, productID string) (*models.CheckoutResponse, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "sign in required")
	}
	product, ok := models.ProductByID(productID)
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown product %q", productID))
	}

	session, err := s.checkout.CreateSession(ctx, models.CheckoutSession{
		UserID:     userID,
		Email:      email,
		Product:    product,
		SuccessURL: s.successURL,
		CancelURL:  s.cancelURL,
	})
	if err != nil {
		if dErrors.GetCode(err) == dErrors.CodeInternal && s.logger != nil {
			s.logger.ErrorContext(ctx, "checkout session failed", "product", product.ID, "error", err)
		}
		return nil, err
	}

	s.metrics.IncCheckout(product.ID)
	audit.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
		UserID:   userID,
		Subject:  session.ID,
		Action:   string(audit.EventCheckoutCreated),
		Decision: "created",
		Reason:   product.ID,
		Amount:   product.PriceCents,
	})
	return &models.CheckoutResponse{SessionID: session.ID, URL: session.URL}, nil
}

// HandleWebhook authenticates and applies one payment event. Redeliveries of
// an applied event report duplicate and change nothing.
func (s *Service) HandleWebhook(ctx context.Context, signature string, body []byte) (*models.WebhookResponse, error) {
	now := requestcontext.Now(ctx)
	if err := s.verifier.Verify(signature, body, now); err != nil {
		s.metrics.IncWebhook("", "rejected")
		audit.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
			Action:   string(audit.EventWebhookRejected),
			Decision: "rejected",
			Reason:   err.Error(),
		})
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid webhook signature")
	}

	ev, err := s.parse(body)
	if err != nil {
		s.metrics.IncWebhook("", "invalid")
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid webhook payload")
	}

	duplicate := false
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		first, err := s.events.MarkProcessed(ctx, ev.ID, string(ev.Type), now)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record webhook")
		}
		if !first {
			duplicate = true
			return nil
		}
		return s.apply(ctx, ev)
	})
	if err != nil {
		if forgetErr := s.events.Forget(ctx, ev.ID); forgetErr != nil && s.logger != nil {
			s.logger.ErrorContext(ctx, "failed to release webhook event", "event_id", ev.ID, "error", forgetErr)
		}
		s.metrics.IncWebhook(string(ev.Type), "failed")
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "webhook processing failed", "event_id", ev.ID, "type", ev.Type, "error", err)
		}
		return nil, err
	}

	outcome := "applied"
	if duplicate {
		outcome = "duplicate"
	}
	s.metrics.IncWebhook(string(ev.Type), outcome)
	audit.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
		UserID:   ev.UserID,
		Subject:  ev.ID,
		Action:   string(audit.EventWebhookProcessed),
		Decision: outcome,
		Reason:   string(ev.Type),
		ActorID:  "billing",
	})
	return &models.WebhookResponse{Received: true, Duplicate: duplicate}, nil
}

func (s *Service) apply(ctx context.Context, ev *models.Event) error {
	switch ev.Type {
	case models.EventCheckoutCompleted:
		return s.checkoutCompleted(ctx, ev)
	case models.EventSubscriptionUpdated:
		return s.subscriptionUpdated(ctx, ev)
	case models.EventSubscriptionCanceled:
		if err := requireUser(ev); err != nil {
			return err
		}
		_, err := s.accounts.ApplySubscription(ctx, ev.UserID, accountmodels.Subscription{
			Tier:   id.TierFree,
			Status: accountmodels.StatusCanceled,
		})
		return err
	case models.EventInvoicePaid:
		return s.invoicePaid(ctx, ev)
	default:
		// Acknowledged so the payment service stops retrying.
		if s.logger != nil {
			s.logger.InfoContext(ctx, "ignoring webhook event", "event_id", ev.ID, "type", ev.Type)
		}
		return nil
	}
}

func (s *Service) checkoutCompleted(ctx context.Context, ev *models.Event) error {
	if err := requireUser(ev); err != nil {
		return err
	}
	product, ok := models.ProductByID(ev.ProductID)
	if !ok {
		return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown product %q", ev.ProductID))
	}
	if product.Kind == models.KindSubscription {
		_, err := s.accounts.ApplySubscription(ctx, ev.UserID, accountmodels.Subscription{
			Tier:      product.Tier,
			Status:    accountmodels.StatusActive,
			PeriodEnd: ev.PeriodEnd,
		})
		return err
	}
	if _, err := s.accounts.Resolve(ctx, ev.UserID, ""); err != nil {
		return err
	}
	_, err := s.credits.Grant(ctx, ev.UserID, product.Credits, creditmodels.KindPurchase, "checkout:"+ev.ID)
	return err
}

func (s *Service) subscriptionUpdated(ctx context.Context, ev *models.Event) error {
	if err := requireUser(ev); err != nil {
		return err
	}
	tier, err := eventTier(ev)
	if err != nil {
		return err
	}
	status := accountmodels.SubscriptionStatus(ev.Status)
	if status == "" {
		status = accountmodels.StatusActive
	}
	if status == accountmodels.StatusCanceled {
		tier = id.TierFree
	}
	_, err = s.accounts.ApplySubscription(ctx, ev.UserID, accountmodels.Subscription{
		Tier:      tier,
		Status:    status,
		PeriodEnd: ev.PeriodEnd,
	})
	return err
}

// invoicePaid grants the tier's monthly credits for a renewed period.
func (s *Service) invoicePaid(ctx context.Context, ev *models.Event) error {
	if err := requireUser(ev); err != nil {
		return err
	}
	tier, err := eventTier(ev)
	if err != nil {
		return err
	}
	if _, err := s.accounts.Resolve(ctx, ev.UserID, ""); err != nil {
		return err
	}
	amount := entitlement.For(tier).MonthlyCredits
	_, err = s.credits.Grant(ctx, ev.UserID, amount, creditmodels.KindSubscription, "invoice:"+ev.ID)
	return err
}

func requireUser(ev *models.Event) error {
	if ev.UserID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("%s event %s has no user", ev.Type, ev.ID))
	}
	return nil
}

// eventTier prefers the explicit tier and falls back to the product.
func eventTier(ev *models.Event) (id.Tier, error) {
	if ev.Tier.IsValid() {
		return ev.Tier, nil
	}
	if p, ok := models.ProductByID(ev.ProductID); ok && p.Kind == models.KindSubscription {
		return p.Tier, nil
	}
	return "", dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("%s event %s names no paid tier", ev.Type, ev.ID))
}
