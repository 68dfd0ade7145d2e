// Package service runs the credit-gated generation pipeline: validate,
// authorize, charge, call the image model, and refund what failed.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	creditmodels "atelier/internal/credits/models"
	"atelier/internal/entitlement"
	"atelier/internal/generation/metrics"
	"atelier/internal/generation/models"
	"atelier/internal/imagegen"
	rlmodels "atelier/internal/ratelimit/models"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
	"atelier/pkg/platform/audit"
	"atelier/pkg/platform/privacy"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Accounts,Credits,GuestQuota

// Accounts resolves a signed-in caller's tier.
type Accounts interface {
	Tier(ctx context.Context, userID id.UserID, email string) (id.Tier, error)
}

type Credits interface {
	Deduct(ctx context.Context, userID id.UserID, amount int, reference string) (*creditmodels.Transaction, error)
	Refund(ctx context.Context, userID id.UserID, amount int, reference string) (*creditmodels.Transaction, error)
	Balance(ctx context.Context, userID id.UserID) (int, error)
}

// GuestQuota meters anonymous callers by client IP.
type GuestQuota interface {
	ScreenClient(ctx context.Context, ip, userAgent string) error
	Consume(ctx context.Context, ip string) (*rlmodels.Decision, error)
	Release(ctx context.Context, ip string) *rlmodels.Decision
	Status(ctx context.Context, ip string) (*rlmodels.Decision, error)
}

const DefaultConcurrency = 4

// settleTimeout bounds refunds and releases, which run detached from the
// request so a disconnecting client still gets its credits back.
const settleTimeout = 5 * time.Second

var errEmptyImage = fmt.Errorf("image provider returned no image")

type Service struct {
	accounts       Accounts
	credits        Credits
	guests         GuestQuota
	provider       imagegen.Provider
	concurrency    int
	tracer         trace.Tracer
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

// WithConcurrency bounds parallel provider calls within one request.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func New(accounts Accounts, credits Credits, guests GuestQuota, provider imagegen.Provider, opts ...Option) (*Service, error) {
	switch {
	case accounts == nil:
		return nil, fmt.Errorf("account service is required")
	case credits == nil:
		return nil, fmt.Errorf("credit service is required")
	case guests == nil:
		return nil, fmt.Errorf("guest quota service is required")
	case provider == nil:
		return nil, fmt.Errorf("image provider is required")
	}
	svc := &Service{
		accounts:    accounts,
		credits:     credits,
		guests:      guests,
		provider:    provider,
		concurrency: DefaultConcurrency,
		tracer:      otel.Tracer("atelier/generation"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Generate produces cfg.ImageCount images for the caller. Guests spend one
// unit of their IP allowance; users are charged the full cost up front and
// refunded for images the provider failed to return.
func (s *Service) Generate(ctx context.Context, caller models.Caller, cfg models.Config) (result *models.GenerateResult, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "generation.Generate", trace.WithAttributes(
		attribute.Bool("caller.guest", caller.IsGuest()),
	))
	defer func() {
		outcome := "ok"
		switch {
		case err != nil:
			outcome = string(dErrors.GetCode(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		case result.Failed > 0:
			outcome = "partial"
		}
		s.metrics.ObserveRequest(callerLabel(caller), outcome, time.Since(start))
		span.End()
	}()

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tier, err := s.authorize(ctx, caller, cfg)
	if err != nil {
		return nil, err
	}
	cost := models.CalculateCost(cfg)
	perImage := models.PerImageCost(cfg)
	reference := "generation:" + uuid.NewString()
	span.SetAttributes(
		attribute.String("tier", string(tier)),
		attribute.Int("image_count", cfg.ImageCount),
		attribute.Int("cost", cost),
		attribute.String("resolution", string(cfg.Resolution)),
	)

	charge, err := s.charge(ctx, caller, cost, reference)
	if err != nil {
		return nil, err
	}

	prompt := models.BuildPrompt(cfg)
	images, firstErr := s.render(ctx, prompt, cfg)
	failed := cfg.ImageCount - len(images)
	s.metrics.AddImages(len(images), failed)

	settleCtx, cancel := settleContext(ctx)
	defer cancel()

	if len(images) == 0 {
		s.settleFailure(settleCtx, caller, charge, cost, reference, firstErr)
		return nil, imagegen.ToDomainError(firstErr)
	}

	result = &models.GenerateResult{
		Images:         images,
		Prompt:         prompt,
		Requested:      cfg.ImageCount,
		Failed:         failed,
		CreditsCharged: cost,
	}
	if caller.IsGuest() {
		result.CreditsCharged = 0
		result.Guest = allowance(charge.decision)
	} else {
		balance := charge.txn.BalanceAfter
		if failed > 0 {
			refund := failed * perImage
			if txn := s.refund(settleCtx, caller.UserID, refund, reference); txn != nil {
				balance = txn.BalanceAfter
				result.CreditsCharged = cost - refund
			}
		}
		result.RemainingCredits = &balance
		s.metrics.AddCredits(result.CreditsCharged, cost-result.CreditsCharged)
	}

	audit.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
		UserID:   caller.UserID,
		Subject:  s.subject(caller),
		Action:   string(audit.EventGenerationCompleted),
		Decision: "completed",
		Reason:   reference,
		Amount:   result.CreditsCharged,
	}, "images", len(images), "failed", failed, "tier", tier)
	return result, nil
}

// Quote previews cost and entitlement for cfg without charging anything.
// Entitlement failures are reported in the quote rather than as errors.
func (s *Service) Quote(ctx context.Context, caller models.Caller, cfg models.Config) (*models.Quote, error) {
	ctx, span := s.tracer.Start(ctx, "generation.Quote")
	defer span.End()

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	q := &models.Quote{
		Cost:         models.CalculateCost(cfg),
		PerImageCost: models.PerImageCost(cfg),
		Allowed:      true,
	}

	var authErr error
	if caller.IsGuest() {
		q.Tier = id.TierFree
		authErr = entitlement.AuthorizeGuest(cfg)
	} else {
		tier, err := s.accounts.Tier(ctx, caller.UserID, caller.Email)
		if err != nil {
			return nil, err
		}
		q.Tier = tier
		authErr = entitlement.Authorize(tier, cfg)
	}
	if authErr != nil {
		if !dErrors.HasCode(authErr, dErrors.CodeForbidden) {
			return nil, authErr
		}
		q.Allowed = false
		q.Reason = dErrors.Message(authErr)
	}

	if caller.IsGuest() {
		d, err := s.guests.Status(ctx, caller.ClientIP)
		if err != nil {
			return nil, err
		}
		q.Guest = allowance(d)
		q.Affordable = d.Remaining > 0
		return q, nil
	}

	balance, err := s.credits.Balance(ctx, caller.UserID)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, err
		}
		balance = 0
	}
	q.Balance = &balance
	q.Affordable = balance >= q.Cost
	return q, nil
}

func (s *Service) authorize(ctx context.Context, caller models.Caller, cfg models.Config) (id.Tier, error) {
	if caller.IsGuest() {
		return id.TierFree, entitlement.AuthorizeGuest(cfg)
	}
	tier, err := s.accounts.Tier(ctx, caller.UserID, caller.Email)
	if err != nil {
		return "", err
	}
	return tier, entitlement.Authorize(tier, cfg)
}

// charged records what was taken from the caller so failures can give it back.
type charged struct {
	decision *rlmodels.Decision
	txn      *creditmodels.Transaction
}

func (s *Service) charge(ctx context.Context, caller models.Caller, cost int, reference string) (*charged, error) {
	if caller.IsGuest() {
		if err := s.guests.ScreenClient(ctx, caller.ClientIP, caller.UserAgent); err != nil {
			return nil, err
		}
		d, err := s.guests.Consume(ctx, caller.ClientIP)
		if err != nil {
			return nil, err
		}
		return &charged{decision: d}, nil
	}
	txn, err := s.credits.Deduct(ctx, caller.UserID, cost, reference)
	if err != nil {
		return nil, err
	}
	return &charged{txn: txn}, nil
}

// render calls the provider once per image with bounded parallelism. Every
// image is attempted; the first error is kept for reporting.
func (s *Service) render(ctx context.Context, prompt string, cfg models.Config) ([]models.Image, error) {
	req := imagegen.Request{
		Prompt:         prompt,
		ReferenceImage: cfg.Outfit.ReferenceImage,
		MimeType:       cfg.Outfit.ReferenceMimeType,
		AspectRatio:    string(cfg.AspectRatio),
		Resolution:     string(cfg.Resolution),
	}

	out := make([]*imagegen.Image, cfg.ImageCount)
	errs := make([]error, cfg.ImageCount)

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i := range cfg.ImageCount {
		g.Go(func() error {
			ctx, span := s.tracer.Start(ctx, "imagegen.Generate", trace.WithAttributes(attribute.Int("index", i)))
			defer span.End()

			img, err := s.provider.Generate(ctx, req)
			if err == nil && img == nil {
				err = errEmptyImage
			}
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, string(imagegen.KindOf(err)))
				errs[i] = err
				return nil
			}
			out[i] = img
			return nil
		})
	}
	_ = g.Wait()

	images := make([]models.Image, 0, len(out))
	for _, img := range out {
		if img != nil {
			images = append(images, models.Image{Data: img.Data, MimeType: img.MimeType})
		}
	}
	return images, firstNonNil(errs)
}

func settleContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
}

func (s *Service) settleFailure(ctx context.Context, caller models.Caller, c *charged, cost int, reference string, cause error) {
	if caller.IsGuest() {
		s.guests.Release(ctx, caller.ClientIP)
	} else {
		s.refund(ctx, caller.UserID, cost, reference)
		s.metrics.AddCredits(0, cost)
	}
	audit.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
		UserID:   caller.UserID,
		Subject:  s.subject(caller),
		Action:   string(audit.EventGenerationFailed),
		Decision: "refunded",
		Reason:   string(imagegen.KindOf(cause)),
		Amount:   cost,
	}, "reference", reference, "error", cause)
}

// refund returns credits and logs, rather than fails, when the ledger write
// does not go through: the caller still needs the generation outcome.
func (s *Service) refund(ctx context.Context, userID id.UserID, amount int, reference string) *creditmodels.Transaction {
	txn, err := s.credits.Refund(ctx, userID, amount, reference)
	if err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "credit refund failed",
				"user_id", userID.String(), "amount", amount, "reference", reference, "error", err)
		}
		return nil
	}
	return txn
}

func (s *Service) subject(caller models.Caller) string {
	if caller.IsGuest() {
		return privacy.AnonymizeIP(caller.ClientIP)
	}
	return ""
}

func callerLabel(c models.Caller) string {
	if c.IsGuest() {
		return "guest"
	}
	return "user"
}

func allowance(d *rlmodels.Decision) *models.GuestAllowance {
	if d == nil {
		return nil
	}
	return &models.GuestAllowance{Limit: d.Limit, Remaining: d.Remaining, ResetAt: d.ResetAt.Unix()}
}

func firstNonNil(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
