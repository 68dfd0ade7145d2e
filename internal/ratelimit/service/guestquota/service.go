// Package guestquota enforces the anonymous generation allowance: a fixed
// number of generations per client IP per rolling window.
package guestquota

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"atelier/internal/ratelimit/botdetect"
	"atelier/internal/ratelimit/metrics"
	"atelier/internal/ratelimit/models"
	"atelier/internal/ratelimit/ports"
	dErrors "atelier/pkg/domain-errors"
	"atelier/pkg/platform/audit"
	"atelier/pkg/platform/privacy"
	"atelier/pkg/requestcontext"
)

type (
	Store          = ports.GuestQuotaStore
	AuditPublisher = ports.AuditPublisher
)

// Keyer maps a raw client address to its storage key.
type Keyer interface {
	Key(ip string) string
}

type Service struct {
	store          Store
	keys           Keyer
	policy         models.Policy
	auditPublisher AuditPublisher
	logger         *slog.Logger
	metrics        *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithPolicy overrides the default three-per-day allowance.
func WithPolicy(p models.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

func New(store Store, keys Keyer, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("guest quota store is required")
	}
	if keys == nil {
		return nil, fmt.Errorf("ip keyer is required")
	}

	svc := &Service{
		store:  store,
		keys:   keys,
		policy: models.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.policy.Limit < 1 || svc.policy.Window <= 0 {
		return nil, fmt.Errorf("guest quota policy must have a positive limit and window")
	}
	return svc, nil
}

func (s *Service) Policy() models.Policy {
	return s.policy
}

// ScreenClient rejects guests whose user agent identifies a crawler or
// scripted client.
func (s *Service) ScreenClient(ctx context.Context, ip, userAgent string) error {
	if !botdetect.IsCrawler(userAgent) {
		return nil
	}
	s.metrics.IncDenied("crawler")
	audit.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
		Subject:  s.subject(ip),
		Action:   string(audit.EventCrawlerBlocked),
		Decision: "denied",
		Reason:   "automated_user_agent",
	}, "ip_prefix", privacy.AnonymizeIP(ip))
	return dErrors.New(dErrors.CodeForbidden, "automated clients cannot generate without an account")
}

// Consume takes one unit of the caller's allowance. When the allowance is
// spent the returned error wraps *models.ExceededError and the decision is
// returned alongside it.
func (s *Service) Consume(ctx context.Context, ip string) (*models.Decision, error) {
	key, err := s.key(ip)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	row, allowed, err := s.store.Consume(ctx, key, s.policy.Limit, s.policy.Window, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update guest quota")
	}
	decision := models.NewDecision(row, allowed, s.policy, now)

	if !allowed {
		s.metrics.IncDenied("quota")
		audit.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
			Subject:  key,
			Action:   string(audit.EventGuestQuotaExceeded),
			Decision: "denied",
			Reason:   "limit_reached",
		}, "ip_prefix", privacy.AnonymizeIP(ip), "reset_at", decision.ResetAt)
		return decision, dErrors.Wrap(&models.ExceededError{Decision: decision},
			dErrors.CodeQuotaExceeded, "free generation limit reached, sign in to continue")
	}

	s.metrics.IncConsumed()
	audit.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
		Subject:  key,
		Action:   string(audit.EventGuestQuotaConsumed),
		Decision: "granted",
		Amount:   1,
	}, "remaining", decision.Remaining)
	return decision, nil
}

// Release returns one unit after the generation it paid for failed. Errors
// are logged and swallowed so the caller can still report the upstream
// failure.
func (s *Service) Release(ctx context.Context, ip string) *models.Decision {
	key, err := s.key(ip)
	if err != nil {
		return nil
	}
	now := requestcontext.Now(ctx)

	row, err := s.store.Release(ctx, key)
	if err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "failed to release guest quota", "error", err)
		}
		return nil
	}
	s.metrics.IncReleased()
	audit.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
		Subject:  key,
		Action:   string(audit.EventGuestQuotaReleased),
		Decision: "refunded",
		Amount:   1,
	})
	return models.NewDecision(row, true, s.policy, now)
}

// Status reports the caller's allowance without consuming it.
func (s *Service) Status(ctx context.Context, ip string) (*models.Decision, error) {
	key, err := s.key(ip)
	if err != nil {
		return nil, err
	}
	row, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read guest quota")
	}
	d := models.NewDecision(row, true, s.policy, requestcontext.Now(ctx))
	d.Allowed = d.Remaining > 0
	return d, nil
}

// Reset clears the allowance for a raw client address.
func (s *Service) Reset(ctx context.Context, ip string) error {
	key, err := s.key(ip)
	if err != nil {
		return err
	}
	return s.ResetKey(ctx, key)
}

// ResetKey clears the allowance for an already pseudonymized key, as shown
// by List.
func (s *Service) ResetKey(ctx context.Context, key string) error {
	if key == "" {
		return dErrors.New(dErrors.CodeBadRequest, "quota key is required")
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reset guest quota")
	}
	audit.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
		Subject:  key,
		Action:   string(audit.EventGuestQuotaReset),
		Decision: "reset",
		ActorID:  "admin",
	})
	return nil
}

// List returns every stored row, flagging those whose window has elapsed.
func (s *Service) List(ctx context.Context) ([]models.GuestQuotaEntry, error) {
	rows, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list guest quota")
	}
	now := requestcontext.Now(ctx)
	out := make([]models.GuestQuotaEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.GuestQuotaEntry{
			IPKey:       row.IPKey,
			Used:        row.Used,
			WindowStart: row.WindowStart,
			LastUsedAt:  row.LastUsedAt,
			Expired:     row.WindowExpired(now, s.policy.Window),
		})
	}
	return out, nil
}

// Sweep deletes rows whose window ended before now.
func (s *Service) Sweep(ctx context.Context, now time.Time) (int, error) {
	removed, err := s.store.DeleteExpired(ctx, now.Add(-s.policy.Window))
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sweep guest quota")
	}
	s.metrics.AddSwept(removed)
	return removed, nil
}

func (s *Service) key(ip string) (string, error) {
	if ip == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "client address could not be determined")
	}
	return s.keys.Key(ip), nil
}

func (s *Service) subject(ip string) string {
	if ip == "" {
		return ""
	}
	return s.keys.Key(ip)
}

var _ Keyer = (*privacy.Pseudonymizer)(nil)
