package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"atelier/internal/ratelimit/metrics"
	"atelier/internal/ratelimit/models"
	"atelier/pkg/platform/audit"
	"atelier/pkg/platform/httputil"
	metadata "atelier/pkg/platform/middleware/metadata"
	"atelier/pkg/platform/privacy"
	"atelier/pkg/requestcontext"
)

// Limiter hands out burst tokens per client key.
type Limiter interface {
	Reserve(key string, now time.Time) time.Duration
}

type Middleware struct {
	limiter  Limiter
	logger   *slog.Logger
	metrics  *metrics.Metrics
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns the throttle into a pass-through (local development).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = mt
	}
}

func New(limiter Limiter, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{limiter: limiter, logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Throttle rejects bursts from a single client IP before they reach the
// generation pipeline.
func (m *Middleware) Throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled || m.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		ip := metadata.GetClientIP(ctx)
		if ip == "" {
			next.ServeHTTP(w, r)
			return
		}

		delay := m.limiter.Reserve(ip, requestcontext.Now(ctx))
		if delay <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		m.metrics.IncThrottled()
		audit.LogAudit(ctx, m.logger, nil, audit.Event{
			Action:   string(audit.EventRateLimitExceeded),
			Decision: "denied",
			Reason:   "burst",
		}, "ip_prefix", privacy.AnonymizeIP(ip), "path", r.URL.Path)
		writeThrottled(w, int(math.Ceil(delay.Seconds())))
	})
}

// SetQuotaHeaders writes the guest allowance headers.
func SetQuotaHeaders(w http.ResponseWriter, d *models.Decision) {
	if d == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
}

// WriteQuotaExceeded renders the 429 for a spent guest allowance.
func WriteQuotaExceeded(w http.ResponseWriter, d *models.Decision) {
	SetQuotaHeaders(w, d)
	w.Header().Set("Retry-After", strconv.Itoa(d.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.QuotaExceededResponse{
		Error:            "quota_exceeded",
		ErrorDescription: "Free generation limit reached. Sign in to keep creating.",
		Limit:            d.Limit,
		ResetAt:          d.ResetAt,
		RetryAfter:       d.RetryAfter,
	})
}

func writeThrottled(w http.ResponseWriter, retryAfter int) {
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.ThrottledResponse{
		Error:            "rate_limited",
		ErrorDescription: "Too many requests from this address. Slow down and try again.",
		RetryAfter:       retryAfter,
	})
}
