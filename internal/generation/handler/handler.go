package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"atelier/internal/generation/models"
	rlmiddleware "atelier/internal/ratelimit/middleware"
	rlmodels "atelier/internal/ratelimit/models"
	dErrors "atelier/pkg/domain-errors"
	"atelier/pkg/platform/httputil"
	"atelier/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

type Service interface {
	Generate(ctx context.Context, caller models.Caller, cfg models.Config) (*models.GenerateResult, error)
	Quote(ctx context.Context, caller models.Caller, cfg models.Config) (*models.Quote, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the generation routes. They accept guests, so the router
// should apply optional auth and the burst throttle.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/generate", h.HandleGenerate)
	r.Post("/api/generate/quote", h.HandleQuote)
}

func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var cfg models.Config
	if err := httputil.DecodeJSON(r, &cfg); err != nil {
		httputil.WriteError(w, err)
		return
	}

	caller := callerFrom(ctx)
	res, err := h.service.Generate(ctx, caller, cfg)
	if err != nil {
		var exceeded *rlmodels.ExceededError
		if errors.As(err, &exceeded) {
			rlmiddleware.WriteQuotaExceeded(w, exceeded.Decision)
			return
		}
		h.logError(ctx, "generate", err)
		httputil.WriteError(w, err)
		return
	}
	if res.Guest != nil {
		rlmiddleware.SetQuotaHeaders(w, &rlmodels.Decision{
			Limit:     res.Guest.Limit,
			Remaining: res.Guest.Remaining,
			ResetAt:   time.Unix(res.Guest.ResetAt, 0),
		})
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var cfg models.Config
	if err := httputil.DecodeJSON(r, &cfg); err != nil {
		httputil.WriteError(w, err)
		return
	}
	q, err := h.service.Quote(ctx, callerFrom(ctx), cfg)
	if err != nil {
		h.logError(ctx, "quote", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, q)
}

func callerFrom(ctx context.Context) models.Caller {
	return models.Caller{
		UserID:    requestcontext.UserID(ctx),
		Email:     requestcontext.UserEmail(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
	}
}

func (h *Handler) logError(ctx context.Context, op string, err error) {
	if h.logger == nil {
		return
	}
	switch dErrors.GetCode(err) {
	case dErrors.CodeInternal, dErrors.CodeUpstreamUnavailable, dErrors.CodeTimeout:
		h.logger.ErrorContext(ctx, "generation handler failed", "op", op, "error", err)
	}
}
