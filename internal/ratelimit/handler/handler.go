package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"atelier/internal/ratelimit/middleware"
	"atelier/internal/ratelimit/models"
	"atelier/pkg/platform/httputil"
	metadata "atelier/pkg/platform/middleware/metadata"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service is the read side of the guest allowance.
type Service interface {
	Status(ctx context.Context, ip string) (*models.Decision, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/api/guest/quota", h.HandleStatus)
}

// HandleStatus reports how many guest generations the caller's address has
// left in the current window.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	d, err := h.service.Status(ctx, metadata.GetClientIP(ctx))
	if err != nil {
		if h.logger != nil {
			h.logger.WarnContext(ctx, "guest quota status failed", "error", err)
		}
		httputil.WriteError(w, err)
		return
	}
	middleware.SetQuotaHeaders(w, d)
	httputil.WriteJSON(w, http.StatusOK, &models.GuestQuotaResponse{
		Limit:     d.Limit,
		Remaining: d.Remaining,
		ResetAt:   d.ResetAt,
	})
}
