package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"atelier/internal/account/models"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
	"atelier/pkg/platform/httputil"
	auth "atelier/pkg/platform/middleware/auth"
	"atelier/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

type Service interface {
	Me(ctx context.Context, userID id.UserID, email string) (*models.MeResponse, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts GET /api/me. The router must already require auth.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/me", h.HandleMe)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.GetUserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "sign in required"))
		return
	}
	me, err := h.service.Me(ctx, userID, requestcontext.UserEmail(ctx))
	if err != nil {
		if h.logger != nil && dErrors.GetCode(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "load profile failed", "error", err)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, me)
}
