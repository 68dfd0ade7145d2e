package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"atelier/internal/admin/models"
	creditmodels "atelier/internal/credits/models"
	rlmodels "atelier/internal/ratelimit/models"
	dErrors "atelier/pkg/domain-errors"
	"atelier/pkg/platform/httputil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

type Service interface {
	GrantCredits(ctx context.Context, req models.GrantRequest) (*creditmodels.Transaction, error)
	ListGuestQuota(ctx context.Context) ([]rlmodels.GuestQuotaEntry, error)
	ResetGuestQuota(ctx context.Context, target string) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the operator routes. The caller wraps them with the admin
// token middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/credits/grant", h.HandleGrant)
	r.Get("/admin/guest-quota", h.HandleListGuestQuota)
	r.Delete("/admin/guest-quota/{ip}", h.HandleResetGuestQuota)
}

func (h *Handler) HandleGrant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.GrantRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	txn, err := h.service.GrantCredits(ctx, req)
	if err != nil {
		h.logError(ctx, "admin credit grant failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &models.GrantResponse{Transaction: txn})
}

func (h *Handler) HandleListGuestQuota(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entries, err := h.service.ListGuestQuota(ctx)
	if err != nil {
		h.logError(ctx, "admin guest quota list failed", err)
		httputil.WriteError(w, err)
		return
	}
	if entries == nil {
		entries = []rlmodels.GuestQuotaEntry{}
	}
	httputil.WriteJSON(w, http.StatusOK, &models.GuestQuotaListResponse{Entries: entries, Total: len(entries)})
}

func (h *Handler) HandleResetGuestQuota(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	target, err := url.PathUnescape(chi.URLParam(r, "ip"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed address"))
		return
	}
	if err := h.service.ResetGuestQuota(ctx, target); err != nil {
		h.logError(ctx, "admin guest quota reset failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	if h.logger == nil || dErrors.GetCode(err) != dErrors.CodeInternal {
		return
	}
	h.logger.ErrorContext(ctx, msg, "error", err)
}
