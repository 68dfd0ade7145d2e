package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"atelier/internal/credits/models"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
	"atelier/pkg/platform/httputil"
	auth "atelier/pkg/platform/middleware/auth"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

type Service interface {
	Balance(ctx context.Context, userID id.UserID) (int, error)
	History(ctx context.Context, userID id.UserID, limit int) ([]*models.Transaction, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the credit routes. The router must already require auth.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/credits", h.HandleBalance)
	r.Get("/api/credits/history", h.HandleHistory)
}

func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.GetUserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "sign in required"))
		return
	}
	balance, err := h.service.Balance(ctx, userID)
	if err != nil {
		h.logError(ctx, "read balance", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &models.BalanceResponse{Balance: balance})
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.GetUserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "sign in required"))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = n
	}

	txns, err := h.service.History(ctx, userID, limit)
	if err != nil {
		h.logError(ctx, "read credit history", err)
		httputil.WriteError(w, err)
		return
	}
	balance, err := h.service.Balance(ctx, userID)
	if err != nil {
		h.logError(ctx, "read balance", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &models.HistoryResponse{Balance: balance, Transactions: txns})
}

func (h *Handler) logError(ctx context.Context, op string, err error) {
	if h.logger == nil || dErrors.GetCode(err) != dErrors.CodeInternal {
		return
	}
	h.logger.ErrorContext(ctx, "credits handler failed", "op", op, "error", err)
}
