package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"atelier/internal/billing/models"
	"atelier/internal/billing/webhook"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
	"atelier/pkg/platform/httputil"
	auth "atelier/pkg/platform/middleware/auth"
	"atelier/pkg/requestcontext"
)

const maxWebhookBody = 1 << 20

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

type Service interface {
	Tiers() *models.TiersResponse
	CreateCheckout(ctx context.Context, userID id.UserID, email, productID string) (*models.CheckoutResponse, error)
	HandleWebhook(ctx context.Context, signature string, body []byte) (*models.WebhookResponse, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts routes that take no bearer token. The webhook is
// authenticated by its signature instead.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/api/tiers", h.HandleTiers)
	r.Post("/api/billing/webhook", h.HandleWebhook)
}

// Register mounts the checkout route. The router must already require auth.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/billing/checkout", h.HandleCheckout)
}

func (h *Handler) HandleTiers(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.service.Tiers())
}

func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := auth.GetUserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "sign in required"))
		return
	}
	var req models.CheckoutRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp, err := h.service.CreateCheckout(ctx, userID, requestcontext.UserEmail(ctx), req.ProductID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleWebhook reads the raw body; the signature covers the exact bytes.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "webhook body too large"))
			return
		}
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read webhook body"))
		return
	}

	resp, err := h.service.HandleWebhook(ctx, r.Header.Get(webhook.SignatureHeader), body)
	if err != nil {
		if h.logger != nil && dErrors.GetCode(err) == dErrors.CodeUnauthorized {
			h.logger.WarnContext(ctx, "webhook signature rejected", "error", err)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
