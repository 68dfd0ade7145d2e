package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"atelier/internal/archive/models"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
	"atelier/pkg/platform/httputil"
	auth "atelier/pkg/platform/middleware/auth"
	"atelier/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

type Service interface {
	Save(ctx context.Context, userID id.UserID, email string, req models.SaveRequest) (*models.Image, error)
	List(ctx context.Context, userID id.UserID, limit, offset int) (*models.ListResponse, error)
	Get(ctx context.Context, userID id.UserID, imageID id.ImageID) (*models.Image, error)
	Delete(ctx context.Context, userID id.UserID, imageID id.ImageID) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the archive routes. The router must already require auth.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/archive", h.HandleList)
	r.Post("/api/archive", h.HandleSave)
	r.Get("/api/archive/{id}", h.HandleGet)
	r.Delete("/api/archive/{id}", h.HandleDelete)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := requireUser(ctx, w)
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	page, err := h.service.List(ctx, userID, limit, offset)
	if err != nil {
		h.logError(ctx, "list", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := requireUser(ctx, w)
	if !ok {
		return
	}
	var req models.SaveRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	img, err := h.service.Save(ctx, userID, requestcontext.UserEmail(ctx), req)
	if err != nil {
		h.logError(ctx, "save", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, img)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := requireUser(ctx, w)
	if !ok {
		return
	}
	imageID, err := id.ParseImageID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	img, err := h.service.Get(ctx, userID, imageID)
	if err != nil {
		h.logError(ctx, "get", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, img)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := requireUser(ctx, w)
	if !ok {
		return
	}
	imageID, err := id.ParseImageID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Delete(ctx, userID, imageID); err != nil {
		h.logError(ctx, "delete", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func requireUser(ctx context.Context, w http.ResponseWriter) (id.UserID, bool) {
	userID := auth.GetUserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "sign in required"))
		return id.UserID{}, false
	}
	return userID, true
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, name+" must be a non-negative integer")
	}
	return n, nil
}

func (h *Handler) logError(ctx context.Context, op string, err error) {
	if h.logger == nil || dErrors.GetCode(err) != dErrors.CodeInternal {
		return
	}
	h.logger.ErrorContext(ctx, "archive handler failed", "op", op, "error", err)
}
