// Package service manages each user's archive of saved generations.
package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"atelier/internal/archive/metrics"
	"atelier/internal/archive/models"
	"atelier/internal/entitlement"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
	"atelier/pkg/platform/audit"
	"atelier/pkg/platform/sentinel"
	tags "atelier/pkg/platform/strings"
	"atelier/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Accounts

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var allowedMimeTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/webp": {},
}

type Store interface {
	// Insert fails with sentinel.ErrInsufficient when the owner already holds
	// limit images. A negative limit means no cap.
	Insert(ctx context.Context, img *models.Image, limit int) error
	Count(ctx context.Context, userID id.UserID) (int, error)
	Get(ctx context.Context, userID id.UserID, imageID id.ImageID) (*models.Image, error)
	List(ctx context.Context, userID id.UserID, limit, offset int) ([]*models.Image, error)
	Delete(ctx context.Context, userID id.UserID, imageID id.ImageID) error
}

type Accounts interface {
	Tier(ctx context.Context, userID id.UserID, email string) (id.Tier, error)
}

type Service struct {
	store          Store
	accounts       Accounts
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

func New(store Store, accounts Accounts, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("archive store is required")
	}
	if accounts == nil {
		return nil, fmt.Errorf("account service is required")
	}
	svc := &Service{store: store, accounts: accounts}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Save keeps an image in the caller's archive, refusing with forbidden once
// the tier's archive cap is reached.
func (s *Service) Save(ctx context.Context, userID id.UserID, email string, req models.SaveRequest) (*models.Image, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "sign in required")
	}
	img, err := s.validate(userID, req)
	if err != nil {
		s.metrics.IncRejected("invalid")
		return nil, err
	}
	img.CreatedAt = requestcontext.Now(ctx)

	tier, err := s.accounts.Tier(ctx, userID, email)
	if err != nil {
		return nil, err
	}
	limits := entitlement.For(tier)
	if err := s.store.Insert(ctx, img, limits.ArchiveLimit); err != nil {
		if errors.Is(err, sentinel.ErrInsufficient) {
			s.metrics.IncRejected("full")
			return nil, dErrors.New(dErrors.CodeForbidden,
				fmt.Sprintf("archive is full (%d images on the %s tier); delete images or upgrade", limits.ArchiveLimit, tier))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save image")
	}

	s.metrics.IncSaved()
	audit.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
		UserID:   userID,
		Subject:  img.ID.String(),
		Action:   string(audit.EventArchiveSaved),
		Decision: "saved",
	}, "tags", len(img.Tags))
	return img, nil
}

// List pages through the caller's archive newest first.
func (s *Service) List(ctx context.Context, userID id.UserID, limit, offset int) (*models.ListResponse, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	limit = min(limit, MaxPageSize)
	if offset < 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "offset must not be negative")
	}

	imgs, err := s.store.List(ctx, userID, limit, offset)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list archive")
	}
	total, err := s.store.Count(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count archive")
	}
	return &models.ListResponse{Images: imgs, Total: total, Limit: limit, Offset: offset}, nil
}

// Get returns not_found both for missing images and for images owned by
// someone else.
func (s *Service) Get(ctx context.Context, userID id.UserID, imageID id.ImageID) (*models.Image, error) {
	img, err := s.store.Get(ctx, userID, imageID)
	if err != nil {
		return nil, translate(err, "failed to read image")
	}
	return img, nil
}

func (s *Service) Delete(ctx context.Context, userID id.UserID, imageID id.ImageID) error {
	if err := s.store.Delete(ctx, userID, imageID); err != nil {
		return translate(err, "failed to delete image")
	}
	s.metrics.IncDeleted()
	audit.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
		UserID:   userID,
		Subject:  imageID.String(),
		Action:   string(audit.EventArchiveDeleted),
		Decision: "deleted",
	})
	return nil
}

func (s *Service) validate(userID id.UserID, req models.SaveRequest) (*models.Image, error) {
	data := strings.TrimSpace(req.Data)
	if data == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "data is required")
	}
	if i := strings.Index(data, ";base64,"); strings.HasPrefix(data, "data:") && i > 0 {
		data = data[i+len(";base64,"):]
	}
	if base64.StdEncoding.DecodedLen(len(data)) > models.MaxImageBytes+3 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "image is too large")
	}
	if _, err := base64.StdEncoding.DecodeString(data); err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "data must be base64 encoded")
	}

	mime := strings.ToLower(strings.TrimSpace(req.MimeType))
	if _, ok := allowedMimeTypes[mime]; !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "mime_type must be image/png, image/jpeg or image/webp")
	}

	prompt := strings.TrimSpace(req.Prompt)
	if len(prompt) > models.MaxPromptLen {
		return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("prompt exceeds %d characters", models.MaxPromptLen))
	}

	var config json.RawMessage
	if len(req.Config) > 0 && string(req.Config) != "null" {
		var obj map[string]any
		if err := json.Unmarshal(req.Config, &obj); err != nil {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "config must be a JSON object")
		}
		config = req.Config
	}

	normalized := tags.NormalizeTags(req.Tags, models.MaxTagLength)
	if len(normalized) > models.MaxTags {
		return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("at most %d tags are allowed", models.MaxTags))
	}
	if normalized == nil {
		normalized = []string{}
	}

	return &models.Image{
		ID:       id.NewImageID(),
		UserID:   userID,
		Data:     data,
		MimeType: mime,
		Prompt:   prompt,
		Config:   config,
		Tags:     normalized,
	}, nil
}

func translate(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "image not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
