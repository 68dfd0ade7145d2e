package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"atelier/internal/generation/handler/mocks"
	"atelier/internal/generation/models"
	rlmodels "atelier/internal/ratelimit/models"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
	"atelier/pkg/platform/httputil"
	tu "atelier/pkg/testutil"
)

const (
	guestIP = "203.0.113.40"
	ua      = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	body    = `{"model":{"gender":"female","age_range":"25-34"},"outfit":{"description":"silk slip dress"},"style":{"preset":"studio"},"resolution":"1K","aspect_ratio":"3:4","layout":"single","image_count":1}`
)

type HandlerSuite struct {
	suite.Suite
	router  http.Handler
	service *mocks.MockService
	user    id.UserID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	r := chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	s.router = r
	s.user = id.UserID(uuid.New())
}

func (s *HandlerSuite) post(path, payload string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(payload))
	req = tu.WithClient(req, guestIP, ua)
	if authed {
		req = tu.WithUser(req, s.user, "ada@example.com")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestGenerateForUser() {
	remaining := 9
	s.service.EXPECT().Generate(gomock.Any(), models.Caller{
		UserID: s.user, Email: "ada@example.com", ClientIP: guestIP, UserAgent: ua,
	}, gomock.Any()).DoAndReturn(func(_ any, _ models.Caller, cfg models.Config) (*models.GenerateResult, error) {
		s.Equal("silk slip dress", cfg.Outfit.Description)
		s.Equal(1, cfg.ImageCount)
		return &models.GenerateResult{
			Images:           []models.Image{{Data: "aW1n", MimeType: "image/png"}},
			Requested:        1,
			CreditsCharged:   1,
			RemainingCredits: &remaining,
		}, nil
	})

	rec := s.post("/api/generate", body, true)
	s.Equal(http.StatusOK, rec.Code)
	s.Empty(rec.Header().Get("X-RateLimit-Remaining"))
	var res models.GenerateResult
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &res))
	s.Len(res.Images, 1)
	s.Equal(9, *res.RemainingCredits)
}

func (s *HandlerSuite) TestGenerateForGuestSetsQuotaHeaders() {
	reset := time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)
	s.service.EXPECT().Generate(gomock.Any(), models.Caller{ClientIP: guestIP, UserAgent: ua}, gomock.Any()).
		Return(&models.GenerateResult{
			Images:    []models.Image{{Data: "aW1n", MimeType: "image/png"}},
			Requested: 1,
			Guest:     &models.GuestAllowance{Limit: 3, Remaining: 2, ResetAt: reset.Unix()},
		}, nil)

	rec := s.post("/api/generate", body, false)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("3", rec.Header().Get("X-RateLimit-Limit"))
	s.Equal("2", rec.Header().Get("X-RateLimit-Remaining"))
	s.Equal("1775131200", rec.Header().Get("X-RateLimit-Reset"))
}

func (s *HandlerSuite) TestGuestQuotaExceeded() {
	d := &rlmodels.Decision{Limit: 3, Remaining: 0, ResetAt: time.Now().Add(time.Hour), RetryAfter: 3600}
	s.service.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, dErrors.Wrap(&rlmodels.ExceededError{Decision: d}, dErrors.CodeQuotaExceeded, "free generation limit reached"))

	rec := s.post("/api/generate", body, false)
	s.Equal(http.StatusTooManyRequests, rec.Code)
	s.Equal("3600", rec.Header().Get("Retry-After"))
	s.Equal("0", rec.Header().Get("X-RateLimit-Remaining"))
	var res rlmodels.QuotaExceededResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &res))
	s.Equal("quota_exceeded", res.Error)
	s.Equal(3, res.Limit)
}

func (s *HandlerSuite) TestInsufficientCredits() {
	s.service.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeInsufficientCredits, "this generation costs 4 credits but only 1 remain"))

	rec := s.post("/api/generate", body, true)
	s.Equal(http.StatusPaymentRequired, rec.Code)
	var res httputil.ErrorResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &res))
	s.Equal("insufficient_credits", res.Error)
	s.Contains(res.ErrorDescription, "only 1 remain")
}

func (s *HandlerSuite) TestUpstreamFailureKeepsDescription() {
	s.service.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeUpstreamUnavailable, "image service unavailable"))

	rec := s.post("/api/generate", body, true)
	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.Contains(rec.Body.String(), "image service unavailable")
}

func (s *HandlerSuite) TestMalformedBody() {
	rec := s.post("/api/generate", `{"image_count":`, true)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.post("/api/generate", `{"unknown_field":1}`, true)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestQuote() {
	balance := 10
	s.service.EXPECT().Quote(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&models.Quote{Cost: 1, PerImageCost: 1, Allowed: true, Tier: id.TierFree, Balance: &balance, Affordable: true}, nil)

	rec := s.post("/api/generate/quote", body, true)
	s.Equal(http.StatusOK, rec.Code)
	var q models.Quote
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &q))
	s.True(q.Allowed)
	s.Equal(10, *q.Balance)
}

func (s *HandlerSuite) TestQuoteValidationError() {
	s.service.EXPECT().Quote(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeInvalidInput, "image_count must be between 1 and 4"))

	rec := s.post("/api/generate/quote", body, false)
	s.Equal(http.StatusBadRequest, rec.Code)
}
