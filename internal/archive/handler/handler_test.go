package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"atelier/internal/archive/handler/mocks"
	"atelier/internal/archive/models"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
	tu "atelier/pkg/testutil"
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

func (s *HandlerSuite) do(method, path, body string, authed bool) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if authed {
		req = tu.WithUser(req, s.user, "ada@example.com")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestRequiresUser() {
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/archive"},
		{http.MethodPost, "/api/archive"},
		{http.MethodGet, "/api/archive/" + uuid.NewString()},
		{http.MethodDelete, "/api/archive/" + uuid.NewString()},
	} {
		rec := s.do(tc.method, tc.path, "", false)
		s.Equal(http.StatusUnauthorized, rec.Code, tc.method+" "+tc.path)
	}
}

func (s *HandlerSuite) TestSave() {
	imageID := id.NewImageID()
	s.service.EXPECT().Save(gomock.Any(), s.user, "ada@example.com", gomock.Any()).
		DoAndReturn(func(_ any, _ id.UserID, _ string, req models.SaveRequest) (*models.Image, error) {
			s.Equal("image/png", req.MimeType)
			s.Equal([]string{"look"}, req.Tags)
			return &models.Image{ID: imageID, Data: req.Data, MimeType: req.MimeType, Tags: req.Tags}, nil
		})

	rec := s.do(http.MethodPost, "/api/archive", `{"data":"aW1n","mime_type":"image/png","tags":["look"]}`, true)
	s.Equal(http.StatusCreated, rec.Code)
	var img models.Image
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &img))
	s.Equal(imageID, img.ID)
}

func (s *HandlerSuite) TestSaveArchiveFull() {
	s.service.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeForbidden, "archive is full"))

	rec := s.do(http.MethodPost, "/api/archive", `{"data":"aW1n","mime_type":"image/png"}`, true)
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *HandlerSuite) TestListPassesPaging() {
	s.service.EXPECT().List(gomock.Any(), s.user, 5, 10).
		Return(&models.ListResponse{Images: []*models.Image{}, Total: 12, Limit: 5, Offset: 10}, nil)

	rec := s.do(http.MethodGet, "/api/archive?limit=5&offset=10", "", true)
	s.Equal(http.StatusOK, rec.Code)
	var page models.ListResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &page))
	s.Equal(12, page.Total)
}

func (s *HandlerSuite) TestListRejectsBadPaging() {
	rec := s.do(http.MethodGet, "/api/archive?limit=abc", "", true)
	s.Equal(http.StatusBadRequest, rec.Code)
	rec = s.do(http.MethodGet, "/api/archive?offset=-3", "", true)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestGet() {
	imageID := id.NewImageID()
	s.service.EXPECT().Get(gomock.Any(), s.user, imageID).
		Return(&models.Image{ID: imageID, MimeType: "image/webp"}, nil)

	rec := s.do(http.MethodGet, "/api/archive/"+imageID.String(), "", true)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "image/webp")
}

func (s *HandlerSuite) TestGetInvalidID() {
	rec := s.do(http.MethodGet, "/api/archive/not-a-uuid", "", true)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestDelete() {
	imageID := id.NewImageID()
	s.service.EXPECT().Delete(gomock.Any(), s.user, imageID).Return(nil)

	rec := s.do(http.MethodDelete, "/api/archive/"+imageID.String(), "", true)
	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *HandlerSuite) TestDeleteNotFound() {
	imageID := id.NewImageID()
	s.service.EXPECT().Delete(gomock.Any(), s.user, imageID).
		Return(dErrors.New(dErrors.CodeNotFound, "image not found"))

	rec := s.do(http.MethodDelete, "/api/archive/"+imageID.String(), "", true)
	s.Equal(http.StatusNotFound, rec.Code)
}
