package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"atelier/internal/archive/metrics"
	"atelier/internal/archive/models"
	"atelier/internal/archive/service/mocks"
	"atelier/internal/archive/store"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
	"atelier/pkg/platform/audit"
	auditmemory "atelier/pkg/platform/audit/store/memory"
	"atelier/pkg/platform/audit/publisher"
	"atelier/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	accounts *mocks.MockAccounts
	store    *store.InMemoryStore
	audit    *auditmemory.InMemoryStore
	metrics  *metrics.Metrics
	service  *Service
	user     id.UserID
	ctx      context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	var err error
	s.ctrl = gomock.NewController(s.T())
	s.accounts = mocks.NewMockAccounts(s.ctrl)
	s.store = store.NewInMemoryStore()
	s.audit = auditmemory.NewInMemoryStore()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service, err = New(s.store, s.accounts,
		WithAuditPublisher(publisher.NewPublisher(s.audit)),
		WithMetrics(s.metrics),
	)
	s.Require().NoError(err)
	s.user = id.UserID(uuid.New())
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC))
}

func (s *ServiceSuite) asTier(t id.Tier) {
	s.accounts.EXPECT().Tier(gomock.Any(), s.user, gomock.Any()).Return(t, nil).AnyTimes()
}

func request() models.SaveRequest {
	return models.SaveRequest{
		Data:     "iVBORw0KGgo=",
		MimeType: "image/png",
		Prompt:   "studio portrait in a linen blazer",
		Config:   json.RawMessage(`{"layout":"single","resolution":"1K"}`),
		Tags:     []string{" Summer ", "summer", "Linen Blazer"},
	}
}

func (s *ServiceSuite) TestNewValidation() {
	_, err := New(nil, s.accounts)
	s.Error(err)
	_, err = New(s.store, nil)
	s.Error(err)
}

func (s *ServiceSuite) TestSaveNormalizesAndAudits() {
	s.asTier(id.TierFree)

	img, err := s.service.Save(s.ctx, s.user, "ada@example.com", request())
	s.Require().NoError(err)
	s.False(img.ID.IsNil())
	s.Equal([]string{"summer", "linen-blazer"}, img.Tags)
	s.Equal(time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC), img.CreatedAt)

	got, err := s.service.Get(s.ctx, s.user, img.ID)
	s.Require().NoError(err)
	s.Equal("studio portrait in a linen blazer", got.Prompt)

	events, err := s.audit.ListByUser(s.ctx, s.user)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(string(audit.EventArchiveSaved), events[0].Action)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.Saved))
}

func (s *ServiceSuite) TestSaveStripsDataURLPrefix() {
	s.asTier(id.TierFree)
	req := request()
	req.Data = "data:image/png;base64,iVBORw0KGgo="

	img, err := s.service.Save(s.ctx, s.user, "", req)
	s.Require().NoError(err)
	s.Equal("iVBORw0KGgo=", img.Data)
}

func (s *ServiceSuite) TestSaveRejectsInvalidInput() {
	cases := map[string]func(*models.SaveRequest){
		"missing data":    func(r *models.SaveRequest) { r.Data = "" },
		"not base64":      func(r *models.SaveRequest) { r.Data = "***" },
		"bad mime":        func(r *models.SaveRequest) { r.MimeType = "image/gif" },
		"config array":    func(r *models.SaveRequest) { r.Config = json.RawMessage(`[1,2]`) },
		"too many tags":   func(r *models.SaveRequest) { r.Tags = []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"} },
		"prompt too long": func(r *models.SaveRequest) { r.Prompt = string(make([]byte, models.MaxPromptLen+1)) },
	}
	for name, mutate := range cases {
		s.Run(name, func() {
			req := request()
			mutate(&req)
			_, err := s.service.Save(s.ctx, s.user, "", req)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput), err.Error())
		})
	}
	s.Equal(float64(len(cases)), testutil.ToFloat64(s.metrics.Rejected.WithLabelValues("invalid")))
}

func (s *ServiceSuite) TestSaveEnforcesTierLimit() {
	s.asTier(id.TierFree)
	for range 20 {
		_, err := s.service.Save(s.ctx, s.user, "", request())
		s.Require().NoError(err)
	}

	_, err := s.service.Save(s.ctx, s.user, "", request())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	s.Contains(dErrors.Message(err), "archive is full (20 images on the free tier)")
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.Rejected.WithLabelValues("full")))
}

func (s *ServiceSuite) TestStudioArchiveIsUncapped() {
	st := mocks.NewMockStore(s.ctrl)
	svc, err := New(st, s.accounts)
	s.Require().NoError(err)
	s.asTier(id.TierStudio)
	st.EXPECT().Insert(gomock.Any(), gomock.Any(), -1).Return(nil)

	_, err = svc.Save(s.ctx, s.user, "", request())
	s.NoError(err)
}

func (s *ServiceSuite) TestSaveRequiresUser() {
	_, err := s.service.Save(s.ctx, id.UserID{}, "", request())
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestListDefaultsAndCaps() {
	s.asTier(id.TierStarter)
	for range 3 {
		_, err := s.service.Save(s.ctx, s.user, "", request())
		s.Require().NoError(err)
	}

	page, err := s.service.List(s.ctx, s.user, 0, 0)
	s.Require().NoError(err)
	s.Equal(DefaultPageSize, page.Limit)
	s.Equal(3, page.Total)
	s.Len(page.Images, 3)

	page, err = s.service.List(s.ctx, s.user, 1000, 2)
	s.Require().NoError(err)
	s.Equal(MaxPageSize, page.Limit)
	s.Len(page.Images, 1)

	_, err = s.service.List(s.ctx, s.user, 10, -1)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *ServiceSuite) TestOtherUsersSeeNotFound() {
	s.asTier(id.TierFree)
	img, err := s.service.Save(s.ctx, s.user, "", request())
	s.Require().NoError(err)
	stranger := id.UserID(uuid.New())

	_, err = s.service.Get(s.ctx, stranger, img.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	err = s.service.Delete(s.ctx, stranger, img.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	s.Require().NoError(s.service.Delete(s.ctx, s.user, img.ID))
	_, err = s.service.Get(s.ctx, s.user, img.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.Deleted))
}

func (s *ServiceSuite) TestStoreFailureIsInternal() {
	st := mocks.NewMockStore(s.ctrl)
	svc, err := New(st, s.accounts)
	s.Require().NoError(err)
	st.EXPECT().Get(gomock.Any(), s.user, gomock.Any()).Return(nil, errors.New("connection reset"))

	_, err = svc.Get(s.ctx, s.user, id.NewImageID())
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}
