package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"atelier/internal/admin/models"
	"atelier/internal/admin/service/mocks"
	creditmodels "atelier/internal/credits/models"
	rlmodels "atelier/internal/ratelimit/models"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
)

type AdminServiceSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	credits *mocks.MockCredits
	guests  *mocks.MockGuestQuota
	service *Service
}

func TestAdminServiceSuite(t *testing.T) {
	suite.Run(t, new(AdminServiceSuite))
}

func (s *AdminServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.credits = mocks.NewMockCredits(s.ctrl)
	s.guests = mocks.NewMockGuestQuota(s.ctrl)
	var err error
	s.service, err = New(s.credits, s.guests)
	s.Require().NoError(err)
}

func (s *AdminServiceSuite) TestNew() {
	s.Run("nil credits returns error", func() {
		_, err := New(nil, s.guests)
		s.ErrorContains(err, "credits service is required")
	})
	s.Run("nil guest quota returns error", func() {
		_, err := New(s.credits, nil)
		s.ErrorContains(err, "guest quota service is required")
	})
}

func (s *AdminServiceSuite) TestGrantCredits() {
	ctx := context.Background()
	userID := id.UserID(uuid.New())

	s.Run("writes an adjustment with the reason as reference", func() {
		txn := &creditmodels.Transaction{UserID: userID, Kind: creditmodels.KindAdjustment, Amount: 25, BalanceAfter: 40}
		s.credits.EXPECT().Grant(gomock.Any(), userID, 25, creditmodels.KindAdjustment, "admin:support ticket 4411").
			Return(txn, nil)

		got, err := s.service.GrantCredits(ctx, models.GrantRequest{
			UserID: userID.String(),
			Amount: 25,
			Reason: "  support ticket 4411 ",
		})
		s.Require().NoError(err)
		s.Equal(40, got.BalanceAfter)
	})

	s.Run("rejects malformed user id", func() {
		_, err := s.service.GrantCredits(ctx, models.GrantRequest{UserID: "nope", Amount: 5, Reason: "x"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("rejects non-positive amount", func() {
		_, err := s.service.GrantCredits(ctx, models.GrantRequest{UserID: userID.String(), Amount: 0, Reason: "x"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("requires a reason", func() {
		_, err := s.service.GrantCredits(ctx, models.GrantRequest{UserID: userID.String(), Amount: 5, Reason: "   "})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("bounds the reason", func() {
		_, err := s.service.GrantCredits(ctx, models.GrantRequest{
			UserID: userID.String(),
			Amount: 5,
			Reason: strings.Repeat("a", models.MaxReasonLength+1),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("passes ledger errors through", func() {
		s.credits.EXPECT().Grant(gomock.Any(), userID, 5, creditmodels.KindAdjustment, "admin:x").
			Return(nil, dErrors.New(dErrors.CodeNotFound, "credit account not found"))

		_, err := s.service.GrantCredits(ctx, models.GrantRequest{UserID: userID.String(), Amount: 5, Reason: "x"})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *AdminServiceSuite) TestListGuestQuota() {
	entries := []rlmodels.GuestQuotaEntry{{IPKey: "k1", Used: 2}, {IPKey: "k2", Used: 3, Expired: true}}
	s.guests.EXPECT().List(gomock.Any()).Return(entries, nil)

	got, err := s.service.ListGuestQuota(context.Background())
	s.Require().NoError(err)
	s.Len(got, 2)
}

func (s *AdminServiceSuite) TestResetGuestQuota() {
	ctx := context.Background()

	s.Run("raw IPv4 address resets by address", func() {
		s.guests.EXPECT().Reset(gomock.Any(), "203.0.113.7").Return(nil)
		s.NoError(s.service.ResetGuestQuota(ctx, "203.0.113.7"))
	})

	s.Run("raw IPv6 address resets by address", func() {
		s.guests.EXPECT().Reset(gomock.Any(), "2001:db8::1").Return(nil)
		s.NoError(s.service.ResetGuestQuota(ctx, "2001:db8::1"))
	})

	s.Run("anything else is treated as a stored key", func() {
		s.guests.EXPECT().ResetKey(gomock.Any(), "9f86d081884c7d65").Return(nil)
		s.NoError(s.service.ResetGuestQuota(ctx, "9f86d081884c7d65"))
	})

	s.Run("empty target is rejected", func() {
		err := s.service.ResetGuestQuota(ctx, " ")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("store errors propagate", func() {
		boom := errors.New("boom")
		s.guests.EXPECT().ResetKey(gomock.Any(), "k").Return(boom)
		s.ErrorIs(s.service.ResetGuestQuota(ctx, "k"), boom)
	})
}
