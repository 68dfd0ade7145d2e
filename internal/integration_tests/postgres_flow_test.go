//go:build integration

package integrationtests

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	accountservice "atelier/internal/account/service"
	accountstore "atelier/internal/account/store"
	archivemodels "atelier/internal/archive/models"
	archiveservice "atelier/internal/archive/service"
	archivestore "atelier/internal/archive/store"
	"atelier/internal/billing/payments"
	billingservice "atelier/internal/billing/service"
	billingstore "atelier/internal/billing/store"
	"atelier/internal/billing/webhook"
	creditservice "atelier/internal/credits/service"
	creditstore "atelier/internal/credits/store"
	"atelier/internal/entitlement"
	"atelier/internal/imagegen"
	"atelier/internal/platform/postgres"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
	"atelier/pkg/platform/audit/publisher"
	auditpostgres "atelier/pkg/platform/audit/store/postgres"
	txcontext "atelier/pkg/platform/tx"
	"atelier/pkg/testutil/containers"
)

const webhookSecret = "whsec_integration"

// PostgresFlowSuite runs the stateful services against a real database to
// check the guarantees in-memory stores cannot prove: row locks, advisory
// locks and idempotency under concurrency.
type PostgresFlowSuite struct {
	suite.Suite
	pg       *containers.PostgresContainer
	credits  *creditservice.Service
	accounts *accountservice.Service
	archive  *archiveservice.Service
	billing  *billingservice.Service
	audit    *auditpostgres.Store
}

func TestPostgresFlowSuite(t *testing.T) {
	suite.Run(t, new(PostgresFlowSuite))
}

func (s *PostgresFlowSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()
	_, err := postgres.Apply(ctx, s.pg.DB, logger)
	s.Require().NoError(err)

	s.audit = auditpostgres.New(s.pg.DB)
	emitter := publisher.NewPublisher(s.audit, publisher.WithLogger(logger))
	runner := txcontext.SQLRunner{DB: s.pg.DB}

	s.credits, err = creditservice.New(creditstore.NewPostgres(s.pg.DB),
		creditservice.WithLogger(logger),
		creditservice.WithAuditPublisher(emitter),
	)
	s.Require().NoError(err)
	s.accounts, err = accountservice.New(accountstore.NewPostgres(s.pg.DB), s.credits,
		accountservice.WithLogger(logger),
		accountservice.WithAuditPublisher(emitter),
		accountservice.WithTxRunner(runner),
	)
	s.Require().NoError(err)
	s.archive, err = archiveservice.New(archivestore.NewPostgres(s.pg.DB), s.accounts,
		archiveservice.WithLogger(logger),
	)
	s.Require().NoError(err)

	verifier, err := webhook.NewVerifier(webhookSecret, webhook.DefaultTolerance)
	s.Require().NoError(err)
	s.billing, err = billingservice.New(payments.Mock{}, verifier, webhook.ParseEvent,
		billingstore.NewPostgres(s.pg.DB), s.accounts, s.credits,
		billingservice.WithLogger(logger),
		billingservice.WithTxRunner(runner),
	)
	s.Require().NoError(err)
}

func (s *PostgresFlowSuite) newUser() id.UserID {
	userID := id.UserID(uuid.New())
	_, err := s.accounts.Resolve(context.Background(), userID, "maker@example.com")
	s.Require().NoError(err)
	return userID
}

func (s *PostgresFlowSuite) TestResolveProvisionsOnceUnderConcurrency() {
	ctx := context.Background()
	userID := id.UserID(uuid.New())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.accounts.Resolve(ctx, userID, "maker@example.com")
			s.NoError(err)
		}()
	}
	wg.Wait()

	balance, err := s.credits.Balance(ctx, userID)
	s.Require().NoError(err)
	s.Equal(entitlement.For(id.TierFree).MonthlyCredits, balance)
}

func (s *PostgresFlowSuite) TestConcurrentDeductsNeverOverdraw() {
	ctx := context.Background()
	userID := s.newUser()

	var ok, insufficient atomic.Int32
	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.credits.Deduct(ctx, userID, 2, fmt.Sprintf("generation:%d", i))
			switch {
			case err == nil:
				ok.Add(1)
			case dErrors.HasCode(err, dErrors.CodeInsufficientCredits):
				insufficient.Add(1)
			default:
				s.Failf("unexpected error", "%v", err)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(5), ok.Load())
	s.Equal(int32(5), insufficient.Load())
	balance, err := s.credits.Balance(ctx, userID)
	s.Require().NoError(err)
	s.Zero(balance)

	history, err := s.credits.History(ctx, userID, 50)
	s.Require().NoError(err)
	s.Len(history, 6)
}

func (s *PostgresFlowSuite) TestArchiveCapHoldsUnderConcurrentSaves() {
	ctx := context.Background()
	userID := s.newUser()
	img, err := imagegen.NewMockProvider(0).Generate(ctx, imagegen.Request{Prompt: "linen suit", AspectRatio: "1:1"})
	s.Require().NoError(err)

	limit := entitlement.For(id.TierFree).ArchiveLimit
	var saved, full atomic.Int32
	var wg sync.WaitGroup
	for range limit + 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.archive.Save(ctx, userID, "maker@example.com", archivemodels.SaveRequest{
				Data:     img.Data,
				MimeType: img.MimeType,
				Prompt:   "linen suit",
				Tags:     []string{"Linen"},
			})
			switch {
			case err == nil:
				saved.Add(1)
			case dErrors.HasCode(err, dErrors.CodeForbidden):
				full.Add(1)
			default:
				s.Failf("unexpected error", "%v", err)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(limit), saved.Load())
	s.Equal(int32(5), full.Load())

	page, err := s.archive.List(ctx, userID, 5, 0)
	s.Require().NoError(err)
	s.Equal(limit, page.Total)
	s.Len(page.Images, 5)
	s.Equal([]string{"linen"}, page.Images[0].Tags)
}

func (s *PostgresFlowSuite) TestWebhookRedeliveryGrantsOnce() {
	ctx := context.Background()
	userID := s.newUser()
	body := []byte(fmt.Sprintf(`{"id":"evt_%s","type":"checkout.completed","created":%d,"data":{"object":{"metadata":{"user_id":%q,"product_id":"pack_200"}}}}`,
		uuid.NewString(), time.Now().Unix(), userID.String()))

	var duplicates atomic.Int32
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := s.billing.HandleWebhook(ctx, webhook.Sign(webhookSecret, time.Now(), body), body)
			if !s.NoError(err) {
				return
			}
			if resp.Duplicate {
				duplicates.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(3), duplicates.Load())
	balance, err := s.credits.Balance(ctx, userID)
	s.Require().NoError(err)
	s.Equal(entitlement.For(id.TierFree).MonthlyCredits+200, balance)

	events, err := s.audit.ListByUser(ctx, userID)
	s.Require().NoError(err)
	s.NotEmpty(events)
}
