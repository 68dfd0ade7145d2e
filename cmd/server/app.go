package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	accounthandler "atelier/internal/account/handler"
	accountservice "atelier/internal/account/service"
	accountstore "atelier/internal/account/store"
	adminhandler "atelier/internal/admin/handler"
	adminservice "atelier/internal/admin/service"
	archivehandler "atelier/internal/archive/handler"
	archivemetrics "atelier/internal/archive/metrics"
	archiveservice "atelier/internal/archive/service"
	archivestore "atelier/internal/archive/store"
	billinghandler "atelier/internal/billing/handler"
	billingmetrics "atelier/internal/billing/metrics"
	"atelier/internal/billing/payments"
	billingservice "atelier/internal/billing/service"
	billingstore "atelier/internal/billing/store"
	"atelier/internal/billing/webhook"
	credithandler "atelier/internal/credits/handler"
	creditmetrics "atelier/internal/credits/metrics"
	creditservice "atelier/internal/credits/service"
	creditstore "atelier/internal/credits/store"
	genhandler "atelier/internal/generation/handler"
	genmetrics "atelier/internal/generation/metrics"
	genservice "atelier/internal/generation/service"
	httpapi "atelier/internal/http"
	"atelier/internal/imagegen"
	jwttoken "atelier/internal/jwt_token"
	"atelier/internal/platform/config"
	"atelier/internal/platform/httpserver"
	"atelier/internal/platform/metrics"
	"atelier/internal/platform/postgres"
	redisclient "atelier/internal/platform/redis"
	rlhandler "atelier/internal/ratelimit/handler"
	rlmetrics "atelier/internal/ratelimit/metrics"
	rlmiddleware "atelier/internal/ratelimit/middleware"
	rlmodels "atelier/internal/ratelimit/models"
	guestquota "atelier/internal/ratelimit/service/guestquota"
	gqstore "atelier/internal/ratelimit/store/guestquota"
	"atelier/internal/ratelimit/store/throttle"
	"atelier/internal/ratelimit/worker"
	"atelier/pkg/platform/audit"
	auditkafka "atelier/pkg/platform/audit/kafka"
	"atelier/pkg/platform/audit/publisher"
	auditmemory "atelier/pkg/platform/audit/store/memory"
	auditpostgres "atelier/pkg/platform/audit/store/postgres"
	"atelier/pkg/platform/circuit"
	"atelier/pkg/platform/privacy"
	txcontext "atelier/pkg/platform/tx"
)

const (
	devJWTSecret       = "dev-jwt-secret-change-in-production"
	devWebhookSecret   = "dev-webhook-secret-change-in-production"
	auditBufferSize    = 1024
	mockProviderDelay  = 400 * time.Millisecond
	paymentsTimeout    = 15 * time.Second
	auditTopicReplicas = 1
)

// job is a background loop that runs until ctx is cancelled.
type job struct {
	name string
	run  func(ctx context.Context) error
}

// app is the fully wired process: one HTTP handler plus its background jobs.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	handler http.Handler
	tokens  *jwttoken.JWTService
	jobs    []job
	closers []func()
}

type appOptions struct {
	registry      *prometheus.Registry
	providerDelay time.Duration
	migrate       bool
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts appOptions) (a *app, err error) {
	a = &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	reg := opts.registry
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	health := map[string]httpapi.HealthCheck{}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if db != nil {
		a.closers = append(a.closers, func() { _ = db.Close() })
		health["postgres"] = db.PingContext
		if opts.migrate {
			if _, err := postgres.Apply(ctx, db, logger); err != nil {
				return nil, err
			}
		}
	}

	rdb, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rdb != nil {
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		health["redis"] = rdb.Health
	}

	auditPublisher, err := a.buildAudit(ctx, db)
	if err != nil {
		return nil, err
	}

	var txRunner txcontext.Runner = txcontext.NopRunner{}
	if db != nil {
		txRunner = txcontext.SQLRunner{DB: db}
	}

	// Credits and accounts.
	var creditStore creditservice.Store = creditstore.NewInMemoryStore()
	var accountStore accountservice.Store = accountstore.NewInMemoryStore()
	if db != nil {
		creditStore = creditstore.NewPostgres(db)
		accountStore = accountstore.NewPostgres(db)
	}
	credits, err := creditservice.New(creditStore,
		creditservice.WithLogger(logger),
		creditservice.WithAuditPublisher(auditPublisher),
		creditservice.WithMetrics(creditmetrics.New(reg)),
	)
	if err != nil {
		return nil, err
	}
	accounts, err := accountservice.New(accountStore, credits,
		accountservice.WithLogger(logger),
		accountservice.WithAuditPublisher(auditPublisher),
		accountservice.WithTxRunner(txRunner),
	)
	if err != nil {
		return nil, err
	}

	// Guest quota, throttle and sweeper.
	keyer, err := privacy.NewPseudonymizer(cfg.GuestQuota.IPHashSecret)
	if err != nil {
		return nil, err
	}
	var quotaStore guestquota.Store = gqstore.NewInMemoryStore()
	switch {
	case rdb != nil:
		quotaStore = gqstore.NewRedis(rdb.Client)
	case db != nil:
		quotaStore = gqstore.NewPostgres(db)
	}
	quotaMetrics := rlmetrics.New(reg)
	guests, err := guestquota.New(quotaStore, keyer,
		guestquota.WithLogger(logger),
		guestquota.WithAuditPublisher(auditPublisher),
		guestquota.WithMetrics(quotaMetrics),
		guestquota.WithPolicy(rlmodels.Policy{Limit: cfg.GuestQuota.Limit, Window: cfg.GuestQuota.Window}),
	)
	if err != nil {
		return nil, err
	}
	if err := worker.ValidateSchedule(cfg.GuestQuota.SweepSchedule); err != nil {
		return nil, err
	}
	throttleStore := throttle.New(cfg.GuestQuota.ThrottleRPS, cfg.GuestQuota.ThrottleBurst)
	throttleMW := rlmiddleware.New(throttleStore, logger,
		rlmiddleware.WithMetrics(quotaMetrics),
		rlmiddleware.WithDisabled(cfg.GuestQuota.ThrottleRPS <= 0),
	)
	sweeper := worker.New(guests, cfg.GuestQuota.SweepSchedule, logger,
		worker.WithJanitor(throttleStore),
		worker.WithTrackedObserver(quotaMetrics.SetThrottleKeys),
	)
	a.jobs = append(a.jobs,
		job{name: "guest-quota-sweeper", run: sweeper.Run},
		job{name: "throttle-cleanup", run: throttleStore.Run},
	)

	// Generation.
	genMetrics := genmetrics.New(reg)
	provider, err := buildProvider(cfg, logger, genMetrics, opts.providerDelay)
	if err != nil {
		return nil, err
	}
	health["imagegen"] = provider.Health
	generation, err := genservice.New(accounts, credits, guests, provider,
		genservice.WithLogger(logger),
		genservice.WithAuditPublisher(auditPublisher),
		genservice.WithMetrics(genMetrics),
		genservice.WithConcurrency(cfg.ImageGen.Concurrency),
	)
	if err != nil {
		return nil, err
	}

	// Archive.
	var archiveStore archiveservice.Store = archivestore.NewInMemoryStore()
	if db != nil {
		archiveStore = archivestore.NewPostgres(db)
	}
	archive, err := archiveservice.New(archiveStore, accounts,
		archiveservice.WithLogger(logger),
		archiveservice.WithAuditPublisher(auditPublisher),
		archiveservice.WithMetrics(archivemetrics.New(reg)),
	)
	if err != nil {
		return nil, err
	}

	// Billing.
	billing, err := buildBilling(cfg, logger, db, txRunner, accounts, credits, auditPublisher, billingmetrics.New(reg))
	if err != nil {
		return nil, err
	}

	admin, err := adminservice.New(credits, guests, adminservice.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	tokens, err := buildTokenService(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.tokens = tokens

	a.handler = httpapi.NewRouter(httpapi.Config{
		Handlers: httpapi.Handlers{
			Generation: genhandler.New(generation, logger),
			GuestQuota: rlhandler.New(guests, logger),
			Account:    accounthandler.New(accounts, logger),
			Credits:    credithandler.New(credits, logger),
			Archive:    archivehandler.New(archive, logger),
			Billing:    billinghandler.New(billing, logger),
			Admin:      adminhandler.New(admin, logger),
		},
		Validator:      tokens,
		Throttle:       throttleMW.Throttle,
		Metrics:        metrics.New(reg),
		MetricsHandler: metrics.Handler(reg),
		AdminToken:     cfg.Admin.Token,
		TrustProxy:     cfg.Server.TrustProxy,
		Health:         health,
		Logger:         logger,
	})
	return a, nil
}

// buildAudit persists audit events next to the domain data and, when brokers
// are configured, mirrors them to Kafka.
func (a *app) buildAudit(ctx context.Context, db *sql.DB) (*publisher.Publisher, error) {
	var store audit.Store = auditmemory.NewInMemoryStore()
	if db != nil {
		store = auditpostgres.New(db)
	}
	opts := []publisher.Option{
		publisher.WithAsyncBuffer(auditBufferSize),
		publisher.WithLogger(a.logger),
	}

	if brokers := a.cfg.Kafka.BrokerList(); len(brokers) > 0 {
		client, err := auditkafka.NewClient(brokers, a.cfg.Kafka.ClientID)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		if err := auditkafka.EnsureTopic(ctx, client, a.cfg.Kafka.AuditTopic, 1, auditTopicReplicas); err != nil {
			a.logger.WarnContext(ctx, "audit topic not ensured", "topic", a.cfg.Kafka.AuditTopic, "error", err)
		}
		opts = append(opts, publisher.WithSink(auditkafka.NewSink(client, a.cfg.Kafka.AuditTopic)))
	}

	p := publisher.NewPublisher(store, opts...)
	// Registered after the Kafka client so the buffer drains before it closes.
	a.closers = append(a.closers, p.Close)
	return p, nil
}

func buildProvider(cfg *config.Config, logger *slog.Logger, m *genmetrics.Metrics, mockDelay time.Duration) (*imagegen.BreakerProvider, error) {
	var next imagegen.Provider
	if cfg.ImageGen.URL == "" {
		if cfg.IsProduction() {
			return nil, errors.New("IMAGEGEN_URL is required in production")
		}
		logger.Warn("IMAGEGEN_URL not set, using mock image provider")
		next = imagegen.NewMockProvider(mockDelay)
	} else {
		retry := imagegen.DefaultRetryConfig()
		retry.MaxRetries = cfg.ImageGen.MaxRetries
		p, err := imagegen.NewHTTPProvider(cfg.ImageGen.URL, cfg.ImageGen.APIKey, cfg.ImageGen.Model, cfg.ImageGen.Timeout,
			imagegen.WithRetryConfig(retry),
			imagegen.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		next = p
	}

	breaker := circuit.New("imagegen",
		circuit.WithFailureThreshold(cfg.ImageGen.BreakerFailures),
		circuit.WithCooldown(cfg.ImageGen.BreakerCooldown),
	)
	return imagegen.NewBreakerProvider(next, breaker, logger, m.ObserveBreaker), nil
}

func buildBilling(
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
	txRunner txcontext.Runner,
	accounts billingservice.Accounts,
	credits billingservice.Credits,
	emitter audit.Emitter,
	m *billingmetrics.Metrics,
) (*billingservice.Service, error) {
	var checkout billingservice.Checkout = payments.Mock{}
	if cfg.Billing.URL != "" {
		client, err := payments.NewClient(cfg.Billing.URL, cfg.Billing.APIKey, paymentsTimeout)
		if err != nil {
			return nil, err
		}
		checkout = client
	} else if cfg.IsProduction() {
		return nil, errors.New("PAYMENTS_URL is required in production")
	}

	secret := cfg.Billing.WebhookSecret
	if secret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("PAYMENTS_WEBHOOK_SECRET is required in production")
		}
		logger.Warn("PAYMENTS_WEBHOOK_SECRET not set, using development secret")
		secret = devWebhookSecret
	}
	verifier, err := webhook.NewVerifier(secret, webhook.DefaultTolerance)
	if err != nil {
		return nil, err
	}

	var events billingservice.EventStore = billingstore.NewInMemoryStore()
	if db != nil {
		events = billingstore.NewPostgres(db)
	}

	return billingservice.New(checkout, verifier, webhook.ParseEvent, events, accounts, credits,
		billingservice.WithLogger(logger),
		billingservice.WithAuditPublisher(emitter),
		billingservice.WithMetrics(m),
		billingservice.WithTxRunner(txRunner),
		billingservice.WithRedirects(cfg.Billing.SuccessURL, cfg.Billing.CancelURL),
	)
}

// buildTokenService prefers a remote JWKS and falls back to a shared HS256
// secret. Development without either gets a fixed secret so `token` can mint.
func buildTokenService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*jwttoken.JWTService, error) {
	if cfg.Auth.JWKSURL != "" {
		return jwttoken.NewJWKSService(ctx, cfg.Auth.JWKSURL, cfg.Auth.Issuer, cfg.Auth.Audience)
	}
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("JWT_SECRET or JWKS_URL is required in production")
		}
		logger.Warn("JWT_SECRET not set, using development secret")
		secret = devJWTSecret
	}
	return jwttoken.NewJWTService(secret, cfg.Auth.Issuer, cfg.Auth.Audience), nil
}

// run serves HTTP and every background job until ctx is cancelled, then
// drains the server within the shutdown timeout.
func (a *app) run(ctx context.Context) error {
	defer a.close()

	srv := httpserver.New(a.cfg.Server.Addr, a.handler)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("http server listening", "addr", a.cfg.Server.Addr, "env", a.cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		a.logger.Info("http server stopped")
		return nil
	})
	for _, j := range a.jobs {
		g.Go(func() error {
			if err := j.run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("%s: %w", j.name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// close releases resources in reverse acquisition order.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
