// Package httpapi composes the public HTTP surface from the module handlers.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"atelier/internal/platform/metrics"
	"atelier/pkg/platform/httputil"
	adminmw "atelier/pkg/platform/middleware/admin"
	auth "atelier/pkg/platform/middleware/auth"
	metadata "atelier/pkg/platform/middleware/metadata"
	request "atelier/pkg/platform/middleware/request"
)

const healthTimeout = 2 * time.Second

// Registrar mounts a module's routes on a router.
type Registrar interface {
	Register(r chi.Router)
}

// BillingRegistrar splits billing into public (tiers, webhook) and
// authenticated (checkout) routes.
type BillingRegistrar interface {
	Registrar
	RegisterPublic(r chi.Router)
}

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Handlers groups the module handlers. Nil entries are skipped.
type Handlers struct {
	Generation Registrar
	GuestQuota Registrar
	Account    Registrar
	Credits    Registrar
	Archive    Registrar
	Billing    BillingRegistrar
	Admin      Registrar
}

type Config struct {
	Handlers  Handlers
	Validator auth.TokenValidator
	// Throttle guards the generation routes against per-IP bursts.
	Throttle       func(http.Handler) http.Handler
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	AdminToken     string
	TrustProxy     bool
	Health         map[string]HealthCheck
	Logger         *slog.Logger
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// NewRouter wires the middleware chain and every module's routes.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()
	if cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	r.Use(request.RequestID)
	r.Use(request.RequestTime)
	r.Use(metadata.ClientMetadata(cfg.TrustProxy))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{
			Error:            "not_found",
			ErrorDescription: "route not found",
		})
	})

	r.Get("/healthz", healthHandler(cfg.Health))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	h := cfg.Handlers
	if h.Billing != nil {
		h.Billing.RegisterPublic(r)
	}
	if h.GuestQuota != nil {
		h.GuestQuota.Register(r)
	}

	if h.Generation != nil {
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(cfg.Validator, cfg.Logger))
			if cfg.Throttle != nil {
				r.Use(cfg.Throttle)
			}
			h.Generation.Register(r)
		})
	}

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(cfg.Validator, cfg.Logger))
		for _, reg := range []Registrar{h.Account, h.Credits, h.Archive, h.Billing} {
			if reg != nil {
				reg.Register(r)
			}
		}
	})

	if h.Admin != nil {
		r.Group(func(r chi.Router) {
			r.Use(adminmw.RequireAdminToken(cfg.AdminToken, cfg.Logger))
			h.Admin.Register(r)
		})
	}

	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := HealthResponse{Status: "ok"}
		status := http.StatusOK
		if len(names) > 0 {
			resp.Checks = make(map[string]string, len(names))
		}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				resp.Checks[name] = "unavailable"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
