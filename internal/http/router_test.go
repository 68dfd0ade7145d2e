package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "atelier/pkg/domain"
	adminmw "atelier/pkg/platform/middleware/admin"
	auth "atelier/pkg/platform/middleware/auth"
	"atelier/pkg/requestcontext"
)

type stubValidator struct {
	userID id.UserID
}

func (v stubValidator) ValidateToken(_ context.Context, token string) (*auth.Claims, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return &auth.Claims{UserID: v.userID, Email: "maker@example.com"}, nil
}

// echoRoutes mounts one route per path that reports the caller it saw.
type echoRoutes []string

func (e echoRoutes) Register(r chi.Router) {
	for _, p := range e {
		r.Get(p, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{
				"user": requestcontext.UserID(r.Context()).String(),
				"ip":   requestcontext.ClientIP(r.Context()),
			})
		})
	}
}

type billingRoutes struct {
	public  echoRoutes
	private echoRoutes
}

func (b billingRoutes) Register(r chi.Router)       { b.private.Register(r) }
func (b billingRoutes) RegisterPublic(r chi.Router) { b.public.Register(r) }

type RouterSuite struct {
	suite.Suite
	userID    id.UserID
	throttled int
	router    http.Handler
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.userID = id.UserID(uuid.New())
	s.throttled = 0
	s.router = s.build(map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
	})
}

func (s *RouterSuite) build(health map[string]HealthCheck) http.Handler {
	return NewRouter(Config{
		Handlers: Handlers{
			Generation: echoRoutes{"/api/generate"},
			GuestQuota: echoRoutes{"/api/guest/quota"},
			Account:    echoRoutes{"/api/me"},
			Credits:    echoRoutes{"/api/credits"},
			Archive:    echoRoutes{"/api/archive"},
			Billing: billingRoutes{
				public:  echoRoutes{"/api/tiers"},
				private: echoRoutes{"/api/billing/checkout"},
			},
			Admin: echoRoutes{"/admin/guest-quota"},
		},
		Validator: stubValidator{userID: s.userID},
		Throttle: func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				s.throttled++
				next.ServeHTTP(w, r)
			})
		},
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "# metrics")
		}),
		AdminToken: "ops",
		Health:     health,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func (s *RouterSuite) get(path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "198.51.100.4:5555"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RouterSuite) decode(rec *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func (s *RouterSuite) TestGenerationAllowsGuestsAndIsThrottled() {
	rec := s.get("/api/generate", nil)

	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(1, s.throttled)
	body := s.decode(rec)
	s.Equal(id.UserID{}.String(), body["user"])
	s.Equal("198.51.100.4", body["ip"])
}

func (s *RouterSuite) TestGenerationPicksUpOptionalToken() {
	rec := s.get("/api/generate", map[string]string{"Authorization": "Bearer good"})

	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(s.userID.String(), s.decode(rec)["user"])
}

func (s *RouterSuite) TestAuthenticatedRoutesRequireToken() {
	for _, path := range []string{"/api/me", "/api/credits", "/api/archive", "/api/billing/checkout"} {
		rec := s.get(path, nil)
		s.Equal(http.StatusUnauthorized, rec.Code, path)

		rec = s.get(path, map[string]string{"Authorization": "Bearer good"})
		s.Equal(http.StatusOK, rec.Code, path)
		s.Equal(s.userID.String(), s.decode(rec)["user"], path)
	}
	s.Zero(s.throttled)
}

func (s *RouterSuite) TestPublicRoutes() {
	for _, path := range []string{"/api/tiers", "/api/guest/quota"} {
		rec := s.get(path, nil)
		s.Equal(http.StatusOK, rec.Code, path)
	}
}

func (s *RouterSuite) TestAdminRoutesRequireToken() {
	s.Equal(http.StatusForbidden, s.get("/admin/guest-quota", nil).Code)
	s.Equal(http.StatusForbidden, s.get("/admin/guest-quota", map[string]string{"Authorization": "Bearer good"}).Code)
	s.Equal(http.StatusOK, s.get("/admin/guest-quota", map[string]string{adminmw.HeaderAdminToken: "ops"}).Code)
}

func (s *RouterSuite) TestRequestIDEchoed() {
	rec := s.get("/api/tiers", map[string]string{"X-Request-ID": "req-42"})
	s.Equal("req-42", rec.Header().Get("X-Request-ID"))

	rec = s.get("/api/tiers", nil)
	s.NotEmpty(rec.Header().Get("X-Request-ID"))
}

func (s *RouterSuite) TestMetricsAndNotFound() {
	rec := s.get("/metrics", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("# metrics", rec.Body.String())

	rec = s.get("/nope", nil)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Contains(rec.Body.String(), "not_found")
}

func (s *RouterSuite) TestHealth() {
	rec := s.get("/healthz", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"status":"ok","checks":{"postgres":"ok"}}`, rec.Body.String())

	s.router = s.build(map[string]HealthCheck{
		"redis": func(context.Context) error { return errors.New("down") },
	})
	rec = s.get("/healthz", nil)
	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.JSONEq(`{"status":"degraded","checks":{"redis":"unavailable"}}`, rec.Body.String())
}

func (s *RouterSuite) TestRecoversFromPanics() {
	r := chi.NewRouter()
	router := NewRouter(Config{
		Handlers:  Handlers{GuestQuota: panicRoutes{}},
		Validator: stubValidator{},
	})
	r.Mount("/", router)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	s.Equal(http.StatusInternalServerError, rec.Code)
}

type panicRoutes struct{}

func (panicRoutes) Register(r chi.Router) {
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })
}
