package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireAdminToken(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("missing token is forbidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RequireAdminToken("secret", logger)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("matching token passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set(HeaderAdminToken, "secret")
		rec := httptest.NewRecorder()
		RequireAdminToken("secret", logger)(ok).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("empty configured token disables routes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set(HeaderAdminToken, "")
		rec := httptest.NewRecorder()
		RequireAdminToken("", logger)(ok).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
