package payments

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"atelier/internal/billing/models"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
)

func session(t *testing.T, productID string) models.CheckoutSession {
	t.Helper()
	p, ok := models.ProductByID(productID)
	require.True(t, ok)
	return models.CheckoutSession{
		UserID:     id.UserID(uuid.MustParse("6f1c2d4e-0000-4000-8000-000000000001")),
		Email:      "ada@example.com",
		Product:    p,
		SuccessURL: "https://app.example.com/billing/success",
		CancelURL:  "https://app.example.com/billing/cancel",
	}
}

func TestCreateSessionSendsProductMetadata(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("Idempotency-Key"))
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_123","url":"https://pay.example.com/cs_123","status":"open"}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL+"/", "sk_test", time.Second)
	require.NoError(t, err)

	s, err := c.CreateSession(context.Background(), session(t, "creator_monthly"))
	require.NoError(t, err)
	assert.Equal(t, "cs_123", s.ID)
	assert.Equal(t, "https://pay.example.com/cs_123", s.URL)

	doc := gjson.ParseBytes(body)
	assert.Equal(t, "subscription", doc.Get("mode").String())
	assert.Equal(t, int64(2400), doc.Get("line_items.0.amount_cents").Int())
	assert.Equal(t, "creator_monthly", doc.Get("metadata.product_id").String())
	assert.Equal(t, "creator", doc.Get("metadata.tier").String())
	assert.Equal(t, "6f1c2d4e-0000-4000-8000-000000000001", doc.Get("metadata.user_id").String())
}

func TestCreateSessionPackIsOneOffPayment(t *testing.T) {
	var mode string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		mode = gjson.GetBytes(raw, "mode").String()
		_, _ = w.Write([]byte(`{"id":"cs_9","url":"https://pay.example.com/cs_9"}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "sk_test", time.Second)
	require.NoError(t, err)
	_, err = c.CreateSession(context.Background(), session(t, "pack_50"))
	require.NoError(t, err)
	assert.Equal(t, "payment", mode)
}

func TestCreateSessionErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   dErrors.Code
	}{
		{"server error", http.StatusBadGateway, `{"error":{"message":"down"}}`, dErrors.CodeUpstreamUnavailable},
		{"throttled", http.StatusTooManyRequests, ``, dErrors.CodeUpstreamUnavailable},
		{"rejected", http.StatusBadRequest, `{"error":{"message":"bad currency"}}`, dErrors.CodeInternal},
		{"incomplete", http.StatusOK, `{"id":"cs_1"}`, dErrors.CodeUpstreamUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := NewClient(srv.URL, "sk_test", time.Second)
			require.NoError(t, err)
			_, err = c.CreateSession(context.Background(), session(t, "pack_200"))
			require.Error(t, err)
			assert.Equal(t, tt.code, dErrors.GetCode(err))
		})
	}
}

func TestNewClientRequiresConfig(t *testing.T) {
	_, err := NewClient("", "key", time.Second)
	assert.Error(t, err)
	_, err = NewClient("https://pay.example.com", "", time.Second)
	assert.Error(t, err)
}

func TestMockRedirectsToSuccessURL(t *testing.T) {
	s, err := Mock{}.CreateSession(context.Background(), session(t, "pack_50"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s.ID, "mock_"))
	assert.Equal(t, "https://app.example.com/billing/success?session_id="+s.ID, s.URL)
}
