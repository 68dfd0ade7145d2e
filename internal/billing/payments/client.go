// Package payments talks to the hosted payment service that owns checkout.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"atelier/internal/billing/models"
	dErrors "atelier/pkg/domain-errors"
)

const maxResponseBytes = 1 << 20

// Client creates checkout sessions over the payment service's JSON API.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

func NewClient(baseURL, apiKey string, timeout time.Duration, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("payments base URL is required")
	}
	if apiKey == "" {
		return nil, errors.New("payments API key is required")
	}
	c := &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type lineItem struct {
	Name        string `json:"name"`
	AmountCents int    `json:"amount_cents"`
	Currency    string `json:"currency"`
	Quantity    int    `json:"quantity"`
}

type sessionRequest struct {
	Mode          string            `json:"mode"`
	CustomerEmail string            `json:"customer_email,omitempty"`
	SuccessURL    string            `json:"success_url"`
	CancelURL     string            `json:"cancel_url"`
	LineItems     []lineItem        `json:"line_items"`
	Metadata      map[string]string `json:"metadata"`
}

// CreateSession starts a hosted checkout. The user and product travel in
// metadata and come back on the webhook.
func (c *Client) CreateSession(ctx context.Context, s models.CheckoutSession) (*models.Session, error) {
	mode := "payment"
	if s.Product.Kind == models.KindSubscription {
		mode = "subscription"
	}
	body, err := json.Marshal(sessionRequest{
		Mode:          mode,
		CustomerEmail: s.Email,
		SuccessURL:    s.SuccessURL,
		CancelURL:     s.CancelURL,
		LineItems: []lineItem{{
			Name:        s.Product.Name,
			AmountCents: s.Product.PriceCents,
			Currency:    s.Product.Currency,
			Quantity:    1,
		}},
		Metadata: map[string]string{
			"user_id":    s.UserID.String(),
			"product_id": s.Product.ID,
			"tier":       string(s.Product.Tier),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode checkout session: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build checkout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable, "payment service unavailable")
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable, "payment service unavailable")
	}

	if resp.StatusCode/100 != 2 {
		msg := gjson.GetBytes(raw, "error.message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		cause := fmt.Errorf("payment service status %d: %s", resp.StatusCode, msg)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, dErrors.Wrap(cause, dErrors.CodeUpstreamUnavailable, "payment service unavailable")
		}
		return nil, dErrors.Wrap(cause, dErrors.CodeInternal, "checkout could not be created")
	}

	doc := gjson.ParseBytes(raw)
	session := &models.Session{ID: doc.Get("id").String(), URL: doc.Get("url").String()}
	if session.ID == "" || session.URL == "" {
		return nil, dErrors.New(dErrors.CodeUpstreamUnavailable, "payment service returned an incomplete session")
	}
	return session, nil
}

// Mock hands out local redirect URLs. Used when no payment service is
// configured.
type Mock struct{}

func (Mock) CreateSession(_ context.Context, s models.CheckoutSession) (*models.Session, error) {
	id := "mock_" + uuid.NewString()
	sep := "?"
	if strings.Contains(s.SuccessURL, "?") {
		sep = "&"
	}
	return &models.Session{ID: id, URL: s.SuccessURL + sep + "session_id=" + id}, nil
}
