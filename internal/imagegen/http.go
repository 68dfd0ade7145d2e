package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const maxResponseBytes = 64 << 20

// RetryConfig controls backoff between attempts on retryable failures.
type RetryConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	Jitter            float64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    500 * time.Millisecond,
		MaxBackoff:        8 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            0.2,
	}
}

// HTTPProvider calls a generateContent-style JSON endpoint.
type HTTPProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	retry   RetryConfig
	logger  *slog.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

type HTTPOption func(*HTTPProvider)

func WithHTTPClient(c *http.Client) HTTPOption {
	return func(p *HTTPProvider) {
		p.client = c
	}
}

func WithRetryConfig(cfg RetryConfig) HTTPOption {
	return func(p *HTTPProvider) {
		p.retry = cfg
	}
}

func WithLogger(logger *slog.Logger) HTTPOption {
	return func(p *HTTPProvider) {
		p.logger = logger
	}
}

// WithSleep replaces the backoff wait (tests).
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) HTTPOption {
	return func(p *HTTPProvider) {
		p.sleep = sleep
	}
}

func NewHTTPProvider(baseURL, apiKey, model string, timeout time.Duration, opts ...HTTPOption) (*HTTPProvider, error) {
	if baseURL == "" {
		return nil, errors.New("image provider base URL is required")
	}
	if apiKey == "" {
		return nil, errors.New("image provider API key is required")
	}
	p := &HTTPProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		retry:   DefaultRetryConfig(),
		sleep:   sleepCtx,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
	ImageSize   string `json:"imageSize,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string    `json:"responseModalities"`
	ImageConfig        imageConfig `json:"imageConfig"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

func (p *HTTPProvider) Generate(ctx context.Context, req Request) (*Image, error) {
	body, err := p.encode(req)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= p.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := p.backoff(attempt)
			if p.logger != nil {
				p.logger.WarnContext(ctx, "retrying image provider call",
					"attempt", attempt, "backoff", backoff, "error", lastErr)
			}
			if err := p.sleep(ctx, backoff); err != nil {
				return nil, classifyTransportError(ctx, err)
			}
		}

		img, err := p.do(ctx, body)
		if err == nil {
			return img, nil
		}
		lastErr = err
		if !IsRetryable(err) || ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (p *HTTPProvider) encode(req Request) ([]byte, error) {
	parts := []part{{Text: req.Prompt}}
	if req.ReferenceImage != "" {
		parts = append(parts, part{InlineData: &inlineData{MimeType: req.MimeType, Data: req.ReferenceImage}})
	}
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"IMAGE"},
			ImageConfig:        imageConfig{AspectRatio: req.AspectRatio, ImageSize: req.Resolution},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode image request: %w", err)
	}
	return body, nil
}

func (p *HTTPProvider) do(ctx context.Context, body []byte) (*Image, error) {
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", p.baseURL, p.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, raw)
	}
	return parseResponse(raw)
}

// parseResponse extracts the first inline image from the response.
func parseResponse(raw []byte) (*Image, error) {
	if !gjson.ValidBytes(raw) {
		return nil, newError(KindBadData, http.StatusOK, "response is not valid JSON", nil)
	}
	doc := gjson.ParseBytes(raw)

	if reason := doc.Get("promptFeedback.blockReason").String(); reason != "" {
		return nil, newError(KindContentBlocked, http.StatusOK, "prompt blocked: "+reason, nil)
	}
	switch finish := doc.Get("candidates.0.finishReason").String(); finish {
	case "SAFETY", "PROHIBITED_CONTENT", "IMAGE_SAFETY", "BLOCKLIST":
		return nil, newError(KindContentBlocked, http.StatusOK, "generation stopped: "+finish, nil)
	}

	for _, p := range doc.Get("candidates.0.content.parts").Array() {
		data := p.Get("inlineData.data").String()
		if data == "" {
			continue
		}
		mime := p.Get("inlineData.mimeType").String()
		if mime == "" {
			mime = "image/png"
		}
		return &Image{Data: data, MimeType: mime}, nil
	}
	return nil, newError(KindBadData, http.StatusOK, "response contained no image", nil)
}

func classifyStatus(status int, raw []byte) *Error {
	msg := gjson.GetBytes(raw, "error.message").String()
	if msg == "" {
		msg = http.StatusText(status)
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return newError(KindAuthentication, status, msg, nil)
	case status == http.StatusTooManyRequests:
		return newError(KindRateLimited, status, msg, nil)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return newError(KindTimeout, status, msg, nil)
	case status >= 500:
		return newError(KindProviderOutage, status, msg, nil)
	default:
		return newError(KindBadData, status, msg, nil)
	}
}

func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return newError(KindTimeout, 0, "request timed out", err)
	}
	return newError(KindProviderOutage, 0, "transport failure", err)
}

func (p *HTTPProvider) backoff(attempt int) time.Duration {
	b := float64(p.retry.InitialBackoff) * math.Pow(p.retry.BackoffMultiplier, float64(attempt-1))
	if b > float64(p.retry.MaxBackoff) {
		b = float64(p.retry.MaxBackoff)
	}
	if p.retry.Jitter > 0 {
		b += b * p.retry.Jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(b)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
