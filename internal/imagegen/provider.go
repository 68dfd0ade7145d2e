// Package imagegen calls the external image model.
package imagegen

import (
	"context"
	"errors"
	"fmt"

	dErrors "atelier/pkg/domain-errors"
)

// Request is one image generation call.
type Request struct {
	Prompt         string
	ReferenceImage string // base64, optional
	MimeType       string // mime type of ReferenceImage
	AspectRatio    string
	Resolution     string
}

// Image is the provider output, base64 encoded.
type Image struct {
	Data     string
	MimeType string
}

// Provider generates exactly one image per call.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Image, error)
}

// Kind classifies provider failures.
type Kind string

const (
	KindTimeout        Kind = "timeout"
	KindRateLimited    Kind = "rate_limited"
	KindProviderOutage Kind = "provider_outage"
	KindBadData        Kind = "bad_data"
	KindAuthentication Kind = "authentication"
	KindContentBlocked Kind = "content_blocked"
)

// Error is a categorized provider failure.
type Error struct {
	Kind       Kind
	StatusCode int
	Retryable  bool
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("image provider %s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("image provider %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, status int, msg string, err error) *Error {
	retryable := false
	switch kind {
	case KindTimeout, KindRateLimited, KindProviderOutage:
		retryable = true
	}
	return &Error{Kind: kind, StatusCode: status, Retryable: retryable, Message: msg, Err: err}
}

// ErrCircuitOpen is returned without calling the provider while the breaker is open.
var ErrCircuitOpen = newError(KindProviderOutage, 0, "circuit open", nil)

// KindOf returns the failure kind of err, or "" when err is not a provider error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsRetryable reports whether err is a transient provider failure.
func IsRetryable(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Retryable
}

// ToDomainError maps provider failures to client-facing codes. Provider
// credentials problems surface as an outage, never as 401.
func ToDomainError(err error) error {
	if err == nil {
		return nil
	}
	switch KindOf(err) {
	case KindTimeout:
		return dErrors.Wrap(err, dErrors.CodeTimeout, "image generation timed out")
	case KindContentBlocked:
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "request was blocked by the image model's content policy")
	case KindRateLimited:
		return dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable, "image service is busy, try again shortly")
	case KindProviderOutage, KindBadData, KindAuthentication:
		return dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable, "image service unavailable")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "image generation timed out")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "image generation failed")
}
