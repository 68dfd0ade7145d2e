package testutil

import (
	"net/http"
	"time"

	id "atelier/pkg/domain"
	"atelier/pkg/requestcontext"
)

// WithUser marks the request as authenticated, as the auth middleware would.
func WithUser(req *http.Request, userID id.UserID, email string) *http.Request {
	ctx := requestcontext.WithUserID(req.Context(), userID)
	ctx = requestcontext.WithUserEmail(ctx, email)
	return req.WithContext(ctx)
}

// WithClient sets the client IP and user agent the metadata middleware would
// resolve.
func WithClient(req *http.Request, ip, userAgent string) *http.Request {
	ctx := requestcontext.WithClientMetadata(req.Context(), ip, userAgent)
	return req.WithContext(ctx)
}

// WithTime pins the request clock.
func WithTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}
