package metadata

import (
	"context"
	"net"
	"net/http"
	"strings"

	"atelier/pkg/requestcontext"
)

// ClientMetadata extracts client IP address and User-Agent from the request
// and adds them to the context. Forwarding headers are honoured only when
// trustProxy is set; otherwise a client could rotate X-Forwarded-For to reset
// its guest allowance.
func ClientMetadata(trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIPFromRequest(r, trustProxy)
			ctx := requestcontext.WithClientMetadata(r.Context(), ip, r.Header.Get("User-Agent"))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClientIP retrieves the client IP address from the context.
func GetClientIP(ctx context.Context) string {
	return requestcontext.ClientIP(ctx)
}

// GetUserAgent retrieves the User-Agent from the context.
func GetUserAgent(ctx context.Context) string {
	return requestcontext.UserAgent(ctx)
}

// ClientIPFromRequest extracts the client IP, optionally trusting proxy headers.
func ClientIPFromRequest(r *http.Request, trustProxy bool) string {
	if trustProxy {
		// X-Forwarded-For can contain multiple IPs (client, proxy1, proxy2, ...);
		// the first is the original client.
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := normalizeIP(first); ip != "" {
				return ip
			}
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			if ip := normalizeIP(xri); ip != "" {
				return ip
			}
		}
	}

	if addr := r.RemoteAddr; addr != "" {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		if ip := normalizeIP(host); ip != "" {
			return ip
		}
	}

	return "unknown"
}

func normalizeIP(raw string) string {
	ip := net.ParseIP(strings.Trim(strings.TrimSpace(raw), "[]"))
	if ip == nil {
		return ""
	}
	return ip.String()
}
