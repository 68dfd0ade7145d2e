package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"atelier/pkg/platform/httputil"
	request "atelier/pkg/platform/middleware/request"
)

// HeaderAdminToken carries the operator token for /admin routes.
const HeaderAdminToken = "X-Admin-Token"

// RequireAdminToken guards operator endpoints. An empty expected token
// disables the routes entirely.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if expectedToken == "" {
				httputil.WriteJSON(w, http.StatusForbidden, httputil.ErrorResponse{
					Error:            "forbidden",
					ErrorDescription: "admin API disabled",
				})
				return
			}
			token := r.Header.Get(HeaderAdminToken)
			if subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", request.GetRequestID(ctx),
				)
				httputil.WriteJSON(w, http.StatusForbidden, httputil.ErrorResponse{
					Error:            "forbidden",
					ErrorDescription: "admin token required",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
