package audit

import (
	"context"
	"log/slog"

	request "atelier/pkg/platform/middleware/request"
)

// LogAudit writes an audit line to the structured logger and emits the event
// to the publisher when one is configured. Emission failures are logged, never
// returned: audit must not break the request path.
func LogAudit(ctx context.Context, logger *slog.Logger, publisher Emitter, event Event, attrs ...any) {
	if event.RequestID == "" {
		event.RequestID = request.GetRequestID(ctx)
	}
	if event.RequestID != "" {
		attrs = append(attrs, "request_id", event.RequestID)
	}
	if !event.UserID.IsNil() {
		attrs = append(attrs, "user_id", event.UserID.String())
	}
	args := append(attrs, "event", event.Action, "log_type", "audit")

	if logger != nil {
		logger.InfoContext(ctx, event.Action, args...)
	}

	if publisher == nil {
		return
	}
	if err := publisher.Emit(ctx, event); err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to emit audit event", "event", event.Action, "error", err)
	}
}
