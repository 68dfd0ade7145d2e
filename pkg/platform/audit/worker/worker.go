package worker

import (
	"context"
	"log/slog"

	audit "atelier/pkg/platform/audit"
)

// Worker drains audit events from a channel into a store. Run returns once the
// inbox is closed and every buffered event has been written.
type Worker struct {
	store  audit.Store
	sinks  []audit.Sink
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger, sinks ...audit.Sink) *Worker {
	return &Worker{store: store, sinks: sinks, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) {
	for event := range w.inbox {
		w.Handle(ctx, event)
	}
}

// Handle persists one event and forwards it to every sink. Failures are logged
// so one bad write does not stall the queue.
func (w *Worker) Handle(ctx context.Context, event audit.Event) {
	if err := w.store.Append(ctx, event); err != nil {
		w.warn(ctx, "audit store append failed", event, err)
		return
	}
	for _, sink := range w.sinks {
		if err := sink.Append(ctx, event); err != nil {
			w.warn(ctx, "audit sink append failed", event, err)
		}
	}
}

func (w *Worker) warn(ctx context.Context, msg string, event audit.Event, err error) {
	if w.logger == nil {
		return
	}
	w.logger.WarnContext(ctx, msg, "action", event.Action, "error", err)
}
