package audit

import (
	"context"
	"log/slog"
)

// Worker consumes audit events from the publisher's channel and persists
// them. Store failures are logged, not propagated: audit persistence must
// never take the service down.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit append failed",
					"action", event.Action,
					"error", err,
				)
			}
		}
	}
}
