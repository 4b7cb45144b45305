package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Store is an append-only sink for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Publisher hands events to the worker via a bounded channel. Emission never
// blocks a request: when the buffer is full the event is dropped and logged.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewPublisher(buffer int, logger *slog.Logger) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Inbox exposes the channel for the worker.
func (p *Publisher) Inbox() <-chan Event { return p.inbox }

// Emit enqueues an event, stamping ID and timestamp if unset.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit buffer full, event dropped",
			"action", event.Action,
			"subject", event.Subject,
		)
	}
}
