package audit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPipelineDeliversEvents(t *testing.T) {
	store := NewInMemoryStore()
	publisher := NewPublisher(8, discard())
	worker := NewWorker(store, publisher.Inbox(), discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	publisher.Emit(ctx, Event{Action: ActionLoginPasswordOK, Subject: "alice"})
	publisher.Emit(ctx, Event{Action: ActionOTPMatched, Subject: "alice"})

	require.Eventually(t, func() bool {
		events, err := store.BySubject(context.Background(), "alice")
		return err == nil && len(events) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done

	events, err := store.BySubject(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, ActionLoginPasswordOK, events[0].Action)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestEmitDropsWhenBufferFull(t *testing.T) {
	// No worker draining: the buffer fills and later events are dropped
	// instead of blocking the caller.
	publisher := NewPublisher(2, discard())

	ctx := context.Background()
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		for i := 0; i < 10; i++ {
			publisher.Emit(ctx, Event{Action: ActionLoginFailed, Subject: "bob"})
		}
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full buffer")
	}
	assert.Len(t, publisher.Inbox(), 2)
}
