package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRouterDeliversWatermillSinkEvents(t *testing.T) {
	router, err := NewEventRouter()
	require.NoError(t, err)

	var mu sync.Mutex
	var received []EventType
	router.AddHandler("test-handler", "test-topic", func(msg *message.Message) error {
		event, err := NewEventFromJson(msg.Payload)
		require.NoError(t, err)
		mu.Lock()
		received = append(received, event.Type())
		mu.Unlock()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = router.Run(ctx)
	}()
	<-router.Running()

	sink := NewWatermillSink(router.Publisher, "test-topic")
	metadata := EventMetadata{ID: uuid.New(), RequestID: "req-1"}
	require.NoError(t, sink.PublishEvent(NewStartEvent(metadata)))
	require.NoError(t, sink.PublishEvent(NewFinalEvent(metadata, "done")))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 2
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []EventType{EventTypeStart, EventTypeFinal}, received)

	cancel()
	require.NoError(t, router.Close())
}
