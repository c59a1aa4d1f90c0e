// sync/event_bus_test.go
package sync

import (
	"context"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-mohitbeniwal/weave/model"
	"github.com/dev-mohitbeniwal/weave/test/mock"
)

type eventRecorder struct {
	mu     gosync.Mutex
	events []model.SyncEvent
}

func (r *eventRecorder) callback(event model.SyncEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestEventBusEchoSuppression(t *testing.T) {
	store := mock.NewFakeStore()
	bus := NewEventBus(store)
	ctx := context.Background()

	alice := &eventRecorder{}
	bob := &eventRecorder{}
	_, err := bus.Subscribe(ctx, "ws1", "alice", alice.callback)
	require.NoError(t, err)
	_, err = bus.Subscribe(ctx, "ws1", "bob", bob.callback)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, model.SyncEvent{
		Type:        model.EventContentChanged,
		WorkspaceID: "ws1",
		UserID:      "alice",
		Timestamp:   time.Now(),
	}))

	require.Eventually(t, func() bool { return bob.count() == 1 },
		time.Second, 5*time.Millisecond, "other subscribers receive the event")
	assert.Equal(t, 0, alice.count(), "the originator's own callbacks are suppressed")
}

func TestEventBusChannelRefcounting(t *testing.T) {
	store := mock.NewFakeStore()
	bus := NewEventBus(store)
	ctx := context.Background()

	first, err := bus.Subscribe(ctx, "ws1", "alice", func(model.SyncEvent) {})
	require.NoError(t, err)
	second, err := bus.Subscribe(ctx, "ws1", "bob", func(model.SyncEvent) {})
	require.NoError(t, err)

	// Both local subscribers share one store channel.
	assert.Equal(t, 1, store.OpenSubscriptions(eventChannel("ws1")))

	require.NoError(t, bus.Unsubscribe(ctx, "ws1", first))
	assert.Equal(t, 1, store.OpenSubscriptions(eventChannel("ws1")))

	require.NoError(t, bus.Unsubscribe(ctx, "ws1", second))
	assert.Equal(t, 0, store.OpenSubscriptions(eventChannel("ws1")),
		"the channel closes when the last subscriber leaves")
}

func TestEventBusCallbackPanicIsolation(t *testing.T) {
	store := mock.NewFakeStore()
	bus := NewEventBus(store)
	ctx := context.Background()

	healthy := &eventRecorder{}
	_, err := bus.Subscribe(ctx, "ws1", "alice", func(model.SyncEvent) {
		panic("subscriber bug")
	})
	require.NoError(t, err)
	_, err = bus.Subscribe(ctx, "ws1", "bob", healthy.callback)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, model.SyncEvent{
		Type:        model.EventContentChanged,
		WorkspaceID: "ws1",
		UserID:      "system",
		Timestamp:   time.Now(),
	}))

	require.Eventually(t, func() bool { return healthy.count() == 1 },
		time.Second, 5*time.Millisecond, "a panicking callback must not abort fan-out")
}

func TestEventBusWorkspaceIsolation(t *testing.T) {
	store := mock.NewFakeStore()
	bus := NewEventBus(store)
	ctx := context.Background()

	ws1 := &eventRecorder{}
	ws2 := &eventRecorder{}
	_, err := bus.Subscribe(ctx, "ws1", "alice", ws1.callback)
	require.NoError(t, err)
	_, err = bus.Subscribe(ctx, "ws2", "alice", ws2.callback)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, model.SyncEvent{
		Type:        model.EventContentChanged,
		WorkspaceID: "ws1",
		UserID:      "bob",
		Timestamp:   time.Now(),
	}))

	require.Eventually(t, func() bool { return ws1.count() == 1 },
		time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, ws2.count(), "workspaces are independent channels")
}
