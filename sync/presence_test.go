// sync/presence_test.go
package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-mohitbeniwal/weave/model"
	"github.com/dev-mohitbeniwal/weave/test/mock"
)

func newPresenceFixture() (*mock.FakeStore, *PresenceTracker) {
	store := mock.NewFakeStore()
	return store, NewPresenceTracker(store, NewEventBus(store))
}

func TestUpdatePresenceAndGetActiveUsers(t *testing.T) {
	store, pt := newPresenceFixture()
	ctx := context.Background()

	require.NoError(t, pt.UpdatePresence(ctx, "ws1", "alice", model.StatusOnline, "editing"))
	require.NoError(t, pt.UpdatePresence(ctx, "ws1", "bob", model.StatusBusy, ""))
	require.NoError(t, pt.UpdatePresence(ctx, "ws1", "carol", model.StatusOffline, ""))
	require.NoError(t, pt.UpdatePresence(ctx, "ws2", "dave", model.StatusOnline, ""))

	active, err := pt.GetActiveUsers(ctx, "ws1")
	require.NoError(t, err)
	require.Len(t, active, 2, "offline users and other workspaces are excluded")
	users := map[string]model.PresenceStatus{}
	for _, record := range active {
		users[record.UserID] = record.Status
	}
	assert.Equal(t, model.StatusOnline, users["alice"])
	assert.Equal(t, model.StatusBusy, users["bob"])

	assert.Len(t, publishedEvents(t, store, "ws1", model.EventUserStatusChanged), 3)
}

func TestPresenceLeaseExpiry(t *testing.T) {
	store, pt := newPresenceFixture()
	ctx := context.Background()

	require.NoError(t, pt.UpdatePresence(ctx, "ws1", "alice", model.StatusOnline, ""))

	store.Advance(301 * time.Second)

	active, err := pt.GetActiveUsers(ctx, "ws1")
	require.NoError(t, err)
	assert.Empty(t, active, "silent users drop out after the presence TTL")
}

func TestCursorLease(t *testing.T) {
	store, pt := newPresenceFixture()
	ctx := context.Background()

	require.NoError(t, pt.UpdateCursorPosition(ctx, "ws1", "alice", model.CursorPosition{X: 10, Y: 20, ElementID: "para-3"}))

	positions, err := pt.GetCursorPositions(ctx, "ws1")
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, "alice", positions[0].UserID)
	assert.Equal(t, float64(10), positions[0].X)

	store.Advance(31 * time.Second)

	positions, err = pt.GetCursorPositions(ctx, "ws1")
	require.NoError(t, err)
	assert.Empty(t, positions, "cursor leases are short-lived")

	assert.Len(t, publishedEvents(t, store, "ws1", model.EventCursorMoved), 1)
}

func TestHeartbeatRenewsTrackedUsers(t *testing.T) {
	store, pt := newPresenceFixture()
	ctx := context.Background()

	require.NoError(t, pt.UpdatePresence(ctx, "ws1", "alice", model.StatusOnline, "editing"))
	require.NoError(t, pt.UpdatePresence(ctx, "ws1", "bob", model.StatusOffline, ""))

	// Renewal before the lease lapses keeps alice alive well past the
	// original TTL; bob went offline and is not renewed.
	store.Advance(250 * time.Second)
	pt.heartbeat(ctx)
	store.Advance(250 * time.Second)

	active, err := pt.GetActiveUsers(ctx, "ws1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "alice", active[0].UserID)
}

func TestStopHaltsHeartbeat(t *testing.T) {
	_, pt := newPresenceFixture()

	pt.Start(context.Background())
	pt.Stop()
	// Stopping twice is safe.
	pt.Stop()
}
