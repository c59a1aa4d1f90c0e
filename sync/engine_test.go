// sync/engine_test.go
package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-mohitbeniwal/weave/model"
	"github.com/dev-mohitbeniwal/weave/test/mock"
)

func TestEngineSubscribeAnnouncesJoinAndLeave(t *testing.T) {
	store := mock.NewFakeStore()
	engine := NewEngine(store)
	ctx := context.Background()

	subscriberID, err := engine.SubscribeToWorkspace(ctx, "ws1", "alice", func(model.SyncEvent) {})
	require.NoError(t, err)

	joins := publishedEvents(t, store, "ws1", model.EventUserJoined)
	require.Len(t, joins, 1)
	assert.Equal(t, "alice", joins[0].UserID)

	require.NoError(t, engine.UnsubscribeFromWorkspace(ctx, "ws1", "alice", subscriberID))

	leaves := publishedEvents(t, store, "ws1", model.EventUserLeft)
	require.Len(t, leaves, 1)
	assert.Equal(t, "alice", leaves[0].UserID)
	assert.Equal(t, 0, store.OpenSubscriptions(eventChannel("ws1")))
}

func TestEngineEndToEndLockConflictFlow(t *testing.T) {
	store := mock.NewFakeStore()
	engine := NewEngine(store)
	ctx := context.Background()

	acquired, err := engine.AcquireLock(ctx, "ws1", "doc1", "alice", model.LockWrite)
	require.NoError(t, err)
	require.True(t, acquired)

	conflict, err := engine.DetectConflict(ctx, "ws1", "doc1", "bob", "edit", map[string]interface{}{"delta": "abc"})
	require.NoError(t, err)
	require.NotNil(t, conflict)

	resolved, err := engine.ResolveConflict(ctx, "ws1", conflict.ID, model.ResolutionAcceptLast, true)
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	assert.Len(t, publishedEvents(t, store, "ws1", model.EventContentChanged), 2)

	require.NoError(t, engine.ReleaseLock(ctx, "ws1", "doc1", "alice"))
	record, err := engine.Locks.GetLock(ctx, "ws1", "doc1")
	require.NoError(t, err)
	assert.Nil(t, record)
}
