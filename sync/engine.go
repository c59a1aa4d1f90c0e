// sync/engine.go
package sync

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dev-mohitbeniwal/weave/db"
	logger "github.com/dev-mohitbeniwal/weave/logging"
	"github.com/dev-mohitbeniwal/weave/model"
)

// Engine is the synchronization facade consumed by the session/API
// layer: presence, locks, conflicts, and event fan-out behind one
// surface.
type Engine struct {
	Presence  *PresenceTracker
	Locks     *LockManager
	Conflicts *ConflictResolver
	Events    *EventBus
}

func NewEngine(store db.Store) *Engine {
	events := NewEventBus(store)
	locks := NewLockManager(store, events)
	return &Engine{
		Presence:  NewPresenceTracker(store, events),
		Locks:     locks,
		Conflicts: NewConflictResolver(store, locks, events),
		Events:    events,
	}
}

// Start launches the presence heartbeat, the engine's only background
// activity.
func (e *Engine) Start(ctx context.Context) {
	e.Presence.Start(ctx)
	logger.Info("Sync engine started")
}

func (e *Engine) Stop() {
	e.Presence.Stop()
	logger.Info("Sync engine stopped")
}

// SubscribeToWorkspace registers a local callback for the workspace's
// events and announces the user to other collaborators.
func (e *Engine) SubscribeToWorkspace(ctx context.Context, workspaceID, userID string, callback Callback) (string, error) {
	subscriberID, err := e.Events.Subscribe(ctx, workspaceID, userID, callback)
	if err != nil {
		return "", err
	}

	if err := e.Events.Publish(ctx, model.SyncEvent{
		Type:        model.EventUserJoined,
		WorkspaceID: workspaceID,
		UserID:      userID,
		Timestamp:   time.Now(),
	}); err != nil {
		logger.Warn("Failed to announce user join",
			zap.Error(err),
			zap.String("workspaceID", workspaceID),
			zap.String("userID", userID))
	}
	return subscriberID, nil
}

// UnsubscribeFromWorkspace announces the departure (best-effort) and
// removes the local subscriber.
func (e *Engine) UnsubscribeFromWorkspace(ctx context.Context, workspaceID, userID, subscriberID string) error {
	if err := e.Events.Publish(ctx, model.SyncEvent{
		Type:        model.EventUserLeft,
		WorkspaceID: workspaceID,
		UserID:      userID,
		Timestamp:   time.Now(),
	}); err != nil {
		logger.Warn("Failed to announce user departure",
			zap.Error(err),
			zap.String("workspaceID", workspaceID),
			zap.String("userID", userID))
	}
	return e.Events.Unsubscribe(ctx, workspaceID, subscriberID)
}

func (e *Engine) UpdateUserPresence(ctx context.Context, workspaceID, userID string, status model.PresenceStatus, activity string) error {
	return e.Presence.UpdatePresence(ctx, workspaceID, userID, status, activity)
}

func (e *Engine) UpdateCursorPosition(ctx context.Context, workspaceID, userID string, position model.CursorPosition) error {
	return e.Presence.UpdateCursorPosition(ctx, workspaceID, userID, position)
}

func (e *Engine) GetActiveUsers(ctx context.Context, workspaceID string) ([]model.PresenceRecord, error) {
	return e.Presence.GetActiveUsers(ctx, workspaceID)
}

func (e *Engine) AcquireLock(ctx context.Context, workspaceID, resourceID, userID string, lockType model.LockType) (bool, error) {
	return e.Locks.AcquireLock(ctx, workspaceID, resourceID, userID, lockType)
}

func (e *Engine) ReleaseLock(ctx context.Context, workspaceID, resourceID, userID string) error {
	return e.Locks.ReleaseLock(ctx, workspaceID, resourceID, userID)
}

func (e *Engine) DetectConflict(ctx context.Context, workspaceID, resourceID, userID, action string, data map[string]interface{}) (*model.Conflict, error) {
	return e.Conflicts.DetectConflict(ctx, workspaceID, resourceID, userID, action, data)
}

func (e *Engine) ResolveConflict(ctx context.Context, workspaceID, conflictID string, resolution model.ResolutionAction, notify bool) (*model.Conflict, error) {
	return e.Conflicts.ResolveConflict(ctx, workspaceID, conflictID, resolution, notify)
}
