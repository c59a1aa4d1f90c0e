// sync/conflict.go
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	gosync "sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dev-mohitbeniwal/weave/db"
	weave_errors "github.com/dev-mohitbeniwal/weave/errors"
	logger "github.com/dev-mohitbeniwal/weave/logging"
	"github.com/dev-mohitbeniwal/weave/model"
)

// ConflictResolver detects write attempts against actively held write
// locks and records the resulting conflicts. Conflicts live in the
// store for a fixed retention window after creation, regardless of
// resolution status; the in-process map is only a lookup cache and is
// rebuilt from the store on miss.
type ConflictResolver struct {
	store     db.Store
	locks     *LockManager
	events    *EventBus
	retention time.Duration

	mu     gosync.Mutex
	recent map[string]*model.Conflict
}

func NewConflictResolver(store db.Store, locks *LockManager, events *EventBus) *ConflictResolver {
	return &ConflictResolver{
		store:     store,
		locks:     locks,
		events:    events,
		retention: durationOrDefault("sync.conflictRetention", 24*time.Hour),
		recent:    make(map[string]*model.Conflict),
	}
}

// DetectConflict returns a recorded lock_violation conflict when the
// resource holds an active write lock owned by a different user, and
// nil otherwise. Absence of conflict is not an error.
func (cr *ConflictResolver) DetectConflict(ctx context.Context, workspaceID, resourceID, userID, action string, data map[string]interface{}) (*model.Conflict, error) {
	lock, err := cr.locks.GetLock(ctx, workspaceID, resourceID)
	if err != nil {
		return nil, err
	}
	if lock == nil || lock.LockType != model.LockWrite || lock.LockedBy == userID {
		return nil, nil
	}

	now := time.Now()
	conflict := &model.Conflict{
		ID:           uuid.New().String(),
		ResourceID:   resourceID,
		ConflictType: model.ConflictLockViolation,
		Participants: []model.ConflictParticipant{
			{
				UserID:    lock.LockedBy,
				Action:    "holds_lock",
				Timestamp: lock.LockedAt,
			},
			{
				UserID:    userID,
				Action:    action,
				Timestamp: now,
				Data:      data,
			},
		},
		Timestamp: now,
	}

	if err := cr.persist(ctx, workspaceID, conflict, cr.retention); err != nil {
		return nil, err
	}
	if err := cr.store.HSet(ctx, conflictIndexKey(workspaceID), conflict.ID, []byte(resourceID)); err != nil {
		logger.Warn("Failed to index conflict",
			zap.Error(err),
			zap.String("conflictID", conflict.ID))
	}

	cr.mu.Lock()
	cr.recent[conflict.ID] = conflict
	cr.mu.Unlock()

	logger.Info("Conflict detected",
		zap.String("workspaceID", workspaceID),
		zap.String("resourceID", resourceID),
		zap.String("holder", lock.LockedBy),
		zap.String("userID", userID))
	return conflict, nil
}

// ResolveConflict marks the conflict resolved and, when notify is set,
// publishes one content_changed event per participant. The resolution
// action is recorded as-is; applying its data-level effect is the
// caller's responsibility.
func (cr *ConflictResolver) ResolveConflict(ctx context.Context, workspaceID, conflictID string, resolution model.ResolutionAction, notify bool) (*model.Conflict, error) {
	conflict, err := cr.lookup(ctx, workspaceID, conflictID)
	if err != nil {
		return nil, err
	}
	if conflict == nil {
		return nil, weave_errors.ErrConflictNotFound
	}

	conflict.Resolved = true
	conflict.Resolution = resolution

	if err := cr.persist(ctx, workspaceID, conflict, db.KeepTTL); err != nil {
		return nil, err
	}

	cr.mu.Lock()
	cr.recent[conflict.ID] = conflict
	cr.mu.Unlock()

	if notify {
		for _, participant := range conflict.Participants {
			if err := cr.events.Publish(ctx, model.SyncEvent{
				Type:        model.EventContentChanged,
				WorkspaceID: workspaceID,
				Timestamp:   time.Now(),
				Data: map[string]interface{}{
					"conflict_id":    conflict.ID,
					"resource_id":    conflict.ResourceID,
					"resolution":     string(resolution),
					"participant_id": participant.UserID,
				},
			}); err != nil {
				logger.Warn("Failed to notify conflict participant",
					zap.Error(err),
					zap.String("conflictID", conflict.ID),
					zap.String("participantID", participant.UserID))
			}
		}
	}

	logger.Info("Conflict resolved",
		zap.String("workspaceID", workspaceID),
		zap.String("conflictID", conflictID),
		zap.String("resolution", string(resolution)))
	return conflict, nil
}

// ActiveConflicts lists the conflicts still inside their retention
// window, pruning index entries whose records have lapsed.
func (cr *ConflictResolver) ActiveConflicts(ctx context.Context, workspaceID string) ([]model.Conflict, error) {
	index, err := cr.store.HGetAll(ctx, conflictIndexKey(workspaceID))
	if err != nil {
		return nil, fmt.Errorf("failed to read conflict index: %w", err)
	}

	var conflicts []model.Conflict
	var stale []string
	for conflictID := range index {
		conflict, err := cr.load(ctx, workspaceID, conflictID)
		if err != nil {
			return nil, err
		}
		if conflict == nil {
			stale = append(stale, conflictID)
			continue
		}
		conflicts = append(conflicts, *conflict)
	}

	if len(stale) > 0 {
		if err := cr.store.HDel(ctx, conflictIndexKey(workspaceID), stale...); err != nil {
			logger.Warn("Failed to prune conflict index",
				zap.Error(err),
				zap.String("workspaceID", workspaceID))
		}
	}
	return conflicts, nil
}

func (cr *ConflictResolver) lookup(ctx context.Context, workspaceID, conflictID string) (*model.Conflict, error) {
	cr.mu.Lock()
	conflict, ok := cr.recent[conflictID]
	cr.mu.Unlock()
	if ok {
		return conflict, nil
	}
	// The local map is only a cache: fall back to the store so a
	// process restart loses no correctness.
	return cr.load(ctx, workspaceID, conflictID)
}

func (cr *ConflictResolver) load(ctx context.Context, workspaceID, conflictID string) (*model.Conflict, error) {
	data, err := cr.store.Get(ctx, conflictKey(workspaceID, conflictID))
	if err != nil {
		return nil, fmt.Errorf("failed to read conflict: %w", err)
	}
	if data == nil {
		return nil, nil
	}
	var conflict model.Conflict
	if err := json.Unmarshal(data, &conflict); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conflict: %w", err)
	}
	return &conflict, nil
}

func (cr *ConflictResolver) persist(ctx context.Context, workspaceID string, conflict *model.Conflict, ttl time.Duration) error {
	data, err := json.Marshal(conflict)
	if err != nil {
		return fmt.Errorf("failed to marshal conflict: %w", err)
	}
	if err := cr.store.Set(ctx, conflictKey(workspaceID, conflict.ID), data, ttl); err != nil {
		return fmt.Errorf("failed to persist conflict: %w", err)
	}
	return nil
}
