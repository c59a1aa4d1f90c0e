// sync/lock.go
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dev-mohitbeniwal/weave/db"
	logger "github.com/dev-mohitbeniwal/weave/logging"
	"github.com/dev-mohitbeniwal/weave/model"
)

// LockManager leases mutual-exclusion locks over resource identifiers
// within a workspace. Acquisition is a single atomic set-if-absent on
// the store; TTL expiry is the only deadlock prevention against a
// crashed holder. Locks are never auto-renewed.
type LockManager struct {
	store   db.Store
	events  *EventBus
	lockTTL time.Duration
}

func NewLockManager(store db.Store, events *EventBus) *LockManager {
	return &LockManager{
		store:   store,
		events:  events,
		lockTTL: durationOrDefault("sync.lockTTL", 300*time.Second),
	}
}

// AcquireLock attempts the conditional write and reports whether the
// caller won the race. Contention is not an error.
func (lm *LockManager) AcquireLock(ctx context.Context, workspaceID, resourceID, userID string, lockType model.LockType) (bool, error) {
	record := model.LockRecord{
		ResourceID: resourceID,
		LockedBy:   userID,
		LockedAt:   time.Now(),
		LockType:   lockType,
	}
	data, err := json.Marshal(record)
	if err != nil {
		return false, fmt.Errorf("failed to marshal lock record: %w", err)
	}

	acquired, err := lm.store.SetNX(ctx, lockKey(workspaceID, resourceID), data, lm.lockTTL)
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		logger.Debug("Lock contention",
			zap.String("workspaceID", workspaceID),
			zap.String("resourceID", resourceID),
			zap.String("userID", userID))
		return false, nil
	}

	if err := lm.events.Publish(ctx, model.SyncEvent{
		Type:        model.EventLockAcquired,
		WorkspaceID: workspaceID,
		UserID:      userID,
		Timestamp:   record.LockedAt,
		Data: map[string]interface{}{
			"resource_id": resourceID,
			"lock_type":   string(lockType),
		},
	}); err != nil {
		logger.Warn("Failed to broadcast lock acquisition", zap.Error(err))
	}
	return true, nil
}

// ReleaseLock deletes the lock only when userID holds it. Releasing a
// lock you do not own is a silent no-op: it must never clear another
// holder's lock.
func (lm *LockManager) ReleaseLock(ctx context.Context, workspaceID, resourceID, userID string) error {
	record, err := lm.GetLock(ctx, workspaceID, resourceID)
	if err != nil {
		return err
	}
	if record == nil {
		return nil
	}
	if record.LockedBy != userID {
		logger.Debug("Release attempted by non-owner",
			zap.String("workspaceID", workspaceID),
			zap.String("resourceID", resourceID),
			zap.String("holder", record.LockedBy),
			zap.String("userID", userID))
		return nil
	}

	if err := lm.store.Del(ctx, lockKey(workspaceID, resourceID)); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}

	if err := lm.events.Publish(ctx, model.SyncEvent{
		Type:        model.EventLockReleased,
		WorkspaceID: workspaceID,
		UserID:      userID,
		Timestamp:   time.Now(),
		Data: map[string]interface{}{
			"resource_id": resourceID,
		},
	}); err != nil {
		logger.Warn("Failed to broadcast lock release", zap.Error(err))
	}
	return nil
}

// GetLock returns the current lock record for a resource, or nil when
// no live lease exists.
func (lm *LockManager) GetLock(ctx context.Context, workspaceID, resourceID string) (*model.LockRecord, error) {
	data, err := lm.store.Get(ctx, lockKey(workspaceID, resourceID))
	if err != nil {
		return nil, fmt.Errorf("failed to read lock record: %w", err)
	}
	if data == nil {
		return nil, nil
	}
	var record model.LockRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lock record: %w", err)
	}
	return &record, nil
}
