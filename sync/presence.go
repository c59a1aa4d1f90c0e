// sync/presence.go
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	gosync "sync"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dev-mohitbeniwal/weave/db"
	logger "github.com/dev-mohitbeniwal/weave/logging"
	"github.com/dev-mohitbeniwal/weave/model"
)

// PresenceTracker leases user status and cursor positions per
// workspace. Presence rides a fixed TTL refreshed by heartbeats;
// cursors ride a much shorter one and are purely advisory. The
// tracked-user map is a local convenience for heartbeat renewal, not
// a source of truth: the store's leases decide who is active.
type PresenceTracker struct {
	store  db.Store
	events *EventBus

	presenceTTL       time.Duration
	cursorTTL         time.Duration
	heartbeatInterval time.Duration

	mu      gosync.Mutex
	tracked map[string]map[string]trackedUser // workspaceID -> userID
	cancel  context.CancelFunc
}

type trackedUser struct {
	status   model.PresenceStatus
	activity string
}

func NewPresenceTracker(store db.Store, events *EventBus) *PresenceTracker {
	return &PresenceTracker{
		store:             store,
		events:            events,
		presenceTTL:       durationOrDefault("sync.presenceTTL", 300*time.Second),
		cursorTTL:         durationOrDefault("sync.cursorTTL", 30*time.Second),
		heartbeatInterval: durationOrDefault("sync.heartbeatInterval", 60*time.Second),
		tracked:           make(map[string]map[string]trackedUser),
	}
}

func durationOrDefault(key string, fallback time.Duration) time.Duration {
	if d := viper.GetDuration(key); d > 0 {
		return d
	}
	return fallback
}

// UpdatePresence (re)writes the user's presence lease and broadcasts
// the status change. An offline status still writes the record, so
// observers see the transition until the lease lapses, but stops
// heartbeat renewal for the user.
func (pt *PresenceTracker) UpdatePresence(ctx context.Context, workspaceID, userID string, status model.PresenceStatus, activity string) error {
	record := model.PresenceRecord{
		UserID:   userID,
		Status:   status,
		LastSeen: time.Now(),
		Activity: activity,
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal presence record: %w", err)
	}
	if err := pt.store.Set(ctx, presenceKey(workspaceID, userID), data, pt.presenceTTL); err != nil {
		return fmt.Errorf("failed to update presence: %w", err)
	}

	pt.mu.Lock()
	if status == model.StatusOffline {
		if users, ok := pt.tracked[workspaceID]; ok {
			delete(users, userID)
			if len(users) == 0 {
				delete(pt.tracked, workspaceID)
			}
		}
	} else {
		if pt.tracked[workspaceID] == nil {
			pt.tracked[workspaceID] = make(map[string]trackedUser)
		}
		pt.tracked[workspaceID][userID] = trackedUser{status: status, activity: activity}
	}
	pt.mu.Unlock()

	return pt.events.Publish(ctx, model.SyncEvent{
		Type:        model.EventUserStatusChanged,
		WorkspaceID: workspaceID,
		UserID:      userID,
		Timestamp:   record.LastSeen,
		Data: map[string]interface{}{
			"status":   string(status),
			"activity": activity,
		},
	})
}

// UpdateCursorPosition writes the short-lived cursor lease and
// broadcasts it. Best-effort: a later update may silently supersede
// this one before anyone sees it.
func (pt *PresenceTracker) UpdateCursorPosition(ctx context.Context, workspaceID, userID string, position model.CursorPosition) error {
	position.UserID = userID
	if position.Timestamp.IsZero() {
		position.Timestamp = time.Now()
	}

	data, err := json.Marshal(position)
	if err != nil {
		return fmt.Errorf("failed to marshal cursor position: %w", err)
	}
	if err := pt.store.Set(ctx, cursorKey(workspaceID, userID), data, pt.cursorTTL); err != nil {
		return fmt.Errorf("failed to update cursor position: %w", err)
	}

	return pt.events.Publish(ctx, model.SyncEvent{
		Type:        model.EventCursorMoved,
		WorkspaceID: workspaceID,
		UserID:      userID,
		Timestamp:   position.Timestamp,
		Data: map[string]interface{}{
			"x":          position.X,
			"y":          position.Y,
			"element_id": position.ElementID,
		},
	})
}

// GetActiveUsers enumerates all non-expired presence records for the
// workspace, excluding users whose last known status is offline.
func (pt *PresenceTracker) GetActiveUsers(ctx context.Context, workspaceID string) ([]model.PresenceRecord, error) {
	keys, err := pt.store.ScanPrefix(ctx, presencePrefix(workspaceID))
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate presence records: %w", err)
	}

	records := make([]*model.PresenceRecord, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			data, err := pt.store.Get(gctx, key)
			if err != nil {
				return err
			}
			if data == nil {
				return nil // lease expired between scan and get
			}
			var record model.PresenceRecord
			if err := json.Unmarshal(data, &record); err != nil {
				logger.Warn("Skipping malformed presence record", zap.Error(err), zap.String("key", key))
				return nil
			}
			records[i] = &record
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load presence records: %w", err)
	}

	active := make([]model.PresenceRecord, 0, len(records))
	for _, record := range records {
		if record != nil && record.Status != model.StatusOffline {
			active = append(active, *record)
		}
	}
	return active, nil
}

// GetCursorPositions returns the live cursor leases for a workspace.
func (pt *PresenceTracker) GetCursorPositions(ctx context.Context, workspaceID string) ([]model.CursorPosition, error) {
	keys, err := pt.store.ScanPrefix(ctx, cursorPrefix(workspaceID))
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate cursor positions: %w", err)
	}

	positions := make([]model.CursorPosition, 0, len(keys))
	for _, key := range keys {
		data, err := pt.store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if data == nil {
			continue
		}
		var position model.CursorPosition
		if err := json.Unmarshal(data, &position); err != nil {
			logger.Warn("Skipping malformed cursor position", zap.Error(err), zap.String("key", key))
			continue
		}
		positions = append(positions, position)
	}
	return positions, nil
}

// Start launches the heartbeat loop renewing every locally tracked
// user's lease, so clients need not ping on every tick. Independent
// per process; renewal is idempotent across processes.
func (pt *PresenceTracker) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	pt.mu.Lock()
	pt.cancel = cancel
	pt.mu.Unlock()

	go func() {
		ticker := time.NewTicker(pt.heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				pt.heartbeat(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the heartbeat loop. Leases lapse on their own.
func (pt *PresenceTracker) Stop() {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	if pt.cancel != nil {
		pt.cancel()
		pt.cancel = nil
	}
}

func (pt *PresenceTracker) heartbeat(ctx context.Context) {
	pt.mu.Lock()
	snapshot := make(map[string]map[string]trackedUser, len(pt.tracked))
	for workspaceID, users := range pt.tracked {
		copied := make(map[string]trackedUser, len(users))
		for userID, u := range users {
			copied[userID] = u
		}
		snapshot[workspaceID] = copied
	}
	pt.mu.Unlock()

	for workspaceID, users := range snapshot {
		for userID, u := range users {
			if err := pt.UpdatePresence(ctx, workspaceID, userID, u.status, u.activity); err != nil {
				logger.Warn("Heartbeat renewal failed",
					zap.Error(err),
					zap.String("workspaceID", workspaceID),
					zap.String("userID", userID))
			}
		}
	}
}
