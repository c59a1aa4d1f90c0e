// model/event.go
package model

import "time"

type SyncEventType string

const (
	EventUserJoined        SyncEventType = "user_joined"
	EventUserLeft          SyncEventType = "user_left"
	EventUserStatusChanged SyncEventType = "user_status_changed"
	EventCursorMoved       SyncEventType = "cursor_moved"
	EventContentChanged    SyncEventType = "content_changed"
	EventLockAcquired      SyncEventType = "lock_acquired"
	EventLockReleased      SyncEventType = "lock_released"
	EventConflictDetected  SyncEventType = "conflict_detected"
	EventConflictResolved  SyncEventType = "conflict_resolved"
)

// SyncEvent is the wire schema published on a workspace channel. Data
// is a type-tagged payload keyed by Type.
type SyncEvent struct {
	Type        SyncEventType          `json:"type"`
	WorkspaceID string                 `json:"workspace_id"`
	UserID      string                 `json:"user_id"`
	Timestamp   time.Time              `json:"timestamp"`
	Data        map[string]interface{} `json:"data,omitempty"`
}
