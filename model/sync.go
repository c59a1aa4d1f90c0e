// model/sync.go
package model

import "time"

type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusAway    PresenceStatus = "away"
	StatusBusy    PresenceStatus = "busy"
	StatusOffline PresenceStatus = "offline"
)

// PresenceRecord is a leased record overwritten on every heartbeat.
type PresenceRecord struct {
	UserID   string         `json:"user_id"`
	Status   PresenceStatus `json:"status"`
	LastSeen time.Time      `json:"last_seen"`
	Activity string         `json:"activity,omitempty"`
}

// CursorPosition is advisory and loss-tolerant; it rides a short lease
// and may be silently superseded before delivery.
type CursorPosition struct {
	UserID    string    `json:"user_id"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	ElementID string    `json:"element_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type LockType string

const (
	LockRead  LockType = "read"
	LockWrite LockType = "write"
)

// LockRecord is the leased mutual-exclusion record for one resource.
// At most one exists per (workspace, resource) at any instant.
type LockRecord struct {
	ResourceID string    `json:"resource_id"`
	LockedBy   string    `json:"locked_by"`
	LockedAt   time.Time `json:"locked_at"`
	LockType   LockType  `json:"lock_type"`
}

type ConflictType string

const (
	ConflictLockViolation ConflictType = "lock_violation"
	// Reserved: no detection path produces these today.
	ConflictConcurrentEdit     ConflictType = "concurrent_edit"
	ConflictVersionMismatch    ConflictType = "version_mismatch"
	ConflictPermissionConflict ConflictType = "permission_conflict"
)

type ResolutionAction string

const (
	ResolutionAcceptFirst  ResolutionAction = "accept_first"
	ResolutionAcceptLast   ResolutionAction = "accept_last"
	ResolutionMergeChanges ResolutionAction = "merge_changes"
	ResolutionRejectAll    ResolutionAction = "reject_all"
)

type ConflictParticipant struct {
	UserID    string                 `json:"user_id"`
	Action    string                 `json:"action"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Conflict records a collision between two actors on one resource. It
// is retained for a fixed window after creation regardless of
// resolution status; only Resolved ever mutates.
type Conflict struct {
	ID           string                `json:"id"`
	ResourceID   string                `json:"resource_id"`
	ConflictType ConflictType          `json:"conflict_type"`
	Participants []ConflictParticipant `json:"participants"`
	Timestamp    time.Time             `json:"timestamp"`
	Resolved     bool                  `json:"resolved"`
	Resolution   ResolutionAction      `json:"resolution,omitempty"`
}
