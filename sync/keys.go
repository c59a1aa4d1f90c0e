// sync/keys.go
package sync

import "fmt"

// Key semantics:
// - presenceKey:      leased PresenceRecord JSON, one per (workspace, user)
// - cursorKey:        short-leased CursorPosition JSON
// - lockKey:          leased LockRecord JSON, at most one per (workspace, resource)
// - conflictKey:      Conflict JSON, retained for the conflict window
// - conflictIndexKey: Hash<conflictID -> resourceID> per workspace
// - eventChannel:     pub/sub channel carrying SyncEvent JSON

func presenceKey(workspaceID, userID string) string {
	return fmt.Sprintf("presence:%s:%s", workspaceID, userID)
}

func presencePrefix(workspaceID string) string {
	return fmt.Sprintf("presence:%s:", workspaceID)
}

func cursorKey(workspaceID, userID string) string {
	return fmt.Sprintf("cursor:%s:%s", workspaceID, userID)
}

func cursorPrefix(workspaceID string) string {
	return fmt.Sprintf("cursor:%s:", workspaceID)
}

func lockKey(workspaceID, resourceID string) string {
	return fmt.Sprintf("lock:%s:%s", workspaceID, resourceID)
}

func conflictKey(workspaceID, conflictID string) string {
	return fmt.Sprintf("conflict:%s:%s", workspaceID, conflictID)
}

func conflictIndexKey(workspaceID string) string {
	return fmt.Sprintf("conflict:index:%s", workspaceID)
}

func eventChannel(workspaceID string) string {
	return fmt.Sprintf("events:%s", workspaceID)
}
