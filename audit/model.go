// audit/model.go
package audit

import "time"

const (
	ActionAccessCheck       = "access_check"
	ActionPermissionChanged = "permission_changed"
)

// Entry is one immutable audit record: either a single access
// decision or a permission mutation.
type Entry struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	WorkspaceID  string    `json:"workspace_id"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id,omitempty"`
	Permission   string    `json:"permission"`
	Action       string    `json:"action"`
	Granted      bool      `json:"granted"`
	Reason       string    `json:"reason,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}
