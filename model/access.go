// model/access.go
package model

import "time"

// AccessPolicy layers resource-scoped conditional rules on top of the
// static role permissions carried by the workspace's collaborators. At
// most one policy exists per (workspace, resourceType, resourceID) —
// an empty ResourceID denotes the default policy for the type.
type AccessPolicy struct {
	WorkspaceID      string            `json:"workspace_id"`
	ResourceType     string            `json:"resource_type"`
	ResourceID       string            `json:"resource_id,omitempty"`
	PermissionRules  []PermissionRule  `json:"permission_rules"`
	InheritanceRules map[string]string `json:"inheritance_rules,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

type PermissionRule struct {
	Role        string            `json:"role"`
	Permissions []string          `json:"permissions"`
	Conditions  []AccessCondition `json:"conditions,omitempty"`
}

// AccessCondition is a tagged variant: Type selects the evaluator and
// Params carry its type-specific inputs.
type AccessCondition struct {
	Type   string                 `json:"type"` // e.g. "time_based", "user_attribute", "content_based"
	Params map[string]interface{} `json:"params,omitempty"`
}

// AccessRequest describes one permission check.
type AccessRequest struct {
	UserID       string                 `json:"user_id"`
	WorkspaceID  string                 `json:"workspace_id"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   string                 `json:"resource_id,omitempty"`
	Permission   string                 `json:"permission"`
	Context      map[string]interface{} `json:"context,omitempty"`
}

// AccessDecision is the result of evaluating an AccessRequest. Denials
// are decisions, never errors; Reason is stable and human-readable.
type AccessDecision struct {
	Granted    bool      `json:"granted"`
	Reason     string    `json:"reason"`
	Conditions []string  `json:"conditions,omitempty"`
	ExpiresAt  time.Time `json:"expires_at,omitempty"`
}

// Matches reports whether the rule covers the given role/permission
// pair.
func (r *PermissionRule) Matches(role, permission string) bool {
	if r.Role != role {
		return false
	}
	for _, p := range r.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}
