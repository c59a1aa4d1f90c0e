// model/workspace.go
package model

// Workspace is owned by the workspace-management subsystem; this core
// only ever reads it to resolve collaborator membership and roles.
type Workspace struct {
	ID            string         `json:"id"`
	Name          string         `json:"name,omitempty"`
	Collaborators []Collaborator `json:"collaborators"`
}

type Collaborator struct {
	UserID      string   `json:"user_id"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// Collaborator returns the membership record for userID, or nil when
// the user is not a collaborator of this workspace.
func (w *Workspace) Collaborator(userID string) *Collaborator {
	for i := range w.Collaborators {
		if w.Collaborators[i].UserID == userID {
			return &w.Collaborators[i]
		}
	}
	return nil
}

// HasPermission reports whether the collaborator's static permission
// set includes the given permission.
func (c *Collaborator) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}
