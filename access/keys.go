// access/keys.go
package access

import "fmt"

// Key semantics:
// - policyKey:     AccessPolicy JSON; empty resourceID addresses the
//                  type's default policy
// - decisionKey:   cached AccessDecision JSON per composite request key
// - decisionScope: prefix covering every cached decision a policy
//                  mutation at that scope may have affected

func policyKey(workspaceID, resourceType, resourceID string) string {
	if resourceID == "" {
		resourceID = "default"
	}
	return fmt.Sprintf("access:policy:%s:%s:%s", workspaceID, resourceType, resourceID)
}

func decisionKey(workspaceID, resourceType, resourceID, userID, permission string) string {
	if resourceID == "" {
		resourceID = "default"
	}
	return fmt.Sprintf("access:decision:%s:%s:%s:%s:%s", workspaceID, resourceType, resourceID, userID, permission)
}

func decisionScope(workspaceID, resourceType string) string {
	return fmt.Sprintf("access:decision:%s:%s:", workspaceID, resourceType)
}
