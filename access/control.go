// access/control.go
package access

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dev-mohitbeniwal/weave/audit"
	"github.com/dev-mohitbeniwal/weave/dao"
	"github.com/dev-mohitbeniwal/weave/db"
	weave_errors "github.com/dev-mohitbeniwal/weave/errors"
	logger "github.com/dev-mohitbeniwal/weave/logging"
	"github.com/dev-mohitbeniwal/weave/model"
)

// Control is the single entry point for permission checks and
// grants/revocations. Every full evaluation and every permission
// mutation leaves exactly one audit entry; pure cache hits were
// audited when the decision was first made.
type Control struct {
	workspaces dao.WorkspaceProvider
	policies   *PolicyStore
	evaluator  *PolicyEvaluator
	cache      *DecisionCache
	audit      audit.Service
}

func NewControl(workspaces dao.WorkspaceProvider, store db.Store, auditService audit.Service) *Control {
	policies := NewPolicyStore(store)
	return &Control{
		workspaces: workspaces,
		policies:   policies,
		evaluator:  NewPolicyEvaluator(policies, NewConditionRegistry()),
		cache:      NewDecisionCache(store),
		audit:      auditService,
	}
}

// CheckAccess resolves the request into a decision. Denials are
// decisions with stable reason strings, never errors; only store or
// workspace-lookup failures return an error.
func (ac *Control) CheckAccess(ctx context.Context, request *model.AccessRequest) (*model.AccessDecision, error) {
	if cached := ac.cache.Get(ctx, request); cached != nil {
		logger.Debug("Access decision cache hit",
			zap.String("userID", request.UserID),
			zap.String("workspaceID", request.WorkspaceID),
			zap.String("permission", request.Permission))
		return cached, nil
	}

	decision, err := ac.evaluate(ctx, request)
	if err != nil {
		return nil, err
	}

	ac.cache.Set(ctx, request, decision)

	if err := ac.audit.Record(ctx, audit.Entry{
		UserID:       request.UserID,
		WorkspaceID:  request.WorkspaceID,
		ResourceType: request.ResourceType,
		ResourceID:   request.ResourceID,
		Permission:   request.Permission,
		Action:       audit.ActionAccessCheck,
		Granted:      decision.Granted,
		Reason:       decision.Reason,
		Timestamp:    time.Now(),
	}); err != nil {
		logger.Error("Failed to append audit entry",
			zap.Error(err),
			zap.String("userID", request.UserID),
			zap.String("workspaceID", request.WorkspaceID))
	}

	return decision, nil
}

func (ac *Control) evaluate(ctx context.Context, request *model.AccessRequest) (*model.AccessDecision, error) {
	workspace, err := ac.workspaces.GetWorkspace(ctx, request.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if workspace == nil {
		return &model.AccessDecision{Granted: false, Reason: "workspace not found"}, nil
	}

	collaborator := workspace.Collaborator(request.UserID)
	if collaborator == nil {
		return &model.AccessDecision{Granted: false, Reason: "user is not a collaborator"}, nil
	}

	// Role gate: checked before any policy, and no policy may grant
	// beyond what the static role permission set allows.
	if !collaborator.HasPermission(request.Permission) {
		return &model.AccessDecision{
			Granted: false,
			Reason:  fmt.Sprintf("role %s does not have %s permission", collaborator.Role, request.Permission),
		}, nil
	}

	return ac.evaluator.Evaluate(ctx, request, collaborator)
}

// GrantPermission writes a narrowly scoped policy rule giving one
// permission to one user (scoped by role plus a user_id condition),
// invalidates the affected decision cache scope, and audits the
// mutation.
func (ac *Control) GrantPermission(ctx context.Context, workspaceID, userID, resourceType, resourceID, permission string) error {
	workspace, err := ac.workspaces.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return err
	}
	if workspace == nil {
		return weave_errors.ErrWorkspaceNotFound
	}
	collaborator := workspace.Collaborator(userID)
	if collaborator == nil {
		return fmt.Errorf("user %s is not a collaborator of workspace %s", userID, workspaceID)
	}

	policy, err := ac.policies.GetPolicy(ctx, workspaceID, resourceType, resourceID)
	if err != nil {
		return err
	}
	now := time.Now()
	if policy == nil {
		policy = &model.AccessPolicy{
			WorkspaceID:  workspaceID,
			ResourceType: resourceType,
			ResourceID:   resourceID,
			CreatedAt:    now,
		}
	}
	policy.UpdatedAt = now

	rule := findUserRule(policy, collaborator.Role, userID)
	if rule == nil {
		policy.PermissionRules = append(policy.PermissionRules, model.PermissionRule{
			Role: collaborator.Role,
			Conditions: []model.AccessCondition{{
				Type:   ConditionUserAttribute,
				Params: map[string]interface{}{"attribute": "user_id", "value": userID},
			}},
		})
		rule = &policy.PermissionRules[len(policy.PermissionRules)-1]
	}
	if !containsString(rule.Permissions, permission) {
		rule.Permissions = append(rule.Permissions, permission)
	}

	if err := ac.policies.SavePolicy(ctx, policy); err != nil {
		return err
	}
	if err := ac.cache.Invalidate(ctx, workspaceID, resourceType); err != nil {
		logger.Warn("Decision cache invalidation failed", zap.Error(err))
	}

	return ac.audit.Record(ctx, audit.Entry{
		UserID:       userID,
		WorkspaceID:  workspaceID,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Permission:   permission,
		Action:       audit.ActionPermissionChanged,
		Granted:      true,
		Reason:       "permission granted",
		Timestamp:    now,
	})
}

// RevokePermission removes one user's permission from the scoped
// policy. Revoking against a missing policy is an error, unlike the
// denial-as-value semantics of CheckAccess.
func (ac *Control) RevokePermission(ctx context.Context, workspaceID, userID, resourceType, resourceID, permission string) error {
	workspace, err := ac.workspaces.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return err
	}
	if workspace == nil {
		return weave_errors.ErrWorkspaceNotFound
	}
	collaborator := workspace.Collaborator(userID)
	if collaborator == nil {
		return fmt.Errorf("user %s is not a collaborator of workspace %s", userID, workspaceID)
	}

	policy, err := ac.policies.GetPolicy(ctx, workspaceID, resourceType, resourceID)
	if err != nil {
		return err
	}
	if policy == nil {
		return weave_errors.ErrPolicyNotFound
	}

	rule := findUserRule(policy, collaborator.Role, userID)
	if rule != nil {
		rule.Permissions = removeString(rule.Permissions, permission)
	}

	rules := policy.PermissionRules[:0]
	for _, r := range policy.PermissionRules {
		if len(r.Permissions) > 0 {
			rules = append(rules, r)
		}
	}
	policy.PermissionRules = rules
	policy.UpdatedAt = time.Now()

	if len(policy.PermissionRules) == 0 {
		if err := ac.policies.DeletePolicy(ctx, workspaceID, resourceType, resourceID); err != nil {
			return err
		}
	} else {
		if err := ac.policies.SavePolicy(ctx, policy); err != nil {
			return err
		}
	}

	if err := ac.cache.Invalidate(ctx, workspaceID, resourceType); err != nil {
		logger.Warn("Decision cache invalidation failed", zap.Error(err))
	}

	return ac.audit.Record(ctx, audit.Entry{
		UserID:       userID,
		WorkspaceID:  workspaceID,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Permission:   permission,
		Action:       audit.ActionPermissionChanged,
		Granted:      false,
		Reason:       "permission revoked",
		Timestamp:    policy.UpdatedAt,
	})
}

// GetAuditLogs returns the newest audit entries for a workspace,
// optionally filtered by user.
func (ac *Control) GetAuditLogs(ctx context.Context, workspaceID, userID string, limit int) ([]audit.Entry, error) {
	return ac.audit.QueryLogs(ctx, workspaceID, userID, limit)
}

// findUserRule locates the rule narrowly scoped to one user via the
// user_id condition.
func findUserRule(policy *model.AccessPolicy, role, userID string) *model.PermissionRule {
	for i := range policy.PermissionRules {
		rule := &policy.PermissionRules[i]
		if rule.Role != role {
			continue
		}
		for _, condition := range rule.Conditions {
			if condition.Type == ConditionUserAttribute &&
				condition.Params["attribute"] == "user_id" &&
				condition.Params["value"] == userID {
				return rule
			}
		}
	}
	return nil
}

func containsString(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

func removeString(values []string, value string) []string {
	out := values[:0]
	for _, v := range values {
		if v != value {
			out = append(out, v)
		}
	}
	return out
}
