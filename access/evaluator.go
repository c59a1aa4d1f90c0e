// access/evaluator.go
package access

import (
	"context"
	"fmt"

	"github.com/dev-mohitbeniwal/weave/model"
)

// PolicyEvaluator resolves an access request against the applicable
// policy for the requester's role. It assumes the role gate has
// already passed: a policy can narrow role permissions with
// conditions, never widen them.
type PolicyEvaluator struct {
	policies   *PolicyStore
	conditions *ConditionRegistry
}

func NewPolicyEvaluator(policies *PolicyStore, conditions *ConditionRegistry) *PolicyEvaluator {
	return &PolicyEvaluator{policies: policies, conditions: conditions}
}

// Evaluate applies the resource-specific policy (default-policy
// fallback) for the collaborator's role. No policy at all means the
// static role permissions stand on their own.
func (pe *PolicyEvaluator) Evaluate(ctx context.Context, request *model.AccessRequest, collaborator *model.Collaborator) (*model.AccessDecision, error) {
	policy, err := pe.policies.ResolvePolicy(ctx, request.WorkspaceID, request.ResourceType, request.ResourceID)
	if err != nil {
		return nil, err
	}
	if policy == nil {
		return &model.AccessDecision{
			Granted: true,
			Reason:  "default role-based access",
		}, nil
	}

	var rule *model.PermissionRule
	for i := range policy.PermissionRules {
		if policy.PermissionRules[i].Matches(collaborator.Role, request.Permission) {
			rule = &policy.PermissionRules[i]
			break
		}
	}
	if rule == nil {
		return &model.AccessDecision{
			Granted: false,
			Reason:  "no matching permission rule found",
		}, nil
	}

	evaluated := make([]string, 0, len(rule.Conditions))
	for _, condition := range rule.Conditions {
		if !pe.conditions.Evaluate(condition, request) {
			return &model.AccessDecision{
				Granted: false,
				Reason:  fmt.Sprintf("access condition not met: %s", condition.Type),
			}, nil
		}
		evaluated = append(evaluated, condition.Type)
	}

	return &model.AccessDecision{
		Granted:    true,
		Reason:     "permission granted by policy rule",
		Conditions: evaluated,
	}, nil
}
