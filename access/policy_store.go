// access/policy_store.go
package access

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/dev-mohitbeniwal/weave/db"
	logger "github.com/dev-mohitbeniwal/weave/logging"
	"github.com/dev-mohitbeniwal/weave/model"
)

// PolicyStore persists access policies in the shared store. Zero or
// one policy exists per (workspace, resourceType, resourceID|default).
type PolicyStore struct {
	store db.Store
}

func NewPolicyStore(store db.Store) *PolicyStore {
	return &PolicyStore{store: store}
}

// GetPolicy returns the policy at the exact scope, or nil when none
// exists.
func (ps *PolicyStore) GetPolicy(ctx context.Context, workspaceID, resourceType, resourceID string) (*model.AccessPolicy, error) {
	data, err := ps.store.Get(ctx, policyKey(workspaceID, resourceType, resourceID))
	if err != nil {
		return nil, fmt.Errorf("failed to get policy: %w", err)
	}
	if data == nil {
		return nil, nil
	}

	var policy model.AccessPolicy
	if err := json.Unmarshal(data, &policy); err != nil {
		return nil, fmt.Errorf("failed to unmarshal policy: %w", err)
	}
	return &policy, nil
}

// ResolvePolicy returns the resource-specific policy, falling back to
// the type's default policy, or nil when neither exists.
func (ps *PolicyStore) ResolvePolicy(ctx context.Context, workspaceID, resourceType, resourceID string) (*model.AccessPolicy, error) {
	if resourceID != "" {
		policy, err := ps.GetPolicy(ctx, workspaceID, resourceType, resourceID)
		if err != nil || policy != nil {
			return policy, err
		}
	}
	return ps.GetPolicy(ctx, workspaceID, resourceType, "")
}

func (ps *PolicyStore) SavePolicy(ctx context.Context, policy *model.AccessPolicy) error {
	data, err := json.Marshal(policy)
	if err != nil {
		return fmt.Errorf("failed to marshal policy: %w", err)
	}
	key := policyKey(policy.WorkspaceID, policy.ResourceType, policy.ResourceID)
	if err := ps.store.Set(ctx, key, data, 0); err != nil {
		return fmt.Errorf("failed to save policy: %w", err)
	}

	logger.Debug("Policy saved",
		zap.String("workspaceID", policy.WorkspaceID),
		zap.String("resourceType", policy.ResourceType),
		zap.String("resourceID", policy.ResourceID))
	return nil
}

func (ps *PolicyStore) DeletePolicy(ctx context.Context, workspaceID, resourceType, resourceID string) error {
	if err := ps.store.Del(ctx, policyKey(workspaceID, resourceType, resourceID)); err != nil {
		return fmt.Errorf("failed to delete policy: %w", err)
	}
	logger.Debug("Policy deleted",
		zap.String("workspaceID", workspaceID),
		zap.String("resourceType", resourceType),
		zap.String("resourceID", resourceID))
	return nil
}
