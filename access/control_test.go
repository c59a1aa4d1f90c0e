// access/control_test.go
package access

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-mohitbeniwal/weave/audit"
	weave_errors "github.com/dev-mohitbeniwal/weave/errors"
	"github.com/dev-mohitbeniwal/weave/model"
	"github.com/dev-mohitbeniwal/weave/test/mock"
)

func newControlFixture() (*mock.FakeStore, *Control, audit.Service) {
	store := mock.NewFakeStore()
	provider := &mock.StaticWorkspaceProvider{
		Workspaces: map[string]*model.Workspace{
			"ws1": {
				ID: "ws1",
				Collaborators: []model.Collaborator{
					{UserID: "alice", Role: "admin", Permissions: []string{"read", "write", "manage"}},
					{UserID: "bob", Role: "editor", Permissions: []string{"read", "write"}},
					{UserID: "carol", Role: "viewer", Permissions: []string{"read"}},
				},
			},
		},
	}
	auditService := audit.NewService(audit.NewRedisRepository(store))
	return store, NewControl(provider, store, auditService), auditService
}

func checkRequest(userID, permission string) *model.AccessRequest {
	return &model.AccessRequest{
		UserID:       userID,
		WorkspaceID:  "ws1",
		ResourceType: "document",
		ResourceID:   "doc1",
		Permission:   permission,
	}
}

func TestCheckAccessViewerDeniedWrite(t *testing.T) {
	_, control, _ := newControlFixture()

	decision, err := control.CheckAccess(context.Background(), checkRequest("carol", "write"))
	require.NoError(t, err)
	assert.False(t, decision.Granted)
	assert.Contains(t, decision.Reason, "viewer")
	assert.Contains(t, decision.Reason, "write")
}

func TestCheckAccessWorkspaceNotFound(t *testing.T) {
	_, control, _ := newControlFixture()

	request := checkRequest("alice", "read")
	request.WorkspaceID = "missing"
	decision, err := control.CheckAccess(context.Background(), request)
	require.NoError(t, err)
	assert.False(t, decision.Granted)
	assert.Equal(t, "workspace not found", decision.Reason)
}

func TestCheckAccessNonCollaborator(t *testing.T) {
	_, control, _ := newControlFixture()

	decision, err := control.CheckAccess(context.Background(), checkRequest("mallory", "read"))
	require.NoError(t, err)
	assert.False(t, decision.Granted)
	assert.Equal(t, "user is not a collaborator", decision.Reason)
}

func TestCheckAccessDefaultRoleBased(t *testing.T) {
	_, control, _ := newControlFixture()

	decision, err := control.CheckAccess(context.Background(), checkRequest("bob", "write"))
	require.NoError(t, err)
	assert.True(t, decision.Granted)
	assert.Equal(t, "default role-based access", decision.Reason)
}

func TestCheckAccessPolicyRuleFiltering(t *testing.T) {
	_, control, _ := newControlFixture()
	ctx := context.Background()

	require.NoError(t, control.policies.SavePolicy(ctx, &model.AccessPolicy{
		WorkspaceID:  "ws1",
		ResourceType: "document",
		ResourceID:   "doc1",
		PermissionRules: []model.PermissionRule{
			{Role: "editor", Permissions: []string{"read"}},
		},
	}))

	decision, err := control.CheckAccess(ctx, checkRequest("bob", "read"))
	require.NoError(t, err)
	assert.True(t, decision.Granted)

	decision, err = control.CheckAccess(ctx, checkRequest("bob", "write"))
	require.NoError(t, err)
	assert.False(t, decision.Granted)
	assert.Equal(t, "no matching permission rule found", decision.Reason)
}

func TestCheckAccessDefaultPolicyFallback(t *testing.T) {
	_, control, _ := newControlFixture()
	ctx := context.Background()

	// Default policy for the type, no resource-specific one.
	require.NoError(t, control.policies.SavePolicy(ctx, &model.AccessPolicy{
		WorkspaceID:  "ws1",
		ResourceType: "document",
		PermissionRules: []model.PermissionRule{
			{Role: "editor", Permissions: []string{"read"}},
		},
	}))

	decision, err := control.CheckAccess(ctx, checkRequest("bob", "write"))
	require.NoError(t, err)
	assert.False(t, decision.Granted)
	assert.Equal(t, "no matching permission rule found", decision.Reason)
}

func TestRoleGatePrecedesPolicy(t *testing.T) {
	_, control, _ := newControlFixture()
	ctx := context.Background()

	// A policy that would grant viewers write cannot override the
	// static role permission set.
	require.NoError(t, control.policies.SavePolicy(ctx, &model.AccessPolicy{
		WorkspaceID:  "ws1",
		ResourceType: "document",
		ResourceID:   "doc1",
		PermissionRules: []model.PermissionRule{
			{Role: "viewer", Permissions: []string{"write"}},
		},
	}))

	decision, err := control.CheckAccess(ctx, checkRequest("carol", "write"))
	require.NoError(t, err)
	assert.False(t, decision.Granted)
	assert.Contains(t, decision.Reason, "viewer")
}

func TestCheckAccessConditionNotMet(t *testing.T) {
	_, control, _ := newControlFixture()
	ctx := context.Background()

	require.NoError(t, control.policies.SavePolicy(ctx, &model.AccessPolicy{
		WorkspaceID:  "ws1",
		ResourceType: "document",
		ResourceID:   "doc1",
		PermissionRules: []model.PermissionRule{
			{
				Role:        "editor",
				Permissions: []string{"write"},
				Conditions: []model.AccessCondition{{
					Type:   ConditionContentBased,
					Params: map[string]interface{}{"max_size": float64(10)},
				}},
			},
		},
	}))

	request := checkRequest("bob", "write")
	request.Context = map[string]interface{}{"content_size": float64(100)}
	decision, err := control.CheckAccess(ctx, request)
	require.NoError(t, err)
	assert.False(t, decision.Granted)
	assert.Equal(t, "access condition not met: content_based", decision.Reason)
}

func TestCheckAccessUnknownConditionSatisfied(t *testing.T) {
	_, control, _ := newControlFixture()
	ctx := context.Background()

	require.NoError(t, control.policies.SavePolicy(ctx, &model.AccessPolicy{
		WorkspaceID:  "ws1",
		ResourceType: "document",
		ResourceID:   "doc1",
		PermissionRules: []model.PermissionRule{
			{
				Role:        "editor",
				Permissions: []string{"write"},
				Conditions:  []model.AccessCondition{{Type: "geo_fence"}},
			},
		},
	}))

	decision, err := control.CheckAccess(ctx, checkRequest("bob", "write"))
	require.NoError(t, err)
	assert.True(t, decision.Granted, "unknown condition types default to satisfied")
}

func TestGrantAndRevokePermissionInvalidateCache(t *testing.T) {
	_, control, _ := newControlFixture()
	ctx := context.Background()

	require.NoError(t, control.policies.SavePolicy(ctx, &model.AccessPolicy{
		WorkspaceID:  "ws1",
		ResourceType: "document",
		ResourceID:   "doc1",
		PermissionRules: []model.PermissionRule{
			{Role: "editor", Permissions: []string{"read"}},
		},
	}))

	// Denied and cached.
	decision, err := control.CheckAccess(ctx, checkRequest("bob", "write"))
	require.NoError(t, err)
	require.False(t, decision.Granted)

	// The grant must evict the cached denial.
	require.NoError(t, control.GrantPermission(ctx, "ws1", "bob", "document", "doc1", "write"))

	decision, err = control.CheckAccess(ctx, checkRequest("bob", "write"))
	require.NoError(t, err)
	assert.True(t, decision.Granted, "stale cached denial must not survive a grant")

	// And the revoke must evict the cached grant.
	require.NoError(t, control.RevokePermission(ctx, "ws1", "bob", "document", "doc1", "write"))

	decision, err = control.CheckAccess(ctx, checkRequest("bob", "write"))
	require.NoError(t, err)
	assert.False(t, decision.Granted, "stale cached grant must not survive a revoke")
}

func TestGrantPermissionScopedToUser(t *testing.T) {
	_, control, _ := newControlFixture()
	ctx := context.Background()

	require.NoError(t, control.policies.SavePolicy(ctx, &model.AccessPolicy{
		WorkspaceID:  "ws1",
		ResourceType: "document",
		ResourceID:   "doc1",
		PermissionRules: []model.PermissionRule{
			{Role: "editor", Permissions: []string{"read"}},
		},
	}))

	require.NoError(t, control.GrantPermission(ctx, "ws1", "bob", "document", "doc1", "write"))

	// bob got the grant; another editor with the same role did not.
	decision, err := control.CheckAccess(ctx, checkRequest("bob", "write"))
	require.NoError(t, err)
	assert.True(t, decision.Granted)

	// alice is admin, unaffected scope check aside, but a same-role
	// user would hit the user_id condition. Verify via a direct
	// evaluation for an editor who is not bob.
	other := &model.Collaborator{UserID: "eve", Role: "editor", Permissions: []string{"read", "write"}}
	otherDecision, err := control.evaluator.Evaluate(ctx, &model.AccessRequest{
		UserID:       "eve",
		WorkspaceID:  "ws1",
		ResourceType: "document",
		ResourceID:   "doc1",
		Permission:   "write",
	}, other)
	require.NoError(t, err)
	assert.False(t, otherDecision.Granted, "a grant is scoped to one user, not the whole role")
}

func TestRevokePermissionMissingPolicy(t *testing.T) {
	_, control, _ := newControlFixture()

	err := control.RevokePermission(context.Background(), "ws1", "bob", "document", "doc1", "write")
	assert.ErrorIs(t, err, weave_errors.ErrPolicyNotFound)
}

func TestGrantPermissionUnknownWorkspace(t *testing.T) {
	_, control, _ := newControlFixture()

	err := control.GrantPermission(context.Background(), "missing", "bob", "document", "doc1", "write")
	assert.ErrorIs(t, err, weave_errors.ErrWorkspaceNotFound)
}

func TestAuditCompleteness(t *testing.T) {
	_, control, auditService := newControlFixture()
	ctx := context.Background()

	decision, err := control.CheckAccess(ctx, checkRequest("carol", "write"))
	require.NoError(t, err)
	require.False(t, decision.Granted)

	entries, err := auditService.QueryLogs(ctx, "ws1", "carol", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1, "one full evaluation, one audit entry")
	assert.Equal(t, "carol", entries[0].UserID)
	assert.Equal(t, "write", entries[0].Permission)
	assert.Equal(t, audit.ActionAccessCheck, entries[0].Action)
	assert.False(t, entries[0].Granted)
	assert.Equal(t, decision.Reason, entries[0].Reason)
}

func TestCacheHitSkipsAudit(t *testing.T) {
	_, control, auditService := newControlFixture()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := control.CheckAccess(ctx, checkRequest("bob", "read"))
		require.NoError(t, err)
	}

	entries, err := auditService.QueryLogs(ctx, "ws1", "bob", 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "cache hits were audited at decision creation, not again")
}

func TestDecisionCacheExpiry(t *testing.T) {
	store, control, auditService := newControlFixture()
	ctx := context.Background()

	_, err := control.CheckAccess(ctx, checkRequest("bob", "read"))
	require.NoError(t, err)

	store.Advance(301 * time.Second)

	_, err = control.CheckAccess(ctx, checkRequest("bob", "read"))
	require.NoError(t, err)

	entries, err := auditService.QueryLogs(ctx, "ws1", "bob", 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "an expired cache entry forces re-evaluation")
}

func TestGetAuditLogs(t *testing.T) {
	_, control, _ := newControlFixture()
	ctx := context.Background()

	_, err := control.CheckAccess(ctx, checkRequest("bob", "read"))
	require.NoError(t, err)
	_, err = control.CheckAccess(ctx, checkRequest("carol", "write"))
	require.NoError(t, err)

	entries, err := control.GetAuditLogs(ctx, "ws1", "", 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	entries, err = control.GetAuditLogs(ctx, "ws1", "carol", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "carol", entries[0].UserID)
}
