// test/mock/workspace.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dev-mohitbeniwal/weave/model"
)

// MockWorkspaceProvider is a mock implementation of dao.WorkspaceProvider
type MockWorkspaceProvider struct {
	mock.Mock
}

func (m *MockWorkspaceProvider) GetWorkspace(ctx context.Context, workspaceID string) (*model.Workspace, error) {
	args := m.Called(ctx, workspaceID)
	if ws := args.Get(0); ws != nil {
		return ws.(*model.Workspace), args.Error(1)
	}
	return nil, args.Error(1)
}

// StaticWorkspaceProvider serves a fixed set of workspaces, for tests
// that do not care about call expectations.
type StaticWorkspaceProvider struct {
	Workspaces map[string]*model.Workspace
}

func (p *StaticWorkspaceProvider) GetWorkspace(ctx context.Context, workspaceID string) (*model.Workspace, error) {
	return p.Workspaces[workspaceID], nil
}
