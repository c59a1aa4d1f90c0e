// dao/workspace_dao.go
package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	logger "github.com/dev-mohitbeniwal/weave/logging"
	"github.com/dev-mohitbeniwal/weave/model"
)

// WorkspaceProvider resolves workspace membership. The workspace graph
// is owned by the workspace-management subsystem; this core only
// reads it. GetWorkspace returns (nil, nil) when the workspace does
// not exist.
type WorkspaceProvider interface {
	GetWorkspace(ctx context.Context, workspaceID string) (*model.Workspace, error)
}

type WorkspaceDAO struct {
	Driver neo4j.Driver
}

func NewWorkspaceDAO(driver neo4j.Driver) *WorkspaceDAO {
	return &WorkspaceDAO{Driver: driver}
}

func (dao *WorkspaceDAO) GetWorkspace(ctx context.Context, workspaceID string) (*model.Workspace, error) {
	start := time.Now()
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	result, err := session.ReadTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (w:Workspace {id: $id})
        OPTIONAL MATCH (u:User)-[c:COLLABORATES_IN]->(w)
        RETURN w.id as id, w.name as name,
               collect({userId: u.id, role: c.role, permissions: c.permissions}) as collaborators
        `
		records, err := transaction.Run(query, map[string]interface{}{"id": workspaceID})
		if err != nil {
			return nil, err
		}

		if !records.Next() {
			return nil, nil
		}
		record := records.Record()

		workspace := &model.Workspace{
			ID: record.Values[0].(string),
		}
		if name, ok := record.Values[1].(string); ok {
			workspace.Name = name
		}

		rawCollaborators, _ := record.Values[2].([]interface{})
		for _, raw := range rawCollaborators {
			props, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			userID, ok := props["userId"].(string)
			if !ok || userID == "" {
				continue
			}
			collaborator := model.Collaborator{UserID: userID}
			if role, ok := props["role"].(string); ok {
				collaborator.Role = role
			}
			if rawPerms, ok := props["permissions"].([]interface{}); ok {
				for _, p := range rawPerms {
					if perm, ok := p.(string); ok {
						collaborator.Permissions = append(collaborator.Permissions, perm)
					}
				}
			}
			workspace.Collaborators = append(workspace.Collaborators, collaborator)
		}

		return workspace, nil
	})

	if err != nil {
		logger.Error("Failed to get workspace",
			zap.Error(err),
			zap.String("workspaceID", workspaceID))
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}

	logger.Debug("Workspace retrieved",
		zap.String("workspaceID", workspaceID),
		zap.Duration("duration", time.Since(start)))

	if result == nil {
		return nil, nil
	}
	return result.(*model.Workspace), nil
}
