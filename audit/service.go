// audit/service.go
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Service interface {
	Record(ctx context.Context, entry Entry) error
	QueryLogs(ctx context.Context, workspaceID, userID string, limit int) ([]Entry, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Record(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	return s.repo.Append(ctx, entry)
}

func (s *service) QueryLogs(ctx context.Context, workspaceID, userID string, limit int) ([]Entry, error) {
	return s.repo.Query(ctx, workspaceID, userID, limit)
}
