// audit/repository.go
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/dev-mohitbeniwal/weave/db"
	logger "github.com/dev-mohitbeniwal/weave/logging"
)

type Repository interface {
	Append(ctx context.Context, entry Entry) error
	Query(ctx context.Context, workspaceID, userID string, limit int) ([]Entry, error)
}

// RedisRepository keeps a retention-bounded hot window of audit
// entries per workspace, newest first.
type RedisRepository struct {
	store     db.Store
	retention int64
}

func NewRedisRepository(store db.Store) *RedisRepository {
	retention := viper.GetInt64("access.auditRetention")
	if retention <= 0 {
		retention = 10000
	}
	return &RedisRepository{store: store, retention: retention}
}

func auditKey(workspaceID string) string {
	return fmt.Sprintf("audit:%s", workspaceID)
}

func (r *RedisRepository) Append(ctx context.Context, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	key := auditKey(entry.WorkspaceID)
	if err := r.store.LPush(ctx, key, data); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	if err := r.store.LTrim(ctx, key, 0, r.retention-1); err != nil {
		return fmt.Errorf("failed to trim audit log: %w", err)
	}

	logger.Debug("Audit entry appended",
		zap.String("workspaceID", entry.WorkspaceID),
		zap.String("action", entry.Action))
	return nil
}

func (r *RedisRepository) Query(ctx context.Context, workspaceID, userID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}

	// With a user filter the whole window has to be walked; without
	// one the newest entries suffice.
	stop := int64(limit - 1)
	if userID != "" {
		stop = -1
	}

	raw, err := r.store.LRange(ctx, auditKey(workspaceID), 0, stop)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}

	entries := make([]Entry, 0, limit)
	for _, data := range raw {
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			logger.Warn("Skipping malformed audit entry", zap.Error(err))
			continue
		}
		if userID != "" && entry.UserID != userID {
			continue
		}
		entries = append(entries, entry)
		if len(entries) >= limit {
			break
		}
	}
	return entries, nil
}
