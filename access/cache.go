// access/cache.go
package access

import (
	"context"
	"encoding/json"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/dev-mohitbeniwal/weave/db"
	logger "github.com/dev-mohitbeniwal/weave/logging"
	"github.com/dev-mohitbeniwal/weave/model"
)

// DecisionCache keeps prior access decisions in the shared store so
// every process sees the same cached truth and eager invalidation is
// cross-process. A failed cache read degrades to a full evaluation,
// never to a failure.
type DecisionCache struct {
	store db.Store
	ttl   time.Duration
}

func NewDecisionCache(store db.Store) *DecisionCache {
	ttl := viper.GetDuration("access.decisionCacheTTL")
	if ttl <= 0 {
		ttl = 300 * time.Second
	}
	return &DecisionCache{store: store, ttl: ttl}
}

// Get returns the cached decision for the request, or nil on miss.
func (dc *DecisionCache) Get(ctx context.Context, request *model.AccessRequest) *model.AccessDecision {
	key := decisionKey(request.WorkspaceID, request.ResourceType, request.ResourceID, request.UserID, request.Permission)
	data, err := dc.store.Get(ctx, key)
	if err != nil {
		logger.Warn("Decision cache read failed, falling back to evaluation", zap.Error(err))
		return nil
	}
	if data == nil {
		return nil
	}

	var decision model.AccessDecision
	if err := json.Unmarshal(data, &decision); err != nil {
		logger.Warn("Dropping malformed cached decision", zap.Error(err), zap.String("key", key))
		return nil
	}
	if !decision.ExpiresAt.IsZero() && time.Now().After(decision.ExpiresAt) {
		return nil
	}
	return &decision
}

// Set caches a decision under the request's composite key.
func (dc *DecisionCache) Set(ctx context.Context, request *model.AccessRequest, decision *model.AccessDecision) {
	decision.ExpiresAt = time.Now().Add(dc.ttl)

	data, err := json.Marshal(decision)
	if err != nil {
		logger.Warn("Failed to marshal decision for cache", zap.Error(err))
		return
	}

	key := decisionKey(request.WorkspaceID, request.ResourceType, request.ResourceID, request.UserID, request.Permission)
	if err := dc.store.Set(ctx, key, data, dc.ttl); err != nil {
		logger.Warn("Failed to cache decision", zap.Error(err), zap.String("key", key))
	}
}

// Invalidate eagerly deletes every cached decision the given policy
// scope may have influenced.
func (dc *DecisionCache) Invalidate(ctx context.Context, workspaceID, resourceType string) error {
	prefix := decisionScope(workspaceID, resourceType)
	keys, err := dc.store.ScanPrefix(ctx, prefix)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := dc.store.Del(ctx, keys...); err != nil {
		return err
	}

	logger.Debug("Decision cache invalidated",
		zap.String("workspaceID", workspaceID),
		zap.String("resourceType", resourceType),
		zap.Int("entries", len(keys)))
	return nil
}
