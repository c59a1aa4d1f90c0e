// access/conditions.go
package access

import (
	"time"

	"go.uber.org/zap"

	logger "github.com/dev-mohitbeniwal/weave/logging"
	"github.com/dev-mohitbeniwal/weave/model"
)

const (
	ConditionTimeBased     = "time_based"
	ConditionUserAttribute = "user_attribute"
	ConditionContentBased  = "content_based"
)

// ConditionFunc evaluates one condition against a request. Returning
// false fails the rule the condition is attached to.
type ConditionFunc func(condition model.AccessCondition, request *model.AccessRequest) bool

// ConditionRegistry maps condition types to their evaluators. Adding
// a new condition type is a Register call, not a change to the
// dispatch site.
type ConditionRegistry struct {
	evaluators map[string]ConditionFunc
}

func NewConditionRegistry() *ConditionRegistry {
	r := &ConditionRegistry{evaluators: make(map[string]ConditionFunc)}
	r.Register(ConditionTimeBased, evaluateTimeCondition)
	r.Register(ConditionUserAttribute, evaluateUserAttributeCondition)
	r.Register(ConditionContentBased, evaluateContentCondition)
	return r
}

func (r *ConditionRegistry) Register(conditionType string, fn ConditionFunc) {
	r.evaluators[conditionType] = fn
}

// Evaluate runs the registered evaluator for the condition's type.
// Unknown types are treated as satisfied; this permissive default is
// a documented assumption, not a security boundary.
func (r *ConditionRegistry) Evaluate(condition model.AccessCondition, request *model.AccessRequest) bool {
	fn, ok := r.evaluators[condition.Type]
	if !ok {
		logger.Warn("Unknown condition type treated as satisfied",
			zap.String("type", condition.Type))
		return true
	}
	return fn(condition, request)
}

// evaluateTimeCondition holds when the current hour falls inside
// [start_hour, end_hour). A window wrapping midnight is supported.
func evaluateTimeCondition(condition model.AccessCondition, request *model.AccessRequest) bool {
	startHour, okStart := numberParam(condition.Params, "start_hour")
	endHour, okEnd := numberParam(condition.Params, "end_hour")
	if !okStart || !okEnd {
		if start, ok := condition.Params["start"].(string); ok {
			if end, ok := condition.Params["end"].(string); ok {
				startTime, err1 := time.Parse(time.RFC3339, start)
				endTime, err2 := time.Parse(time.RFC3339, end)
				if err1 == nil && err2 == nil {
					now := time.Now()
					return now.After(startTime) && now.Before(endTime)
				}
			}
		}
		logger.Warn("Malformed time_based condition", zap.Any("params", condition.Params))
		return false
	}

	hour := float64(time.Now().Hour())
	if startHour <= endHour {
		return hour >= startHour && hour < endHour
	}
	return hour >= startHour || hour < endHour
}

// evaluateUserAttributeCondition compares a request attribute against
// the expected value. The user_id attribute reads the requesting
// user directly; anything else comes from the request context.
func evaluateUserAttributeCondition(condition model.AccessCondition, request *model.AccessRequest) bool {
	attribute, ok := condition.Params["attribute"].(string)
	if !ok {
		logger.Warn("Malformed user_attribute condition", zap.Any("params", condition.Params))
		return false
	}
	expected := condition.Params["value"]

	if attribute == "user_id" {
		return request.UserID == expected
	}

	actual, ok := request.Context[attribute]
	if !ok {
		return false
	}
	return actual == expected
}

// evaluateContentCondition bounds content size and restricts content
// types, both read from the request context.
func evaluateContentCondition(condition model.AccessCondition, request *model.AccessRequest) bool {
	if maxSize, ok := numberParam(condition.Params, "max_size"); ok {
		size, ok := numberParam(request.Context, "content_size")
		if !ok || size > maxSize {
			return false
		}
	}

	if rawTypes, ok := condition.Params["allowed_types"].([]interface{}); ok {
		contentType, _ := request.Context["content_type"].(string)
		allowed := false
		for _, raw := range rawTypes {
			if t, ok := raw.(string); ok && t == contentType {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}
	return true
}

// numberParam reads a numeric parameter, tolerating the int/float64
// split JSON decoding produces.
func numberParam(params map[string]interface{}, key string) (float64, bool) {
	switch v := params[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
