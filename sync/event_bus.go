// sync/event_bus.go
package sync

import (
	"context"
	"encoding/json"
	gosync "sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dev-mohitbeniwal/weave/db"
	logger "github.com/dev-mohitbeniwal/weave/logging"
	"github.com/dev-mohitbeniwal/weave/model"
)

// Callback handles one synchronization event delivered to a local
// subscriber.
type Callback func(event model.SyncEvent)

// EventBus fans synchronization events out to locally registered
// callbacks, one logical channel per workspace. The underlying store
// channel is opened on the first local subscriber and closed when the
// last one leaves. The subscriber registry is an in-process cache; the
// store's pub/sub channel is the source of truth for delivery.
type EventBus struct {
	store db.Store

	mu       gosync.RWMutex
	channels map[string]*workspaceChannel
}

type workspaceChannel struct {
	sub         db.Subscription
	subscribers []localSubscriber
}

type localSubscriber struct {
	id       string
	userID   string
	callback Callback
}

func NewEventBus(store db.Store) *EventBus {
	return &EventBus{
		store:    store,
		channels: make(map[string]*workspaceChannel),
	}
}

// Subscribe registers a local callback for a workspace and returns a
// subscriber ID for later unsubscription. Events originated by userID
// are not delivered back to this callback.
func (eb *EventBus) Subscribe(ctx context.Context, workspaceID, userID string, callback Callback) (string, error) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch, ok := eb.channels[workspaceID]
	if !ok {
		ch = &workspaceChannel{
			sub: eb.store.Subscribe(ctx, eventChannel(workspaceID)),
		}
		eb.channels[workspaceID] = ch
		go eb.dispatch(workspaceID, ch.sub)
	}

	subscriberID := uuid.New().String()
	ch.subscribers = append(ch.subscribers, localSubscriber{
		id:       subscriberID,
		userID:   userID,
		callback: callback,
	})

	logger.Debug("Subscriber registered",
		zap.String("workspaceID", workspaceID),
		zap.String("userID", userID),
		zap.String("subscriberID", subscriberID))
	return subscriberID, nil
}

// Unsubscribe removes a local subscriber; the store channel closes
// when the workspace has no subscribers left.
func (eb *EventBus) Unsubscribe(ctx context.Context, workspaceID, subscriberID string) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch, ok := eb.channels[workspaceID]
	if !ok {
		return nil
	}

	for i, sub := range ch.subscribers {
		if sub.id == subscriberID {
			ch.subscribers = append(ch.subscribers[:i], ch.subscribers[i+1:]...)
			break
		}
	}

	if len(ch.subscribers) == 0 {
		if err := ch.sub.Close(); err != nil {
			logger.Warn("Error closing workspace channel",
				zap.Error(err),
				zap.String("workspaceID", workspaceID))
		}
		delete(eb.channels, workspaceID)
	}
	return nil
}

// Publish writes the event to the workspace's channel. Delivery to
// remote processes is at-least-one-process, not ordered across
// publishers.
func (eb *EventBus) Publish(ctx context.Context, event model.SyncEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return eb.store.Publish(ctx, eventChannel(event.WorkspaceID), payload)
}

// dispatch pumps inbound channel messages to local subscribers. One
// goroutine per open workspace channel keeps delivery order within a
// workspace; callbacks run inline with panic isolation so one failing
// subscriber never aborts fan-out.
func (eb *EventBus) dispatch(workspaceID string, sub db.Subscription) {
	for payload := range sub.Messages() {
		var event model.SyncEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			logger.Warn("Dropping malformed sync event",
				zap.Error(err),
				zap.String("workspaceID", workspaceID))
			continue
		}

		eb.mu.RLock()
		var targets []localSubscriber
		if ch, ok := eb.channels[workspaceID]; ok {
			for _, s := range ch.subscribers {
				// Echo suppression: skip callbacks registered by the
				// event's own originator.
				if s.userID != event.UserID {
					targets = append(targets, s)
				}
			}
		}
		eb.mu.RUnlock()

		for _, s := range targets {
			eb.deliver(s, event)
		}
	}
}

func (eb *EventBus) deliver(s localSubscriber, event model.SyncEvent) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Subscriber callback panicked",
				zap.Any("panic", r),
				zap.String("subscriberID", s.id),
				zap.String("eventType", string(event.Type)))
		}
	}()
	s.callback(event)
}
