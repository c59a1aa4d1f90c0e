// db/store.go
package db

import (
	"context"
	"time"
)

// KeepTTL, passed as the ttl of Set, preserves the key's remaining
// time-to-live.
const KeepTTL time.Duration = -1

// Store is the shared key-value store every core component runs on.
// Cross-process invariants (lock mutual exclusion, single decision
// writer) are enforced by its atomic primitives, never by in-process
// locking.
type Store interface {
	// SetNX atomically sets key to value with a TTL only if the key is
	// absent, and reports whether the write happened.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Get returns the value at key, or (nil, nil) when the key is
	// absent or its lease has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set writes key to value. A zero ttl means no expiry; KeepTTL
	// preserves the current one.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Del(ctx context.Context, keys ...string) error

	// ScanPrefix enumerates all live keys beginning with prefix.
	ScanPrefix(ctx context.Context, prefix string) ([]string, error)

	HSet(ctx context.Context, key, field string, value []byte) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error

	LPush(ctx context.Context, key string, value []byte) error
	LTrim(ctx context.Context, key string, start, stop int64) error
	LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)

	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) Subscription

	Close() error
}

// Subscription is one open pub/sub channel. Messages is closed when
// the subscription is closed.
type Subscription interface {
	Messages() <-chan []byte
	Close() error
}
