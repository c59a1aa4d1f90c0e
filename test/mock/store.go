// test/mock/store.go
package mock

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dev-mohitbeniwal/weave/db"
)

// FakeStore is an in-memory db.Store with simulated lease expiry. Its
// clock only moves through Advance, making TTL behavior deterministic
// in tests.
type FakeStore struct {
	mu            sync.Mutex
	now           time.Time
	values        map[string]fakeValue
	hashes        map[string]map[string]string
	lists         map[string][][]byte
	subscriptions map[string][]*fakeSubscription
	published     map[string][][]byte
}

type fakeValue struct {
	data      []byte
	expiresAt time.Time // zero means no expiry
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		now:           time.Now(),
		values:        make(map[string]fakeValue),
		hashes:        make(map[string]map[string]string),
		lists:         make(map[string][][]byte),
		subscriptions: make(map[string][]*fakeSubscription),
		published:     make(map[string][][]byte),
	}
}

// Advance moves the fake clock, lapsing any leases whose TTL passes.
func (s *FakeStore) Advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(d)
}

// Published returns every payload published on the channel so far.
func (s *FakeStore) Published(channel string) [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.published[channel]))
	copy(out, s.published[channel])
	return out
}

func (s *FakeStore) live(key string) ([]byte, bool) {
	v, ok := s.values[key]
	if !ok {
		return nil, false
	}
	if !v.expiresAt.IsZero() && !s.now.Before(v.expiresAt) {
		delete(s.values, key)
		return nil, false
	}
	return v.data, true
}

func (s *FakeStore) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.live(key); ok {
		return false, nil
	}
	s.values[key] = fakeValue{data: value, expiresAt: s.expiry(ttl, time.Time{})}
	return true, nil
}

func (s *FakeStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.live(key)
	if !ok {
		return nil, nil
	}
	return data, nil
}

func (s *FakeStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var previous time.Time
	if v, ok := s.values[key]; ok {
		previous = v.expiresAt
	}
	s.values[key] = fakeValue{data: value, expiresAt: s.expiry(ttl, previous)}
	return nil
}

func (s *FakeStore) expiry(ttl time.Duration, previous time.Time) time.Time {
	switch {
	case ttl == db.KeepTTL:
		return previous
	case ttl > 0:
		return s.now.Add(ttl)
	default:
		return time.Time{}
	}
}

func (s *FakeStore) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func (s *FakeStore) ScanPrefix(ctx context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for key := range s.values {
		if strings.HasPrefix(key, prefix) {
			if _, ok := s.live(key); ok {
				keys = append(keys, key)
			}
		}
	}
	return keys, nil
}

func (s *FakeStore) HSet(ctx context.Context, key, field string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hashes[key] == nil {
		s.hashes[key] = make(map[string]string)
	}
	s.hashes[key][field] = string(value)
	return nil
}

func (s *FakeStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.hashes[key]))
	for field, value := range s.hashes[key] {
		out[field] = value
	}
	return out, nil
}

func (s *FakeStore) HDel(ctx context.Context, key string, fields ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, field := range fields {
		delete(s.hashes[key], field)
	}
	return nil
}

func (s *FakeStore) LPush(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[key] = append([][]byte{value}, s.lists[key]...)
	return nil
}

func (s *FakeStore) LTrim(ctx context.Context, key string, start, stop int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.lists[key]
	if stop < 0 {
		stop = int64(len(list)) + stop
	}
	if start < 0 {
		start = 0
	}
	if stop >= int64(len(list)) {
		stop = int64(len(list)) - 1
	}
	if start > stop {
		s.lists[key] = nil
		return nil
	}
	s.lists[key] = list[start : stop+1]
	return nil
}

func (s *FakeStore) LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.lists[key]
	if stop < 0 {
		stop = int64(len(list)) + stop
	}
	if start < 0 {
		start = 0
	}
	if stop >= int64(len(list)) {
		stop = int64(len(list)) - 1
	}
	if start > stop {
		return nil, nil
	}
	out := make([][]byte, 0, stop-start+1)
	for _, v := range list[start : stop+1] {
		out = append(out, v)
	}
	return out, nil
}

func (s *FakeStore) Publish(ctx context.Context, channel string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published[channel] = append(s.published[channel], payload)
	for _, sub := range s.subscriptions[channel] {
		sub.send(payload)
	}
	return nil
}

func (s *FakeStore) Subscribe(ctx context.Context, channel string) db.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub := &fakeSubscription{
		store:    s,
		channel:  channel,
		messages: make(chan []byte, 64),
	}
	s.subscriptions[channel] = append(s.subscriptions[channel], sub)
	return sub
}

// OpenSubscriptions reports how many subscriptions are open on the
// channel, for asserting refcounted teardown.
func (s *FakeStore) OpenSubscriptions(channel string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscriptions[channel])
}

func (s *FakeStore) Close() error {
	return nil
}

type fakeSubscription struct {
	store    *FakeStore
	channel  string
	messages chan []byte
	closed   bool
	closeMu  sync.Mutex
}

func (f *fakeSubscription) send(payload []byte) {
	f.closeMu.Lock()
	defer f.closeMu.Unlock()
	if f.closed {
		return
	}
	select {
	case f.messages <- payload:
	default:
	}
}

func (f *fakeSubscription) Messages() <-chan []byte {
	return f.messages
}

func (f *fakeSubscription) Close() error {
	f.closeMu.Lock()
	if f.closed {
		f.closeMu.Unlock()
		return nil
	}
	f.closed = true
	close(f.messages)
	f.closeMu.Unlock()

	f.store.mu.Lock()
	subs := f.store.subscriptions[f.channel]
	for i, sub := range subs {
		if sub == f {
			f.store.subscriptions[f.channel] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	f.store.mu.Unlock()
	return nil
}
