// Package dedupe tracks which keys have already been seen during a run.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen keys so each one is handled once.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	// Keys returns the recorded keys in the order they were first seen.
	Keys(ctx context.Context) []string

	Size() int64
}

// OrderedSet implements Deduper with a map for membership and a slice for
// first-seen order.
type OrderedSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
	keys []string
	skip func(string) bool
}

// NewOrderedSet creates an empty set.
func NewOrderedSet(opts ...Option) *OrderedSet {
	s := &OrderedSet{
		skip: func(string) bool { return false },
	}

	for _, opt := range opts {
		opt(s)
	}

	s.seen = make(map[string]struct{}, cap(s.keys))
	return s
}

// SeenAndRecord reports whether key was recorded before. Skipped keys always
// report true and are never recorded.
func (s *OrderedSet) SeenAndRecord(_ context.Context, key string) bool {
	if s.skip(key) {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[key]; ok {
		return true
	}
	s.seen[key] = struct{}{}
	s.keys = append(s.keys, key)
	return false
}

// Keys returns a copy of the recorded keys in first-seen order.
func (s *OrderedSet) Keys(_ context.Context) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Size returns the number of recorded keys.
func (s *OrderedSet) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.keys))
}
