package history

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore is a fixed-capacity ring of items.
type MemoryStore struct {
	mu       sync.RWMutex
	items    []Item // oldest first
	capacity int
}

func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{capacity: capacity, items: make([]Item, 0, capacity)}
}

func (s *MemoryStore) Append(_ context.Context, item Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if over := len(s.items) + 1 - s.capacity; over > 0 {
		copy(s.items, s.items[over:])
		s.items = s.items[:len(s.items)-over]
	}
	s.items = append(s.items, cloneItem(item))
	return nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.items)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Item, 0, n)
	for i := len(s.items) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, cloneItem(s.items[i]))
	}
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Item, error) {
	id = strings.TrimSpace(id)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.items) - 1; i >= 0; i-- {
		if s.items[i].ID == id {
			return cloneItem(s.items[i]), nil
		}
	}
	return Item{}, ErrNotFound
}

func (s *MemoryStore) Close() error { return nil }

func cloneItem(it Item) Item {
	if it.KeyChanges != nil {
		it.KeyChanges = append(make([]string, 0, len(it.KeyChanges)), it.KeyChanges...)
	}
	return it
}
