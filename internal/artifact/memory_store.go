package artifact

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/golang-lru/v2"
)

// DefaultMemoryCapacity is the number of requests a MemoryStore keeps.
const DefaultMemoryCapacity = 256

// MemoryStore keeps the files of the most recent requests. Adding a file to
// a request beyond capacity evicts the least recently used request whole.
type MemoryStore struct {
	mu       sync.Mutex
	requests *lru.Cache[string, map[string][]byte]
}

func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	requests, err := lru.New[string, map[string][]byte](capacity)
	if err != nil {
		// Only reachable with a non-positive size.
		panic(err)
	}
	return &MemoryStore{requests: requests}
}

func (s *MemoryStore) Put(_ context.Context, requestID, path string, content []byte) error {
	requestID, path, err := normalize(requestID, path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	files, ok := s.requests.Get(requestID)
	if !ok {
		files = make(map[string][]byte)
		s.requests.Add(requestID, files)
	}
	files[path] = append([]byte(nil), content...)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, requestID, path string) ([]byte, error) {
	requestID, path, err := normalize(requestID, path)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	files, ok := s.requests.Get(requestID)
	if !ok {
		return nil, ErrNotFound
	}
	raw, ok := files[path]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), raw...), nil
}

func (s *MemoryStore) List(_ context.Context, requestID string) ([]string, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return nil, fmt.Errorf("request id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	files, ok := s.requests.Get(requestID)
	if !ok {
		return nil, nil
	}
	out := make([]string, 0, len(files))
	for path := range files {
		out = append(out, path)
	}
	sort.Strings(out)
	return out, nil
}

// Len reports how many requests are held.
func (s *MemoryStore) Len() int { return s.requests.Len() }
