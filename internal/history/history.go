// Package history keeps a bounded, ordered log of successful refactors.
package history

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"codecraft/internal/llm"
	"codecraft/internal/refactor"
)

// DefaultCapacity bounds the log when no capacity is configured.
const DefaultCapacity = 50

var ErrNotFound = errors.New("history item not found")

// Item is a successful refactor together with what was submitted.
type Item struct {
	refactor.Result
	ID           string         `json:"id"`
	Timestamp    int64          `json:"timestamp"`
	OriginalCode string         `json:"originalCode"`
	Language     string         `json:"language"`
	Focus        refactor.Focus `json:"focus"`
}

// Time returns the timestamp as a time.Time.
func (i Item) Time() time.Time { return time.UnixMilli(i.Timestamp) }

// NewItem stamps a result with a fresh id and the current time.
func NewItem(req refactor.Request, res refactor.Result) Item {
	return Item{
		Result:       res,
		ID:           uuid.NewString(),
		Timestamp:    time.Now().UnixMilli(),
		OriginalCode: req.Code,
		Language:     req.Language,
		Focus:        req.Focus,
	}
}

// Store is an ordered log; the oldest items are evicted beyond capacity.
type Store interface {
	Append(ctx context.Context, item Item) error
	// List returns up to limit items, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]Item, error)
	Get(ctx context.Context, id string) (Item, error)
	Close() error
}

// Recorder adapts a Store to the orchestrator's success hook. Items reuse
// the request id from the context so they line up with archived prompts.
type Recorder struct {
	Store Store
}

func (r Recorder) Record(ctx context.Context, req refactor.Request, res refactor.Result) error {
	if r.Store == nil {
		return nil
	}
	item := NewItem(req, res)
	if id, ok := llm.LookupRequestID(ctx); ok {
		item.ID = id
	}
	return r.Store.Append(ctx, item)
}

// Config selects a backend.
type Config struct {
	Backend  string // memory | sqlite | postgres
	DSN      string
	Capacity int
}

// Open builds the configured store. An empty backend means memory.
func Open(cfg Config) (Store, error) {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "memory":
		return NewMemoryStore(capacity), nil
	case "sqlite":
		return OpenSQLite(cfg.DSN, capacity)
	case "postgres", "pg":
		return OpenPostgres(cfg.DSN, capacity)
	default:
		return nil, errors.New("history: unknown backend " + cfg.Backend)
	}
}
