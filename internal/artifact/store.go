// Package artifact archives the prompts sent to the model and what came back,
// keyed by request id.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	PromptFile   = "prompt.txt"
	ResponseFile = "response.json"
	ErrorFile    = "error.txt"
)

var ErrNotFound = errors.New("artifact not found")

type Store interface {
	Put(ctx context.Context, requestID, path string, content []byte) error
	Get(ctx context.Context, requestID, path string) ([]byte, error)
	// List returns the paths stored under requestID, sorted.
	List(ctx context.Context, requestID string) ([]string, error)
}

// Config selects a backend. Backend is none, memory or s3.
type Config struct {
	Backend string
	// MemoryCapacity bounds the memory backend, in requests.
	MemoryCapacity int
	S3             S3Config
}

// Open returns nil (and no error) when archiving is disabled.
func Open(cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "none", "off":
		return nil, nil
	case "memory":
		return NewMemoryStore(cfg.MemoryCapacity), nil
	case "s3", "minio":
		return NewS3Store(cfg.S3)
	default:
		return nil, fmt.Errorf("artifact: unknown backend %q", cfg.Backend)
	}
}

func normalize(requestID, path string) (string, string, error) {
	requestID = strings.TrimSpace(requestID)
	path = strings.TrimLeft(strings.TrimSpace(path), "/")
	if requestID == "" {
		return "", "", fmt.Errorf("request id is required")
	}
	if path == "" {
		return "", "", fmt.Errorf("path is required")
	}
	return requestID, path, nil
}

func objectKey(requestID, path string) string {
	return requestID + "/" + path
}
