package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	require.NoError(t, s.Put(ctx, "req-1", "/prompt.txt", []byte("hello")))
	require.NoError(t, s.Put(ctx, "req-1", "response.json", []byte(`{}`)))
	require.NoError(t, s.Put(ctx, "req-2", "prompt.txt", []byte("other")))

	got, err := s.Get(ctx, "req-1", "prompt.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	paths, err := s.List(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"prompt.txt", "response.json"}, paths)

	_, err = s.Get(ctx, "req-1", "error.txt")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, s.Put(ctx, " ", "x", nil))
	assert.Error(t, s.Put(ctx, "req", "", nil))
}

func TestMemoryStoreEvictsOldestRequest(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)

	require.NoError(t, s.Put(ctx, "a", PromptFile, []byte("1")))
	require.NoError(t, s.Put(ctx, "a", ResponseFile, []byte("{}")))
	require.NoError(t, s.Put(ctx, "b", PromptFile, []byte("2")))
	require.NoError(t, s.Put(ctx, "c", PromptFile, []byte("3")))

	assert.Equal(t, 2, s.Len())
	_, err := s.Get(ctx, "a", PromptFile)
	assert.ErrorIs(t, err, ErrNotFound, "whole request evicted")
	paths, err := s.List(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, paths)

	got, err := s.Get(ctx, "c", PromptFile)
	require.NoError(t, err)
	assert.Equal(t, "3", string(got))
}

func TestOpen(t *testing.T) {
	s, err := Open(Config{})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = Open(Config{Backend: "memory", MemoryCapacity: 4})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = Open(Config{Backend: "s3"})
	assert.Error(t, err, "s3 without endpoint")

	_, err = Open(Config{Backend: "ftp"})
	assert.Error(t, err)
}

func TestArchiveHookWritesPromptAndResponse(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	h := NewArchiveHook(store, nil)

	h.Before(ctx, "r1", "the prompt")
	h.After(ctx, "r1", json.RawMessage(`{"improvedCode":"x"}`), nil)

	h.Before(ctx, "r2", "another")
	h.After(ctx, "r2", nil, errors.New("boom"))

	paths, err := store.List(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{PromptFile, ResponseFile}, paths)

	b, err := store.Get(ctx, "r2", ErrorFile)
	require.NoError(t, err)
	assert.Equal(t, "boom", string(b))
	_, err = store.Get(ctx, "r2", ResponseFile)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestArchiveHookWritesAfterCancel(t *testing.T) {
	store := NewMemoryStore(0)
	h := NewArchiveHook(store, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h.After(ctx, "r", nil, context.Canceled)
	b, err := store.Get(context.Background(), "r", ErrorFile)
	require.NoError(t, err)
	assert.Equal(t, context.Canceled.Error(), string(b))
}

type failingStore struct{ MemoryStore }

func (failingStore) Put(context.Context, string, string, []byte) error {
	return errors.New("disk full")
}

func TestArchiveHookLogsWriteFailure(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	h := NewArchiveHook(&failingStore{}, zap.New(core))

	h.Before(context.Background(), "r", "p")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "archive write failed", entry.Message)
	assert.Equal(t, "r", entry.ContextMap()["request_id"])
}

// fakeS3 answers bucket HEAD checks and counts them.
func fakeS3(t *testing.T, heads *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			heads.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestS3StoreRetriesBucketCheckAfterCancel(t *testing.T) {
	var heads atomic.Int32
	srv := fakeS3(t, &heads)
	s, err := NewS3Store(S3Config{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "key",
		SecretKey: "secret",
		Bucket:    "codecraft-test",
	})
	require.NoError(t, err)

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, s.ensureBucket(canceled))

	require.NoError(t, s.ensureBucket(context.Background()))
	require.NoError(t, s.ensureBucket(context.Background()))
	assert.EqualValues(t, 1, heads.Load(), "bucket checked once after success")
}

func TestS3Store(t *testing.T) {
	endpoint := os.Getenv("ARCHIVE_TEST_S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("ARCHIVE_TEST_S3_ENDPOINT not set")
	}
	s, err := NewS3Store(S3Config{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("ARCHIVE_TEST_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("ARCHIVE_TEST_S3_SECRET_KEY"),
		Bucket:    "codecraft-test",
	})
	require.NoError(t, err)

	ctx := context.Background()
	id := uuid.NewString()
	require.NoError(t, s.Put(ctx, id, PromptFile, []byte("p")))
	require.NoError(t, s.Put(ctx, id, ResponseFile, []byte(`{}`)))

	got, err := s.Get(ctx, id, PromptFile)
	require.NoError(t, err)
	assert.Equal(t, "p", string(got))

	paths, err := s.List(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{PromptFile, ResponseFile}, paths)
}
