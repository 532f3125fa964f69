package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"codecraft/internal/llm"
	"codecraft/internal/refactor"
	"codecraft/internal/tester"
)

func sampleItem(n int) Item {
	return Item{
		Result: refactor.Result{
			ImprovedCode: fmt.Sprintf("const v%d = %d;", n, n),
			Explanation:  "renamed",
			KeyChanges:   []string{"a", "b"},
		},
		ID:           fmt.Sprintf("id-%d", n),
		Timestamp:    int64(1000 + n),
		OriginalCode: fmt.Sprintf("var v%d = %d", n, n),
		Language:     "JavaScript",
		Focus:        refactor.FocusReadability,
	}
}

// exerciseStore runs the same checks against every backend.
func exerciseStore(t *testing.T, s Store, capacity int) {
	t.Helper()
	ctx := context.Background()

	items, err := s.List(ctx, 0)
	tester.NoErr(t, err)
	tester.Eq(t, len(items), 0)

	for i := 1; i <= capacity+2; i++ {
		tester.NoErr(t, s.Append(ctx, sampleItem(i)))
	}

	items, err = s.List(ctx, 0)
	tester.NoErr(t, err)
	tester.Eq(t, len(items), capacity, "evicted beyond capacity")
	tester.Eq(t, items[0].ID, fmt.Sprintf("id-%d", capacity+2), "newest first")
	tester.Eq(t, items[len(items)-1].ID, "id-3", "oldest surviving")

	limited, err := s.List(ctx, 2)
	tester.NoErr(t, err)
	tester.Eq(t, len(limited), 2)

	got, err := s.Get(ctx, "id-4")
	tester.NoErr(t, err)
	tester.Eq(t, got, sampleItem(4))

	_, err = s.Get(ctx, "id-1")
	tester.ErrIs(t, err, ErrNotFound, "evicted item")

	// Returned slices are copies.
	limited[0].KeyChanges[0] = "mutated"
	again, err := s.List(ctx, 2)
	tester.NoErr(t, err)
	tester.Eq(t, again[0].KeyChanges[0], "a")
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(3), 3)
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "history.db"), 3)
	tester.NoErr(t, err)
	defer s.Close()
	exerciseStore(t, s, 3)
}

func TestSQLiteStoreListCacheInvalidatedOnAppend(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "history.db"), 5)
	tester.NoErr(t, err)
	defer s.Close()

	tester.NoErr(t, s.Append(ctx, sampleItem(1)))
	first, err := s.List(ctx, 0)
	tester.NoErr(t, err)
	tester.Eq(t, len(first), 1)

	tester.NoErr(t, s.Append(ctx, sampleItem(2)))
	second, err := s.List(ctx, 0)
	tester.NoErr(t, err)
	tester.Eq(t, len(second), 2)
	tester.Eq(t, second[0].ID, "id-2")
}

func TestSQLiteStoreRecoversFromCanceledFirstCall(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "history.db"), 5)
	tester.NoErr(t, err)
	defer s.Close()

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	tester.True(t, s.Append(canceled, sampleItem(1)) != nil, "canceled append fails")

	ctx := context.Background()
	tester.NoErr(t, s.Append(ctx, sampleItem(2)))
	items, err := s.List(ctx, 0)
	tester.NoErr(t, err)
	tester.Eq(t, len(items), 1)
	tester.Eq(t, items[0].ID, "id-2")
}

func TestSQLiteStoreDropsListReadBeforeAppend(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "history.db"), 5)
	tester.NoErr(t, err)
	defer s.Close()

	tester.NoErr(t, s.Append(ctx, sampleItem(1)))
	stale, err := s.List(ctx, 0)
	tester.NoErr(t, err)

	// A List that started before this append must not repopulate the cache.
	gen := s.generation()
	tester.NoErr(t, s.Append(ctx, sampleItem(2)))
	tester.True(t, !s.cacheList(gen, s.capacity, stale), "stale rows cached")

	items, err := s.List(ctx, 0)
	tester.NoErr(t, err)
	tester.Eq(t, len(items), 2)
	tester.Eq(t, items[0].ID, "id-2")
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("HISTORY_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("HISTORY_TEST_PG_DSN not set")
	}
	s, err := OpenPostgres(dsn, 3)
	tester.NoErr(t, err)
	defer s.Close()
	_, err = s.db.Exec(`DELETE FROM history_items`)
	if err != nil {
		// Table may not exist yet; Append creates it.
		t.Logf("cleanup: %v", err)
	}
	exerciseStore(t, s, 3)
}

func TestOpen(t *testing.T) {
	s, err := Open(Config{})
	tester.NoErr(t, err)
	_, ok := s.(*MemoryStore)
	tester.True(t, ok, "empty backend is memory")

	_, err = Open(Config{Backend: "cassandra"})
	tester.True(t, err != nil)

	_, err = Open(Config{Backend: "postgres"})
	tester.True(t, err != nil, "postgres needs a dsn")
}

func TestRecorder(t *testing.T) {
	store := NewMemoryStore(2)
	rec := Recorder{Store: store}
	req := refactor.Request{Code: "x", Language: "Go", Focus: refactor.FocusSecurity}
	res := refactor.Result{ImprovedCode: "y", Explanation: "z", KeyChanges: []string{"k"}}
	tester.NoErr(t, rec.Record(context.Background(), req, res))

	items, err := store.List(context.Background(), 0)
	tester.NoErr(t, err)
	tester.Eq(t, len(items), 1)
	tester.Eq(t, items[0].Result, res)
	tester.Eq(t, items[0].OriginalCode, "x")
	tester.Eq(t, items[0].Focus, refactor.FocusSecurity)
	tester.True(t, items[0].ID != "")

	tester.NoErr(t, Recorder{}.Record(context.Background(), req, res), "nil store is a no-op")

	ctx := llm.WithRequestID(context.Background(), "req-42")
	tester.NoErr(t, rec.Record(ctx, req, res))
	got, err := store.Get(context.Background(), "req-42")
	tester.NoErr(t, err)
	tester.Eq(t, got.OriginalCode, "x")
}
