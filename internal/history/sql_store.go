package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"codecraft/internal/refactor"
)

type dialect struct {
	driver string
	schema string
	// placeholder renders the n-th (1-based) bind parameter.
	placeholder func(n int) string
}

var postgresDialect = dialect{
	driver: "pgx",
	schema: `
CREATE TABLE IF NOT EXISTS history_items (
    seq BIGSERIAL PRIMARY KEY,
    id TEXT NOT NULL UNIQUE,
    created_at BIGINT NOT NULL,
    original_code TEXT NOT NULL,
    language TEXT NOT NULL,
    focus TEXT NOT NULL,
    improved_code TEXT NOT NULL,
    explanation TEXT NOT NULL,
    key_changes TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS idx_history_items_created_at ON history_items(created_at);
`,
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
}

var sqliteDialect = dialect{
	driver: "sqlite",
	schema: `
CREATE TABLE IF NOT EXISTS history_items (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    created_at INTEGER NOT NULL,
    original_code TEXT NOT NULL,
    language TEXT NOT NULL,
    focus TEXT NOT NULL,
    improved_code TEXT NOT NULL,
    explanation TEXT NOT NULL,
    key_changes TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS idx_history_items_created_at ON history_items(created_at);
`,
	placeholder: func(int) string { return "?" },
}

// SQLStore persists the log in Postgres (pgx) or SQLite. List results are
// cached per limit and dropped on every append.
type SQLStore struct {
	db       *sql.DB
	d        dialect
	capacity int

	// schemaReady is set only after the schema statement succeeds, so a
	// failed or canceled first attempt is retried by the next call.
	schemaMu    sync.Mutex
	schemaReady bool

	// gen counts committed appends. A List result is cached only when no
	// append committed while its query ran.
	cacheMu   sync.Mutex
	gen       uint64
	listCache *lru.Cache[int, []Item]
}

// OpenPostgres connects with a postgres:// DSN.
func OpenPostgres(dsn string, capacity int) (*SQLStore, error) {
	return openSQL(postgresDialect, dsn, capacity)
}

// OpenSQLite opens a file (or ":memory:") database.
func OpenSQLite(dsn string, capacity int) (*SQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "codecraft_history.db"
	}
	s, err := openSQL(sqliteDialect, dsn, capacity)
	if err != nil {
		return nil, err
	}
	// One writer keeps SQLite from reporting SQLITE_BUSY under concurrent appends.
	s.db.SetMaxOpenConns(1)
	return s, nil
}

func openSQL(d dialect, dsn string, capacity int) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("history: %s dsn is required", d.driver)
	}
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewSQLStore(db, d.driver, capacity)
}

// NewSQLStore wraps an already opened database. driver is "pgx" or "sqlite".
func NewSQLStore(db *sql.DB, driver string, capacity int) (*SQLStore, error) {
	if db == nil {
		return nil, errors.New("history: db is nil")
	}
	d := sqliteDialect
	if driver == postgresDialect.driver {
		d = postgresDialect
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	cache, err := lru.New[int, []Item](16)
	if err != nil {
		return nil, err
	}
	return &SQLStore{db: db, d: d, capacity: capacity, listCache: cache}, nil
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()
	if s.schemaReady {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, s.d.schema); err != nil {
		return err
	}
	s.schemaReady = true
	return nil
}

func (s *SQLStore) generation() uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.gen
}

func (s *SQLStore) invalidate() {
	s.cacheMu.Lock()
	s.gen++
	s.listCache.Purge()
	s.cacheMu.Unlock()
}

// cacheList stores rows read at generation gen unless an append has
// committed since.
func (s *SQLStore) cacheList(gen uint64, limit int, rows []Item) bool {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.gen != gen {
		return false
	}
	s.listCache.Add(limit, rows)
	return true
}

func (s *SQLStore) Append(ctx context.Context, item Item) error {
	if err := s.ensureSchema(ctx); err != nil {
		return fmt.Errorf("history: ensure schema: %w", err)
	}
	changes, err := json.Marshal(nonNil(item.KeyChanges))
	if err != nil {
		return err
	}
	focus, err := item.Focus.MarshalText()
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	p := s.d.placeholder
	insert := fmt.Sprintf(`INSERT INTO history_items
(id, created_at, original_code, language, focus, improved_code, explanation, key_changes)
VALUES (%s, %s, %s, %s, %s, %s, %s, %s)`, p(1), p(2), p(3), p(4), p(5), p(6), p(7), p(8))
	if _, err := tx.ExecContext(ctx, insert,
		item.ID, item.Timestamp, item.OriginalCode, item.Language, string(focus),
		item.ImprovedCode, item.Explanation, string(changes),
	); err != nil {
		return fmt.Errorf("history: insert: %w", err)
	}
	trim := fmt.Sprintf(`DELETE FROM history_items WHERE seq NOT IN
(SELECT seq FROM history_items ORDER BY seq DESC LIMIT %s)`, p(1))
	if _, err := tx.ExecContext(ctx, trim, s.capacity); err != nil {
		return fmt.Errorf("history: evict: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

const selectColumns = `id, created_at, original_code, language, focus, improved_code, explanation, key_changes`

func (s *SQLStore) List(ctx context.Context, limit int) ([]Item, error) {
	if limit <= 0 || limit > s.capacity {
		limit = s.capacity
	}
	if cached, ok := s.listCache.Get(limit); ok {
		return cloneItems(cached), nil
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("history: ensure schema: %w", err)
	}
	gen := s.generation()
	q := fmt.Sprintf(`SELECT %s FROM history_items ORDER BY seq DESC LIMIT %s`, selectColumns, s.d.placeholder(1))
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Item, 0, limit)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	s.cacheList(gen, limit, out)
	return cloneItems(out), nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Item, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return Item{}, fmt.Errorf("history: ensure schema: %w", err)
	}
	q := fmt.Sprintf(`SELECT %s FROM history_items WHERE id = %s`, selectColumns, s.d.placeholder(1))
	it, err := scanItem(s.db.QueryRowContext(ctx, q, strings.TrimSpace(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	return it, err
}

func (s *SQLStore) Close() error { return s.db.Close() }

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (Item, error) {
	var (
		it      Item
		focus   string
		changes string
	)
	if err := row.Scan(&it.ID, &it.Timestamp, &it.OriginalCode, &it.Language, &focus,
		&it.ImprovedCode, &it.Explanation, &changes); err != nil {
		return Item{}, err
	}
	f, err := refactor.ParseFocus(focus)
	if err != nil {
		return Item{}, fmt.Errorf("history: item %s: %w", it.ID, err)
	}
	it.Focus = f
	if err := json.Unmarshal([]byte(changes), &it.KeyChanges); err != nil {
		return Item{}, fmt.Errorf("history: item %s key changes: %w", it.ID, err)
	}
	return it, nil
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = cloneItem(it)
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
