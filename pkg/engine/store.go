package engine

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/liliang-cn/oblist/pkg/core"

	_ "modernc.org/sqlite" // SQLite driver
)

// Store is the SQLite-backed engine. It owns the database connection, the
// write-transaction discipline, and the lifetime of every table handle it
// hands out: dropping a list or closing the store detaches the handles, at
// which point the proxies above them report core.ErrInvalidated.
type Store struct {
	db     *sql.DB
	cfg    Config
	logger core.Logger

	mu      sync.Mutex
	tx      *sql.Tx
	closed  bool
	tables  map[string]*sqliteTable
	records map[string]*recordStore
}

// Open opens (creating if needed) a database file and its schema.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("engine: database path cannot be empty")
	}
	if cfg.Logger == nil {
		cfg.Logger = core.NopLogger()
	}
	if cfg.BusyTimeoutMS <= 0 {
		cfg.BusyTimeoutMS = 5000
	}
	if cfg.CacheKB <= 0 {
		cfg.CacheKB = 2000
	}

	// _journal_mode=WAL: Better concurrency
	// _synchronous=NORMAL: Good balance of safety and speed
	// _busy_timeout: Wait for a lock instead of failing immediately
	// _cache_size: negative value = kilobytes
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=%d&_cache_size=-%d",
		cfg.Path, cfg.BusyTimeoutMS, cfg.CacheKB)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("engine: failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{
		db:      db,
		cfg:     cfg,
		logger:  cfg.Logger,
		tables:  make(map[string]*sqliteTable),
		records: make(map[string]*recordStore),
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("engine: failed to enable foreign keys: %w", err)
	}
	if err := s.createSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s.logger.Info("store opened", "path", cfg.Path)
	return s, nil
}

// createSchema creates the storage tables
func (s *Store) createSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS list_columns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT UNIQUE NOT NULL,
		column_type TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS list_rows (
		list_id INTEGER NOT NULL,
		pos INTEGER NOT NULL,
		value,
		FOREIGN KEY (list_id) REFERENCES list_columns(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_list_rows_pos ON list_rows(list_id, pos);

	CREATE TABLE IF NOT EXISTS records (
		type_name TEXT NOT NULL,
		pk TEXT NOT NULL,
		props TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (type_name, pk)
	);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("engine: failed to create schema: %w", err)
	}
	return nil
}

// querier is the subset of sql.DB / sql.Tx the row operations run against.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// q returns the open write transaction when there is one, the plain
// connection otherwise.
func (s *Store) q() querier {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// Begin starts the store's single write transaction.
func (s *Store) Begin(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.ErrInvalidated
	}
	if s.tx != nil {
		return fmt.Errorf("engine: write transaction already open")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("engine: failed to begin transaction: %w", err)
	}
	s.tx = tx
	s.logger.Debug("write transaction started")
	return nil
}

// Commit commits the open write transaction.
func (s *Store) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil {
		return fmt.Errorf("engine: no open write transaction")
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return fmt.Errorf("engine: failed to commit: %w", err)
	}
	s.logger.Debug("write transaction committed")
	return nil
}

// Rollback abandons the open write transaction.
func (s *Store) Rollback() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx == nil {
		return fmt.Errorf("engine: no open write transaction")
	}
	err := s.tx.Rollback()
	s.tx = nil
	if err != nil {
		return fmt.Errorf("engine: failed to rollback: %w", err)
	}
	s.logger.Debug("write transaction rolled back")
	return nil
}

// List opens (creating if needed) the named single-column table. Handles
// are cached, so two opens of the same name share detachment state.
func (s *Store) List(name string, columnType core.ColumnType) (core.Table, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, core.ErrInvalidated
	}
	if t, ok := s.tables[name]; ok {
		s.mu.Unlock()
		if t.ct != columnType {
			return nil, fmt.Errorf("%w: column %q is %s, not %s", core.ErrTypeMismatch, name, t.ct, columnType)
		}
		return t, nil
	}
	s.mu.Unlock()

	if !columnType.Storable() {
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedType, columnType)
	}

	var (
		id     int64
		ctName string
	)
	err := s.q().QueryRow("SELECT id, column_type FROM list_columns WHERE name = ?", name).Scan(&id, &ctName)
	switch {
	case err == sql.ErrNoRows:
		res, err := s.q().Exec("INSERT INTO list_columns (name, column_type) VALUES (?, ?)", name, columnType.String())
		if err != nil {
			return nil, fmt.Errorf("engine: failed to create column: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("engine: failed to read column id: %w", err)
		}
		s.logger.Debug("list column created", "name", name, "type", columnType)
	case err != nil:
		return nil, fmt.Errorf("engine: failed to look up column: %w", err)
	default:
		existing, ok := core.ParseColumnType(ctName)
		if !ok {
			return nil, fmt.Errorf("engine: column %q has corrupt type %q", name, ctName)
		}
		if existing != columnType {
			return nil, fmt.Errorf("%w: column %q is %s, not %s", core.ErrTypeMismatch, name, existing, columnType)
		}
	}

	t := &sqliteTable{store: s, id: id, name: name, ct: columnType}
	s.mu.Lock()
	s.tables[name] = t
	s.mu.Unlock()
	return t, nil
}

// Records opens the keyed record store for the given object type.
func (s *Store) Records(typeName string) (core.RecordStore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, core.ErrInvalidated
	}
	r, ok := s.records[typeName]
	if !ok {
		r = &recordStore{store: s, typeName: typeName}
		s.records[typeName] = r
	}
	return r, nil
}

// ListNames returns the names and types of every list column in the file.
func (s *Store) ListNames() (map[string]core.ColumnType, error) {
	rows, err := s.q().Query("SELECT name, column_type FROM list_columns ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("engine: failed to list columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]core.ColumnType)
	for rows.Next() {
		var name, ctName string
		if err := rows.Scan(&name, &ctName); err != nil {
			return nil, fmt.Errorf("engine: failed to scan column: %w", err)
		}
		ct, ok := core.ParseColumnType(ctName)
		if !ok {
			return nil, fmt.Errorf("engine: column %q has corrupt type %q", name, ctName)
		}
		out[name] = ct
	}
	return out, rows.Err()
}

// DropList deletes the named column with its rows and detaches any live
// handle to it.
func (s *Store) DropList(name string) error {
	if _, err := s.q().Exec("DELETE FROM list_columns WHERE name = ?", name); err != nil {
		return fmt.Errorf("engine: failed to drop column: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tables[name]; ok {
		t.detach()
		delete(s.tables, name)
	}
	s.logger.Debug("list column dropped", "name", name)
	return nil
}

// Close detaches every handle, rolls back a forgotten transaction and
// closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for _, t := range s.tables {
		t.detach()
	}
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}
	err := s.db.Close()
	s.logger.Info("store closed", "path", s.cfg.Path)
	if err != nil {
		return fmt.Errorf("engine: failed to close database: %w", err)
	}
	return nil
}
