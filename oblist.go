package oblist

import (
	"context"
	"fmt"

	"github.com/liliang-cn/oblist/pkg/core"
	"github.com/liliang-cn/oblist/pkg/engine"
)

// Re-exported core types, so simple programs only import the root package.
type (
	List         = core.List
	Results      = core.Results
	Object       = core.Object
	ObjectSchema = core.ObjectSchema
	Property     = core.Property
	Accessor     = core.Accessor
	ColumnType   = core.ColumnType
	ChangeKind   = core.ChangeKind
	Sink         = core.Sink
	Token        = core.Token
	Logger       = core.Logger
)

// Column types for OpenList.
const (
	ColumnInt       = core.ColumnInt
	ColumnBool      = core.ColumnBool
	ColumnFloat     = core.ColumnFloat
	ColumnDouble    = core.ColumnDouble
	ColumnString    = core.ColumnString
	ColumnBinary    = core.ColumnBinary
	ColumnTimestamp = core.ColumnTimestamp
)

// Change kinds delivered to observers.
const (
	Insertion   = core.Insertion
	Removal     = core.Removal
	Replacement = core.Replacement
)

// Common errors.
var (
	ErrOutOfRange      = core.ErrOutOfRange
	ErrInvalidated     = core.ErrInvalidated
	ErrTypeMismatch    = core.ErrTypeMismatch
	ErrExists          = core.ErrExists
	ErrAlreadyObserved = core.ErrAlreadyObserved
)

// Config represents database configuration
type Config = engine.Config

// DefaultConfig returns default configuration for a database file
func DefaultConfig(path string) Config {
	return engine.DefaultConfig(path)
}

// DB represents a SQLite-backed list database instance
type DB struct {
	store    *engine.Store
	registry *core.Registry
}

// Open opens or creates a list database.
func Open(ctx context.Context, config Config) (*DB, error) {
	store, err := engine.Open(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return &DB{store: store, registry: core.NewRegistry()}, nil
}

// OpenList opens (creating if needed) a typed list column and wraps it in an
// observable proxy. Reopening the same name must use the same column type.
func (db *DB) OpenList(name string, columnType ColumnType) (*List, error) {
	table, err := db.store.List(name, columnType)
	if err != nil {
		return nil, err
	}
	return core.NewList(table, core.ListOptions{
		Record:   "list:" + name,
		Property: name,
		Registry: db.registry,
	})
}

// Accessor builds a marshalling accessor over the database's record storage.
func (db *DB) Accessor(schemas []*ObjectSchema, target string, create bool) (*Accessor, error) {
	return core.NewAccessor(db.store, schemas, target, create)
}

// ListNames returns the names and column types of every list in the file.
func (db *DB) ListNames() (map[string]ColumnType, error) {
	return db.store.ListNames()
}

// DropList deletes a list column and invalidates any live proxy over it.
func (db *DB) DropList(name string) error {
	return db.store.DropList(name)
}

// Begin starts the single write transaction.
func (db *DB) Begin(ctx context.Context) error {
	return db.store.Begin(ctx)
}

// Commit commits the open write transaction.
func (db *DB) Commit() error {
	return db.store.Commit()
}

// Rollback abandons the open write transaction.
func (db *DB) Rollback() error {
	return db.store.Rollback()
}

// Store returns the underlying engine for lower-level operations.
func (db *DB) Store() *engine.Store {
	return db.store
}

// Close closes the database, invalidating every live list proxy.
func (db *DB) Close() error {
	return db.store.Close()
}
