package core

import "time"

// Table is the narrow handle this package consumes from a storage engine.
// It is a non-owning view of a single-column row store: every row holds one
// value of the table's ColumnType. Implementations live in pkg/engine.
//
// Typed accessors must return ErrInvalidated once the handle is detached,
// and ErrOutOfRange for positions outside [0, Size()). Calling an accessor
// of the wrong type for the column is a caller bug; implementations return
// ErrTypeMismatch rather than guessing.
type Table interface {
	// Size returns the current row count, or 0 once detached.
	Size() int
	// Attached reports whether the handle is still backed by live storage.
	Attached() bool
	// ColumnType returns the fixed storage type of the column.
	ColumnType() ColumnType

	// InsertRow inserts an empty (zero-valued) row at position i, shifting
	// rows at i and above up by one. i == Size() appends.
	InsertRow(i int) error
	// RemoveRow removes the row at position i, shifting higher rows down.
	RemoveRow(i int) error
	// Clear removes every row.
	Clear() error
	// SwapRows exchanges the values at positions a and b.
	SwapRows(a, b int) error

	GetInt(i int) (int64, error)
	SetInt(i int, v int64) error
	FindInt(v int64) (int, error)

	GetBool(i int) (bool, error)
	SetBool(i int, v bool) error
	FindBool(v bool) (int, error)

	GetFloat(i int) (float32, error)
	SetFloat(i int, v float32) error
	FindFloat(v float32) (int, error)

	GetDouble(i int) (float64, error)
	SetDouble(i int, v float64) error
	FindDouble(v float64) (int, error)

	GetString(i int) (string, error)
	SetString(i int, v string) error
	FindString(v string) (int, error)

	GetBinary(i int) ([]byte, error)
	SetBinary(i int, v []byte) error
	FindBinary(v []byte) (int, error)

	GetTimestamp(i int) (time.Time, error)
	SetTimestamp(i int, v time.Time) error
	FindTimestamp(v time.Time) (int, error)
}

// Session is the slice of the storage engine the accessor layer needs:
// opening list columns and keyed record stores. Transaction discipline
// stays with the engine; this package assumes a write-capable session for
// every mutating call.
type Session interface {
	// List opens (creating if needed) the named single-column table.
	// Opening an existing column with a different type fails.
	List(name string, columnType ColumnType) (Table, error)
	// Records opens the keyed record store for the given object type name.
	Records(typeName string) (RecordStore, error)
}

// RecordStore is a keyed store of records for one object type, used by the
// accessor to resolve relationship references by primary key.
type RecordStore interface {
	// Contains reports whether a record with the given primary key exists.
	Contains(pk any) (bool, error)
	// Fetch returns the property values of the record with the given key.
	Fetch(pk any) (map[string]any, error)
	// Put creates a record; it fails if the key is already taken.
	Put(pk any, props map[string]any) error
	// Merge updates an existing record's properties in place.
	Merge(pk any, props map[string]any) error
	// Keys returns all primary keys in insertion order.
	Keys() ([]any, error)
}
