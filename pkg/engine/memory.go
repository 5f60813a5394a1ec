package engine

import (
	"bytes"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/liliang-cn/oblist/internal/encoding"
	"github.com/liliang-cn/oblist/pkg/core"
)

// MemStore is an in-memory engine with the same semantics as the SQLite
// store. Useful for tests and for collections that never need to outlive
// the process.
type MemStore struct {
	mu      sync.Mutex
	lists   map[string]*memTable
	records map[string]*memRecords
	closed  bool
	logger  core.Logger
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		lists:   make(map[string]*memTable),
		records: make(map[string]*memRecords),
		logger:  core.NopLogger(),
	}
}

// WithLogger sets the store's logger and returns it for chaining.
func (s *MemStore) WithLogger(logger core.Logger) *MemStore {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// List opens (creating if needed) the named single-column table. Opening an
// existing column with a different type fails.
func (s *MemStore) List(name string, columnType core.ColumnType) (core.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, core.ErrInvalidated
	}
	if !columnType.Storable() {
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedType, columnType)
	}
	if t, ok := s.lists[name]; ok {
		if t.ct != columnType {
			return nil, fmt.Errorf("%w: column %q is %s, not %s", core.ErrTypeMismatch, name, t.ct, columnType)
		}
		return t, nil
	}
	t := &memTable{name: name, ct: columnType, col: newColumn(columnType)}
	s.lists[name] = t
	s.logger.Debug("list column created", "name", name, "type", columnType)
	return t, nil
}

// Records opens the keyed record store for the given object type.
func (s *MemStore) Records(typeName string) (core.RecordStore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, core.ErrInvalidated
	}
	r, ok := s.records[typeName]
	if !ok {
		r = &memRecords{byKey: make(map[string]map[string]any)}
		s.records[typeName] = r
	}
	return r, nil
}

// DropList deletes the named column and detaches any live handle to it.
func (s *MemStore) DropList(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.lists[name]; ok {
		t.detached = true
		delete(s.lists, name)
		s.logger.Debug("list column dropped", "name", name)
	}
}

// Close detaches every open handle.
func (s *MemStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for _, t := range s.lists {
		t.detached = true
	}
	s.closed = true
}

// memColumn is the typed row storage for one column. Exactly one concrete
// instantiation exists per table; there is no boxed fallback.
type memColumn[T any] struct {
	rows []T
	eq   func(a, b T) bool
}

func (c *memColumn[T]) insertZero(i int) {
	var zero T
	c.rows = slices.Insert(c.rows, i, zero)
}

func (c *memColumn[T]) removeAt(i int) {
	c.rows = slices.Delete(c.rows, i, i+1)
}

func (c *memColumn[T]) swap(a, b int) {
	c.rows[a], c.rows[b] = c.rows[b], c.rows[a]
}

func (c *memColumn[T]) clear() {
	c.rows = c.rows[:0]
}

func (c *memColumn[T]) length() int {
	return len(c.rows)
}

func (c *memColumn[T]) get(i int) (T, error) {
	var zero T
	if i < 0 || i >= len(c.rows) {
		return zero, core.ErrOutOfRange
	}
	return c.rows[i], nil
}

func (c *memColumn[T]) set(i int, v T) error {
	if i < 0 || i >= len(c.rows) {
		return core.ErrOutOfRange
	}
	c.rows[i] = v
	return nil
}

func (c *memColumn[T]) find(v T) int {
	for i, row := range c.rows {
		if c.eq(row, v) {
			return i
		}
	}
	return -1
}

// colOps is the untyped slice of memColumn the table's structural
// operations need.
type colOps interface {
	insertZero(i int)
	removeAt(i int)
	swap(a, b int)
	clear()
	length() int
}

func newColumn(ct core.ColumnType) colOps {
	switch ct {
	case core.ColumnInt:
		return &memColumn[int64]{eq: func(a, b int64) bool { return a == b }}
	case core.ColumnBool:
		return &memColumn[bool]{eq: func(a, b bool) bool { return a == b }}
	case core.ColumnFloat:
		return &memColumn[float32]{eq: func(a, b float32) bool { return a == b }}
	case core.ColumnDouble:
		return &memColumn[float64]{eq: func(a, b float64) bool { return a == b }}
	case core.ColumnString:
		return &memColumn[string]{eq: func(a, b string) bool { return a == b }}
	case core.ColumnBinary:
		return &memColumn[[]byte]{eq: bytes.Equal}
	case core.ColumnTimestamp:
		return &memColumn[time.Time]{eq: func(a, b time.Time) bool { return a.Equal(b) }}
	default:
		panic(fmt.Sprintf("engine: unknown column type %d", ct))
	}
}

// memTable implements core.Table over a single typed column.
type memTable struct {
	name     string
	ct       core.ColumnType
	col      colOps
	detached bool
}

func (t *memTable) Size() int {
	if t.detached {
		return 0
	}
	return t.col.length()
}

func (t *memTable) Attached() bool {
	return !t.detached
}

func (t *memTable) ColumnType() core.ColumnType {
	return t.ct
}

func (t *memTable) InsertRow(i int) error {
	if t.detached {
		return core.ErrInvalidated
	}
	if i < 0 || i > t.col.length() {
		return core.ErrOutOfRange
	}
	t.col.insertZero(i)
	return nil
}

func (t *memTable) RemoveRow(i int) error {
	if t.detached {
		return core.ErrInvalidated
	}
	if i < 0 || i >= t.col.length() {
		return core.ErrOutOfRange
	}
	t.col.removeAt(i)
	return nil
}

func (t *memTable) Clear() error {
	if t.detached {
		return core.ErrInvalidated
	}
	t.col.clear()
	return nil
}

func (t *memTable) SwapRows(a, b int) error {
	if t.detached {
		return core.ErrInvalidated
	}
	n := t.col.length()
	if a < 0 || a >= n || b < 0 || b >= n {
		return core.ErrOutOfRange
	}
	t.col.swap(a, b)
	return nil
}

// typed verifies the handle is live and the accessor matches the column.
func (t *memTable) typed(want core.ColumnType) error {
	if t.detached {
		return core.ErrInvalidated
	}
	if t.ct != want {
		return fmt.Errorf("%w: column %q is %s, not %s", core.ErrTypeMismatch, t.name, t.ct, want)
	}
	return nil
}

func column[T any](t *memTable) *memColumn[T] {
	return t.col.(*memColumn[T])
}

func (t *memTable) GetInt(i int) (int64, error) {
	if err := t.typed(core.ColumnInt); err != nil {
		return 0, err
	}
	return column[int64](t).get(i)
}

func (t *memTable) SetInt(i int, v int64) error {
	if err := t.typed(core.ColumnInt); err != nil {
		return err
	}
	return column[int64](t).set(i, v)
}

func (t *memTable) FindInt(v int64) (int, error) {
	if err := t.typed(core.ColumnInt); err != nil {
		return -1, err
	}
	return column[int64](t).find(v), nil
}

func (t *memTable) GetBool(i int) (bool, error) {
	if err := t.typed(core.ColumnBool); err != nil {
		return false, err
	}
	return column[bool](t).get(i)
}

func (t *memTable) SetBool(i int, v bool) error {
	if err := t.typed(core.ColumnBool); err != nil {
		return err
	}
	return column[bool](t).set(i, v)
}

func (t *memTable) FindBool(v bool) (int, error) {
	if err := t.typed(core.ColumnBool); err != nil {
		return -1, err
	}
	return column[bool](t).find(v), nil
}

func (t *memTable) GetFloat(i int) (float32, error) {
	if err := t.typed(core.ColumnFloat); err != nil {
		return 0, err
	}
	return column[float32](t).get(i)
}

func (t *memTable) SetFloat(i int, v float32) error {
	if err := t.typed(core.ColumnFloat); err != nil {
		return err
	}
	return column[float32](t).set(i, v)
}

func (t *memTable) FindFloat(v float32) (int, error) {
	if err := t.typed(core.ColumnFloat); err != nil {
		return -1, err
	}
	return column[float32](t).find(v), nil
}

func (t *memTable) GetDouble(i int) (float64, error) {
	if err := t.typed(core.ColumnDouble); err != nil {
		return 0, err
	}
	return column[float64](t).get(i)
}

func (t *memTable) SetDouble(i int, v float64) error {
	if err := t.typed(core.ColumnDouble); err != nil {
		return err
	}
	return column[float64](t).set(i, v)
}

func (t *memTable) FindDouble(v float64) (int, error) {
	if err := t.typed(core.ColumnDouble); err != nil {
		return -1, err
	}
	return column[float64](t).find(v), nil
}

func (t *memTable) GetString(i int) (string, error) {
	if err := t.typed(core.ColumnString); err != nil {
		return "", err
	}
	return column[string](t).get(i)
}

func (t *memTable) SetString(i int, v string) error {
	if err := t.typed(core.ColumnString); err != nil {
		return err
	}
	return column[string](t).set(i, v)
}

func (t *memTable) FindString(v string) (int, error) {
	if err := t.typed(core.ColumnString); err != nil {
		return -1, err
	}
	return column[string](t).find(v), nil
}

func (t *memTable) GetBinary(i int) ([]byte, error) {
	if err := t.typed(core.ColumnBinary); err != nil {
		return nil, err
	}
	return column[[]byte](t).get(i)
}

func (t *memTable) SetBinary(i int, v []byte) error {
	if err := t.typed(core.ColumnBinary); err != nil {
		return err
	}
	return column[[]byte](t).set(i, v)
}

func (t *memTable) FindBinary(v []byte) (int, error) {
	if err := t.typed(core.ColumnBinary); err != nil {
		return -1, err
	}
	return column[[]byte](t).find(v), nil
}

func (t *memTable) GetTimestamp(i int) (time.Time, error) {
	if err := t.typed(core.ColumnTimestamp); err != nil {
		return time.Time{}, err
	}
	return column[time.Time](t).get(i)
}

func (t *memTable) SetTimestamp(i int, v time.Time) error {
	if err := t.typed(core.ColumnTimestamp); err != nil {
		return err
	}
	return column[time.Time](t).set(i, v)
}

func (t *memTable) FindTimestamp(v time.Time) (int, error) {
	if err := t.typed(core.ColumnTimestamp); err != nil {
		return -1, err
	}
	return column[time.Time](t).find(v), nil
}

// memRecords implements core.RecordStore in memory, preserving insertion
// order for Keys.
type memRecords struct {
	mu    sync.Mutex
	keys  []any
	byKey map[string]map[string]any
}

func (r *memRecords) Contains(pk any) (bool, error) {
	key, err := encoding.KeyString(pk)
	if err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byKey[key]
	return ok, nil
}

func (r *memRecords) Fetch(pk any) (map[string]any, error) {
	key, err := encoding.KeyString(pk)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	props, ok := r.byKey[key]
	if !ok {
		return nil, fmt.Errorf("record %v not found", pk)
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out, nil
}

func (r *memRecords) Put(pk any, props map[string]any) error {
	key, err := encoding.KeyString(pk)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byKey[key]; ok {
		return fmt.Errorf("%w: %v", core.ErrExists, pk)
	}
	stored := make(map[string]any, len(props))
	for k, v := range props {
		stored[k] = v
	}
	r.byKey[key] = stored
	r.keys = append(r.keys, pk)
	return nil
}

func (r *memRecords) Merge(pk any, props map[string]any) error {
	key, err := encoding.KeyString(pk)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byKey[key]
	if !ok {
		return fmt.Errorf("record %v not found", pk)
	}
	for k, v := range props {
		existing[k] = v
	}
	return nil
}

func (r *memRecords) Keys() ([]any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.keys...), nil
}
