package core

import (
	"fmt"
	"sort"
)

// List is an ordered, mutable, randomly-accessible view over a single-column
// table. It owns neither the table (the engine does) nor the observation
// registry (the session layer does); it only routes every mutation through
// the dispatcher and the notification bracket.
//
// Row indexes shift on insert and remove, so callers must not cache them
// across mutating calls. All operations are synchronous and assume the
// engine's single-writer discipline.
type List struct {
	table    Table
	key      obsKey
	registry *Registry
	logger   Logger
}

// ListOptions configures a List.
type ListOptions struct {
	// Record identifies the owning parent record for observation purposes.
	Record string
	// Property is the property slot this list occupies on the record.
	Property string
	// Registry is the observation registry to resolve sinks through. When
	// nil, a private registry is created on first Observe.
	Registry *Registry
	// Logger defaults to NopLogger.
	Logger Logger
}

// NewList wraps a table handle in an observable list.
func NewList(table Table, opts ListOptions) (*List, error) {
	if table == nil {
		return nil, wrapError("new_list", fmt.Errorf("table handle cannot be nil"))
	}
	if !table.ColumnType().Storable() {
		return nil, wrapError("new_list", fmt.Errorf("%w: %s", ErrUnsupportedType, table.ColumnType()))
	}
	logger := opts.Logger
	if logger == nil {
		logger = NopLogger()
	}
	return &List{
		table:    table,
		key:      obsKey{record: opts.Record, property: opts.Property},
		registry: opts.Registry,
		logger:   logger,
	}, nil
}

// Count returns the current row count. An invalidated list reports 0.
func (l *List) Count() int {
	if !l.table.Attached() {
		return 0
	}
	return l.table.Size()
}

// IsInvalidated reports whether the backing table has been detached.
func (l *List) IsInvalidated() bool {
	return !l.table.Attached()
}

// ColumnType returns the storage type of the backing column.
func (l *List) ColumnType() ColumnType {
	return l.table.ColumnType()
}

// Property returns the property slot this list occupies.
func (l *List) Property() string {
	return l.key.property
}

// Get returns the value at the given index.
func (l *List) Get(i int) (any, error) {
	const op = "get"
	if i < 0 || i >= l.Count() {
		return nil, wrapError(op, ErrOutOfRange)
	}
	v, err := loadRow(l.table, i)
	if err != nil {
		return nil, wrapError(op, err)
	}
	return v, nil
}

// Values returns a snapshot of every value in order.
func (l *List) Values() ([]any, error) {
	n := l.Count()
	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		v, err := l.Get(i)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Insert places a value at the given index, shifting later rows up.
// Inserting at Count appends.
func (l *List) Insert(i int, v any) error {
	const op = "insert"
	if err := l.writable(op); err != nil {
		return err
	}
	if i < 0 || i > l.table.Size() {
		return wrapError(op, ErrOutOfRange)
	}
	conv, err := convertForColumn(l.table.ColumnType(), l.key.property, v)
	if err != nil {
		return wrapError(op, err)
	}
	return wrapError(op, l.bracket(Insertion,
		func() []int { return []int{i} },
		func() error {
			if err := l.table.InsertRow(i); err != nil {
				return err
			}
			return storeRow(l.table, i, conv)
		}))
}

// Append adds a value at the end of the list.
func (l *List) Append(v any) error {
	if err := l.writable("append"); err != nil {
		return err
	}
	return l.Insert(l.table.Size(), v)
}

// InsertMany inserts values at the given index positions. Indexes refer to
// positions in the final, post-insertion list (so they may be sparse) and
// must be strictly ascending, one per value.
func (l *List) InsertMany(indexes []int, values []any) error {
	const op = "insert_many"
	if err := l.writable(op); err != nil {
		return err
	}
	if len(indexes) != len(values) {
		return wrapError(op, fmt.Errorf("%d indexes for %d values", len(indexes), len(values)))
	}
	size := l.table.Size()
	for k, idx := range indexes {
		if k > 0 && idx <= indexes[k-1] {
			return wrapError(op, fmt.Errorf("indexes must be strictly ascending"))
		}
		// Each index lands after k earlier insertions have grown the list.
		if idx < 0 || idx > size+k {
			return wrapError(op, ErrOutOfRange)
		}
	}
	ct := l.table.ColumnType()
	converted := make([]any, len(values))
	for k, v := range values {
		conv, err := convertForColumn(ct, l.key.property, v)
		if err != nil {
			return wrapError(op, err)
		}
		converted[k] = conv
	}
	set := append([]int(nil), indexes...)
	return wrapError(op, l.bracket(Insertion,
		func() []int { return set },
		func() error {
			for k, idx := range indexes {
				if err := l.table.InsertRow(idx); err != nil {
					return err
				}
				if err := storeRow(l.table, idx, converted[k]); err != nil {
					return err
				}
			}
			return nil
		}))
}

// RemoveAt deletes the row at the given index, shifting later rows down.
func (l *List) RemoveAt(i int) error {
	const op = "remove_at"
	if err := l.writable(op); err != nil {
		return err
	}
	if i < 0 || i >= l.table.Size() {
		return wrapError(op, ErrOutOfRange)
	}
	return wrapError(op, l.bracket(Removal,
		func() []int { return []int{i} },
		func() error { return l.table.RemoveRow(i) }))
}

// RemoveMany deletes all rows in the given index set. The notification
// covers the original, pre-removal indexes; internally rows are removed in
// descending order so earlier removals never shift a pending one.
func (l *List) RemoveMany(indexes []int) error {
	const op = "remove_many"
	if err := l.writable(op); err != nil {
		return err
	}
	set := normalizeIndexSet(indexes)
	size := l.table.Size()
	for _, idx := range set {
		if idx < 0 || idx >= size {
			return wrapError(op, ErrOutOfRange)
		}
	}
	return wrapError(op, l.bracket(Removal,
		func() []int { return set },
		func() error {
			for k := len(set) - 1; k >= 0; k-- {
				if err := l.table.RemoveRow(set[k]); err != nil {
					return err
				}
			}
			return nil
		}))
}

// ReplaceAt overwrites the value at the given index in place.
func (l *List) ReplaceAt(i int, v any) error {
	const op = "replace_at"
	if err := l.writable(op); err != nil {
		return err
	}
	if i < 0 || i >= l.table.Size() {
		return wrapError(op, ErrOutOfRange)
	}
	conv, err := convertForColumn(l.table.ColumnType(), l.key.property, v)
	if err != nil {
		return wrapError(op, err)
	}
	return wrapError(op, l.bracket(Replacement,
		func() []int { return []int{i} },
		func() error { return storeRow(l.table, i, conv) }))
}

// Exchange swaps the values at two positions. A single Replacement
// notification covers both indexes.
func (l *List) Exchange(a, b int) error {
	const op = "exchange"
	if err := l.writable(op); err != nil {
		return err
	}
	size := l.table.Size()
	if a < 0 || a >= size || b < 0 || b >= size {
		return wrapError(op, ErrOutOfRange)
	}
	return wrapError(op, l.bracket(Replacement,
		func() []int { return normalizeIndexSet([]int{a, b}) },
		func() error { return l.table.SwapRows(a, b) }))
}

// Extend appends all values in order. The notification covers the appended
// range [oldCount, oldCount+len).
func (l *List) Extend(values []any) error {
	const op = "extend"
	if err := l.writable(op); err != nil {
		return err
	}
	ct := l.table.ColumnType()
	converted := make([]any, len(values))
	for k, v := range values {
		conv, err := convertForColumn(ct, l.key.property, v)
		if err != nil {
			return wrapError(op, err)
		}
		converted[k] = conv
	}
	old := l.table.Size()
	return wrapError(op, l.bracket(Insertion,
		func() []int { return indexRange(old, old+len(converted)) },
		func() error {
			for k, conv := range converted {
				if err := l.table.InsertRow(old + k); err != nil {
					return err
				}
				if err := storeRow(l.table, old+k, conv); err != nil {
					return err
				}
			}
			return nil
		}))
}

// Clear removes every row. The notification covers [0, count) computed
// before anything is removed.
func (l *List) Clear() error {
	const op = "clear"
	if err := l.writable(op); err != nil {
		return err
	}
	n := l.table.Size()
	return wrapError(op, l.bracket(Removal,
		func() []int { return indexRange(0, n) },
		func() error { return l.table.Clear() }))
}

// SetAll overwrites every row with the same value. It notifies as a
// Replacement over the full range.
func (l *List) SetAll(v any) error {
	const op = "set_all"
	if err := l.writable(op); err != nil {
		return err
	}
	conv, err := convertForColumn(l.table.ColumnType(), l.key.property, v)
	if err != nil {
		return wrapError(op, err)
	}
	n := l.table.Size()
	return wrapError(op, l.bracket(Replacement,
		func() []int { return indexRange(0, n) },
		func() error {
			for i := 0; i < n; i++ {
				if err := storeRow(l.table, i, conv); err != nil {
					return err
				}
			}
			return nil
		}))
}

// IndexOf returns the smallest index holding a value equal to v, or -1.
// An invalidated list is empty, so it always reports -1.
func (l *List) IndexOf(v any) (int, error) {
	if !l.table.Attached() {
		return -1, nil
	}
	idx, err := findRow(l.table, v)
	if err != nil {
		return -1, wrapError("index_of", err)
	}
	return idx, nil
}

// Observe registers a sink for this list's slot and returns a cancellable
// token. A slot holds at most one observer at a time.
func (l *List) Observe(sink Sink) (*Token, error) {
	if !l.table.Attached() {
		return nil, wrapError("observe", ErrInvalidated)
	}
	if l.registry == nil {
		l.registry = NewRegistry()
	}
	return l.registry.observe(l.key, sink)
}

// writable re-validates attachment before any mutation, so a detached list
// fails before either half of a notification pair could fire.
func (l *List) writable(op string) error {
	if !l.table.Attached() {
		return wrapError(op, ErrInvalidated)
	}
	return nil
}

func (l *List) bracket(kind ChangeKind, indexes func() []int, fn func() error) error {
	if l.registry == nil {
		return fn()
	}
	return l.registry.bracket(l.key, kind, indexes, fn)
}

// normalizeIndexSet sorts and deduplicates an index set.
func normalizeIndexSet(indexes []int) []int {
	set := append([]int(nil), indexes...)
	sort.Ints(set)
	out := set[:0]
	for k, idx := range set {
		if k == 0 || idx != set[k-1] {
			out = append(out, idx)
		}
	}
	return out
}

// indexRange returns the half-open range [from, to) as an index set.
func indexRange(from, to int) []int {
	if to <= from {
		return nil
	}
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}
