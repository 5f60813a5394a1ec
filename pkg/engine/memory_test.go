package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liliang-cn/oblist/pkg/core"
)

func TestMemStoreTypedRoundTrip(t *testing.T) {
	s := NewMemStore()

	table, err := s.List("scores", core.ColumnInt)
	require.NoError(t, err)

	require.NoError(t, table.InsertRow(0))
	require.NoError(t, table.SetInt(0, 42))

	v, err := table.GetInt(0)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	idx, err := table.FindInt(42)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	idx, err = table.FindInt(7)
	require.NoError(t, err)
	assert.Equal(t, -1, idx)
}

func TestMemStoreColumnTypeIsSticky(t *testing.T) {
	s := NewMemStore()

	_, err := s.List("scores", core.ColumnInt)
	require.NoError(t, err)

	_, err = s.List("scores", core.ColumnString)
	assert.ErrorIs(t, err, core.ErrTypeMismatch)

	// Reopening with the original type shares the handle.
	again, err := s.List("scores", core.ColumnInt)
	require.NoError(t, err)
	assert.Equal(t, core.ColumnInt, again.ColumnType())
}

func TestMemStoreRejectsMixedColumn(t *testing.T) {
	s := NewMemStore()
	_, err := s.List("anything", core.ColumnMixed)
	assert.ErrorIs(t, err, core.ErrUnsupportedType)
}

func TestMemTableAccessorTypeChecked(t *testing.T) {
	s := NewMemStore()
	table, err := s.List("scores", core.ColumnInt)
	require.NoError(t, err)
	require.NoError(t, table.InsertRow(0))

	_, err = table.GetString(0)
	assert.ErrorIs(t, err, core.ErrTypeMismatch)
	assert.ErrorIs(t, table.SetBool(0, true), core.ErrTypeMismatch)
	_, err = table.FindDouble(1.5)
	assert.ErrorIs(t, err, core.ErrTypeMismatch)
}

func TestMemTableStructuralOps(t *testing.T) {
	s := NewMemStore()
	table, err := s.List("names", core.ColumnString)
	require.NoError(t, err)

	for i, v := range []string{"a", "b", "c"} {
		require.NoError(t, table.InsertRow(i))
		require.NoError(t, table.SetString(i, v))
	}

	require.NoError(t, table.SwapRows(0, 2))
	v, err := table.GetString(0)
	require.NoError(t, err)
	assert.Equal(t, "c", v)

	require.NoError(t, table.RemoveRow(1))
	assert.Equal(t, 2, table.Size())
	v, err = table.GetString(1)
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	assert.ErrorIs(t, table.InsertRow(5), core.ErrOutOfRange)
	assert.ErrorIs(t, table.RemoveRow(2), core.ErrOutOfRange)
	assert.ErrorIs(t, table.SwapRows(0, 9), core.ErrOutOfRange)

	require.NoError(t, table.Clear())
	assert.Equal(t, 0, table.Size())
}

func TestMemStoreDropListDetachesHandle(t *testing.T) {
	s := NewMemStore()
	table, err := s.List("scores", core.ColumnInt)
	require.NoError(t, err)
	require.NoError(t, table.InsertRow(0))

	s.DropList("scores")

	assert.False(t, table.Attached())
	assert.Equal(t, 0, table.Size())
	assert.ErrorIs(t, table.InsertRow(0), core.ErrInvalidated)
	_, err = table.GetInt(0)
	assert.ErrorIs(t, err, core.ErrInvalidated)

	// The name is free for a fresh column, possibly of another type.
	fresh, err := s.List("scores", core.ColumnString)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.Size())
}

func TestMemStoreCloseDetachesEverything(t *testing.T) {
	s := NewMemStore()
	table, err := s.List("scores", core.ColumnInt)
	require.NoError(t, err)

	s.Close()

	assert.False(t, table.Attached())
	_, err = s.List("other", core.ColumnInt)
	assert.ErrorIs(t, err, core.ErrInvalidated)
	_, err = s.Records("Person")
	assert.ErrorIs(t, err, core.ErrInvalidated)
}

func TestMemStoreBacksObservableList(t *testing.T) {
	s := NewMemStore()
	table, err := s.List("tags", core.ColumnString)
	require.NoError(t, err)

	l, err := core.NewList(table, core.ListOptions{Record: "post:1", Property: "tags"})
	require.NoError(t, err)

	require.NoError(t, l.Append("go"))
	require.NoError(t, l.Append("sqlite"))
	require.NoError(t, l.Insert(1, "storage"))

	vals, err := l.Values()
	require.NoError(t, err)
	assert.Equal(t, []any{"go", "storage", "sqlite"}, vals)

	idx, err := l.IndexOf("sqlite")
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	s.DropList("tags")
	assert.True(t, l.IsInvalidated())
	assert.ErrorIs(t, l.Append("late"), core.ErrInvalidated)
}

func TestMemTableTimestampEquality(t *testing.T) {
	s := NewMemStore()
	table, err := s.List("events", core.ColumnTimestamp)
	require.NoError(t, err)

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, table.InsertRow(0))
	require.NoError(t, table.SetTimestamp(0, ts))

	// Find matches on the instant, not the location.
	idx, err := table.FindTimestamp(ts.In(time.FixedZone("X", 3600)))
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
}

func TestMemRecords(t *testing.T) {
	s := NewMemStore()
	r, err := s.Records("Person")
	require.NoError(t, err)

	ok, err := r.Contains("ada")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Put("ada", map[string]any{"age": int64(36)}))
	assert.ErrorIs(t, r.Put("ada", nil), core.ErrExists)

	ok, err = r.Contains("ada")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, r.Merge("ada", map[string]any{"age": int64(37)}))
	props, err := r.Fetch("ada")
	require.NoError(t, err)
	assert.Equal(t, int64(37), props["age"])

	// Fetch hands out a copy; mutating it must not leak back.
	props["age"] = int64(99)
	again, err := r.Fetch("ada")
	require.NoError(t, err)
	assert.Equal(t, int64(37), again["age"])

	require.NoError(t, r.Put(int64(7), map[string]any{"age": int64(1)}))
	keys, err := r.Keys()
	require.NoError(t, err)
	assert.Equal(t, []any{"ada", int64(7)}, keys)

	_, err = r.Fetch("missing")
	require.Error(t, err)
	require.Error(t, r.Merge("missing", nil))
}
