package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liliang-cn/oblist/pkg/core"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(context.Background(), DefaultConfig(path))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), Config{})
	require.Error(t, err)
}

func TestStoreRoundTripPerColumnType(t *testing.T) {
	s, _ := openTestStore(t)

	ts := time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC)
	tests := []struct {
		name string
		ct   core.ColumnType
		vals []any
	}{
		{"ints", core.ColumnInt, []any{int64(1), int64(-5), int64(1 << 40)}},
		{"bools", core.ColumnBool, []any{true, false, true}},
		{"floats", core.ColumnFloat, []any{float32(1.5), float32(-0.25)}},
		{"doubles", core.ColumnDouble, []any{1.5, -0.25, 3.14159}},
		{"strings", core.ColumnString, []any{"a", "", "hello"}},
		{"blobs", core.ColumnBinary, []any{[]byte{1, 2, 3}, []byte("x")}},
		{"times", core.ColumnTimestamp, []any{ts, ts.Add(time.Hour)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := s.List(tt.name, tt.ct)
			require.NoError(t, err)

			l, err := core.NewList(table, core.ListOptions{Record: "rec:1", Property: tt.name})
			require.NoError(t, err)

			for _, v := range tt.vals {
				require.NoError(t, l.Append(v))
			}

			got, err := l.Values()
			require.NoError(t, err)
			require.Len(t, got, len(tt.vals))
			for i, want := range tt.vals {
				if wt, ok := want.(time.Time); ok {
					assert.True(t, wt.Equal(got[i].(time.Time)), "row %d: got %v, want %v", i, got[i], wt)
					continue
				}
				assert.Equal(t, want, got[i], "row %d", i)
			}

			idx, err := l.IndexOf(tt.vals[len(tt.vals)-1])
			require.NoError(t, err)
			assert.GreaterOrEqual(t, idx, 0)
		})
	}
}

func TestStoreListOperations(t *testing.T) {
	s, _ := openTestStore(t)

	table, err := s.List("seq", core.ColumnInt)
	require.NoError(t, err)
	l, err := core.NewList(table, core.ListOptions{Record: "rec:1", Property: "seq"})
	require.NoError(t, err)

	for _, v := range []int64{10, 20, 30} {
		require.NoError(t, l.Append(v))
	}

	// Insert shifts the positions behind it.
	require.NoError(t, l.Insert(1, int64(15)))
	vals, err := l.Values()
	require.NoError(t, err)
	assert.Equal(t, []any{int64(10), int64(15), int64(20), int64(30)}, vals)

	require.NoError(t, l.RemoveAt(0))
	vals, err = l.Values()
	require.NoError(t, err)
	assert.Equal(t, []any{int64(15), int64(20), int64(30)}, vals)

	require.NoError(t, l.Exchange(0, 2))
	vals, err = l.Values()
	require.NoError(t, err)
	assert.Equal(t, []any{int64(30), int64(20), int64(15)}, vals)

	require.NoError(t, l.Clear())
	assert.Equal(t, 0, l.Count())
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")

	s, err := Open(context.Background(), DefaultConfig(path))
	require.NoError(t, err)
	table, err := s.List("tags", core.ColumnString)
	require.NoError(t, err)
	l, err := core.NewList(table, core.ListOptions{Record: "post:1", Property: "tags"})
	require.NoError(t, err)
	require.NoError(t, l.Extend([]any{"go", "sqlite"}))
	require.NoError(t, s.Close())

	s, err = Open(context.Background(), DefaultConfig(path))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	names, err := s.ListNames()
	require.NoError(t, err)
	assert.Equal(t, map[string]core.ColumnType{"tags": core.ColumnString}, names)

	table, err = s.List("tags", core.ColumnString)
	require.NoError(t, err)
	l, err = core.NewList(table, core.ListOptions{Record: "post:1", Property: "tags"})
	require.NoError(t, err)
	vals, err := l.Values()
	require.NoError(t, err)
	assert.Equal(t, []any{"go", "sqlite"}, vals)
}

func TestStoreColumnTypeIsSticky(t *testing.T) {
	s, _ := openTestStore(t)

	_, err := s.List("tags", core.ColumnString)
	require.NoError(t, err)

	_, err = s.List("tags", core.ColumnInt)
	assert.ErrorIs(t, err, core.ErrTypeMismatch)

	_, err = s.List("anything", core.ColumnMixed)
	assert.ErrorIs(t, err, core.ErrUnsupportedType)
}

func TestStoreTransactionRollback(t *testing.T) {
	s, _ := openTestStore(t)

	table, err := s.List("seq", core.ColumnInt)
	require.NoError(t, err)
	l, err := core.NewList(table, core.ListOptions{Record: "rec:1", Property: "seq"})
	require.NoError(t, err)
	require.NoError(t, l.Append(int64(1)))

	require.NoError(t, s.Begin(context.Background()))
	require.NoError(t, l.Append(int64(2)))
	assert.Equal(t, 2, l.Count())
	require.NoError(t, s.Rollback())

	assert.Equal(t, 1, l.Count())

	require.NoError(t, s.Begin(context.Background()))
	assert.Error(t, s.Begin(context.Background()), "only one write transaction at a time")
	require.NoError(t, l.Append(int64(3)))
	require.NoError(t, s.Commit())

	vals, err := l.Values()
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(3)}, vals)
}

func TestStoreDropListDetachesHandle(t *testing.T) {
	s, _ := openTestStore(t)

	table, err := s.List("tags", core.ColumnString)
	require.NoError(t, err)
	l, err := core.NewList(table, core.ListOptions{Record: "post:1", Property: "tags"})
	require.NoError(t, err)
	require.NoError(t, l.Append("go"))

	require.NoError(t, s.DropList("tags"))

	assert.True(t, l.IsInvalidated())
	assert.Equal(t, 0, l.Count())
	assert.ErrorIs(t, l.Append("late"), core.ErrInvalidated)

	// The name is reusable with a different type.
	fresh, err := s.List("tags", core.ColumnInt)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.Size())
}

func TestStoreCloseDetachesHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "close.db")
	s, err := Open(context.Background(), DefaultConfig(path))
	require.NoError(t, err)

	table, err := s.List("seq", core.ColumnInt)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "closing twice is fine")

	assert.False(t, table.Attached())
	_, err = s.List("other", core.ColumnInt)
	assert.ErrorIs(t, err, core.ErrInvalidated)
}

func TestStoreRecords(t *testing.T) {
	s, _ := openTestStore(t)

	r, err := s.Records("Person")
	require.NoError(t, err)

	ok, err := r.Contains("ada")
	require.NoError(t, err)
	assert.False(t, ok)

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	props := map[string]any{
		"age":     int64(36),
		"score":   1.5,
		"active":  true,
		"blob":    []byte{1, 2},
		"seen":    ts,
		"note":    "hi",
		"nothing": nil,
	}
	require.NoError(t, r.Put("ada", props))
	assert.ErrorIs(t, r.Put("ada", props), core.ErrExists)

	got, err := r.Fetch("ada")
	require.NoError(t, err)
	assert.Equal(t, int64(36), got["age"])
	assert.Equal(t, 1.5, got["score"])
	assert.Equal(t, true, got["active"])
	assert.Equal(t, []byte{1, 2}, got["blob"])
	assert.True(t, ts.Equal(got["seen"].(time.Time)))
	assert.Equal(t, "hi", got["note"])
	assert.Nil(t, got["nothing"])

	require.NoError(t, r.Merge("ada", map[string]any{"age": int64(37)}))
	got, err = r.Fetch("ada")
	require.NoError(t, err)
	assert.Equal(t, int64(37), got["age"])
	assert.Equal(t, "hi", got["note"], "merge leaves other properties alone")

	require.NoError(t, r.Put(int64(7), map[string]any{"age": int64(1)}))
	keys, err := r.Keys()
	require.NoError(t, err)
	assert.Equal(t, []any{"ada", int64(7)}, keys)

	_, err = r.Fetch("missing")
	require.Error(t, err)
}

func TestStoreAccessorEndToEnd(t *testing.T) {
	s, _ := openTestStore(t)

	schema := &core.ObjectSchema{
		Name:       "Person",
		PrimaryKey: "name",
		Properties: []core.Property{
			{Name: "name", Type: core.ColumnString},
			{Name: "age", Type: core.ColumnInt, Default: int64(0)},
		},
	}
	acc, err := core.NewAccessor(s, []*core.ObjectSchema{schema}, "Person", true)
	require.NoError(t, err)

	obj, err := acc.AddObject(map[string]any{"name": "ada", "age": 36}, "Person", false)
	require.NoError(t, err)

	age, err := obj.Get("age")
	require.NoError(t, err)
	assert.Equal(t, int64(36), age)

	require.NoError(t, obj.Set("age", 37))
	age, err = obj.Get("age")
	require.NoError(t, err)
	assert.Equal(t, int64(37), age)
}
