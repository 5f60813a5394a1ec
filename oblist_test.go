package oblist

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), DefaultConfig(filepath.Join(t.TempDir(), "facade.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestFacadeListLifecycle(t *testing.T) {
	db := openTestDB(t)

	tags, err := db.OpenList("tags", ColumnString)
	require.NoError(t, err)

	require.NoError(t, tags.Append("go"))
	require.NoError(t, tags.Append("sqlite"))
	require.NoError(t, tags.Insert(1, "storage"))

	vals, err := tags.Values()
	require.NoError(t, err)
	assert.Equal(t, []any{"go", "storage", "sqlite"}, vals)

	names, err := db.ListNames()
	require.NoError(t, err)
	assert.Equal(t, map[string]ColumnType{"tags": ColumnString}, names)

	_, err = db.OpenList("tags", ColumnInt)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	require.NoError(t, db.DropList("tags"))
	assert.True(t, tags.IsInvalidated())
	assert.ErrorIs(t, tags.Append("late"), ErrInvalidated)
}

func TestFacadeSharedRegistry(t *testing.T) {
	db := openTestDB(t)

	l, err := db.OpenList("seq", ColumnInt)
	require.NoError(t, err)

	var kinds []ChangeKind
	sink := sinkFunc(func(kind ChangeKind) { kinds = append(kinds, kind) })
	token, err := l.Observe(sink)
	require.NoError(t, err)

	require.NoError(t, l.Append(int64(1)))
	require.NoError(t, l.RemoveAt(0))
	token.Cancel()
	require.NoError(t, l.Append(int64(2)))

	assert.Equal(t, []ChangeKind{Insertion, Insertion, Removal, Removal}, kinds)
}

func TestFacadeTransaction(t *testing.T) {
	db := openTestDB(t)

	l, err := db.OpenList("seq", ColumnInt)
	require.NoError(t, err)

	require.NoError(t, db.Begin(context.Background()))
	require.NoError(t, l.Append(int64(1)))
	require.NoError(t, db.Rollback())
	assert.Equal(t, 0, l.Count())

	require.NoError(t, db.Begin(context.Background()))
	require.NoError(t, l.Append(int64(2)))
	require.NoError(t, db.Commit())
	assert.Equal(t, 1, l.Count())
}

func TestFacadeAccessor(t *testing.T) {
	db := openTestDB(t)

	schema := &ObjectSchema{
		Name:       "Person",
		PrimaryKey: "name",
		Properties: []Property{
			{Name: "name", Type: ColumnString},
			{Name: "age", Type: ColumnInt, Default: int64(0)},
		},
	}
	acc, err := db.Accessor([]*ObjectSchema{schema}, "Person", true)
	require.NoError(t, err)

	obj, err := acc.AddObject(map[string]any{"name": "ada", "age": 36}, "Person", false)
	require.NoError(t, err)

	age, err := obj.Get("age")
	require.NoError(t, err)
	assert.Equal(t, int64(36), age)
}

// sinkFunc adapts a function to the Sink interface, recording both halves of
// the bracket.
type sinkFunc func(kind ChangeKind)

func (f sinkFunc) WillChange(property string, kind ChangeKind, indexes []int) { f(kind) }
func (f sinkFunc) DidChange(property string, kind ChangeKind, indexes []int)  { f(kind) }
