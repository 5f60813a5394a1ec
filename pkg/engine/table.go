package engine

import (
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/liliang-cn/oblist/internal/encoding"
	"github.com/liliang-cn/oblist/pkg/core"
)

// sqliteTable implements core.Table over the list_rows storage. On disk a
// row is (list_id, pos, value); pos is kept dense in [0, size) by shifting
// on insert and remove. The value column relies on SQLite's dynamic typing,
// but only ever holds the one primitive this column was created with:
// booleans as 0/1 integers, float32 as REAL, timestamps as unix
// nanoseconds.
type sqliteTable struct {
	store    *Store
	id       int64
	name     string
	ct       core.ColumnType
	detached atomic.Bool
}

func (t *sqliteTable) detach() {
	t.detached.Store(true)
}

func (t *sqliteTable) Attached() bool {
	return !t.detached.Load()
}

func (t *sqliteTable) ColumnType() core.ColumnType {
	return t.ct
}

func (t *sqliteTable) Size() int {
	if t.detached.Load() {
		return 0
	}
	var n int
	if err := t.store.q().QueryRow("SELECT COUNT(*) FROM list_rows WHERE list_id = ?", t.id).Scan(&n); err != nil {
		t.store.logger.Warn("row count failed", "list", t.name, "err", err)
		return 0
	}
	return n
}

// live verifies the handle is still attached.
func (t *sqliteTable) live() error {
	if t.detached.Load() {
		return core.ErrInvalidated
	}
	return nil
}

// typed verifies the handle is live and the accessor matches the column.
func (t *sqliteTable) typed(want core.ColumnType) error {
	if err := t.live(); err != nil {
		return err
	}
	if t.ct != want {
		return fmt.Errorf("%w: column %q is %s, not %s", core.ErrTypeMismatch, t.name, t.ct, want)
	}
	return nil
}

// zeroValue is what an empty row holds until a value is stored into it.
func (t *sqliteTable) zeroValue() any {
	switch t.ct {
	case core.ColumnInt, core.ColumnBool:
		return int64(0)
	case core.ColumnFloat, core.ColumnDouble:
		return float64(0)
	case core.ColumnString:
		return ""
	case core.ColumnBinary:
		return []byte{}
	case core.ColumnTimestamp:
		return encoding.EncodeTimestamp(time.Time{})
	default:
		panic(fmt.Sprintf("engine: unknown column type %d", t.ct))
	}
}

func (t *sqliteTable) InsertRow(i int) error {
	if err := t.live(); err != nil {
		return err
	}
	if i < 0 || i > t.Size() {
		return core.ErrOutOfRange
	}
	q := t.store.q()
	if _, err := q.Exec("UPDATE list_rows SET pos = pos + 1 WHERE list_id = ? AND pos >= ?", t.id, i); err != nil {
		return fmt.Errorf("engine: failed to shift rows: %w", err)
	}
	if _, err := q.Exec("INSERT INTO list_rows (list_id, pos, value) VALUES (?, ?, ?)", t.id, i, t.zeroValue()); err != nil {
		return fmt.Errorf("engine: failed to insert row: %w", err)
	}
	return nil
}

func (t *sqliteTable) RemoveRow(i int) error {
	if err := t.live(); err != nil {
		return err
	}
	q := t.store.q()
	res, err := q.Exec("DELETE FROM list_rows WHERE list_id = ? AND pos = ?", t.id, i)
	if err != nil {
		return fmt.Errorf("engine: failed to remove row: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("engine: failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrOutOfRange
	}
	if _, err := q.Exec("UPDATE list_rows SET pos = pos - 1 WHERE list_id = ? AND pos > ?", t.id, i); err != nil {
		return fmt.Errorf("engine: failed to shift rows: %w", err)
	}
	return nil
}

func (t *sqliteTable) Clear() error {
	if err := t.live(); err != nil {
		return err
	}
	if _, err := t.store.q().Exec("DELETE FROM list_rows WHERE list_id = ?", t.id); err != nil {
		return fmt.Errorf("engine: failed to clear rows: %w", err)
	}
	return nil
}

func (t *sqliteTable) SwapRows(a, b int) error {
	if err := t.live(); err != nil {
		return err
	}
	if a == b {
		return nil
	}
	va, err := t.rawValue(a)
	if err != nil {
		return err
	}
	vb, err := t.rawValue(b)
	if err != nil {
		return err
	}
	if err := t.setRaw(a, vb); err != nil {
		return err
	}
	return t.setRaw(b, va)
}

// rawValue reads a row without decoding it, for moves that never leave
// the storage layer.
func (t *sqliteTable) rawValue(i int) (any, error) {
	var v any
	err := t.store.q().QueryRow("SELECT value FROM list_rows WHERE list_id = ? AND pos = ?", t.id, i).Scan(&v)
	if err == sql.ErrNoRows {
		return nil, core.ErrOutOfRange
	}
	if err != nil {
		return nil, fmt.Errorf("engine: failed to read row: %w", err)
	}
	return v, nil
}

func (t *sqliteTable) setRaw(i int, v any) error {
	res, err := t.store.q().Exec("UPDATE list_rows SET value = ? WHERE list_id = ? AND pos = ?", v, t.id, i)
	if err != nil {
		return fmt.Errorf("engine: failed to write row: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("engine: failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrOutOfRange
	}
	return nil
}

// findRaw returns the first position holding the given stored value, -1 if
// none does.
func (t *sqliteTable) findRaw(v any) (int, error) {
	var pos int
	err := t.store.q().QueryRow(
		"SELECT pos FROM list_rows WHERE list_id = ? AND value = ? ORDER BY pos LIMIT 1", t.id, v).Scan(&pos)
	if err == sql.ErrNoRows {
		return -1, nil
	}
	if err != nil {
		return -1, fmt.Errorf("engine: failed to search rows: %w", err)
	}
	return pos, nil
}

func (t *sqliteTable) GetInt(i int) (int64, error) {
	if err := t.typed(core.ColumnInt); err != nil {
		return 0, err
	}
	v, err := t.rawValue(i)
	if err != nil {
		return 0, err
	}
	n, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("engine: column %q holds corrupt value %T", t.name, v)
	}
	return n, nil
}

func (t *sqliteTable) SetInt(i int, v int64) error {
	if err := t.typed(core.ColumnInt); err != nil {
		return err
	}
	return t.setRaw(i, v)
}

func (t *sqliteTable) FindInt(v int64) (int, error) {
	if err := t.typed(core.ColumnInt); err != nil {
		return -1, err
	}
	return t.findRaw(v)
}

func (t *sqliteTable) GetBool(i int) (bool, error) {
	if err := t.typed(core.ColumnBool); err != nil {
		return false, err
	}
	v, err := t.rawValue(i)
	if err != nil {
		return false, err
	}
	n, ok := v.(int64)
	if !ok {
		return false, fmt.Errorf("engine: column %q holds corrupt value %T", t.name, v)
	}
	return n != 0, nil
}

func (t *sqliteTable) SetBool(i int, v bool) error {
	if err := t.typed(core.ColumnBool); err != nil {
		return err
	}
	return t.setRaw(i, boolToInt(v))
}

func (t *sqliteTable) FindBool(v bool) (int, error) {
	if err := t.typed(core.ColumnBool); err != nil {
		return -1, err
	}
	return t.findRaw(boolToInt(v))
}

func (t *sqliteTable) GetFloat(i int) (float32, error) {
	if err := t.typed(core.ColumnFloat); err != nil {
		return 0, err
	}
	v, err := t.rawValue(i)
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("engine: column %q holds corrupt value %T", t.name, v)
	}
	return float32(f), nil
}

func (t *sqliteTable) SetFloat(i int, v float32) error {
	if err := t.typed(core.ColumnFloat); err != nil {
		return err
	}
	return t.setRaw(i, float64(v))
}

func (t *sqliteTable) FindFloat(v float32) (int, error) {
	if err := t.typed(core.ColumnFloat); err != nil {
		return -1, err
	}
	return t.findRaw(float64(v))
}

func (t *sqliteTable) GetDouble(i int) (float64, error) {
	if err := t.typed(core.ColumnDouble); err != nil {
		return 0, err
	}
	v, err := t.rawValue(i)
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("engine: column %q holds corrupt value %T", t.name, v)
	}
	return f, nil
}

func (t *sqliteTable) SetDouble(i int, v float64) error {
	if err := t.typed(core.ColumnDouble); err != nil {
		return err
	}
	return t.setRaw(i, v)
}

func (t *sqliteTable) FindDouble(v float64) (int, error) {
	if err := t.typed(core.ColumnDouble); err != nil {
		return -1, err
	}
	return t.findRaw(v)
}

func (t *sqliteTable) GetString(i int) (string, error) {
	if err := t.typed(core.ColumnString); err != nil {
		return "", err
	}
	v, err := t.rawValue(i)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("engine: column %q holds corrupt value %T", t.name, v)
	}
	return s, nil
}

func (t *sqliteTable) SetString(i int, v string) error {
	if err := t.typed(core.ColumnString); err != nil {
		return err
	}
	return t.setRaw(i, v)
}

func (t *sqliteTable) FindString(v string) (int, error) {
	if err := t.typed(core.ColumnString); err != nil {
		return -1, err
	}
	return t.findRaw(v)
}

func (t *sqliteTable) GetBinary(i int) ([]byte, error) {
	if err := t.typed(core.ColumnBinary); err != nil {
		return nil, err
	}
	v, err := t.rawValue(i)
	if err != nil {
		return nil, err
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("engine: column %q holds corrupt value %T", t.name, v)
	}
	return b, nil
}

func (t *sqliteTable) SetBinary(i int, v []byte) error {
	if err := t.typed(core.ColumnBinary); err != nil {
		return err
	}
	if v == nil {
		v = []byte{}
	}
	return t.setRaw(i, v)
}

func (t *sqliteTable) FindBinary(v []byte) (int, error) {
	if err := t.typed(core.ColumnBinary); err != nil {
		return -1, err
	}
	if v == nil {
		v = []byte{}
	}
	return t.findRaw(v)
}

func (t *sqliteTable) GetTimestamp(i int) (time.Time, error) {
	if err := t.typed(core.ColumnTimestamp); err != nil {
		return time.Time{}, err
	}
	v, err := t.rawValue(i)
	if err != nil {
		return time.Time{}, err
	}
	n, ok := v.(int64)
	if !ok {
		return time.Time{}, fmt.Errorf("engine: column %q holds corrupt value %T", t.name, v)
	}
	return encoding.DecodeTimestamp(n), nil
}

func (t *sqliteTable) SetTimestamp(i int, v time.Time) error {
	if err := t.typed(core.ColumnTimestamp); err != nil {
		return err
	}
	return t.setRaw(i, encoding.EncodeTimestamp(v))
}

func (t *sqliteTable) FindTimestamp(v time.Time) (int, error) {
	if err := t.typed(core.ColumnTimestamp); err != nil {
		return -1, err
	}
	return t.findRaw(encoding.EncodeTimestamp(v))
}

func boolToInt(v bool) int64 {
	if v {
		return 1
	}
	return 0
}
