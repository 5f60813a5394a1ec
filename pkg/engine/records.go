package engine

import (
	"database/sql"
	"fmt"

	"github.com/liliang-cn/oblist/internal/encoding"
	"github.com/liliang-cn/oblist/pkg/core"
)

// recordStore implements core.RecordStore over the records table. Property
// maps are stored in the self-describing JSON envelope from
// internal/encoding so the concrete primitive types survive the round trip.
type recordStore struct {
	store    *Store
	typeName string
}

func (r *recordStore) Contains(pk any) (bool, error) {
	key, err := encoding.KeyString(pk)
	if err != nil {
		return false, err
	}
	var one int
	err = r.store.q().QueryRow(
		"SELECT 1 FROM records WHERE type_name = ? AND pk = ?", r.typeName, key).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("engine: failed to look up record: %w", err)
	}
	return true, nil
}

func (r *recordStore) Fetch(pk any) (map[string]any, error) {
	key, err := encoding.KeyString(pk)
	if err != nil {
		return nil, err
	}
	var props []byte
	err = r.store.q().QueryRow(
		"SELECT props FROM records WHERE type_name = ? AND pk = ?", r.typeName, key).Scan(&props)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("record %s[%v] not found", r.typeName, pk)
	}
	if err != nil {
		return nil, fmt.Errorf("engine: failed to fetch record: %w", err)
	}
	return encoding.DecodeProps(props)
}

func (r *recordStore) Put(pk any, props map[string]any) error {
	key, err := encoding.KeyString(pk)
	if err != nil {
		return err
	}
	exists, err := r.Contains(pk)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s[%v]", core.ErrExists, r.typeName, pk)
	}
	blob, err := encoding.EncodeProps(props)
	if err != nil {
		return err
	}
	if _, err := r.store.q().Exec(
		"INSERT INTO records (type_name, pk, props) VALUES (?, ?, ?)", r.typeName, key, blob); err != nil {
		return fmt.Errorf("engine: failed to insert record: %w", err)
	}
	return nil
}

func (r *recordStore) Merge(pk any, props map[string]any) error {
	existing, err := r.Fetch(pk)
	if err != nil {
		return err
	}
	for k, v := range props {
		existing[k] = v
	}
	blob, err := encoding.EncodeProps(existing)
	if err != nil {
		return err
	}
	key, err := encoding.KeyString(pk)
	if err != nil {
		return err
	}
	if _, err := r.store.q().Exec(
		"UPDATE records SET props = ?, updated_at = CURRENT_TIMESTAMP WHERE type_name = ? AND pk = ?",
		blob, r.typeName, key); err != nil {
		return fmt.Errorf("engine: failed to update record: %w", err)
	}
	return nil
}

func (r *recordStore) Keys() ([]any, error) {
	rows, err := r.store.q().Query(
		"SELECT pk FROM records WHERE type_name = ? ORDER BY rowid", r.typeName)
	if err != nil {
		return nil, fmt.Errorf("engine: failed to list records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []any
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("engine: failed to scan record key: %w", err)
		}
		pk, err := encoding.DecodeKey(key)
		if err != nil {
			return nil, err
		}
		keys = append(keys, pk)
	}
	return keys, rows.Err()
}
