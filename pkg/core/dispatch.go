package core

import (
	"fmt"
	"time"
)

// The dispatcher is the single place that fans a value operation out over
// the closed set of storage types. Every arm is concrete: a column holds
// exactly one primitive, so there is no boxed representation anywhere
// between the caller and the engine.
//
// An unknown ColumnType here is an internal-consistency failure, not a
// runtime condition; it panics instead of returning an error.

// convertForColumn converts a caller value into the canonical primitive for
// the given column type. The property name is used for error context only.
func convertForColumn(ct ColumnType, property string, v any) (any, error) {
	switch ct {
	case ColumnInt:
		if n, ok := ToInt64(v); ok {
			return n, nil
		}
	case ColumnBool:
		if b, ok := ToBool(v); ok {
			return b, nil
		}
	case ColumnFloat:
		if f, ok := ToFloat32(v); ok {
			return f, nil
		}
	case ColumnDouble:
		if f, ok := ToFloat64(v); ok {
			return f, nil
		}
	case ColumnString:
		if s, ok := ToString(v); ok {
			return s, nil
		}
	case ColumnBinary:
		if b, ok := ToBinary(v); ok {
			return b, nil
		}
	case ColumnTimestamp:
		if t, ok := ToTimestamp(v); ok {
			return t, nil
		}
	case ColumnMixed:
		return nil, fmt.Errorf("%w: mixed values cannot be stored", ErrUnsupportedType)
	default:
		panic(fmt.Sprintf("oblist: unknown column type %d", ct))
	}
	return nil, typeMismatch(property, ct, v)
}

// storeRow writes an already-converted primitive into row i.
func storeRow(t Table, i int, v any) error {
	switch ct := t.ColumnType(); ct {
	case ColumnInt:
		return t.SetInt(i, v.(int64))
	case ColumnBool:
		return t.SetBool(i, v.(bool))
	case ColumnFloat:
		return t.SetFloat(i, v.(float32))
	case ColumnDouble:
		return t.SetDouble(i, v.(float64))
	case ColumnString:
		return t.SetString(i, v.(string))
	case ColumnBinary:
		return t.SetBinary(i, v.([]byte))
	case ColumnTimestamp:
		return t.SetTimestamp(i, v.(time.Time))
	case ColumnMixed:
		return fmt.Errorf("%w: mixed values cannot be stored", ErrUnsupportedType)
	default:
		panic(fmt.Sprintf("oblist: unknown column type %d", ct))
	}
}

// loadRow reads row i and lifts the stored primitive into a caller value.
func loadRow(t Table, i int) (any, error) {
	switch ct := t.ColumnType(); ct {
	case ColumnInt:
		v, err := t.GetInt(i)
		if err != nil {
			return nil, err
		}
		return FromInt64(v), nil
	case ColumnBool:
		v, err := t.GetBool(i)
		if err != nil {
			return nil, err
		}
		return FromBool(v), nil
	case ColumnFloat:
		v, err := t.GetFloat(i)
		if err != nil {
			return nil, err
		}
		return FromFloat32(v), nil
	case ColumnDouble:
		v, err := t.GetDouble(i)
		if err != nil {
			return nil, err
		}
		return FromFloat64(v), nil
	case ColumnString:
		v, err := t.GetString(i)
		if err != nil {
			return nil, err
		}
		return FromString(v), nil
	case ColumnBinary:
		v, err := t.GetBinary(i)
		if err != nil {
			return nil, err
		}
		return FromBinary(v), nil
	case ColumnTimestamp:
		v, err := t.GetTimestamp(i)
		if err != nil {
			return nil, err
		}
		return FromTimestamp(v), nil
	case ColumnMixed:
		return nil, fmt.Errorf("%w: mixed values cannot be read", ErrUnsupportedType)
	default:
		panic(fmt.Sprintf("oblist: unknown column type %d", ct))
	}
}

// findRow returns the first row holding the given value, or -1.
func findRow(t Table, v any) (int, error) {
	ct := t.ColumnType()
	conv, err := convertForColumn(ct, "", v)
	if err != nil {
		return -1, err
	}
	switch ct {
	case ColumnInt:
		return t.FindInt(conv.(int64))
	case ColumnBool:
		return t.FindBool(conv.(bool))
	case ColumnFloat:
		return t.FindFloat(conv.(float32))
	case ColumnDouble:
		return t.FindDouble(conv.(float64))
	case ColumnString:
		return t.FindString(conv.(string))
	case ColumnBinary:
		return t.FindBinary(conv.([]byte))
	case ColumnTimestamp:
		return t.FindTimestamp(conv.(time.Time))
	default:
		// convertForColumn already rejected Mixed and panicked on unknowns.
		panic(fmt.Sprintf("oblist: unknown column type %d", ct))
	}
}
