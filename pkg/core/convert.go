package core

import (
	"math"
	"time"
)

// Conversions between caller-supplied dynamic values and the storage
// primitives. Each storage type has exactly one To/From pair; there is no
// generic path. The To side accepts only lossless representations of the
// target primitive, so a float64 that carries an integral value converts to
// int64 but 1.5 does not.

// ToInt64 converts a caller value to an int64 storage primitive.
func ToInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int16:
		return int64(n), true
	case int8:
		return int64(n), true
	case uint32:
		return int64(n), true
	case float64:
		// JSON round-trips hand integers back as float64.
		if n == math.Trunc(n) && !math.IsInf(n, 0) && math.Abs(n) <= 1<<53 {
			return int64(n), true
		}
	}
	return 0, false
}

// ToBool converts a caller value to a bool storage primitive.
func ToBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// ToFloat32 converts a caller value to a float32 storage primitive.
func ToFloat32(v any) (float32, bool) {
	switch f := v.(type) {
	case float32:
		return f, true
	case float64:
		if f == float64(float32(f)) {
			return float32(f), true
		}
	case int:
		return float32(f), true
	case int64:
		return float32(f), true
	}
	return 0, false
}

// ToFloat64 converts a caller value to a float64 storage primitive.
func ToFloat64(v any) (float64, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case float32:
		return float64(f), true
	case int:
		return float64(f), true
	case int64:
		return float64(f), true
	}
	return 0, false
}

// ToString converts a caller value to a string storage primitive.
func ToString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// ToBinary converts a caller value to a byte-sequence storage primitive.
func ToBinary(v any) ([]byte, bool) {
	b, ok := v.([]byte)
	return b, ok
}

// ToTimestamp converts a caller value to a timestamp storage primitive.
func ToTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// The From side is trivial in Go but kept as named functions so the
// dispatcher reads as a fixed table of pairs.

// FromInt64 lifts an int64 into a caller-facing value.
func FromInt64(v int64) any { return v }

// FromBool lifts a bool into a caller-facing value.
func FromBool(v bool) any { return v }

// FromFloat32 lifts a float32 into a caller-facing value.
func FromFloat32(v float32) any { return v }

// FromFloat64 lifts a float64 into a caller-facing value.
func FromFloat64(v float64) any { return v }

// FromString lifts a string into a caller-facing value.
func FromString(v string) any { return v }

// FromBinary lifts a byte sequence into a caller-facing value.
func FromBinary(v []byte) any { return v }

// FromTimestamp lifts a timestamp into a caller-facing value.
func FromTimestamp(v time.Time) any { return v }
