package core

// ColumnType identifies the single storage primitive a list column holds.
// It is fixed when the column is created and never changes afterwards.
type ColumnType int

const (
	// ColumnInt stores 64-bit signed integers
	ColumnInt ColumnType = iota
	// ColumnBool stores booleans
	ColumnBool
	// ColumnFloat stores 32-bit floats
	ColumnFloat
	// ColumnDouble stores 64-bit floats
	ColumnDouble
	// ColumnString stores UTF-8 strings
	ColumnString
	// ColumnBinary stores raw byte sequences
	ColumnBinary
	// ColumnTimestamp stores points in time
	ColumnTimestamp
	// ColumnMixed is the untyped "any" kind. It exists so callers asking for
	// it get a clear ErrUnsupportedType instead of a missing case; no column
	// can be created with it.
	ColumnMixed
)

// String returns the string representation of the column type
func (c ColumnType) String() string {
	switch c {
	case ColumnInt:
		return "int"
	case ColumnBool:
		return "bool"
	case ColumnFloat:
		return "float"
	case ColumnDouble:
		return "double"
	case ColumnString:
		return "string"
	case ColumnBinary:
		return "binary"
	case ColumnTimestamp:
		return "timestamp"
	case ColumnMixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// ParseColumnType parses a column type name as produced by String.
func ParseColumnType(s string) (ColumnType, bool) {
	switch s {
	case "int":
		return ColumnInt, true
	case "bool":
		return ColumnBool, true
	case "float":
		return ColumnFloat, true
	case "double":
		return ColumnDouble, true
	case "string":
		return ColumnString, true
	case "binary":
		return ColumnBinary, true
	case "timestamp":
		return ColumnTimestamp, true
	}
	return 0, false
}

// Storable reports whether a column of this type can actually be created.
func (c ColumnType) Storable() bool {
	switch c {
	case ColumnInt, ColumnBool, ColumnFloat, ColumnDouble, ColumnString, ColumnBinary, ColumnTimestamp:
		return true
	}
	return false
}
