// Package encoding holds the value codecs shared by the storage engines:
// timestamps to and from their on-disk integer form, primary keys to and
// from their canonical string form, and record property maps to and from
// a self-describing JSON envelope.
package encoding

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidKey is returned when a stored primary key cannot be decoded
var ErrInvalidKey = errors.New("invalid primary key encoding")

// ErrInvalidProps is returned when a stored property blob cannot be decoded
var ErrInvalidProps = errors.New("invalid property encoding")

// EncodeTimestamp converts a timestamp to its on-disk integer form.
// Nanosecond precision survives the round trip; time zone does not.
func EncodeTimestamp(t time.Time) int64 {
	return t.UnixNano()
}

// DecodeTimestamp converts an on-disk integer back to a UTC timestamp.
func DecodeTimestamp(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

// KeyString returns the canonical string form of a primary key. Only
// integer and string keys are supported; the kind prefix keeps int 42 and
// string "42" distinct.
func KeyString(pk any) (string, error) {
	switch k := pk.(type) {
	case int64:
		return "i:" + strconv.FormatInt(k, 10), nil
	case int:
		return "i:" + strconv.FormatInt(int64(k), 10), nil
	case string:
		return "s:" + k, nil
	default:
		return "", fmt.Errorf("%w: unsupported key type %T", ErrInvalidKey, pk)
	}
}

// DecodeKey reverses KeyString.
func DecodeKey(s string) (any, error) {
	kind, rest, found := strings.Cut(s, ":")
	if !found {
		return nil, ErrInvalidKey
	}
	switch kind {
	case "i":
		n, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		return n, nil
	case "s":
		return rest, nil
	default:
		return nil, ErrInvalidKey
	}
}

// propEnvelope carries one property value with an explicit kind tag, so the
// concrete Go type survives a JSON round trip (bare JSON would hand every
// number back as float64 and drop []byte and time.Time entirely).
type propEnvelope struct {
	Kind  string `json:"k"`
	Value any    `json:"v,omitempty"`
}

const (
	kindNull      = "n"
	kindInt       = "i"
	kindBool      = "b"
	kindFloat     = "f"
	kindDouble    = "d"
	kindString    = "s"
	kindBinary    = "x"
	kindTimestamp = "t"
)

// EncodeProps serializes a canonical property map (values already converted
// to storage primitives) into the JSON envelope form.
func EncodeProps(props map[string]any) ([]byte, error) {
	out := make(map[string]propEnvelope, len(props))
	for name, v := range props {
		env, err := encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		out[name] = env
	}
	return json.Marshal(out)
}

// DecodeProps reverses EncodeProps, restoring the original primitive types.
func DecodeProps(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return map[string]any{}, nil
	}
	var raw map[string]propEnvelope
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProps, err)
	}
	out := make(map[string]any, len(raw))
	for name, env := range raw {
		v, err := decodeValue(env)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

func encodeValue(v any) (propEnvelope, error) {
	switch val := v.(type) {
	case nil:
		return propEnvelope{Kind: kindNull}, nil
	case int64:
		return propEnvelope{Kind: kindInt, Value: strconv.FormatInt(val, 10)}, nil
	case bool:
		return propEnvelope{Kind: kindBool, Value: val}, nil
	case float32:
		return propEnvelope{Kind: kindFloat, Value: float64(val)}, nil
	case float64:
		return propEnvelope{Kind: kindDouble, Value: val}, nil
	case string:
		return propEnvelope{Kind: kindString, Value: val}, nil
	case []byte:
		return propEnvelope{Kind: kindBinary, Value: base64.StdEncoding.EncodeToString(val)}, nil
	case time.Time:
		return propEnvelope{Kind: kindTimestamp, Value: val.UTC().Format(time.RFC3339Nano)}, nil
	default:
		return propEnvelope{}, fmt.Errorf("%w: unsupported value type %T", ErrInvalidProps, v)
	}
}

func decodeValue(env propEnvelope) (any, error) {
	switch env.Kind {
	case kindNull:
		return nil, nil
	case kindInt:
		s, ok := env.Value.(string)
		if !ok {
			return nil, ErrInvalidProps
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidProps, err)
		}
		return n, nil
	case kindBool:
		b, ok := env.Value.(bool)
		if !ok {
			return nil, ErrInvalidProps
		}
		return b, nil
	case kindFloat:
		f, ok := env.Value.(float64)
		if !ok {
			return nil, ErrInvalidProps
		}
		return float32(f), nil
	case kindDouble:
		f, ok := env.Value.(float64)
		if !ok {
			return nil, ErrInvalidProps
		}
		return f, nil
	case kindString:
		s, ok := env.Value.(string)
		if !ok {
			return nil, ErrInvalidProps
		}
		return s, nil
	case kindBinary:
		s, ok := env.Value.(string)
		if !ok {
			return nil, ErrInvalidProps
		}
		raw, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidProps, err)
		}
		return raw, nil
	case kindTimestamp:
		s, ok := env.Value.(string)
		if !ok {
			return nil, ErrInvalidProps
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidProps, err)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidProps, env.Kind)
	}
}
