package encoding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampKeepsNanoseconds(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.FixedZone("X", 3600))

	got := DecodeTimestamp(EncodeTimestamp(ts))
	assert.True(t, ts.Equal(got))
	assert.Equal(t, time.UTC, got.Location(), "decoded timestamps are normalized to UTC")
}

func TestKeyStringDistinguishesKinds(t *testing.T) {
	intKey, err := KeyString(42)
	require.NoError(t, err)
	strKey, err := KeyString("42")
	require.NoError(t, err)
	assert.NotEqual(t, intKey, strKey, "int 42 and string \"42\" must not collide")

	pk, err := DecodeKey(intKey)
	require.NoError(t, err)
	assert.Equal(t, int64(42), pk)

	pk, err = DecodeKey(strKey)
	require.NoError(t, err)
	assert.Equal(t, "42", pk)

	// Strings containing the separator survive.
	k, err := KeyString("a:b:c")
	require.NoError(t, err)
	pk, err = DecodeKey(k)
	require.NoError(t, err)
	assert.Equal(t, "a:b:c", pk)

	_, err = KeyString(1.5)
	assert.ErrorIs(t, err, ErrInvalidKey)

	for _, bad := range []string{"", "noseparator", "q:42", "i:notanumber"} {
		_, err = DecodeKey(bad)
		assert.ErrorIs(t, err, ErrInvalidKey, bad)
	}
}

func TestPropsRoundTrip(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 987654321, time.UTC)
	props := map[string]any{
		"count":  int64(9007199254740993), // would lose precision as a JSON number
		"active": true,
		"ratio":  float32(0.5),
		"score":  2.75,
		"name":   "ada",
		"blob":   []byte{0, 1, 255},
		"seen":   ts,
		"gone":   nil,
	}

	blob, err := EncodeProps(props)
	require.NoError(t, err)

	got, err := DecodeProps(blob)
	require.NoError(t, err)
	require.Len(t, got, len(props))

	assert.Equal(t, int64(9007199254740993), got["count"])
	assert.Equal(t, true, got["active"])
	assert.Equal(t, float32(0.5), got["ratio"])
	assert.Equal(t, 2.75, got["score"])
	assert.Equal(t, "ada", got["name"])
	assert.Equal(t, []byte{0, 1, 255}, got["blob"])
	assert.True(t, ts.Equal(got["seen"].(time.Time)))
	assert.Nil(t, got["gone"])
}

func TestEncodePropsRejectsUnknownTypes(t *testing.T) {
	_, err := EncodeProps(map[string]any{"bad": struct{}{}})
	require.ErrorIs(t, err, ErrInvalidProps)
	assert.Contains(t, err.Error(), `"bad"`)
}

func TestDecodePropsErrors(t *testing.T) {
	_, err := DecodeProps([]byte("not json"))
	assert.ErrorIs(t, err, ErrInvalidProps)

	_, err = DecodeProps([]byte(`{"x":{"k":"?","v":1}}`))
	assert.ErrorIs(t, err, ErrInvalidProps)

	_, err = DecodeProps([]byte(`{"x":{"k":"i","v":7}}`))
	assert.ErrorIs(t, err, ErrInvalidProps, "int values travel as strings")

	// Empty blob decodes to an empty map.
	got, err := DecodeProps(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
