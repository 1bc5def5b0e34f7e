package legacy

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeLong_PreservesDigits(t *testing.T) {
	// Wider than float64 can represent exactly.
	got, err := DecodeLong(map[string]any{"$numberLong": "9007199254740993"})
	require.NoError(t, err)
	assert.Equal(t, "9007199254740993", got)
}

func TestDecodeLong_Negative(t *testing.T) {
	got, err := DecodeLong(map[string]any{"$numberLong": "-42"})
	require.NoError(t, err)
	assert.Equal(t, "-42", got)
}

func TestDecodeLong_Malformed(t *testing.T) {
	cases := map[string]map[string]any{
		"absent":     {"$date": "2021-01-01"},
		"not digits": {"$numberLong": "12a"},
		"empty":      {"$numberLong": ""},
		"number":     {"$numberLong": 12.0},
	}
	for name, envelope := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeLong(envelope)
			assert.ErrorIs(t, err, ErrMalformedEnvelope)
		})
	}
}

func TestDecodeDate_RoundTrip(t *testing.T) {
	want := time.Date(2021, 7, 3, 18, 4, 5, 123000000, time.UTC)
	got, err := DecodeDate(map[string]any{"$date": want.Format(time.RFC3339Nano)})
	require.NoError(t, err)
	assert.True(t, want.Equal(got))
}

func TestDecodeDate_Layouts(t *testing.T) {
	cases := map[string]time.Time{
		"2021-07-03T18:04:05.1234567Z":     time.Date(2021, 7, 3, 18, 4, 5, 123456700, time.UTC),
		"2021-07-03T20:04:05+02:00":        time.Date(2021, 7, 3, 18, 4, 5, 0, time.UTC),
		"2021-07-03T18:04:05":              time.Date(2021, 7, 3, 18, 4, 5, 0, time.UTC),
		"2021-07-03":                       time.Date(2021, 7, 3, 0, 0, 0, 0, time.UTC),
		"2021-07-03T18:04:05.000000+00:00": time.Date(2021, 7, 3, 18, 4, 5, 0, time.UTC),
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			got, err := DecodeDate(map[string]any{"$date": in})
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestDecodeDate_Malformed(t *testing.T) {
	_, err := DecodeDate(map[string]any{"$date": "yesterday"})
	assert.ErrorIs(t, err, ErrMalformedEnvelope)

	_, err = DecodeDate(map[string]any{"$numberLong": "1"})
	assert.ErrorIs(t, err, ErrMalformedEnvelope)
}

func TestLong_UnmarshalJSON(t *testing.T) {
	var v struct {
		Wrapped Long `json:"wrapped"`
		Bare    Long `json:"bare"`
		Null    Long `json:"null"`
	}
	err := json.Unmarshal([]byte(`{"wrapped":{"$numberLong":"318443212390924288"},"bare":7,"null":null}`), &v)
	require.NoError(t, err)
	assert.Equal(t, Long("318443212390924288"), v.Wrapped)
	assert.Equal(t, Long("7"), v.Bare)
	assert.Equal(t, Long(""), v.Null)
}

func TestLong_UnmarshalJSON_Rejects(t *testing.T) {
	var l Long
	assert.Error(t, l.UnmarshalJSON([]byte(`"12"`)))
	assert.ErrorIs(t, l.UnmarshalJSON([]byte(`{"$numberLong":"x"}`)), ErrMalformedEnvelope)
	assert.ErrorIs(t, l.UnmarshalJSON([]byte(`1.5`)), ErrMalformedEnvelope)
}

func TestID_UnmarshalJSON(t *testing.T) {
	var id ID
	require.NoError(t, id.UnmarshalJSON([]byte(`"0000002a-0000-0000-0000-00000000002a"`)))
	assert.Equal(t, ID("0000002a-0000-0000-0000-00000000002a"), id)

	require.NoError(t, id.UnmarshalJSON([]byte(`{"$guid":"00000001-0000-0000-0000-000000000000"}`)))
	assert.Equal(t, ID("00000001-0000-0000-0000-000000000000"), id)

	assert.ErrorIs(t, id.UnmarshalJSON([]byte(`{"$oid":"5f1d"}`)), ErrMalformedID)
}
