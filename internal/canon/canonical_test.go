package canon

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"null", nil, "null"},
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"int", 42, "42"},
		{"negative int", int64(-100), "-100"},
		{"max int64", int64(math.MaxInt64), "9223372036854775807"},
		{"uint", uint16(7), "7"},
		{"bool", true, "true"},
		{"whole float", 100.0, "100"},
		{"float", 1.5, "1.5"},
		{"negative zero", math.Copysign(0, -1), "0"},
		{"large float", 1e21, "1e+21"},
		{"small float", 1e-7, "1e-7"},
		{"empty array", []any{}, "[]"},
		{"typed slice", []string{"a", "b"}, `["a","b"]`},
		{"nil slice", []string(nil), "null"},
		{"empty object", map[string]any{}, "{}"},
		{"nested", map[string]any{"a": []any{1, nil, "x"}}, `{"a":[1,null,"x"]}`},
		{"typed map", map[string]int{"b": 2, "a": 1}, `{"a":1,"b":2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Marshal(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(out))
		})
	}
}

func TestMarshalSortedKeysUTF16(t *testing.T) {
	// U+1F600 is a surrogate pair (0xD83D...) and sorts before U+FF61 in UTF-16,
	// while UTF-8 byte order puts it after.
	input := map[string]any{
		"\uff61":     1,
		"\U0001F600": 2,
		"a":          3,
	}

	out, err := Marshal(input)
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":3,\"\U0001F600\":2,\"\uff61\":1}", string(out))
}

func TestMarshalStrings(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no html escaping", "<a & b>", `"<a & b>"`},
		{"quote and backslash", `say "hi" \o/`, `"say \"hi\" \\o/"`},
		{"control characters", "a\nb\tc", `"a\nb\tc"`},
		{"line separator literal", "a\u2028b", "\"a\u2028b\""},
		{"escaped backslash before u2028 text", `\u2028`, `"\\u2028"`},
		{"nfc normalization", "e\u0301", "\"\u00e9\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Marshal(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(out))
		})
	}
}

func TestMarshalErrors(t *testing.T) {
	tests := []struct {
		name  string
		input any
	}{
		{"nan", math.NaN()},
		{"inf in array", []any{1, math.Inf(-1)}},
		{"int keys", map[int]string{1: "a"}},
		{"struct", struct{ A int }{1}},
		{"func", func() {}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Marshal(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestMarshalMapOrderIndependent(t *testing.T) {
	a := map[string]any{"x": 1, "y": map[string]any{"b": true, "a": false}}
	b := map[string]any{"y": map[string]any{"a": false, "b": true}, "x": 1}

	outA, err := Marshal(a)
	require.NoError(t, err)
	outB, err := Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, outA, outB)
}
