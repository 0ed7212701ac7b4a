package dialog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUsername(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{input: "abcd", ok: false},
		{input: "abcde", want: "abcde", ok: true},
		{input: "a!bcde", ok: false},
		{input: "@john_doe", want: "john_doe", ok: true},
		{input: "  Alice_2024  ", want: "Alice_2024", ok: true},
		{input: "", ok: false},
		{input: "@@double", ok: false},
		{input: "abcdefghijklmnopqrstuvwxyz0123456", ok: false},
		{input: "abcdefghijklmnopqrstuvwxyz012345", want: "abcdefghijklmnopqrstuvwxyz012345", ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseUsername(tt.input)
			if !tt.ok {
				var verr *ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Equal(t, "username", verr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePrice(t *testing.T) {
	valid := map[string]float64{
		"19.99":  19.99,
		"0":      0,
		" 1500 ": 1500,
		"12,5":   12.5,
	}
	for input, want := range valid {
		got, err := ParsePrice(input)
		require.NoError(t, err, input)
		assert.InDelta(t, want, got, 1e-9, input)
	}

	for _, input := range []string{"abc", "", "-5", "NaN", "Inf", "1e400", "12 tenge"} {
		_, err := ParsePrice(input)
		var verr *ValidationError
		assert.True(t, errors.As(err, &verr), input)
	}
}
