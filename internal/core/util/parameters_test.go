package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBool(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"true", true},
		{"True", true},
		{"1", true},
		{"yes", true},
		{"on", true},
		{"false", false},
		{"0", false},
		{"no", false},
		{"OFF", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBool(tt.input)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := ParseBool("maybe")
	assert.Error(t, err)
}

func TestParseID(t *testing.T) {
	id, err := ParseID("42")

	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = ParseID("abc")
	assert.EqualError(t, err, `value is not a valid integer: "abc"`)
}
