package normalize

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_CleanTokens(t *testing.T) {
	cases := []struct {
		name  string
		token any
		want  float64
	}{
		{"plain float", 42.5, 42.5},
		{"plain int", 10, 10},
		{"int64", int64(12000), 12000},
		{"plain string", "150.25", 150.25},
		{"accounting negative", "(500.00)", -500.00},
		{"currency with separators", "$1,200.00", 1200.00},
		{"percent", "12.5%", 0.125},
		{"negative percent", "(12.5%)", -0.125},
		{"padded currency", "  $2,000  ", 2000},
		{"signed string", "-3.5", -3.5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Value(tc.token)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestValue_RejectsGarbage(t *testing.T) {
	for _, token := range []any{"abc", "", "  ", "$", "()", "12.3.4", nil, []string{"x"}} {
		_, err := Value(token)
		require.Error(t, err, "token %v", token)

		var ferr *FormatError
		assert.True(t, errors.As(err, &ferr), "want FormatError for %v, got %T", token, err)
	}
}

func TestValue_Deterministic(t *testing.T) {
	a, err := Value("(1,234.56)")
	require.NoError(t, err)
	b, err := Value("(1,234.56)")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, -1234.56, a)
}
