package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in   string
		want Strategy
	}{
		{"", Locking},
		{"locking", Locking},
		{"LOCKING", Locking},
		{" threaded ", Threaded},
		{"Threaded", Threaded},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseStrategy("lfu")
	require.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestStrategyString(t *testing.T) {
	assert.Equal(t, "locking", Locking.String())
	assert.Equal(t, "threaded", Threaded.String())
	assert.Equal(t, "Strategy(7)", Strategy(7).String())
}
