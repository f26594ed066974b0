package raffle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicRandomInt(t *testing.T) {
	const seed = "0f1e2d3c4b5a69788796a5b4c3d2e1f00f1e2d3c4b5a69788796a5b4c3d2e1f0"

	t.Run("Deterministic", func(t *testing.T) {
		a, err := DeterministicRandomInt(seed, 0, 1000)
		require.NoError(t, err)
		b, err := DeterministicRandomInt(seed, 0, 1000)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("WithinBounds", func(t *testing.T) {
		for counter := int64(0); counter < 500; counter++ {
			v, err := DeterministicRandomInt(seed, counter, 7)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, v, int64(0))
			assert.Less(t, v, int64(7))
		}
	})

	t.Run("CounterChangesValue", func(t *testing.T) {
		// При большом maxExclusive совпадение соседних значений почти невероятно
		a, err := DeterministicRandomInt(seed, 1, 1<<40)
		require.NoError(t, err)
		b, err := DeterministicRandomInt(seed, 2, 1<<40)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("SeedChangesValue", func(t *testing.T) {
		a, err := DeterministicRandomInt("seed-one", 0, 1<<40)
		require.NoError(t, err)
		b, err := DeterministicRandomInt("seed-two", 0, 1<<40)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("InvalidArguments", func(t *testing.T) {
		_, err := DeterministicRandomInt(seed, 0, 0)
		assert.Error(t, err)
		_, err = DeterministicRandomInt(seed, 0, -5)
		assert.Error(t, err)
		_, err = DeterministicRandomInt(seed, -1, 10)
		assert.Error(t, err)
	})

	t.Run("SingleTicket", func(t *testing.T) {
		v, err := DeterministicRandomInt(seed, 0, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(0), v)
	})
}

func TestNewDrawSeed(t *testing.T) {
	a, err := NewDrawSeed()
	require.NoError(t, err)
	b, err := NewDrawSeed()
	require.NoError(t, err)

	assert.Len(t, a, 64) // 32 байта в hex
	assert.NotEqual(t, a, b)
}
