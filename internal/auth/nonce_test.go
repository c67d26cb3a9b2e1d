package auth

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNonceSource_Next(t *testing.T) {
	t.Run("derives value from wall clock in nanoseconds", func(t *testing.T) {
		before := uint64(time.Now().UnixNano())
		got := NewNonceSource().Next()
		after := uint64(time.Now().UnixNano())

		assert.GreaterOrEqual(t, got, before)
		assert.LessOrEqual(t, got, after)
	})

	t.Run("strictly increases across calls", func(t *testing.T) {
		src := NewNonceSource()

		prev := src.Next()
		for i := 0; i < 1000; i++ {
			next := src.Next()
			assert.Greater(t, next, prev)
			prev = next
		}
	})

	t.Run("keeps increasing when the clock stalls", func(t *testing.T) {
		fixed := time.Unix(1616492376, 0)
		src := &NonceSource{now: func() time.Time { return fixed }}

		first := src.Next()
		second := src.Next()

		assert.Equal(t, uint64(fixed.UnixNano()), first)
		assert.Equal(t, first+1, second)
	})

	t.Run("keeps increasing when the clock goes backwards", func(t *testing.T) {
		clock := time.Unix(1616492376, 0)
		src := &NonceSource{now: func() time.Time { return clock }}

		first := src.Next()
		clock = clock.Add(-time.Hour)
		second := src.Next()

		assert.Greater(t, second, first)
	})

	t.Run("follows the clock when it moves forward", func(t *testing.T) {
		clock := time.Unix(1616492376, 0)
		src := &NonceSource{now: func() time.Time { return clock }}

		src.Next()
		clock = clock.Add(time.Second)

		assert.Equal(t, uint64(clock.UnixNano()), src.Next())
	})
}

func TestNonceSource_Resolve(t *testing.T) {
	src := NewNonceSource()

	t.Run("returns override verbatim", func(t *testing.T) {
		assert.Equal(t, "111", src.Resolve("111"))
		assert.Equal(t, "111", src.Resolve("111"))
	})

	t.Run("generates when override is empty", func(t *testing.T) {
		first, err := strconv.ParseUint(src.Resolve(""), 10, 64)
		require.NoError(t, err)
		second, err := strconv.ParseUint(src.Resolve(""), 10, 64)
		require.NoError(t, err)

		assert.Greater(t, second, first)
	})
}
