package concurrent

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunks(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		assert.Nil(t, Chunks(0, 4))
	})

	t.Run("Covers range without gaps", func(t *testing.T) {
		for _, n := range []int{1, 2, 7, 64, 101} {
			for _, w := range []int{-1, 0, 1, 3, 8, 200} {
				chunks := Chunks(n, w)
				require.NotEmpty(t, chunks)
				require.Equal(t, 0, chunks[0][0])
				require.Equal(t, n, chunks[len(chunks)-1][1])
				for i := 1; i < len(chunks); i++ {
					require.Equal(t, chunks[i-1][1], chunks[i][0])
				}
				require.LessOrEqual(t, len(chunks), n)
			}
		}
	})

	t.Run("Balanced", func(t *testing.T) {
		chunks := Chunks(10, 3)
		assert.Equal(t, [][2]int{{0, 4}, {4, 7}, {7, 10}}, chunks)
	})
}

func TestForEachChunk(t *testing.T) {
	t.Run("Visits every index once", func(t *testing.T) {
		const n = 1000
		var hits [n]atomic.Int32
		err := ForEachChunk(n, 8, func(lo, hi int) error {
			for i := lo; i < hi; i++ {
				hits[i].Add(1)
			}
			return nil
		})
		require.NoError(t, err)
		for i := range hits {
			require.Equal(t, int32(1), hits[i].Load())
		}
	})

	t.Run("Returns error", func(t *testing.T) {
		boom := errors.New("boom")
		err := ForEachChunk(10, 4, func(lo, hi int) error {
			if lo == 0 {
				return boom
			}
			return nil
		})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("Nothing to do", func(t *testing.T) {
		called := false
		err := ForEachChunk(0, 4, func(lo, hi int) error {
			called = true
			return nil
		})
		assert.NoError(t, err)
		assert.False(t, called)
	})
}
