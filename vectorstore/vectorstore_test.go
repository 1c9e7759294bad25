package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	t.Run("Append", func(t *testing.T) {
		s, err := New(3)
		require.NoError(t, err)

		first, err := s.Append([][]float32{{1, 2, 3}, {4, 5, 6}})
		require.NoError(t, err)
		assert.Equal(t, int64(0), first)
		assert.Equal(t, 2, s.Len())

		first, err = s.Append([][]float32{{7, 8, 9}})
		require.NoError(t, err)
		assert.Equal(t, int64(2), first)
		assert.Equal(t, 3, s.Len())
	})

	t.Run("DimensionMismatchLeavesStoreUnchanged", func(t *testing.T) {
		s, err := New(3)
		require.NoError(t, err)

		_, err = s.Append([][]float32{{1, 2, 3}})
		require.NoError(t, err)

		_, err = s.Append([][]float32{{1, 2, 3}, {1, 2}})
		var mismatch *ErrDimensionMismatch
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, 3, mismatch.Expected)
		assert.Equal(t, 2, mismatch.Actual)
		assert.Equal(t, 1, s.Len())
	})

	t.Run("Vector", func(t *testing.T) {
		s, err := New(2)
		require.NoError(t, err)
		_, err = s.Append([][]float32{{1, 2}, {3, 4}})
		require.NoError(t, err)

		v, ok := s.Vector(1)
		require.True(t, ok)
		assert.Equal(t, []float32{3, 4}, v)

		_, ok = s.Vector(2)
		assert.False(t, ok)
		_, ok = s.Vector(-1)
		assert.False(t, ok)
	})

	t.Run("Concat", func(t *testing.T) {
		s, err := New(2)
		require.NoError(t, err)
		_, err = s.Append([][]float32{{1, 2}, {3, 4}})
		require.NoError(t, err)

		buf := s.Concat()
		assert.Equal(t, []float32{1, 2, 3, 4}, buf)

		// The copy must not observe later appends.
		_, err = s.Append([][]float32{{5, 6}})
		require.NoError(t, err)
		assert.Len(t, buf, 4)
	})

	t.Run("Restore", func(t *testing.T) {
		s, err := Restore(2, []float32{1, 2, 3, 4})
		require.NoError(t, err)
		assert.Equal(t, 2, s.Len())

		_, err = Restore(3, []float32{1, 2, 3, 4})
		assert.Error(t, err)

		_, err = New(0)
		assert.ErrorIs(t, err, ErrInvalidDimension)
	})

	t.Run("AppendBuffer", func(t *testing.T) {
		s, err := New(2)
		require.NoError(t, err)
		first, err := s.AppendBuffer([]float32{1, 2, 3, 4})
		require.NoError(t, err)
		assert.Equal(t, int64(0), first)
		assert.Equal(t, 2, s.Len())

		_, err = s.AppendBuffer([]float32{1, 2, 3})
		assert.Error(t, err)
		assert.Equal(t, 2, s.Len())
	})
}
