package flat

import (
	"testing"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/foundermatch/annidx/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T, dim int) *Flat {
	t.Helper()
	f, err := New(func(o *Options) { o.Dimension = dim })
	require.NoError(t, err)
	return f
}

func TestFlat(t *testing.T) {
	t.Run("Add", func(t *testing.T) {
		f := newTestIndex(t, 3)
		require.NoError(t, f.Add([]float32{1, 2, 3, 4, 5, 6}))
		assert.Equal(t, 2, f.Count())
		assert.True(t, f.IsTrained())
		assert.Equal(t, index.KindFlat, f.Kind())

		err := f.Add([]float32{1, 2})
		var mismatch *index.ErrDimensionMismatch
		assert.ErrorAs(t, err, &mismatch)
		assert.Equal(t, 2, f.Count())
	})

	t.Run("Search", func(t *testing.T) {
		f := newTestIndex(t, 3)
		require.NoError(t, f.Add([]float32{
			1, 2, 3,
			4, 5, 6,
			7, 8, 9,
		}))

		dists, positions, err := f.Search([]float32{0, 0, 0}, 2, nil)
		require.NoError(t, err)
		assert.Equal(t, []int64{0, 1}, positions)
		assert.InDelta(t, 14.0, dists[0], 1e-5)
		assert.InDelta(t, 77.0, dists[1], 1e-5)
	})

	t.Run("SelfSimilarity", func(t *testing.T) {
		f := newTestIndex(t, 3)
		require.NoError(t, f.Add([]float32{1, 2, 3, 4, 5, 6}))

		dists, positions, err := f.Search([]float32{4, 5, 6}, 1, nil)
		require.NoError(t, err)
		assert.Equal(t, []int64{1}, positions)
		assert.Equal(t, float32(0), dists[0])
	})

	t.Run("BoundedK", func(t *testing.T) {
		f := newTestIndex(t, 2)
		require.NoError(t, f.Add([]float32{1, 1, 2, 2}))

		dists, positions, err := f.Search([]float32{0, 0}, 5, nil)
		require.NoError(t, err)
		// Index-level contract: rows are padded to k; the manager trims.
		require.Len(t, positions, 5)
		assert.Equal(t, int64(0), positions[0])
		assert.Equal(t, int64(1), positions[1])
		assert.Equal(t, int64(-1), positions[2])
		assert.Less(t, dists[1], dists[2])
	})

	t.Run("TieBreakByInsertionOrder", func(t *testing.T) {
		f := newTestIndex(t, 2)
		require.NoError(t, f.Add([]float32{3, 3, 1, 1, 1, 1}))

		_, positions, err := f.Search([]float32{1, 1}, 2, nil)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2}, positions)
	})

	t.Run("Exclude", func(t *testing.T) {
		f := newTestIndex(t, 2)
		require.NoError(t, f.Add([]float32{0, 0, 1, 1, 2, 2}))

		exclude := roaring64.New()
		exclude.Add(0)
		_, positions, err := f.Search([]float32{0, 0}, 1, &index.SearchOptions{Exclude: exclude})
		require.NoError(t, err)
		assert.Equal(t, []int64{1}, positions)
	})

	t.Run("InvalidK", func(t *testing.T) {
		f := newTestIndex(t, 2)
		require.NoError(t, f.Add([]float32{0, 0}))

		_, _, err := f.Search([]float32{0, 0}, 0, nil)
		assert.ErrorIs(t, err, index.ErrInvalidK)
	})

	t.Run("Restore", func(t *testing.T) {
		f := newTestIndex(t, 2)
		require.NoError(t, f.Add([]float32{1, 1, 2, 2}))

		restored, err := Restore(f.Buffer(), func(o *Options) { o.Dimension = 2 })
		require.NoError(t, err)
		assert.Equal(t, 2, restored.Count())

		d1, p1, err := f.Search([]float32{1.5, 1.5}, 2, nil)
		require.NoError(t, err)
		d2, p2, err := restored.Search([]float32{1.5, 1.5}, 2, nil)
		require.NoError(t, err)
		assert.Equal(t, p1, p2)
		assert.Equal(t, d1, d2)
	})
}
