package kmeans

import (
	"math/rand"
	"testing"

	"github.com/foundermatch/annidx/distance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrain(t *testing.T) {
	kernels := distance.Portable()
	rng := rand.New(rand.NewSource(42))

	t.Run("SeparatedClusters", func(t *testing.T) {
		// Two tight blobs far apart.
		var data []float32
		for i := 0; i < 50; i++ {
			data = append(data, 0+rng.Float32()*0.1, 0+rng.Float32()*0.1)
			data = append(data, 10+rng.Float32()*0.1, 10+rng.Float32()*0.1)
		}

		centroids, err := Train(data, 2, 2, 25, kernels, rng)
		require.NoError(t, err)
		require.Len(t, centroids, 4)

		// One centroid per blob.
		near0 := Assign([]float32{0, 0}, centroids, 2, kernels)
		near10 := Assign([]float32{10, 10}, centroids, 2, kernels)
		assert.NotEqual(t, near0, near10)
	})

	t.Run("TooFewVectors", func(t *testing.T) {
		_, err := Train([]float32{1, 2}, 2, 4, 10, kernels, rng)
		assert.ErrorIs(t, err, ErrTooFewVectors)
	})
}

func TestNearest(t *testing.T) {
	kernels := distance.Portable()
	centroids := []float32{0, 0, 5, 5, 10, 10}

	got := Nearest([]float32{4, 4}, centroids, 2, 2, kernels)
	assert.Equal(t, []int{1, 0}, got)

	// n capped at centroid count
	got = Nearest([]float32{0, 0}, centroids, 2, 10, kernels)
	assert.Len(t, got, 3)
	assert.Equal(t, 0, got[0])
}

func TestSample(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	data := make([]float32, 100*4)
	for i := range data {
		data[i] = float32(i)
	}

	sampled := Sample(data, 4, 10, rng)
	assert.Len(t, sampled, 10*4)

	// Under the limit the original buffer comes back untouched.
	same := Sample(data, 4, 1000, rng)
	assert.Len(t, same, len(data))
}
