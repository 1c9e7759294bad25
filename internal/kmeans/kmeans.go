// Package kmeans implements Lloyd's algorithm with k-means++ seeding over
// row-major float32 buffers. It is the training pass behind the clustered
// index: coarse centroids and product-quantizer codebooks are both fit here.
package kmeans

import (
	"errors"
	"math"
	"math/rand"
	"sort"

	"github.com/foundermatch/annidx/distance"
)

// ErrTooFewVectors is returned when fewer vectors than centroids are given.
var ErrTooFewVectors = errors.New("kmeans: fewer vectors than centroids")

// Train fits k centroids to the vectors in data (row-major, n = len/dim rows)
// and returns them flattened (k*dim). Seeding is k-means++; iterations stop
// early once assignments are stable. rng drives all sampling so training is
// reproducible under a fixed seed.
func Train(data []float32, dim, k, maxIter int, kernels distance.Kernels, rng *rand.Rand) ([]float32, error) {
	n := len(data) / dim
	if n < k {
		return nil, ErrTooFewVectors
	}

	centroids := seedPlusPlus(data, dim, k, kernels, rng)

	assignments := make([]int, n)
	counts := make([]int, k)
	sums := make([]float32, k*dim)

	for iter := 0; iter < maxIter; iter++ {
		changed := false

		for i := 0; i < n; i++ {
			vec := data[i*dim : (i+1)*dim]
			best := Assign(vec, centroids, dim, kernels)
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		for i := range sums {
			sums[i] = 0
		}
		for i := range counts {
			counts[i] = 0
		}
		for i := 0; i < n; i++ {
			c := assignments[i]
			vec := data[i*dim : (i+1)*dim]
			dst := sums[c*dim : (c+1)*dim]
			for d, v := range vec {
				dst[d] += v
			}
			counts[c]++
		}

		for j := 0; j < k; j++ {
			if counts[j] > 0 {
				scale := 1 / float32(counts[j])
				for d := 0; d < dim; d++ {
					centroids[j*dim+d] = sums[j*dim+d] * scale
				}
			} else {
				// Reseed an empty cluster from a random point.
				idx := rng.Intn(n)
				copy(centroids[j*dim:(j+1)*dim], data[idx*dim:(idx+1)*dim])
			}
		}
	}

	return centroids, nil
}

// seedPlusPlus picks initial centroids with probability proportional to the
// squared distance from the nearest already-chosen centroid.
func seedPlusPlus(data []float32, dim, k int, kernels distance.Kernels, rng *rand.Rand) []float32 {
	n := len(data) / dim
	centroids := make([]float32, k*dim)

	first := rng.Intn(n)
	copy(centroids[:dim], data[first*dim:(first+1)*dim])

	minDist := make([]float32, n)
	var sum float32
	for i := 0; i < n; i++ {
		d := kernels.SquaredL2(data[i*dim:(i+1)*dim], centroids[:dim])
		minDist[i] = d
		sum += d
	}

	for c := 1; c < k; c++ {
		if sum == 0 {
			idx := rng.Intn(n)
			copy(centroids[c*dim:(c+1)*dim], data[idx*dim:(idx+1)*dim])
			continue
		}

		target := rng.Float32() * sum
		var cum float32
		chosen := n - 1
		for i, d := range minDist {
			cum += d
			if cum >= target {
				chosen = i
				break
			}
		}
		copy(centroids[c*dim:(c+1)*dim], data[chosen*dim:(chosen+1)*dim])

		sum = 0
		center := centroids[c*dim : (c+1)*dim]
		for i := 0; i < n; i++ {
			d := kernels.SquaredL2(data[i*dim:(i+1)*dim], center)
			if d < minDist[i] {
				minDist[i] = d
			}
			sum += minDist[i]
		}
	}
	return centroids
}

// Assign returns the index of the centroid closest to vec.
func Assign(vec []float32, centroids []float32, dim int, kernels distance.Kernels) int {
	k := len(centroids) / dim
	best := 0
	minDist := float32(math.MaxFloat32)
	for j := 0; j < k; j++ {
		d := kernels.SquaredL2(vec, centroids[j*dim:(j+1)*dim])
		if d < minDist {
			minDist = d
			best = j
		}
	}
	return best
}

// Nearest returns the indices of the n centroids closest to query, ordered by
// ascending distance.
func Nearest(query []float32, centroids []float32, dim, n int, kernels distance.Kernels) []int {
	k := len(centroids) / dim
	if n > k {
		n = k
	}

	type centroidDist struct {
		id   int
		dist float32
	}
	dists := make([]centroidDist, k)
	for i := 0; i < k; i++ {
		dists[i] = centroidDist{id: i, dist: kernels.SquaredL2(query, centroids[i*dim:(i+1)*dim])}
	}
	sort.Slice(dists, func(i, j int) bool { return dists[i].dist < dists[j].dist })

	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = dists[i].id
	}
	return out
}

// Sample returns a row-major buffer of at most limit rows drawn uniformly
// without replacement. When n <= limit the input buffer is returned as-is.
// Training on a bounded sample keeps rebuild cost proportional to the sample,
// not the dataset.
func Sample(data []float32, dim, limit int, rng *rand.Rand) []float32 {
	n := len(data) / dim
	if n <= limit {
		return data
	}
	perm := rng.Perm(n)[:limit]
	out := make([]float32, 0, limit*dim)
	for _, i := range perm {
		out = append(out, data[i*dim:(i+1)*dim]...)
	}
	return out
}
