package distance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSquaredL2(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{4, 6, 3}

	assert.InDelta(t, 25.0, SquaredL2(a, b), 1e-6)
	assert.InDelta(t, 0.0, SquaredL2(a, a), 1e-6)
}

func TestDot(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{4, 5, 6}

	assert.InDelta(t, 32.0, Dot(a, b), 1e-6)
}

func TestUnrolledMatchesScalar(t *testing.T) {
	// Lengths around the unroll boundary.
	for _, n := range []int{1, 3, 4, 7, 8, 67, 128} {
		a := make([]float32, n)
		b := make([]float32, n)
		for i := range a {
			a[i] = float32(i)*0.25 + 1
			b[i] = float32(n-i) * 0.5
		}

		assert.InDelta(t, float64(squaredL2Scalar(a, b)), float64(squaredL2Unrolled(a, b)), 1e-3)
		assert.InDelta(t, float64(dotScalar(a, b)), float64(dotUnrolled(a, b)), 1e-3)
	}
}

func TestAcceleratedFallback(t *testing.T) {
	k, err := Accelerated()
	if err != nil {
		require.ErrorIs(t, err, ErrAcceleratedUnavailable)
	}
	// Regardless of availability the returned kernels must work.
	require.NotNil(t, k.SquaredL2)
	require.NotNil(t, k.Dot)
	assert.InDelta(t, 25.0, k.SquaredL2([]float32{1, 2, 3}, []float32{4, 6, 3}), 1e-6)
}
