package distance

import "errors"

// ErrAcceleratedUnavailable is returned by Accelerated when the host CPU does
// not advertise the vector extensions the unrolled kernels are tuned for.
// Callers should treat it as non-fatal and continue with Portable.
var ErrAcceleratedUnavailable = errors.New("accelerated distance backend unavailable on this platform")

// Func computes a distance between two equal-length vectors.
// Length checking is the caller's responsibility.
type Func func(a, b []float32) float32

// Kernels bundles the distance functions used by an index.
type Kernels struct {
	// SquaredL2 computes the squared Euclidean distance.
	SquaredL2 Func

	// Dot computes the dot product.
	Dot Func
}

// Portable returns kernels implemented with straightforward scalar loops.
// They run on every platform and are the fallback for Accelerated.
func Portable() Kernels {
	return Kernels{
		SquaredL2: squaredL2Scalar,
		Dot:       dotScalar,
	}
}

// Accelerated returns the unrolled kernel set when the host CPU supports it.
// On hosts without vector extensions it returns the portable kernels together
// with ErrAcceleratedUnavailable so callers can log the fallback and continue.
func Accelerated() (Kernels, error) {
	if !acceleratedSupported() {
		return Portable(), ErrAcceleratedUnavailable
	}
	return Kernels{
		SquaredL2: squaredL2Unrolled,
		Dot:       dotUnrolled,
	}, nil
}

// SquaredL2 computes the squared Euclidean distance with the portable kernel.
func SquaredL2(a, b []float32) float32 { return squaredL2Scalar(a, b) }

// Dot computes the dot product with the portable kernel.
func Dot(a, b []float32) float32 { return dotScalar(a, b) }
