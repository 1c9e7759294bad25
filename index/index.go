// Package index defines the interface shared by the exact and clustered
// vector index variants, and the pure policy that picks between them.
package index

import (
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrNotTrained is returned when vectors are added to a clustered index
	// before its training pass.
	ErrNotTrained = errors.New("index not trained")

	// ErrEmptyBuffer is returned when an add or train call carries no vectors.
	ErrEmptyBuffer = errors.New("empty vector buffer")
)

// ErrDimensionMismatch indicates a vector or query whose width differs from
// the index dimension.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Kind tags the index variant. The variant never reverts from KindClustered
// to KindFlat; it upgrades once when the dataset crosses the configured
// threshold.
type Kind int

const (
	// KindFlat is the exact brute-force variant.
	KindFlat Kind = iota

	// KindClustered is the approximate clustered, product-quantized variant.
	KindClustered
)

// String returns the wire name of the variant.
func (k Kind) String() string {
	switch k {
	case KindFlat:
		return "flat"
	case KindClustered:
		return "clustered"
	default:
		return "unknown"
	}
}

// Select is the index strategy policy: datasets below threshold stay exact,
// datasets at or above it are clustered. Callers evaluate it on the
// prospective total after an add, so the add that crosses the threshold
// triggers the upgrade within the same call.
func Select(total, threshold int) Kind {
	if total < threshold {
		return KindFlat
	}
	return KindClustered
}

// SearchOptions carries per-call search tuning.
type SearchOptions struct {
	// NProbe is the number of clusters scanned per query by the clustered
	// variant. Larger values increase recall and latency. Zero means the
	// index default. Ignored by the flat variant.
	NProbe int

	// Exclude holds positions to omit from results, e.g. users already
	// contacted. Nil means no exclusion.
	Exclude *roaring64.Bitmap
}

// Index is implemented by both variants.
//
// Buffers are row-major float32 with the row width fixed at construction.
// Positions returned by Search refer to insertion order in the owning
// vector store.
type Index interface {
	// Kind returns the variant tag.
	Kind() Kind

	// Dimension returns the fixed vector width.
	Dimension() int

	// Count returns the number of indexed vectors.
	Count() int

	// IsTrained reports whether vectors may be added. Always true for flat.
	IsTrained() bool

	// Train fits the index structures on the given buffer. No-op for flat;
	// mandatory before the first Add for clustered.
	Train(buf []float32) error

	// Add appends whole vectors from the buffer.
	Add(buf []float32) error

	// Search returns the k nearest positions for each of the n queries in
	// the buffer. Both result slices are row-major n×k: distances ascending
	// per row. Rows with fewer than k reachable candidates are filled with
	// position -1 and +Inf distance.
	Search(queries []float32, k int, opts *SearchOptions) (dists []float32, positions []int64, err error)
}
