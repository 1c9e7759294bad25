// Package flat provides the exact brute-force index variant.
//
// Every query is compared against every stored vector by squared Euclidean
// distance, so results are exact: the true k nearest by ascending distance,
// ties broken by ascending insertion position.
package flat

import (
	"math"

	"github.com/foundermatch/annidx/distance"
	"github.com/foundermatch/annidx/index"
	"github.com/foundermatch/annidx/internal/queue"
	"github.com/foundermatch/annidx/vectorstore"
)

// Compile-time check.
var _ index.Index = (*Flat)(nil)

// Options contains configuration for the flat index.
type Options struct {
	// Dimension is the fixed vector width. Required.
	Dimension int

	// Kernels are the distance kernels to use. Zero value means portable.
	Kernels distance.Kernels
}

// DefaultOptions contains the default configuration for the flat index.
var DefaultOptions = Options{}

// Flat is the exact index variant. It owns a copy of its vectors so a
// snapshot of the index alone is self-contained.
type Flat struct {
	opts    Options
	vectors *vectorstore.Store
}

// New creates an empty flat index.
func New(optFns ...func(o *Options)) (*Flat, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Kernels.SquaredL2 == nil {
		opts.Kernels = distance.Portable()
	}

	vs, err := vectorstore.New(opts.Dimension)
	if err != nil {
		return nil, err
	}
	return &Flat{opts: opts, vectors: vs}, nil
}

// Restore creates a flat index populated with an existing row-major buffer,
// typically from a snapshot.
func Restore(buf []float32, optFns ...func(o *Options)) (*Flat, error) {
	f, err := New(optFns...)
	if err != nil {
		return nil, err
	}
	if _, err := f.vectors.AppendBuffer(buf); err != nil {
		return nil, err
	}
	return f, nil
}

// Kind returns index.KindFlat.
func (f *Flat) Kind() index.Kind { return index.KindFlat }

// Dimension returns the fixed vector width.
func (f *Flat) Dimension() int { return f.opts.Dimension }

// Count returns the number of indexed vectors.
func (f *Flat) Count() int { return f.vectors.Len() }

// IsTrained always reports true: exact search needs no training pass.
func (f *Flat) IsTrained() bool { return true }

// Train is a no-op for the flat variant.
func (f *Flat) Train([]float32) error { return nil }

// Add appends whole vectors from the row-major buffer.
func (f *Flat) Add(buf []float32) error {
	if len(buf) == 0 {
		return index.ErrEmptyBuffer
	}
	if len(buf)%f.opts.Dimension != 0 {
		return &index.ErrDimensionMismatch{Expected: f.opts.Dimension, Actual: len(buf) % f.opts.Dimension}
	}
	_, err := f.vectors.AppendBuffer(buf)
	return err
}

// Buffer returns a copy of the full row-major vector buffer, used by
// snapshots.
func (f *Flat) Buffer() []float32 { return f.vectors.Concat() }

// Search scans all vectors for each query row.
func (f *Flat) Search(queries []float32, k int, opts *index.SearchOptions) ([]float32, []int64, error) {
	if k <= 0 {
		return nil, nil, index.ErrInvalidK
	}
	dim := f.opts.Dimension
	if len(queries) == 0 || len(queries)%dim != 0 {
		return nil, nil, &index.ErrDimensionMismatch{Expected: dim, Actual: len(queries) % dim}
	}

	n := len(queries) / dim
	count := f.vectors.Len()
	dists := make([]float32, n*k)
	positions := make([]int64, n*k)

	for qi := 0; qi < n; qi++ {
		q := queries[qi*dim : (qi+1)*dim]
		top := queue.NewTopK(k)

		for pos := 0; pos < count; pos++ {
			if opts != nil && opts.Exclude != nil && opts.Exclude.Contains(uint64(pos)) {
				continue
			}
			v, _ := f.vectors.Vector(int64(pos))
			top.Push(int64(pos), f.opts.Kernels.SquaredL2(q, v))
		}

		row := top.Results()
		base := qi * k
		for i := 0; i < k; i++ {
			if i < len(row) {
				dists[base+i] = row[i].Distance
				positions[base+i] = row[i].Position
			} else {
				dists[base+i] = float32(math.Inf(1))
				positions[base+i] = -1
			}
		}
	}

	return dists, positions, nil
}
