// Package vectorstore provides the canonical append-only storage for raw
// embedding vectors.
//
// Vectors are held contiguously in a single row-major []float32 buffer. Each
// appended vector receives a stable position: positions start at zero, grow
// monotonically and are never reused. There is no delete operation; the only
// way vectors disappear is a full reset of the owning manager.
package vectorstore

import (
	"errors"
	"fmt"
)

// ErrInvalidDimension is returned when a store is created with a
// non-positive dimension.
var ErrInvalidDimension = errors.New("vectorstore: dimension must be positive")

// ErrDimensionMismatch indicates a vector whose width differs from the store
// dimension. Appends fail atomically: no vector of the offending batch is kept.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("vectorstore: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Store is an append-only, dimension-checked container of float32 vectors.
//
// Thread safety: the zero-value rules of the owning manager apply. The store
// itself performs no locking; mutation must be serialized by the caller.
type Store struct {
	dim  int
	data []float32
}

// New creates an empty store for vectors of the given dimension.
func New(dim int) (*Store, error) {
	if dim <= 0 {
		return nil, ErrInvalidDimension
	}
	return &Store{dim: dim}, nil
}

// Restore creates a store populated with an existing row-major buffer.
// The buffer length must be a multiple of dim. The store takes ownership of
// the slice.
func Restore(dim int, buf []float32) (*Store, error) {
	if dim <= 0 {
		return nil, ErrInvalidDimension
	}
	if len(buf)%dim != 0 {
		return nil, &ErrDimensionMismatch{Expected: dim, Actual: len(buf) % dim}
	}
	return &Store{dim: dim, data: buf}, nil
}

// Dimension returns the fixed vector width.
func (s *Store) Dimension() int { return s.dim }

// Len returns the number of stored vectors.
func (s *Store) Len() int { return len(s.data) / s.dim }

// Append validates and appends a batch of vectors, returning the position
// assigned to the first vector of the batch. Validation happens before any
// copy, so a mismatched batch leaves the store unchanged.
func (s *Store) Append(vectors [][]float32) (int64, error) {
	for _, v := range vectors {
		if len(v) != s.dim {
			return 0, &ErrDimensionMismatch{Expected: s.dim, Actual: len(v)}
		}
	}

	first := int64(s.Len())
	if cap(s.data)-len(s.data) < len(vectors)*s.dim {
		grown := make([]float32, len(s.data), len(s.data)+len(vectors)*s.dim)
		copy(grown, s.data)
		s.data = grown
	}
	for _, v := range vectors {
		s.data = append(s.data, v...)
	}
	return first, nil
}

// AppendBuffer appends a row-major buffer of whole vectors and returns the
// first assigned position.
func (s *Store) AppendBuffer(buf []float32) (int64, error) {
	if len(buf)%s.dim != 0 {
		return 0, &ErrDimensionMismatch{Expected: s.dim, Actual: len(buf) % s.dim}
	}
	first := int64(s.Len())
	s.data = append(s.data, buf...)
	return first, nil
}

// Vector returns the vector at the given position. The returned slice aliases
// the internal buffer and must be treated as read-only.
func (s *Store) Vector(pos int64) ([]float32, bool) {
	if pos < 0 || pos >= int64(s.Len()) {
		return nil, false
	}
	off := int(pos) * s.dim
	return s.data[off : off+s.dim : off+s.dim], true
}

// Concat returns a copy of the full row-major buffer. It is the input for
// index rebuilds, which must not observe later appends through aliasing.
func (s *Store) Concat() []float32 {
	out := make([]float32, len(s.data))
	copy(out, s.data)
	return out
}
