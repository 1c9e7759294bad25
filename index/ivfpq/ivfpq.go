// Package ivfpq provides the clustered, product-quantized index variant.
//
// The vector space is partitioned into nlist clusters by a k-means training
// pass over the dataset; each vector is stored as a compact product-quantizer
// code on the inverted list of its cluster. A query scans only the nprobe
// nearest clusters, trading recall for speed. The index must be trained once
// before vectors can be added.
package ivfpq

import (
	"math"
	"math/rand"

	"github.com/foundermatch/annidx/distance"
	"github.com/foundermatch/annidx/index"
	"github.com/foundermatch/annidx/internal/kmeans"
	"github.com/foundermatch/annidx/internal/queue"
)

// Compile-time check.
var _ index.Index = (*Index)(nil)

// maxTrainPointsPerCluster bounds the k-means training sample so rebuild cost
// stays proportional to nlist, not the dataset.
const maxTrainPointsPerCluster = 256

// Options contains configuration for the clustered index.
type Options struct {
	// Dimension is the fixed vector width. Required.
	Dimension int

	// NList is the number of coarse clusters.
	NList int

	// NProbe is the default number of clusters scanned per query.
	NProbe int

	// Subquantizers is the number of product-quantizer subspaces.
	// Dimension must be divisible by it.
	Subquantizers int

	// Bits is the number of bits per code, in [1,8].
	Bits int

	// MaxIter bounds the k-means iterations of the training pass.
	MaxIter int

	// Seed drives all training randomness, making rebuilds reproducible.
	Seed int64

	// Kernels are the distance kernels to use. Zero value means portable.
	Kernels distance.Kernels
}

// DefaultOptions contains the default configuration for the clustered index.
var DefaultOptions = Options{
	NList:         100,
	NProbe:        10,
	Subquantizers: 8,
	Bits:          8,
	MaxIter:       25,
	Seed:          1,
}

// Index is the clustered, product-quantized variant.
type Index struct {
	opts Options
	pq   *productQuantizer

	centroids []float32 // nlist * dim, nil until trained
	listPos   [][]int64 // positions per inverted list
	listCodes [][]byte  // PQ codes per inverted list, m bytes per entry
	count     int
	trained   bool
}

// New creates an untrained clustered index.
func New(optFns ...func(o *Options)) (*Index, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Kernels.SquaredL2 == nil {
		opts.Kernels = distance.Portable()
	}

	pq, err := newProductQuantizer(opts.Dimension, opts.Subquantizers, opts.Bits, opts.Kernels)
	if err != nil {
		return nil, err
	}

	return &Index{
		opts:      opts,
		pq:        pq,
		listPos:   make([][]int64, opts.NList),
		listCodes: make([][]byte, opts.NList),
	}, nil
}

// Kind returns index.KindClustered.
func (ix *Index) Kind() index.Kind { return index.KindClustered }

// Dimension returns the fixed vector width.
func (ix *Index) Dimension() int { return ix.opts.Dimension }

// Count returns the number of indexed vectors.
func (ix *Index) Count() int { return ix.count }

// IsTrained reports whether the training pass has run.
func (ix *Index) IsTrained() bool { return ix.trained }

// NProbe returns the default probe count.
func (ix *Index) NProbe() int { return ix.opts.NProbe }

// Train fits the coarse centroids and the product-quantizer codebooks on the
// given row-major buffer. It must run once before Add; training an index that
// already holds vectors is not supported (rebuild instead).
func (ix *Index) Train(buf []float32) error {
	dim := ix.opts.Dimension
	if len(buf) == 0 {
		return index.ErrEmptyBuffer
	}
	if len(buf)%dim != 0 {
		return &index.ErrDimensionMismatch{Expected: dim, Actual: len(buf) % dim}
	}

	rng := rand.New(rand.NewSource(ix.opts.Seed))
	n := len(buf) / dim

	// Clamp nlist for degenerate datasets so every cluster can get a seed.
	nlist := ix.opts.NList
	if n < nlist {
		nlist = n
	}

	sample := kmeans.Sample(buf, dim, nlist*maxTrainPointsPerCluster, rng)
	centroids, err := kmeans.Train(sample, dim, nlist, ix.opts.MaxIter, ix.opts.Kernels, rng)
	if err != nil {
		return err
	}
	if err := ix.pq.train(sample, rng); err != nil {
		return err
	}

	ix.centroids = centroids
	ix.listPos = make([][]int64, nlist)
	ix.listCodes = make([][]byte, nlist)
	ix.count = 0
	ix.trained = true
	return nil
}

// Add encodes and appends whole vectors from the row-major buffer. Positions
// continue from the current count.
func (ix *Index) Add(buf []float32) error {
	if !ix.trained {
		return index.ErrNotTrained
	}
	dim := ix.opts.Dimension
	if len(buf) == 0 {
		return index.ErrEmptyBuffer
	}
	if len(buf)%dim != 0 {
		return &index.ErrDimensionMismatch{Expected: dim, Actual: len(buf) % dim}
	}

	n := len(buf) / dim
	for i := 0; i < n; i++ {
		vec := buf[i*dim : (i+1)*dim]
		list := kmeans.Assign(vec, ix.centroids, dim, ix.opts.Kernels)
		code, err := ix.pq.encode(vec)
		if err != nil {
			return err
		}
		ix.listPos[list] = append(ix.listPos[list], int64(ix.count))
		ix.listCodes[list] = append(ix.listCodes[list], code...)
		ix.count++
	}
	return nil
}

// Search scans the nprobe nearest inverted lists per query using asymmetric
// distance computation. Distances are PQ approximations of squared L2.
func (ix *Index) Search(queries []float32, k int, opts *index.SearchOptions) ([]float32, []int64, error) {
	if k <= 0 {
		return nil, nil, index.ErrInvalidK
	}
	if !ix.trained {
		return nil, nil, index.ErrNotTrained
	}
	dim := ix.opts.Dimension
	if len(queries) == 0 || len(queries)%dim != 0 {
		return nil, nil, &index.ErrDimensionMismatch{Expected: dim, Actual: len(queries) % dim}
	}

	nprobe := ix.opts.NProbe
	if opts != nil && opts.NProbe > 0 {
		nprobe = opts.NProbe
	}

	n := len(queries) / dim
	m := ix.opts.Subquantizers
	dists := make([]float32, n*k)
	positions := make([]int64, n*k)

	for qi := 0; qi < n; qi++ {
		q := queries[qi*dim : (qi+1)*dim]

		table, err := ix.pq.distanceTable(q)
		if err != nil {
			return nil, nil, err
		}

		top := queue.NewTopK(k)
		for _, list := range kmeans.Nearest(q, ix.centroids, dim, nprobe, ix.opts.Kernels) {
			pos := ix.listPos[list]
			codes := ix.listCodes[list]
			for i, p := range pos {
				if opts != nil && opts.Exclude != nil && opts.Exclude.Contains(uint64(p)) {
					continue
				}
				top.Push(p, ix.pq.adcDistance(table, codes[i*m:(i+1)*m]))
			}
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

// State is the exported snapshot form of the index structure. The raw vector
// buffer is not part of it; snapshots persist that separately so the paired
// vector store can be reconstructed on load.
type State struct {
	Dimension     int
	NList         int
	NProbe        int
	Subquantizers int
	Bits          int
	Count         int
	Centroids     []float32
	Codebooks     []float32
	ListPositions [][]int64
	ListCodes     [][]byte
}

// State exports the trained structure for persistence.
func (ix *Index) State() State {
	return State{
		Dimension:     ix.opts.Dimension,
		NList:         ix.opts.NList,
		NProbe:        ix.opts.NProbe,
		Subquantizers: ix.opts.Subquantizers,
		Bits:          ix.opts.Bits,
		Count:         ix.count,
		Centroids:     ix.centroids,
		Codebooks:     ix.pq.codebooks,
		ListPositions: ix.listPos,
		ListCodes:     ix.listCodes,
	}
}

// Restore reconstructs a trained index from a persisted State.
func Restore(st State, optFns ...func(o *Options)) (*Index, error) {
	ix, err := New(append([]func(o *Options){func(o *Options) {
		o.Dimension = st.Dimension
		o.NList = st.NList
		o.NProbe = st.NProbe
		o.Subquantizers = st.Subquantizers
		o.Bits = st.Bits
	}}, optFns...)...)
	if err != nil {
		return nil, err
	}

	ix.centroids = st.Centroids
	ix.pq.codebooks = st.Codebooks
	ix.pq.trained = true
	ix.listPos = st.ListPositions
	ix.listCodes = st.ListCodes
	ix.count = st.Count
	ix.trained = true
	return ix, nil
}
