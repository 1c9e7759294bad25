package annidx

import (
	"context"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/foundermatch/annidx/distance"
	"github.com/foundermatch/annidx/index"
	"github.com/foundermatch/annidx/index/flat"
	"github.com/foundermatch/annidx/index/ivfpq"
	"github.com/foundermatch/annidx/vectorstore"
)

// Manager owns an adaptive vector index and its paired vector store.
//
// A manager starts uninitialized. Init builds the first index from a batch;
// Add appends and upgrades the index variant when the stored count reaches
// the cluster threshold. The upgrade is a full rebuild over every stored
// vector and never reverts.
//
// Search takes a shared lock, Init/Add/Restore an exclusive one, so reads
// never observe a half-replaced index. A threshold-crossing Add blocks
// concurrent searches for the duration of the rebuild.
type Manager struct {
	dimension int
	opts      options
	kernels   distance.Kernels

	mu    sync.RWMutex
	store *vectorstore.Store
	index index.Index
}

// SearchOptions tune a single Search call.
type SearchOptions struct {
	// NProbe overrides the configured cluster probe count. Ignored by the
	// flat variant.
	NProbe int

	// Exclude removes the given positions from consideration. Rows may
	// come back shorter than k when exclusions thin out the candidates.
	Exclude *roaring64.Bitmap
}

// SearchResult holds row-major batch results: one row per query, distances
// ascending within each row.
type SearchResult struct {
	Distances [][]float32
	Positions [][]int64
}

// Status is a read-only view of the manager state, safe in any state.
type Status struct {
	Variant   string
	Count     int
	Dimension int
	IsTrained bool
}

// New creates an uninitialized manager for vectors of the given dimension.
func New(dimension int, optFns ...Option) (*Manager, error) {
	if dimension <= 0 {
		return nil, ErrInvalidDimension
	}

	opts := applyOptions(optFns)

	kernels := distance.Portable()
	if opts.accelerated {
		accel, err := distance.Accelerated()
		if err != nil {
			opts.logger.LogAcceleratedFallback(err)
		}
		kernels = accel
	}

	return &Manager{
		dimension: dimension,
		opts:      opts,
		kernels:   kernels,
	}, nil
}

// Init builds the manager state from an initial batch, selecting the variant
// by batch size. Calling Init on an already initialized manager is a full
// reset: all existing vectors and the index are discarded.
func (m *Manager) Init(ctx context.Context, vectors [][]float32) error {
	start := time.Now()

	m.mu.Lock()
	store, idx, err := m.build(vectors)
	if err == nil {
		m.store, m.index = store, idx
	}
	m.mu.Unlock()

	err = translateError(err)

	variant := ""
	if idx != nil {
		variant = idx.Kind().String()
	}
	m.opts.logger.LogInit(ctx, len(vectors), m.dimension, variant, err)
	m.opts.metricsCollector.RecordInit(len(vectors), time.Since(start), err)

	return err
}

// Add appends vectors to the store and the current index. When the new total
// reaches the cluster threshold the flat index is discarded and a clustered
// one is rebuilt from the full store; callers must expect that call to be
// slow and blocking, O(total vectors).
func (m *Manager) Add(ctx context.Context, vectors [][]float32) error {
	start := time.Now()

	m.mu.Lock()
	total, err := m.add(ctx, vectors)
	m.mu.Unlock()

	err = translateError(err)
	m.opts.logger.LogAdd(ctx, len(vectors), total, err)
	m.opts.metricsCollector.RecordAdd(len(vectors), time.Since(start), err)

	return err
}

// Search returns the nearest neighbors for a batch of query rows. Each result
// row holds min(k, count) entries, distances ascending; exclusions may shrink
// a row further. Fails before Init with ErrNotInitialized.
func (m *Manager) Search(ctx context.Context, queries [][]float32, k int, optFns ...func(o *SearchOptions)) (*SearchResult, error) {
	start := time.Now()

	res, err := m.search(queries, k, optFns)

	err = translateError(err)
	m.opts.logger.LogSearch(ctx, len(queries), k, err)
	m.opts.metricsCollector.RecordSearch(k, time.Since(start), err)

	return res, err
}

// Status reports the current variant, count, dimension and training state.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.index == nil {
		return Status{Variant: "uninitialized", Dimension: m.dimension}
	}

	return Status{
		Variant:   m.index.Kind().String(),
		Count:     m.store.Len(),
		Dimension: m.dimension,
		IsTrained: m.index.IsTrained(),
	}
}

// build constructs a fresh store and index from the batch. Manager state is
// untouched, so a failing build leaves the previous state intact.
func (m *Manager) build(vectors [][]float32) (*vectorstore.Store, index.Index, error) {
	store, err := vectorstore.New(m.dimension)
	if err != nil {
		return nil, nil, err
	}
	if len(vectors) > 0 {
		if _, err := store.Append(vectors); err != nil {
			return nil, nil, err
		}
	}

	idx, err := m.buildIndex(store.Concat(), store.Len())
	if err != nil {
		return nil, nil, err
	}

	return store, idx, nil
}

// buildIndex selects the variant for the given count and populates it.
func (m *Manager) buildIndex(buf []float32, count int) (index.Index, error) {
	if index.Select(count, m.opts.clusterThreshold) == index.KindClustered {
		ix, err := ivfpq.New(func(o *ivfpq.Options) {
			o.Dimension = m.dimension
			o.NList = m.opts.nlist
			o.NProbe = m.opts.nprobe
			o.Subquantizers = m.opts.subquantizers
			o.Bits = m.opts.bitsPerCode
			o.Seed = m.opts.seed
			o.Kernels = m.kernels
		})
		if err != nil {
			return nil, err
		}
		if err := ix.Train(buf); err != nil {
			return nil, err
		}
		if err := ix.Add(buf); err != nil {
			return nil, err
		}
		return ix, nil
	}

	f, err := flat.New(func(o *flat.Options) {
		o.Dimension = m.dimension
		o.Kernels = m.kernels
	})
	if err != nil {
		return nil, err
	}
	if len(buf) > 0 {
		if err := f.Add(buf); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// add implements Add under the write lock. It returns the resulting total.
func (m *Manager) add(ctx context.Context, vectors [][]float32) (int, error) {
	if m.index == nil {
		return 0, ErrNotInitialized
	}
	if len(vectors) == 0 {
		return m.store.Len(), nil
	}

	// Validate every row before mutating anything.
	buf, err := m.flatten(vectors)
	if err != nil {
		return m.store.Len(), err
	}

	total := m.store.Len() + len(vectors)

	if m.index.Kind() == index.KindFlat && index.Select(total, m.opts.clusterThreshold) == index.KindClustered {
		if err := m.rebuild(ctx, buf, total); err != nil {
			return m.store.Len(), err
		}
	} else {
		if err := m.index.Add(buf); err != nil {
			return m.store.Len(), err
		}
	}

	if _, err := m.store.AppendBuffer(buf); err != nil {
		return m.store.Len(), err
	}

	return total, nil
}

// rebuild constructs a clustered index over the full dataset (stored vectors
// plus the pending batch) and swaps it in on success.
func (m *Manager) rebuild(ctx context.Context, pending []float32, total int) error {
	start := time.Now()

	full := append(m.store.Concat(), pending...)

	ix, err := m.buildIndex(full, total)
	if err == nil {
		m.index = ix
	}

	m.opts.logger.LogRebuild(ctx, total, err)
	m.opts.metricsCollector.RecordRebuild(total, time.Since(start), err)

	return err
}

func (m *Manager) search(queries [][]float32, k int, optFns []func(o *SearchOptions)) (*SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.index == nil {
		return nil, ErrNotInitialized
	}
	if k <= 0 {
		return nil, ErrInvalidK
	}

	buf, err := m.flatten(queries)
	if err != nil {
		return nil, err
	}

	res := &SearchResult{
		Distances: make([][]float32, len(queries)),
		Positions: make([][]int64, len(queries)),
	}
	if len(queries) == 0 {
		return res, nil
	}

	// Rows are capped at the stored count, so no padded entries leak out.
	kEff := min(k, m.store.Len())
	if kEff == 0 {
		for i := range queries {
			res.Distances[i] = []float32{}
			res.Positions[i] = []int64{}
		}
		return res, nil
	}

	opts := SearchOptions{NProbe: m.opts.nprobe}
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}

	dists, positions, err := m.index.Search(buf, kEff, &index.SearchOptions{
		NProbe:  opts.NProbe,
		Exclude: opts.Exclude,
	})
	if err != nil {
		return nil, err
	}

	for i := range queries {
		distRow := dists[i*kEff : (i+1)*kEff]
		posRow := positions[i*kEff : (i+1)*kEff]

		// Drop padding left by exclusions or underfull probe sets.
		n := kEff
		for n > 0 && posRow[n-1] < 0 {
			n--
		}

		res.Distances[i] = append([]float32(nil), distRow[:n]...)
		res.Positions[i] = append([]int64(nil), posRow[:n]...)
	}

	return res, nil
}

// flatten concatenates rows into a row-major buffer, checking widths.
func (m *Manager) flatten(vectors [][]float32) ([]float32, error) {
	buf := make([]float32, 0, len(vectors)*m.dimension)
	for _, v := range vectors {
		if len(v) != m.dimension {
			return nil, &index.ErrDimensionMismatch{Expected: m.dimension, Actual: len(v)}
		}
		buf = append(buf, v...)
	}
	return buf, nil
}
