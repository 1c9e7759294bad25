package annidx

import (
	"context"
	"errors"
	"time"

	"github.com/foundermatch/annidx/blobstore"
	"github.com/foundermatch/annidx/index"
	"github.com/foundermatch/annidx/index/flat"
	"github.com/foundermatch/annidx/index/ivfpq"
	"github.com/foundermatch/annidx/persistence"
	"github.com/foundermatch/annidx/vectorstore"
)

// ErrCorruptSnapshot is returned when a loaded snapshot is internally
// inconsistent (e.g. a clustered tag without clustered state).
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

// Snapshot captures the current index and vector store for persistence.
// The returned value shares no mutable state with the manager.
func (m *Manager) Snapshot() (*persistence.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.index == nil {
		return nil, ErrNotInitialized
	}

	snap := &persistence.Snapshot{
		Kind:      m.index.Kind(),
		Dimension: m.dimension,
		Count:     m.store.Len(),
		Trained:   m.index.IsTrained(),
		Vectors:   m.store.Concat(),
	}

	switch ix := m.index.(type) {
	case *flat.Flat:
		snap.FlatBuffer = ix.Buffer()
	case *ivfpq.Index:
		st := ix.State()
		snap.Clustered = &st
	}

	return snap, nil
}

// Save snapshots the manager and publishes both artifacts to the store.
// The operation is idempotent-retryable, not transactional: a failure mid-way
// may leave the store partially updated, and a retry simply overwrites.
func (m *Manager) Save(ctx context.Context, bs blobstore.Store, location string, optFns ...func(o *persistence.Options)) error {
	start := time.Now()

	err := m.save(ctx, bs, location, optFns)

	m.opts.logger.LogSave(ctx, location, err)
	m.opts.metricsCollector.RecordSave(time.Since(start), err)

	return err
}

func (m *Manager) save(ctx context.Context, bs blobstore.Store, location string, optFns []func(o *persistence.Options)) error {
	snap, err := m.Snapshot()
	if err != nil {
		return err
	}
	return persistence.Save(ctx, bs, location, snap, optFns...)
}

// Restore replaces the manager state with a loaded snapshot. Like Init, it
// is destructive and takes the write lock.
func (m *Manager) Restore(snap *persistence.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if snap.Dimension != m.dimension {
		return &ErrDimensionMismatch{Expected: m.dimension, Actual: snap.Dimension}
	}

	store, err := vectorstore.Restore(m.dimension, snap.Vectors)
	if err != nil {
		return translateError(err)
	}

	var idx index.Index
	switch snap.Kind {
	case index.KindClustered:
		if snap.Clustered == nil {
			return ErrCorruptSnapshot
		}
		idx, err = ivfpq.Restore(*snap.Clustered, func(o *ivfpq.Options) {
			o.Kernels = m.kernels
		})
	default:
		idx, err = flat.Restore(snap.FlatBuffer, func(o *flat.Options) {
			o.Dimension = m.dimension
			o.Kernels = m.kernels
		})
	}
	if err != nil {
		return translateError(err)
	}

	m.store, m.index = store, idx
	return nil
}

// Load constructs a manager from a snapshot in the blob store. The second
// return reports whether a snapshot was found: a first run yields an
// uninitialized manager, false, and no error, so callers can fall back to
// Init with fresh data.
func Load(ctx context.Context, bs blobstore.Store, location string, dimension int, optFns ...Option) (*Manager, bool, error) {
	start := time.Now()

	m, err := New(dimension, optFns...)
	if err != nil {
		return nil, false, err
	}

	snap, err := persistence.Load(ctx, bs, location)

	found := snap != nil
	if err == nil && found {
		err = m.Restore(snap)
	}

	m.opts.logger.LogLoad(ctx, location, found, err)
	m.opts.metricsCollector.RecordLoad(time.Since(start), err)

	if err != nil {
		return nil, false, err
	}
	return m, found, nil
}
