package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/foundermatch/annidx/blobstore"
	"github.com/foundermatch/annidx/index"
	"github.com/foundermatch/annidx/index/ivfpq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatSnapshot() *Snapshot {
	buf := []float32{1, 2, 3, 4, 5, 6}
	return &Snapshot{
		Kind:       index.KindFlat,
		Dimension:  3,
		Count:      2,
		Trained:    true,
		FlatBuffer: buf,
		Vectors:    buf,
	}
}

func clusteredSnapshot() *Snapshot {
	return &Snapshot{
		Kind:      index.KindClustered,
		Dimension: 4,
		Count:     2,
		Trained:   true,
		Clustered: &ivfpq.State{
			Dimension:     4,
			NList:         2,
			NProbe:        1,
			Subquantizers: 2,
			Bits:          8,
			Count:         2,
			Centroids:     []float32{0, 0, 0, 0, 1, 1, 1, 1},
			Codebooks:     []float32{0.5, 0.5, 0.25, 0.25},
			ListPositions: [][]int64{{0}, {1}},
			ListCodes:     [][]byte{{0, 0}, {0, 0}},
		},
		Vectors: []float32{0, 0, 0, 0, 1, 1, 1, 1},
	}
}

func TestSaveLoad_Flat(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	require.NoError(t, Save(ctx, store, "main", flatSnapshot()))

	got, err := Load(ctx, store, "main")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, index.KindFlat, got.Kind)
	assert.Equal(t, 3, got.Dimension)
	assert.Equal(t, 2, got.Count)
	assert.True(t, got.Trained)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, got.FlatBuffer)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, got.Vectors)
	assert.Nil(t, got.Clustered)
}

func TestSaveLoad_Clustered(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	want := clusteredSnapshot()
	require.NoError(t, Save(ctx, store, "main", want))

	got, err := Load(ctx, store, "main")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, index.KindClustered, got.Kind)
	require.NotNil(t, got.Clustered)
	assert.Equal(t, want.Clustered, got.Clustered)
	assert.Equal(t, want.Vectors, got.Vectors)
}

func TestSaveLoad_Compression(t *testing.T) {
	ctx := context.Background()

	for _, c := range []Compression{CompressionNone, CompressionZstd, CompressionLZ4} {
		t.Run(c.String(), func(t *testing.T) {
			store := blobstore.NewMemoryStore()

			err := Save(ctx, store, "main", flatSnapshot(), func(o *Options) {
				o.Compression = c
			})
			require.NoError(t, err)

			got, err := Load(ctx, store, "main")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, got.FlatBuffer)
		})
	}
}

func TestLoad_NoSnapshot(t *testing.T) {
	got, err := Load(context.Background(), blobstore.NewMemoryStore(), "main")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoad_FlatToleratesMissingVectors(t *testing.T) {
	ctx := context.Background()
	full := blobstore.NewMemoryStore()
	require.NoError(t, Save(ctx, full, "main", flatSnapshot()))

	// Copy only the index artifact into a fresh store.
	partial := blobstore.NewMemoryStore()
	data, err := full.Read(ctx, "main"+IndexSuffix)
	require.NoError(t, err)
	require.NoError(t, partial.Write(ctx, "main"+IndexSuffix, data))

	got, err := Load(ctx, partial, "main")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, got.Vectors)
}

func TestLoad_ClusteredRequiresVectors(t *testing.T) {
	ctx := context.Background()
	full := blobstore.NewMemoryStore()
	require.NoError(t, Save(ctx, full, "main", clusteredSnapshot()))

	partial := blobstore.NewMemoryStore()
	data, err := full.Read(ctx, "main"+IndexSuffix)
	require.NoError(t, err)
	require.NoError(t, partial.Write(ctx, "main"+IndexSuffix, data))

	_, err = Load(ctx, partial, "main")
	require.ErrorIs(t, err, ErrMissingVectors)

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "read", ioErr.Op)
}

func TestLoad_CorruptArtifact(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	require.NoError(t, store.Write(ctx, "main"+IndexSuffix, []byte("bogus")))

	_, err := Load(ctx, store, "main")
	require.ErrorIs(t, err, ErrTruncated)
}

func TestDecodeArtifact_InvalidMagic(t *testing.T) {
	data, err := encodeArtifact(fileHeader{Compression: uint8(CompressionNone)}, []byte("payload"))
	require.NoError(t, err)

	data[0] ^= 0xff

	_, _, err = decodeArtifact(data)
	require.ErrorIs(t, err, ErrInvalidMagic)
}

// flakyStore fails Push a fixed number of times before succeeding.
type flakyStore struct {
	*blobstore.MemoryStore
	failures int
}

func (s *flakyStore) Push(ctx context.Context) error {
	if s.failures > 0 {
		s.failures--
		return errors.New("transient backend failure")
	}
	return s.MemoryStore.Push(ctx)
}

func TestWorker_SaveAsync(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	w := NewWorker(store, func(o *WorkerOptions) {
		o.Limit = 100
	})
	w.SaveAsync(ctx, "main", flatSnapshot())

	res := <-w.Results()
	require.NoError(t, res.Err)
	assert.Equal(t, "main", res.Location)
	assert.Equal(t, 1, res.Attempts)

	w.Close()

	got, err := Load(ctx, store, "main")
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestWorker_RetriesTransientFailures(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{MemoryStore: blobstore.NewMemoryStore(), failures: 2}

	w := NewWorker(store, func(o *WorkerOptions) {
		o.Limit = 100
	})
	w.SaveAsync(ctx, "main", flatSnapshot())

	res := <-w.Results()
	require.NoError(t, res.Err)
	assert.Equal(t, 3, res.Attempts)

	w.Close()
}

func TestWorker_GivesUpAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{MemoryStore: blobstore.NewMemoryStore(), failures: 10}

	w := NewWorker(store, func(o *WorkerOptions) {
		o.Limit = 100
		o.MaxAttempts = 2
	})
	w.SaveAsync(ctx, "main", flatSnapshot())

	res := <-w.Results()
	require.Error(t, res.Err)
	assert.Equal(t, 2, res.Attempts)

	w.Close()
}
