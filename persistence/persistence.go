package persistence

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/foundermatch/annidx/blobstore"
	"github.com/foundermatch/annidx/index"
	"golang.org/x/sync/errgroup"
)

// Artifact name suffixes appended to the snapshot location.
const (
	IndexSuffix   = ".index"
	VectorsSuffix = ".vectors"
)

// ErrMissingVectors is returned when the index artifact of a clustered
// snapshot exists but the vectors artifact does not. A clustered index only
// stores quantized codes, so the raw vectors cannot be reconstructed.
var ErrMissingVectors = errors.New("vectors artifact missing for clustered snapshot")

// IOError wraps a blob store failure with the operation and location.
type IOError struct {
	Op       string
	Location string
	Err      error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("persistence: %s %q: %v", e.Op, e.Location, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Options for Save.
type Options struct {
	// Compression applied to artifact payloads.
	Compression Compression
}

// DefaultOptions used when no functional options are passed.
var DefaultOptions = Options{
	Compression: CompressionZstd,
}

// Save serializes the snapshot and writes both artifacts to the store, then
// publishes them with Push. The two artifacts are encoded in parallel.
func Save(ctx context.Context, store blobstore.Store, location string, snap *Snapshot, optFns ...func(o *Options)) error {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	hdr := fileHeader{
		Kind:        uint8(snap.Kind),
		Compression: uint8(opts.Compression),
		Dimension:   uint32(snap.Dimension),
		Count:       uint64(snap.Count),
	}
	if snap.Trained {
		hdr.Trained = 1
	}

	var (
		indexArtifact, vectorsArtifact []byte
		g                              errgroup.Group
	)

	g.Go(func() error {
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(indexPayload{
			FlatBuffer: snap.FlatBuffer,
			Clustered:  snap.Clustered,
		}); err != nil {
			return err
		}

		var err error
		indexArtifact, err = encodeArtifact(hdr, buf.Bytes())
		return err
	})

	g.Go(func() error {
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(vectorsPayload{Vectors: snap.Vectors}); err != nil {
			return err
		}

		var err error
		vectorsArtifact, err = encodeArtifact(hdr, buf.Bytes())
		return err
	})

	if err := g.Wait(); err != nil {
		return &IOError{Op: "encode", Location: location, Err: err}
	}

	if err := store.Write(ctx, location+IndexSuffix, indexArtifact); err != nil {
		return &IOError{Op: "write", Location: location + IndexSuffix, Err: err}
	}
	if err := store.Write(ctx, location+VectorsSuffix, vectorsArtifact); err != nil {
		return &IOError{Op: "write", Location: location + VectorsSuffix, Err: err}
	}

	if err := store.Push(ctx); err != nil {
		return &IOError{Op: "push", Location: location, Err: err}
	}

	return nil
}

// Load reads a snapshot from the store. It returns (nil, nil) when no
// snapshot exists at the location, so a first run is not an error.
//
// A flat snapshot tolerates a missing vectors artifact: the flat buffer
// holds the same data. A clustered snapshot requires both artifacts.
func Load(ctx context.Context, store blobstore.Store, location string) (*Snapshot, error) {
	if err := store.Pull(ctx); err != nil {
		return nil, &IOError{Op: "pull", Location: location, Err: err}
	}

	indexData, err := store.Read(ctx, location+IndexSuffix)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, nil
		}
		return nil, &IOError{Op: "read", Location: location + IndexSuffix, Err: err}
	}

	hdr, payload, err := decodeArtifact(indexData)
	if err != nil {
		return nil, &IOError{Op: "decode", Location: location + IndexSuffix, Err: err}
	}

	var ip indexPayload
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&ip); err != nil {
		return nil, &IOError{Op: "decode", Location: location + IndexSuffix, Err: err}
	}

	snap := &Snapshot{
		Kind:       index.Kind(hdr.Kind),
		Dimension:  int(hdr.Dimension),
		Count:      int(hdr.Count),
		Trained:    hdr.Trained != 0,
		FlatBuffer: ip.FlatBuffer,
		Clustered:  ip.Clustered,
	}

	vectorsData, err := store.Read(ctx, location+VectorsSuffix)
	switch {
	case err == nil:
		_, vp, err := decodeArtifact(vectorsData)
		if err != nil {
			return nil, &IOError{Op: "decode", Location: location + VectorsSuffix, Err: err}
		}
		var pl vectorsPayload
		if err := gob.NewDecoder(bytes.NewReader(vp)).Decode(&pl); err != nil {
			return nil, &IOError{Op: "decode", Location: location + VectorsSuffix, Err: err}
		}
		snap.Vectors = pl.Vectors
	case errors.Is(err, blobstore.ErrNotFound):
		if snap.Kind == index.KindClustered {
			return nil, &IOError{Op: "read", Location: location + VectorsSuffix, Err: ErrMissingVectors}
		}
		snap.Vectors = snap.FlatBuffer
	default:
		return nil, &IOError{Op: "read", Location: location + VectorsSuffix, Err: err}
	}

	return snap, nil
}
