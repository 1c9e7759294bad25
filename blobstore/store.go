// Package blobstore abstracts the externally versioned object store that
// snapshots are persisted to.
//
// The persistence layer depends only on the capability interface defined
// here, never on a concrete transport. Pull and Push frame a load/save
// session: Pull synchronizes local visibility with the external store before
// reads, Push publishes staged writes afterwards. Backends whose reads and
// writes are immediately authoritative implement them as no-ops.
package blobstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read when no blob exists under the given name.
// It distinguishes first-run behavior (no snapshot yet) from a corrupted or
// unreachable store.
var ErrNotFound = errors.New("blob not found")

// Store is the capability interface for a versioned blob store.
//
// Implementations must be safe for use by a single persistence worker;
// concurrent multi-writer coordination is the responsibility of the backend
// (see the s3 package for a conditional-commit implementation).
type Store interface {
	// Pull synchronizes with the external store so subsequent Reads observe
	// the latest published version.
	Pull(ctx context.Context) error

	// Push publishes all Writes since the last Push as a single logical
	// version. Push is not atomic with respect to the preceding Writes; a
	// failure in between leaves the external store unchanged or only
	// partially updated.
	Push(ctx context.Context) error

	// Read returns the contents of the named blob, or ErrNotFound.
	Read(ctx context.Context, name string) ([]byte, error)

	// Write stages the named blob for the next Push.
	Write(ctx context.Context, name string, data []byte) error
}
