// Package persistence serializes index snapshots to and from a blob store.
//
// A snapshot is written as two artifacts under a common location: an index
// artifact holding the search structure and a vectors artifact holding the
// raw vectors the index was built from. Each artifact carries a fixed binary
// header followed by a compressed gob payload.
package persistence
