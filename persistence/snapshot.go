package persistence

import (
	"github.com/foundermatch/annidx/index"
	"github.com/foundermatch/annidx/index/ivfpq"
)

// Snapshot is the serializable state of an index together with the raw
// vectors it was built from. Exactly one of FlatBuffer and Clustered is set,
// according to Kind.
type Snapshot struct {
	Kind      index.Kind
	Dimension int
	Count     int
	Trained   bool

	// FlatBuffer is the row-major vector buffer of a flat index.
	FlatBuffer []float32

	// Clustered is the full state of a clustered index.
	Clustered *ivfpq.State

	// Vectors is the row-major contents of the vector store. Kept alongside
	// the index so a restored instance can rebuild when it outgrows its
	// current variant.
	Vectors []float32
}

// indexPayload is the gob payload of the index artifact.
type indexPayload struct {
	FlatBuffer []float32
	Clustered  *ivfpq.State
}

// vectorsPayload is the gob payload of the vectors artifact.
type vectorsPayload struct {
	Vectors []float32
}
