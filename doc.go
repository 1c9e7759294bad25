// Package annidx implements an adaptive vector similarity index for
// recommendation workloads.
//
// A Manager stores fixed-dimension embedding vectors and serves k-nearest
// neighbor queries. Small datasets use an exact flat index; once the vector
// count reaches a configurable threshold the manager rebuilds into a
// clustered, product-quantized index that trades a little recall for much
// cheaper queries. Snapshots round-trip through a blob store, so a restarted
// service resumes from its last published state.
//
//	m, _ := annidx.New(128)
//	_ = m.Init(ctx, vectors)
//	res, _ := m.Search(ctx, queries, 10)
package annidx
