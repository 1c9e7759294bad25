// Package queue provides a bounded max-heap for top-k neighbor selection.
package queue

import "container/heap"

// Item is a search candidate held by the heap.
type Item struct {
	Position int64
	Distance float32
}

// worse reports whether a ranks after b: greater distance, or equal distance
// with a greater insertion position. The position tie-break keeps exact
// search deterministic.
func worse(a, b Item) bool {
	if a.Distance != b.Distance {
		return a.Distance > b.Distance
	}
	return a.Position > b.Position
}

// TopK keeps the k best candidates seen so far. The root of the internal
// max-heap is the current worst candidate, so replacing it is O(log k).
type TopK struct {
	k     int
	items maxHeap
}

// NewTopK creates a selector for the k best candidates. k must be positive.
func NewTopK(k int) *TopK {
	return &TopK{k: k, items: make(maxHeap, 0, k)}
}

// Push offers a candidate. It is kept only if fewer than k candidates are
// held or it ranks before the current worst.
func (t *TopK) Push(pos int64, dist float32) {
	it := Item{Position: pos, Distance: dist}
	if len(t.items) < t.k {
		heap.Push(&t.items, it)
		return
	}
	if worse(t.items[0], it) {
		t.items[0] = it
		heap.Fix(&t.items, 0)
	}
}

// Len returns the number of held candidates.
func (t *TopK) Len() int { return len(t.items) }

// Results drains the heap and returns the candidates ordered by ascending
// distance, ties by ascending position. The selector must not be reused
// afterwards.
func (t *TopK) Results() []Item {
	out := make([]Item, len(t.items))
	for i := len(t.items) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&t.items).(Item)
	}
	return out
}

type maxHeap []Item

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return worse(h[i], h[j]) }
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x any)         { *h = append(*h, x.(Item)) }
func (h *maxHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}
