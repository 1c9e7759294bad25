// Package distance provides float32 distance kernels for vector search.
//
// Two kernel sets are available: a portable set that runs everywhere, and an
// accelerated set with unrolled inner loops that is selected only when the
// host CPU advertises vector extensions. The accelerated set is an
// availability guarantee, not a latency contract: callers that request it and
// find it unavailable should fall back to the portable set and continue.
package distance
