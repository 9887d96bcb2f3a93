// Package device manages the memory spaces array storage can live in.
//
// A memory space is an Arena: it hands out Buffers, which are opaque
// allocations addressed only through Read/Write. Arenas are registered
// with a Registry under small integer device ids; everything above this
// package refers to device memory exclusively through those ids.
//
// Each registered arena is fronted by a size-class buffer pool to cut
// allocation churn for the many short-lived arrays a workload creates.
package device
