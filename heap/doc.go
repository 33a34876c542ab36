// Package heap implements a general-purpose dynamic memory allocator over
// anonymous private memory mappings.
//
// # Overview
//
// A Heap manages memory the way a classic malloc does: every payload is
// preceded by an intrusive 32-byte header, and all blocks, free and in-use
// alike, form one doubly linked chain threaded through the mapped memory
// itself. Allocation walks the chain first-fit, carves oversized matches in
// two, and maps fresh page-rounded regions from the OS when nothing fits.
// Releases flip the block's state word and coalesce with any touching free
// neighbor, so two free blocks are never adjacent.
//
// The backing memory lives entirely outside the Go heap, which makes a
// Heap useful wherever allocation churn must not feed the garbage
// collector: long-lived caches, large scratch buffers, slab-style object
// storage.
//
// # Usage
//
//	h := heap.New()
//	defer h.Close()
//
//	buf := h.Malloc(64)       // len 64, cap rounded up to the block size
//	copy(buf, payload)
//
//	buf = h.Realloc(buf, 256) // grows in place when capacity allows
//	h.Free(buf)
//
//	zeroed := h.Calloc(10, 8) // 80 zeroed bytes, overflow-checked
//	h.Free(zeroed)
//
// # Handles
//
// Payloads are plain []byte slices aimed at region memory. Free and Realloc
// recover the block header from the slice's first byte, validate it against
// the region table and the header's magic word, and silently ignore
// anything they do not recognize: foreign pointers, interior pointers, and
// double frees are no-ops (counted in Stats, logged when HEAPKIT_DEBUG is
// set). Never let a payload outlive its heap's Close.
//
// # Growth
//
// The heap grows by whole anonymous regions, each a page-rounded multiple
// big enough for the requested block, and never returns memory to the OS
// until Close unmaps every region at once. Growth policy is intentionally
// simple; there are no size classes and no per-goroutine caches.
//
// # Concurrency
//
// One mutex serializes every operation, so any number of goroutines may
// share a Heap. The effects of concurrent calls are equivalent to some
// sequential ordering of those calls. The allocator never blocks on
// anything but that mutex and the OS mapping call.
//
// # Introspection
//
// Stats returns operation counters and byte accounting. Walk visits every
// block in chain order, CheckIntegrity validates the structural invariants
// against the sentinel errors in this package, and DumpTo prints the chain
// for debugging.
package heap
