package heap

// HeapStats is a point-in-time snapshot of allocator counters and byte
// accounting. Byte fields cover payload capacity only; header overhead is
// the difference between MappedBytes and AllocatedBytes+FreeBytes.
type HeapStats struct {
	MallocCalls    int // Malloc entries, including failed ones
	FreeCalls      int // Free entries, including rejected handles
	ReallocCalls   int // Realloc entries
	ReallocInPlace int // Reallocs satisfied without moving the payload
	CallocCalls    int // Calloc entries
	InvalidHandles int // Free/Realloc handles that failed validation
	FailedAllocs   int // allocations refused because mapping failed

	Splits  int // blocks carved in two
	Merges  int // adjacent free blocks coalesced
	Extends int // regions mapped

	Regions        int   // live regions
	MappedBytes    int64 // bytes obtained from the OS and not yet released
	AllocatedBytes int64 // payload capacity of in-use blocks
	FreeBytes      int64 // payload capacity of free blocks
	Blocks         int   // blocks in the chain
	FreeBlocks     int   // blocks currently free
}

// Stats returns a consistent snapshot of the heap counters.
func (h *Heap) Stats() HeapStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.stats
	s.Regions = len(h.regions)
	return s
}
