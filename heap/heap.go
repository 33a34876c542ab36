package heap

import (
	"fmt"
	"log/slog"
	"math/bits"
	"sync"
	"unsafe"

	"github.com/joshuapare/heapkit/internal/region"
)

// Heap is a first-fit allocator over anonymous memory mappings. Blocks are
// threaded through the mapped memory itself as one doubly linked chain
// holding free and in-use blocks alike; releases coalesce neighbors, misses
// grow the heap by whole pages, and one mutex serializes everything.
//
// The zero value is not usable; construct instances with New. All methods
// are safe for concurrent use.
type Heap struct {
	mu sync.Mutex

	head uintptr // address of the first block header, 0 when empty
	tail uintptr // address of the last block header, 0 when empty

	regions []mapping    // backing mappings, appended on growth
	index   []regionSpan // usable address spans sorted by start

	stats HeapStats

	logger    *slog.Logger
	mapRegion func(size int) ([]byte, func() error, error)

	// Test hook: called after each successful extension (nil in production).
	onExtend func(bytes int)
}

// New constructs an empty heap. No memory is mapped until the first
// allocation.
func New(opts ...Option) *Heap {
	h := &Heap{
		mapRegion: region.Map,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Close releases every region back to the OS and resets the heap to empty.
// Outstanding payloads become invalid; touching them afterwards is
// undefined. The heap itself stays usable, a later allocation simply maps
// fresh regions. The first release failure is returned, the rest of the
// regions are still released.
func (h *Heap) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var firstErr error
	for i := range h.regions {
		if err := h.regions[i].release(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("heap: release region %d: %w", i, err)
		}
	}
	h.head, h.tail = 0, 0
	h.regions = nil
	h.index = nil
	h.stats = HeapStats{}
	return firstErr
}

// Malloc allocates size bytes and returns the payload, or nil when size is
// not positive or backing memory cannot be obtained. The slice has len
// size; its cap is the full block capacity, which may be larger.
func (h *Heap) Malloc(size int) []byte {
	if size <= 0 {
		return nil
	}
	need := alignSize(size)
	if need < size {
		return nil // alignment round-up overflowed
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.stats.MallocCalls++
	return h.malloc(size, need)
}

// malloc is the lock-held allocation core shared by Malloc, Calloc, and the
// Realloc move path. need is the aligned form of size.
func (h *Heap) malloc(size, need int) []byte {
	b := h.findBlock(need)
	if b != nil {
		h.markUsed(b)
		h.splitBlock(b, need)
	} else {
		var err error
		b, err = h.extendHeap(need)
		if err != nil {
			h.stats.FailedAllocs++
			debugf("malloc %d: %v", size, err)
			if h.logger != nil {
				h.logger.Warn("allocation failed", "size", size, "err", err)
			}
			return nil
		}
	}
	return payloadSlice(payloadOf(b), size, int(b.size))
}

// Free releases a payload previously returned by this heap and coalesces
// its block with free neighbors. Handles the heap does not recognize, nil
// or empty slices, and repeated frees are silent no-ops.
func (h *Heap) Free(buf []byte) {
	if len(buf) == 0 {
		return
	}
	addr := uintptr(unsafe.Pointer(&buf[0]))

	h.mu.Lock()
	defer h.mu.Unlock()
	h.stats.FreeCalls++

	b := h.lookupBlock(addr)
	if b == nil {
		h.stats.InvalidHandles++
		debugf("free 0x%x: not a live block", addr)
		if h.logger != nil {
			h.logger.Warn("ignored invalid free", "addr", addr)
		}
		return
	}
	h.markFree(b)
	h.mergeBlocks(b)
}

// Realloc grows or shrinks a payload. When the underlying block already has
// capacity for size bytes the payload stays in place and keeps its address;
// otherwise the bytes move to a freshly allocated block and the old one is
// released. A nil or empty buf behaves like Malloc, size <= 0 behaves like
// Free and returns nil, and an unrecognized handle returns nil without side
// effects. When allocation fails the original payload stays intact and nil
// is returned.
func (h *Heap) Realloc(buf []byte, size int) []byte {
	if len(buf) == 0 {
		return h.Malloc(size)
	}
	if size <= 0 {
		h.Free(buf)
		return nil
	}
	need := alignSize(size)
	if need < size {
		return nil
	}
	addr := uintptr(unsafe.Pointer(&buf[0]))

	h.mu.Lock()
	defer h.mu.Unlock()
	h.stats.ReallocCalls++

	b := h.lookupBlock(addr)
	if b == nil {
		h.stats.InvalidHandles++
		debugf("realloc 0x%x: not a live block", addr)
		if h.logger != nil {
			h.logger.Warn("ignored invalid realloc", "addr", addr)
		}
		return nil
	}

	if b.size >= uint64(need) {
		// In place. Carving off the excess can leave the remainder touching
		// an already-free successor, so re-merge it.
		if rem := h.splitBlock(b, need); rem != nil {
			h.mergeBlocks(rem)
		}
		h.stats.ReallocInPlace++
		return payloadSlice(addr, size, int(b.size))
	}

	// Move path. The old block stays intact until the copy lands, so a
	// failed allocation loses nothing.
	newBuf := h.malloc(size, need)
	if newBuf == nil {
		return nil
	}
	copy(newBuf, payloadSlice(addr, int(b.size), int(b.size)))
	h.markFree(b)
	h.mergeBlocks(b)
	return newBuf
}

// Calloc allocates zeroed memory for count elements of size bytes each. The
// product is overflow-checked; overflow, non-positive inputs, and mapping
// failure all return nil.
func (h *Heap) Calloc(count, size int) []byte {
	if count <= 0 || size <= 0 {
		return nil
	}
	hi, total := bits.Mul64(uint64(count), uint64(size))
	if hi != 0 || total > maxAllocSize {
		return nil
	}
	need := alignSize(int(total))

	h.mu.Lock()
	defer h.mu.Unlock()
	h.stats.CallocCalls++

	buf := h.malloc(int(total), need)
	if buf == nil {
		return nil
	}
	// Fresh mappings arrive zeroed, reused blocks do not. Clear always.
	clear(buf)
	return buf
}

// headHdr returns the first block header, nil on an empty heap.
func (h *Heap) headHdr() *blockHeader {
	if h.head == 0 {
		return nil
	}
	return hdrAt(h.head)
}
