package heap

import (
	"fmt"
	"os"
	"sort"
	"unsafe"

	"github.com/joshuapare/heapkit/internal/region"
)

// mapping is one slab of backing memory. Mappings are append-only between
// Close calls and are released as wholes; blocks never span mappings.
type mapping struct {
	data    []byte
	release func() error
}

// regionSpan is the usable address range of a region (first header through
// last payload byte), kept sorted by start address for binary search during
// handle validation.
type regionSpan struct {
	start uintptr
	end   uintptr
	idx   int
}

// extendHeap maps a fresh region big enough for need payload bytes plus one
// header, rounded up to whole pages, and appends its single block at the
// chain tail. The block is born in use and owns the entire region behind
// its header: page-rounding slack is not carved off here, it returns to the
// free list whenever the block does. Requires h.mu held.
func (h *Heap) extendHeap(need int) (*blockHeader, error) {
	if need > maxAllocSize-headerSize {
		return nil, fmt.Errorf("heap: allocation of %d bytes exceeds maximum", need)
	}
	total := region.PageAlign(headerSize+need, os.Getpagesize())

	data, release, err := h.mapRegion(total)
	if err != nil {
		return nil, err
	}

	// OS mappings are page-aligned; a custom mapper may hand out anything,
	// so place the first header at the next aligned address and trim the
	// usable extent back to a whole number of alignment units.
	base := uintptr(unsafe.Pointer(&data[0]))
	start := alignUp(base, Alignment)
	usable := (len(data) - int(start-base) - headerSize) &^ (Alignment - 1)
	if usable < need {
		_ = release()
		return nil, fmt.Errorf("heap: mapper returned %d usable bytes, need %d", usable, need)
	}

	idx := len(h.regions)
	b := hdrAt(start)
	b.size = uint64(usable)
	b.next = 0
	b.prev = uint64(h.tail)
	b.region = uint32(idx)
	b.state = magicUsed

	if h.tail == 0 {
		h.head = start
	} else {
		hdrAt(h.tail).next = uint64(start)
	}
	h.tail = start

	h.regions = append(h.regions, mapping{data: data, release: release})
	h.insertSpan(regionSpan{start: start, end: blockEnd(b), idx: idx})

	h.stats.Extends++
	h.stats.Blocks++
	h.stats.MappedBytes += int64(len(data))
	h.stats.AllocatedBytes += int64(usable)

	debugf("extend: +%d bytes mapped, %d usable, %d regions", len(data), usable, idx+1)
	if h.logger != nil {
		h.logger.Debug("heap region mapped", "bytes", len(data), "usable", usable, "regions", idx+1)
	}
	if h.onExtend != nil {
		h.onExtend(len(data))
	}
	return b, nil
}

// insertSpan keeps the span index sorted by start address; mappings arrive
// at arbitrary addresses.
func (h *Heap) insertSpan(sp regionSpan) {
	i := sort.Search(len(h.index), func(i int) bool { return h.index[i].start > sp.start })
	h.index = append(h.index, regionSpan{})
	copy(h.index[i+1:], h.index[i:])
	h.index[i] = sp
}

// findSpan locates the region span containing addr via binary search.
func (h *Heap) findSpan(addr uintptr) (regionSpan, bool) {
	lo, hi := 0, len(h.index)-1
	for lo <= hi {
		mid := (lo + hi) >> 1
		sp := h.index[mid]
		switch {
		case addr < sp.start:
			hi = mid - 1
		case addr >= sp.end:
			lo = mid + 1
		default:
			return sp, true
		}
	}
	return regionSpan{}, false
}

// lookupBlock validates a payload address and returns its header. It
// returns nil for anything that is not the live payload of exactly one
// in-use block: addresses outside every region, misaligned addresses,
// already-freed blocks, and headers whose fields disagree with the region
// index. The span check runs first so a foreign pointer is never
// dereferenced.
func (h *Heap) lookupBlock(addr uintptr) *blockHeader {
	sp, ok := h.findSpan(addr)
	if !ok {
		return nil
	}
	if addr%Alignment != 0 || addr < sp.start+headerSize {
		return nil
	}
	b := hdrAt(addr - headerSize)
	if b.state != magicUsed {
		return nil
	}
	if int(b.region) != sp.idx || blockEnd(b) > sp.end {
		return nil
	}
	return b
}
