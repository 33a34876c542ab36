package heap

import (
	"math"
	"unsafe"
)

const (
	// Alignment is the payload alignment guarantee. Allocation sizes round
	// up to a multiple of it and every payload address is a multiple of it.
	Alignment = 16

	// headerSize is the size of the block header preceding every payload.
	// It is a multiple of Alignment so payloads inherit alignment from the
	// region base.
	headerSize = 32

	// maxAllocSize caps a single allocation so size arithmetic cannot
	// overflow int on any platform.
	maxAllocSize = math.MaxInt - Alignment
)

// Block state magics. The state word is both the free flag and a light
// corruption check: handle validation accepts only these exact values, so
// stray pointers and stale handles become no-ops instead of corrupting the
// chain.
const (
	magicUsed uint32 = 0x55EDB10C
	magicFree uint32 = 0xF7EEB10C
)

// blockHeader lives in region memory directly before each payload.
//
// Fields are fixed-width so the 32-byte layout holds on every architecture.
// next and prev carry raw header addresses (0 means none) rather than Go
// pointers: region memory sits outside the Go heap and must stay invisible
// to the garbage collector.
type blockHeader struct {
	size   uint64 // payload capacity in bytes, always a multiple of Alignment
	next   uint64 // address of the next header in the chain
	prev   uint64 // address of the previous header in the chain
	region uint32 // index into the owning Heap's region table
	state  uint32 // magicUsed or magicFree
}

// hdrAt reinterprets the memory at addr as a block header. addr must lie
// inside a live region.
func hdrAt(addr uintptr) *blockHeader {
	return (*blockHeader)(unsafe.Pointer(addr)) //nolint:govet // region memory is not GC-managed
}

// addrOf returns the address of a block header.
func addrOf(b *blockHeader) uintptr {
	return uintptr(unsafe.Pointer(b))
}

// nextHdr follows the forward chain link, nil at the tail.
func (b *blockHeader) nextHdr() *blockHeader {
	if b.next == 0 {
		return nil
	}
	return hdrAt(uintptr(b.next))
}

// prevHdr follows the backward chain link, nil at the head.
func (b *blockHeader) prevHdr() *blockHeader {
	if b.prev == 0 {
		return nil
	}
	return hdrAt(uintptr(b.prev))
}

// payloadOf returns the address of the payload governed by b.
func payloadOf(b *blockHeader) uintptr {
	return addrOf(b) + headerSize
}

// blockEnd returns the first address past b's payload.
func blockEnd(b *blockHeader) uintptr {
	return payloadOf(b) + uintptr(b.size)
}

// alignSize rounds n up to the next multiple of Alignment. It is monotonic,
// idempotent, and maps 0 to 0. Callers guard against overflow.
func alignSize(n int) int {
	return (n + Alignment - 1) &^ (Alignment - 1)
}

// alignUp rounds addr up to the next multiple of align.
func alignUp(addr uintptr, align uintptr) uintptr {
	return (addr + align - 1) &^ (align - 1)
}

// payloadSlice builds the caller-facing slice for a payload: len is the
// requested size, cap the full block capacity.
func payloadSlice(addr uintptr, length, capacity int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), capacity)[:length:capacity] //nolint:govet // region memory is not GC-managed
}
