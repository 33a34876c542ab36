package heap

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/internal/region"
)

// ============================================================================
// Heap Creation Utilities
// ============================================================================

// newTestHeap creates an empty heap that is closed when the test ends.
func newTestHeap(t testing.TB, opts ...Option) *Heap {
	t.Helper()
	h := New(opts...)
	t.Cleanup(func() {
		if err := h.Close(); err != nil {
			t.Errorf("close heap: %v", err)
		}
	})
	return h
}

// newFailingHeap returns a heap whose mapper refuses every request, for
// exercising exhaustion paths.
func newFailingHeap(t testing.TB) *Heap {
	t.Helper()
	return newTestHeap(t, WithRegionMapper(func(int) ([]byte, func() error, error) {
		return nil, nil, errors.New("mapper: out of memory")
	}))
}

// newLimitedHeap returns a heap whose mapper serves at most n mappings and
// refuses the rest.
func newLimitedHeap(t testing.TB, n int) *Heap {
	t.Helper()
	calls := 0
	return newTestHeap(t, WithRegionMapper(func(size int) ([]byte, func() error, error) {
		calls++
		if calls > n {
			return nil, nil, errors.New("mapper: out of memory")
		}
		return region.Map(size)
	}))
}

// primeFreeBlock drives an empty heap to exactly one free block spanning a
// whole region and returns that block's payload capacity.
func primeFreeBlock(t testing.TB, h *Heap) int {
	t.Helper()
	buf := h.Malloc(Alignment)
	require.NotNil(t, buf, "priming allocation failed")
	// A fresh region's block is never split on the extension path, so the
	// capacity covers the whole region behind its header.
	capacity := cap(buf)
	h.Free(buf)
	require.Len(t, collectBlocks(h), 1, "expected a single primed block")
	assertHeapInvariants(t, h)
	return capacity
}

// ============================================================================
// Assertion Helpers
// ============================================================================

// assertHeapInvariants fails the test on the first structural violation.
func assertHeapInvariants(t testing.TB, h *Heap) {
	t.Helper()
	require.NoError(t, h.CheckIntegrity(), "heap invariants violated")
}

// collectBlocks snapshots the chain in order for structural assertions.
func collectBlocks(h *Heap) []BlockInfo {
	var blocks []BlockInfo
	h.Walk(func(info BlockInfo) bool {
		blocks = append(blocks, info)
		return true
	})
	return blocks
}

// bufAddr returns the address of a payload's first byte.
func bufAddr(buf []byte) uintptr {
	return uintptr(unsafe.Pointer(&buf[0]))
}

// fillPattern stamps every byte of buf with pat.
func fillPattern(buf []byte, pat byte) {
	for i := range buf {
		buf[i] = pat
	}
}

// holdsPattern reports whether every byte of buf equals pat.
func holdsPattern(buf []byte, pat byte) bool {
	for _, b := range buf {
		if b != pat {
			return false
		}
	}
	return true
}

// ============================================================================
// Deterministic PRNG (multiply-xor, no global rand state)
// ============================================================================

type rng uint32

func (r *rng) next() uint32 {
	k := *r
	*r = k*5 + 1
	k *= 0x53215995
	return uint32(k ^ (k<<7 | k>>25) ^ (k<<13 | k>>19))
}
