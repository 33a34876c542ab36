package heap

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderSizeMatchesLayout(t *testing.T) {
	assert.Equal(t, uintptr(headerSize), unsafe.Sizeof(blockHeader{}),
		"header constant must match the struct layout")
	assert.Zero(t, headerSize%Alignment,
		"headers must preserve payload alignment")
}

func TestAlignSizeContract(t *testing.T) {
	cases := map[int]int{
		0:    0,
		1:    Alignment,
		15:   Alignment,
		16:   Alignment,
		17:   2 * Alignment,
		160:  160,
		1000: 1008,
	}
	for in, want := range cases {
		assert.Equal(t, want, alignSize(in), "alignSize(%d)", in)
	}

	prev := 0
	for n := 0; n <= 4*Alignment; n++ {
		got := alignSize(n)
		assert.Equal(t, got, alignSize(got), "alignSize must be idempotent at %d", n)
		assert.GreaterOrEqual(t, got, n, "alignSize never shrinks")
		assert.GreaterOrEqual(t, got, prev, "alignSize is monotonic")
		prev = got
	}
}

func TestPayloadAlignmentAcrossSplits(t *testing.T) {
	h := newTestHeap(t)
	primeFreeBlock(t, h)

	// Odd sizes carve the primed block into a chain of splits; every
	// payload along the way must stay aligned.
	var bufs [][]byte
	for size := 1; size <= 250; size += 7 {
		buf := h.Malloc(size)
		require.NotNil(t, buf, "Malloc(%d)", size)
		assert.Zero(t, bufAddr(buf)%Alignment, "payload for %d bytes", size)
		bufs = append(bufs, buf)
	}
	for _, buf := range bufs {
		h.Free(buf)
	}
	assertHeapInvariants(t, h)
}

func TestFragmentationRecovery(t *testing.T) {
	h := newTestHeap(t)
	whole := primeFreeBlock(t, h)
	require.Greater(t, whole, 6*(512+headerSize), "region too small for six blocks")

	bufs := make([][]byte, 6)
	for i := range bufs {
		bufs[i] = h.Malloc(512)
		require.NotNil(t, bufs[i], "allocation %d", i)
	}

	// Free odd slots first, then even, so merges happen on both sides.
	for i := 1; i < len(bufs); i += 2 {
		h.Free(bufs[i])
	}
	for i := 0; i < len(bufs); i += 2 {
		h.Free(bufs[i])
	}

	blocks := collectBlocks(h)
	require.Len(t, blocks, 1, "fragmented frees should coalesce completely")
	assert.Equal(t, whole, blocks[0].Size, "no capacity may be lost to fragmentation")

	// The recovered span serves a request as large as the original region.
	big := h.Malloc(whole)
	require.NotNil(t, big, "full-span allocation should succeed after recovery")
	assert.Equal(t, 1, h.Stats().Extends, "recovery must not need a new region")

	h.Free(big)
	assertHeapInvariants(t, h)
}

func TestDeterministicLayout(t *testing.T) {
	// Identical call sequences must produce identical block geometry,
	// independent of where the OS places the mappings.
	workload := func(h *Heap) {
		r := rng(0xBEEF)
		var live [][]byte
		for i := 0; i < 400; i++ {
			switch {
			case len(live) > 0 && i%3 == 0:
				idx := int(r.next() % uint32(len(live)))
				h.Free(live[idx])
				live = append(live[:idx], live[idx+1:]...)
			case len(live) > 0 && i%5 == 0:
				idx := int(r.next() % uint32(len(live)))
				if buf := h.Realloc(live[idx], int(r.next()%768)+1); buf != nil {
					live[idx] = buf
				}
			default:
				if buf := h.Malloc(int(r.next()%512) + 1); buf != nil {
					live = append(live, buf)
				}
			}
		}
	}

	// Rewrite addresses as offsets from each region's first block so the
	// two chains compare equal even though their mappings differ.
	snapshot := func(h *Heap) ([]BlockInfo, HeapStats) {
		blocks := collectBlocks(h)
		base := map[int]uintptr{}
		for i := range blocks {
			if _, ok := base[blocks[i].Region]; !ok {
				base[blocks[i].Region] = blocks[i].Addr
			}
			blocks[i].Addr -= base[blocks[i].Region]
		}
		return blocks, h.Stats()
	}

	first := newTestHeap(t)
	second := newTestHeap(t)
	workload(first)
	workload(second)
	assertHeapInvariants(t, first)
	assertHeapInvariants(t, second)

	firstBlocks, firstStats := snapshot(first)
	secondBlocks, secondStats := snapshot(second)
	require.Equal(t, firstBlocks, secondBlocks, "block geometry must be reproducible")
	require.Equal(t, firstStats, secondStats, "counters must be reproducible")
}

func TestWalkVisitsEachBlockOnce(t *testing.T) {
	h := newTestHeap(t)
	whole := primeFreeBlock(t, h)
	carveQuad(t, h, whole)

	seen := map[uintptr]int{}
	h.Walk(func(blk BlockInfo) bool {
		seen[blk.Addr]++
		return true
	})
	require.Len(t, seen, 4)
	for addr, n := range seen {
		assert.Equal(t, 1, n, "block %#x visited more than once", addr)
	}

	// Returning false stops the walk immediately.
	visited := 0
	h.Walk(func(BlockInfo) bool {
		visited++
		return false
	})
	assert.Equal(t, 1, visited)
}

func TestCheckIntegrityDetectsCorruption(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(h *Heap, a, b []byte)
		want   error
	}{
		{
			name:   "zeroed state word",
			mutate: func(h *Heap, a, b []byte) { hdrAt(bufAddr(a) - headerSize).state = 0 },
			want:   ErrBadMagic,
		},
		{
			name:   "unaligned size",
			mutate: func(h *Heap, a, b []byte) { hdrAt(bufAddr(a) - headerSize).size += 8 },
			want:   ErrBadSize,
		},
		{
			name:   "zero size",
			mutate: func(h *Heap, a, b []byte) { hdrAt(bufAddr(b) - headerSize).size = 0 },
			want:   ErrBadSize,
		},
		{
			name:   "region out of range",
			mutate: func(h *Heap, a, b []byte) { hdrAt(bufAddr(b) - headerSize).region = 7 },
			want:   ErrRegionBounds,
		},
		{
			name:   "broken prev link",
			mutate: func(h *Heap, a, b []byte) { hdrAt(bufAddr(b) - headerSize).prev = 0 },
			want:   ErrBadLink,
		},
		{
			name: "free neighbors left unmerged",
			mutate: func(h *Heap, a, b []byte) {
				h.Free(a)
				hdrAt(bufAddr(b) - headerSize).state = magicFree
			},
			want: ErrAdjacentFree,
		},
		{
			name:   "size drift breaks accounting",
			mutate: func(h *Heap, a, b []byte) { hdrAt(bufAddr(b) - headerSize).size -= Alignment },
			want:   ErrAccounting,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHeap(t)
			primeFreeBlock(t, h)
			a := h.Malloc(256)
			b := h.Malloc(256)
			require.NotNil(t, a)
			require.NotNil(t, b)
			require.NoError(t, h.CheckIntegrity(), "heap should start consistent")

			tc.mutate(h, a, b)
			err := h.CheckIntegrity()
			require.Error(t, err, "corruption should be detected")
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
