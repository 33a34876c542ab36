package heap

import (
	"fmt"
	"io"
)

// BlockInfo describes one block during a Walk.
type BlockInfo struct {
	Addr   uintptr // header address
	Size   int     // payload capacity in bytes
	Free   bool
	Region int // index of the owning region
}

// Walk visits every block in chain order until fn returns false. The heap
// lock is held for the whole traversal, so fn must not call back into h.
func (h *Heap) Walk(fn func(BlockInfo) bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for b := h.headHdr(); b != nil; b = b.nextHdr() {
		info := BlockInfo{
			Addr:   addrOf(b),
			Size:   int(b.size),
			Free:   b.state == magicFree,
			Region: int(b.region),
		}
		if !fn(info) {
			return
		}
	}
}

// CheckIntegrity walks the chain and verifies its structural invariants:
// recognizable state words, aligned nonzero sizes, consistent double links,
// blocks confined to their regions, no touching free blocks, and statistics
// that match what the chain actually holds. The first violation is returned
// wrapped around the matching sentinel error; a healthy heap returns nil.
func (h *Heap) CheckIntegrity() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var (
		prev       *blockHeader
		blocks     int
		freeBlocks int
		allocBytes int64
		freeBytes  int64
	)
	perRegion := make([]int64, len(h.regions))

	for b := h.headHdr(); b != nil; b = b.nextHdr() {
		addr := addrOf(b)
		if b.state != magicUsed && b.state != magicFree {
			return fmt.Errorf("%w: block 0x%x state 0x%x", ErrBadMagic, addr, b.state)
		}
		if b.size == 0 || b.size%Alignment != 0 {
			return fmt.Errorf("%w: block 0x%x size %d", ErrBadSize, addr, b.size)
		}
		if int(b.region) >= len(h.regions) {
			return fmt.Errorf("%w: block 0x%x region %d of %d", ErrRegionBounds, addr, b.region, len(h.regions))
		}
		sp, ok := h.findSpan(addr)
		if !ok || sp.idx != int(b.region) || blockEnd(b) > sp.end {
			return fmt.Errorf("%w: block 0x%x escapes region %d", ErrRegionBounds, addr, b.region)
		}
		switch {
		case prev == nil && b.prev != 0:
			return fmt.Errorf("%w: head block 0x%x has prev 0x%x", ErrBadLink, addr, b.prev)
		case prev != nil && uintptr(b.prev) != addrOf(prev):
			return fmt.Errorf("%w: block 0x%x prev 0x%x, expected 0x%x", ErrBadLink, addr, b.prev, addrOf(prev))
		}
		if prev != nil && prev.state == magicFree && b.state == magicFree && adjacent(prev, b) {
			return fmt.Errorf("%w: blocks 0x%x and 0x%x", ErrAdjacentFree, addrOf(prev), addr)
		}

		blocks++
		// A cycle would loop forever; the recorded block count bounds the walk.
		if blocks > h.stats.Blocks {
			return fmt.Errorf("%w: chain longer than %d recorded blocks", ErrBadLink, h.stats.Blocks)
		}
		if b.state == magicFree {
			freeBlocks++
			freeBytes += int64(b.size)
		} else {
			allocBytes += int64(b.size)
		}
		perRegion[b.region] += headerSize + int64(b.size)
		prev = b
	}

	switch {
	case prev == nil && h.tail != 0:
		return fmt.Errorf("%w: tail 0x%x on an empty chain", ErrBadLink, h.tail)
	case prev != nil && h.tail != addrOf(prev):
		return fmt.Errorf("%w: tail 0x%x does not close the chain at 0x%x", ErrBadLink, h.tail, addrOf(prev))
	}

	if blocks != h.stats.Blocks || freeBlocks != h.stats.FreeBlocks ||
		allocBytes != h.stats.AllocatedBytes || freeBytes != h.stats.FreeBytes {
		return fmt.Errorf("%w: chain holds %d blocks (%d free, %d used / %d free bytes), stats say %d (%d free, %d / %d)",
			ErrAccounting, blocks, freeBlocks, allocBytes, freeBytes,
			h.stats.Blocks, h.stats.FreeBlocks, h.stats.AllocatedBytes, h.stats.FreeBytes)
	}
	for _, sp := range h.index {
		if extent := int64(sp.end - sp.start); perRegion[sp.idx] != extent {
			return fmt.Errorf("%w: region %d holds %d block bytes over a %d byte span",
				ErrAccounting, sp.idx, perRegion[sp.idx], extent)
		}
	}
	return nil
}

// DumpTo writes a human-readable chain listing, one block per line, with a
// closing accounting summary. Intended for debugging and tooling.
func (h *Heap) DumpTo(w io.Writer) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	i := 0
	for b := h.headHdr(); b != nil; b = b.nextHdr() {
		state := "used"
		if b.state == magicFree {
			state = "free"
		}
		if _, err := fmt.Fprintf(w, "block %-5d region %-3d addr 0x%012x size %-10d %s\n",
			i, b.region, addrOf(b), b.size, state); err != nil {
			return err
		}
		i++
	}
	s := h.stats
	_, err := fmt.Fprintf(w, "blocks=%d free=%d regions=%d mapped=%dB allocated=%dB freebytes=%dB\n",
		s.Blocks, s.FreeBlocks, len(h.regions), s.MappedBytes, s.AllocatedBytes, s.FreeBytes)
	return err
}
