package heap

// findBlock returns the first free block able to hold need bytes, scanning
// the chain from the head. Ties go to the earliest block; within a region
// the chain is in ascending address order, so reuse favors low addresses.
func (h *Heap) findBlock(need int) *blockHeader {
	for b := h.headHdr(); b != nil; b = b.nextHdr() {
		if b.state == magicFree && b.size >= uint64(need) {
			return b
		}
	}
	return nil
}

// splitBlock carves the front need bytes out of b and turns the excess into
// a new free block spliced directly after it. The cut happens only when the
// excess can hold a header plus more than one alignment unit of payload;
// smaller slack stays inside b and nil is returned.
//
// b must be in use: both callers split a block they just claimed or still
// own, so the remainder is the only free block this can create.
func (h *Heap) splitBlock(b *blockHeader, need int) *blockHeader {
	if b.size <= uint64(need)+headerSize+Alignment {
		return nil
	}
	oldSize := b.size

	rem := hdrAt(payloadOf(b) + uintptr(need))
	rem.size = oldSize - uint64(need) - headerSize
	rem.next = b.next
	rem.prev = uint64(addrOf(b))
	rem.region = b.region
	rem.state = magicFree

	if nxt := rem.nextHdr(); nxt != nil {
		nxt.prev = uint64(addrOf(rem))
	} else {
		h.tail = addrOf(rem)
	}
	b.next = uint64(addrOf(rem))
	b.size = uint64(need)

	h.stats.Splits++
	h.stats.Blocks++
	h.stats.FreeBlocks++
	h.stats.AllocatedBytes -= int64(oldSize - b.size)
	h.stats.FreeBytes += int64(rem.size)
	return rem
}

// mergeBlocks coalesces a just-freed block with any free neighbor it
// touches, successor first, then predecessor. One merge per side is the
// most that can apply when no two free blocks were adjacent before the
// release.
func (h *Heap) mergeBlocks(b *blockHeader) {
	if nxt := b.nextHdr(); nxt != nil && nxt.state == magicFree && adjacent(b, nxt) {
		h.absorb(b, nxt)
	}
	if prv := b.prevHdr(); prv != nil && prv.state == magicFree && adjacent(prv, b) {
		h.absorb(prv, b)
	}
}

// adjacent reports whether q begins exactly where p ends. Blocks from
// different regions never merge even when their mappings happen to touch,
// because regions are unmapped as wholes at Close.
func adjacent(p, q *blockHeader) bool {
	return p.region == q.region && blockEnd(p) == addrOf(q)
}

// absorb folds q into p, where both are free and q directly follows p. The
// header of q dissolves into p's payload and is never read again.
func (h *Heap) absorb(p, q *blockHeader) {
	p.size += headerSize + q.size
	p.next = q.next
	if nxt := p.nextHdr(); nxt != nil {
		nxt.prev = uint64(addrOf(p))
	} else {
		h.tail = addrOf(p)
	}

	h.stats.Merges++
	h.stats.Blocks--
	h.stats.FreeBlocks--
	h.stats.FreeBytes += headerSize
}

// markUsed claims a free block and keeps byte accounting in step.
func (h *Heap) markUsed(b *blockHeader) {
	b.state = magicUsed
	h.stats.AllocatedBytes += int64(b.size)
	h.stats.FreeBytes -= int64(b.size)
	h.stats.FreeBlocks--
}

// markFree releases an in-use block; the caller coalesces afterwards.
func (h *Heap) markFree(b *blockHeader) {
	b.state = magicFree
	h.stats.AllocatedBytes -= int64(b.size)
	h.stats.FreeBytes += int64(b.size)
	h.stats.FreeBlocks++
}
