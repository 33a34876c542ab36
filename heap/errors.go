package heap

import "errors"

var (
	// ErrBadMagic indicates a block header whose state word is neither the
	// in-use nor the free magic value.
	ErrBadMagic = errors.New("heap: bad block magic")

	// ErrBadSize indicates a block whose size is zero or not a multiple of
	// Alignment.
	ErrBadSize = errors.New("heap: bad block size")

	// ErrBadLink indicates an inconsistency in the doubly linked block chain.
	ErrBadLink = errors.New("heap: inconsistent chain link")

	// ErrRegionBounds indicates a block that escapes its owning region.
	ErrRegionBounds = errors.New("heap: block outside region bounds")

	// ErrAdjacentFree indicates two touching free blocks that should have
	// been coalesced.
	ErrAdjacentFree = errors.New("heap: uncoalesced adjacent free blocks")

	// ErrAccounting indicates a mismatch between heap statistics and the
	// actual chain contents.
	ErrAccounting = errors.New("heap: statistics do not match chain")
)
