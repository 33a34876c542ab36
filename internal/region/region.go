// Package region obtains anonymous, process-private memory mappings for
// heap regions. On platforms without mmap it falls back to ordinary Go
// slices so the allocator stays usable everywhere, just without the
// off-heap property.
package region

// PageAlign rounds n up to the next multiple of pageSize. pageSize must be
// a positive power-of-two-sized page as reported by the OS.
func PageAlign(n, pageSize int) int {
	return (n + pageSize - 1) / pageSize * pageSize
}
