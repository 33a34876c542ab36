//go:build !unix

package region

import "fmt"

// Map falls back to Go-heap memory on platforms without anonymous mmap.
// The caller keeps the slice referenced for the region's lifetime, which
// keeps the backing array reachable; release is a no-op and the collector
// reclaims the array once the region is dropped.
func Map(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("region: invalid mapping size %d", size)
	}
	return make([]byte, size), func() error { return nil }, nil
}
