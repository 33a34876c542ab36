// Package malloc exposes a process-wide heap behind libc-style calls.
//
// The package wraps a single [heap.Heap] shared by the whole process. The
// heap comes into existence on first use; programs that want a custom
// configuration call [Init] before any allocation:
//
//	if err := malloc.Init(heap.WithLogger(logger)); err != nil {
//		log.Fatal(err)
//	}
//	buf := malloc.Malloc(64)
//	defer malloc.Free(buf)
//
// Programs that need several independent heaps should use [heap.New]
// directly instead.
package malloc

import (
	"errors"
	"sync"

	"github.com/joshuapare/heapkit/heap"
)

// ErrInitialized is returned by Init when the default heap already exists
// and options were supplied. The running heap keeps its configuration.
var ErrInitialized = errors.New("malloc: default heap already initialized")

var (
	mu  sync.Mutex
	def *heap.Heap
)

// Init creates the default heap up front. Calling it is optional: the first
// allocation creates the heap lazily with default options.
func Init(opts ...heap.Option) error {
	mu.Lock()
	defer mu.Unlock()
	if def != nil {
		if len(opts) > 0 {
			return ErrInitialized
		}
		return nil
	}
	def = heap.New(opts...)
	return nil
}

// Destroy releases every region held by the default heap and forgets it.
// Outstanding buffers become invalid immediately. Destroy must not run
// concurrently with other calls in this package.
func Destroy() error {
	mu.Lock()
	defer mu.Unlock()
	if def == nil {
		return nil
	}
	err := def.Close()
	def = nil
	return err
}

func get() *heap.Heap {
	mu.Lock()
	defer mu.Unlock()
	if def == nil {
		def = heap.New()
	}
	return def
}

// Default returns the process-wide heap, creating it if needed.
func Default() *heap.Heap {
	return get()
}

// Malloc allocates size bytes from the default heap.
func Malloc(size int) []byte {
	return get().Malloc(size)
}

// Free returns buf to the default heap. Buffers that did not come from this
// package are ignored.
func Free(buf []byte) {
	get().Free(buf)
}

// Realloc resizes buf on the default heap, moving it if necessary.
func Realloc(buf []byte, size int) []byte {
	return get().Realloc(buf, size)
}

// Calloc allocates zeroed memory for count elements of size bytes each.
func Calloc(count, size int) []byte {
	return get().Calloc(count, size)
}

// Stats snapshots the default heap's counters.
func Stats() heap.HeapStats {
	return get().Stats()
}
