package heap

import (
	"fmt"
	"os"
)

// Runtime trace flag for allocator events - controlled by HEAPKIT_DEBUG env var.
var logHeap = os.Getenv("HEAPKIT_DEBUG") != ""

// debugf prints an allocator trace line to stderr when HEAPKIT_DEBUG is set.
func debugf(format string, args ...any) {
	if !logHeap {
		return
	}
	fmt.Fprintf(os.Stderr, "[HEAP] "+format+"\n", args...)
}
