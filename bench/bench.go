// Package bench replays timed allocation workloads against a heap and
// collects per-iteration results for reporting.
//
// Four workload patterns are built in: fixed-size and variable-size
// allocation bursts, a resize loop, and a concurrent churn of short-lived
// blocks. Each pattern runs a configurable number of iterations; every
// iteration is timed separately so outliers stay visible.
package bench

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joshuapare/heapkit/heap"
)

// Workload pattern names accepted in Config.Patterns.
const (
	PatternFixed    = "fixed"
	PatternVariable = "variable"
	PatternRealloc  = "realloc"
	PatternChurn    = "churn"
)

// ErrUnknownPattern is returned by Run when Config.Patterns names a workload
// that does not exist.
var ErrUnknownPattern = errors.New("bench: unknown pattern")

// ErrAllocationFailed is returned by Run when the heap refuses an allocation
// mid-workload, which voids the measurement.
var ErrAllocationFailed = errors.New("bench: allocation failed")

// Config controls the shape of a benchmark run. Zero fields fall back to the
// defaults listed on each field.
type Config struct {
	// Iterations repeats each pattern this many times. Default 5.
	Iterations int
	// AllocCount is the number of blocks handled per iteration. Default 10000.
	AllocCount int
	// FixedSize is the block size of the fixed pattern. Default 64.
	FixedSize int
	// MaxSize caps the random sizes of the variable, realloc and churn
	// patterns; sizes are drawn from [1, MaxSize]. Default 1024.
	MaxSize int
	// ReallocInitial is the starting size of the realloc pattern. Default 128.
	ReallocInitial int
	// Workers is the goroutine count of the churn pattern. Default 8.
	Workers int
	// Seed feeds the size generator so runs are reproducible. Default 12345.
	Seed uint32
	// Patterns selects which workloads run, in order. Empty means all.
	Patterns []string
}

func (c Config) withDefaults() Config {
	if c.Iterations <= 0 {
		c.Iterations = 5
	}
	if c.AllocCount <= 0 {
		c.AllocCount = 10000
	}
	if c.FixedSize <= 0 {
		c.FixedSize = 64
	}
	if c.MaxSize <= 0 {
		c.MaxSize = 1024
	}
	if c.ReallocInitial <= 0 {
		c.ReallocInitial = 128
	}
	if c.Workers <= 0 {
		c.Workers = 8
	}
	if c.Seed == 0 {
		c.Seed = 12345
	}
	return c
}

// Run executes the configured workloads against h and returns the timed
// results plus a final snapshot of the heap's counters. The heap is left
// empty: every workload frees what it allocates.
func Run(h *heap.Heap, cfg Config) (*Report, error) {
	cfg = cfg.withDefaults()

	patterns := cfg.Patterns
	if len(patterns) == 0 {
		patterns = []string{PatternFixed, PatternVariable, PatternRealloc, PatternChurn}
	}

	rep := &Report{Started: time.Now()}
	for _, name := range patterns {
		var fn func(*heap.Heap, Config, *rng) (int, error)
		switch name {
		case PatternFixed:
			fn = runFixed
		case PatternVariable:
			fn = runVariable
		case PatternRealloc:
			fn = runRealloc
		case PatternChurn:
			fn = runChurn
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownPattern, name)
		}

		for it := 1; it <= cfg.Iterations; it++ {
			r := rng(cfg.Seed + uint32(it))
			start := time.Now()
			ops, err := fn(h, cfg, &r)
			if err != nil {
				return nil, fmt.Errorf("bench: %s iteration %d: %w", name, it, err)
			}
			rep.Results = append(rep.Results, Result{
				Pattern:   name,
				Iteration: it,
				Seconds:   time.Since(start).Seconds(),
				Ops:       ops,
			})
		}
	}
	rep.Heap = h.Stats()
	return rep, nil
}

// runFixed allocates a burst of same-sized blocks and releases them all,
// the classic arena fill-and-drain shape.
func runFixed(h *heap.Heap, cfg Config, _ *rng) (int, error) {
	bufs := make([][]byte, cfg.AllocCount)
	for i := range bufs {
		bufs[i] = h.Malloc(cfg.FixedSize)
		if bufs[i] == nil {
			freeAll(h, bufs[:i])
			return 0, ErrAllocationFailed
		}
	}
	freeAll(h, bufs)
	return 2 * cfg.AllocCount, nil
}

func runVariable(h *heap.Heap, cfg Config, r *rng) (int, error) {
	bufs := make([][]byte, cfg.AllocCount)
	for i := range bufs {
		size := int(r.next()%uint32(cfg.MaxSize)) + 1
		bufs[i] = h.Malloc(size)
		if bufs[i] == nil {
			freeAll(h, bufs[:i])
			return 0, ErrAllocationFailed
		}
	}
	freeAll(h, bufs)
	return 2 * cfg.AllocCount, nil
}

// runRealloc resizes a single buffer over and over, alternating between the
// in-place and the relocating paths as sizes bounce around.
func runRealloc(h *heap.Heap, cfg Config, r *rng) (int, error) {
	buf := h.Malloc(cfg.ReallocInitial)
	if buf == nil {
		return 0, ErrAllocationFailed
	}
	for i := 0; i < cfg.AllocCount; i++ {
		size := int(r.next()%uint32(cfg.MaxSize)) + 1
		buf = h.Realloc(buf, size)
		if buf == nil {
			return 0, ErrAllocationFailed
		}
	}
	h.Free(buf)
	return cfg.AllocCount + 2, nil
}

// runChurn has Workers goroutines allocate, touch and free short-lived
// blocks as fast as they can, which is where the heap's single lock earns
// its keep.
func runChurn(h *heap.Heap, cfg Config, _ *rng) (int, error) {
	perWorker := cfg.AllocCount / cfg.Workers
	if perWorker == 0 {
		perWorker = 1
	}

	var failed atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func(seed uint32) {
			defer wg.Done()
			r := rng(seed)
			for i := 0; i < perWorker; i++ {
				size := int(r.next()%uint32(cfg.MaxSize)) + 1
				buf := h.Malloc(size)
				if buf == nil {
					failed.Add(1)
					continue
				}
				buf[0] = byte(size)
				h.Free(buf)
			}
		}(cfg.Seed + uint32(w)*2654435761)
	}
	wg.Wait()

	if n := failed.Load(); n > 0 {
		return 0, fmt.Errorf("%w: %d of %d churn allocations",
			ErrAllocationFailed, n, perWorker*cfg.Workers)
	}
	return 2 * perWorker * cfg.Workers, nil
}

func freeAll(h *heap.Heap, bufs [][]byte) {
	for _, buf := range bufs {
		h.Free(buf)
	}
}
