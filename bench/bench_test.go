package bench

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap"
)

func newBenchHeap(t *testing.T) *heap.Heap {
	t.Helper()
	h := heap.New()
	t.Cleanup(func() { require.NoError(t, h.Close()) })
	return h
}

// smallConfig keeps test runs quick while still touching every code path.
func smallConfig() Config {
	return Config{
		Iterations: 2,
		AllocCount: 200,
		Workers:    4,
	}
}

func TestRunAllPatterns(t *testing.T) {
	h := newBenchHeap(t)

	rep, err := Run(h, smallConfig())
	require.NoError(t, err)
	require.Len(t, rep.Results, 8, "four patterns, two iterations each")

	wantOrder := []string{
		PatternFixed, PatternFixed,
		PatternVariable, PatternVariable,
		PatternRealloc, PatternRealloc,
		PatternChurn, PatternChurn,
	}
	for i, res := range rep.Results {
		assert.Equal(t, wantOrder[i], res.Pattern, "result %d", i)
		assert.Equal(t, i%2+1, res.Iteration, "result %d", i)
		assert.Positive(t, res.Ops, "result %d should count its heap calls", i)
		assert.GreaterOrEqual(t, res.Seconds, 0.0, "result %d", i)
	}

	assert.Zero(t, rep.Heap.AllocatedBytes, "workloads must free everything")
	assert.False(t, rep.Started.IsZero())
}

func TestRunLeavesHeapConsistent(t *testing.T) {
	h := newBenchHeap(t)

	_, err := Run(h, smallConfig())
	require.NoError(t, err)

	require.NoError(t, h.CheckIntegrity())
	s := h.Stats()
	assert.Zero(t, s.AllocatedBytes)
	assert.Zero(t, s.InvalidHandles)
	assert.Zero(t, s.FailedAllocs)
}

func TestRunSelectedPattern(t *testing.T) {
	h := newBenchHeap(t)

	cfg := smallConfig()
	cfg.Iterations = 1
	cfg.Patterns = []string{PatternRealloc}

	rep, err := Run(h, cfg)
	require.NoError(t, err)
	require.Len(t, rep.Results, 1)
	assert.Equal(t, PatternRealloc, rep.Results[0].Pattern)
	assert.Equal(t, cfg.AllocCount+2, rep.Results[0].Ops,
		"one malloc, AllocCount resizes, one free")
}

func TestRunUnknownPattern(t *testing.T) {
	h := newBenchHeap(t)

	cfg := smallConfig()
	cfg.Patterns = []string{"bogus"}

	_, err := Run(h, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownPattern)
	assert.Contains(t, err.Error(), "bogus")
}

func TestRunReportsAllocationFailure(t *testing.T) {
	mapper := func(int) ([]byte, func() error, error) {
		return nil, nil, errors.New("mapper: out of memory")
	}
	h := heap.New(heap.WithRegionMapper(mapper))
	t.Cleanup(func() { require.NoError(t, h.Close()) })

	cfg := smallConfig()
	cfg.Patterns = []string{PatternFixed}

	_, err := Run(h, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllocationFailed)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()

	assert.Equal(t, 5, cfg.Iterations)
	assert.Equal(t, 10000, cfg.AllocCount)
	assert.Equal(t, 64, cfg.FixedSize)
	assert.Equal(t, 1024, cfg.MaxSize)
	assert.Equal(t, 128, cfg.ReallocInitial)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, uint32(12345), cfg.Seed)

	// Explicit values survive untouched.
	cfg = Config{Iterations: 3, MaxSize: 256}.withDefaults()
	assert.Equal(t, 3, cfg.Iterations)
	assert.Equal(t, 256, cfg.MaxSize)
}

func TestRngDeterminism(t *testing.T) {
	a := rng(42)
	b := rng(42)
	for i := 0; i < 10; i++ {
		require.Equal(t, a.next(), b.next(), "draw %d should match for equal seeds", i)
	}

	c := rng(42)
	d := rng(43)
	var diverged bool
	for i := 0; i < 10; i++ {
		if c.next() != d.next() {
			diverged = true
			break
		}
	}
	assert.True(t, diverged, "different seeds should produce different streams")
}
