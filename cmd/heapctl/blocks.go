package main

import (
	"fmt"
	"os"

	"github.com/joshuapare/heapkit/heap"
	"github.com/spf13/cobra"
)

var (
	blocksCount   int
	blocksSize    int
	blocksFreeNth int
)

var blocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "Dump the block layout of a sample workload",
	Long: `The blocks command allocates a batch of blocks, punches holes into
the batch, and dumps the resulting block-by-block layout. Useful for seeing
how splitting and coalescing shape the address space.

Example:
  heapctl blocks
  heapctl blocks --count 24 --size 512 --free-every 3
  heapctl blocks --json`,
	RunE: runBlocks,
}

func init() {
	blocksCmd.Flags().IntVar(&blocksCount, "count", 12, "Blocks to allocate")
	blocksCmd.Flags().IntVar(&blocksSize, "size", 256, "Size of each block")
	blocksCmd.Flags().IntVar(&blocksFreeNth, "free-every", 2,
		"Free every Nth block to punch holes (0 keeps all)")
	rootCmd.AddCommand(blocksCmd)
}

func runBlocks(cmd *cobra.Command, args []string) error {
	h := heap.New()
	defer h.Close()

	bufs := make([][]byte, blocksCount)
	for i := range bufs {
		bufs[i] = h.Malloc(blocksSize)
		if bufs[i] == nil {
			return fmt.Errorf("allocation %d failed", i)
		}
	}

	if blocksFreeNth > 0 {
		for i := 0; i < len(bufs); i += blocksFreeNth {
			h.Free(bufs[i])
		}
		// Small follow-up allocations land in the holes and show splits.
		if small := blocksSize / 4; small >= heap.Alignment {
			for i := 0; i < blocksCount/blocksFreeNth; i++ {
				h.Malloc(small)
			}
		}
	}

	printVerbose("Dumping %d block(s)\n", len(collectLayout(h)))

	if jsonOut {
		return printJSON(collectLayout(h))
	}
	return h.DumpTo(os.Stdout)
}

func collectLayout(h *heap.Heap) []heap.BlockInfo {
	var blocks []heap.BlockInfo
	h.Walk(func(b heap.BlockInfo) bool {
		blocks = append(blocks, b)
		return true
	})
	return blocks
}
