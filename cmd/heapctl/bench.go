package main

import (
	"fmt"
	"os"

	"github.com/joshuapare/heapkit/bench"
	"github.com/joshuapare/heapkit/heap"
	"github.com/spf13/cobra"
)

var (
	benchIterations int
	benchCount      int
	benchFixedSize  int
	benchMaxSize    int
	benchWorkers    int
	benchSeed       uint32
	benchPatterns   []string
	benchCSVPath    string
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run timed allocation workloads",
	Long: `The bench command runs the built-in allocation workloads against a
fresh allocator and reports per-iteration timings.

Patterns:
  fixed      bursts of same-sized blocks
  variable   bursts of random-sized blocks
  realloc    a single buffer resized repeatedly
  churn      concurrent allocate/free cycles

Example:
  heapctl bench
  heapctl bench --pattern churn --workers 16
  heapctl bench --csv results.csv
  heapctl bench --json`,
	RunE: runBench,
}

func init() {
	benchCmd.Flags().IntVar(&benchIterations, "iterations", 5, "Iterations per pattern")
	benchCmd.Flags().IntVar(&benchCount, "count", 10000, "Blocks handled per iteration")
	benchCmd.Flags().IntVar(&benchFixedSize, "fixed-size", 64, "Block size of the fixed pattern")
	benchCmd.Flags().IntVar(&benchMaxSize, "max-size", 1024, "Largest random block size")
	benchCmd.Flags().IntVar(&benchWorkers, "workers", 8, "Goroutines of the churn pattern")
	benchCmd.Flags().Uint32Var(&benchSeed, "seed", 12345, "Size generator seed")
	benchCmd.Flags().StringSliceVar(&benchPatterns, "pattern", nil, "Patterns to run (default all)")
	benchCmd.Flags().StringVar(&benchCSVPath, "csv", "", "Write per-iteration results to a CSV file")

	rootCmd.AddCommand(benchCmd)
}

func runBench(cmd *cobra.Command, args []string) error {
	h := heap.New()
	defer h.Close()

	cfg := bench.Config{
		Iterations: benchIterations,
		AllocCount: benchCount,
		FixedSize:  benchFixedSize,
		MaxSize:    benchMaxSize,
		Workers:    benchWorkers,
		Seed:       benchSeed,
		Patterns:   benchPatterns,
	}

	printVerbose("Running %d iteration(s) of %d allocation(s) each\n",
		benchIterations, benchCount)

	rep, err := bench.Run(h, cfg)
	if err != nil {
		return err
	}

	if benchCSVPath != "" {
		f, err := os.Create(benchCSVPath)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", benchCSVPath, err)
		}
		defer f.Close()
		if err := rep.WriteCSV(f); err != nil {
			return err
		}
		printInfo("Wrote %d result(s) to %s\n", len(rep.Results), benchCSVPath)
		return nil
	}

	if jsonOut {
		return rep.WriteJSON(os.Stdout)
	}
	return rep.WriteTable(os.Stdout)
}
