package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult represents a parsed benchmark result.
type BenchmarkResult struct {
	Name        string
	Operation   string
	Size        string
	Impl        string // "heapkit" or "runtime"
	Iterations  int
	NsPerOp     float64
	BytesPerOp  int64
	AllocsPerOp int64
}

// ComparisonResult pairs a heapkit benchmark with its runtime baseline of
// the same block size.
type ComparisonResult struct {
	Operation     string
	Size          string
	HeapkitNs     float64
	RuntimeNs     float64
	Speedup       float64
	HeapkitMem    int64
	RuntimeMem    int64
	HeapkitAllocs int64
	RuntimeAllocs int64
	HeapkitOnly   bool
}

var (
	inputFile = flag.String(
		"input",
		"",
		"Input file with benchmark output (stdin if not specified)",
	)
	outputFile = flag.String("output", "", "Output markdown file (stdout if not specified)")
	quiet      = flag.Bool("quiet", false, "Suppress progress output")
)

func main() {
	flag.Parse()

	// Read benchmark output
	var scanner *bufio.Scanner
	var inputF *os.File
	if *inputFile != "" {
		f, err := os.Open(*inputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening input file: %v\n", err)
			os.Exit(1)
		}
		inputF = f
		scanner = bufio.NewScanner(f)
	} else {
		scanner = bufio.NewScanner(os.Stdin)
	}

	results := parseBenchmarks(scanner)

	if !*quiet {
		fmt.Fprintf(os.Stderr, "Parsed %d benchmark results\n", len(results))
	}

	comparisons := generateComparisons(results)

	if !*quiet {
		fmt.Fprintf(os.Stderr, "Generated %d comparisons\n", len(comparisons))
	}

	report := generateMarkdownReport(comparisons)

	// Write output
	if *outputFile != "" {
		err := os.WriteFile(*outputFile, []byte(report), 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			if inputF != nil {
				inputF.Close()
			}
			os.Exit(1)
		}
		if !*quiet {
			fmt.Fprintf(os.Stderr, "Report written to %s\n", *outputFile)
		}
	} else {
		fmt.Fprint(os.Stdout, report)
	}

	if inputF != nil {
		inputF.Close()
	}
}

func parseBenchmarks(scanner *bufio.Scanner) []BenchmarkResult {
	var results []BenchmarkResult

	// Regex to parse benchmark output lines
	// BenchmarkMallocFixed/size_64-8    10000    145.2 ns/op    0 B/op    0 allocs/op
	benchmarkRegex := regexp.MustCompile(
		`^(Benchmark\S+)\s+(\d+)\s+([\d.]+)\s+ns/op(?:\s+([\d.]+)\s+(?:B|MB)/op)?(?:\s+([\d.]+)\s+allocs/op)?`,
	)

	for scanner.Scan() {
		line := scanner.Text()

		// Try to parse as JSON (from -json flag)
		var testEvent map[string]any
		if err := json.Unmarshal([]byte(line), &testEvent); err == nil {
			if output, ok := testEvent["Output"].(string); ok {
				line = output
			}
		}

		matches := benchmarkRegex.FindStringSubmatch(strings.TrimSpace(line))
		if matches == nil {
			continue
		}

		name := matches[1]
		iterations, _ := strconv.Atoi(matches[2])
		nsPerOp, _ := strconv.ParseFloat(matches[3], 64)

		var bytesPerOp int64
		var allocsPerOp int64
		if matches[4] != "" {
			bytesPerOp, _ = strconv.ParseInt(matches[4], 10, 64)
		}
		if matches[5] != "" {
			allocsPerOp, _ = strconv.ParseInt(matches[5], 10, 64)
		}

		// Parse name to extract operation and block size
		// Format: Benchmark<Operation>/size_<bytes>-<procs>
		// Or: Benchmark<Operation>-<procs>
		parts := strings.Split(name, "/")
		operation := strings.TrimPrefix(parts[0], "Benchmark")

		size := ""
		if len(parts) > 1 {
			lastPart := parts[len(parts)-1]
			if dashIdx := strings.LastIndex(lastPart, "-"); dashIdx > 0 {
				lastPart = lastPart[:dashIdx]
			}
			size = strings.TrimPrefix(lastPart, "size_")
		} else if dashIdx := strings.LastIndex(operation, "-"); dashIdx > 0 {
			operation = operation[:dashIdx]
		}

		impl := "heapkit"
		if operation == "RuntimeMake" {
			impl = "runtime"
		}

		results = append(results, BenchmarkResult{
			Name:        name,
			Operation:   operation,
			Size:        size,
			Impl:        impl,
			Iterations:  iterations,
			NsPerOp:     nsPerOp,
			BytesPerOp:  bytesPerOp,
			AllocsPerOp: allocsPerOp,
		})
	}

	return results
}

func generateComparisons(results []BenchmarkResult) []ComparisonResult {
	// Runtime baselines keyed by block size
	baselines := make(map[string]BenchmarkResult)
	for _, result := range results {
		if result.Impl == "runtime" {
			baselines[result.Size] = result
		}
	}

	var comparisons []ComparisonResult
	for _, result := range results {
		if result.Impl != "heapkit" {
			continue
		}

		if base, ok := baselines[result.Size]; ok && result.Size != "" {
			comparisons = append(comparisons, ComparisonResult{
				Operation:     result.Operation,
				Size:          result.Size,
				HeapkitNs:     result.NsPerOp,
				RuntimeNs:     base.NsPerOp,
				Speedup:       base.NsPerOp / result.NsPerOp,
				HeapkitMem:    result.BytesPerOp,
				RuntimeMem:    base.BytesPerOp,
				HeapkitAllocs: result.AllocsPerOp,
				RuntimeAllocs: base.AllocsPerOp,
			})
		} else {
			// No baseline with this shape - report standalone
			comparisons = append(comparisons, ComparisonResult{
				Operation:     result.Operation,
				Size:          result.Size,
				HeapkitNs:     result.NsPerOp,
				HeapkitMem:    result.BytesPerOp,
				HeapkitAllocs: result.AllocsPerOp,
				HeapkitOnly:   true,
			})
		}
	}

	// Sort by operation then numeric block size
	sort.Slice(comparisons, func(i, j int) bool {
		if comparisons[i].Operation != comparisons[j].Operation {
			return comparisons[i].Operation < comparisons[j].Operation
		}
		a, _ := strconv.Atoi(comparisons[i].Size)
		b, _ := strconv.Atoi(comparisons[j].Size)
		return a < b
	})

	return comparisons
}

func generateMarkdownReport(comparisons []ComparisonResult) string {
	var sb strings.Builder

	sb.WriteString("# Allocator Benchmark Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05")))

	// Summary statistics
	heapkitFaster := 0
	runtimeFaster := 0
	heapkitOnly := 0
	totalSpeedup := 0.0

	for _, comp := range comparisons {
		if comp.HeapkitOnly {
			heapkitOnly++
		} else {
			if comp.Speedup > 1.0 {
				heapkitFaster++
			} else if comp.Speedup < 1.0 {
				runtimeFaster++
			}
			totalSpeedup += comp.Speedup
		}
	}

	comparableCount := len(comparisons) - heapkitOnly
	avgSpeedup := 0.0
	if comparableCount > 0 {
		avgSpeedup = totalSpeedup / float64(comparableCount)
	}

	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Total benchmarks**: %d\n", len(comparisons)))
	sb.WriteString(fmt.Sprintf("- **Comparable** (runtime baseline exists): %d\n", comparableCount))
	if comparableCount > 0 {
		sb.WriteString(
			fmt.Sprintf(
				"  - heapkit faster: %d (%.1f%%)\n",
				heapkitFaster,
				float64(heapkitFaster)/float64(comparableCount)*100,
			),
		)
		sb.WriteString(
			fmt.Sprintf(
				"  - runtime faster: %d (%.1f%%)\n",
				runtimeFaster,
				float64(runtimeFaster)/float64(comparableCount)*100,
			),
		)
		sb.WriteString(fmt.Sprintf("  - Average ratio: **%.2fx**\n", avgSpeedup))
	}
	sb.WriteString(fmt.Sprintf("- **heapkit-only workloads**: %d\n", heapkitOnly))
	sb.WriteString("\n")

	// Detailed results table
	sb.WriteString("## Detailed Results\n\n")
	sb.WriteString(
		"| Operation | Size | heapkit (ns/op) | runtime (ns/op) | Ratio | Memory (B/op) | Allocs |\n",
	)
	sb.WriteString(
		"|-----------|------|-----------------|-----------------|-------|---------------|--------|\n",
	)

	for _, comp := range comparisons {
		if comp.HeapkitOnly {
			size := comp.Size
			if size == "" {
				size = "mixed"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | *N/A* | *no baseline* | %s | %s |\n",
				comp.Operation,
				size,
				formatNumber(comp.HeapkitNs),
				formatBytes(comp.HeapkitMem),
				formatNumber(float64(comp.HeapkitAllocs)),
			))
		} else {
			indicator := "✓"
			speedupStyle := "**"
			if comp.Speedup < 1.0 {
				indicator = "✗"
				speedupStyle = ""
			}

			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s%.2fx%s %s | %s vs %s | %s vs %s |\n",
				comp.Operation,
				comp.Size,
				formatNumber(comp.HeapkitNs),
				formatNumber(comp.RuntimeNs),
				speedupStyle,
				comp.Speedup,
				speedupStyle,
				indicator,
				formatBytes(comp.HeapkitMem),
				formatBytes(comp.RuntimeMem),
				formatNumber(float64(comp.HeapkitAllocs)),
				formatNumber(float64(comp.RuntimeAllocs)),
			))
		}
	}

	sb.WriteString("\n")

	// Notes
	sb.WriteString("## Notes\n\n")
	sb.WriteString("- **Ratio > 1.0**: heapkit is faster ✓\n")
	sb.WriteString("- **Ratio < 1.0**: the Go runtime is faster ✗\n")
	sb.WriteString("- **Memory comparison**: steady-state heapkit loops should report 0 B/op\n")
	sb.WriteString("- **no baseline**: workload shapes with no runtime equivalent\n")

	return sb.String()
}

func formatNumber(n float64) string {
	if n >= 1000000 {
		return fmt.Sprintf("%.2fM", n/1000000)
	} else if n >= 1000 {
		return fmt.Sprintf("%.1fK", n/1000)
	}
	return fmt.Sprintf("%.0f", n)
}

func formatBytes(b int64) string {
	if b >= 1024*1024 {
		return fmt.Sprintf("%.2fMB", float64(b)/(1024*1024))
	} else if b >= 1024 {
		return fmt.Sprintf("%.1fKB", float64(b)/1024)
	}
	return fmt.Sprintf("%dB", b)
}
