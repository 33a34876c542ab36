package bench

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/heapkit/heap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Result is one timed iteration of one workload pattern. Ops counts the
// individual heap calls performed, so Ops/Seconds compares across patterns.
type Result struct {
	Pattern   string  `json:"pattern"`
	Iteration int     `json:"iteration"`
	Seconds   float64 `json:"seconds"`
	Ops       int     `json:"ops"`
}

// OpsPerSec is the iteration's throughput in heap calls per second.
func (r Result) OpsPerSec() float64 {
	if r.Seconds <= 0 {
		return 0
	}
	return float64(r.Ops) / r.Seconds
}

// Report is the outcome of a Run: every timed iteration plus the heap's
// counters when the run finished.
type Report struct {
	Started time.Time      `json:"started"`
	Results []Result       `json:"results"`
	Heap    heap.HeapStats `json:"heap"`
}

// Summary aggregates all iterations of one pattern.
type Summary struct {
	Pattern     string
	Iterations  int
	MeanSeconds float64
	OpsPerSec   float64
}

// Summaries folds the per-iteration results into one row per pattern,
// keeping the order patterns first appeared in.
func (rep *Report) Summaries() []Summary {
	var order []string
	secs := map[string]float64{}
	ops := map[string]int{}
	iters := map[string]int{}
	for _, res := range rep.Results {
		if _, seen := iters[res.Pattern]; !seen {
			order = append(order, res.Pattern)
		}
		iters[res.Pattern]++
		secs[res.Pattern] += res.Seconds
		ops[res.Pattern] += res.Ops
	}

	out := make([]Summary, 0, len(order))
	for _, name := range order {
		s := Summary{
			Pattern:     name,
			Iterations:  iters[name],
			MeanSeconds: secs[name] / float64(iters[name]),
		}
		if secs[name] > 0 {
			s.OpsPerSec = float64(ops[name]) / secs[name]
		}
		out = append(out, s)
	}
	return out
}

// WriteCSV emits one row per iteration with a fixed header, ready for
// spreadsheets or further tooling.
func (rep *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"pattern", "iteration", "seconds", "ops"}); err != nil {
		return fmt.Errorf("bench: write csv header: %w", err)
	}
	for _, res := range rep.Results {
		rec := []string{
			res.Pattern,
			strconv.Itoa(res.Iteration),
			strconv.FormatFloat(res.Seconds, 'f', 6, 64),
			strconv.Itoa(res.Ops),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("bench: write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON emits the whole report, heap counters included, as indented
// JSON.
func (rep *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("bench: encode json: %w", err)
	}
	return nil
}

// WriteTable renders the results and their per-pattern summary for human
// eyes, with grouped digits on the large numbers.
func (rep *Report) WriteTable(w io.Writer) error {
	p := message.NewPrinter(language.English)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "PATTERN\tITER\tSECONDS\tOPS\tOPS/S")
	for _, res := range rep.Results {
		p.Fprintf(tw, "%s\t%d\t%.6f\t%d\t%.0f\n",
			res.Pattern, res.Iteration, res.Seconds, res.Ops, res.OpsPerSec())
	}

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "PATTERN\tITERS\tMEAN SECONDS\tOPS/S")
	for _, s := range rep.Summaries() {
		p.Fprintf(tw, "%s\t%d\t%.6f\t%.0f\n",
			s.Pattern, s.Iterations, s.MeanSeconds, s.OpsPerSec)
	}
	return tw.Flush()
}
