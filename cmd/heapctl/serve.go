package main

import (
	"encoding/json"
	"time"

	"github.com/joshuapare/heapkit/heap"
	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
)

var (
	serveAddr  string
	serveChurn bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve live allocator state over HTTP",
	Long: `The serve command starts an HTTP endpoint exposing allocator state:

  GET /stats    allocator counters as JSON
  GET /blocks   block-by-block layout as text
  GET /healthz  liveness probe

With --churn a background workload keeps the allocator busy, so the numbers
move while you watch.

Example:
  heapctl serve --addr :8080 --churn
  curl localhost:8080/stats`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().BoolVar(&serveChurn, "churn", false, "Run a background workload")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	h := heap.New()
	defer h.Close()

	if serveChurn {
		go churnLoop(h)
		printVerbose("Background churn enabled\n")
	}

	handler := func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/stats":
			body, err := json.MarshalIndent(h.Stats(), "", "  ")
			if err != nil {
				ctx.Error("encode failed", fasthttp.StatusInternalServerError)
				return
			}
			ctx.SetContentType("application/json")
			ctx.SetBody(body)
		case "/blocks":
			ctx.SetContentType("text/plain; charset=utf-8")
			if err := h.DumpTo(ctx); err != nil {
				ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
			}
		case "/healthz":
			ctx.SetContentType("text/plain")
			ctx.SetBodyString("ok\n")
		default:
			ctx.Error("not found", fasthttp.StatusNotFound)
		}
	}

	printInfo("Serving allocator state on %s\n", serveAddr)
	return fasthttp.ListenAndServe(serveAddr, handler)
}

// churnLoop keeps a rolling window of live blocks so scrapes see the
// counters and the layout change over time.
func churnLoop(h *heap.Heap) {
	sizes := []int{64, 256, 1024, 128}
	var live [][]byte
	for i := 0; ; i++ {
		if buf := h.Malloc(sizes[i%len(sizes)]); buf != nil {
			live = append(live, buf)
		}
		if len(live) > 64 {
			h.Free(live[0])
			live = live[1:]
		}
		time.Sleep(10 * time.Millisecond)
	}
}
