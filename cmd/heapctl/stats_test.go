package main

import (
	"testing"
)

func TestStatsCommand(t *testing.T) {
	tests := []struct {
		name        string
		count       int
		json        bool
		wantContain []string
	}{
		{
			name:  "text output",
			count: 60,
			wantContain: []string{
				"Allocator Statistics",
				"Mapped:",
				"Malloc: 60",
				"Splits:",
			},
		},
		{
			name:        "json output",
			count:       60,
			json:        true,
			wantContain: []string{`"MallocCalls": 60`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			statsCount = tt.count
			jsonOut = tt.json
			quiet = false
			defer func() { jsonOut = false }()

			out, err := captureOutput(t, func() error {
				return runStats(statsCmd, nil)
			})
			if err != nil {
				t.Fatalf("runStats failed: %v", err)
			}
			if tt.json {
				assertJSON(t, out)
			}
			assertContains(t, out, tt.wantContain)
		})
	}
}
