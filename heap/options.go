package heap

import "log/slog"

// Option configures a Heap at construction time.
type Option func(*Heap)

// WithLogger attaches a structured logger for diagnostic events such as
// region growth, allocation failures, and rejected handles. Logging never
// alters allocator behavior; a nil logger leaves diagnostics off.
func WithLogger(l *slog.Logger) Option {
	return func(h *Heap) { h.logger = l }
}

// WithRegionMapper replaces the source of backing memory. The mapper must
// return a zeroed slice together with a release function; the whole slice
// becomes one region. The default mapper obtains anonymous private
// mappings from the OS. A nil fn keeps the default.
func WithRegionMapper(fn func(size int) ([]byte, func() error, error)) Option {
	return func(h *Heap) {
		if fn != nil {
			h.mapRegion = fn
		}
	}
}
