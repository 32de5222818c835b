package rangehnsw

import (
	"log/slog"
	"time"
)

// defaultInsertionParallelCutoff is the node size at or above which a single
// graph build splits its insert loop across idle workers.
const defaultInsertionParallelCutoff = 4096

type options struct {
	logger                  *Logger
	metricsCollector        MetricsCollector
	heuristic               bool
	randomSeed              int64
	randomSeedSet           bool
	insertionParallelCutoff int
}

// Option configures Build behavior.
type Option func(*options)

// WithLogger configures structured logging for build and query operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithRandomSeed fixes the seed for per-graph layer assignment RNGs.
// Combined with WorkerCount=1 this makes builds bit-reproducible.
func WithRandomSeed(seed int64) Option {
	return func(o *options) {
		o.randomSeed = seed
		o.randomSeedSet = true
	}
}

// WithHeuristicSelection toggles the diversity-preserving neighbor
// selection heuristic. It is on by default; turning it off falls back to
// plain nearest-M selection.
func WithHeuristicSelection(enabled bool) Option {
	return func(o *options) {
		o.heuristic = enabled
	}
}

// WithInsertionParallelCutoff sets the node size at which a graph build
// switches from a single worker to insertion-parallel batches. Values < 1
// restore the default.
func WithInsertionParallelCutoff(size int) Option {
	return func(o *options) {
		if size < 1 {
			size = defaultInsertionParallelCutoff
		}
		o.insertionParallelCutoff = size
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:                  NoopLogger(),
		metricsCollector:        NoopMetricsCollector{},
		heuristic:               true,
		insertionParallelCutoff: defaultInsertionParallelCutoff,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if !o.randomSeedSet {
		o.randomSeed = time.Now().UnixNano()
	}
	return o
}
