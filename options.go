package scheduler

// Option configures a Manager with optional dependencies.
type Option func(*managerOptions)

// managerOptions holds optional Manager configuration.
type managerOptions struct {
	strategy GroupingStrategy
	history  PairingHistory
	metrics  MetricsCollector
	logger   Logger
	progress ProgressFunc
}

// ProgressFunc receives generation progress as completed chunk weight
// over total weight while a week is being scheduled on the parallel path.
type ProgressFunc func(completed, total int)

// WithStrategy sets a custom grouping strategy.
//
// Parameters:
//   - s: GroupingStrategy implementation
//
// Returns:
//   - Option: Functional option for NewManager
//
// Example:
//
//	mgr, err := scheduler.NewManager(&cfg, nc, src, avail,
//	    scheduler.WithStrategy(strategy.NewSequential()))
func WithStrategy(s GroupingStrategy) Option {
	return func(o *managerOptions) {
		o.strategy = s
	}
}

// WithHistory sets a custom pairing history.
//
// Without this option the manager backs pairing history onto its own
// KV bucket; pass history.NewMemory() for single-process leagues and
// tests that should not persist counts.
//
// Parameters:
//   - h: PairingHistory implementation
//
// Returns:
//   - Option: Functional option for NewManager
func WithHistory(h PairingHistory) Option {
	return func(o *managerOptions) {
		o.history = h
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for NewManager
//
// Example:
//
//	mgr, err := scheduler.NewManager(&cfg, nc, src, avail, scheduler.WithMetrics(myCollector))
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *managerOptions) {
		o.metrics = metrics
	}
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation (slog-compatible key/value pairs)
//
// Returns:
//   - Option: Functional option for NewManager
//
// Example:
//
//	mgr, err := scheduler.NewManager(&cfg, nc, src, avail, scheduler.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(o *managerOptions) {
		o.logger = logger
	}
}

// WithProgress sets a progress callback for parallel generation.
//
// The callback fires once per completed chunk with cumulative completed
// weight and total weight. It may be called from multiple goroutines.
//
// Parameters:
//   - fn: Progress callback
//
// Returns:
//   - Option: Functional option for NewManager
func WithProgress(fn ProgressFunc) Option {
	return func(o *managerOptions) {
		o.progress = fn
	}
}
