package scheduler

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ChunkingConfig controls how the distributor splits a window's player
// list when generation takes the parallel path.
type ChunkingConfig struct {
	// MinChunkSize is the smallest chunk the distributor will build.
	// Rounded up to a multiple of the foursome capacity.
	MinChunkSize int `yaml:"minChunkSize"`

	// MaxChunkSize caps chunk growth for very large weeks.
	// Rounded up to a multiple of the foursome capacity.
	MaxChunkSize int `yaml:"maxChunkSize"`

	// TargetChunks drives adaptive sizing: chunk size approximates
	// total player count / TargetChunks before clamping.
	TargetChunks int `yaml:"targetChunks"`

	// MaxConcurrency caps in-flight chunk submissions independently of
	// the pool's worker count.
	MaxConcurrency int `yaml:"maxConcurrency"`
}

// KVBucketConfig configures NATS JetStream KV bucket names.
type KVBucketConfig struct {
	// SchedulesBucket holds schedule documents keyed by week.
	SchedulesBucket string `yaml:"schedulesBucket"`

	// LocksBucket holds advisory lock leases keyed by week.
	LocksBucket string `yaml:"locksBucket"`

	// StatusBucket holds per-week status records.
	StatusBucket string `yaml:"statusBucket"`

	// HistoryBucket holds pairing co-occurrence counts.
	HistoryBucket string `yaml:"historyBucket"`

	// OperationsBucket holds durable availability-operation records.
	OperationsBucket string `yaml:"operationsBucket"`
}

// Config is the configuration for the Manager.
//
// All duration fields accept standard Go duration strings like "30s", "5m".
type Config struct {
	// PoolSize is the worker count for parallel grouping.
	// Zero selects clamp(GOMAXPROCS, 2, 8).
	PoolSize int `yaml:"poolSize"`

	// ProbeTimeout bounds the liveness probe each worker must answer
	// before joining the pool. Recommended: 2 seconds.
	ProbeTimeout time.Duration `yaml:"probeTimeout"`

	// TaskTimeout is the per-chunk task timeout on the parallel path.
	// Recommended: 30 seconds.
	TaskTimeout time.Duration `yaml:"taskTimeout"`

	// ParallelThreshold is the minimum available player count that
	// routes generation through the worker pool. Weeks below it run the
	// grouping heuristic in-process. Zero disables the parallel path.
	ParallelThreshold int `yaml:"parallelThreshold"`

	// FallbackSequential retries in-process when the parallel path fails
	// with a worker-category error (crash, timeout, terminated pool).
	// Validation failures never trigger fallback.
	FallbackSequential bool `yaml:"fallbackSequential"`

	// LockTimeout is the schedule lock lease duration. An expired lease
	// is treated as abandoned and purged lazily on the next acquire.
	// Recommended: 30 seconds.
	LockTimeout time.Duration `yaml:"lockTimeout"`

	// OperationTimeout bounds KV operations during startup.
	// Recommended: 10 seconds.
	OperationTimeout time.Duration `yaml:"operationTimeout"`

	// Chunking controls the distributor's chunk sizing and concurrency.
	Chunking ChunkingConfig `yaml:"chunking"`

	// KVBuckets controls NATS JetStream KV bucket names.
	KVBuckets KVBucketConfig `yaml:"kvBuckets"`
}

// DefaultConfig returns a Config with sensible defaults.
//
// Returns:
//   - Config: Configuration with default values
func DefaultConfig() Config {
	return Config{
		PoolSize:           0, // clamp(GOMAXPROCS, 2, 8)
		ProbeTimeout:       2 * time.Second,
		TaskTimeout:        30 * time.Second,
		ParallelThreshold:  32,
		FallbackSequential: true,
		LockTimeout:        30 * time.Second,
		OperationTimeout:   10 * time.Second,
		Chunking: ChunkingConfig{
			MinChunkSize:   8,
			MaxChunkSize:   40,
			TargetChunks:   8,
			MaxConcurrency: 4,
		},
		KVBuckets: KVBucketConfig{
			SchedulesBucket:  "golf-schedules",
			LocksBucket:      "golf-schedule-locks",
			StatusBucket:     "golf-schedule-status",
			HistoryBucket:    "golf-pairing-history",
			OperationsBucket: "golf-operations",
		},
	}
}

// SetDefaults fills in missing configuration values with production defaults.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = defaults.ProbeTimeout
	}
	if cfg.TaskTimeout == 0 {
		cfg.TaskTimeout = defaults.TaskTimeout
	}
	if cfg.LockTimeout == 0 {
		cfg.LockTimeout = defaults.LockTimeout
	}
	if cfg.OperationTimeout == 0 {
		cfg.OperationTimeout = defaults.OperationTimeout
	}
	if cfg.Chunking.MinChunkSize == 0 {
		cfg.Chunking.MinChunkSize = defaults.Chunking.MinChunkSize
	}
	if cfg.Chunking.MaxChunkSize == 0 {
		cfg.Chunking.MaxChunkSize = defaults.Chunking.MaxChunkSize
	}
	if cfg.Chunking.TargetChunks == 0 {
		cfg.Chunking.TargetChunks = defaults.Chunking.TargetChunks
	}
	if cfg.Chunking.MaxConcurrency == 0 {
		cfg.Chunking.MaxConcurrency = defaults.Chunking.MaxConcurrency
	}
	if cfg.KVBuckets.SchedulesBucket == "" {
		cfg.KVBuckets.SchedulesBucket = defaults.KVBuckets.SchedulesBucket
	}
	if cfg.KVBuckets.LocksBucket == "" {
		cfg.KVBuckets.LocksBucket = defaults.KVBuckets.LocksBucket
	}
	if cfg.KVBuckets.StatusBucket == "" {
		cfg.KVBuckets.StatusBucket = defaults.KVBuckets.StatusBucket
	}
	if cfg.KVBuckets.HistoryBucket == "" {
		cfg.KVBuckets.HistoryBucket = defaults.KVBuckets.HistoryBucket
	}
	if cfg.KVBuckets.OperationsBucket == "" {
		cfg.KVBuckets.OperationsBucket = defaults.KVBuckets.OperationsBucket
	}
	// Note: ParallelThreshold of 0 is valid (parallel path disabled), so
	// no default is applied; use DefaultConfig() for the recommended value.
}

// Validate checks configuration constraints.
//
// Rules:
//   - PoolSize >= 0 (0 means auto-sized)
//   - ParallelThreshold >= 0 (0 disables the parallel path)
//   - LockTimeout > 0
//   - MinChunkSize <= MaxChunkSize
//   - MaxConcurrency > 0
//
// Returns:
//   - error: Validation error with a clear explanation, nil if valid
func (cfg *Config) Validate() error {
	if cfg.PoolSize < 0 {
		return fmt.Errorf("PoolSize must be >= 0, got %d", cfg.PoolSize)
	}
	if cfg.ParallelThreshold < 0 {
		return fmt.Errorf("ParallelThreshold must be >= 0, got %d", cfg.ParallelThreshold)
	}
	if cfg.LockTimeout <= 0 {
		return fmt.Errorf("LockTimeout must be > 0, got %v", cfg.LockTimeout)
	}
	if cfg.Chunking.MinChunkSize > cfg.Chunking.MaxChunkSize {
		return fmt.Errorf(
			"MinChunkSize (%d) must be <= MaxChunkSize (%d)",
			cfg.Chunking.MinChunkSize, cfg.Chunking.MaxChunkSize,
		)
	}
	if cfg.Chunking.MaxConcurrency <= 0 {
		return fmt.Errorf("MaxConcurrency must be > 0, got %d", cfg.Chunking.MaxConcurrency)
	}

	return nil
}

// LoadConfig reads a YAML configuration file and applies defaults.
//
// Parameters:
//   - path: Path to the YAML file
//
// Returns:
//   - Config: Parsed configuration with defaults filled in
//   - error: Read, parse, or validation error
//
// Example:
//
//	cfg, err := scheduler.LoadConfig("scheduler.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	SetDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return cfg, nil
}

// TestConfig returns a configuration optimized for fast test execution.
//
// Lock and task timings are much shorter than production defaults, and
// the parallel threshold is low enough that modest fixtures exercise the
// worker pool path. Use DefaultConfig() for production deployments.
//
// Returns:
//   - Config: Configuration with fast timings for tests
//
// Example:
//
//	cfg := scheduler.TestConfig()
//	mgr, err := scheduler.NewManager(&cfg, nc, src, avail)
func TestConfig() Config {
	cfg := DefaultConfig()

	cfg.PoolSize = 2
	cfg.ProbeTimeout = 500 * time.Millisecond
	cfg.TaskTimeout = 5 * time.Second
	cfg.ParallelThreshold = 16
	cfg.LockTimeout = 2 * time.Second
	cfg.OperationTimeout = 5 * time.Second
	cfg.Chunking.TargetChunks = 4

	return cfg
}
