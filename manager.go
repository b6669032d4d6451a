package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rservant/indoor-golf-scheduler-sub006/history"
	"github.com/rservant/indoor-golf-scheduler-sub006/internal/distribute"
	"github.com/rservant/indoor-golf-scheduler-sub006/internal/engine"
	"github.com/rservant/indoor-golf-scheduler-sub006/internal/kvutil"
	"github.com/rservant/indoor-golf-scheduler-sub006/internal/logging"
	"github.com/rservant/indoor-golf-scheduler-sub006/internal/metrics"
	"github.com/rservant/indoor-golf-scheduler-sub006/internal/oplog"
	"github.com/rservant/indoor-golf-scheduler-sub006/internal/pool"
	"github.com/rservant/indoor-golf-scheduler-sub006/internal/schedstore"
	"github.com/rservant/indoor-golf-scheduler-sub006/strategy"
)

// PoolStats is a snapshot of the worker pool's counters.
type PoolStats struct {
	// Queued is the number of tasks waiting for a worker.
	Queued int64

	// Active is the number of tasks currently executing.
	Active int64

	// Idle is the number of workers waiting for a task.
	Idle int

	// Workers is the current registered worker count.
	Workers int

	// Completed and Failed are lifetime task counters.
	Completed int64
	Failed    int64

	// AvgTaskDuration is the rolling average over completed tasks.
	AvgTaskDuration time.Duration
}

// Manager is the public entry point: it wires the assignment engine,
// worker pool, task distributor, schedule store, and operation
// interruption manager over one NATS connection.
//
// Thread safety: all public methods are safe for concurrent use.
// Ordering: availability mutations on the same week (and, for
// individual mutations, the same player) observe program order;
// disjoint keys proceed concurrently.
//
// Lifecycle:
//   - Create with NewManager()
//   - Call Start() to create buckets, spin up workers, and recover any
//     operations interrupted by a prior process lifetime
//   - Call Stop() for graceful shutdown
type Manager struct {
	cfg    Config
	conn   *nats.Conn
	source PlayerSource
	avail  AvailabilityStore

	// Optional dependencies
	strategy GroupingStrategy
	history  PairingHistory
	metrics  MetricsCollector
	logger   Logger
	progress ProgressFunc

	// Internal components, live between Start and Stop
	engine *engine.Engine
	pool   *pool.Pool
	dist   *distribute.Distributor
	store  *schedstore.Store
	ops    *oplog.Manager

	mu      sync.Mutex
	started bool
}

// NewManager creates a Manager instance with the provided configuration.
//
// Returns a concrete *Manager following the "accept interfaces, return
// structs" principle; consumers can define their own narrow interfaces
// for testing.
//
// Parameters:
//   - cfg: Runtime configuration with parsed durations
//   - conn: NATS connection; buckets are created on Start
//   - source: Player and availability read access
//   - avail: Availability store mutated by the operation manager
//   - opts: Optional configuration (strategy, history, metrics, logger)
//
// Returns:
//   - *Manager: Initialized manager instance
//   - error: Validation error if configuration or dependencies are invalid
//
// Example:
//
//	cfg := scheduler.DefaultConfig()
//	src := source.NewStatic(roster)
//	mgr, err := scheduler.NewManager(&cfg, natsConn, src, src)
func NewManager(cfg *Config, conn *nats.Conn, source PlayerSource, avail AvailabilityStore, opts ...Option) (*Manager, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if conn == nil {
		return nil, ErrNATSConnectionRequired
	}
	if source == nil {
		return nil, ErrPlayerSourceRequired
	}
	if avail == nil {
		return nil, ErrAvailabilityStoreRequired
	}

	SetDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	options := &managerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	metricsCollector := options.metrics
	if metricsCollector == nil {
		metricsCollector = metrics.NewNop()
	}

	loggerInstance := options.logger
	if loggerInstance == nil {
		loggerInstance = logging.NewNop()
	}

	groupStrategy := options.strategy
	if groupStrategy == nil {
		groupStrategy = strategy.NewPairingAware()
	}

	return &Manager{
		cfg:      *cfg,
		conn:     conn,
		source:   source,
		avail:    avail,
		strategy: groupStrategy,
		history:  options.history,
		metrics:  metricsCollector,
		logger:   loggerInstance,
		progress: options.progress,
	}, nil
}

// Start creates the KV buckets, initializes the worker pool, and
// recovers operations interrupted by a prior process lifetime.
//
// Parameters:
//   - ctx: Context for startup; OperationTimeout bounds each KV call
//
// Returns:
//   - error: Startup error; the manager is unusable after a failed Start
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return ErrAlreadyStarted
	}

	js, err := jetstream.New(m.conn)
	if err != nil {
		return fmt.Errorf("create jetstream context: %w", err)
	}

	bucketCtx, cancel := context.WithTimeout(ctx, m.cfg.OperationTimeout)
	defer cancel()

	schedulesKV, err := kvutil.EnsureBucket(bucketCtx, js, jetstream.KeyValueConfig{Bucket: m.cfg.KVBuckets.SchedulesBucket}, 3)
	if err != nil {
		return fmt.Errorf("create schedules bucket: %w", err)
	}
	locksKV, err := kvutil.EnsureBucket(bucketCtx, js, jetstream.KeyValueConfig{Bucket: m.cfg.KVBuckets.LocksBucket}, 3)
	if err != nil {
		return fmt.Errorf("create locks bucket: %w", err)
	}
	statusKV, err := kvutil.EnsureBucket(bucketCtx, js, jetstream.KeyValueConfig{Bucket: m.cfg.KVBuckets.StatusBucket}, 3)
	if err != nil {
		return fmt.Errorf("create status bucket: %w", err)
	}
	opsKV, err := kvutil.EnsureBucket(bucketCtx, js, jetstream.KeyValueConfig{Bucket: m.cfg.KVBuckets.OperationsBucket}, 3)
	if err != nil {
		return fmt.Errorf("create operations bucket: %w", err)
	}

	if m.history == nil {
		historyKV, err := kvutil.EnsureBucket(bucketCtx, js, jetstream.KeyValueConfig{Bucket: m.cfg.KVBuckets.HistoryBucket}, 3)
		if err != nil {
			return fmt.Errorf("create history bucket: %w", err)
		}
		m.history = history.NewKV(historyKV, m.logger)
	}

	m.store, err = schedstore.New(schedstore.Config{
		Schedules:   schedulesKV,
		Locks:       locksKV,
		Status:      statusKV,
		LockTimeout: m.cfg.LockTimeout,
		Logger:      m.logger,
		Metrics:     m.metrics,
	})
	if err != nil {
		return err
	}

	m.ops, err = oplog.New(oplog.Config{
		Records: opsKV,
		Store:   m.avail,
		Logger:  m.logger,
	})
	if err != nil {
		return err
	}

	m.pool, err = pool.New(pool.Config{
		Size:               m.cfg.PoolSize,
		ProbeTimeout:       m.cfg.ProbeTimeout,
		DefaultTaskTimeout: m.cfg.TaskTimeout,
		Strategy:           m.strategy,
		History:            m.history,
		Logger:             m.logger,
		Metrics:            m.metrics,
	})
	if err != nil {
		return err
	}
	if err := m.pool.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize worker pool: %w", err)
	}

	m.dist = distribute.New(m.pool, distribute.Options{
		MinChunkSize:   m.cfg.Chunking.MinChunkSize,
		MaxChunkSize:   m.cfg.Chunking.MaxChunkSize,
		TargetChunks:   m.cfg.Chunking.TargetChunks,
		MaxConcurrency: m.cfg.Chunking.MaxConcurrency,
		TaskTimeout:    m.cfg.TaskTimeout,
		Progress:       distribute.ProgressFunc(m.progress),
		Logger:         m.logger,
		Metrics:        m.metrics,
	})

	m.engine = engine.New(engine.Config{
		Strategy:           m.strategy,
		History:            m.history,
		Parallel:           m.dist.Distribute,
		ParallelThreshold:  m.cfg.ParallelThreshold,
		FallbackSequential: m.cfg.FallbackSequential,
		Logger:             m.logger,
	})

	// Converge any operations a previous process left pending before
	// accepting new mutations.
	recovered, err := m.ops.DetectInterruptions(ctx)
	if err != nil {
		m.pool.Terminate()
		return fmt.Errorf("recover interrupted operations: %w", err)
	}
	if len(recovered) > 0 {
		m.logger.Info("interrupted operations recovered on startup", "count", len(recovered))
	}

	m.started = true
	m.logger.Info("scheduler manager started",
		"pool_size", m.pool.Size(),
		"parallel_threshold", m.cfg.ParallelThreshold,
	)

	return nil
}

// Stop shuts the manager down, terminating the worker pool.
//
// Pending and in-flight pool tasks are rejected with a termination
// error. A second Stop returns ErrNotStarted.
func (m *Manager) Stop(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return ErrNotStarted
	}

	m.pool.Terminate()
	m.started = false
	m.logger.Info("scheduler manager stopped")

	return nil
}

// AvailablePlayers resolves the week's available player IDs into full
// player records via the configured source.
//
// Players the source no longer knows are skipped with a warning rather
// than failing the whole week.
func (m *Manager) AvailablePlayers(ctx context.Context, weekID string) ([]Player, error) {
	ids, err := m.source.GetAvailablePlayers(ctx, weekID)
	if err != nil {
		return nil, fmt.Errorf("list available players for week %s: %w", weekID, err)
	}

	players := make([]Player, 0, len(ids))
	for _, id := range ids {
		p, err := m.source.GetPlayer(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("resolve player %s: %w", id, err)
		}
		if p == nil {
			m.logger.Warn("available player missing from source", "week_id", weekID, "player_id", id)
			continue
		}
		players = append(players, *p)
	}

	return players, nil
}

// GenerateScheduleForWeek builds a schedule from the week's available
// players.
//
// players must be the subset of week-known players whose availability
// entry is true (AvailablePlayers builds exactly that). Weeks at or
// above ParallelThreshold run the grouping heuristic on the worker
// pool; smaller weeks run in-process. The schedule is returned, not
// persisted — pair it with AcquireScheduleLock and
// ReplaceScheduleAtomic to publish it.
//
// Parameters:
//   - ctx: Context for grouping and history access
//   - week: The scheduling unit
//   - players: Available players in input order
//
// Returns:
//   - *Schedule: Generated schedule; empty and valid for zero players
//   - error: Precondition or grouping failure
func (m *Manager) GenerateScheduleForWeek(ctx context.Context, week *Week, players []Player) (*Schedule, error) {
	eng, err := m.runningEngine()
	if err != nil {
		return nil, err
	}

	return eng.Generate(ctx, week, players)
}

// ValidateSchedule checks a schedule against its roster and week.
//
// Errors make the result invalid (unknown players, duplicates,
// preference violations, oversize groups); warnings flag window
// imbalance without failing validity.
func (m *Manager) ValidateSchedule(schedule *Schedule, players []Player, week *Week) ValidationResult {
	return engine.Validate(schedule, players, week)
}

// AcquireScheduleLock attempts to lock a week for schedule mutation.
//
// Returns nil (not an error) when another caller holds a valid lease;
// treat nil as "try later". An optional per-call lease duration
// overrides the configured LockTimeout.
func (m *Manager) AcquireScheduleLock(ctx context.Context, weekID string, timeout ...time.Duration) (*ScheduleLock, error) {
	store, err := m.runningStore()
	if err != nil {
		return nil, err
	}

	return store.AcquireLock(ctx, weekID, timeout...)
}

// ReleaseScheduleLock releases a week's lock if the token matches.
func (m *Manager) ReleaseScheduleLock(ctx context.Context, weekID, token string) (bool, error) {
	store, err := m.runningStore()
	if err != nil {
		return false, err
	}

	return store.ReleaseLock(ctx, weekID, token)
}

// IsScheduleLocked reports whether a valid lease exists for the week.
func (m *Manager) IsScheduleLocked(ctx context.Context, weekID string) (bool, error) {
	store, err := m.runningStore()
	if err != nil {
		return false, err
	}

	return store.IsLocked(ctx, weekID)
}

// ForceReleaseScheduleLock removes a week's lock regardless of holder.
func (m *Manager) ForceReleaseScheduleLock(ctx context.Context, weekID string) error {
	store, err := m.runningStore()
	if err != nil {
		return err
	}

	return store.ForceReleaseLock(ctx, weekID)
}

// ReplaceScheduleAtomic atomically swaps in a new schedule for its week.
//
// The lock returned by AcquireScheduleLock is required as a parameter;
// see the store semantics for LastModified and RegenerationCount.
func (m *Manager) ReplaceScheduleAtomic(ctx context.Context, sched *Schedule, lock *ScheduleLock, backupRef string) (*Schedule, error) {
	store, err := m.runningStore()
	if err != nil {
		return nil, err
	}

	return store.ReplaceScheduleAtomic(ctx, sched, lock, backupRef)
}

// GetSchedule loads the stored schedule for a week.
func (m *Manager) GetSchedule(ctx context.Context, weekID string) (*Schedule, error) {
	store, err := m.runningStore()
	if err != nil {
		return nil, err
	}

	return store.GetSchedule(ctx, weekID)
}

// GetScheduleStatus returns the week's status record, synthesizing one
// on first query.
func (m *Manager) GetScheduleStatus(ctx context.Context, weekID string) (*ScheduleStatus, error) {
	store, err := m.runningStore()
	if err != nil {
		return nil, err
	}

	return store.GetStatus(ctx, weekID)
}

// SetScheduleStatus applies a partial status update. This is the only
// path that may set the manual-edit flag.
func (m *Manager) SetScheduleStatus(ctx context.Context, weekID string, patch StatusPatch) (*ScheduleStatus, error) {
	store, err := m.runningStore()
	if err != nil {
		return nil, err
	}

	return store.SetStatus(ctx, weekID, patch)
}

// SetPlayerAvailabilityAtomic updates one player's availability for a
// week under a durable operation record.
func (m *Manager) SetPlayerAvailabilityAtomic(ctx context.Context, weekID, playerID string, available bool) (*OperationRecord, error) {
	ops, err := m.runningOps()
	if err != nil {
		return nil, err
	}

	return ops.SetPlayerAvailability(ctx, weekID, playerID, available)
}

// SetBulkAvailabilityAtomic marks every listed player available or
// unavailable for the week, rolling back on partial failure.
func (m *Manager) SetBulkAvailabilityAtomic(ctx context.Context, weekID string, playerIDs []string, available bool) (*OperationRecord, error) {
	ops, err := m.runningOps()
	if err != nil {
		return nil, err
	}

	return ops.SetBulkAvailability(ctx, weekID, playerIDs, available)
}

// VerifyAvailabilityPersisted reports whether persisted availability
// matches every expected (player, value) pair for the week.
func (m *Manager) VerifyAvailabilityPersisted(ctx context.Context, weekID string, expected map[string]bool) (bool, error) {
	ops, err := m.runningOps()
	if err != nil {
		return false, err
	}

	return ops.VerifyAvailabilityPersisted(ctx, weekID, expected)
}

// RollbackAvailabilityChanges restores the pre-operation availability
// recorded on an operation.
func (m *Manager) RollbackAvailabilityChanges(ctx context.Context, rec *OperationRecord) error {
	ops, err := m.runningOps()
	if err != nil {
		return err
	}

	return ops.RollbackAvailabilityChanges(ctx, rec)
}

// PoolStats returns a snapshot of the worker pool's counters.
func (m *Manager) PoolStats() (PoolStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return PoolStats{}, ErrNotStarted
	}

	s := m.pool.Stats()

	return PoolStats{
		Queued:          s.Queued,
		Active:          s.Active,
		Idle:            s.Idle,
		Workers:         s.Workers,
		Completed:       s.Completed,
		Failed:          s.Failed,
		AvgTaskDuration: s.AvgTaskDuration,
	}, nil
}

func (m *Manager) runningEngine() (*engine.Engine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return nil, ErrNotStarted
	}

	return m.engine, nil
}

func (m *Manager) runningStore() (*schedstore.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return nil, ErrNotStarted
	}

	return m.store, nil
}

func (m *Manager) runningOps() (*oplog.Manager, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return nil, ErrNotStarted
	}

	return m.ops, nil
}
