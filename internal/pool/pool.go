package pool

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/rservant/indoor-golf-scheduler-sub006/internal/logging"
	"github.com/rservant/indoor-golf-scheduler-sub006/internal/metrics"
	"github.com/rservant/indoor-golf-scheduler-sub006/types"
)

// Size bounds applied when Config.Size is zero.
const (
	minDefaultSize = 2
	maxDefaultSize = 8
)

// Default timing values.
const (
	defaultProbeTimeout = 2 * time.Second
	defaultTaskTimeout  = 30 * time.Second
)

// Config configures a Pool.
type Config struct {
	// Size is the worker count. Zero selects
	// clamp(GOMAXPROCS, 2, 8).
	Size int

	// ProbeTimeout bounds the liveness probe on worker creation
	// (default: 2s).
	ProbeTimeout time.Duration

	// DefaultTaskTimeout applies to tasks submitted without their own
	// timeout (default: 30s).
	DefaultTaskTimeout time.Duration

	// Strategy groups chunk players. Required.
	Strategy types.GroupingStrategy

	// History is passed through to the strategy. May be nil.
	History types.PairingHistory

	// Logger for lifecycle events (default: no logging).
	Logger types.Logger

	// Metrics receives pool instrumentation (default: discard).
	Metrics types.MetricsCollector
}

// DefaultSize returns the worker count used when none is configured.
func DefaultSize() int {
	n := runtime.GOMAXPROCS(0)
	if n < minDefaultSize {
		return minDefaultSize
	}
	if n > maxDefaultSize {
		return maxDefaultSize
	}

	return n
}

// Pool is a fixed-size set of workers executing typed tasks.
//
// The worker registry is keyed by a small integer worker ID so that
// eviction and replacement are explicit, observable state transitions.
type Pool struct {
	cfg Config

	registry *xsync.Map[int, *worker]
	idle     chan *worker
	nextID   atomic.Int64

	baseCtx    context.Context
	baseCancel context.CancelFunc
	done       chan struct{}
	terminated atomic.Bool

	// regMu orders worker registration against the Terminate sweep so a
	// replacement probed mid-shutdown cannot be left running.
	regMu sync.Mutex

	stats stats
	wg    sync.WaitGroup
}

// New creates a pool. Call Initialize before submitting tasks.
//
// Parameters:
//   - cfg: Pool configuration; Strategy is required
//
// Returns:
//   - *Pool: Uninitialized pool
//   - error: Configuration error
func New(cfg Config) (*Pool, error) {
	if cfg.Strategy == nil {
		return nil, fmt.Errorf("%w: grouping strategy is required", types.ErrValidation)
	}
	if cfg.Size <= 0 {
		cfg.Size = DefaultSize()
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = defaultProbeTimeout
	}
	if cfg.DefaultTaskTimeout <= 0 {
		cfg.DefaultTaskTimeout = defaultTaskTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNop()
	}

	baseCtx, baseCancel := context.WithCancel(context.Background())

	return &Pool{
		cfg:        cfg,
		registry:   xsync.NewMap[int, *worker](),
		idle:       make(chan *worker, cfg.Size),
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
		done:       make(chan struct{}),
	}, nil
}

// Initialize creates and probes every worker.
//
// Each worker must answer a liveness probe before joining the idle ring.
// If any probe fails the pool terminates and the error is returned, so
// a pool is either fully available or not available at all.
//
// Parameters:
//   - ctx: Context bounding initialization
//
// Returns:
//   - error: Wraps types.ErrProbeFailed on a failed probe
func (p *Pool) Initialize(ctx context.Context) error {
	for i := 0; i < p.cfg.Size; i++ {
		if _, err := p.spawnWorker(ctx); err != nil {
			p.Terminate()
			return fmt.Errorf("initialize worker %d/%d: %w", i+1, p.cfg.Size, err)
		}
	}

	p.cfg.Logger.Info("worker pool initialized", "workers", p.cfg.Size)

	return nil
}

// ExecuteTask submits a task and waits for its result or timeout.
//
// The chunk payload is copied on submission so the worker owns its
// input outright. On timeout the caller is rejected and the task's
// context is cancelled; a well-behaved strategy observes cancellation
// between sub-steps, but the worker is not forcibly interrupted.
//
// Parameters:
//   - ctx: Caller context; cancellation rejects the call
//   - task: Task to run; zero Timeout uses the pool default
//
// Returns:
//   - Result: Typed result on success
//   - error: types.ErrTimeout, types.ErrPoolTerminated, types.ErrWorkerFault,
//     or the task's own error
func (p *Pool) ExecuteTask(ctx context.Context, task Task) (Result, error) {
	if p.terminated.Load() {
		return Result{}, types.ErrPoolTerminated
	}

	timeout := task.Timeout
	if timeout <= 0 {
		timeout = p.cfg.DefaultTaskTimeout
	}

	if task.Kind == TaskGroupChunk {
		players := make([]types.Player, len(task.Chunk.Players))
		copy(players, task.Chunk.Players)
		task.Chunk.Players = players
		if task.Chunk.Weight == 0 {
			task.Chunk.Weight = len(players)
		}
	}

	p.stats.queued.Add(1)
	p.cfg.Metrics.TaskQueued()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var w *worker
	select {
	case w = <-p.idle:
	case <-p.done:
		p.stats.queued.Add(-1)
		p.stats.recordFailed(false)
		p.cfg.Metrics.TaskFailed(false)

		return Result{}, types.ErrPoolTerminated
	case <-ctx.Done():
		p.stats.queued.Add(-1)
		p.stats.recordFailed(false)
		p.cfg.Metrics.TaskFailed(false)

		return Result{}, fmt.Errorf("%w: %w", types.ErrTimeout, ctx.Err())
	case <-timer.C:
		p.stats.queued.Add(-1)
		p.stats.recordFailed(false)
		p.cfg.Metrics.TaskFailed(false)

		return Result{}, fmt.Errorf("%w: no idle worker within %v", types.ErrTimeout, timeout)
	}

	p.stats.queued.Add(-1)
	p.stats.active.Add(1)
	p.cfg.Metrics.TaskStarted()

	taskCtx, cancel := context.WithCancel(p.baseCtx)
	defer cancel()

	env := &envelope{ctx: taskCtx, task: task, resultCh: make(chan response, 1)}

	select {
	case w.tasks <- env:
	case <-p.done:
		p.stats.recordFailed(true)
		p.cfg.Metrics.TaskFailed(true)

		return Result{}, types.ErrPoolTerminated
	}

	select {
	case resp := <-env.resultCh:
		if resp.err != nil {
			p.stats.recordFailed(true)
			p.cfg.Metrics.TaskFailed(true)

			return Result{}, resp.err
		}

		p.stats.recordCompleted(resp.result.Elapsed)
		p.cfg.Metrics.TaskCompleted(resp.result.Elapsed)

		return resp.result, nil
	case <-timer.C:
		// Explicit cancellation signal; the worker checks it between
		// sub-steps rather than being killed mid-task.
		cancel()
		p.stats.recordFailed(true)
		p.cfg.Metrics.TaskFailed(true)

		return Result{}, fmt.Errorf("%w: %s task exceeded %v", types.ErrTimeout, task.Kind, timeout)
	case <-p.done:
		p.stats.recordFailed(true)
		p.cfg.Metrics.TaskFailed(true)

		return Result{}, types.ErrPoolTerminated
	}
}

// Terminate rejects all pending and in-flight tasks with a termination
// error and releases every worker. It is idempotent and is the only
// operation guaranteed not to leave orphaned workers.
func (p *Pool) Terminate() {
	if !p.terminated.CompareAndSwap(false, true) {
		return
	}

	close(p.done)
	p.baseCancel()

	p.regMu.Lock()
	p.registry.Range(func(_ int, w *worker) bool {
		close(w.quit)
		return true
	})
	p.regMu.Unlock()

	// Drain the idle ring so no worker reference lingers.
	for {
		select {
		case <-p.idle:
		default:
			p.wg.Wait()
			p.cfg.Logger.Info("worker pool terminated")

			return
		}
	}
}

// Stats returns a snapshot of pool activity.
func (p *Pool) Stats() Stats {
	return p.stats.snapshot(len(p.idle), p.registry.Size())
}

// Size returns the configured worker count.
func (p *Pool) Size() int {
	return p.cfg.Size
}

// spawnWorker starts a worker, probes it, and registers it on success.
func (p *Pool) spawnWorker(ctx context.Context) (*worker, error) {
	id := int(p.nextID.Add(1))
	w := newWorker(id)

	p.wg.Add(1)
	go w.run(p)

	probeCtx, cancel := context.WithTimeout(ctx, p.cfg.ProbeTimeout)
	defer cancel()

	env := &envelope{ctx: probeCtx, task: Task{Kind: TaskPing}, resultCh: make(chan response, 1)}
	select {
	case w.tasks <- env:
	case <-probeCtx.Done():
		close(w.quit)
		return nil, fmt.Errorf("%w: worker %d did not accept probe", types.ErrProbeFailed, id)
	}

	select {
	case resp := <-env.resultCh:
		if resp.err != nil {
			close(w.quit)
			return nil, fmt.Errorf("%w: worker %d: %w", types.ErrProbeFailed, id, resp.err)
		}
	case <-probeCtx.Done():
		close(w.quit)
		return nil, fmt.Errorf("%w: worker %d probe timed out", types.ErrProbeFailed, id)
	}

	// Registration and the Terminate sweep exclude each other: either the
	// worker is registered before the sweep runs (and the sweep stops it),
	// or termination is already visible here and the worker stops now.
	p.regMu.Lock()
	if p.terminated.Load() {
		p.regMu.Unlock()
		close(w.quit)

		return nil, types.ErrPoolTerminated
	}
	p.registry.Store(id, w)
	p.regMu.Unlock()

	p.cfg.Logger.Debug("worker ready", "worker_id", id)

	return w, nil
}

// handleFault evicts a crashed worker and arranges a replacement.
//
// The pool stays available on its remaining workers while the
// replacement is probed in the background.
func (p *Pool) handleFault(w *worker, err error) {
	p.registry.Delete(w.id)
	p.cfg.Logger.Error("worker fault, evicting", "worker_id", w.id, "error", err)

	if p.terminated.Load() {
		return
	}

	go p.spawnReplacement()
}

// spawnReplacement creates and probes one replacement worker.
func (p *Pool) spawnReplacement() {
	if p.terminated.Load() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*p.cfg.ProbeTimeout)
	defer cancel()

	if _, err := p.spawnWorker(ctx); err != nil {
		if !errors.Is(err, types.ErrPoolTerminated) {
			p.cfg.Logger.Error("failed to spawn replacement worker", "error", err)
		}

		return
	}

	p.cfg.Metrics.WorkerReplaced()
	p.cfg.Logger.Info("replacement worker ready", "workers", p.registry.Size())
}
