// Package distribute splits a window's player list into weighted chunks,
// drives the worker pool with bounded concurrency, and aggregates chunk
// results back into a single ordered group list.
package distribute

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rservant/indoor-golf-scheduler-sub006/internal/logging"
	"github.com/rservant/indoor-golf-scheduler-sub006/internal/metrics"
	"github.com/rservant/indoor-golf-scheduler-sub006/internal/pool"
	"github.com/rservant/indoor-golf-scheduler-sub006/types"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Default chunking bounds. Sizes stay multiples of the foursome capacity
// so partial groups appear only in the final chunk of a window.
const (
	defaultMinChunkSize   = 8
	defaultMaxChunkSize   = 40
	defaultTargetChunks   = 8
	defaultMaxConcurrency = 4
)

// ProgressFunc receives completed-weight / total-weight updates.
type ProgressFunc func(completed, total int)

// Options configures a Distributor.
type Options struct {
	// MinChunkSize and MaxChunkSize bound the adaptive chunk size.
	// Both are rounded up to a multiple of the foursome capacity.
	MinChunkSize int
	MaxChunkSize int

	// TargetChunks drives the adaptive size: chunk size approximates
	// total/TargetChunks before clamping.
	TargetChunks int

	// MaxConcurrency caps in-flight chunk submissions independently of
	// the pool's worker count, so submission can be throttled even when
	// more workers sit idle.
	MaxConcurrency int

	// TaskTimeout applies per chunk task (zero uses the pool default).
	TaskTimeout time.Duration

	// Progress, when set, is called after each completed chunk.
	Progress ProgressFunc

	// Logger for distribution events (default: no logging).
	Logger types.Logger

	// Metrics receives chunk completion events (default: discard).
	Metrics types.MetricsCollector
}

// Distributor fans window grouping out over a worker pool.
type Distributor struct {
	pool *pool.Pool
	opts Options
}

// New creates a distributor over the given pool.
//
// Parameters:
//   - p: Initialized worker pool
//   - opts: Distribution options; zero fields get defaults
//
// Returns:
//   - *Distributor: Initialized distributor
func New(p *pool.Pool, opts Options) *Distributor {
	if opts.MinChunkSize <= 0 {
		opts.MinChunkSize = defaultMinChunkSize
	}
	if opts.MaxChunkSize <= 0 {
		opts.MaxChunkSize = defaultMaxChunkSize
	}
	opts.MinChunkSize = roundUpToCapacity(opts.MinChunkSize)
	opts.MaxChunkSize = roundUpToCapacity(opts.MaxChunkSize)
	if opts.MaxChunkSize < opts.MinChunkSize {
		opts.MaxChunkSize = opts.MinChunkSize
	}
	if opts.TargetChunks <= 0 {
		opts.TargetChunks = defaultTargetChunks
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = defaultMaxConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNop()
	}

	return &Distributor{pool: p, opts: opts}
}

// Distribute groups one window's players across the pool.
//
// Players are split into weighted chunks; chunks run concurrently under
// the configured concurrency ceiling; results are re-assembled in chunk
// order, so the output is deterministic for a given input order. If any
// chunk fails the whole distribution fails fast and the first error is
// returned — the caller decides whether to fall back to the sequential
// in-process path.
//
// Parameters:
//   - ctx: Context for the whole distribution
//   - seasonID: Season scope for pairing lookups
//   - window: Window tag carried on each chunk
//   - players: Window player list in input order
//
// Returns:
//   - [][]types.Player: Foursome memberships in chunk order
//   - error: First chunk failure, or nil
func (d *Distributor) Distribute(ctx context.Context, seasonID string, window types.TimeWindow, players []types.Player) ([][]types.Player, error) {
	if len(players) == 0 {
		return nil, nil
	}

	chunks := buildChunks(seasonID, window, players, d.opts)

	totalWeight := 0
	for _, c := range chunks {
		totalWeight += c.Weight
	}

	d.opts.Logger.Debug("distributing window",
		"window", window,
		"players", len(players),
		"chunks", len(chunks),
		"total_weight", totalWeight,
		"max_concurrency", d.opts.MaxConcurrency,
	)

	results := make([][][]types.Player, len(chunks))
	sem := semaphore.NewWeighted(int64(d.opts.MaxConcurrency))

	var completedWeight atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			defer sem.Release(1)

			res, err := d.pool.ExecuteTask(gctx, pool.Task{
				Kind:    pool.TaskGroupChunk,
				Chunk:   chunk,
				Timeout: d.opts.TaskTimeout,
			})
			if err != nil {
				return fmt.Errorf("chunk %d (%d players): %w", i, len(chunk.Players), err)
			}

			results[i] = res.Groups

			done := completedWeight.Add(int64(chunk.Weight))
			d.opts.Metrics.ChunkCompleted(chunk.Weight)
			if d.opts.Progress != nil {
				d.opts.Progress(int(done), totalWeight)
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var groups [][]types.Player
	for _, r := range results {
		groups = append(groups, r...)
	}

	return groups, nil
}

// buildChunks slices players into weighted chunks of adaptive size.
func buildChunks(seasonID string, window types.TimeWindow, players []types.Player, opts Options) []pool.Chunk {
	size := chunkSizeFor(len(players), opts)

	chunks := make([]pool.Chunk, 0, (len(players)+size-1)/size)
	for start := 0; start < len(players); start += size {
		end := min(start+size, len(players))

		chunks = append(chunks, pool.Chunk{
			SeasonID: seasonID,
			Window:   window,
			Players:  players[start:end],
			Weight:   end - start,
		})
	}

	return chunks
}

// chunkSizeFor adapts the chunk size to the total item count.
func chunkSizeFor(total int, opts Options) int {
	size := (total + opts.TargetChunks - 1) / opts.TargetChunks
	size = roundUpToCapacity(size)

	if size < opts.MinChunkSize {
		size = opts.MinChunkSize
	}
	if size > opts.MaxChunkSize {
		size = opts.MaxChunkSize
	}

	return size
}

// roundUpToCapacity rounds n up to a multiple of the foursome capacity.
func roundUpToCapacity(n int) int {
	rem := n % types.FoursomeCapacity
	if rem == 0 {
		return n
	}

	return n + types.FoursomeCapacity - rem
}
