package pool

import (
	"context"
	"fmt"
	"time"

	"github.com/rservant/indoor-golf-scheduler-sub006/types"
)

// envelope carries one task to a worker together with its reply channel
// and a cancellation context the submitter controls.
type envelope struct {
	ctx      context.Context
	task     Task
	resultCh chan response // buffered; never blocks the worker
}

// response is the worker's reply to one envelope.
type response struct {
	result Result
	err    error
}

// worker is one isolated execution context. It runs a single goroutine
// that processes one task at a time.
type worker struct {
	id    int
	tasks chan *envelope
	quit  chan struct{}
}

func newWorker(id int) *worker {
	return &worker{
		id:    id,
		tasks: make(chan *envelope),
		quit:  make(chan struct{}),
	}
}

// run is the worker goroutine. It exits on quit, or after a fault in
// which case it asks the pool for a replacement.
func (w *worker) run(p *Pool) {
	defer p.wg.Done()

	for {
		select {
		case <-w.quit:
			return
		case env := <-w.tasks:
			resp, faulted := w.serve(p, env)
			env.resultCh <- resp

			if faulted {
				p.handleFault(w, resp.err)
				return
			}

			// Return to the idle ring unless the pool is shutting down.
			select {
			case p.idle <- w:
			case <-w.quit:
				return
			}
		}
	}
}

// serve executes one envelope, converting panics into worker faults.
func (w *worker) serve(p *Pool, env *envelope) (resp response, faulted bool) {
	defer func() {
		if r := recover(); r != nil {
			resp = response{err: fmt.Errorf("%w: worker %d panicked: %v", types.ErrWorkerFault, w.id, r)}
			faulted = true
		}
	}()

	start := time.Now()
	result, err := w.execute(env.ctx, p, env.task)
	if err != nil {
		return response{err: err}, false
	}

	result.WorkerID = w.id
	result.Elapsed = time.Since(start)

	return response{result: result}, false
}

// execute dispatches on the closed task variant.
func (w *worker) execute(ctx context.Context, p *Pool, task Task) (Result, error) {
	// The submitter cancels ctx on timeout; checking here covers tasks
	// that sat in the hand-off briefly.
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("%w: %w", types.ErrTimeout, err)
	}

	switch task.Kind {
	case TaskPing:
		return Result{}, nil

	case TaskGroupChunk:
		groups, err := p.cfg.Strategy.Group(ctx, task.Chunk.SeasonID, task.Chunk.Players, p.cfg.History)
		if err != nil {
			return Result{}, fmt.Errorf("group chunk (%s, %d players): %w", task.Chunk.Window, len(task.Chunk.Players), err)
		}

		return Result{Groups: groups}, nil

	default:
		return Result{}, fmt.Errorf("%w: unknown task kind %d", types.ErrValidation, task.Kind)
	}
}
