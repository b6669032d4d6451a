package pool

import (
	"sync/atomic"
	"time"
)

// stats tracks pool counters with atomics.
type stats struct {
	queued     atomic.Int64
	active     atomic.Int64
	completed  atomic.Int64
	failed     atomic.Int64
	totalNanos atomic.Int64
}

// Stats is a point-in-time snapshot of pool activity.
type Stats struct {
	// Queued is the number of tasks waiting for a worker.
	Queued int64

	// Active is the number of tasks currently executing.
	Active int64

	// Idle is the number of workers ready for a task.
	Idle int

	// Workers is the current registry size.
	Workers int

	// Completed and Failed are lifetime task counts.
	Completed int64
	Failed    int64

	// AvgTaskDuration is the rolling average over completed tasks.
	AvgTaskDuration time.Duration
}

func (s *stats) recordCompleted(d time.Duration) {
	s.active.Add(-1)
	s.completed.Add(1)
	s.totalNanos.Add(int64(d))
}

func (s *stats) recordFailed(active bool) {
	if active {
		s.active.Add(-1)
	}
	s.failed.Add(1)
}

func (s *stats) snapshot(idle, workers int) Stats {
	out := Stats{
		Queued:    s.queued.Load(),
		Active:    s.active.Load(),
		Idle:      idle,
		Workers:   workers,
		Completed: s.completed.Load(),
		Failed:    s.failed.Load(),
	}
	if out.Completed > 0 {
		out.AvgTaskDuration = time.Duration(s.totalNanos.Load() / out.Completed)
	}

	return out
}
