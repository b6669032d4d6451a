package types

import "time"

// PoolMetrics receives worker pool instrumentation events.
type PoolMetrics interface {
	// TaskQueued is called when a task enters the pool queue.
	TaskQueued()

	// TaskStarted is called when a worker picks a task up.
	TaskStarted()

	// TaskCompleted is called with the task duration on success.
	TaskCompleted(d time.Duration)

	// TaskFailed is called when a task fails, times out, or is rejected.
	// started reports whether TaskStarted was called for the task, so
	// gauges tracking active tasks only move for tasks that ran.
	TaskFailed(started bool)

	// WorkerReplaced is called when a crashed worker is evicted and a
	// replacement is spawned.
	WorkerReplaced()
}

// StoreMetrics receives schedule store instrumentation events.
type StoreMetrics interface {
	// LockAcquired is called on successful lock acquisition.
	LockAcquired()

	// LockContended is called when acquisition finds a valid holder.
	LockContended()

	// ScheduleReplaced is called on successful atomic replacement.
	ScheduleReplaced()
}

// DistributorMetrics receives task distributor instrumentation events.
type DistributorMetrics interface {
	// ChunkCompleted is called per finished chunk with its weight.
	ChunkCompleted(weight int)
}

// MetricsCollector aggregates all instrumentation surfaces.
//
// Implementations may embed NopMetrics-style defaults and instrument
// only the areas they care about.
type MetricsCollector interface {
	PoolMetrics
	StoreMetrics
	DistributorMetrics
}
