// Package metrics provides types.MetricsCollector implementations.
package metrics

import (
	"time"

	"github.com/rservant/indoor-golf-scheduler-sub006/types"
)

// NopMetrics discards all instrumentation events.
//
// Used as the default collector; also embeddable by partial
// implementations to satisfy the full interface.
type NopMetrics struct{}

var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a collector that discards everything.
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// TaskQueued discards the event.
func (*NopMetrics) TaskQueued() {}

// TaskStarted discards the event.
func (*NopMetrics) TaskStarted() {}

// TaskCompleted discards the event.
func (*NopMetrics) TaskCompleted(time.Duration) {}

// TaskFailed discards the event.
func (*NopMetrics) TaskFailed(bool) {}

// WorkerReplaced discards the event.
func (*NopMetrics) WorkerReplaced() {}

// LockAcquired discards the event.
func (*NopMetrics) LockAcquired() {}

// LockContended discards the event.
func (*NopMetrics) LockContended() {}

// ScheduleReplaced discards the event.
func (*NopMetrics) ScheduleReplaced() {}

// ChunkCompleted discards the event.
func (*NopMetrics) ChunkCompleted(int) {}
