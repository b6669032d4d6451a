package pool

import (
	"time"

	"github.com/rservant/indoor-golf-scheduler-sub006/types"
)

// TaskKind is the closed set of task payloads a worker understands.
//
// Keeping this a closed enum (rather than an open type string) makes
// the worker-side dispatcher exhaustively checkable.
type TaskKind int

// TaskKind values.
const (
	// TaskPing is the liveness probe; it carries no payload.
	TaskPing TaskKind = iota

	// TaskGroupChunk groups one chunk of players into foursomes.
	TaskGroupChunk
)

// String returns the task kind name for logs.
func (k TaskKind) String() string {
	switch k {
	case TaskPing:
		return "ping"
	case TaskGroupChunk:
		return "group-chunk"
	default:
		return "unknown"
	}
}

// Chunk is a weighted unit of grouping work: a slice of one window's
// player list.
type Chunk struct {
	// SeasonID scopes pairing history lookups.
	SeasonID string

	// Window tags which window the chunk belongs to.
	Window types.TimeWindow

	// Players is the chunk membership in input order. Ownership
	// transfers to the worker for the task's duration; the pool copies
	// the slice on submission.
	Players []types.Player

	// Weight is the chunk's scheduling weight (its player count).
	Weight int
}

// Task is a unit of work submitted to the pool.
type Task struct {
	// Kind selects the payload variant.
	Kind TaskKind

	// Chunk is the payload for TaskGroupChunk.
	Chunk Chunk

	// Timeout bounds execution; zero uses the pool default.
	Timeout time.Duration
}

// Result is a task's typed outcome.
type Result struct {
	// WorkerID identifies the worker that produced the result.
	WorkerID int

	// Groups holds the produced foursome memberships (TaskGroupChunk).
	Groups [][]types.Player

	// Elapsed is the worker-side execution duration.
	Elapsed time.Duration
}
