package types

import "time"

// OperationKind classifies an availability mutation.
type OperationKind string

// OperationKind values.
const (
	// OpIndividual mutates a single player's availability for a week.
	OpIndividual OperationKind = "individual"

	// OpBulkAvailable marks a set of players available.
	OpBulkAvailable OperationKind = "bulk-available"

	// OpBulkUnavailable marks a set of players unavailable.
	OpBulkUnavailable OperationKind = "bulk-unavailable"
)

// OperationStatus is the lifecycle state of an OperationRecord.
type OperationStatus string

// OperationStatus values.
const (
	OpPending   OperationStatus = "pending"
	OpCompleted OperationStatus = "completed"
	OpFailed    OperationStatus = "failed"
)

// OperationRecord is the durable intent record written before any
// availability mutation.
//
// A record still pending from a prior process lifetime marks an
// interrupted operation; recovery reconciles it against persisted truth.
type OperationRecord struct {
	// ID uniquely identifies the operation.
	ID string `json:"id"`

	// Kind classifies the mutation.
	Kind OperationKind `json:"kind"`

	// WeekID is the week whose availability is mutated.
	WeekID string `json:"weekId"`

	// PlayerIDs are the affected players.
	PlayerIDs []string `json:"playerIds"`

	// OriginalState maps player ID to the availability value observed
	// before the mutation. Players with no prior entry are absent.
	OriginalState map[string]bool `json:"originalState"`

	// TargetState maps player ID to the intended availability value.
	TargetState map[string]bool `json:"targetState"`

	// Status is the lifecycle state.
	Status OperationStatus `json:"status"`

	// CreatedAt is when the intent was recorded.
	CreatedAt time.Time `json:"createdAt"`
}
