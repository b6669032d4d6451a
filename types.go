package scheduler

import "github.com/rservant/indoor-golf-scheduler-sub006/types"

// Re-export types from the types subpackage.
//
// This file provides a stable public API for the library's core types
// and interfaces via type aliases. Internal packages depend on the
// `types` leaf package without importing the root package, while users
// get a convenient `scheduler.Player`, `scheduler.Schedule`, etc.
type (
	Player           = types.Player
	Week             = types.Week
	Foursome         = types.Foursome
	Schedule         = types.Schedule
	ScheduleLock     = types.ScheduleLock
	ScheduleStatus   = types.ScheduleStatus
	StatusPatch      = types.StatusPatch
	OperationRecord  = types.OperationRecord
	ValidationResult = types.ValidationResult
	TimeWindow       = types.TimeWindow
	TimePreference   = types.TimePreference
)

// Re-export interfaces from the types subpackage for convenience.
type (
	GroupingStrategy  = types.GroupingStrategy
	PairingHistory    = types.PairingHistory
	PlayerSource      = types.PlayerSource
	AvailabilityStore = types.AvailabilityStore
	MetricsCollector  = types.MetricsCollector
	Logger            = types.Logger
)

// Re-export constants from the types subpackage.
const (
	FoursomeCapacity = types.FoursomeCapacity

	PreferAM     = types.PreferAM
	PreferPM     = types.PreferPM
	PreferEither = types.PreferEither

	MorningWindow   = types.MorningWindow
	AfternoonWindow = types.AfternoonWindow

	OpIndividual      = types.OpIndividual
	OpBulkAvailable   = types.OpBulkAvailable
	OpBulkUnavailable = types.OpBulkUnavailable

	OpPending   = types.OpPending
	OpCompleted = types.OpCompleted
	OpFailed    = types.OpFailed
)
