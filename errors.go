package scheduler

import (
	"errors"

	"github.com/rservant/indoor-golf-scheduler-sub006/types"
)

// Sentinel errors returned by the Manager.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNATSConnectionRequired is returned when the NATS connection is nil.
	ErrNATSConnectionRequired = errors.New("NATS connection is required")

	// ErrPlayerSourceRequired is returned when the player source is nil.
	ErrPlayerSourceRequired = errors.New("player source is required")

	// ErrAvailabilityStoreRequired is returned when the availability store is nil.
	ErrAvailabilityStoreRequired = errors.New("availability store is required")

	// ErrAlreadyStarted is returned when Start is called on a running manager.
	ErrAlreadyStarted = errors.New("manager already started")

	// ErrNotStarted is returned when an operation needs a started manager.
	ErrNotStarted = errors.New("manager not started")
)

// Error categories re-exported from the types package so callers can
// classify failures without importing it.
var (
	ErrValidation   = types.ErrValidation
	ErrConflict     = types.ErrConflict
	ErrNotFound     = types.ErrNotFound
	ErrPersistence  = types.ErrPersistence
	ErrTimeout      = types.ErrTimeout
	ErrWorkerFault  = types.ErrWorkerFault
	ErrLockRequired = types.ErrLockRequired
	ErrLockExpired  = types.ErrLockExpired
)
