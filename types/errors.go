package types

import "errors"

// Sentinel errors for the scheduler library.
//
// These errors provide type-safe error checking using errors.Is() and
// errors.As(). Components use these sentinels for known conditions and
// wrap external errors with context using fmt.Errorf("%s: %w", msg, err).

// Error category sentinels. Every component error wraps exactly one of
// these so callers can branch on category without knowing the component.
var (
	// ErrValidation indicates malformed or missing required input.
	// Surfaced immediately, never retried, no side effects.
	ErrValidation = errors.New("validation failed")

	// ErrConflict indicates a lock held by another token or a competing
	// write. Callers should retry later rather than treat it as data error.
	ErrConflict = errors.New("conflict")

	// ErrNotFound indicates an unknown week, player, or schedule ID.
	ErrNotFound = errors.New("not found")

	// ErrPersistence indicates an underlying store read or write failed.
	ErrPersistence = errors.New("persistence failure")

	// ErrTimeout indicates a lock or task timeout elapsed.
	ErrTimeout = errors.New("timed out")

	// ErrWorkerFault indicates a pool worker crashed or stopped responding.
	// May trigger sequential fallback when fallback is enabled.
	ErrWorkerFault = errors.New("worker fault")
)

// Engine errors.
var (
	// ErrNilWeek is returned when schedule generation is asked for a nil week.
	ErrNilWeek = errors.New("week is required")

	// ErrForeignPlayer is returned when an available player does not
	// belong to the week's season.
	ErrForeignPlayer = errors.New("player not in week's season")
)

// Lock and store errors.
var (
	// ErrLockRequired is returned when atomic replacement is attempted
	// without a valid lock for the week.
	ErrLockRequired = errors.New("valid schedule lock required")

	// ErrLockExpired is returned when the presented lock's lease has lapsed.
	ErrLockExpired = errors.New("schedule lock expired")
)

// Pool errors.
var (
	// ErrPoolTerminated is returned for tasks submitted to, or pending
	// in, a terminated pool.
	ErrPoolTerminated = errors.New("worker pool terminated")

	// ErrProbeFailed is returned when a worker fails its liveness probe
	// during pool initialization.
	ErrProbeFailed = errors.New("worker liveness probe failed")
)

// IsWorkerCategory reports whether an error belongs to the worker failure
// category (worker fault, task timeout, pool termination).
//
// The sequential fallback path triggers only on this category, never on
// validation failures.
func IsWorkerCategory(err error) bool {
	return errors.Is(err, ErrWorkerFault) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrPoolTerminated)
}
