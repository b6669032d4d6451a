package types

import "time"

// ScheduleLock is an advisory, TTL-based lease over one week's schedule.
//
// At most one valid (non-expired) lock exists per week ID at any instant.
// The Token is an opaque capability: mutating calls require the lock
// value itself, so a caller cannot forget the lock check.
type ScheduleLock struct {
	// WeekID is the locked week.
	WeekID string `json:"weekId"`

	// Token is the opaque credential generated at acquisition.
	Token string `json:"token"`

	// AcquiredAt is when the lock was installed.
	AcquiredAt time.Time `json:"acquiredAt"`

	// Timeout is the lease duration; past it the lock is treated as
	// abandoned and purged lazily on the next acquire or query.
	Timeout time.Duration `json:"timeout"`
}

// Expired reports whether the lock's lease has lapsed at the given time.
func (l *ScheduleLock) Expired(now time.Time) bool {
	return now.Sub(l.AcquiredAt) > l.Timeout
}

// ScheduleStatus is the per-week bookkeeping record maintained alongside
// the schedule itself.
//
// A status record is synthesized lazily on first query if absent.
type ScheduleStatus struct {
	// WeekID is the week this status describes.
	WeekID string `json:"weekId"`

	// Exists reports whether a schedule is stored for the week.
	Exists bool `json:"exists"`

	// Locked mirrors the current lock state at read time.
	Locked bool `json:"locked"`

	// LastModified mirrors the stored schedule's LastModified.
	LastModified time.Time `json:"lastModified"`

	// HasManualEdits is set only by the plain status update path, never
	// by atomic replacement, so callers can tell regenerated schedules
	// from hand-edited ones.
	HasManualEdits bool `json:"hasManualEdits"`

	// RegenerationCount increments by exactly one per successful atomic
	// replacement and is never incremented by anything else.
	RegenerationCount int `json:"regenerationCount"`

	// LastBackupRef records the backup reference passed to the most
	// recent atomic replacement, if any.
	LastBackupRef string `json:"lastBackupRef,omitempty"`
}

// StatusPatch is a partial ScheduleStatus update. Nil fields are left
// unchanged.
type StatusPatch struct {
	Exists         *bool      `json:"exists,omitempty"`
	LastModified   *time.Time `json:"lastModified,omitempty"`
	HasManualEdits *bool      `json:"hasManualEdits,omitempty"`
}
