package schedstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rservant/indoor-golf-scheduler-sub006/internal/logging"
	"github.com/rservant/indoor-golf-scheduler-sub006/internal/metrics"
	"github.com/rservant/indoor-golf-scheduler-sub006/types"
	"github.com/zeebo/xxh3"
)

// DefaultLockTimeout is the lock lease duration when none is configured.
const DefaultLockTimeout = 30 * time.Second

// Config configures a Store.
type Config struct {
	// Schedules, Locks, and Status are the three backing KV buckets.
	// All are required.
	Schedules jetstream.KeyValue
	Locks     jetstream.KeyValue
	Status    jetstream.KeyValue

	// LockTimeout is the lease duration for acquired locks
	// (default: DefaultLockTimeout).
	LockTimeout time.Duration

	// Logger for store events (default: no logging).
	Logger types.Logger

	// Metrics receives lock and replacement events (default: discard).
	Metrics types.MetricsCollector
}

// Store is the KV-backed schedule, lock, and status store.
type Store struct {
	cfg Config

	// now is swappable in tests.
	now func() time.Time
}

// New creates a schedule store over the given buckets.
//
// Parameters:
//   - cfg: Store configuration; all three buckets are required
//
// Returns:
//   - *Store: Initialized store
//   - error: Configuration error
func New(cfg Config) (*Store, error) {
	if cfg.Schedules == nil || cfg.Locks == nil || cfg.Status == nil {
		return nil, fmt.Errorf("%w: schedule store requires schedules, locks, and status buckets", types.ErrValidation)
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = DefaultLockTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNop()
	}

	return &Store{cfg: cfg, now: time.Now}, nil
}

// AcquireLock attempts to install an advisory lock for a week.
//
// An expired lease found under the key is purged first, then a fresh
// lock is installed with the KV Create operation, which is atomic: of
// any number of concurrent callers exactly one wins. Losing (or finding
// a valid lease already installed) is not an error.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - weekID: Week to lock
//   - timeout: Optional per-call lease duration; falls back to the
//     configured LockTimeout when omitted or non-positive
//
// Returns:
//   - *types.ScheduleLock: The installed lock, or nil when the week is
//     already held by a valid lease
//   - error: Persistence error
//
// Example:
//
//	lock, err := store.AcquireLock(ctx, weekID)
//	if err != nil {
//	    return err
//	}
//	if lock == nil {
//	    return fmt.Errorf("week %s is locked", weekID)
//	}
//	defer store.ReleaseLock(ctx, weekID, lock.Token)
func (s *Store) AcquireLock(ctx context.Context, weekID string, timeout ...time.Duration) (*types.ScheduleLock, error) {
	lease := s.cfg.LockTimeout
	if len(timeout) > 0 && timeout[0] > 0 {
		lease = timeout[0]
	}

	key := weekKey(weekID)

	existing, rev, err := s.readLock(ctx, weekID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if !existing.Expired(s.now()) {
			s.cfg.Metrics.LockContended()
			s.cfg.Logger.Debug("lock held by valid lease", "week_id", weekID, "acquired_at", existing.AcquiredAt)

			return nil, nil
		}

		// Lazy purge. A revision-pinned delete loses gracefully to a
		// concurrent acquirer that already purged and re-created.
		if err := s.cfg.Locks.Delete(ctx, key, jetstream.LastRevision(rev)); err != nil {
			if errors.Is(err, jetstream.ErrKeyNotFound) {
				// Already purged by someone else; fall through to Create.
			} else {
				s.cfg.Metrics.LockContended()
				s.cfg.Logger.Debug("lost expired-lock purge race", "week_id", weekID, "error", err)

				return nil, nil
			}
		}
		s.cfg.Logger.Info("purged expired lock", "week_id", weekID, "expired_lease_age", s.now().Sub(existing.AcquiredAt))
	}

	lock := &types.ScheduleLock{
		WeekID:     weekID,
		Token:      uuid.NewString(),
		AcquiredAt: s.now(),
		Timeout:    lease,
	}

	data, err := json.Marshal(lock)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal lock: %w", types.ErrPersistence, err)
	}

	if _, err := s.cfg.Locks.Create(ctx, key, data); err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			s.cfg.Metrics.LockContended()
			return nil, nil
		}

		return nil, fmt.Errorf("%w: install lock: %w", types.ErrPersistence, err)
	}

	s.cfg.Metrics.LockAcquired()
	s.cfg.Logger.Info("schedule lock acquired", "week_id", weekID, "timeout", lock.Timeout)

	return lock, nil
}

// ReleaseLock removes the lock for a week if the token matches.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - weekID: Locked week
//   - token: Token returned by AcquireLock
//
// Returns:
//   - bool: True if the lock was released; false when no lock exists or
//     the token does not match the current holder
//   - error: Persistence error
func (s *Store) ReleaseLock(ctx context.Context, weekID, token string) (bool, error) {
	lock, rev, err := s.readLock(ctx, weekID)
	if err != nil {
		return false, err
	}
	if lock == nil || lock.Token != token {
		return false, nil
	}

	if err := s.cfg.Locks.Delete(ctx, weekKey(weekID), jetstream.LastRevision(rev)); err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return false, nil
		}

		return false, fmt.Errorf("%w: release lock: %w", types.ErrPersistence, err)
	}

	s.cfg.Logger.Info("schedule lock released", "week_id", weekID)

	return true, nil
}

// ForceReleaseLock removes a week's lock regardless of holder.
//
// Intended for administrative cleanup after a crashed holder; normal
// flows go through ReleaseLock with the token.
func (s *Store) ForceReleaseLock(ctx context.Context, weekID string) error {
	if err := s.cfg.Locks.Delete(ctx, weekKey(weekID)); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("%w: force release lock: %w", types.ErrPersistence, err)
	}

	s.cfg.Logger.Warn("schedule lock force-released", "week_id", weekID)

	return nil
}

// IsLocked reports whether the week currently holds a valid lease.
func (s *Store) IsLocked(ctx context.Context, weekID string) (bool, error) {
	lock, _, err := s.readLock(ctx, weekID)
	if err != nil {
		return false, err
	}

	return lock != nil && !lock.Expired(s.now()), nil
}

// GetSchedule loads a week's stored schedule.
//
// Returns:
//   - *types.Schedule: The stored schedule
//   - error: ErrNotFound when no schedule exists, or persistence error
func (s *Store) GetSchedule(ctx context.Context, weekID string) (*types.Schedule, error) {
	entry, err := s.cfg.Schedules.Get(ctx, weekKey(weekID))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: no schedule for week %s", types.ErrNotFound, weekID)
		}

		return nil, fmt.Errorf("%w: read schedule: %w", types.ErrPersistence, err)
	}

	var sched types.Schedule
	if err := json.Unmarshal(entry.Value(), &sched); err != nil {
		return nil, fmt.Errorf("%w: corrupt schedule for week %s: %w", types.ErrPersistence, weekID, err)
	}

	return &sched, nil
}

// ReplaceScheduleAtomic swaps in a new schedule for a week.
//
// The caller must hold the week's lock and pass it in: the lock value is
// the capability, so a caller cannot reach this operation without having
// gone through AcquireLock. The stored schedule and its status record
// are updated together; LastModified on the new schedule is forced
// strictly greater than the previous schedule's, RegenerationCount
// increments by exactly one, and HasManualEdits is never touched here.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - sched: Replacement schedule (WeekID must be set)
//   - lock: Lock obtained from AcquireLock for sched.WeekID
//   - backupRef: Opaque reference to a pre-replacement backup, recorded
//     on the status; empty to skip
//
// Returns:
//   - *types.Schedule: The stored schedule with its final LastModified
//   - error: ErrLockRequired when lock is nil or no lease is installed,
//     ErrConflict when the lease belongs to another caller,
//     ErrLockExpired when the caller's lease has lapsed
func (s *Store) ReplaceScheduleAtomic(ctx context.Context, sched *types.Schedule, lock *types.ScheduleLock, backupRef string) (*types.Schedule, error) {
	if sched == nil || sched.WeekID == "" {
		return nil, fmt.Errorf("%w: schedule with week ID required", types.ErrValidation)
	}
	if lock == nil {
		return nil, fmt.Errorf("%w: replacement requires the week's lock", types.ErrLockRequired)
	}

	held, _, err := s.readLock(ctx, sched.WeekID)
	if err != nil {
		return nil, err
	}
	if held == nil {
		return nil, fmt.Errorf("%w: no lock installed for week %s", types.ErrLockRequired, sched.WeekID)
	}
	if held.Token != lock.Token {
		return nil, fmt.Errorf("%w: week %s is locked by another caller", types.ErrConflict, sched.WeekID)
	}
	if held.Expired(s.now()) {
		return nil, fmt.Errorf("%w: lock for week %s lapsed before replacement", types.ErrLockExpired, sched.WeekID)
	}

	modified := s.now()
	prev, err := s.GetSchedule(ctx, sched.WeekID)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		return nil, err
	}
	if prev != nil && !modified.After(prev.LastModified) {
		modified = prev.LastModified.Add(time.Nanosecond)
	}

	stored := *sched
	stored.LastModified = modified
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = modified
	}

	data, err := json.Marshal(&stored)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal schedule: %w", types.ErrPersistence, err)
	}

	// Single write: readers observe either the old document or the new
	// one, never a partial state.
	if _, err := s.cfg.Schedules.Put(ctx, weekKey(sched.WeekID), data); err != nil {
		return nil, fmt.Errorf("%w: write schedule: %w", types.ErrPersistence, err)
	}

	status, err := s.loadStatus(ctx, sched.WeekID)
	if err != nil {
		return nil, err
	}
	status.Exists = true
	status.LastModified = modified
	status.RegenerationCount++
	if backupRef != "" {
		status.LastBackupRef = backupRef
	}

	if err := s.writeStatus(ctx, status); err != nil {
		return nil, err
	}

	s.cfg.Metrics.ScheduleReplaced()
	s.cfg.Logger.Info("schedule replaced",
		"week_id", sched.WeekID,
		"players", stored.PlayerCount(),
		"regeneration_count", status.RegenerationCount,
	)

	return &stored, nil
}

// GetStatus returns the week's status record, synthesizing and
// persisting one on first query.
//
// The Locked field always reflects the live lock state at read time.
func (s *Store) GetStatus(ctx context.Context, weekID string) (*types.ScheduleStatus, error) {
	entry, err := s.cfg.Status.Get(ctx, weekKey(weekID))
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: read status: %w", types.ErrPersistence, err)
	}

	var status *types.ScheduleStatus
	if err == nil {
		status = &types.ScheduleStatus{}
		if err := json.Unmarshal(entry.Value(), status); err != nil {
			return nil, fmt.Errorf("%w: corrupt status for week %s: %w", types.ErrPersistence, weekID, err)
		}
	} else {
		status, err = s.synthesizeStatus(ctx, weekID)
		if err != nil {
			return nil, err
		}
		if err := s.writeStatus(ctx, status); err != nil {
			return nil, err
		}
		s.cfg.Logger.Debug("status synthesized on first query", "week_id", weekID, "exists", status.Exists)
	}

	locked, err := s.IsLocked(ctx, weekID)
	if err != nil {
		return nil, err
	}
	status.Locked = locked

	return status, nil
}

// SetStatus applies a partial status update.
//
// This is the only path allowed to set HasManualEdits; atomic
// replacement deliberately leaves that field alone.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - weekID: Week to update
//   - patch: Fields to change; nil fields are left as stored
//
// Returns:
//   - *types.ScheduleStatus: The status after the update
//   - error: Persistence error
func (s *Store) SetStatus(ctx context.Context, weekID string, patch types.StatusPatch) (*types.ScheduleStatus, error) {
	status, err := s.GetStatus(ctx, weekID)
	if err != nil {
		return nil, err
	}

	if patch.Exists != nil {
		status.Exists = *patch.Exists
	}
	if patch.LastModified != nil {
		status.LastModified = *patch.LastModified
	}
	if patch.HasManualEdits != nil {
		status.HasManualEdits = *patch.HasManualEdits
	}

	if err := s.writeStatus(ctx, status); err != nil {
		return nil, err
	}

	return status, nil
}

// readLock loads the stored lock with its KV revision. A missing key
// yields (nil, 0, nil).
func (s *Store) readLock(ctx context.Context, weekID string) (*types.ScheduleLock, uint64, error) {
	entry, err := s.cfg.Locks.Get(ctx, weekKey(weekID))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, 0, nil
		}

		return nil, 0, fmt.Errorf("%w: read lock: %w", types.ErrPersistence, err)
	}

	var lock types.ScheduleLock
	if err := json.Unmarshal(entry.Value(), &lock); err != nil {
		return nil, 0, fmt.Errorf("%w: corrupt lock for week %s: %w", types.ErrPersistence, weekID, err)
	}

	return &lock, entry.Revision(), nil
}

// loadStatus returns the persisted status, or a fresh synthesized one.
func (s *Store) loadStatus(ctx context.Context, weekID string) (*types.ScheduleStatus, error) {
	entry, err := s.cfg.Status.Get(ctx, weekKey(weekID))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return s.synthesizeStatus(ctx, weekID)
		}

		return nil, fmt.Errorf("%w: read status: %w", types.ErrPersistence, err)
	}

	status := &types.ScheduleStatus{}
	if err := json.Unmarshal(entry.Value(), status); err != nil {
		return nil, fmt.Errorf("%w: corrupt status for week %s: %w", types.ErrPersistence, weekID, err)
	}

	return status, nil
}

// synthesizeStatus derives a status record from the schedule and lock
// buckets for a week that has never had one written.
func (s *Store) synthesizeStatus(ctx context.Context, weekID string) (*types.ScheduleStatus, error) {
	status := &types.ScheduleStatus{WeekID: weekID}

	sched, err := s.GetSchedule(ctx, weekID)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		return nil, err
	}
	if sched != nil {
		status.Exists = true
		status.LastModified = sched.LastModified
	}

	return status, nil
}

func (s *Store) writeStatus(ctx context.Context, status *types.ScheduleStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("%w: marshal status: %w", types.ErrPersistence, err)
	}

	if _, err := s.cfg.Status.Put(ctx, weekKey(status.WeekID), data); err != nil {
		return fmt.Errorf("%w: write status: %w", types.ErrPersistence, err)
	}

	return nil
}

// weekKey maps an arbitrary week ID into the KV key character set.
func weekKey(weekID string) string {
	return "week." + strconv.FormatUint(xxh3.HashString(weekID), 16)
}
