package schedstore

import (
	"context"
	"testing"
	"time"

	"github.com/rservant/indoor-golf-scheduler-sub006/types"
	"github.com/stretchr/testify/require"

	schedtest "github.com/rservant/indoor-golf-scheduler-sub006/testing"
)

func newTestStore(t *testing.T, lockTimeout time.Duration) *Store {
	t.Helper()

	_, nc := schedtest.StartEmbeddedNATS(t)

	store, err := New(Config{
		Schedules:   schedtest.CreateJetStreamKV(t, nc, "test-schedules"),
		Locks:       schedtest.CreateJetStreamKV(t, nc, "test-locks"),
		Status:      schedtest.CreateJetStreamKV(t, nc, "test-status"),
		LockTimeout: lockTimeout,
	})
	require.NoError(t, err)

	return store
}

func mkSchedule(weekID string, playerIDs ...string) *types.Schedule {
	sched := &types.Schedule{
		ID:     "sched-" + weekID,
		WeekID: weekID,
	}

	for i := 0; i < len(playerIDs); i += types.FoursomeCapacity {
		end := min(i+types.FoursomeCapacity, len(playerIDs))

		group := types.Foursome{
			Window:   types.MorningWindow,
			Position: i / types.FoursomeCapacity,
		}
		for _, id := range playerIDs[i:end] {
			group.Players = append(group.Players, types.Player{ID: id, SeasonID: "season-1"})
		}
		sched.Morning = append(sched.Morning, group)
	}

	return sched
}

func TestStore_AcquireLock(t *testing.T) {
	ctx := context.Background()

	t.Run("mutual exclusion per week", func(t *testing.T) {
		store := newTestStore(t, 30*time.Second)

		lock, err := store.AcquireLock(ctx, "week-1")
		require.NoError(t, err)
		require.NotNil(t, lock)
		require.Equal(t, "week-1", lock.WeekID)
		require.NotEmpty(t, lock.Token)

		// Second acquire on the same week is refused without error.
		second, err := store.AcquireLock(ctx, "week-1")
		require.NoError(t, err)
		require.Nil(t, second)

		// A different week is independent.
		other, err := store.AcquireLock(ctx, "week-2")
		require.NoError(t, err)
		require.NotNil(t, other)
	})

	t.Run("expired lock is purged and reacquired", func(t *testing.T) {
		store := newTestStore(t, 100*time.Millisecond)

		first, err := store.AcquireLock(ctx, "week-1")
		require.NoError(t, err)
		require.NotNil(t, first)

		time.Sleep(150 * time.Millisecond)

		second, err := store.AcquireLock(ctx, "week-1")
		require.NoError(t, err)
		require.NotNil(t, second)
		require.NotEqual(t, first.Token, second.Token)
	})

	t.Run("per-call lease duration overrides the configured timeout", func(t *testing.T) {
		store := newTestStore(t, 30*time.Second)

		short, err := store.AcquireLock(ctx, "week-1", 100*time.Millisecond)
		require.NoError(t, err)
		require.NotNil(t, short)
		require.Equal(t, 100*time.Millisecond, short.Timeout)

		time.Sleep(150 * time.Millisecond)

		// The short lease has expired despite the long configured
		// default, so the week can be taken again.
		second, err := store.AcquireLock(ctx, "week-1")
		require.NoError(t, err)
		require.NotNil(t, second)
		require.Equal(t, 30*time.Second, second.Timeout)
	})

	t.Run("IsLocked tracks lease validity", func(t *testing.T) {
		store := newTestStore(t, 100*time.Millisecond)

		locked, err := store.IsLocked(ctx, "week-1")
		require.NoError(t, err)
		require.False(t, locked)

		_, err = store.AcquireLock(ctx, "week-1")
		require.NoError(t, err)

		locked, err = store.IsLocked(ctx, "week-1")
		require.NoError(t, err)
		require.True(t, locked)

		time.Sleep(150 * time.Millisecond)

		locked, err = store.IsLocked(ctx, "week-1")
		require.NoError(t, err)
		require.False(t, locked)
	})
}

func TestStore_ReleaseLock(t *testing.T) {
	ctx := context.Background()

	t.Run("exact token releases", func(t *testing.T) {
		store := newTestStore(t, 30*time.Second)

		lock, err := store.AcquireLock(ctx, "week-1")
		require.NoError(t, err)
		require.NotNil(t, lock)

		released, err := store.ReleaseLock(ctx, "week-1", lock.Token)
		require.NoError(t, err)
		require.True(t, released)

		// The week is free again.
		again, err := store.AcquireLock(ctx, "week-1")
		require.NoError(t, err)
		require.NotNil(t, again)
	})

	t.Run("wrong token does not release", func(t *testing.T) {
		store := newTestStore(t, 30*time.Second)

		_, err := store.AcquireLock(ctx, "week-1")
		require.NoError(t, err)

		released, err := store.ReleaseLock(ctx, "week-1", "not-the-token")
		require.NoError(t, err)
		require.False(t, released)

		locked, err := store.IsLocked(ctx, "week-1")
		require.NoError(t, err)
		require.True(t, locked)
	})

	t.Run("no lock yields false", func(t *testing.T) {
		store := newTestStore(t, 30*time.Second)

		released, err := store.ReleaseLock(ctx, "week-1", "whatever")
		require.NoError(t, err)
		require.False(t, released)
	})

	t.Run("force release ignores holder", func(t *testing.T) {
		store := newTestStore(t, 30*time.Second)

		_, err := store.AcquireLock(ctx, "week-1")
		require.NoError(t, err)

		require.NoError(t, store.ForceReleaseLock(ctx, "week-1"))

		locked, err := store.IsLocked(ctx, "week-1")
		require.NoError(t, err)
		require.False(t, locked)

		// Force releasing an unlocked week is fine too.
		require.NoError(t, store.ForceReleaseLock(ctx, "week-1"))
	})
}

func TestStore_ReplaceScheduleAtomic(t *testing.T) {
	ctx := context.Background()

	t.Run("replace requires the lock value", func(t *testing.T) {
		store := newTestStore(t, 30*time.Second)

		_, err := store.ReplaceScheduleAtomic(ctx, mkSchedule("week-1", "p1"), nil, "")
		require.ErrorIs(t, err, types.ErrLockRequired)

		// Nothing was written.
		_, err = store.GetSchedule(ctx, "week-1")
		require.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("foreign lock is a conflict", func(t *testing.T) {
		store := newTestStore(t, 30*time.Second)

		lock, err := store.AcquireLock(ctx, "week-1")
		require.NoError(t, err)

		forged := *lock
		forged.Token = "someone-else"

		_, err = store.ReplaceScheduleAtomic(ctx, mkSchedule("week-1", "p1"), &forged, "")
		require.ErrorIs(t, err, types.ErrConflict)
	})

	t.Run("expired lock is rejected", func(t *testing.T) {
		store := newTestStore(t, 100*time.Millisecond)

		lock, err := store.AcquireLock(ctx, "week-1")
		require.NoError(t, err)

		time.Sleep(150 * time.Millisecond)

		_, err = store.ReplaceScheduleAtomic(ctx, mkSchedule("week-1", "p1"), lock, "")
		require.ErrorIs(t, err, types.ErrLockExpired)
	})

	t.Run("replacement advances lastModified and regeneration count", func(t *testing.T) {
		store := newTestStore(t, 30*time.Second)

		lock, err := store.AcquireLock(ctx, "week-1")
		require.NoError(t, err)

		first, err := store.ReplaceScheduleAtomic(ctx, mkSchedule("week-1", "p1", "p2"), lock, "backup-1")
		require.NoError(t, err)
		require.False(t, first.LastModified.IsZero())

		second, err := store.ReplaceScheduleAtomic(ctx, mkSchedule("week-1", "p3", "p4"), lock, "backup-2")
		require.NoError(t, err)
		require.True(t, second.LastModified.After(first.LastModified))

		stored, err := store.GetSchedule(ctx, "week-1")
		require.NoError(t, err)
		require.Equal(t, []string{"p3", "p4"}, stored.Morning[0].PlayerIDs())

		status, err := store.GetStatus(ctx, "week-1")
		require.NoError(t, err)
		require.True(t, status.Exists)
		require.Equal(t, 2, status.RegenerationCount)
		require.Equal(t, "backup-2", status.LastBackupRef)
		require.False(t, status.HasManualEdits)
		require.Equal(t, second.LastModified.UnixNano(), status.LastModified.UnixNano())
	})

	t.Run("monotonic even against a future previous timestamp", func(t *testing.T) {
		store := newTestStore(t, 30*time.Second)

		lock, err := store.AcquireLock(ctx, "week-1")
		require.NoError(t, err)

		ahead := time.Now().Add(time.Hour)
		store.now = func() time.Time { return ahead }
		first, err := store.ReplaceScheduleAtomic(ctx, mkSchedule("week-1", "p1"), lock, "")
		require.NoError(t, err)

		store.now = time.Now
		second, err := store.ReplaceScheduleAtomic(ctx, mkSchedule("week-1", "p2"), lock, "")
		require.NoError(t, err)
		require.True(t, second.LastModified.After(first.LastModified))
	})
}

func TestStore_Status(t *testing.T) {
	ctx := context.Background()

	t.Run("read-through synthesis for unknown week", func(t *testing.T) {
		store := newTestStore(t, 30*time.Second)

		status, err := store.GetStatus(ctx, "week-9")
		require.NoError(t, err)
		require.Equal(t, "week-9", status.WeekID)
		require.False(t, status.Exists)
		require.False(t, status.Locked)
		require.Zero(t, status.RegenerationCount)

		// Synthesized record is persisted: a manual-edit flag set now
		// survives subsequent reads.
		edited := true
		_, err = store.SetStatus(ctx, "week-9", types.StatusPatch{HasManualEdits: &edited})
		require.NoError(t, err)

		status, err = store.GetStatus(ctx, "week-9")
		require.NoError(t, err)
		require.True(t, status.HasManualEdits)
	})

	t.Run("locked field mirrors live lease", func(t *testing.T) {
		store := newTestStore(t, 30*time.Second)

		lock, err := store.AcquireLock(ctx, "week-1")
		require.NoError(t, err)

		status, err := store.GetStatus(ctx, "week-1")
		require.NoError(t, err)
		require.True(t, status.Locked)

		_, err = store.ReleaseLock(ctx, "week-1", lock.Token)
		require.NoError(t, err)

		status, err = store.GetStatus(ctx, "week-1")
		require.NoError(t, err)
		require.False(t, status.Locked)
	})

	t.Run("manual edit flag untouched by replacement", func(t *testing.T) {
		store := newTestStore(t, 30*time.Second)

		edited := true
		_, err := store.SetStatus(ctx, "week-1", types.StatusPatch{HasManualEdits: &edited})
		require.NoError(t, err)

		lock, err := store.AcquireLock(ctx, "week-1")
		require.NoError(t, err)
		_, err = store.ReplaceScheduleAtomic(ctx, mkSchedule("week-1", "p1"), lock, "")
		require.NoError(t, err)

		status, err := store.GetStatus(ctx, "week-1")
		require.NoError(t, err)
		require.True(t, status.HasManualEdits, "replacement must not clear the manual-edit flag")
		require.Equal(t, 1, status.RegenerationCount)
	})
}
