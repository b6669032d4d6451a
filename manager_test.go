package scheduler_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	scheduler "github.com/rservant/indoor-golf-scheduler-sub006"
	"github.com/rservant/indoor-golf-scheduler-sub006/source"
	"github.com/rservant/indoor-golf-scheduler-sub006/types"
	"github.com/stretchr/testify/require"

	schedtest "github.com/rservant/indoor-golf-scheduler-sub006/testing"
)

// mkRoster builds n players with the given preference, IDs p000..p(n-1).
func mkRoster(n int, pref types.TimePreference) []types.Player {
	players := make([]types.Player, n)
	for i := range players {
		players[i] = types.Player{
			ID:         fmt.Sprintf("p%03d", i),
			FirstName:  fmt.Sprintf("Player%d", i),
			SeasonID:   "season-1",
			Preference: pref,
		}
	}

	return players
}

func mkWeek(id string) *scheduler.Week {
	return &scheduler.Week{
		ID:       id,
		SeasonID: "season-1",
		Number:   1,
		Date:     time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	}
}

func startTestManager(t *testing.T, roster []types.Player, opts ...scheduler.Option) (*scheduler.Manager, *source.Static) {
	t.Helper()

	_, nc := schedtest.StartEmbeddedNATS(t)
	src := source.NewStatic(roster)

	cfg := scheduler.TestConfig()
	mgr, err := scheduler.NewManager(&cfg, nc, src, src, opts...)
	require.NoError(t, err)
	require.NoError(t, mgr.Start(context.Background()))
	t.Cleanup(func() { _ = mgr.Stop(context.Background()) })

	return mgr, src
}

func scheduledIDs(t *testing.T, sched *scheduler.Schedule) []string {
	t.Helper()

	var ids []string
	for _, f := range sched.Foursomes() {
		require.GreaterOrEqual(t, len(f.Players), 1)
		require.LessOrEqual(t, len(f.Players), scheduler.FoursomeCapacity)
		ids = append(ids, f.PlayerIDs()...)
	}

	return ids
}

func TestNewManager(t *testing.T) {
	_, nc := schedtest.StartEmbeddedNATS(t)
	src := source.NewStatic(nil)
	cfg := scheduler.TestConfig()

	t.Run("rejects missing dependencies", func(t *testing.T) {
		_, err := scheduler.NewManager(nil, nc, src, src)
		require.ErrorIs(t, err, scheduler.ErrInvalidConfig)

		_, err = scheduler.NewManager(&cfg, nil, src, src)
		require.ErrorIs(t, err, scheduler.ErrNATSConnectionRequired)

		_, err = scheduler.NewManager(&cfg, nc, nil, src)
		require.ErrorIs(t, err, scheduler.ErrPlayerSourceRequired)

		_, err = scheduler.NewManager(&cfg, nc, src, nil)
		require.ErrorIs(t, err, scheduler.ErrAvailabilityStoreRequired)
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		bad := scheduler.TestConfig()
		bad.PoolSize = -1

		_, err := scheduler.NewManager(&bad, nc, src, src)
		require.ErrorIs(t, err, scheduler.ErrInvalidConfig)
	})
}

func TestManager_Lifecycle(t *testing.T) {
	ctx := context.Background()
	_, nc := schedtest.StartEmbeddedNATS(t)
	src := source.NewStatic(mkRoster(4, types.PreferEither))

	cfg := scheduler.TestConfig()
	mgr, err := scheduler.NewManager(&cfg, nc, src, src)
	require.NoError(t, err)

	// Operations before Start are rejected.
	_, err = mgr.GenerateScheduleForWeek(ctx, mkWeek("week-1"), nil)
	require.ErrorIs(t, err, scheduler.ErrNotStarted)
	_, err = mgr.PoolStats()
	require.ErrorIs(t, err, scheduler.ErrNotStarted)
	require.ErrorIs(t, mgr.Stop(ctx), scheduler.ErrNotStarted)

	require.NoError(t, mgr.Start(ctx))
	require.ErrorIs(t, mgr.Start(ctx), scheduler.ErrAlreadyStarted)

	stats, err := mgr.PoolStats()
	require.NoError(t, err)
	require.Equal(t, 2, stats.Workers)

	require.NoError(t, mgr.Stop(ctx))
	require.ErrorIs(t, mgr.Stop(ctx), scheduler.ErrNotStarted)
}

func TestManager_GenerateAndPublish(t *testing.T) {
	ctx := context.Background()
	roster := mkRoster(8, types.PreferAM)
	mgr, _ := startTestManager(t, roster)

	week := mkWeek("week-1")

	// Mark everyone available through the interruption-safe bulk path.
	ids := make([]string, len(roster))
	for i, p := range roster {
		ids[i] = p.ID
	}
	rec, err := mgr.SetBulkAvailabilityAtomic(ctx, week.ID, ids, true)
	require.NoError(t, err)
	require.Equal(t, scheduler.OpCompleted, rec.Status)

	players, err := mgr.AvailablePlayers(ctx, week.ID)
	require.NoError(t, err)
	require.Len(t, players, 8)

	sched, err := mgr.GenerateScheduleForWeek(ctx, week, players)
	require.NoError(t, err)

	// Eight AM players form two complete morning foursomes.
	require.Len(t, sched.Morning, 2)
	require.Empty(t, sched.Afternoon)
	require.Len(t, scheduledIDs(t, sched), 8)

	result := mgr.ValidateSchedule(sched, players, week)
	require.True(t, result.IsValid, "errors: %v", result.Errors)

	// Publish under the week lock.
	lock, err := mgr.AcquireScheduleLock(ctx, week.ID)
	require.NoError(t, err)
	require.NotNil(t, lock)

	stored, err := mgr.ReplaceScheduleAtomic(ctx, sched, lock, "backup-1")
	require.NoError(t, err)
	require.False(t, stored.LastModified.IsZero())

	loaded, err := mgr.GetSchedule(ctx, week.ID)
	require.NoError(t, err)
	require.Equal(t, sched.ID, loaded.ID)

	status, err := mgr.GetScheduleStatus(ctx, week.ID)
	require.NoError(t, err)
	require.True(t, status.Exists)
	require.True(t, status.Locked)
	require.Equal(t, 1, status.RegenerationCount)
	require.Equal(t, "backup-1", status.LastBackupRef)

	released, err := mgr.ReleaseScheduleLock(ctx, week.ID, lock.Token)
	require.NoError(t, err)
	require.True(t, released)

	locked, err := mgr.IsScheduleLocked(ctx, week.ID)
	require.NoError(t, err)
	require.False(t, locked)
}

func TestManager_ParallelGeneration(t *testing.T) {
	ctx := context.Background()
	roster := mkRoster(40, types.PreferEither)
	mgr, src := startTestManager(t, roster)

	week := mkWeek("week-1")
	for _, p := range roster {
		require.NoError(t, src.SetAvailability(ctx, week.ID, p.ID, true))
	}

	players, err := mgr.AvailablePlayers(ctx, week.ID)
	require.NoError(t, err)
	require.Len(t, players, 40)

	sched, err := mgr.GenerateScheduleForWeek(ctx, week, players)
	require.NoError(t, err)

	// Every player is placed exactly once across both windows.
	ids := scheduledIDs(t, sched)
	require.Len(t, ids, 40)
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		require.False(t, seen[id], "player %s scheduled twice", id)
		seen[id] = true
	}

	// Either preference splits evenly across the windows.
	morning := 0
	for _, f := range sched.Morning {
		morning += len(f.Players)
	}
	require.Equal(t, 20, morning)

	// The week crossed the parallel threshold, so the pool did the work.
	stats, err := mgr.PoolStats()
	require.NoError(t, err)
	require.Positive(t, stats.Completed)
}

func TestManager_AvailabilityFlow(t *testing.T) {
	ctx := context.Background()
	roster := mkRoster(4, types.PreferEither)
	mgr, _ := startTestManager(t, roster)

	rec, err := mgr.SetPlayerAvailabilityAtomic(ctx, "week-1", "p000", true)
	require.NoError(t, err)
	require.Equal(t, scheduler.OpCompleted, rec.Status)

	ok, err := mgr.VerifyAvailabilityPersisted(ctx, "week-1", map[string]bool{"p000": true})
	require.NoError(t, err)
	require.True(t, ok)

	// Unknown players are rejected by the roster-backed store and the
	// record resolves failed.
	rec, err = mgr.SetPlayerAvailabilityAtomic(ctx, "week-1", "stranger", true)
	require.Error(t, err)
	require.Equal(t, scheduler.OpFailed, rec.Status)

	// Rollback restores the recorded original value.
	rec, err = mgr.SetPlayerAvailabilityAtomic(ctx, "week-1", "p000", false)
	require.NoError(t, err)
	require.NoError(t, mgr.RollbackAvailabilityChanges(ctx, rec))

	ok, err = mgr.VerifyAvailabilityPersisted(ctx, "week-1", map[string]bool{"p000": true})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestManager_PairingDiversification(t *testing.T) {
	ctx := context.Background()
	roster := mkRoster(8, types.PreferAM)
	mgr, src := startTestManager(t, roster)

	generate := func(weekID string) *scheduler.Schedule {
		week := mkWeek(weekID)
		for _, p := range roster {
			require.NoError(t, src.SetAvailability(ctx, week.ID, p.ID, true))
		}
		players, err := mgr.AvailablePlayers(ctx, week.ID)
		require.NoError(t, err)
		sched, err := mgr.GenerateScheduleForWeek(ctx, week, players)
		require.NoError(t, err)

		return sched
	}

	first := generate("week-1")
	second := generate("week-2")

	// Week two avoids repeating week one's exact groups: backed by the
	// KV pairing history, the heuristic mixes previously met players.
	require.NotEqual(t,
		first.Morning[0].PlayerIDs(),
		second.Morning[0].PlayerIDs(),
	)
}
