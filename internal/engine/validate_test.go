package engine

import (
	"strings"
	"testing"

	"github.com/rservant/indoor-golf-scheduler-sub006/types"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	roster := []types.Player{
		{ID: "a", Preference: types.PreferAM, SeasonID: "s1"},
		{ID: "b", Preference: types.PreferPM, SeasonID: "s1"},
		{ID: "c", Preference: types.PreferEither, SeasonID: "s1"},
		{ID: "d", Preference: types.PreferEither, SeasonID: "s1"},
	}
	week := &types.Week{
		ID: "week-1", SeasonID: "s1",
		Availability: map[string]bool{"a": true, "b": true, "c": true, "d": true},
	}

	t.Run("valid schedule passes", func(t *testing.T) {
		sched := &types.Schedule{
			WeekID: "week-1",
			Morning: []types.Foursome{
				{Players: []types.Player{roster[0], roster[2]}, Window: types.MorningWindow},
			},
			Afternoon: []types.Foursome{
				{Players: []types.Player{roster[1], roster[3]}, Window: types.AfternoonWindow},
			},
		}

		res := Validate(sched, roster, week)

		require.True(t, res.IsValid)
		require.Empty(t, res.Errors)
		require.Empty(t, res.Warnings)
	})

	t.Run("unknown player is an error", func(t *testing.T) {
		sched := &types.Schedule{
			Morning: []types.Foursome{
				{Players: []types.Player{{ID: "ghost"}}, Window: types.MorningWindow},
			},
		}

		res := Validate(sched, roster, week)

		require.False(t, res.IsValid)
		require.Contains(t, res.Errors[0], "ghost")
	})

	t.Run("duplicate player is an error", func(t *testing.T) {
		sched := &types.Schedule{
			Morning: []types.Foursome{
				{Players: []types.Player{roster[0]}, Window: types.MorningWindow},
				{Players: []types.Player{roster[0]}, Window: types.MorningWindow, Position: 1},
			},
		}

		res := Validate(sched, roster, week)

		require.False(t, res.IsValid)
		requireContainsSubstring(t, res.Errors, "more than one foursome")
	})

	t.Run("preference violation is an error", func(t *testing.T) {
		sched := &types.Schedule{
			Afternoon: []types.Foursome{
				// roster[0] prefers AM.
				{Players: []types.Player{roster[0]}, Window: types.AfternoonWindow},
			},
		}

		res := Validate(sched, roster, week)

		require.False(t, res.IsValid)
		requireContainsSubstring(t, res.Errors, "prefers AM")
	})

	t.Run("oversized foursome is an error", func(t *testing.T) {
		five := make([]types.Player, 5)
		fiveRoster := make([]types.Player, 5)
		for i := range five {
			p := types.Player{ID: string(rune('p' + i)), Preference: types.PreferEither, SeasonID: "s1"}
			five[i], fiveRoster[i] = p, p
		}
		sched := &types.Schedule{
			Morning: []types.Foursome{{Players: five, Window: types.MorningWindow}},
		}

		res := Validate(sched, fiveRoster, nil)

		require.False(t, res.IsValid)
		requireContainsSubstring(t, res.Errors, "5 players")
	})

	t.Run("window tag mismatch is an error", func(t *testing.T) {
		sched := &types.Schedule{
			Morning: []types.Foursome{
				{Players: []types.Player{roster[2]}, Window: types.AfternoonWindow},
			},
		}

		res := Validate(sched, roster, week)

		require.False(t, res.IsValid)
	})

	t.Run("imbalance is a warning, not an error", func(t *testing.T) {
		sched := &types.Schedule{
			Morning: []types.Foursome{
				{Players: []types.Player{roster[0]}, Window: types.MorningWindow},
				{Players: []types.Player{roster[2]}, Window: types.MorningWindow, Position: 1},
			},
		}

		res := Validate(sched, roster, week)

		require.True(t, res.IsValid)
		requireContainsSubstring(t, res.Warnings, "afternoon window is empty")
	})

	t.Run("unavailable scheduled player is a warning", func(t *testing.T) {
		wk := &types.Week{ID: "week-1", Availability: map[string]bool{"a": false}}
		sched := &types.Schedule{
			Morning: []types.Foursome{
				{Players: []types.Player{roster[0]}, Window: types.MorningWindow},
			},
		}

		res := Validate(sched, roster, wk)

		require.True(t, res.IsValid)
		requireContainsSubstring(t, res.Warnings, "not marked available")
	})

	t.Run("nil schedule is invalid", func(t *testing.T) {
		res := Validate(nil, roster, week)
		require.False(t, res.IsValid)
	})
}

func requireContainsSubstring(t *testing.T, haystack []string, substr string) {
	t.Helper()
	for _, s := range haystack {
		if strings.Contains(s, substr) {
			return
		}
	}
	t.Fatalf("no entry containing %q in %v", substr, haystack)
}
