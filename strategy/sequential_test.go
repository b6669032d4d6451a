package strategy

import (
	"testing"

	"github.com/rservant/indoor-golf-scheduler-sub006/types"
	"github.com/stretchr/testify/require"
)

func mkPlayers(ids ...string) []types.Player {
	players := make([]types.Player, len(ids))
	for i, id := range ids {
		players[i] = types.Player{ID: id, SeasonID: "season-1", Preference: types.PreferEither}
	}

	return players
}

func TestSequential_Group(t *testing.T) {
	t.Run("splits into groups of four with remainder", func(t *testing.T) {
		groups, err := NewSequential().Group(t.Context(), "season-1", mkPlayers("a", "b", "c", "d", "e", "f"), nil)

		require.NoError(t, err)
		require.Len(t, groups, 2)
		require.Len(t, groups[0], 4)
		require.Len(t, groups[1], 2)
		require.Equal(t, "a", groups[0][0].ID)
		require.Equal(t, "e", groups[1][0].ID)
	})

	t.Run("empty input yields no groups", func(t *testing.T) {
		groups, err := NewSequential().Group(t.Context(), "season-1", nil, nil)

		require.NoError(t, err)
		require.Empty(t, groups)
	})

	t.Run("fewer than four players form a single remainder group", func(t *testing.T) {
		groups, err := NewSequential().Group(t.Context(), "season-1", mkPlayers("a", "b"), nil)

		require.NoError(t, err)
		require.Len(t, groups, 1)
		require.Len(t, groups[0], 2)
	})
}
