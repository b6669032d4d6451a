package source

import (
	"testing"

	"github.com/rservant/indoor-golf-scheduler-sub006/types"
	"github.com/stretchr/testify/require"
)

func TestStatic(t *testing.T) {
	ctx := t.Context()
	src := NewStatic([]types.Player{
		{ID: "p1", FirstName: "Ann", SeasonID: "s1", Preference: types.PreferAM},
		{ID: "p2", FirstName: "Ben", SeasonID: "s1", Preference: types.PreferPM},
	})

	t.Run("serves known players", func(t *testing.T) {
		p, err := src.GetPlayer(ctx, "p1")
		require.NoError(t, err)
		require.NotNil(t, p)
		require.Equal(t, "Ann", p.FirstName)
	})

	t.Run("unknown player is nil without error", func(t *testing.T) {
		p, err := src.GetPlayer(ctx, "ghost")
		require.NoError(t, err)
		require.Nil(t, p)
	})

	t.Run("availability round-trips", func(t *testing.T) {
		require.NoError(t, src.SetAvailability(ctx, "w1", "p1", true))
		require.NoError(t, src.SetAvailability(ctx, "w1", "p2", false))

		ids, err := src.GetAvailablePlayers(ctx, "w1")
		require.NoError(t, err)
		require.Equal(t, []string{"p1"}, ids)

		all, err := src.GetAvailability(ctx, "w1")
		require.NoError(t, err)
		require.Equal(t, map[string]bool{"p1": true, "p2": false}, all)
	})

	t.Run("setting availability for an unknown player fails", func(t *testing.T) {
		err := src.SetAvailability(ctx, "w1", "ghost", true)
		require.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("weeks with no entries report empty, not missing", func(t *testing.T) {
		all, err := src.GetAvailability(ctx, "w99")
		require.NoError(t, err)
		require.Empty(t, all)
	})
}
