package distribute

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rservant/indoor-golf-scheduler-sub006/internal/pool"
	"github.com/rservant/indoor-golf-scheduler-sub006/strategy"
	"github.com/rservant/indoor-golf-scheduler-sub006/types"
	"github.com/stretchr/testify/require"
)

func mkPlayers(n int) []types.Player {
	players := make([]types.Player, n)
	for i := range players {
		players[i] = types.Player{
			ID:         fmt.Sprintf("p%03d", i),
			FirstName:  fmt.Sprintf("Player%d", i),
			SeasonID:   "season-1",
			Preference: types.PreferEither,
		}
	}

	return players
}

func newTestPool(t *testing.T, size int, strat types.GroupingStrategy) *pool.Pool {
	t.Helper()

	p, err := pool.New(pool.Config{
		Size:     size,
		Strategy: strat,
	})
	require.NoError(t, err)
	require.NoError(t, p.Initialize(context.Background()))
	t.Cleanup(func() { p.Terminate() })

	return p
}

func TestDistributor_Distribute(t *testing.T) {
	t.Run("groups all players in input order", func(t *testing.T) {
		p := newTestPool(t, 3, strategy.NewSequential())
		d := New(p, Options{
			MinChunkSize:   8,
			MaxChunkSize:   16,
			TargetChunks:   4,
			MaxConcurrency: 2,
		})

		players := mkPlayers(50)
		groups, err := d.Distribute(context.Background(), "season-1", types.MorningWindow, players)
		require.NoError(t, err)

		// Sequential grouping within in-order chunks preserves overall
		// input order across the concatenated result.
		var got []string
		for _, g := range groups {
			require.LessOrEqual(t, len(g), types.FoursomeCapacity)
			for _, pl := range g {
				got = append(got, pl.ID)
			}
		}
		require.Len(t, got, 50)

		want := make([]string, 0, 50)
		for _, pl := range players {
			want = append(want, pl.ID)
		}
		require.Equal(t, want, got)
	})

	t.Run("empty input yields no groups", func(t *testing.T) {
		p := newTestPool(t, 2, strategy.NewSequential())
		d := New(p, Options{})

		groups, err := d.Distribute(context.Background(), "season-1", types.MorningWindow, nil)
		require.NoError(t, err)
		require.Empty(t, groups)
	})

	t.Run("reports weight-based progress", func(t *testing.T) {
		var mu sync.Mutex
		var completions []int
		total := 0

		p := newTestPool(t, 2, strategy.NewSequential())
		d := New(p, Options{
			MinChunkSize:   8,
			MaxChunkSize:   8,
			TargetChunks:   1,
			MaxConcurrency: 1,
			Progress: func(completed, t int) {
				mu.Lock()
				defer mu.Unlock()
				completions = append(completions, completed)
				total = t
			},
		})

		_, err := d.Distribute(context.Background(), "season-1", types.AfternoonWindow, mkPlayers(24))
		require.NoError(t, err)

		mu.Lock()
		defer mu.Unlock()
		require.Equal(t, 24, total)
		require.Len(t, completions, 3)
		// With MaxConcurrency 1 the chunks complete strictly in order.
		require.Equal(t, []int{8, 16, 24}, completions)
	})

	t.Run("fails fast on chunk error", func(t *testing.T) {
		p := newTestPool(t, 2, &failingStrategy{failID: "p010"})
		d := New(p, Options{
			MinChunkSize:   8,
			MaxChunkSize:   8,
			MaxConcurrency: 2,
		})

		_, err := d.Distribute(context.Background(), "season-1", types.MorningWindow, mkPlayers(40))
		require.Error(t, err)
		require.ErrorContains(t, err, "no groups for you")
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		p := newTestPool(t, 1, &slowStrategy{delay: 50 * time.Millisecond})
		d := New(p, Options{
			MinChunkSize:   8,
			MaxChunkSize:   8,
			MaxConcurrency: 1,
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := d.Distribute(ctx, "season-1", types.MorningWindow, mkPlayers(40))
		require.Error(t, err)
	})
}

func TestChunkSizing(t *testing.T) {
	opts := Options{
		MinChunkSize: 8,
		MaxChunkSize: 40,
		TargetChunks: 8,
	}

	t.Run("adapts to total and clamps to bounds", func(t *testing.T) {
		// Small input clamps to the minimum.
		require.Equal(t, 8, chunkSizeFor(10, opts))
		// 200/8 = 25, rounded up to a multiple of four.
		require.Equal(t, 28, chunkSizeFor(200, opts))
		// Large input clamps to the maximum.
		require.Equal(t, 40, chunkSizeFor(10000, opts))
	})

	t.Run("chunk weight equals player count", func(t *testing.T) {
		chunks := buildChunks("season-1", types.MorningWindow, mkPlayers(21), opts)
		require.Len(t, chunks, 3)

		sum := 0
		for _, c := range chunks {
			require.Equal(t, len(c.Players), c.Weight)
			sum += c.Weight
		}
		require.Equal(t, 21, sum)
		// Only the final chunk may be short.
		require.Equal(t, 8, chunks[0].Weight)
		require.Equal(t, 8, chunks[1].Weight)
		require.Equal(t, 5, chunks[2].Weight)
	})

	t.Run("rounds bounds up to foursome multiples", func(t *testing.T) {
		d := New(nil, Options{MinChunkSize: 5, MaxChunkSize: 9})
		require.Equal(t, 8, d.opts.MinChunkSize)
		require.Equal(t, 12, d.opts.MaxChunkSize)
	})
}

// failingStrategy errors whenever the chunk contains failID.
type failingStrategy struct {
	failID string
}

func (s *failingStrategy) Group(ctx context.Context, seasonID string, players []types.Player, history types.PairingHistory) ([][]types.Player, error) {
	for _, p := range players {
		if p.ID == s.failID {
			return nil, fmt.Errorf("no groups for you")
		}
	}

	return strategy.NewSequential().Group(ctx, seasonID, players, history)
}

// slowStrategy sleeps before grouping.
type slowStrategy struct {
	delay time.Duration
}

func (s *slowStrategy) Group(ctx context.Context, seasonID string, players []types.Player, history types.PairingHistory) ([][]types.Player, error) {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return strategy.NewSequential().Group(ctx, seasonID, players, history)
}
