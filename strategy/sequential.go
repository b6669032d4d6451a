package strategy

import (
	"context"

	"github.com/rservant/indoor-golf-scheduler-sub006/types"
)

// Sequential groups players into foursomes in input order.
type Sequential struct{}

var _ types.GroupingStrategy = (*Sequential)(nil)

// NewSequential creates a new sequential grouping strategy.
//
// The strategy slices the player list into consecutive groups of four
// with a trailing remainder group of 1-3 players. It ignores pairing
// history entirely, which makes it deterministic, allocation-light, and
// suitable as the in-chunk baseline when no history is configured.
//
// Returns:
//   - *Sequential: Initialized sequential strategy
func NewSequential() *Sequential {
	return &Sequential{}
}

// Group partitions players into consecutive groups of up to four.
//
// Parameters:
//   - ctx: Unused; present to satisfy types.GroupingStrategy
//   - seasonID: Unused; present to satisfy types.GroupingStrategy
//   - players: Window player list in input order
//   - history: Ignored
//
// Returns:
//   - [][]types.Player: Groups in input order, each of size 1-4
//   - error: Always nil
func (s *Sequential) Group(_ context.Context, _ string, players []types.Player, _ types.PairingHistory) ([][]types.Player, error) {
	if len(players) == 0 {
		return nil, nil
	}

	groups := make([][]types.Player, 0, (len(players)+types.FoursomeCapacity-1)/types.FoursomeCapacity)
	for start := 0; start < len(players); start += types.FoursomeCapacity {
		end := min(start+types.FoursomeCapacity, len(players))

		group := make([]types.Player, end-start)
		copy(group, players[start:end])
		groups = append(groups, group)
	}

	return groups, nil
}
