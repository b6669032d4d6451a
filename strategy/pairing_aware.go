package strategy

import (
	"context"
	"fmt"

	"github.com/rservant/indoor-golf-scheduler-sub006/types"
)

// PairingAware groups players while minimizing repeated pairings.
type PairingAware struct{}

var _ types.GroupingStrategy = (*PairingAware)(nil)

// NewPairingAware creates a new pairing-aware grouping strategy.
//
// For each emerging foursome the strategy seeds with the earliest
// remaining player, then repeatedly adds the remaining player whose
// summed prior-pairing count against the current members is lowest,
// breaking ties by input order. This bounded lookahead is not globally
// optimal but is fast, deterministic, and diversifies pairings well in
// practice.
//
// Returns:
//   - *PairingAware: Initialized pairing-aware strategy
//
// Example:
//
//	grouping := strategy.NewPairingAware()
//	groups, err := grouping.Group(ctx, "season-1", players, history)
func NewPairingAware() *PairingAware {
	return &PairingAware{}
}

// Group partitions players into foursomes preferring fresh pairings.
//
// With a nil history every pair counts as zero and the result degrades
// to input-order groups of four.
//
// Parameters:
//   - ctx: Context for history lookups
//   - seasonID: Season scope for pair counts
//   - players: Window player list in input order
//   - history: Pairing history, may be nil
//
// Returns:
//   - [][]types.Player: Groups in formation order, each of size 1-4
//   - error: History lookup error, wrapped with player context
func (p *PairingAware) Group(ctx context.Context, seasonID string, players []types.Player, history types.PairingHistory) ([][]types.Player, error) {
	if len(players) == 0 {
		return nil, nil
	}
	if history == nil {
		return NewSequential().Group(ctx, seasonID, players, nil)
	}

	// Pre-fetch all pairwise counts once; the greedy loop below reads
	// each pair several times.
	counts, err := pairCounts(ctx, seasonID, players, history)
	if err != nil {
		return nil, err
	}

	remaining := make([]types.Player, len(players))
	copy(remaining, players)

	var groups [][]types.Player
	for len(remaining) > 0 {
		size := min(types.FoursomeCapacity, len(remaining))

		// Seed with the earliest remaining player, then grow greedily.
		group := []types.Player{remaining[0]}
		remaining = remaining[1:]

		for len(group) < size {
			best := 0
			bestCost := -1
			for i, cand := range remaining {
				cost := 0
				for _, member := range group {
					cost += counts[pairKey(member.ID, cand.ID)]
				}
				// Strict less-than keeps input order on ties.
				if bestCost < 0 || cost < bestCost {
					best = i
					bestCost = cost
				}
			}

			group = append(group, remaining[best])
			remaining = append(remaining[:best], remaining[best+1:]...)
		}

		groups = append(groups, group)
	}

	return groups, nil
}

// pairCounts fetches the prior-pairing count for every player pair.
func pairCounts(ctx context.Context, seasonID string, players []types.Player, history types.PairingHistory) (map[string]int, error) {
	counts := make(map[string]int, len(players)*(len(players)-1)/2)
	for i := range players {
		for j := i + 1; j < len(players); j++ {
			n, err := history.PairCount(ctx, seasonID, players[i].ID, players[j].ID)
			if err != nil {
				return nil, fmt.Errorf("pair count %s/%s: %w", players[i].ID, players[j].ID, err)
			}
			counts[pairKey(players[i].ID, players[j].ID)] = n
		}
	}

	return counts, nil
}

// pairKey builds an order-independent map key for a player pair.
func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}

	return a + "|" + b
}
