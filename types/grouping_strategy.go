package types

import "context"

// GroupingStrategy partitions one window's player list into foursome
// memberships.
//
// Implementations must be deterministic for a given input order and
// history state, must preserve every input player exactly once across
// the returned groups, and must size every group between 1 and
// FoursomeCapacity. A trailing remainder group of 1-3 players is valid.
type GroupingStrategy interface {
	// Group partitions players into groups of up to four, consulting
	// history (which may be nil) to diversify pairings.
	Group(ctx context.Context, seasonID string, players []Player, history PairingHistory) ([][]Player, error)
}
