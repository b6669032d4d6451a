package types

import "context"

// PairingHistory tracks how often pairs of players have shared a foursome
// across a season.
//
// The grouping heuristic reads pair counts to prefer fresh pairings; the
// engine records new co-occurrences after a schedule is assembled.
//
// Recording MUST be idempotent per (schedule ID, pair): re-recording the
// same foursome for the same schedule must not double-count, so that a
// retried or re-delivered grouping task cannot skew future groupings.
type PairingHistory interface {
	// PairCount returns the number of prior co-occurrences of two players
	// within a season. Order of the two IDs does not matter.
	PairCount(ctx context.Context, seasonID, playerA, playerB string) (int, error)

	// RecordPairings records one co-occurrence for every pair in the
	// given foursome membership, attributed to scheduleID.
	RecordPairings(ctx context.Context, seasonID, scheduleID string, playerIDs []string) error
}
