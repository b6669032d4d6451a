package types

import "context"

// PlayerSource supplies player records and per-week availability.
//
// Player and week persistence live outside this module; the scheduler
// only reads through this interface.
type PlayerSource interface {
	// GetAvailablePlayers returns the IDs of players explicitly marked
	// available for the week. Unknown availability is excluded.
	GetAvailablePlayers(ctx context.Context, weekID string) ([]string, error)

	// GetPlayer returns the player with the given ID, or nil if unknown.
	GetPlayer(ctx context.Context, id string) (*Player, error)
}

// AvailabilityStore is the persisted week-availability map the operation
// interruption manager mutates and reconciles against.
//
// Implementations back onto the external week store. GetAvailability is
// the source of truth recovery compares records against, so reads must
// reflect the latest committed write.
type AvailabilityStore interface {
	// GetAvailability returns the week's explicit availability entries.
	// Players with unknown availability have no entry.
	GetAvailability(ctx context.Context, weekID string) (map[string]bool, error)

	// SetAvailability writes one player's availability entry for a week.
	SetAvailability(ctx context.Context, weekID, playerID string, available bool) error
}
