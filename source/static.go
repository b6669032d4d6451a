package source

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rservant/indoor-golf-scheduler-sub006/types"
)

// Static serves a fixed player roster and in-memory week availability.
//
// It implements both types.PlayerSource and types.AvailabilityStore,
// which makes it a complete stand-in for the external player/week store
// in examples and tests.
type Static struct {
	mu           sync.RWMutex
	players      map[string]types.Player
	availability map[string]map[string]bool // weekID -> playerID -> available
}

var (
	_ types.PlayerSource      = (*Static)(nil)
	_ types.AvailabilityStore = (*Static)(nil)
)

// NewStatic creates a static source from a fixed roster.
//
// Parameters:
//   - players: Roster to serve; copied, later mutations of the slice are not seen
//
// Returns:
//   - *Static: Initialized source with no availability entries
//
// Example:
//
//	src := source.NewStatic([]types.Player{
//	    {ID: "p1", Preference: types.PreferAM, SeasonID: "s1"},
//	})
//	_ = src.SetAvailability(ctx, "week-1", "p1", true)
func NewStatic(players []types.Player) *Static {
	byID := make(map[string]types.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}

	return &Static{
		players:      byID,
		availability: make(map[string]map[string]bool),
	}
}

// GetPlayer returns the player with the given ID, or nil if unknown.
func (s *Static) GetPlayer(_ context.Context, id string) (*types.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[id]
	if !ok {
		return nil, nil
	}

	return &p, nil
}

// GetAvailablePlayers returns the IDs explicitly marked available for a
// week, sorted so callers see a stable input order.
func (s *Static) GetAvailablePlayers(_ context.Context, weekID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	week := s.availability[weekID]
	ids := make([]string, 0, len(week))
	for id, ok := range week {
		if ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	return ids, nil
}

// GetAvailability returns a copy of the week's explicit availability entries.
func (s *Static) GetAvailability(_ context.Context, weekID string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	week := s.availability[weekID]
	out := make(map[string]bool, len(week))
	for id, ok := range week {
		out[id] = ok
	}

	return out, nil
}

// SetAvailability writes one player's availability entry for a week.
//
// Returns an error wrapping types.ErrNotFound for players outside the roster.
func (s *Static) SetAvailability(_ context.Context, weekID, playerID string, available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[playerID]; !ok {
		return fmt.Errorf("%w: player %s", types.ErrNotFound, playerID)
	}

	week := s.availability[weekID]
	if week == nil {
		week = make(map[string]bool)
		s.availability[weekID] = week
	}
	week[playerID] = available

	return nil
}
