package types

import "time"

// FoursomeCapacity is the maximum number of players in one group.
const FoursomeCapacity = 4

// Foursome is a group of 1-4 players assigned together to one time window.
//
// A foursome never mixes windows, and a player appears in at most one
// foursome per schedule. Remainder groups of fewer than four players are
// valid and are never merged across windows.
type Foursome struct {
	// Players is the ordered group membership, 1 to 4 entries.
	Players []Player `json:"players"`

	// Window is the time window the group plays in.
	Window TimeWindow `json:"window"`

	// Position is the 0-based slot index within the window.
	Position int `json:"position"`
}

// PlayerIDs returns the member IDs in group order.
func (f *Foursome) PlayerIDs() []string {
	ids := make([]string, len(f.Players))
	for i, p := range f.Players {
		ids[i] = p.ID
	}

	return ids
}

// Schedule is the complete assignment of one week's available players
// into morning and afternoon foursomes.
//
// Invariant: the union of all foursome memberships contains no duplicate
// player ID.
type Schedule struct {
	// ID uniquely identifies the schedule.
	ID string `json:"id"`

	// WeekID is the owning week.
	WeekID string `json:"weekId"`

	// Morning and Afternoon hold the window sequences in formation order.
	Morning   []Foursome `json:"morning"`
	Afternoon []Foursome `json:"afternoon"`

	// CreatedAt is the generation time.
	CreatedAt time.Time `json:"createdAt"`

	// LastModified strictly increases on every atomic replacement,
	// giving a total order over regenerations of the week.
	LastModified time.Time `json:"lastModified"`
}

// Foursomes returns both window sequences, morning first.
func (s *Schedule) Foursomes() []Foursome {
	out := make([]Foursome, 0, len(s.Morning)+len(s.Afternoon))
	out = append(out, s.Morning...)
	out = append(out, s.Afternoon...)

	return out
}

// PlayerCount returns the total number of scheduled players.
func (s *Schedule) PlayerCount() int {
	n := 0
	for _, f := range s.Foursomes() {
		n += len(f.Players)
	}

	return n
}

// ValidationResult is the outcome of checking a schedule against its
// week and player roster.
//
// Errors make the schedule invalid. Warnings flag imbalance (for example
// one window empty while the other is full) without failing validity.
type ValidationResult struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}
