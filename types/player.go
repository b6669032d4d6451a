package types

// Handedness indicates which side a player swings from.
type Handedness string

// Handedness values.
const (
	LeftHanded  Handedness = "left"
	RightHanded Handedness = "right"
)

// TimePreference expresses which daily window a player wants to play in.
//
// PreferEither players are the balancing slack: the engine moves them
// between windows to even out group counts.
type TimePreference string

// TimePreference values.
const (
	PreferAM     TimePreference = "AM"
	PreferPM     TimePreference = "PM"
	PreferEither TimePreference = "Either"
)

// TimeWindow identifies one of the two daily scheduling slots.
type TimeWindow string

// TimeWindow values.
const (
	MorningWindow   TimeWindow = "morning"
	AfternoonWindow TimeWindow = "afternoon"
)

// Allows reports whether a player with this preference may be scheduled
// into the given window.
//
// Returns:
//   - bool: true if the preference permits the window
func (p TimePreference) Allows(w TimeWindow) bool {
	switch p {
	case PreferAM:
		return w == MorningWindow
	case PreferPM:
		return w == AfternoonWindow
	default:
		return true
	}
}

// Player is a league member eligible for scheduling.
//
// Players are immutable once created; updates go through the owning
// player store, never through the scheduler.
type Player struct {
	// ID uniquely identifies the player within a season.
	ID string `json:"id"`

	// FirstName and LastName are display fields only; the scheduler keys
	// everything off ID.
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`

	// Handedness matters for bay assignment downstream, not for grouping.
	Handedness Handedness `json:"handedness"`

	// Preference selects the daily window this player wants.
	Preference TimePreference `json:"preference"`

	// SeasonID is the owning season.
	SeasonID string `json:"seasonId"`
}
