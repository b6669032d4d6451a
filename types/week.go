package types

import "time"

// Week is one scheduling unit of a season.
//
// Availability maps player ID to whether the player can play that week.
// A missing entry means "unknown", which is distinct from an explicit
// false: callers resolve unknowns before asking for a schedule.
type Week struct {
	// ID uniquely identifies the week.
	ID string `json:"id"`

	// SeasonID is the owning season.
	SeasonID string `json:"seasonId"`

	// Number is the 1-based week number within the season.
	Number int `json:"number"`

	// Date is the calendar date the week is played.
	Date time.Time `json:"date"`

	// Availability maps player ID to availability. Absent key = unknown.
	Availability map[string]bool `json:"availability"`

	// ScheduleID references the week's current schedule, if one exists.
	ScheduleID string `json:"scheduleId,omitempty"`
}

// AvailablePlayerIDs returns the IDs of players explicitly marked available.
//
// Unknown entries are excluded; resolving them is the caller's job.
//
// Returns:
//   - []string: player IDs with an explicit true availability entry
func (w *Week) AvailablePlayerIDs() []string {
	ids := make([]string, 0, len(w.Availability))
	for id, ok := range w.Availability {
		if ok {
			ids = append(ids, id)
		}
	}

	return ids
}
