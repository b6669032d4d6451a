package engine

import (
	"fmt"

	"github.com/rservant/indoor-golf-scheduler-sub006/types"
)

// Validate checks a schedule against its week and player roster.
//
// Errors (schedule invalid):
//   - a scheduled player is missing from the roster
//   - a player appears in more than one foursome
//   - an AM-preference player is scheduled in the afternoon, or a
//     PM-preference player in the morning
//   - a foursome is empty or oversized
//   - a foursome's window tag disagrees with the sequence holding it
//
// Warnings (schedule still valid):
//   - one window is empty while the other holds multiple foursomes
//   - a scheduled player is not marked available for the week
//
// Parameters:
//   - schedule: Schedule to check
//   - players: Roster the schedule must draw from
//   - week: Owning week, used for availability warnings (may be nil)
//
// Returns:
//   - types.ValidationResult: IsValid plus descriptive errors and warnings
func Validate(schedule *types.Schedule, players []types.Player, week *types.Week) types.ValidationResult {
	res := types.ValidationResult{Errors: []string{}, Warnings: []string{}}
	if schedule == nil {
		res.Errors = append(res.Errors, "schedule is nil")
		return res
	}

	roster := make(map[string]types.Player, len(players))
	for _, p := range players {
		roster[p.ID] = p
	}

	seen := make(map[string]bool)
	checkWindow := func(seq []types.Foursome, window types.TimeWindow) {
		for i, f := range seq {
			if f.Window != window {
				res.Errors = append(res.Errors,
					fmt.Sprintf("%s foursome %d tagged %s", window, i, f.Window))
			}
			if len(f.Players) < 1 || len(f.Players) > types.FoursomeCapacity {
				res.Errors = append(res.Errors,
					fmt.Sprintf("%s foursome %d has %d players, want 1-%d", window, i, len(f.Players), types.FoursomeCapacity))
			}

			for _, p := range f.Players {
				rp, known := roster[p.ID]
				if !known {
					res.Errors = append(res.Errors,
						fmt.Sprintf("scheduled player %s not found in roster", p.ID))
				} else if !rp.Preference.Allows(window) {
					res.Errors = append(res.Errors,
						fmt.Sprintf("player %s prefers %s but is scheduled in %s", p.ID, rp.Preference, window))
				}

				if seen[p.ID] {
					res.Errors = append(res.Errors,
						fmt.Sprintf("player %s appears in more than one foursome", p.ID))
				}
				seen[p.ID] = true

				if week != nil && week.Availability != nil {
					if avail, ok := week.Availability[p.ID]; !ok || !avail {
						res.Warnings = append(res.Warnings,
							fmt.Sprintf("player %s is scheduled but not marked available", p.ID))
					}
				}
			}
		}
	}

	checkWindow(schedule.Morning, types.MorningWindow)
	checkWindow(schedule.Afternoon, types.AfternoonWindow)

	if len(schedule.Morning) == 0 && len(schedule.Afternoon) > 1 {
		res.Warnings = append(res.Warnings, "morning window is empty while afternoon is full")
	}
	if len(schedule.Afternoon) == 0 && len(schedule.Morning) > 1 {
		res.Warnings = append(res.Warnings, "afternoon window is empty while morning is full")
	}

	res.IsValid = len(res.Errors) == 0

	return res
}
