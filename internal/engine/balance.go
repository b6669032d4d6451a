package engine

import "github.com/rservant/indoor-golf-scheduler-sub006/types"

// partitionByPreference splits players into AM, PM, and Either groups,
// preserving input order within each group.
func partitionByPreference(players []types.Player) (am, pm, either []types.Player) {
	for _, p := range players {
		switch p.Preference {
		case types.PreferAM:
			am = append(am, p)
		case types.PreferPM:
			pm = append(pm, p)
		default:
			either = append(either, p)
		}
	}

	return am, pm, either
}

// balanceEither distributes Either players between the windows with a
// deterministic deficit rule.
//
// With m = |AM|, a = |PM|, e = |Either|:
//   - m < a: morning receives min(ceil((a-m+e)/2), e) Either players
//   - a < m: afternoon receives min(ceil((m-a+e)/2), e) Either players
//   - m == a: morning receives floor(e/2)
//
// The deficit window receives the leading Either players in input order;
// the remainder goes to the other window.
func balanceEither(am, pm, either []types.Player) (morning, afternoon []types.Player) {
	m, a, e := len(am), len(pm), len(either)

	var toMorning int
	switch {
	case m < a:
		toMorning = min((a-m+e+1)/2, e)
	case a < m:
		toMorning = e - min((m-a+e+1)/2, e)
	default:
		toMorning = e / 2
	}

	morning = append(morning, am...)
	afternoon = append(afternoon, pm...)

	if m <= a {
		// Morning is the (possibly tied) deficit window: it takes the
		// leading Either players.
		morning = append(morning, either[:toMorning]...)
		afternoon = append(afternoon, either[toMorning:]...)
	} else {
		afternoon = append(afternoon, either[:e-toMorning]...)
		morning = append(morning, either[e-toMorning:]...)
	}

	return morning, afternoon
}
