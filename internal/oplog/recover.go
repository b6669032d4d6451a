package oplog

import "github.com/rservant/indoor-golf-scheduler-sub006/types"

// Action is the recovery decision for one interrupted record.
type Action int

// Action values.
const (
	// ActionNone means the record is already terminal; nothing to do.
	ActionNone Action = iota

	// ActionComplete means persisted truth already matches the target
	// state; the record can be marked completed as-is.
	ActionComplete

	// ActionReapply means persisted truth diverges from the target; the
	// target writes should be re-applied and verified.
	ActionReapply
)

// String returns the action name for logs.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionComplete:
		return "complete"
	case ActionReapply:
		return "reapply"
	default:
		return "unknown"
	}
}

// Recover decides how to resolve a record given the currently persisted
// availability for its week.
//
// It is a pure function of its inputs: no clock, no I/O, no retries.
// The caller performs whatever writes the returned action demands and
// may call Recover again on the re-read state, which is what makes the
// overall recovery procedure idempotent.
//
// Parameters:
//   - rec: Operation record under recovery
//   - current: Persisted availability entries for rec.WeekID
//
// Returns:
//   - Action: The decision; ActionNone for non-pending records
func Recover(rec *types.OperationRecord, current map[string]bool) Action {
	if rec == nil || rec.Status != types.OpPending {
		return ActionNone
	}

	if len(TargetDiff(rec, current)) == 0 {
		return ActionComplete
	}

	return ActionReapply
}

// TargetDiff returns the writes needed to move persisted availability to
// the record's target state: player ID to intended value, for every
// affected player whose persisted entry is missing or differs.
func TargetDiff(rec *types.OperationRecord, current map[string]bool) map[string]bool {
	diff := make(map[string]bool)
	for _, id := range rec.PlayerIDs {
		want, ok := rec.TargetState[id]
		if !ok {
			continue
		}
		if got, present := current[id]; !present || got != want {
			diff[id] = want
		}
	}

	return diff
}

// OriginalWrites returns the writes that restore the pre-operation
// state. Players with no original entry had unknown availability; the
// store cannot express "unknown", so those entries are left alone.
func OriginalWrites(rec *types.OperationRecord) map[string]bool {
	writes := make(map[string]bool, len(rec.OriginalState))
	for id, v := range rec.OriginalState {
		writes[id] = v
	}

	return writes
}
