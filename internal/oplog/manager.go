package oplog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rservant/indoor-golf-scheduler-sub006/internal/logging"
	"github.com/rservant/indoor-golf-scheduler-sub006/types"
	"github.com/zeebo/xxh3"
)

// recordKeyPrefix namespaces operation records within the bucket.
const recordKeyPrefix = "op."

// Config configures a Manager.
type Config struct {
	// Records is the KV bucket holding operation records. Required.
	Records jetstream.KeyValue

	// Store is the availability store the manager mutates. Required.
	Store types.AvailabilityStore

	// Logger for operation events (default: no logging).
	Logger types.Logger
}

// Manager executes availability mutations under durable intent records.
type Manager struct {
	cfg   Config
	queue *keyQueue

	// now is swappable in tests.
	now func() time.Time
}

// New creates an operation manager.
//
// Parameters:
//   - cfg: Manager configuration; Records and Store are required
//
// Returns:
//   - *Manager: Initialized manager
//   - error: Configuration error
func New(cfg Config) (*Manager, error) {
	if cfg.Records == nil {
		return nil, fmt.Errorf("%w: operation manager requires a records bucket", types.ErrValidation)
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("%w: operation manager requires an availability store", types.ErrValidation)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}

	return &Manager{cfg: cfg, queue: newKeyQueue(), now: time.Now}, nil
}

// SetPlayerAvailability updates one player's availability for a week.
//
// The intent is persisted before the write and the write is verified
// against the store afterwards, so a crash at any point leaves a record
// that DetectInterruptions can converge.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - weekID: Week to mutate
//   - playerID: Affected player
//   - available: Intended availability value
//
// Returns:
//   - *types.OperationRecord: The resolved record (completed or failed)
//   - error: Mutation or persistence error; nil when the record completed
func (m *Manager) SetPlayerAvailability(ctx context.Context, weekID, playerID string, available bool) (*types.OperationRecord, error) {
	if weekID == "" || playerID == "" {
		return nil, fmt.Errorf("%w: week and player IDs required", types.ErrValidation)
	}

	unlock := m.queue.lockPlayer(weekID, playerID)
	defer unlock()

	rec, err := m.openRecord(ctx, types.OpIndividual, weekID, []string{playerID}, map[string]bool{playerID: available})
	if err != nil {
		return nil, err
	}

	if err := m.cfg.Store.SetAvailability(ctx, weekID, playerID, available); err != nil {
		m.resolve(ctx, rec, types.OpFailed)
		return rec, fmt.Errorf("set availability for %s: %w", playerID, err)
	}

	ok, err := m.VerifyAvailabilityPersisted(ctx, weekID, rec.TargetState)
	if err != nil {
		m.resolve(ctx, rec, types.OpFailed)
		return rec, err
	}
	if !ok {
		m.resolve(ctx, rec, types.OpFailed)
		return rec, fmt.Errorf("%w: availability write for %s not observed on readback", types.ErrPersistence, playerID)
	}

	if err := m.resolve(ctx, rec, types.OpCompleted); err != nil {
		return rec, err
	}

	return rec, nil
}

// SetBulkAvailability marks every listed player available or unavailable
// for the week.
//
// The week is taken exclusively for the duration. If any write fails
// partway, the already-applied writes are rolled back to the recorded
// original state before the record is marked failed.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - weekID: Week to mutate
//   - playerIDs: Affected players
//   - available: Intended value for every listed player
//
// Returns:
//   - *types.OperationRecord: The resolved record
//   - error: First write error, joined with the rollback error if the
//     rollback also failed, or nil
func (m *Manager) SetBulkAvailability(ctx context.Context, weekID string, playerIDs []string, available bool) (*types.OperationRecord, error) {
	if weekID == "" || len(playerIDs) == 0 {
		return nil, fmt.Errorf("%w: week ID and at least one player required", types.ErrValidation)
	}

	unlock := m.queue.lockWeek(weekID)
	defer unlock()

	target := make(map[string]bool, len(playerIDs))
	for _, id := range playerIDs {
		target[id] = available
	}

	kind := types.OpBulkAvailable
	if !available {
		kind = types.OpBulkUnavailable
	}

	rec, err := m.openRecord(ctx, kind, weekID, playerIDs, target)
	if err != nil {
		return nil, err
	}

	for _, id := range playerIDs {
		if err := m.cfg.Store.SetAvailability(ctx, weekID, id, available); err != nil {
			m.cfg.Logger.Error("bulk availability write failed, rolling back",
				"week_id", weekID, "player_id", id, "op_id", rec.ID, "error", err)

			if rbErr := m.RollbackAvailabilityChanges(ctx, rec); rbErr != nil {
				m.cfg.Logger.Error("rollback failed", "op_id", rec.ID, "error", rbErr)
				err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			}
			m.resolve(ctx, rec, types.OpFailed)

			return rec, fmt.Errorf("bulk availability for week %s: %w", weekID, err)
		}
	}

	ok, err := m.VerifyAvailabilityPersisted(ctx, weekID, rec.TargetState)
	if err != nil {
		m.resolve(ctx, rec, types.OpFailed)
		return rec, err
	}
	if !ok {
		m.resolve(ctx, rec, types.OpFailed)
		return rec, fmt.Errorf("%w: bulk availability for week %s not observed on readback", types.ErrPersistence, weekID)
	}

	if err := m.resolve(ctx, rec, types.OpCompleted); err != nil {
		return rec, err
	}

	return rec, nil
}

// VerifyAvailabilityPersisted reports whether the store's current
// entries match every expected (player, value) pair.
func (m *Manager) VerifyAvailabilityPersisted(ctx context.Context, weekID string, expected map[string]bool) (bool, error) {
	current, err := m.cfg.Store.GetAvailability(ctx, weekID)
	if err != nil {
		return false, fmt.Errorf("read availability for verification: %w", err)
	}

	for id, want := range expected {
		if got, ok := current[id]; !ok || got != want {
			return false, nil
		}
	}

	return true, nil
}

// RollbackAvailabilityChanges restores the pre-operation state recorded
// on the operation.
//
// Players whose availability was unknown before the operation are left
// as they are; the store has no way to unset an entry.
func (m *Manager) RollbackAvailabilityChanges(ctx context.Context, rec *types.OperationRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: operation record required", types.ErrValidation)
	}

	var firstErr error
	for id, v := range OriginalWrites(rec) {
		if err := m.cfg.Store.SetAvailability(ctx, rec.WeekID, id, v); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("restore availability for %s: %w", id, err)
		}
	}

	return firstErr
}

// DetectInterruptions scans for records left pending by a prior process
// lifetime and converges each to a terminal state.
//
// For every pending record the current persisted availability is read
// first; if it already matches the target the record is simply marked
// completed, otherwise the target writes are re-applied and verified,
// and on verification failure the original state is restored and the
// record marked failed. Running the scan twice is harmless: terminal
// records are skipped and the comparison always starts from persisted
// truth.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - []*types.OperationRecord: The records resolved by this scan
//   - error: Persistence error; resolution is best-effort per record
func (m *Manager) DetectInterruptions(ctx context.Context) ([]*types.OperationRecord, error) {
	records, err := m.listRecords(ctx)
	if err != nil {
		return nil, err
	}

	var resolved []*types.OperationRecord
	for _, rec := range records {
		if rec.Status != types.OpPending {
			continue
		}

		if err := m.recoverRecord(ctx, rec); err != nil {
			m.cfg.Logger.Error("interruption recovery failed", "op_id", rec.ID, "week_id", rec.WeekID, "error", err)
			continue
		}
		resolved = append(resolved, rec)
	}

	if len(resolved) > 0 {
		m.cfg.Logger.Info("interrupted operations recovered", "count", len(resolved))
	}

	return resolved, nil
}

// recoverRecord converges one pending record to a terminal state.
func (m *Manager) recoverRecord(ctx context.Context, rec *types.OperationRecord) error {
	unlock := m.queue.lockWeek(rec.WeekID)
	defer unlock()

	current, err := m.cfg.Store.GetAvailability(ctx, rec.WeekID)
	if err != nil {
		return fmt.Errorf("read availability: %w", err)
	}

	action := Recover(rec, current)
	m.cfg.Logger.Debug("recovery decision", "op_id", rec.ID, "week_id", rec.WeekID, "action", action)

	switch action {
	case ActionNone:
		return nil

	case ActionComplete:
		return m.resolve(ctx, rec, types.OpCompleted)

	case ActionReapply:
		for id, v := range TargetDiff(rec, current) {
			if err := m.cfg.Store.SetAvailability(ctx, rec.WeekID, id, v); err != nil {
				m.restoreAndFail(ctx, rec)
				return fmt.Errorf("re-apply availability for %s: %w", id, err)
			}
		}

		ok, err := m.VerifyAvailabilityPersisted(ctx, rec.WeekID, rec.TargetState)
		if err != nil {
			return err
		}
		if !ok {
			m.restoreAndFail(ctx, rec)
			return nil
		}

		return m.resolve(ctx, rec, types.OpCompleted)
	}

	return nil
}

// restoreAndFail rolls the record's players back to original state and
// marks the record failed. Errors are logged; the record still ends up
// failed so a later scan does not retry forever.
func (m *Manager) restoreAndFail(ctx context.Context, rec *types.OperationRecord) {
	if err := m.RollbackAvailabilityChanges(ctx, rec); err != nil {
		m.cfg.Logger.Error("restore of original state failed", "op_id", rec.ID, "error", err)
	}
	if err := m.resolve(ctx, rec, types.OpFailed); err != nil {
		m.cfg.Logger.Error("mark failed errored", "op_id", rec.ID, "error", err)
	}
}

// openRecord captures the pre-state and persists a pending record.
func (m *Manager) openRecord(ctx context.Context, kind types.OperationKind, weekID string, playerIDs []string, target map[string]bool) (*types.OperationRecord, error) {
	current, err := m.cfg.Store.GetAvailability(ctx, weekID)
	if err != nil {
		return nil, fmt.Errorf("read availability for week %s: %w", weekID, err)
	}

	original := make(map[string]bool)
	for _, id := range playerIDs {
		if v, ok := current[id]; ok {
			original[id] = v
		}
	}

	rec := &types.OperationRecord{
		ID:            uuid.NewString(),
		Kind:          kind,
		WeekID:        weekID,
		PlayerIDs:     append([]string(nil), playerIDs...),
		OriginalState: original,
		TargetState:   target,
		Status:        types.OpPending,
		CreatedAt:     m.now(),
	}

	if err := m.writeRecord(ctx, rec); err != nil {
		return nil, err
	}

	m.cfg.Logger.Debug("operation recorded", "op_id", rec.ID, "kind", kind, "week_id", weekID, "players", len(playerIDs))

	return rec, nil
}

// resolve transitions the record to a terminal status and persists it.
func (m *Manager) resolve(ctx context.Context, rec *types.OperationRecord, status types.OperationStatus) error {
	rec.Status = status

	if err := m.writeRecord(ctx, rec); err != nil {
		return err
	}

	m.cfg.Logger.Debug("operation resolved", "op_id", rec.ID, "status", status)

	return nil
}

func (m *Manager) writeRecord(ctx context.Context, rec *types.OperationRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: marshal operation record: %w", types.ErrPersistence, err)
	}

	if _, err := m.cfg.Records.Put(ctx, recordKey(rec), data); err != nil {
		return fmt.Errorf("%w: write operation record: %w", types.ErrPersistence, err)
	}

	return nil
}

// listRecords loads every operation record in the bucket.
func (m *Manager) listRecords(ctx context.Context) ([]*types.OperationRecord, error) {
	lister, err := m.cfg.Records.ListKeys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("%w: list operation records: %w", types.ErrPersistence, err)
	}

	var keys []string
	for key := range lister.Keys() {
		if strings.HasPrefix(key, recordKeyPrefix) {
			keys = append(keys, key)
		}
	}

	records := make([]*types.OperationRecord, 0, len(keys))
	for _, key := range keys {
		entry, err := m.cfg.Records.Get(ctx, key)
		if err != nil {
			if errors.Is(err, jetstream.ErrKeyNotFound) {
				continue
			}

			return nil, fmt.Errorf("%w: read operation record %s: %w", types.ErrPersistence, key, err)
		}

		rec := &types.OperationRecord{}
		if err := json.Unmarshal(entry.Value(), rec); err != nil {
			return nil, fmt.Errorf("%w: corrupt operation record %s: %w", types.ErrPersistence, key, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

// recordKey builds the KV key for a record: week hash then operation ID,
// so one week's records group together under a common prefix.
func recordKey(rec *types.OperationRecord) string {
	return recordKeyPrefix + strconv.FormatUint(xxh3.HashString(rec.WeekID), 16) + "." + rec.ID
}
