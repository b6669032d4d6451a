package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rservant/indoor-golf-scheduler-sub006/internal/logging"
	"github.com/rservant/indoor-golf-scheduler-sub006/strategy"
	"github.com/rservant/indoor-golf-scheduler-sub006/types"
)

// WindowGrouper groups one window's player list into foursome memberships.
//
// The engine uses it to delegate grouping to the parallel path; the
// sequential path calls the configured GroupingStrategy directly.
type WindowGrouper func(ctx context.Context, seasonID string, window types.TimeWindow, players []types.Player) ([][]types.Player, error)

// Config configures an Engine.
type Config struct {
	// Strategy groups a window's players (default: strategy.NewPairingAware()).
	Strategy types.GroupingStrategy

	// History supplies pair counts and records new pairings. May be nil,
	// in which case grouping ignores history and nothing is recorded.
	History types.PairingHistory

	// Parallel, when set, is used instead of Strategy for weeks whose
	// available player count reaches ParallelThreshold.
	Parallel WindowGrouper

	// ParallelThreshold is the minimum player count for the parallel
	// path (0 disables the parallel path even when Parallel is set).
	ParallelThreshold int

	// FallbackSequential retries the sequential path in-process when the
	// parallel path fails with a worker-category error. Validation
	// failures never trigger fallback.
	FallbackSequential bool

	// Logger for engine decisions (default: no logging).
	Logger types.Logger
}

// Engine generates and validates weekly schedules.
type Engine struct {
	cfg Config
}

// New creates an assignment engine.
//
// Parameters:
//   - cfg: Engine configuration; zero fields get safe defaults
//
// Returns:
//   - *Engine: Initialized engine
func New(cfg Config) *Engine {
	if cfg.Strategy == nil {
		cfg.Strategy = strategy.NewPairingAware()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}

	return &Engine{cfg: cfg}
}

// Generate builds a schedule for the week from its available players.
//
// Preconditions: players is the subset of week-known players whose
// availability entry is true; resolving "unknown" availability is the
// caller's job. Malformed references are rejected before generation
// begins, so a returned error implies no pairing history was recorded.
//
// Zero available players yields an empty, valid schedule.
//
// Parameters:
//   - ctx: Context for grouping and history access
//   - week: The scheduling unit
//   - players: Available players in input order
//
// Returns:
//   - *types.Schedule: Assembled schedule, window sequences in formation order
//   - error: Precondition failure (wraps types.ErrValidation) or grouping error
func (e *Engine) Generate(ctx context.Context, week *types.Week, players []types.Player) (*types.Schedule, error) {
	if err := checkPreconditions(week, players); err != nil {
		return nil, err
	}

	now := time.Now()
	sched := &types.Schedule{
		ID:           uuid.NewString(),
		WeekID:       week.ID,
		Morning:      []types.Foursome{},
		Afternoon:    []types.Foursome{},
		CreatedAt:    now,
		LastModified: now,
	}
	if len(players) == 0 {
		return sched, nil
	}

	am, pm, either := partitionByPreference(players)
	morning, afternoon := balanceEither(am, pm, either)

	e.cfg.Logger.Debug("windows balanced",
		"week_id", week.ID,
		"am", len(am), "pm", len(pm), "either", len(either),
		"morning", len(morning), "afternoon", len(afternoon),
	)

	parallel := e.cfg.Parallel != nil &&
		e.cfg.ParallelThreshold > 0 &&
		len(players) >= e.cfg.ParallelThreshold

	morningGroups, err := e.groupWindow(ctx, week.SeasonID, types.MorningWindow, morning, parallel)
	if err != nil {
		return nil, err
	}
	afternoonGroups, err := e.groupWindow(ctx, week.SeasonID, types.AfternoonWindow, afternoon, parallel)
	if err != nil {
		return nil, err
	}

	sched.Morning = toFoursomes(morningGroups, types.MorningWindow)
	sched.Afternoon = toFoursomes(afternoonGroups, types.AfternoonWindow)

	if err := e.recordPairings(ctx, week.SeasonID, sched); err != nil {
		return nil, err
	}

	return sched, nil
}

// groupWindow groups one window's players, dispatching to the parallel
// path when requested and falling back sequentially on worker faults.
func (e *Engine) groupWindow(ctx context.Context, seasonID string, window types.TimeWindow, players []types.Player, parallel bool) ([][]types.Player, error) {
	if len(players) == 0 {
		return nil, nil
	}

	if parallel {
		groups, err := e.cfg.Parallel(ctx, seasonID, window, players)
		if err == nil {
			return groups, nil
		}
		if !e.cfg.FallbackSequential || !types.IsWorkerCategory(err) {
			return nil, fmt.Errorf("parallel grouping %s: %w", window, err)
		}

		e.cfg.Logger.Warn("parallel grouping failed, falling back to sequential",
			"window", window, "players", len(players), "error", err)
	}

	groups, err := e.cfg.Strategy.Group(ctx, seasonID, players, e.cfg.History)
	if err != nil {
		return nil, fmt.Errorf("grouping %s: %w", window, err)
	}

	return groups, nil
}

// recordPairings writes each foursome's co-occurrences to history.
func (e *Engine) recordPairings(ctx context.Context, seasonID string, sched *types.Schedule) error {
	if e.cfg.History == nil {
		return nil
	}

	for _, f := range sched.Foursomes() {
		if err := e.cfg.History.RecordPairings(ctx, seasonID, sched.ID, f.PlayerIDs()); err != nil {
			return fmt.Errorf("record pairings: %w", err)
		}
	}

	return nil
}

// checkPreconditions rejects malformed input before any work happens.
func checkPreconditions(week *types.Week, players []types.Player) error {
	if week == nil || week.ID == "" {
		return fmt.Errorf("%w: %w", types.ErrValidation, types.ErrNilWeek)
	}

	seen := make(map[string]struct{}, len(players))
	for _, p := range players {
		if p.ID == "" {
			return fmt.Errorf("%w: player with empty id", types.ErrValidation)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: duplicate player %s in available set", types.ErrValidation, p.ID)
		}
		seen[p.ID] = struct{}{}

		if week.SeasonID != "" && p.SeasonID != "" && p.SeasonID != week.SeasonID {
			return fmt.Errorf("%w: %w: player %s", types.ErrValidation, types.ErrForeignPlayer, p.ID)
		}
	}

	return nil
}

// toFoursomes tags groups with their window and position index.
func toFoursomes(groups [][]types.Player, window types.TimeWindow) []types.Foursome {
	out := make([]types.Foursome, len(groups))
	for i, g := range groups {
		out[i] = types.Foursome{Players: g, Window: window, Position: i}
	}

	return out
}
