package history

import (
	"context"
	"sync"

	"github.com/rservant/indoor-golf-scheduler-sub006/types"
)

// Memory is an in-process pairing history.
type Memory struct {
	mu       sync.RWMutex
	counts   map[string]int      // seasonID|a|b -> count
	recorded map[string]struct{} // seasonID|scheduleID|a|b -> seen
}

var _ types.PairingHistory = (*Memory)(nil)

// NewMemory creates an empty in-process pairing history.
//
// Returns:
//   - *Memory: Initialized history, safe for concurrent use
func NewMemory() *Memory {
	return &Memory{
		counts:   make(map[string]int),
		recorded: make(map[string]struct{}),
	}
}

// PairCount returns the recorded co-occurrence count for a pair.
func (m *Memory) PairCount(_ context.Context, seasonID, playerA, playerB string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.counts[countKey(seasonID, playerA, playerB)], nil
}

// RecordPairings records one co-occurrence for every pair in the foursome.
//
// Recording the same foursome again for the same schedule ID is a no-op.
func (m *Memory) RecordPairings(_ context.Context, seasonID, scheduleID string, playerIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range playerIDs {
		for j := i + 1; j < len(playerIDs); j++ {
			mark := markKey(seasonID, scheduleID, playerIDs[i], playerIDs[j])
			if _, seen := m.recorded[mark]; seen {
				continue
			}
			m.recorded[mark] = struct{}{}
			m.counts[countKey(seasonID, playerIDs[i], playerIDs[j])]++
		}
	}

	return nil
}

// orderPair canonicalizes a pair so key construction is order-independent.
func orderPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}

	return a, b
}

func countKey(seasonID, a, b string) string {
	a, b = orderPair(a, b)
	return seasonID + "|" + a + "|" + b
}

func markKey(seasonID, scheduleID, a, b string) string {
	a, b = orderPair(a, b)
	return seasonID + "|" + scheduleID + "|" + a + "|" + b
}
