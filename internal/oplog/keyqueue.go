package oplog

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v4"
)

// keyQueue serializes mutations by key.
//
// A bulk operation takes its week exclusively. Individual operations
// share the week (so disjoint players proceed concurrently) but
// serialize on the week+player key. Locks are created on first use and
// kept for the process lifetime; the key space is bounded by the league
// roster, so there is no eviction.
type keyQueue struct {
	weeks   *xsync.Map[string, *sync.RWMutex]
	players *xsync.Map[string, *sync.Mutex]
}

func newKeyQueue() *keyQueue {
	return &keyQueue{
		weeks:   xsync.NewMap[string, *sync.RWMutex](),
		players: xsync.NewMap[string, *sync.Mutex](),
	}
}

// lockWeek takes the week exclusively; the returned func releases it.
func (q *keyQueue) lockWeek(weekID string) func() {
	mu, _ := q.weeks.LoadOrStore(weekID, &sync.RWMutex{})
	mu.Lock()

	return mu.Unlock
}

// lockPlayer serializes on (week, player) while sharing the week.
func (q *keyQueue) lockPlayer(weekID, playerID string) func() {
	wmu, _ := q.weeks.LoadOrStore(weekID, &sync.RWMutex{})
	wmu.RLock()

	pmu, _ := q.players.LoadOrStore(weekID+"\x00"+playerID, &sync.Mutex{})
	pmu.Lock()

	return func() {
		pmu.Unlock()
		wmu.RUnlock()
	}
}
