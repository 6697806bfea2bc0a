// Package sessionlock serializes mutations per session. Every mutation
// targeting a session (state transitions, event appends, score writes)
// runs inside the session's critical section; requests against other
// sessions proceed in parallel with no shared lock. Reads take no lock.
package sessionlock

import (
	"sync"

	"github.com/tallydeck/tallydeck/internal/model"
)

// Keyed is a set of mutexes keyed by session ID
type Keyed struct {
	mu    sync.Mutex
	locks map[model.SessionID]*sync.Mutex
}

// New creates an empty Keyed lock set
func New() *Keyed {
	return &Keyed{locks: make(map[model.SessionID]*sync.Mutex)}
}

// Lock acquires the session's mutex and returns the unlock func.
// Locks are retained for the life of the process; the map is sized to
// the number of sessions this server has mutated, not to request rate.
func (k *Keyed) Lock(id model.SessionID) func() {
	k.mu.Lock()
	l, ok := k.locks[id]
	if !ok {
		l = &sync.Mutex{}
		k.locks[id] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
