// Package presence derives who is online from poll recency. Presence
// is deliberately process-local and ephemeral: a restart empties it and
// the next round of polls repopulates it within one poll interval, so
// nothing here touches storage.
package presence

import (
	"sync"
	"time"

	"github.com/tallydeck/tallydeck/internal/dependencies/clock"
	"github.com/tallydeck/tallydeck/internal/model"
)

// DefaultTimeout is how long after a player's last poll they still
// count as online
const DefaultTimeout = 45 * time.Second

// Tracker records last-seen times per session and player
type Tracker struct {
	mu       sync.RWMutex
	lastSeen map[model.SessionID]map[model.PlayerID]time.Time
	clock    clock.Clock
	timeout  time.Duration
}

// NewTracker creates a presence tracker with the given online window
func NewTracker(clock clock.Clock, timeout time.Duration) *Tracker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Tracker{
		lastSeen: make(map[model.SessionID]map[model.PlayerID]time.Time),
		clock:    clock,
		timeout:  timeout,
	}
}

// Touch marks the player as seen now
func (t *Tracker) Touch(sessionID model.SessionID, playerID model.PlayerID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.lastSeen[sessionID] == nil {
		t.lastSeen[sessionID] = make(map[model.PlayerID]time.Time)
	}
	t.lastSeen[sessionID][playerID] = t.clock.Now()
}

// Online reports whether the player polled within the online window
func (t *Tracker) Online(sessionID model.SessionID, playerID model.PlayerID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	seen, ok := t.lastSeen[sessionID][playerID]
	if !ok {
		return false
	}
	return t.clock.Now().Sub(seen) <= t.timeout
}

// OnlineSet returns the online flag for each given player
func (t *Tracker) OnlineSet(sessionID model.SessionID, playerIDs []model.PlayerID) map[model.PlayerID]bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	now := t.clock.Now()
	out := make(map[model.PlayerID]bool, len(playerIDs))
	for _, id := range playerIDs {
		seen, ok := t.lastSeen[sessionID][id]
		out[id] = ok && now.Sub(seen) <= t.timeout
	}
	return out
}

// Forget drops a session's presence map. Called when a session ends so
// the map does not grow for the process's life.
func (t *Tracker) Forget(sessionID model.SessionID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.lastSeen, sessionID)
}
