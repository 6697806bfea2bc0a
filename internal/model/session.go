package model

import "time"

// SessionID uniquely identifies a scoring session
type SessionID string

// SessionCode is a short human-shareable code for joining a session.
// Codes are stored canonicalized (uppercase) and are unique while the
// session is active.
type SessionCode string

// SessionStatus represents the lifecycle state of a session
type SessionStatus string

const (
	StatusWaiting   SessionStatus = "waiting"
	StatusActive    SessionStatus = "active"
	StatusPaused    SessionStatus = "paused"
	StatusCompleted SessionStatus = "completed"
	StatusCancelled SessionStatus = "cancelled"
)

// Terminal reports whether the status is an end state
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ScoreMode selects the shape of a session's score matrix, fixed at creation
type ScoreMode string

const (
	ScoreModeRounds     ScoreMode = "rounds"
	ScoreModeCategories ScoreMode = "categories"
)

// Session represents one in-progress or finished multiplayer scoring
// instance of a game. Roster and score cells are owned by storage and
// addressed by the session ID.
type Session struct {
	ID          SessionID
	Code        SessionCode
	Status      SessionStatus
	GameSlug    string
	ScoreMode   ScoreMode
	TeamBased   bool
	MinPlayers  int
	MaxPlayers  int
	AllowGuests bool

	// TotalRounds bounds rounds-mode sessions; 0 means open-ended.
	TotalRounds int
	// Categories is the declared category set for categories-mode sessions.
	Categories []string

	HostUserRef    UserRef
	CurrentRound   int
	CreatedAt      time.Time
	EndedAt        *time.Time
	LastActivityAt time.Time
}

// HasCategory reports whether the session declares the given category
func (s *Session) HasCategory(id string) bool {
	for _, c := range s.Categories {
		if c == id {
			return true
		}
	}
	return false
}

// Discoverable reports whether the session can be found by its join code
func (s *Session) Discoverable() bool {
	return s.Status == StatusWaiting || s.Status == StatusActive
}

// validTransitions is the lifecycle state machine: waiting -> active ->
// {paused <-> active} -> completed, with cancellation reachable from any
// non-terminal state.
var validTransitions = map[SessionStatus][]SessionStatus{
	StatusWaiting: {StatusActive, StatusCancelled},
	StatusActive:  {StatusPaused, StatusCompleted, StatusCancelled},
	StatusPaused:  {StatusActive, StatusCancelled},
}

// CanTransition reports whether the status change is allowed by the
// lifecycle state machine
func (s *Session) CanTransition(to SessionStatus) bool {
	for _, next := range validTransitions[s.Status] {
		if next == to {
			return true
		}
	}
	return false
}
