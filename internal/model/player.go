package model

import "time"

// PlayerID uniquely identifies a roster entry within a session
type PlayerID string

// UserRef is the stable participant identity resolved from credentials.
// Empty for seats held by anonymous guests.
type UserRef string

// Player is a roster entry scoped to one session. Entries are never
// deleted: leaving sets LeftAt, preserving history.
type Player struct {
	ID          PlayerID
	SessionID   SessionID
	DisplayName string
	// Position is the seat order, unique within the session.
	Position int
	// UserRef is set for seats held by authenticated users.
	UserRef UserRef
	// GuestID is the client-held anonymous identifier recorded at join
	// time for guest seats.
	GuestID  string
	IsReady  bool
	JoinedAt time.Time
	LeftAt   *time.Time
}

// Seated reports whether the player currently holds their seat
func (p *Player) Seated() bool {
	return p.LeftAt == nil
}

// HeldBy reports whether the seat belongs to the given identity
func (p *Player) HeldBy(id Identity) bool {
	if p.UserRef != "" && p.UserRef == id.UserRef {
		return true
	}
	return p.GuestID != "" && p.GuestID == id.GuestID
}

// Account holds a registered user's credentials.
// Stored separately from roster entries; the password hash never rides
// along with session state.
type Account struct {
	UserRef      UserRef
	Username     string // login username (immutable)
	DisplayName  string
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
