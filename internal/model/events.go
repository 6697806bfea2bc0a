package model

import (
	"encoding/json"
	"time"
)

// EventType identifies the type of event
type EventType string

const (
	EventSessionCreated EventType = "session.created"
	EventPlayerJoined   EventType = "player.joined"
	EventPlayerLeft     EventType = "player.left"
	EventPlayerReady    EventType = "player.ready_changed"
	EventScoreCellSet   EventType = "score.cell_set"
	EventRoundAdvanced  EventType = "round.advanced"
	EventStatusChanged  EventType = "session.status_changed"
)

// Event is an immutable record of a state-changing occurrence within a
// session. Seq is strictly increasing per session with no gaps for
// committed events; it is the synchronization cursor handed to pollers.
type Event struct {
	SessionID SessionID
	Seq       uint64
	Type      EventType
	Payload   json.RawMessage
	ActorRef  UserRef // empty for system-triggered events
	ActorName string
	CreatedAt time.Time
}

// EncodePayload marshals a typed payload for storage on an Event.
// Payload structs below are plain data; marshaling them cannot fail.
func EncodePayload(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}

// SessionCreatedPayload seeds replay with the session's fixed configuration
type SessionCreatedPayload struct {
	Code        SessionCode `json:"code"`
	GameSlug    string      `json:"game_slug"`
	ScoreMode   ScoreMode   `json:"score_mode"`
	TeamBased   bool        `json:"team_based"`
	MinPlayers  int         `json:"min_players"`
	MaxPlayers  int         `json:"max_players"`
	AllowGuests bool        `json:"allow_guests"`
	TotalRounds int         `json:"total_rounds,omitempty"`
	Categories  []string    `json:"categories,omitempty"`
	HostUserRef UserRef     `json:"host_user_ref"`
}

// PlayerJoinedPayload contains data for player joined events. Re-joins
// of a previously left seat reuse the original PlayerID and Position.
type PlayerJoinedPayload struct {
	PlayerID    PlayerID `json:"player_id"`
	DisplayName string   `json:"display_name"`
	Position    int      `json:"position"`
	UserRef     UserRef  `json:"user_ref,omitempty"`
	GuestID     string   `json:"guest_id,omitempty"`
}

// PlayerLeftPayload contains data for player left events
type PlayerLeftPayload struct {
	PlayerID PlayerID `json:"player_id"`
}

// PlayerReadyPayload contains data for ready flag changes
type PlayerReadyPayload struct {
	PlayerID PlayerID `json:"player_id"`
	Ready    bool     `json:"ready"`
}

// ScoreCellSetPayload contains data for score cell writes
type ScoreCellSetPayload struct {
	PlayerID   PlayerID `json:"player_id"`
	Round      int      `json:"round,omitempty"`
	CategoryID string   `json:"category_id,omitempty"`
	Value      int      `json:"value"`
}

// RoundAdvancedPayload contains data for round advances
type RoundAdvancedPayload struct {
	Round int `json:"round"`
}

// StatusChangedPayload contains data for lifecycle transitions
type StatusChangedPayload struct {
	From SessionStatus `json:"from"`
	To   SessionStatus `json:"to"`
}
