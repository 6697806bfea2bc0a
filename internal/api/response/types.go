package response

import (
	"encoding/json"
	"time"

	"github.com/tallydeck/tallydeck/internal/model"
	"github.com/tallydeck/tallydeck/internal/services/score"
	"github.com/tallydeck/tallydeck/internal/services/session"
	"github.com/tallydeck/tallydeck/internal/services/sessionsync"
)

// Session is the wire representation of a session header
type Session struct {
	ID             string     `json:"id"`
	Code           string     `json:"code"`
	Status         string     `json:"status"`
	GameSlug       string     `json:"game_slug"`
	ScoreMode      string     `json:"score_mode"`
	TeamBased      bool       `json:"team_based"`
	MinPlayers     int        `json:"min_players"`
	MaxPlayers     int        `json:"max_players"`
	AllowGuests    bool       `json:"allow_guests"`
	TotalRounds    int        `json:"total_rounds,omitempty"`
	Categories     []string   `json:"categories,omitempty"`
	CurrentRound   int        `json:"current_round"`
	CreatedAt      time.Time  `json:"created_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	LastActivityAt time.Time  `json:"last_activity_at"`
}

// SessionFromModel converts a model session to its wire form
func SessionFromModel(s *model.Session) Session {
	return Session{
		ID:             string(s.ID),
		Code:           string(s.Code),
		Status:         string(s.Status),
		GameSlug:       s.GameSlug,
		ScoreMode:      string(s.ScoreMode),
		TeamBased:      s.TeamBased,
		MinPlayers:     s.MinPlayers,
		MaxPlayers:     s.MaxPlayers,
		AllowGuests:    s.AllowGuests,
		TotalRounds:    s.TotalRounds,
		Categories:     s.Categories,
		CurrentRound:   s.CurrentRound,
		CreatedAt:      s.CreatedAt,
		EndedAt:        s.EndedAt,
		LastActivityAt: s.LastActivityAt,
	}
}

// SessionDiscovery is the code-lookup view of a session. Seat occupancy
// rides along so a full session reads as full rather than joinable.
type SessionDiscovery struct {
	Session       Session `json:"session"`
	SeatedPlayers int     `json:"seated_players"`
	IsFull        bool    `json:"is_full"`
}

// DiscoveryFromModel converts the controller's code-lookup view
func DiscoveryFromModel(d *session.Discovery) SessionDiscovery {
	return SessionDiscovery{
		Session:       SessionFromModel(d.Session),
		SeatedPlayers: d.Seated,
		IsFull:        d.Full(),
	}
}

// Player is the wire representation of a roster entry
type Player struct {
	ID           string     `json:"id"`
	DisplayName  string     `json:"display_name"`
	Position     int        `json:"position"`
	IsRegistered bool       `json:"is_registered"`
	IsReady      bool       `json:"is_ready"`
	IsOnline     bool       `json:"is_online"`
	TotalScore   int        `json:"total_score"`
	JoinedAt     time.Time  `json:"joined_at"`
	LeftAt       *time.Time `json:"left_at,omitempty"`
}

// PlayerFromModel converts a roster entry to its wire form
func PlayerFromModel(p *model.Player, online bool, total int) Player {
	return Player{
		ID:           string(p.ID),
		DisplayName:  p.DisplayName,
		Position:     p.Position,
		IsRegistered: p.UserRef != "",
		IsReady:      p.IsReady,
		IsOnline:     online,
		TotalScore:   total,
		JoinedAt:     p.JoinedAt,
		LeftAt:       p.LeftAt,
	}
}

// Event is the wire representation of one log entry. ID is the event's
// sequence number; clients advance their cursor to the highest ID they
// have applied.
type Event struct {
	ID        uint64          `json:"id"`
	EventType string          `json:"event_type"`
	EventData json.RawMessage `json:"event_data"`
	Username  string          `json:"username,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// EventFromModel converts a log entry to its wire form
func EventFromModel(e model.Event) Event {
	return Event{
		ID:        e.Seq,
		EventType: string(e.Type),
		EventData: e.Payload,
		Username:  e.ActorName,
		CreatedAt: e.CreatedAt,
	}
}

// Scoreboard is the shaped score state, one layout per score mode
type Scoreboard struct {
	Rounds []RoundRow                `json:"rounds,omitempty"`
	Scores map[string]map[string]int `json:"scores,omitempty"`
	Totals map[string]int            `json:"totals"`
}

// RoundRow is one round's scores keyed by player id
type RoundRow struct {
	RoundNumber int            `json:"round_number"`
	Scores      map[string]int `json:"scores"`
}

// ScoreboardFromBoard converts the aggregator's board to wire form
func ScoreboardFromBoard(b *score.Board) Scoreboard {
	out := Scoreboard{Totals: make(map[string]int, len(b.Totals))}
	for id, total := range b.Totals {
		out.Totals[string(id)] = total
	}

	if b.Rounds != nil {
		out.Rounds = make([]RoundRow, 0, len(b.Rounds))
		for _, row := range b.Rounds {
			scores := make(map[string]int, len(row.Scores))
			for id, v := range row.Scores {
				scores[string(id)] = v
			}
			out.Rounds = append(out.Rounds, RoundRow{RoundNumber: row.RoundNumber, Scores: scores})
		}
	}

	if b.Categories != nil {
		out.Scores = make(map[string]map[string]int, len(b.Categories))
		for cat, byPlayer := range b.Categories {
			scores := make(map[string]int, len(byPlayer))
			for id, v := range byPlayer {
				scores[string(id)] = v
			}
			out.Scores[cat] = scores
		}
	}

	return out
}

// SyncResponse is one poll's full view of a session. CurrentUserID is
// the caller's own id (user ref or guest id), null only when the
// request carried no resolvable identity; CurrentPlayerID is their
// seat, null while unseated.
type SyncResponse struct {
	Session         Session    `json:"session"`
	Players         []Player   `json:"players"`
	Scoreboard      Scoreboard `json:"scoreboard"`
	Events          []Event    `json:"events"`
	AccessLevel     string     `json:"access_level"`
	CurrentUserID   *string    `json:"current_user_id"`
	CurrentPlayerID *string    `json:"current_player_id"`
	ServerTime      time.Time  `json:"server_time"`
}

// SyncFromSnapshot converts the engine's snapshot to wire form
func SyncFromSnapshot(snap *sessionsync.Snapshot) SyncResponse {
	players := make([]Player, 0, len(snap.Roster))
	for _, p := range snap.Roster {
		players = append(players, PlayerFromModel(p, snap.Online[p.ID], snap.Board.Totals[p.ID]))
	}

	events := make([]Event, 0, len(snap.Events))
	for _, e := range snap.Events {
		events = append(events, EventFromModel(e))
	}

	var currentUserID *string
	if ref := snap.Identity.Ref(); ref != "" {
		currentUserID = &ref
	}
	var currentPlayerID *string
	if snap.Self != nil {
		id := string(snap.Self.ID)
		currentPlayerID = &id
	}

	return SyncResponse{
		Session:         SessionFromModel(snap.Session),
		Players:         players,
		Scoreboard:      ScoreboardFromBoard(snap.Board),
		Events:          events,
		AccessLevel:     string(snap.Access),
		CurrentUserID:   currentUserID,
		CurrentPlayerID: currentPlayerID,
		ServerTime:      snap.ObservedAt,
	}
}

// CreateSessionResponse returns the new session with the host's seat
type CreateSessionResponse struct {
	Session Session `json:"session"`
	Player  Player  `json:"player"`
}

// JoinResponse returns the caller's seat after joining
type JoinResponse struct {
	Player Player `json:"player"`
}

// Account is the wire representation of a registered account
type Account struct {
	UserRef     string `json:"user_ref"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// AccountFromModel converts an account to its wire form
func AccountFromModel(a *model.Account) Account {
	return Account{
		UserRef:     string(a.UserRef),
		Username:    a.Username,
		DisplayName: a.DisplayName,
	}
}

// AuthResponse returns an account with its bearer token
type AuthResponse struct {
	Account Account `json:"account"`
	Token   string  `json:"token"`
}

// GuestResponse returns a freshly minted guest id
type GuestResponse struct {
	GuestID string `json:"guest_id"`
}
