package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case AuthResult:
		o.printAuthResult(v)
	case GuestResult:
		o.printGuestResult(v)
	case Session:
		o.printSession(v)
	case FindResult:
		o.printSession(v.Session)
		if v.IsFull {
			fmt.Printf("Seats: %d/%d (full)\n", v.SeatedPlayers, v.Session.MaxPlayers)
		} else {
			fmt.Printf("Seats: %d/%d\n", v.SeatedPlayers, v.Session.MaxPlayers)
		}
	case CreateSessionResult:
		o.printSession(v.Session)
		fmt.Printf("Your seat: %s (%s)\n", v.Player.DisplayName, v.Player.ID)
	case JoinResult:
		fmt.Printf("Joined as %s (%s), position %d\n", v.Player.DisplayName, v.Player.ID, v.Player.Position)
	case SyncResult:
		o.printSync(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Account response type (matches API)
type Account struct {
	UserRef     string `json:"user_ref"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// AuthResult combines an account and its token
type AuthResult struct {
	Account Account `json:"account"`
	Token   string  `json:"token"`
}

// GuestResult holds a freshly minted guest id
type GuestResult struct {
	GuestID string `json:"guest_id"`
}

// Session response type
type Session struct {
	ID           string   `json:"id"`
	Code         string   `json:"code"`
	Status       string   `json:"status"`
	GameSlug     string   `json:"game_slug"`
	ScoreMode    string   `json:"score_mode"`
	MinPlayers   int      `json:"min_players"`
	MaxPlayers   int      `json:"max_players"`
	AllowGuests  bool     `json:"allow_guests"`
	TotalRounds  int      `json:"total_rounds,omitempty"`
	Categories   []string `json:"categories,omitempty"`
	CurrentRound int      `json:"current_round"`
}

// FindResult response type for code lookup
type FindResult struct {
	Session       Session `json:"session"`
	SeatedPlayers int     `json:"seated_players"`
	IsFull        bool    `json:"is_full"`
}

// SessionPlayer response type
type SessionPlayer struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Position    int    `json:"position"`
	IsReady     bool   `json:"is_ready"`
	IsOnline    bool   `json:"is_online"`
	TotalScore  int    `json:"total_score"`
}

// CreateSessionResult response type
type CreateSessionResult struct {
	Session Session       `json:"session"`
	Player  SessionPlayer `json:"player"`
}

// JoinResult response type
type JoinResult struct {
	Player SessionPlayer `json:"player"`
}

// SyncEvent response type
type SyncEvent struct {
	ID        uint64          `json:"id"`
	EventType string          `json:"event_type"`
	EventData json.RawMessage `json:"event_data"`
	Username  string          `json:"username,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// SyncResult response type
type SyncResult struct {
	Session     Session         `json:"session"`
	Players     []SessionPlayer `json:"players"`
	Events      []SyncEvent     `json:"events"`
	AccessLevel string          `json:"access_level"`
	ServerTime  time.Time       `json:"server_time"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printAuthResult(a AuthResult) {
	fmt.Printf("Account: %s (%s)\n", a.Account.DisplayName, a.Account.Username)
	fmt.Printf("Token: %s\n", a.Token)
}

func (o *Output) printGuestResult(g GuestResult) {
	fmt.Printf("Guest ID: %s\n", g.GuestID)
}

func (o *Output) printSession(s Session) {
	fmt.Printf("Session: %s\n", s.ID)
	fmt.Printf("Code: %s\n", s.Code)
	fmt.Printf("Status: %s\n", s.Status)
	fmt.Printf("Game: %s\n", s.GameSlug)
	fmt.Printf("Mode: %s\n", s.ScoreMode)
	fmt.Printf("Players: %d-%d\n", s.MinPlayers, s.MaxPlayers)
	if s.ScoreMode == "rounds" {
		if s.TotalRounds > 0 {
			fmt.Printf("Round: %d of %d\n", s.CurrentRound, s.TotalRounds)
		} else {
			fmt.Printf("Round: %d\n", s.CurrentRound)
		}
	}
	if len(s.Categories) > 0 {
		fmt.Printf("Categories: %v\n", s.Categories)
	}
}

func (o *Output) printSync(s SyncResult) {
	o.printSession(s.Session)
	fmt.Printf("Access: %s\n", s.AccessLevel)

	players := make([]SessionPlayer, len(s.Players))
	copy(players, s.Players)
	sort.Slice(players, func(i, j int) bool { return players[i].Position < players[j].Position })

	fmt.Printf("Players (%d):\n", len(players))
	for _, p := range players {
		markers := ""
		if p.IsReady {
			markers += " [ready]"
		}
		if p.IsOnline {
			markers += " [online]"
		}
		fmt.Printf("  - %s (%s): %d points%s\n", p.DisplayName, p.ID, p.TotalScore, markers)
	}

	if len(s.Events) > 0 {
		fmt.Printf("Events (%d):\n", len(s.Events))
		for _, e := range s.Events {
			who := e.Username
			if who == "" {
				who = "system"
			}
			fmt.Printf("  %d %s by %s at %s\n", e.ID, e.EventType, who, e.CreatedAt.Format(time.RFC3339))
		}
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
