package request

// RegisterRequest is the request body for registering an account
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateSessionRequest is the request body for creating a session
type CreateSessionRequest struct {
	GameSlug    string   `json:"game_slug"`
	ScoreMode   string   `json:"score_mode"`
	TeamBased   bool     `json:"team_based"`
	MinPlayers  int      `json:"min_players"`
	MaxPlayers  int      `json:"max_players"`
	AllowGuests bool     `json:"allow_guests"`
	TotalRounds int      `json:"total_rounds,omitempty"`
	Categories  []string `json:"categories,omitempty"`
}

// JoinSessionRequest is the request body for taking a seat
type JoinSessionRequest struct {
	DisplayName string `json:"display_name,omitempty"`
}

// SetReadyRequest is the request body for flipping the ready flag
type SetReadyRequest struct {
	Ready bool `json:"ready"`
}

// SetScoreRequest is the request body for writing one score cell.
// Round is set in rounds mode, CategoryID in categories mode.
type SetScoreRequest struct {
	PlayerID   string `json:"player_id"`
	Round      int    `json:"round,omitempty"`
	CategoryID string `json:"category_id,omitempty"`
	Value      int    `json:"value"`
}

// AdvanceRoundRequest states which round the caller believes is current
type AdvanceRoundRequest struct {
	FromRound int `json:"from_round"`
}

// ChangeStatusRequest is the request body for a lifecycle transition
type ChangeStatusRequest struct {
	Status string `json:"status"`
}
