// Package score validates and records score cell writes and shapes the
// aggregated scoreboard for poll responses. Cells are last-write-wins:
// whichever write committed later in the event log owns the cell.
package score

import (
	"context"
	"log/slog"

	"github.com/tallydeck/tallydeck/internal/model"
	"github.com/tallydeck/tallydeck/internal/services/eventlog"
	"github.com/tallydeck/tallydeck/internal/sessionlock"
	"github.com/tallydeck/tallydeck/internal/storage"
)

// Aggregator owns score cell writes and scoreboard reads
type Aggregator struct {
	storage storage.Storage
	events  *eventlog.Service
	locks   *sessionlock.Keyed
	logger  *slog.Logger
}

// NewAggregator creates a new score aggregator
func NewAggregator(
	storage storage.Storage,
	events *eventlog.Service,
	locks *sessionlock.Keyed,
	logger *slog.Logger,
) *Aggregator {
	return &Aggregator{
		storage: storage,
		events:  events,
		locks:   locks,
		logger:  logger,
	}
}

// SetCell records a score for one player at one cell address. The
// session must be active, the address must be valid for the session's
// score mode, and the target player must be seated. The write commits
// to the event log first; the cell row carries that event's sequence
// number so later writes to the same address always win.
func (a *Aggregator) SetCell(ctx context.Context, sessionID model.SessionID, actor model.Identity, playerID model.PlayerID, addr model.CellAddress, value int) (*model.ScoreCell, error) {
	unlock := a.locks.Lock(sessionID)
	defer unlock()

	session, err := a.storage.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.StatusActive {
		return nil, model.ErrSessionNotActive
	}
	if err := validateAddress(session, addr); err != nil {
		return nil, err
	}

	player, err := a.storage.GetPlayer(ctx, sessionID, playerID)
	if err != nil {
		return nil, err
	}
	if !player.Seated() {
		return nil, model.ErrPlayerNotFound
	}

	evt, err := a.events.Append(ctx, sessionID, model.EventScoreCellSet, model.ScoreCellSetPayload{
		PlayerID:   playerID,
		Round:      addr.Round,
		CategoryID: addr.CategoryID,
		Value:      value,
	}, actor)
	if err != nil {
		return nil, err
	}

	cell := &model.ScoreCell{
		SessionID:  sessionID,
		PlayerID:   playerID,
		Round:      addr.Round,
		CategoryID: addr.CategoryID,
		Value:      value,
		WriterRef:  actor.UserRef,
		WrittenAt:  evt.CreatedAt,
		Seq:        evt.Seq,
	}
	if err := a.storage.SaveScoreCell(ctx, cell); err != nil {
		return nil, err
	}

	session.LastActivityAt = evt.CreatedAt
	if err := a.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	a.logger.Debug("score cell set",
		slog.String("session_id", string(sessionID)),
		slog.String("player_id", string(playerID)),
		slog.Int("value", value),
	)

	return cell, nil
}

// validateAddress checks the cell address against the session's score
// mode. Rounds mode accepts rounds 1 through the current round only;
// writing one past the current round is rejected, advancing the round
// is the host's explicit act. Categories mode accepts declared
// categories only.
func validateAddress(session *model.Session, addr model.CellAddress) error {
	switch session.ScoreMode {
	case model.ScoreModeRounds:
		if addr.CategoryID != "" {
			return model.ErrInvalidAddress
		}
		if addr.Round < 1 || addr.Round > session.CurrentRound {
			return model.ErrInvalidAddress
		}
	case model.ScoreModeCategories:
		if addr.Round != 0 {
			return model.ErrInvalidAddress
		}
		if !session.HasCategory(addr.CategoryID) {
			return model.ErrInvalidAddress
		}
	default:
		return model.ErrInvalidAddress
	}
	return nil
}

// Cells returns every committed cell for the session
func (a *Aggregator) Cells(ctx context.Context, sessionID model.SessionID) ([]*model.ScoreCell, error) {
	return a.storage.GetScoreCells(ctx, sessionID)
}

// Totals sums committed cell values per player
func (a *Aggregator) Totals(ctx context.Context, sessionID model.SessionID) (map[model.PlayerID]int, error) {
	cells, err := a.storage.GetScoreCells(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	totals := make(map[model.PlayerID]int)
	for _, cell := range cells {
		totals[cell.PlayerID] += cell.Value
	}
	return totals, nil
}

// RoundRow is one round's scores keyed by player
type RoundRow struct {
	RoundNumber int                    `json:"round_number"`
	Scores      map[model.PlayerID]int `json:"scores"`
}

// Board is the shaped scoreboard for a session, one of the two layouts
// populated depending on score mode
type Board struct {
	Rounds     []RoundRow                        `json:"rounds,omitempty"`
	Categories map[string]map[model.PlayerID]int `json:"scores,omitempty"`
	Totals     map[model.PlayerID]int            `json:"totals"`
}

// BuildBoard shapes committed cells into the session's scoreboard
// layout. Rounds mode yields one row per round from 1 to the current
// round, including rounds nobody has scored yet; categories mode yields
// a map of declared categories to per-player scores.
func BuildBoard(session *model.Session, cells []*model.ScoreCell) *Board {
	board := &Board{Totals: make(map[model.PlayerID]int)}
	for _, cell := range cells {
		board.Totals[cell.PlayerID] += cell.Value
	}

	switch session.ScoreMode {
	case model.ScoreModeRounds:
		rows := make([]RoundRow, 0, session.CurrentRound)
		byRound := make(map[int]map[model.PlayerID]int)
		for _, cell := range cells {
			if byRound[cell.Round] == nil {
				byRound[cell.Round] = make(map[model.PlayerID]int)
			}
			byRound[cell.Round][cell.PlayerID] = cell.Value
		}
		for round := 1; round <= session.CurrentRound; round++ {
			scores := byRound[round]
			if scores == nil {
				scores = make(map[model.PlayerID]int)
			}
			rows = append(rows, RoundRow{RoundNumber: round, Scores: scores})
		}
		board.Rounds = rows

	case model.ScoreModeCategories:
		board.Categories = make(map[string]map[model.PlayerID]int)
		for _, cat := range session.Categories {
			board.Categories[cat] = make(map[model.PlayerID]int)
		}
		for _, cell := range cells {
			if board.Categories[cell.CategoryID] == nil {
				board.Categories[cell.CategoryID] = make(map[model.PlayerID]int)
			}
			board.Categories[cell.CategoryID][cell.PlayerID] = cell.Value
		}
	}

	return board
}
