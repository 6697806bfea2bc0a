// Package projection folds an ordered event sequence back into session
// state. Replaying the full log from empty state reproduces the exact
// session header, roster and score cells held in storage; that
// determinism is the central correctness property of the engine.
package projection

import (
	"encoding/json"
	"fmt"

	"github.com/tallydeck/tallydeck/internal/model"
)

// State is the result of folding a session's event log
type State struct {
	Session *model.Session
	Roster  map[model.PlayerID]*model.Player
	Cells   map[string]*model.ScoreCell
	LastSeq uint64
}

// NewState returns an empty fold state
func NewState() *State {
	return &State{
		Roster: make(map[model.PlayerID]*model.Player),
		Cells:  make(map[string]*model.ScoreCell),
	}
}

// CellKey addresses one cell within the fold state
func CellKey(playerID model.PlayerID, addr model.CellAddress) string {
	if addr.CategoryID != "" {
		return fmt.Sprintf("%s/c/%s", playerID, addr.CategoryID)
	}
	return fmt.Sprintf("%s/r/%d", playerID, addr.Round)
}

// Replay folds events in order into a fresh state
func Replay(events []model.Event) (*State, error) {
	st := NewState()
	for _, evt := range events {
		if err := st.Apply(evt); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// Apply folds a single event. Events must arrive in sequence order.
func (st *State) Apply(evt model.Event) error {
	if evt.Seq <= st.LastSeq {
		return fmt.Errorf("event %d replayed out of order (last was %d)", evt.Seq, st.LastSeq)
	}
	st.LastSeq = evt.Seq

	switch evt.Type {
	case model.EventSessionCreated:
		var p model.SessionCreatedPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			return fmt.Errorf("decode %s: %w", evt.Type, err)
		}
		st.Session = &model.Session{
			ID:             evt.SessionID,
			Code:           p.Code,
			Status:         model.StatusWaiting,
			GameSlug:       p.GameSlug,
			ScoreMode:      p.ScoreMode,
			TeamBased:      p.TeamBased,
			MinPlayers:     p.MinPlayers,
			MaxPlayers:     p.MaxPlayers,
			AllowGuests:    p.AllowGuests,
			TotalRounds:    p.TotalRounds,
			Categories:     p.Categories,
			HostUserRef:    p.HostUserRef,
			CreatedAt:      evt.CreatedAt,
			LastActivityAt: evt.CreatedAt,
		}

	case model.EventPlayerJoined:
		var p model.PlayerJoinedPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			return fmt.Errorf("decode %s: %w", evt.Type, err)
		}
		st.touch(evt)
		if existing, ok := st.Roster[p.PlayerID]; ok {
			// Re-join of a previously left seat
			existing.LeftAt = nil
			existing.IsReady = false
			break
		}
		st.Roster[p.PlayerID] = &model.Player{
			ID:          p.PlayerID,
			SessionID:   evt.SessionID,
			DisplayName: p.DisplayName,
			Position:    p.Position,
			UserRef:     p.UserRef,
			GuestID:     p.GuestID,
			JoinedAt:    evt.CreatedAt,
		}

	case model.EventPlayerLeft:
		var p model.PlayerLeftPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			return fmt.Errorf("decode %s: %w", evt.Type, err)
		}
		st.touch(evt)
		if player, ok := st.Roster[p.PlayerID]; ok {
			t := evt.CreatedAt
			player.LeftAt = &t
		}

	case model.EventPlayerReady:
		var p model.PlayerReadyPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			return fmt.Errorf("decode %s: %w", evt.Type, err)
		}
		st.touch(evt)
		if player, ok := st.Roster[p.PlayerID]; ok {
			player.IsReady = p.Ready
		}

	case model.EventScoreCellSet:
		var p model.ScoreCellSetPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			return fmt.Errorf("decode %s: %w", evt.Type, err)
		}
		st.touch(evt)
		addr := model.CellAddress{Round: p.Round, CategoryID: p.CategoryID}
		st.Cells[CellKey(p.PlayerID, addr)] = &model.ScoreCell{
			SessionID:  evt.SessionID,
			PlayerID:   p.PlayerID,
			Round:      p.Round,
			CategoryID: p.CategoryID,
			Value:      p.Value,
			WriterRef:  evt.ActorRef,
			WrittenAt:  evt.CreatedAt,
			Seq:        evt.Seq,
		}

	case model.EventRoundAdvanced:
		var p model.RoundAdvancedPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			return fmt.Errorf("decode %s: %w", evt.Type, err)
		}
		if st.Session != nil {
			st.Session.CurrentRound = p.Round
			st.Session.LastActivityAt = evt.CreatedAt
		}

	case model.EventStatusChanged:
		var p model.StatusChangedPayload
		if err := json.Unmarshal(evt.Payload, &p); err != nil {
			return fmt.Errorf("decode %s: %w", evt.Type, err)
		}
		if st.Session != nil {
			st.Session.Status = p.To
			st.Session.LastActivityAt = evt.CreatedAt
			if p.To.Terminal() {
				t := evt.CreatedAt
				st.Session.EndedAt = &t
			}
			if p.To == model.StatusActive && st.Session.CurrentRound == 0 {
				st.Session.CurrentRound = 1
			}
		}

	default:
		// Unknown event types are skipped so old logs survive upgrades
	}
	return nil
}

// touch mirrors the live paths, which refresh the header's activity
// timestamp on every committed event
func (st *State) touch(evt model.Event) {
	if st.Session != nil {
		st.Session.LastActivityAt = evt.CreatedAt
	}
}

// Totals sums cells per player, the same fold Poll responses use
func (st *State) Totals() map[model.PlayerID]int {
	totals := make(map[model.PlayerID]int)
	for _, cell := range st.Cells {
		totals[cell.PlayerID] += cell.Value
	}
	return totals
}
