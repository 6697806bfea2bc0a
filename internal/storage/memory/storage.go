package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/tallydeck/tallydeck/internal/model"
	"github.com/tallydeck/tallydeck/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	sessions      map[model.SessionID]*model.Session
	codeIndex     map[model.SessionCode]model.SessionID
	roster        map[rosterKey]*model.Player
	events        map[model.SessionID][]model.Event
	nextSeq       map[model.SessionID]uint64
	cells         map[cellKey]*model.ScoreCell
	accounts      map[model.UserRef]*model.Account
	usernameIndex map[string]model.UserRef
}

type rosterKey struct {
	sessionID model.SessionID
	playerID  model.PlayerID
}

type cellKey struct {
	sessionID  model.SessionID
	playerID   model.PlayerID
	round      int
	categoryID string
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		sessions:      make(map[model.SessionID]*model.Session),
		codeIndex:     make(map[model.SessionCode]model.SessionID),
		roster:        make(map[rosterKey]*model.Player),
		events:        make(map[model.SessionID][]model.Event),
		nextSeq:       make(map[model.SessionID]uint64),
		cells:         make(map[cellKey]*model.ScoreCell),
		accounts:      make(map[model.UserRef]*model.Account),
		usernameIndex: make(map[string]model.UserRef),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *session
	s.sessions[session.ID] = &cp
	s.codeIndex[session.Code] = session.ID
	return nil
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	cp := *session
	return &cp, nil
}

func (s *Storage) GetSessionByCode(ctx context.Context, code model.SessionCode) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.codeIndex[code]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	session, ok := s.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	cp := *session
	return &cp, nil
}

func (s *Storage) CodeInUse(ctx context.Context, code model.SessionCode) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.codeIndex[code]
	if !ok {
		return false, nil
	}
	session, ok := s.sessions[id]
	if !ok {
		return false, nil
	}
	return !session.Status.Terminal(), nil
}

// Roster operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *player
	s.roster[rosterKey{player.SessionID, player.ID}] = &cp
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, sessionID model.SessionID, playerID model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.roster[rosterKey{sessionID, playerID}]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	cp := *player
	return &cp, nil
}

func (s *Storage) GetRoster(ctx context.Context, sessionID model.SessionID) ([]*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var roster []*model.Player
	for key, player := range s.roster {
		if key.sessionID == sessionID {
			cp := *player
			roster = append(roster, &cp)
		}
	}
	sort.Slice(roster, func(i, j int) bool {
		return roster[i].Position < roster[j].Position
	})
	return roster, nil
}

// Event log operations

func (s *Storage) AppendEvent(ctx context.Context, evt model.Event) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq := s.nextSeq[evt.SessionID] + 1
	s.nextSeq[evt.SessionID] = seq
	evt.Seq = seq
	s.events[evt.SessionID] = append(s.events[evt.SessionID], evt)
	return evt, nil
}

func (s *Storage) ListEvents(ctx context.Context, sessionID model.SessionID, afterSeq uint64, limit int) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Event
	for _, evt := range s.events[sessionID] {
		if evt.Seq <= afterSeq {
			continue
		}
		out = append(out, evt)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Score cell operations

func (s *Storage) SaveScoreCell(ctx context.Context, cell *model.ScoreCell) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *cell
	s.cells[cellKey{cell.SessionID, cell.PlayerID, cell.Round, cell.CategoryID}] = &cp
	return nil
}

func (s *Storage) GetScoreCells(ctx context.Context, sessionID model.SessionID) ([]*model.ScoreCell, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var cells []*model.ScoreCell
	for key, cell := range s.cells {
		if key.sessionID == sessionID {
			cp := *cell
			cells = append(cells, &cp)
		}
	}
	sort.Slice(cells, func(i, j int) bool {
		return cells[i].Seq < cells[j].Seq
	})
	return cells, nil
}

// Account operations

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *account
	s.accounts[account.UserRef] = &cp
	s.usernameIndex[account.Username] = account.UserRef
	return nil
}

func (s *Storage) GetAccount(ctx context.Context, ref model.UserRef) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[ref]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	cp := *account
	return &cp, nil
}

func (s *Storage) GetAccountByUsername(ctx context.Context, username string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ref, ok := s.usernameIndex[username]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	account, ok := s.accounts[ref]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	cp := *account
	return &cp, nil
}
