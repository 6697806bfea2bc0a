// Package sessionsync composes the engine's poll contract: one call
// returns everything a client needs to redraw, and every mutation runs
// through the same access resolution the poll reports. Clients hold a
// cursor (the highest event sequence they have applied) and each poll
// returns only events beyond it.
package sessionsync

import (
	"context"
	"log/slog"
	"time"

	"github.com/tallydeck/tallydeck/internal/dependencies/clock"
	"github.com/tallydeck/tallydeck/internal/model"
	"github.com/tallydeck/tallydeck/internal/services/access"
	"github.com/tallydeck/tallydeck/internal/services/eventlog"
	"github.com/tallydeck/tallydeck/internal/services/presence"
	"github.com/tallydeck/tallydeck/internal/services/score"
	"github.com/tallydeck/tallydeck/internal/services/session"
	"github.com/tallydeck/tallydeck/internal/storage"
)

// Snapshot is one poll's view of a session
type Snapshot struct {
	Session *model.Session
	Roster  []*model.Player
	Online  map[model.PlayerID]bool
	Board   *score.Board
	Events  []model.Event
	Access  model.AccessLevel
	// Identity is the caller as resolved from their credentials; it is
	// set even when they hold no seat
	Identity model.Identity
	// Self is the caller's roster entry, nil when not seated
	Self       *model.Player
	ObservedAt time.Time
}

// Service wires the session controller, score aggregator, access
// resolution and presence into the poll and mutation surface
type Service struct {
	storage  storage.Storage
	sessions *session.Controller
	scores   *score.Aggregator
	events   *eventlog.Service
	presence *presence.Tracker
	clock    clock.Clock
	logger   *slog.Logger
}

// New creates the sync service
func New(
	storage storage.Storage,
	sessions *session.Controller,
	scores *score.Aggregator,
	events *eventlog.Service,
	presence *presence.Tracker,
	clock clock.Clock,
	logger *slog.Logger,
) *Service {
	return &Service{
		storage:  storage,
		sessions: sessions,
		scores:   scores,
		events:   events,
		presence: presence,
		clock:    clock,
		logger:   logger,
	}
}

// Poll assembles the full sync snapshot for one caller. Polling is a
// read: it never mutates session state, but it does refresh the
// caller's presence when they hold a seat.
func (s *Service) Poll(ctx context.Context, sessionID model.SessionID, identity model.Identity, cursor uint64) (*Snapshot, error) {
	sess, err := s.storage.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	roster, err := s.storage.GetRoster(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	level := access.Resolve(sess, identity, roster)
	if level == model.AccessDenied && !sess.Status.Terminal() {
		// Ended sessions stay readable to anyone who knows the id so
		// clients can render final scores; live ones do not.
		return nil, model.ErrForbidden
	}

	var self *model.Player
	for _, player := range roster {
		if player.Seated() && player.HeldBy(identity) {
			self = player
			break
		}
	}
	if self != nil {
		s.presence.Touch(sessionID, self.ID)
	}

	cells, err := s.storage.GetScoreCells(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	events, err := s.events.ReadSince(ctx, sessionID, cursor)
	if err != nil {
		return nil, err
	}

	ids := make([]model.PlayerID, 0, len(roster))
	for _, player := range roster {
		ids = append(ids, player.ID)
	}

	return &Snapshot{
		Session:    sess,
		Roster:     roster,
		Online:     s.presence.OnlineSet(sessionID, ids),
		Board:      score.BuildBoard(sess, cells),
		Events:     events,
		Access:     level,
		Identity:   identity,
		Self:       self,
		ObservedAt: s.clock.Now(),
	}, nil
}

// Join takes a seat for the caller, after confirming their access level
// permits joining. Already-seated callers pass straight through to the
// controller's idempotent join.
func (s *Service) Join(ctx context.Context, sessionID model.SessionID, identity model.Identity, displayName string) (*model.Player, error) {
	level, err := s.resolve(ctx, sessionID, identity)
	if err != nil {
		return nil, err
	}
	if !level.CanJoin() && !level.CanMutate() {
		return nil, model.ErrForbidden
	}
	player, err := s.sessions.Join(ctx, sessionID, identity, displayName)
	if err != nil {
		return nil, err
	}
	s.presence.Touch(sessionID, player.ID)
	return player, nil
}

// Leave releases the caller's seat
func (s *Service) Leave(ctx context.Context, sessionID model.SessionID, identity model.Identity) error {
	level, err := s.resolve(ctx, sessionID, identity)
	if err != nil {
		return err
	}
	if !level.CanMutate() {
		return model.ErrForbidden
	}
	return s.sessions.Leave(ctx, sessionID, identity)
}

// SetReady flips the caller's ready flag
func (s *Service) SetReady(ctx context.Context, sessionID model.SessionID, identity model.Identity, ready bool) error {
	level, err := s.resolve(ctx, sessionID, identity)
	if err != nil {
		return err
	}
	if !level.CanMutate() {
		return model.ErrForbidden
	}
	return s.sessions.SetReady(ctx, sessionID, identity, ready)
}

// SetScoreCell writes one score cell on behalf of the caller
func (s *Service) SetScoreCell(ctx context.Context, sessionID model.SessionID, identity model.Identity, playerID model.PlayerID, addr model.CellAddress, value int) (*model.ScoreCell, error) {
	level, err := s.resolve(ctx, sessionID, identity)
	if err != nil {
		return nil, err
	}
	if !level.CanMutate() {
		return nil, model.ErrForbidden
	}
	return s.scores.SetCell(ctx, sessionID, identity, playerID, addr, value)
}

// AdvanceRound moves the session to the next round. Host only; the
// caller states which round they believe is current so racing advances
// collapse to one.
func (s *Service) AdvanceRound(ctx context.Context, sessionID model.SessionID, identity model.Identity, fromRound int) (*model.Session, error) {
	level, err := s.resolve(ctx, sessionID, identity)
	if err != nil {
		return nil, err
	}
	if level != model.AccessHost {
		return nil, model.ErrForbidden
	}
	sess, err := s.sessions.AdvanceRound(ctx, sessionID, identity, fromRound)
	if err != nil {
		return nil, err
	}
	if sess.Status.Terminal() {
		s.presence.Forget(sessionID)
	}
	return sess, nil
}

// ChangeStatus applies a lifecycle transition. Host only.
func (s *Service) ChangeStatus(ctx context.Context, sessionID model.SessionID, identity model.Identity, to model.SessionStatus) (*model.Session, error) {
	level, err := s.resolve(ctx, sessionID, identity)
	if err != nil {
		return nil, err
	}
	if level != model.AccessHost {
		return nil, model.ErrForbidden
	}
	sess, err := s.sessions.ChangeStatus(ctx, sessionID, identity, to)
	if err != nil {
		return nil, err
	}
	if sess.Status.Terminal() {
		s.presence.Forget(sessionID)
	}
	return sess, nil
}

// resolve is the advisory access pre-check for mutations. The
// controller re-validates under the session lock; this check exists to
// reject plainly unauthorized calls before they contend for it.
func (s *Service) resolve(ctx context.Context, sessionID model.SessionID, identity model.Identity) (model.AccessLevel, error) {
	sess, err := s.storage.GetSession(ctx, sessionID)
	if err != nil {
		return model.AccessDenied, err
	}
	roster, err := s.storage.GetRoster(ctx, sessionID)
	if err != nil {
		return model.AccessDenied, err
	}
	return access.Resolve(sess, identity, roster), nil
}
