package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/tallydeck/tallydeck/internal/model"
)

type StoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
	now   time.Time
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	store, err := New(filepath.Join(s.T().TempDir(), "tallydeck.db"))
	s.Require().NoError(err)
	s.store = store
	s.ctx = context.Background()
	s.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *StoreSuite) TearDownTest() {
	if s.store != nil {
		_ = s.store.Close()
	}
}

func (s *StoreSuite) session(id, code string, status model.SessionStatus) *model.Session {
	return &model.Session{
		ID:             model.SessionID(id),
		Code:           model.SessionCode(code),
		Status:         status,
		GameSlug:       "yahtzee",
		ScoreMode:      model.ScoreModeCategories,
		Categories:     []string{"ones", "twos"},
		MinPlayers:     2,
		MaxPlayers:     4,
		HostUserRef:    "u_host",
		CreatedAt:      s.now,
		LastActivityAt: s.now,
	}
}

func (s *StoreSuite) TestSaveAndGetSession() {
	sess := s.session("sess-1", "ABC234", model.StatusWaiting)
	s.Require().NoError(s.store.SaveSession(s.ctx, sess))

	got, err := s.store.GetSession(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Equal(sess.Code, got.Code)
	s.Equal([]string{"ones", "twos"}, got.Categories)
	s.True(got.CreatedAt.Equal(s.now))
}

func (s *StoreSuite) TestSaveSessionUpserts() {
	sess := s.session("sess-1", "ABC234", model.StatusWaiting)
	s.Require().NoError(s.store.SaveSession(s.ctx, sess))

	ended := s.now.Add(time.Hour)
	sess.Status = model.StatusCompleted
	sess.EndedAt = &ended
	s.Require().NoError(s.store.SaveSession(s.ctx, sess))

	got, err := s.store.GetSession(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Equal(model.StatusCompleted, got.Status)
	s.Require().NotNil(got.EndedAt)
	s.True(got.EndedAt.Equal(ended))
}

func (s *StoreSuite) TestGetSessionNotFound() {
	_, err := s.store.GetSession(s.ctx, "nope")
	s.Require().ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StoreSuite) TestCodeInUseIgnoresEndedSessions() {
	sess := s.session("sess-1", "ABC234", model.StatusCancelled)
	ended := s.now
	sess.EndedAt = &ended
	s.Require().NoError(s.store.SaveSession(s.ctx, sess))

	inUse, err := s.store.CodeInUse(s.ctx, "ABC234")
	s.Require().NoError(err)
	s.False(inUse)
}

func (s *StoreSuite) TestGetSessionByCodePrefersNewest() {
	old := s.session("sess-1", "ABC234", model.StatusCancelled)
	s.Require().NoError(s.store.SaveSession(s.ctx, old))

	fresh := s.session("sess-2", "ABC234", model.StatusWaiting)
	fresh.CreatedAt = s.now.Add(time.Hour)
	s.Require().NoError(s.store.SaveSession(s.ctx, fresh))

	got, err := s.store.GetSessionByCode(s.ctx, "ABC234")
	s.Require().NoError(err)
	s.Equal(model.SessionID("sess-2"), got.ID)
}

func (s *StoreSuite) TestRosterRoundTrip() {
	s.Require().NoError(s.store.SavePlayer(s.ctx, &model.Player{ID: "p-2", SessionID: "sess-1", DisplayName: "Pat", Position: 1, UserRef: "u_pat", JoinedAt: s.now}))
	s.Require().NoError(s.store.SavePlayer(s.ctx, &model.Player{ID: "p-1", SessionID: "sess-1", DisplayName: "Gem", Position: 0, GuestID: "g_1", JoinedAt: s.now}))

	roster, err := s.store.GetRoster(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Require().Len(roster, 2)
	s.Equal(model.PlayerID("p-1"), roster[0].ID)
	s.Equal("g_1", roster[0].GuestID)
	s.Equal(model.UserRef("u_pat"), roster[1].UserRef)
}

// Ending a session archives, it does not delete. Roster, events and
// cells all stay readable afterwards.
func (s *StoreSuite) TestEndedSessionKeepsAllRows() {
	sess := s.session("sess-1", "ABC234", model.StatusActive)
	s.Require().NoError(s.store.SaveSession(s.ctx, sess))
	s.Require().NoError(s.store.SavePlayer(s.ctx, &model.Player{ID: "p-1", SessionID: "sess-1", DisplayName: "Host", JoinedAt: s.now}))
	_, err := s.store.AppendEvent(s.ctx, model.Event{SessionID: "sess-1", Type: model.EventScoreCellSet, Payload: []byte(`{}`), CreatedAt: s.now})
	s.Require().NoError(err)
	s.Require().NoError(s.store.SaveScoreCell(s.ctx, &model.ScoreCell{SessionID: "sess-1", PlayerID: "p-1", CategoryID: "ones", Value: 3, Seq: 1, WrittenAt: s.now}))

	ended := s.now.Add(time.Hour)
	sess.Status = model.StatusCancelled
	sess.EndedAt = &ended
	s.Require().NoError(s.store.SaveSession(s.ctx, sess))

	roster, err := s.store.GetRoster(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Len(roster, 1)

	events, err := s.store.ListEvents(s.ctx, "sess-1", 0, 0)
	s.Require().NoError(err)
	s.Len(events, 1)

	cells, err := s.store.GetScoreCells(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Len(cells, 1)
}

func (s *StoreSuite) TestAppendEventAssignsGaplessSequence() {
	for i := 0; i < 4; i++ {
		evt, err := s.store.AppendEvent(s.ctx, model.Event{SessionID: "sess-1", Payload: []byte(`{}`), CreatedAt: s.now})
		s.Require().NoError(err)
		s.Equal(uint64(i+1), evt.Seq)
	}

	other, err := s.store.AppendEvent(s.ctx, model.Event{SessionID: "sess-2", Payload: []byte(`{}`), CreatedAt: s.now})
	s.Require().NoError(err)
	s.Equal(uint64(1), other.Seq)
}

func (s *StoreSuite) TestListEventsAfterCursorWithLimit() {
	for i := 0; i < 5; i++ {
		_, err := s.store.AppendEvent(s.ctx, model.Event{SessionID: "sess-1", Payload: []byte(`{}`), CreatedAt: s.now})
		s.Require().NoError(err)
	}

	events, err := s.store.ListEvents(s.ctx, "sess-1", 1, 2)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(uint64(2), events[0].Seq)
	s.Equal(uint64(3), events[1].Seq)
}

func (s *StoreSuite) TestScoreCellUpsert() {
	cell := &model.ScoreCell{SessionID: "sess-1", PlayerID: "p-1", CategoryID: "ones", Value: 2, WriterRef: "u_host", Seq: 1, WrittenAt: s.now}
	s.Require().NoError(s.store.SaveScoreCell(s.ctx, cell))

	cell.Value = 3
	cell.Seq = 4
	cell.WriterRef = "u_pat"
	s.Require().NoError(s.store.SaveScoreCell(s.ctx, cell))

	cells, err := s.store.GetScoreCells(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Require().Len(cells, 1)
	s.Equal(3, cells[0].Value)
	s.Equal(model.UserRef("u_pat"), cells[0].WriterRef)
	s.Equal(uint64(4), cells[0].Seq)
}

func (s *StoreSuite) TestAccountRoundTrip() {
	account := &model.Account{UserRef: "u_1", Username: "pat", DisplayName: "Pat", PasswordHash: "x", CreatedAt: s.now, UpdatedAt: s.now}
	s.Require().NoError(s.store.SaveAccount(s.ctx, account))

	got, err := s.store.GetAccountByUsername(s.ctx, "pat")
	s.Require().NoError(err)
	s.Equal(model.UserRef("u_1"), got.UserRef)

	_, err = s.store.GetAccount(s.ctx, "nope")
	s.Require().ErrorIs(err, model.ErrAccountNotFound)
}
