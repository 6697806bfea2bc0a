package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/tallydeck/tallydeck/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
	now     time.Time
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
	s.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *StorageSuite) session(id, code string, status model.SessionStatus) *model.Session {
	return &model.Session{
		ID:             model.SessionID(id),
		Code:           model.SessionCode(code),
		Status:         status,
		GameSlug:       "liverpool-rummy",
		ScoreMode:      model.ScoreModeRounds,
		MinPlayers:     2,
		MaxPlayers:     4,
		HostUserRef:    "u_host",
		CreatedAt:      s.now,
		LastActivityAt: s.now,
	}
}

// Session tests

func (s *StorageSuite) TestSaveAndGetSession() {
	sess := s.session("sess-1", "ABC234", model.StatusWaiting)
	s.Require().NoError(s.storage.SaveSession(s.ctx, sess))

	got, err := s.storage.GetSession(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Equal(sess.Code, got.Code)
}

func (s *StorageSuite) TestGetSessionNotFound() {
	_, err := s.storage.GetSession(s.ctx, "nope")
	s.Require().ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StorageSuite) TestGetSessionReturnsCopy() {
	sess := s.session("sess-1", "ABC234", model.StatusWaiting)
	s.Require().NoError(s.storage.SaveSession(s.ctx, sess))

	got, _ := s.storage.GetSession(s.ctx, "sess-1")
	got.Status = model.StatusCancelled

	again, _ := s.storage.GetSession(s.ctx, "sess-1")
	s.Equal(model.StatusWaiting, again.Status)
}

func (s *StorageSuite) TestGetSessionByCode() {
	sess := s.session("sess-1", "ABC234", model.StatusWaiting)
	s.Require().NoError(s.storage.SaveSession(s.ctx, sess))

	got, err := s.storage.GetSessionByCode(s.ctx, "ABC234")
	s.Require().NoError(err)
	s.Equal(model.SessionID("sess-1"), got.ID)
}

func (s *StorageSuite) TestCodeInUse() {
	inUse, err := s.storage.CodeInUse(s.ctx, "ABC234")
	s.Require().NoError(err)
	s.False(inUse)

	s.Require().NoError(s.storage.SaveSession(s.ctx, s.session("sess-1", "ABC234", model.StatusWaiting)))
	inUse, err = s.storage.CodeInUse(s.ctx, "ABC234")
	s.Require().NoError(err)
	s.True(inUse)
}

func (s *StorageSuite) TestCodeFreedWhenSessionEnds() {
	sess := s.session("sess-1", "ABC234", model.StatusWaiting)
	s.Require().NoError(s.storage.SaveSession(s.ctx, sess))

	sess.Status = model.StatusCancelled
	s.Require().NoError(s.storage.SaveSession(s.ctx, sess))

	inUse, err := s.storage.CodeInUse(s.ctx, "ABC234")
	s.Require().NoError(err)
	s.False(inUse)
}

// Roster tests

func (s *StorageSuite) TestRosterSortedByPosition() {
	s.Require().NoError(s.storage.SavePlayer(s.ctx, &model.Player{ID: "p-2", SessionID: "sess-1", Position: 1, JoinedAt: s.now}))
	s.Require().NoError(s.storage.SavePlayer(s.ctx, &model.Player{ID: "p-1", SessionID: "sess-1", Position: 0, JoinedAt: s.now}))
	s.Require().NoError(s.storage.SavePlayer(s.ctx, &model.Player{ID: "p-3", SessionID: "sess-2", Position: 0, JoinedAt: s.now}))

	roster, err := s.storage.GetRoster(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Require().Len(roster, 2)
	s.Equal(model.PlayerID("p-1"), roster[0].ID)
	s.Equal(model.PlayerID("p-2"), roster[1].ID)
}

func (s *StorageSuite) TestGetPlayerScopedToSession() {
	s.Require().NoError(s.storage.SavePlayer(s.ctx, &model.Player{ID: "p-1", SessionID: "sess-1", JoinedAt: s.now}))

	_, err := s.storage.GetPlayer(s.ctx, "sess-2", "p-1")
	s.Require().ErrorIs(err, model.ErrPlayerNotFound)
}

// Event log tests

func (s *StorageSuite) TestAppendEventAssignsGaplessSequence() {
	for i := 0; i < 5; i++ {
		evt, err := s.storage.AppendEvent(s.ctx, model.Event{SessionID: "sess-1", Type: model.EventPlayerJoined, CreatedAt: s.now})
		s.Require().NoError(err)
		s.Equal(uint64(i+1), evt.Seq)
	}
}

func (s *StorageSuite) TestSequencesArePerSession() {
	evtA, _ := s.storage.AppendEvent(s.ctx, model.Event{SessionID: "sess-a", CreatedAt: s.now})
	evtB, _ := s.storage.AppendEvent(s.ctx, model.Event{SessionID: "sess-b", CreatedAt: s.now})

	s.Equal(uint64(1), evtA.Seq)
	s.Equal(uint64(1), evtB.Seq)
}

func (s *StorageSuite) TestListEventsAfterCursor() {
	for i := 0; i < 5; i++ {
		_, err := s.storage.AppendEvent(s.ctx, model.Event{SessionID: "sess-1", CreatedAt: s.now})
		s.Require().NoError(err)
	}

	events, err := s.storage.ListEvents(s.ctx, "sess-1", 3, 0)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(uint64(4), events[0].Seq)
	s.Equal(uint64(5), events[1].Seq)
}

func (s *StorageSuite) TestListEventsHonorsLimit() {
	for i := 0; i < 5; i++ {
		_, err := s.storage.AppendEvent(s.ctx, model.Event{SessionID: "sess-1", CreatedAt: s.now})
		s.Require().NoError(err)
	}

	events, err := s.storage.ListEvents(s.ctx, "sess-1", 0, 2)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(uint64(1), events[0].Seq)
}

func (s *StorageSuite) TestConcurrentAppendsStayGapless() {
	const appends = 100
	var wg sync.WaitGroup
	for i := 0; i < appends; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.storage.AppendEvent(s.ctx, model.Event{SessionID: "sess-1", CreatedAt: s.now})
			s.NoError(err)
		}()
	}
	wg.Wait()

	events, err := s.storage.ListEvents(s.ctx, "sess-1", 0, 0)
	s.Require().NoError(err)
	s.Require().Len(events, appends)

	seen := make(map[uint64]bool, appends)
	for _, evt := range events {
		seen[evt.Seq] = true
	}
	for seq := uint64(1); seq <= appends; seq++ {
		s.True(seen[seq], "sequence %d missing", seq)
	}
}

// Score cell tests

func (s *StorageSuite) TestSaveScoreCellUpsertsByAddress() {
	cell := &model.ScoreCell{SessionID: "sess-1", PlayerID: "p-1", Round: 1, Value: 10, Seq: 3, WrittenAt: s.now}
	s.Require().NoError(s.storage.SaveScoreCell(s.ctx, cell))

	cell.Value = 20
	cell.Seq = 7
	s.Require().NoError(s.storage.SaveScoreCell(s.ctx, cell))

	cells, err := s.storage.GetScoreCells(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Require().Len(cells, 1)
	s.Equal(20, cells[0].Value)
	s.Equal(uint64(7), cells[0].Seq)
}

func (s *StorageSuite) TestScoreCellsSortedBySeq() {
	s.Require().NoError(s.storage.SaveScoreCell(s.ctx, &model.ScoreCell{SessionID: "sess-1", PlayerID: "p-1", Round: 2, Value: 5, Seq: 9, WrittenAt: s.now}))
	s.Require().NoError(s.storage.SaveScoreCell(s.ctx, &model.ScoreCell{SessionID: "sess-1", PlayerID: "p-1", Round: 1, Value: 10, Seq: 4, WrittenAt: s.now}))

	cells, err := s.storage.GetScoreCells(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Require().Len(cells, 2)
	s.Equal(uint64(4), cells[0].Seq)
	s.Equal(uint64(9), cells[1].Seq)
}

// Account tests

func (s *StorageSuite) TestSaveAndGetAccount() {
	account := &model.Account{UserRef: "u_1", Username: "pat", DisplayName: "Pat", PasswordHash: "x", CreatedAt: s.now, UpdatedAt: s.now}
	s.Require().NoError(s.storage.SaveAccount(s.ctx, account))

	byRef, err := s.storage.GetAccount(s.ctx, "u_1")
	s.Require().NoError(err)
	s.Equal("pat", byRef.Username)

	byName, err := s.storage.GetAccountByUsername(s.ctx, "pat")
	s.Require().NoError(err)
	s.Equal(model.UserRef("u_1"), byName.UserRef)
}

func (s *StorageSuite) TestGetAccountNotFound() {
	_, err := s.storage.GetAccount(s.ctx, "nope")
	s.Require().ErrorIs(err, model.ErrAccountNotFound)

	_, err = s.storage.GetAccountByUsername(s.ctx, "nope")
	s.Require().ErrorIs(err, model.ErrAccountNotFound)
}
