package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/tallydeck/tallydeck/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
	now     time.Time
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.SessionTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
	s.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
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
	s.Equal(sess.Status, got.Status)
}

func (s *StorageSuite) TestGetSessionNotFound() {
	_, err := s.storage.GetSession(s.ctx, "nope")
	s.Require().ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StorageSuite) TestGetSessionByCode() {
	sess := s.session("sess-1", "ABC234", model.StatusWaiting)
	s.Require().NoError(s.storage.SaveSession(s.ctx, sess))

	got, err := s.storage.GetSessionByCode(s.ctx, "ABC234")
	s.Require().NoError(err)
	s.Equal(model.SessionID("sess-1"), got.ID)
}

func (s *StorageSuite) TestCodeInUseTracksStatus() {
	sess := s.session("sess-1", "ABC234", model.StatusWaiting)
	s.Require().NoError(s.storage.SaveSession(s.ctx, sess))

	inUse, err := s.storage.CodeInUse(s.ctx, "ABC234")
	s.Require().NoError(err)
	s.True(inUse)

	sess.Status = model.StatusCompleted
	s.Require().NoError(s.storage.SaveSession(s.ctx, sess))

	inUse, err = s.storage.CodeInUse(s.ctx, "ABC234")
	s.Require().NoError(err)
	s.False(inUse)
}

// Roster tests

func (s *StorageSuite) TestSaveAndGetRoster() {
	s.Require().NoError(s.storage.SavePlayer(s.ctx, &model.Player{ID: "p-2", SessionID: "sess-1", DisplayName: "Pat", Position: 1, JoinedAt: s.now}))
	s.Require().NoError(s.storage.SavePlayer(s.ctx, &model.Player{ID: "p-1", SessionID: "sess-1", DisplayName: "Host", Position: 0, JoinedAt: s.now}))

	roster, err := s.storage.GetRoster(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Require().Len(roster, 2)
	s.Equal(model.PlayerID("p-1"), roster[0].ID)
	s.Equal(model.PlayerID("p-2"), roster[1].ID)
}

func (s *StorageSuite) TestSavePlayerUpsertsSeat() {
	player := &model.Player{ID: "p-1", SessionID: "sess-1", DisplayName: "Pat", JoinedAt: s.now}
	s.Require().NoError(s.storage.SavePlayer(s.ctx, player))

	left := s.now.Add(time.Minute)
	player.LeftAt = &left
	s.Require().NoError(s.storage.SavePlayer(s.ctx, player))

	got, err := s.storage.GetPlayer(s.ctx, "sess-1", "p-1")
	s.Require().NoError(err)
	s.Require().NotNil(got.LeftAt)
	s.True(got.LeftAt.Equal(left))
}

// Event log tests

func (s *StorageSuite) TestAppendEventAssignsSequence() {
	for i := 0; i < 3; i++ {
		evt, err := s.storage.AppendEvent(s.ctx, model.Event{SessionID: "sess-1", Type: model.EventPlayerJoined, Payload: []byte(`{}`), CreatedAt: s.now})
		s.Require().NoError(err)
		s.Equal(uint64(i+1), evt.Seq)
	}
}

func (s *StorageSuite) TestListEventsAfterCursor() {
	for i := 0; i < 5; i++ {
		_, err := s.storage.AppendEvent(s.ctx, model.Event{SessionID: "sess-1", Payload: []byte(`{}`), CreatedAt: s.now})
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
		_, err := s.storage.AppendEvent(s.ctx, model.Event{SessionID: "sess-1", Payload: []byte(`{}`), CreatedAt: s.now})
		s.Require().NoError(err)
	}

	events, err := s.storage.ListEvents(s.ctx, "sess-1", 0, 2)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(uint64(1), events[0].Seq)
	s.Equal(uint64(2), events[1].Seq)
}

func (s *StorageSuite) TestEventPayloadSurvivesRoundTrip() {
	payload := []byte(`{"player_id":"p-1","round":2,"value":15}`)
	_, err := s.storage.AppendEvent(s.ctx, model.Event{SessionID: "sess-1", Type: model.EventScoreCellSet, Payload: payload, ActorRef: "u_host", ActorName: "Host", CreatedAt: s.now})
	s.Require().NoError(err)

	events, err := s.storage.ListEvents(s.ctx, "sess-1", 0, 0)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.JSONEq(string(payload), string(events[0].Payload))
	s.Equal(model.UserRef("u_host"), events[0].ActorRef)
}

// Score cell tests

func (s *StorageSuite) TestSaveScoreCellUpsertsByAddress() {
	cell := &model.ScoreCell{SessionID: "sess-1", PlayerID: "p-1", Round: 1, Value: 10, Seq: 3, WrittenAt: s.now}
	s.Require().NoError(s.storage.SaveScoreCell(s.ctx, cell))

	cell.Value = 20
	cell.Seq = 8
	s.Require().NoError(s.storage.SaveScoreCell(s.ctx, cell))

	cells, err := s.storage.GetScoreCells(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Require().Len(cells, 1)
	s.Equal(20, cells[0].Value)
}

func (s *StorageSuite) TestCategoryAndRoundCellsCoexist() {
	s.Require().NoError(s.storage.SaveScoreCell(s.ctx, &model.ScoreCell{SessionID: "sess-1", PlayerID: "p-1", Round: 1, Value: 10, Seq: 1, WrittenAt: s.now}))
	s.Require().NoError(s.storage.SaveScoreCell(s.ctx, &model.ScoreCell{SessionID: "sess-2", PlayerID: "p-1", CategoryID: "ones", Value: 3, Seq: 1, WrittenAt: s.now}))

	roundCells, err := s.storage.GetScoreCells(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Require().Len(roundCells, 1)
	s.Equal(1, roundCells[0].Round)

	catCells, err := s.storage.GetScoreCells(s.ctx, "sess-2")
	s.Require().NoError(err)
	s.Require().Len(catCells, 1)
	s.Equal("ones", catCells[0].CategoryID)
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
}
