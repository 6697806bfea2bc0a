package score

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/tallydeck/tallydeck/internal/dependencies/mocks"
	"github.com/tallydeck/tallydeck/internal/model"
	"github.com/tallydeck/tallydeck/internal/services/eventlog"
	"github.com/tallydeck/tallydeck/internal/services/session"
	"github.com/tallydeck/tallydeck/internal/sessionlock"
	"github.com/tallydeck/tallydeck/internal/storage/memory"
	"github.com/tallydeck/tallydeck/internal/testutil"
)

type AggregatorSuite struct {
	suite.Suite
	storage    *memory.Storage
	events     *eventlog.Service
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	sessions   *session.Controller
	aggregator *Aggregator
	ctx        context.Context

	host model.Identity
	pat  model.Identity
}

func TestAggregatorSuite(t *testing.T) {
	suite.Run(t, new(AggregatorSuite))
}

func (s *AggregatorSuite) SetupTest() {
	s.storage = memory.New()
	logger := testutil.NopLogger()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.events = eventlog.New(s.storage, s.clock, 0)
	locks := sessionlock.New()
	s.sessions = session.NewController(s.storage, s.events, s.random, locks, logger)
	s.aggregator = NewAggregator(s.storage, s.events, locks, logger)
	s.ctx = context.Background()

	s.host = model.Identity{UserRef: "u_host", DisplayName: "Host"}
	s.pat = model.Identity{UserRef: "u_pat", DisplayName: "Pat"}
}

// activeRoundsSession returns an active rounds-mode session with the
// host and one other player seated
func (s *AggregatorSuite) activeRoundsSession(totalRounds int) (*model.Session, model.PlayerID, model.PlayerID) {
	s.random.QueueCode("SCORES")
	sess, hostSeat, err := s.sessions.CreateSession(s.ctx, s.host, session.CreateParams{
		GameSlug:    "liverpool-rummy",
		ScoreMode:   model.ScoreModeRounds,
		MinPlayers:  2,
		MaxPlayers:  4,
		TotalRounds: totalRounds,
	})
	s.Require().NoError(err)

	patSeat, err := s.sessions.Join(s.ctx, sess.ID, s.pat, "")
	s.Require().NoError(err)
	s.Require().NoError(s.sessions.SetReady(s.ctx, sess.ID, s.host, true))
	s.Require().NoError(s.sessions.SetReady(s.ctx, sess.ID, s.pat, true))
	active, err := s.sessions.ChangeStatus(s.ctx, sess.ID, s.host, model.StatusActive)
	s.Require().NoError(err)

	return active, hostSeat.ID, patSeat.ID
}

func (s *AggregatorSuite) activeCategoriesSession(categories []string) (*model.Session, model.PlayerID, model.PlayerID) {
	s.random.QueueCode("YAHTZE")
	sess, hostSeat, err := s.sessions.CreateSession(s.ctx, s.host, session.CreateParams{
		GameSlug:   "yahtzee",
		ScoreMode:  model.ScoreModeCategories,
		MinPlayers: 2,
		MaxPlayers: 4,
		Categories: categories,
	})
	s.Require().NoError(err)

	patSeat, err := s.sessions.Join(s.ctx, sess.ID, s.pat, "")
	s.Require().NoError(err)
	s.Require().NoError(s.sessions.SetReady(s.ctx, sess.ID, s.host, true))
	s.Require().NoError(s.sessions.SetReady(s.ctx, sess.ID, s.pat, true))
	active, err := s.sessions.ChangeStatus(s.ctx, sess.ID, s.host, model.StatusActive)
	s.Require().NoError(err)

	return active, hostSeat.ID, patSeat.ID
}

func (s *AggregatorSuite) TestSetCellRecordsScore() {
	sess, _, patID := s.activeRoundsSession(3)

	cell, err := s.aggregator.SetCell(s.ctx, sess.ID, s.host, patID, model.CellAddress{Round: 1}, 25)
	s.Require().NoError(err)
	s.Equal(25, cell.Value)
	s.Equal(model.UserRef("u_host"), cell.WriterRef)
	s.NotZero(cell.Seq)
}

func (s *AggregatorSuite) TestSetCellRequiresActiveSession() {
	sess, _, patID := s.activeRoundsSession(3)
	_, err := s.sessions.ChangeStatus(s.ctx, sess.ID, s.host, model.StatusPaused)
	s.Require().NoError(err)

	_, err = s.aggregator.SetCell(s.ctx, sess.ID, s.host, patID, model.CellAddress{Round: 1}, 25)
	s.Require().ErrorIs(err, model.ErrSessionNotActive)
}

func (s *AggregatorSuite) TestSetCellRejectsFutureRound() {
	sess, _, patID := s.activeRoundsSession(3)

	// Round 2 has not been reached; writing one past is still invalid
	_, err := s.aggregator.SetCell(s.ctx, sess.ID, s.host, patID, model.CellAddress{Round: 2}, 10)
	s.Require().ErrorIs(err, model.ErrInvalidAddress)
}

func (s *AggregatorSuite) TestSetCellAcceptsEarlierRound() {
	sess, _, patID := s.activeRoundsSession(3)
	_, err := s.sessions.AdvanceRound(s.ctx, sess.ID, s.host, 1)
	s.Require().NoError(err)

	// Correcting a round 1 score during round 2 is allowed
	_, err = s.aggregator.SetCell(s.ctx, sess.ID, s.host, patID, model.CellAddress{Round: 1}, 30)
	s.Require().NoError(err)
}

func (s *AggregatorSuite) TestSetCellRejectsRoundZero() {
	sess, _, patID := s.activeRoundsSession(3)

	_, err := s.aggregator.SetCell(s.ctx, sess.ID, s.host, patID, model.CellAddress{Round: 0}, 10)
	s.Require().ErrorIs(err, model.ErrInvalidAddress)
}

func (s *AggregatorSuite) TestSetCellRejectsUndeclaredCategory() {
	sess, _, patID := s.activeCategoriesSession([]string{"ones", "twos"})

	_, err := s.aggregator.SetCell(s.ctx, sess.ID, s.host, patID, model.CellAddress{CategoryID: "yahtzee"}, 50)
	s.Require().ErrorIs(err, model.ErrInvalidAddress)
}

func (s *AggregatorSuite) TestSetCellRejectsUnknownPlayer() {
	sess, _, _ := s.activeRoundsSession(3)

	_, err := s.aggregator.SetCell(s.ctx, sess.ID, s.host, "nobody", model.CellAddress{Round: 1}, 10)
	s.Require().ErrorIs(err, model.ErrPlayerNotFound)
}

// Last committed write wins regardless of which identity wrote first
func (s *AggregatorSuite) TestLastCommittedWriteWins() {
	sess, _, patID := s.activeRoundsSession(3)

	first, err := s.aggregator.SetCell(s.ctx, sess.ID, s.host, patID, model.CellAddress{Round: 1}, 10)
	s.Require().NoError(err)
	second, err := s.aggregator.SetCell(s.ctx, sess.ID, s.pat, patID, model.CellAddress{Round: 1}, 20)
	s.Require().NoError(err)
	s.Greater(second.Seq, first.Seq)

	cells, err := s.aggregator.Cells(s.ctx, sess.ID)
	s.Require().NoError(err)

	var stored *model.ScoreCell
	for _, c := range cells {
		if c.PlayerID == patID && c.Round == 1 {
			stored = c
		}
	}
	s.Require().NotNil(stored)
	s.Equal(20, stored.Value)
	s.Equal(model.UserRef("u_pat"), stored.WriterRef)

	// Both writes remain in the log even though one cell holds the result
	events, err := s.events.ReadAll(s.ctx, sess.ID)
	s.Require().NoError(err)
	var scoreEvents int
	for _, evt := range events {
		if evt.Type == model.EventScoreCellSet {
			scoreEvents++
		}
	}
	s.Equal(2, scoreEvents)
}

func (s *AggregatorSuite) TestTotalsSumAcrossRounds() {
	sess, hostID, patID := s.activeRoundsSession(3)

	_, err := s.aggregator.SetCell(s.ctx, sess.ID, s.host, patID, model.CellAddress{Round: 1}, 10)
	s.Require().NoError(err)
	_, err = s.sessions.AdvanceRound(s.ctx, sess.ID, s.host, 1)
	s.Require().NoError(err)
	_, err = s.aggregator.SetCell(s.ctx, sess.ID, s.host, patID, model.CellAddress{Round: 2}, 15)
	s.Require().NoError(err)
	_, err = s.aggregator.SetCell(s.ctx, sess.ID, s.host, hostID, model.CellAddress{Round: 2}, 7)
	s.Require().NoError(err)

	totals, err := s.aggregator.Totals(s.ctx, sess.ID)
	s.Require().NoError(err)
	s.Equal(25, totals[patID])
	s.Equal(7, totals[hostID])
}

func (s *AggregatorSuite) TestBuildBoardRoundsIncludesUnscoredRounds() {
	sess, _, patID := s.activeRoundsSession(3)
	_, err := s.sessions.AdvanceRound(s.ctx, sess.ID, s.host, 1)
	s.Require().NoError(err)
	_, err = s.aggregator.SetCell(s.ctx, sess.ID, s.host, patID, model.CellAddress{Round: 2}, 15)
	s.Require().NoError(err)

	sess, err = s.sessions.GetSession(s.ctx, sess.ID)
	s.Require().NoError(err)
	cells, err := s.aggregator.Cells(s.ctx, sess.ID)
	s.Require().NoError(err)

	board := BuildBoard(sess, cells)
	s.Require().Len(board.Rounds, 2)
	s.Equal(1, board.Rounds[0].RoundNumber)
	s.Empty(board.Rounds[0].Scores)
	s.Equal(15, board.Rounds[1].Scores[patID])
	s.Equal(15, board.Totals[patID])
}

func (s *AggregatorSuite) TestBuildBoardCategories() {
	sess, hostID, patID := s.activeCategoriesSession([]string{"ones", "twos", "threes"})

	_, err := s.aggregator.SetCell(s.ctx, sess.ID, s.host, hostID, model.CellAddress{CategoryID: "ones"}, 3)
	s.Require().NoError(err)
	_, err = s.aggregator.SetCell(s.ctx, sess.ID, s.pat, patID, model.CellAddress{CategoryID: "twos"}, 6)
	s.Require().NoError(err)

	sess, err = s.sessions.GetSession(s.ctx, sess.ID)
	s.Require().NoError(err)
	cells, err := s.aggregator.Cells(s.ctx, sess.ID)
	s.Require().NoError(err)

	board := BuildBoard(sess, cells)
	s.Nil(board.Rounds)
	s.Require().Len(board.Categories, 3)
	s.Equal(3, board.Categories["ones"][hostID])
	s.Equal(6, board.Categories["twos"][patID])
	s.Empty(board.Categories["threes"])
	s.Equal(3, board.Totals[hostID])
	s.Equal(6, board.Totals[patID])
}

func (s *AggregatorSuite) TestSetCellRejectsLeftPlayer() {
	sess, _, patID := s.activeRoundsSession(3)

	// Pat leaves mid-game; their seat archives but accepts no new scores
	s.Require().NoError(s.sessions.Leave(s.ctx, sess.ID, s.pat))

	_, err := s.aggregator.SetCell(s.ctx, sess.ID, s.host, patID, model.CellAddress{Round: 1}, 10)
	s.Require().ErrorIs(err, model.ErrPlayerNotFound)
}
