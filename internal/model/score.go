package model

import "time"

// CellAddress addresses one entry in a session's score matrix. Exactly
// one of Round or CategoryID is meaningful, matching the session's
// score mode.
type CellAddress struct {
	// Round is the 1-based round number for rounds-mode sessions.
	Round int
	// CategoryID names the category for categories-mode sessions.
	CategoryID string
}

// ScoreCell is one addressable numeric entry in the score matrix. Cells
// are a materialized projection of the event log: every write is
// recorded as an event first, and Seq is the sequence number of the
// committing event, which decides last-write-wins ordering.
type ScoreCell struct {
	SessionID  SessionID
	PlayerID   PlayerID
	Round      int
	CategoryID string
	Value      int
	WriterRef  UserRef
	WrittenAt  time.Time
	Seq        uint64
}

// Address returns the cell's address
func (c *ScoreCell) Address() CellAddress {
	return CellAddress{Round: c.Round, CategoryID: c.CategoryID}
}
