package storage

import (
	"context"

	"github.com/tallydeck/tallydeck/internal/model"
)

// Storage defines the interface for data persistence.
//
// Hard contract for every implementation: session rows, roster entries
// and score cells are never deleted. "Ending" a session is an archival
// write (status change plus timestamps), not an erasure.
type Storage interface {
	// Session operations. GetSessionByCode expects a canonicalized
	// (uppercase) code and resolves to the session most recently saved
	// under it.
	SaveSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id model.SessionID) (*model.Session, error)
	GetSessionByCode(ctx context.Context, code model.SessionCode) (*model.Session, error)
	// CodeInUse reports whether a non-terminal session currently holds
	// the code. Codes of completed or cancelled sessions are reusable.
	CodeInUse(ctx context.Context, code model.SessionCode) (bool, error)

	// Roster operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, sessionID model.SessionID, playerID model.PlayerID) (*model.Player, error)
	GetRoster(ctx context.Context, sessionID model.SessionID) ([]*model.Player, error)

	// Event log operations. AppendEvent assigns the next per-session
	// sequence number atomically with respect to all other appenders
	// for that session and returns the event with Seq set. ListEvents
	// returns events with Seq > afterSeq, oldest first, at most limit
	// (0 means no limit).
	AppendEvent(ctx context.Context, evt model.Event) (model.Event, error)
	ListEvents(ctx context.Context, sessionID model.SessionID, afterSeq uint64, limit int) ([]model.Event, error)

	// Score cell operations. SaveScoreCell upserts by address.
	SaveScoreCell(ctx context.Context, cell *model.ScoreCell) error
	GetScoreCells(ctx context.Context, sessionID model.SessionID) ([]*model.ScoreCell, error)

	// Account operations
	SaveAccount(ctx context.Context, account *model.Account) error
	GetAccount(ctx context.Context, ref model.UserRef) (*model.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*model.Account, error)
}
