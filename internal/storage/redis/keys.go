package redis

import (
	"fmt"

	"github.com/tallydeck/tallydeck/internal/model"
)

// Key prefix for all scoresheet data
const keyPrefix = "tallydeck"

// sessionKey returns the Redis key for a Session
func sessionKey(id model.SessionID) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, id)
}

// codeIndexKey returns the Redis key for the join-code -> session_id index
func codeIndexKey(code model.SessionCode) string {
	return fmt.Sprintf("%s:idx:code:%s", keyPrefix, code)
}

// rosterKey returns the Redis key for the HASH of a session's roster
// (field: player_id, value: JSON roster entry)
func rosterKey(id model.SessionID) string {
	return fmt.Sprintf("%s:roster:%s", keyPrefix, id)
}

// eventsKey returns the Redis key for the ZSET event log of a session
// (score: sequence number, member: JSON event)
func eventsKey(id model.SessionID) string {
	return fmt.Sprintf("%s:events:%s", keyPrefix, id)
}

// seqKey returns the Redis key for a session's event sequence counter
func seqKey(id model.SessionID) string {
	return fmt.Sprintf("%s:seq:%s", keyPrefix, id)
}

// cellsKey returns the Redis key for the HASH of a session's score cells
// (field: playerID:round or playerID:categoryID, value: JSON cell)
func cellsKey(id model.SessionID) string {
	return fmt.Sprintf("%s:cells:%s", keyPrefix, id)
}

// cellField returns the hash field addressing one score cell
func cellField(cell *model.ScoreCell) string {
	if cell.CategoryID != "" {
		return fmt.Sprintf("%s:c:%s", cell.PlayerID, cell.CategoryID)
	}
	return fmt.Sprintf("%s:r:%d", cell.PlayerID, cell.Round)
}

// accountKey returns the Redis key for an Account
func accountKey(ref model.UserRef) string {
	return fmt.Sprintf("%s:account:%s", keyPrefix, ref)
}

// usernameIndexKey returns the Redis key for the username -> user_ref index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}
