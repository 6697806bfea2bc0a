// Package eventlog owns the append-only record of state-changing
// occurrences within a session. The log is the only place new facts
// are asserted; roster, score cells and status are projections of it.
package eventlog

import (
	"context"

	"github.com/tallydeck/tallydeck/internal/dependencies/clock"
	"github.com/tallydeck/tallydeck/internal/model"
	"github.com/tallydeck/tallydeck/internal/storage"
)

// DefaultPageSize caps how many events one poll returns. Events beyond
// the cap arrive on later polls as the client's cursor advances.
const DefaultPageSize = 200

// Service appends to and reads from per-session event logs
type Service struct {
	storage  storage.Storage
	clock    clock.Clock
	pageSize int
}

// New creates a new event log service
func New(storage storage.Storage, clock clock.Clock, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Service{
		storage:  storage,
		clock:    clock,
		pageSize: pageSize,
	}
}

// Append records an event and assigns it the next sequence number for
// the session. Callers serialize appends per session; see sessionlock.
func (s *Service) Append(ctx context.Context, sessionID model.SessionID, typ model.EventType, payload any, actor model.Identity) (model.Event, error) {
	evt := model.Event{
		SessionID: sessionID,
		Type:      typ,
		Payload:   model.EncodePayload(payload),
		ActorRef:  actor.UserRef,
		ActorName: actor.DisplayName,
		CreatedAt: s.clock.Now(),
	}
	return s.storage.AppendEvent(ctx, evt)
}

// ReadSince returns events with sequence numbers greater than cursor,
// oldest first, capped at the configured page size
func (s *Service) ReadSince(ctx context.Context, sessionID model.SessionID, cursor uint64) ([]model.Event, error) {
	return s.storage.ListEvents(ctx, sessionID, cursor, s.pageSize)
}

// ReadAll returns the full committed log, oldest first, without paging.
// Used by replay verification, not by the poll path.
func (s *Service) ReadAll(ctx context.Context, sessionID model.SessionID) ([]model.Event, error) {
	return s.storage.ListEvents(ctx, sessionID, 0, 0)
}
