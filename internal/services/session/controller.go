package session

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/tallydeck/tallydeck/internal/dependencies/random"
	"github.com/tallydeck/tallydeck/internal/model"
	"github.com/tallydeck/tallydeck/internal/services/eventlog"
	"github.com/tallydeck/tallydeck/internal/sessionlock"
	"github.com/tallydeck/tallydeck/internal/storage"
)

const (
	// CodeLength is the length of generated join codes
	CodeLength = 6
	// CodeAlphabet is the characters used in join codes (avoids confusing chars)
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Controller manages the session lifecycle state machine and roster.
// All mutations run inside the session's critical section and assert
// their facts to the event log before updating projections. Header
// timestamps are copied from the committed events, never read from a
// clock directly, so replaying the log reproduces them exactly.
type Controller struct {
	storage storage.Storage
	events  *eventlog.Service
	random  random.Random
	locks   *sessionlock.Keyed
	logger  *slog.Logger
}

// NewController creates a new session controller
func NewController(
	storage storage.Storage,
	events *eventlog.Service,
	random random.Random,
	locks *sessionlock.Keyed,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage: storage,
		events:  events,
		random:  random,
		locks:   locks,
		logger:  logger,
	}
}

// CreateParams holds the fixed configuration of a new session
type CreateParams struct {
	GameSlug    string
	ScoreMode   model.ScoreMode
	TeamBased   bool
	MinPlayers  int
	MaxPlayers  int
	AllowGuests bool
	TotalRounds int
	Categories  []string
}

// CreateSession creates a session with the given identity as host and
// first seated player
func (c *Controller) CreateSession(ctx context.Context, host model.Identity, params CreateParams) (*model.Session, *model.Player, error) {
	if host.IsZero() || !host.Registered() {
		return nil, nil, model.ErrForbidden
	}
	if params.MinPlayers < 1 || params.MaxPlayers < params.MinPlayers {
		return nil, nil, model.ErrStaleTransition
	}
	if params.ScoreMode == model.ScoreModeCategories && len(params.Categories) == 0 {
		return nil, nil, model.ErrInvalidAddress
	}

	// Generate a join code unused by any live session
	var code model.SessionCode
	for {
		code = model.SessionCode(c.random.Code(CodeLength, CodeAlphabet))
		inUse, err := c.storage.CodeInUse(ctx, code)
		if err != nil {
			return nil, nil, err
		}
		if !inUse {
			break
		}
	}

	session := &model.Session{
		ID:          model.SessionID(uuid.NewString()),
		Code:        code,
		Status:      model.StatusWaiting,
		GameSlug:    params.GameSlug,
		ScoreMode:   params.ScoreMode,
		TeamBased:   params.TeamBased,
		MinPlayers:  params.MinPlayers,
		MaxPlayers:  params.MaxPlayers,
		AllowGuests: params.AllowGuests,
		TotalRounds: params.TotalRounds,
		Categories:  params.Categories,
		HostUserRef: host.UserRef,
	}

	unlock := c.locks.Lock(session.ID)
	defer unlock()

	created, err := c.events.Append(ctx, session.ID, model.EventSessionCreated, model.SessionCreatedPayload{
		Code:        session.Code,
		GameSlug:    session.GameSlug,
		ScoreMode:   session.ScoreMode,
		TeamBased:   session.TeamBased,
		MinPlayers:  session.MinPlayers,
		MaxPlayers:  session.MaxPlayers,
		AllowGuests: session.AllowGuests,
		TotalRounds: session.TotalRounds,
		Categories:  session.Categories,
		HostUserRef: session.HostUserRef,
	}, host)
	if err != nil {
		return nil, nil, err
	}

	// Timestamps come from the committed events so a replay of the log
	// reproduces the header exactly
	session.CreatedAt = created.CreatedAt
	session.LastActivityAt = created.CreatedAt

	player, err := c.seat(ctx, session, host, 0)
	if err != nil {
		return nil, nil, err
	}

	session.LastActivityAt = player.JoinedAt
	if err := c.storage.SaveSession(ctx, session); err != nil {
		return nil, nil, err
	}

	c.logger.Info("session created",
		slog.String("session_id", string(session.ID)),
		slog.String("code", string(session.Code)),
		slog.String("game", session.GameSlug),
	)

	return session, player, nil
}

// GetSession retrieves a session by ID
func (c *Controller) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	return c.storage.GetSession(ctx, id)
}

// Discovery is the code-lookup view of a session: the header plus how
// many seats are taken, so a client can tell a full session from a
// joinable one before attempting to join.
type Discovery struct {
	Session *model.Session
	Seated  int
}

// Full reports whether every seat is taken
func (d *Discovery) Full() bool {
	return d.Seated >= d.Session.MaxPlayers
}

// FindByCode looks up a discoverable session by join code. Codes are
// matched case-insensitively; only waiting or active sessions are
// discoverable.
func (c *Controller) FindByCode(ctx context.Context, code string) (*Discovery, error) {
	canonical := model.SessionCode(strings.ToUpper(strings.TrimSpace(code)))
	session, err := c.storage.GetSessionByCode(ctx, canonical)
	if err != nil {
		return nil, err
	}
	if !session.Discoverable() {
		return nil, model.ErrSessionNotFound
	}

	roster, err := c.storage.GetRoster(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	return &Discovery{Session: session, Seated: seatedCount(roster)}, nil
}

// Join seats an identity in the session. Idempotent per identity: an
// already-seated caller gets their existing roster entry back, and a
// previously left seat is reactivated rather than duplicated.
func (c *Controller) Join(ctx context.Context, sessionID model.SessionID, identity model.Identity, displayName string) (*model.Player, error) {
	if identity.IsZero() {
		return nil, model.ErrForbidden
	}

	unlock := c.locks.Lock(sessionID)
	defer unlock()

	session, err := c.storage.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	roster, err := c.storage.GetRoster(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	for _, player := range roster {
		if !player.HeldBy(identity) {
			continue
		}
		if player.Seated() {
			return player, nil
		}
		// Returning player reclaims their old seat, but only while one
		// is free; the seat may have been refilled since they left
		if session.Status.Terminal() {
			return nil, model.ErrSessionEnded
		}
		if seatedCount(roster) >= session.MaxPlayers {
			return nil, model.ErrSessionFull
		}
		return c.reseat(ctx, session, player, identity)
	}

	if session.Status.Terminal() {
		return nil, model.ErrSessionEnded
	}
	if session.Status != model.StatusWaiting {
		return nil, model.ErrSessionNotListed
	}
	if !identity.Registered() && !session.AllowGuests {
		return nil, model.ErrForbidden
	}

	seated := 0
	position := 0
	for _, player := range roster {
		if player.Seated() {
			seated++
		}
		if player.Position >= position {
			position = player.Position + 1
		}
	}
	if seated >= session.MaxPlayers {
		return nil, model.ErrSessionFull
	}

	name := displayName
	if name == "" {
		name = identity.DisplayName
	}
	joined := identity
	joined.DisplayName = name

	player, err := c.seat(ctx, session, joined, position)
	if err != nil {
		return nil, err
	}

	session.LastActivityAt = player.JoinedAt
	if err := c.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	return player, nil
}

// seat appends the join event and writes the roster entry. JoinedAt is
// the committed event's timestamp, not a separate clock read.
func (c *Controller) seat(ctx context.Context, session *model.Session, identity model.Identity, position int) (*model.Player, error) {
	player := &model.Player{
		ID:          model.PlayerID(uuid.NewString()),
		SessionID:   session.ID,
		DisplayName: identity.DisplayName,
		Position:    position,
		UserRef:     identity.UserRef,
		GuestID:     identity.GuestID,
	}

	evt, err := c.events.Append(ctx, session.ID, model.EventPlayerJoined, model.PlayerJoinedPayload{
		PlayerID:    player.ID,
		DisplayName: player.DisplayName,
		Position:    player.Position,
		UserRef:     player.UserRef,
		GuestID:     player.GuestID,
	}, identity)
	if err != nil {
		return nil, err
	}

	player.JoinedAt = evt.CreatedAt
	if err := c.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}
	return player, nil
}

// reseat reactivates a previously left roster entry
func (c *Controller) reseat(ctx context.Context, session *model.Session, player *model.Player, identity model.Identity) (*model.Player, error) {
	evt, err := c.events.Append(ctx, session.ID, model.EventPlayerJoined, model.PlayerJoinedPayload{
		PlayerID:    player.ID,
		DisplayName: player.DisplayName,
		Position:    player.Position,
		UserRef:     player.UserRef,
		GuestID:     player.GuestID,
	}, identity)
	if err != nil {
		return nil, err
	}

	player.LeftAt = nil
	player.IsReady = false
	if err := c.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}

	session.LastActivityAt = evt.CreatedAt
	if err := c.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	return player, nil
}

// Leave releases the caller's seat. The roster entry is archived with
// LeftAt set, never deleted.
func (c *Controller) Leave(ctx context.Context, sessionID model.SessionID, identity model.Identity) error {
	unlock := c.locks.Lock(sessionID)
	defer unlock()

	session, err := c.storage.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}

	player, err := c.seatedPlayer(ctx, sessionID, identity)
	if err != nil {
		return err
	}
	return c.archiveSeat(ctx, session, player, identity)
}

func (c *Controller) archiveSeat(ctx context.Context, session *model.Session, player *model.Player, actor model.Identity) error {
	evt, err := c.events.Append(ctx, session.ID, model.EventPlayerLeft, model.PlayerLeftPayload{
		PlayerID: player.ID,
	}, actor)
	if err != nil {
		return err
	}

	left := evt.CreatedAt
	player.LeftAt = &left
	if err := c.storage.SavePlayer(ctx, player); err != nil {
		return err
	}

	session.LastActivityAt = evt.CreatedAt
	return c.storage.SaveSession(ctx, session)
}

// SetReady flips the caller's ready flag
func (c *Controller) SetReady(ctx context.Context, sessionID model.SessionID, identity model.Identity, ready bool) error {
	unlock := c.locks.Lock(sessionID)
	defer unlock()

	session, err := c.storage.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Status != model.StatusWaiting {
		return model.ErrStaleTransition
	}

	player, err := c.seatedPlayer(ctx, sessionID, identity)
	if err != nil {
		return err
	}
	if player.IsReady == ready {
		return nil
	}

	evt, err := c.events.Append(ctx, sessionID, model.EventPlayerReady, model.PlayerReadyPayload{
		PlayerID: player.ID,
		Ready:    ready,
	}, identity)
	if err != nil {
		return err
	}

	player.IsReady = ready
	if err := c.storage.SavePlayer(ctx, player); err != nil {
		return err
	}

	session.LastActivityAt = evt.CreatedAt
	return c.storage.SaveSession(ctx, session)
}

// AdvanceRound moves an active rounds-mode session from fromRound to
// the next round. A second racing call observes the already-advanced
// state and is rejected as stale rather than double-applied. Advancing
// past the declared total completes the session instead.
func (c *Controller) AdvanceRound(ctx context.Context, sessionID model.SessionID, identity model.Identity, fromRound int) (*model.Session, error) {
	unlock := c.locks.Lock(sessionID)
	defer unlock()

	session, err := c.storage.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.HostUserRef != identity.UserRef {
		return nil, model.ErrNotHost
	}
	if session.Status != model.StatusActive {
		return nil, model.ErrSessionNotActive
	}
	if session.ScoreMode != model.ScoreModeRounds {
		return nil, model.ErrStaleTransition
	}
	if session.CurrentRound != fromRound {
		return nil, model.ErrStaleTransition
	}

	next := session.CurrentRound + 1
	if session.TotalRounds > 0 && next > session.TotalRounds {
		return c.transition(ctx, session, identity, model.StatusCompleted)
	}

	evt, err := c.events.Append(ctx, sessionID, model.EventRoundAdvanced, model.RoundAdvancedPayload{
		Round: next,
	}, identity)
	if err != nil {
		return nil, err
	}

	session.CurrentRound = next
	session.LastActivityAt = evt.CreatedAt
	if err := c.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// ChangeStatus applies a host-requested lifecycle transition
func (c *Controller) ChangeStatus(ctx context.Context, sessionID model.SessionID, identity model.Identity, to model.SessionStatus) (*model.Session, error) {
	unlock := c.locks.Lock(sessionID)
	defer unlock()

	session, err := c.storage.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.HostUserRef != identity.UserRef {
		return nil, model.ErrNotHost
	}
	if !session.CanTransition(to) {
		return nil, model.ErrStaleTransition
	}

	if to == model.StatusActive && session.Status == model.StatusWaiting {
		if err := c.checkActivation(ctx, session); err != nil {
			return nil, err
		}
	}

	return c.transition(ctx, session, identity, to)
}

// checkActivation enforces the waiting -> active preconditions
func (c *Controller) checkActivation(ctx context.Context, session *model.Session) error {
	roster, err := c.storage.GetRoster(ctx, session.ID)
	if err != nil {
		return err
	}

	seated := 0
	for _, player := range roster {
		if !player.Seated() {
			continue
		}
		seated++
		if !player.IsReady {
			return model.ErrPlayersNotReady
		}
	}
	if seated < session.MinPlayers || seated > session.MaxPlayers {
		return model.ErrNotEnoughPlayers
	}
	return nil
}

// transition appends the status event and updates the session header.
// Caller holds the session lock and has validated the transition.
func (c *Controller) transition(ctx context.Context, session *model.Session, actor model.Identity, to model.SessionStatus) (*model.Session, error) {
	from := session.Status

	evt, err := c.events.Append(ctx, session.ID, model.EventStatusChanged, model.StatusChangedPayload{
		From: from,
		To:   to,
	}, actor)
	if err != nil {
		return nil, err
	}

	session.Status = to
	session.LastActivityAt = evt.CreatedAt
	if to.Terminal() {
		ended := evt.CreatedAt
		session.EndedAt = &ended
	}
	if to == model.StatusActive && from == model.StatusWaiting && session.CurrentRound == 0 {
		session.CurrentRound = 1
	}

	if err := c.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	// Cancellation archives the canceling host's own seat; every other
	// roster row stays untouched and readable.
	if to == model.StatusCancelled {
		if player, err := c.seatedPlayer(ctx, session.ID, actor); err == nil {
			if err := c.archiveSeat(ctx, session, player, actor); err != nil {
				return nil, err
			}
		}
	}

	c.logger.Info("session status changed",
		slog.String("session_id", string(session.ID)),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)

	return session, nil
}

// seatedCount counts roster entries currently holding a seat
func seatedCount(roster []*model.Player) int {
	seated := 0
	for _, player := range roster {
		if player.Seated() {
			seated++
		}
	}
	return seated
}

// seatedPlayer finds the caller's active roster entry
func (c *Controller) seatedPlayer(ctx context.Context, sessionID model.SessionID, identity model.Identity) (*model.Player, error) {
	roster, err := c.storage.GetRoster(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for _, player := range roster {
		if player.Seated() && player.HeldBy(identity) {
			return player, nil
		}
	}
	return nil, model.ErrPlayerNotFound
}
