package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tallydeck/tallydeck/internal/model"
	"github.com/tallydeck/tallydeck/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
//
// Sequence numbers come from a per-session INCR counter; the engine's
// per-session lock guarantees append order matches sequence order, so
// the ZSET event log stays gapless.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{client: client, cfg: cfg}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{client: client, cfg: cfg}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	// Pipeline for atomic save + code index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, sessionKey(session.ID), data, 0)
	pipe.Set(ctx, codeIndexKey(session.Code), string(session.ID), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Storage) GetSessionByCode(ctx context.Context, code model.SessionCode) (*model.Session, error) {
	idStr, err := s.client.Get(ctx, codeIndexKey(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}
	return s.GetSession(ctx, model.SessionID(idStr))
}

func (s *Storage) CodeInUse(ctx context.Context, code model.SessionCode) (bool, error) {
	session, err := s.GetSessionByCode(ctx, code)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return false, nil
		}
		return false, err
	}
	return !session.Status.Terminal(), nil
}

// Roster operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, rosterKey(player.SessionID), string(player.ID), data).Err()
}

func (s *Storage) GetPlayer(ctx context.Context, sessionID model.SessionID, playerID model.PlayerID) (*model.Player, error) {
	data, err := s.client.HGet(ctx, rosterKey(sessionID), string(playerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) GetRoster(ctx context.Context, sessionID model.SessionID) ([]*model.Player, error) {
	entries, err := s.client.HGetAll(ctx, rosterKey(sessionID)).Result()
	if err != nil {
		return nil, err
	}

	roster := make([]*model.Player, 0, len(entries))
	for _, raw := range entries {
		var player model.Player
		if err := json.Unmarshal([]byte(raw), &player); err != nil {
			return nil, err
		}
		roster = append(roster, &player)
	}
	sort.Slice(roster, func(i, j int) bool {
		return roster[i].Position < roster[j].Position
	})
	return roster, nil
}

// Event log operations

func (s *Storage) AppendEvent(ctx context.Context, evt model.Event) (model.Event, error) {
	seq, err := s.client.Incr(ctx, seqKey(evt.SessionID)).Result()
	if err != nil {
		return model.Event{}, err
	}
	evt.Seq = uint64(seq)

	data, err := json.Marshal(evt)
	if err != nil {
		return model.Event{}, err
	}

	err = s.client.ZAdd(ctx, eventsKey(evt.SessionID), redis.Z{
		Score:  float64(evt.Seq),
		Member: data,
	}).Err()
	if err != nil {
		return model.Event{}, err
	}
	return evt, nil
}

func (s *Storage) ListEvents(ctx context.Context, sessionID model.SessionID, afterSeq uint64, limit int) ([]model.Event, error) {
	rangeBy := &redis.ZRangeBy{
		Min: "(" + strconv.FormatUint(afterSeq, 10),
		Max: "+inf",
	}
	if limit > 0 {
		rangeBy.Count = int64(limit)
	}

	raw, err := s.client.ZRangeByScore(ctx, eventsKey(sessionID), rangeBy).Result()
	if err != nil {
		return nil, err
	}

	events := make([]model.Event, 0, len(raw))
	for _, member := range raw {
		var evt model.Event
		if err := json.Unmarshal([]byte(member), &evt); err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	return events, nil
}

// Score cell operations

func (s *Storage) SaveScoreCell(ctx context.Context, cell *model.ScoreCell) error {
	data, err := json.Marshal(cell)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, cellsKey(cell.SessionID), cellField(cell), data).Err()
}

func (s *Storage) GetScoreCells(ctx context.Context, sessionID model.SessionID) ([]*model.ScoreCell, error) {
	entries, err := s.client.HGetAll(ctx, cellsKey(sessionID)).Result()
	if err != nil {
		return nil, err
	}

	cells := make([]*model.ScoreCell, 0, len(entries))
	for _, raw := range entries {
		var cell model.ScoreCell
		if err := json.Unmarshal([]byte(raw), &cell); err != nil {
			return nil, err
		}
		cells = append(cells, &cell)
	}
	sort.Slice(cells, func(i, j int) bool {
		return cells[i].Seq < cells[j].Seq
	})
	return cells, nil
}

// Account operations

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return err
	}

	// Pipeline for atomic save + username index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, accountKey(account.UserRef), data, 0)
	pipe.Set(ctx, usernameIndexKey(account.Username), string(account.UserRef), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetAccount(ctx context.Context, ref model.UserRef) (*model.Account, error) {
	data, err := s.client.Get(ctx, accountKey(ref)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}

	var account model.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Storage) GetAccountByUsername(ctx context.Context, username string) (*model.Account, error) {
	refStr, err := s.client.Get(ctx, usernameIndexKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}
	return s.GetAccount(ctx, model.UserRef(refStr))
}
