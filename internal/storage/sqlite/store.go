package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tallydeck/tallydeck/internal/model"
	"github.com/tallydeck/tallydeck/internal/storage"
)

// Store is a SQLite-backed implementation of the storage interface
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and applies the schema
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// A single writer keeps the per-session seq assignment simple;
	// the engine serializes writes per session above this layer anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode = WAL; PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Ensure Store implements the interface
var _ storage.Storage = (*Store)(nil)

const timeLayout = time.RFC3339Nano

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func decodeTime(v string) time.Time {
	t, _ := time.Parse(timeLayout, v)
	return t
}

func encodeNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return encodeTime(*t)
}

func decodeNullTime(v sql.NullString) *time.Time {
	if !v.Valid {
		return nil
	}
	t := decodeTime(v.String)
	return &t
}

// Session operations

func (s *Store) SaveSession(ctx context.Context, session *model.Session) error {
	categories, err := json.Marshal(session.Categories)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (
			id, code, status, game_slug, score_mode, team_based,
			min_players, max_players, allow_guests, total_rounds,
			categories, host_user_ref, current_round, created_at,
			ended_at, last_activity_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			code = excluded.code,
			status = excluded.status,
			host_user_ref = excluded.host_user_ref,
			current_round = excluded.current_round,
			ended_at = excluded.ended_at,
			last_activity_at = excluded.last_activity_at`,
		session.ID, session.Code, session.Status, session.GameSlug,
		session.ScoreMode, session.TeamBased, session.MinPlayers,
		session.MaxPlayers, session.AllowGuests, session.TotalRounds,
		string(categories), session.HostUserRef, session.CurrentRound,
		encodeTime(session.CreatedAt), encodeNullTime(session.EndedAt),
		encodeTime(session.LastActivityAt),
	)
	return err
}

func (s *Store) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, code, status, game_slug, score_mode, team_based,
			min_players, max_players, allow_guests, total_rounds,
			categories, host_user_ref, current_round, created_at,
			ended_at, last_activity_at
		FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

func (s *Store) GetSessionByCode(ctx context.Context, code model.SessionCode) (*model.Session, error) {
	// Most recently created holder of the code wins; terminal sessions
	// release codes for reuse but stay queryable by id.
	row := s.db.QueryRowContext(ctx, `
		SELECT id, code, status, game_slug, score_mode, team_based,
			min_players, max_players, allow_guests, total_rounds,
			categories, host_user_ref, current_round, created_at,
			ended_at, last_activity_at
		FROM sessions WHERE code = ?
		ORDER BY created_at DESC LIMIT 1`, code)
	return scanSession(row)
}

func (s *Store) CodeInUse(ctx context.Context, code model.SessionCode) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sessions
		WHERE code = ? AND status NOT IN ('completed', 'cancelled')`, code).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*model.Session, error) {
	var session model.Session
	var categories string
	var createdAt, lastActivityAt string
	var endedAt sql.NullString

	err := row.Scan(
		&session.ID, &session.Code, &session.Status, &session.GameSlug,
		&session.ScoreMode, &session.TeamBased, &session.MinPlayers,
		&session.MaxPlayers, &session.AllowGuests, &session.TotalRounds,
		&categories, &session.HostUserRef, &session.CurrentRound,
		&createdAt, &endedAt, &lastActivityAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal([]byte(categories), &session.Categories); err != nil {
		return nil, err
	}
	session.CreatedAt = decodeTime(createdAt)
	session.EndedAt = decodeNullTime(endedAt)
	session.LastActivityAt = decodeTime(lastActivityAt)
	return &session, nil
}

// Roster operations

func (s *Store) SavePlayer(ctx context.Context, player *model.Player) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (
			session_id, player_id, display_name, position, user_ref,
			guest_id, is_ready, joined_at, left_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, player_id) DO UPDATE SET
			display_name = excluded.display_name,
			user_ref = excluded.user_ref,
			guest_id = excluded.guest_id,
			is_ready = excluded.is_ready,
			left_at = excluded.left_at`,
		player.SessionID, player.ID, player.DisplayName, player.Position,
		player.UserRef, player.GuestID, player.IsReady,
		encodeTime(player.JoinedAt), encodeNullTime(player.LeftAt),
	)
	return err
}

func (s *Store) GetPlayer(ctx context.Context, sessionID model.SessionID, playerID model.PlayerID) (*model.Player, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT session_id, player_id, display_name, position, user_ref,
			guest_id, is_ready, joined_at, left_at
		FROM players WHERE session_id = ? AND player_id = ?`, sessionID, playerID)

	player, err := scanPlayer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}
	return player, nil
}

func (s *Store) GetRoster(ctx context.Context, sessionID model.SessionID) ([]*model.Player, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, player_id, display_name, position, user_ref,
			guest_id, is_ready, joined_at, left_at
		FROM players WHERE session_id = ?
		ORDER BY position`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roster []*model.Player
	for rows.Next() {
		player, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		roster = append(roster, player)
	}
	return roster, rows.Err()
}

func scanPlayer(row rowScanner) (*model.Player, error) {
	var player model.Player
	var joinedAt string
	var leftAt sql.NullString

	err := row.Scan(
		&player.SessionID, &player.ID, &player.DisplayName,
		&player.Position, &player.UserRef, &player.GuestID,
		&player.IsReady, &joinedAt, &leftAt,
	)
	if err != nil {
		return nil, err
	}
	player.JoinedAt = decodeTime(joinedAt)
	player.LeftAt = decodeNullTime(leftAt)
	return &player, nil
}

// Event log operations

func (s *Store) AppendEvent(ctx context.Context, evt model.Event) (model.Event, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Event{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Per-session counter row assigns the next sequence number inside
	// the same transaction as the insert: the append is atomic and the
	// log stays gapless.
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO event_seq (session_id, next_seq) VALUES (?, 1)
		ON CONFLICT(session_id) DO NOTHING`, evt.SessionID); err != nil {
		return model.Event{}, fmt.Errorf("init event seq: %w", err)
	}

	var seq uint64
	if err := tx.QueryRowContext(ctx, `
		SELECT next_seq FROM event_seq WHERE session_id = ?`, evt.SessionID).Scan(&seq); err != nil {
		return model.Event{}, fmt.Errorf("get event seq: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE event_seq SET next_seq = next_seq + 1 WHERE session_id = ?`, evt.SessionID); err != nil {
		return model.Event{}, fmt.Errorf("increment event seq: %w", err)
	}

	evt.Seq = seq
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO events (session_id, seq, event_type, payload, actor_ref, actor_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		evt.SessionID, evt.Seq, evt.Type, string(evt.Payload),
		evt.ActorRef, evt.ActorName, encodeTime(evt.CreatedAt),
	); err != nil {
		return model.Event{}, fmt.Errorf("insert event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.Event{}, fmt.Errorf("commit: %w", err)
	}
	return evt, nil
}

func (s *Store) ListEvents(ctx context.Context, sessionID model.SessionID, afterSeq uint64, limit int) ([]model.Event, error) {
	query := `
		SELECT session_id, seq, event_type, payload, actor_ref, actor_name, created_at
		FROM events WHERE session_id = ? AND seq > ?
		ORDER BY seq`
	args := []any{sessionID, afterSeq}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var evt model.Event
		var payload, createdAt string
		if err := rows.Scan(&evt.SessionID, &evt.Seq, &evt.Type, &payload,
			&evt.ActorRef, &evt.ActorName, &createdAt); err != nil {
			return nil, err
		}
		evt.Payload = json.RawMessage(payload)
		evt.CreatedAt = decodeTime(createdAt)
		events = append(events, evt)
	}
	return events, rows.Err()
}

// Score cell operations

func (s *Store) SaveScoreCell(ctx context.Context, cell *model.ScoreCell) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO score_cells (
			session_id, player_id, round, category_id, value,
			writer_ref, written_at, seq
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, player_id, round, category_id) DO UPDATE SET
			value = excluded.value,
			writer_ref = excluded.writer_ref,
			written_at = excluded.written_at,
			seq = excluded.seq`,
		cell.SessionID, cell.PlayerID, cell.Round, cell.CategoryID,
		cell.Value, cell.WriterRef, encodeTime(cell.WrittenAt), cell.Seq,
	)
	return err
}

func (s *Store) GetScoreCells(ctx context.Context, sessionID model.SessionID) ([]*model.ScoreCell, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, player_id, round, category_id, value,
			writer_ref, written_at, seq
		FROM score_cells WHERE session_id = ?
		ORDER BY seq`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cells []*model.ScoreCell
	for rows.Next() {
		var cell model.ScoreCell
		var writtenAt string
		if err := rows.Scan(&cell.SessionID, &cell.PlayerID, &cell.Round,
			&cell.CategoryID, &cell.Value, &cell.WriterRef, &writtenAt,
			&cell.Seq); err != nil {
			return nil, err
		}
		cell.WrittenAt = decodeTime(writtenAt)
		cells = append(cells, &cell)
	}
	return cells, rows.Err()
}

// Account operations

func (s *Store) SaveAccount(ctx context.Context, account *model.Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (
			user_ref, username, display_name, password_hash, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_ref) DO UPDATE SET
			display_name = excluded.display_name,
			password_hash = excluded.password_hash,
			updated_at = excluded.updated_at`,
		account.UserRef, account.Username, account.DisplayName,
		account.PasswordHash, encodeTime(account.CreatedAt),
		encodeTime(account.UpdatedAt),
	)
	return err
}

func (s *Store) GetAccount(ctx context.Context, ref model.UserRef) (*model.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_ref, username, display_name, password_hash, created_at, updated_at
		FROM accounts WHERE user_ref = ?`, ref)
	return scanAccount(row)
}

func (s *Store) GetAccountByUsername(ctx context.Context, username string) (*model.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_ref, username, display_name, password_hash, created_at, updated_at
		FROM accounts WHERE username = ?`, username)
	return scanAccount(row)
}

func scanAccount(row rowScanner) (*model.Account, error) {
	var account model.Account
	var createdAt, updatedAt string

	err := row.Scan(&account.UserRef, &account.Username,
		&account.DisplayName, &account.PasswordHash, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}
	account.CreatedAt = decodeTime(createdAt)
	account.UpdatedAt = decodeTime(updatedAt)
	return &account, nil
}
