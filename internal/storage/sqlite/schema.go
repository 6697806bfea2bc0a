package sqlite

// Schema for the durable store. Archival contract: there is no DELETE
// anywhere in this package; sessions end by status change and roster
// entries leave by setting left_at.
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id               TEXT PRIMARY KEY,
	code             TEXT NOT NULL,
	status           TEXT NOT NULL,
	game_slug        TEXT NOT NULL,
	score_mode       TEXT NOT NULL,
	team_based       INTEGER NOT NULL DEFAULT 0,
	min_players      INTEGER NOT NULL,
	max_players      INTEGER NOT NULL,
	allow_guests     INTEGER NOT NULL DEFAULT 0,
	total_rounds     INTEGER NOT NULL DEFAULT 0,
	categories       TEXT NOT NULL DEFAULT '[]',
	host_user_ref    TEXT NOT NULL,
	current_round    INTEGER NOT NULL DEFAULT 0,
	created_at       TEXT NOT NULL,
	ended_at         TEXT,
	last_activity_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_code ON sessions(code);

CREATE TABLE IF NOT EXISTS players (
	session_id   TEXT NOT NULL,
	player_id    TEXT NOT NULL,
	display_name TEXT NOT NULL,
	position     INTEGER NOT NULL,
	user_ref     TEXT NOT NULL DEFAULT '',
	guest_id     TEXT NOT NULL DEFAULT '',
	is_ready     INTEGER NOT NULL DEFAULT 0,
	joined_at    TEXT NOT NULL,
	left_at      TEXT,
	PRIMARY KEY (session_id, player_id)
);

CREATE TABLE IF NOT EXISTS events (
	session_id TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	event_type TEXT NOT NULL,
	payload    TEXT NOT NULL,
	actor_ref  TEXT NOT NULL DEFAULT '',
	actor_name TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	PRIMARY KEY (session_id, seq)
);

CREATE TABLE IF NOT EXISTS event_seq (
	session_id TEXT PRIMARY KEY,
	next_seq   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS score_cells (
	session_id  TEXT NOT NULL,
	player_id   TEXT NOT NULL,
	round       INTEGER NOT NULL DEFAULT 0,
	category_id TEXT NOT NULL DEFAULT '',
	value       INTEGER NOT NULL,
	writer_ref  TEXT NOT NULL DEFAULT '',
	written_at  TEXT NOT NULL,
	seq         INTEGER NOT NULL,
	PRIMARY KEY (session_id, player_id, round, category_id)
);

CREATE TABLE IF NOT EXISTS accounts (
	user_ref      TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	display_name  TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);
`
