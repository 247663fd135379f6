package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Connect opens a connection pool to the PostgreSQL database.
func Connect(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS bots (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	wasm_hash TEXT NOT NULL UNIQUE,
	file_path TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS simulations (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL CHECK (status IN ('pending', 'running', 'completed', 'failed')),
	num_games INTEGER NOT NULL,
	games_completed INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	started_at TIMESTAMPTZ,
	completed_at TIMESTAMPTZ,
	error_message TEXT
);

CREATE TABLE IF NOT EXISTS simulation_participants (
	simulation_id TEXT NOT NULL REFERENCES simulations(id),
	bot_id TEXT NOT NULL REFERENCES bots(id),
	seat_index INTEGER NOT NULL,
	games_won INTEGER NOT NULL DEFAULT 0,
	total_money BIGINT NOT NULL DEFAULT 0,
	peak_memory_bytes BIGINT NOT NULL DEFAULT 0,
	disqualified BOOLEAN NOT NULL DEFAULT false,
	PRIMARY KEY (simulation_id, bot_id, seat_index)
);
`

// Migrate creates the bots/simulations/simulation_participants tables if they
// do not already exist. Safe to call on every startup.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
