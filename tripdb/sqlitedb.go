// Package tripdb indexes trips by start and end minute of day in SQLite so the
// time window around a slider value can be selected with an indexed query.
package tripdb

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS trips (
	seq INTEGER PRIMARY KEY,
	ride_id TEXT NOT NULL DEFAULT '',
	start_station_id TEXT NOT NULL,
	end_station_id TEXT NOT NULL,
	start_minute INTEGER NOT NULL,
	end_minute INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trips_start_minute ON trips(start_minute);
CREATE INDEX IF NOT EXISTS idx_trips_end_minute ON trips(end_minute);
`

// InitDB opens the database and creates the trips table.
func InitDB(ctx context.Context, config Config) (*sql.DB, error) {
	db, err := sql.Open("sqlite", config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error creating trips table: %w", err)
	}
	return db, nil
}
