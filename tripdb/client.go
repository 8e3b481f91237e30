package tripdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bikewatch.bluebikes.org/internal/logging"
	"bikewatch.bluebikes.org/internal/models"
)

// WindowMinutes must match the in-memory filter's window.
const WindowMinutes = 60

// Client is the main entry point for the trip index. It keeps the loaded
// trips so query results are the original values, not a re-decoded copy.
type Client struct {
	DB     *sql.DB
	logger *slog.Logger

	mu    sync.RWMutex
	trips []models.Trip
}

// NewClient opens the index database.
func NewClient(ctx context.Context, config Config, logger *slog.Logger) (*Client, error) {
	db, err := InitDB(ctx, config)
	if err != nil {
		return nil, err
	}
	return &Client{
		DB:     db,
		logger: logging.Component(logger, "trip_index"),
	}, nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}

// Build indexes trips, replacing any previous contents.
func (c *Client) Build(ctx context.Context, trips []models.Trip) error {
	start := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := InsertTripBatch(ctx, c.DB, trips, c.logger); err != nil {
		return err
	}
	c.trips = trips

	logging.LogOperation(c.logger, "trip_index_built",
		slog.Int("trip_count", len(trips)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// Len is the number of indexed trips.
func (c *Client) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.trips)
}

// Window returns the trips that started or ended within WindowMinutes of
// filter, in load order. The unfiltered sentinel returns every trip.
func (c *Client) Window(ctx context.Context, filter models.TimeFilter) ([]models.Trip, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if filter.IsUnfiltered() {
		return c.trips, nil
	}

	t := int(filter)
	rows, err := c.DB.QueryContext(ctx, `
		SELECT seq FROM trips
		WHERE start_minute BETWEEN ? AND ?
		   OR end_minute BETWEEN ? AND ?
		ORDER BY seq`,
		t-WindowMinutes, t+WindowMinutes, t-WindowMinutes, t+WindowMinutes)
	if err != nil {
		return nil, fmt.Errorf("error querying trip window: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows, c.logger, "trip_window_rows")

	var out []models.Trip
	for rows.Next() {
		var seq int
		if err := rows.Scan(&seq); err != nil {
			return nil, fmt.Errorf("error scanning trip window: %w", err)
		}
		if seq < 0 || seq >= len(c.trips) {
			return nil, fmt.Errorf("trip index out of sync: seq %d of %d", seq, len(c.trips))
		}
		out = append(out, c.trips[seq])
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading trip window: %w", err)
	}
	return out, nil
}

// HourlyCounts returns the number of trips starting in each hour of the day.
func (c *Client) HourlyCounts(ctx context.Context) ([24]int, error) {
	var counts [24]int

	c.mu.RLock()
	defer c.mu.RUnlock()

	rows, err := c.DB.QueryContext(ctx, `
		SELECT start_minute / 60 AS hour, COUNT(*)
		FROM trips
		GROUP BY hour`)
	if err != nil {
		return counts, fmt.Errorf("error querying hourly counts: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows, c.logger, "hourly_count_rows")

	for rows.Next() {
		var hour, n int
		if err := rows.Scan(&hour, &n); err != nil {
			return counts, fmt.Errorf("error scanning hourly counts: %w", err)
		}
		if hour >= 0 && hour < len(counts) {
			counts[hour] = n
		}
	}
	return counts, rows.Err()
}
