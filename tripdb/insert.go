package tripdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"bikewatch.bluebikes.org/internal/logging"
	"bikewatch.bluebikes.org/internal/models"
)

// InsertTripBatch replaces the table contents with trips. Row seq is the
// trip's position in the slice.
func InsertTripBatch(ctx context.Context, db *sql.DB, trips []models.Trip, logger *slog.Logger) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer logging.SafeRollbackWithLogging(tx, logger, "insert_trip_batch")

	if _, err := tx.ExecContext(ctx, `DELETE FROM trips`); err != nil {
		return fmt.Errorf("error clearing trips: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trips (
			seq, ride_id, start_station_id, end_station_id, start_minute, end_minute
		) VALUES (?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer logging.HandleDeferredError(&err, stmt.Close, logger, "insert_trip_stmt")

	for i, trip := range trips {
		if _, err := stmt.ExecContext(ctx,
			i, trip.RideID, trip.StartStationID, trip.EndStationID,
			trip.StartMinute(), trip.EndMinute(),
		); err != nil {
			return fmt.Errorf("error inserting trip %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}
