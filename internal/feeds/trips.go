package feeds

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"bikewatch.bluebikes.org/internal/models"
)

// Required trip columns.
const (
	ColumnStartStation = "start_station_id"
	ColumnEndStation   = "end_station_id"
	ColumnStartedAt    = "started_at"
	ColumnEndedAt      = "ended_at"
)

var requiredColumns = []string{ColumnStartStation, ColumnEndStation, ColumnStartedAt, ColumnEndedAt}

// TimestampLayouts are tried in order. Fractional seconds are accepted by all of them.
var TimestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
}

// ParseTimestamp parses a trip timestamp as wall-clock time.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range TimestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// ParseTrips reads a trip CSV with a header row. Unknown columns are ignored.
func ParseTrips(r io.Reader) ([]models.Trip, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("empty trip CSV")
	}
	if err != nil {
		return nil, fmt.Errorf("error reading trip CSV header: %w", err)
	}

	idx := makeIndex(header)
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("trip CSV missing column %q", col)
		}
	}

	var trips []models.Trip
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("error reading trip CSV line %d: %w", line, err)
		}

		trip, err := parseTrip(record, idx)
		if err != nil {
			return nil, fmt.Errorf("trip CSV line %d: %w", line, err)
		}
		trips = append(trips, trip)
	}

	return trips, nil
}

func parseTrip(record []string, idx map[string]int) (models.Trip, error) {
	startedAt, err := ParseTimestamp(getField(record, idx, ColumnStartedAt))
	if err != nil {
		return models.Trip{}, fmt.Errorf("%s: %w", ColumnStartedAt, err)
	}
	endedAt, err := ParseTimestamp(getField(record, idx, ColumnEndedAt))
	if err != nil {
		return models.Trip{}, fmt.Errorf("%s: %w", ColumnEndedAt, err)
	}

	bikeType := getField(record, idx, "rideable_type")
	if bikeType == "" {
		bikeType = getField(record, idx, "bike_type")
	}

	return models.Trip{
		RideID:         getField(record, idx, "ride_id"),
		BikeType:       bikeType,
		Member:         isMember(record, idx),
		StartStationID: getField(record, idx, ColumnStartStation),
		EndStationID:   getField(record, idx, ColumnEndStation),
		StartedAt:      startedAt,
		EndedAt:        endedAt,
	}, nil
}

func isMember(record []string, idx map[string]int) bool {
	if v := getField(record, idx, "member_casual"); v != "" {
		return strings.EqualFold(v, "member")
	}
	switch strings.ToLower(getField(record, idx, "is_member")) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func makeIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		idx[h] = i
	}
	return idx
}

func getField(record []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}
