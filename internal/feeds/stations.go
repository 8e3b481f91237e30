package feeds

import (
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"bikewatch.bluebikes.org/internal/models"
)

type stationFeed struct {
	Data *struct {
		Stations []map[string]any `json:"stations"`
	} `json:"data"`
}

// ParseStations decodes {"data": {"stations": [...]}}. Records keep all their
// attributes so coordinates can be resolved later under any spelling. Only
// the first record of each short_name is kept.
func ParseStations(r io.Reader) ([]models.Station, error) {
	stations, err := decodeStations(r)
	if err != nil {
		return nil, err
	}
	stations, _ = DedupeStations(stations)
	return stations, nil
}

// DedupeStations keeps the first station of each short_name, in feed order,
// and returns the short names of the records it dropped.
func DedupeStations(stations []models.Station) ([]models.Station, []string) {
	seen := make(map[string]struct{}, len(stations))
	kept := make([]models.Station, 0, len(stations))
	var dropped []string
	for _, st := range stations {
		if _, dup := seen[st.ShortName]; dup {
			dropped = append(dropped, st.ShortName)
			continue
		}
		seen[st.ShortName] = struct{}{}
		kept = append(kept, st)
	}
	return kept, dropped
}

func decodeStations(r io.Reader) ([]models.Station, error) {
	var feed stationFeed
	if err := json.NewDecoder(r).Decode(&feed); err != nil {
		return nil, fmt.Errorf("error decoding station JSON: %w", err)
	}
	if feed.Data == nil || feed.Data.Stations == nil {
		return nil, errors.New("missing data.stations")
	}

	stations := make([]models.Station, 0, len(feed.Data.Stations))
	for _, record := range feed.Data.Stations {
		if record == nil {
			continue
		}
		stations = append(stations, models.NewStation(record))
	}
	return stations, nil
}
