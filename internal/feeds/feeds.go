// Package feeds loads the station list (GBFS-style JSON) and the monthly trip
// list (CSV) from a URL or a local file.
package feeds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"bikewatch.bluebikes.org/internal/logging"
	"bikewatch.bluebikes.org/internal/metrics"
	"bikewatch.bluebikes.org/internal/models"
)

var (
	// ErrStationFeed wraps every failure to fetch or parse the station feed.
	ErrStationFeed = errors.New("station feed")
	// ErrTripFeed wraps every failure to fetch or parse the trip feed.
	ErrTripFeed = errors.New("trip feed")
)

// DefaultTimeout bounds each feed download.
const DefaultTimeout = 60 * time.Second

// Loader fetches feeds. The zero value is not usable; use NewLoader.
type Loader struct {
	client *http.Client
	logger *slog.Logger
}

// NewLoader returns a loader using client, or a client with DefaultTimeout when nil.
func NewLoader(client *http.Client, logger *slog.Logger) *Loader {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Loader{
		client: client,
		logger: logging.Component(logger, "feeds"),
	}
}

// Stations loads and decodes the station feed.
func (l *Loader) Stations(ctx context.Context, source string) (stations []models.Station, err error) {
	start := time.Now()
	defer func() { metrics.ObserveFeed("stations", start, len(stations), err) }()

	rc, err := l.open(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStationFeed, err)
	}
	defer logging.SafeCloseWithLogging(rc, l.logger, "station_feed_body")

	decoded, err := decodeStations(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStationFeed, err)
	}
	stations, dropped := DedupeStations(decoded)
	if len(dropped) > 0 {
		l.logger.Warn("duplicate station short names, keeping the first record of each",
			slog.String("source", source),
			slog.Int("dropped_count", len(dropped)),
			slog.Any("short_names", dropped))
	}

	logging.LogOperation(l.logger, "stations_loaded",
		slog.String("source", source),
		slog.Int("station_count", len(stations)),
		slog.Duration("duration", time.Since(start)))
	return stations, nil
}

// Trips loads and parses the trip feed.
func (l *Loader) Trips(ctx context.Context, source string) (trips []models.Trip, err error) {
	start := time.Now()
	defer func() { metrics.ObserveFeed("trips", start, len(trips), err) }()

	rc, err := l.open(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTripFeed, err)
	}
	defer logging.SafeCloseWithLogging(rc, l.logger, "trip_feed_body")

	trips, err = ParseTrips(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTripFeed, err)
	}

	logging.LogOperation(l.logger, "trips_loaded",
		slog.String("source", source),
		slog.Int("trip_count", len(trips)),
		slog.Duration("duration", time.Since(start)))
	return trips, nil
}

// IsLocalSource reports whether source is a file path rather than an http(s) URL.
func IsLocalSource(source string) bool {
	return !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://")
}

func (l *Loader) open(ctx context.Context, source string) (io.ReadCloser, error) {
	if source == "" {
		return nil, errors.New("no source configured")
	}

	if IsLocalSource(source) {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("error reading local file: %w", err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error downloading %s: %w", source, err)
	}
	if resp.StatusCode != http.StatusOK {
		logging.SafeCloseWithLogging(resp.Body, l.logger, "feed_error_body")
		return nil, fmt.Errorf("error downloading %s: unexpected status %d", source, resp.StatusCode)
	}
	return resp.Body, nil
}
