// Package metrics registers the Prometheus instruments for feed loading,
// traffic recomputation and the HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FeedFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bikewatch_feed_fetch_duration_seconds",
			Help:    "Duration of station and trip feed loads in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"feed"},
	)

	FeedFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bikewatch_feed_fetch_errors_total",
			Help: "Total number of failed feed loads",
		},
		[]string{"feed"},
	)

	FeedRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bikewatch_feed_records",
			Help: "Number of records loaded from each feed",
		},
		[]string{"feed"},
	)

	RecomputeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bikewatch_recompute_duration_seconds",
			Help:    "Duration of filter, aggregate, refit and redraw passes",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
		[]string{"trigger"},
	)

	ActiveTrips = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bikewatch_active_trips",
			Help: "Number of trips in the current time window",
		},
	)

	MaxStationTraffic = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bikewatch_max_station_traffic",
			Help: "Largest station total traffic in the current time window",
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bikewatch_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bikewatch_websocket_clients",
			Help: "Number of connected websocket clients",
		},
	)
)

// ObserveFeed records the outcome of one feed load.
func ObserveFeed(feed string, start time.Time, records int, err error) {
	FeedFetchDuration.WithLabelValues(feed).Observe(time.Since(start).Seconds())
	if err != nil {
		FeedFetchErrors.WithLabelValues(feed).Inc()
		return
	}
	FeedRecords.WithLabelValues(feed).Set(float64(records))
}

// ObserveRecompute records one recomputation pass.
func ObserveRecompute(trigger string, start time.Time, activeTrips, maxTraffic int) {
	RecomputeDuration.WithLabelValues(trigger).Observe(time.Since(start).Seconds())
	ActiveTrips.Set(float64(activeTrips))
	MaxStationTraffic.Set(float64(maxTraffic))
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
