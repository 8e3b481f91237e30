package app

import (
	"context"
	"log/slog"

	"bikewatch.bluebikes.org/internal/appconf"
	"bikewatch.bluebikes.org/internal/logging"
	"bikewatch.bluebikes.org/internal/mapengine"
	"bikewatch.bluebikes.org/internal/render"
	"bikewatch.bluebikes.org/internal/session"
	"bikewatch.bluebikes.org/internal/websocket"
	"bikewatch.bluebikes.org/tripdb"
)

// Overlay IDs of the two bike lane networks.
const (
	BostonOverlayID    = "boston_route"
	CambridgeOverlayID = "cambridge_route"
)

// CameraOptions are the map construction options for cfg. Unset values keep
// the defaults.
func CameraOptions(cfg appconf.Config) mapengine.Options {
	opts := mapengine.DefaultOptions()
	if cfg.MapCenterLon != 0 || cfg.MapCenterLat != 0 {
		opts.Center = [2]float64{cfg.MapCenterLon, cfg.MapCenterLat}
	}
	if cfg.MapZoom != 0 {
		opts.Zoom = cfg.MapZoom
	}
	if cfg.MapStyle != "" {
		opts.Style = cfg.MapStyle
	}
	return opts
}

// New wires the camera, renderer, optional trip index, websocket hub and the
// session. The session is not initialized; call Session.Init.
func New(ctx context.Context, cfg appconf.Config, logger *slog.Logger, loader session.FeedLoader) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}

	application := &Application{
		Config:   cfg,
		Logger:   logger,
		Camera:   mapengine.NewCamera(CameraOptions(cfg)),
		Renderer: render.NewSVG(),
		Hub:      websocket.NewHub(logger),
	}

	var index session.TripIndex
	if cfg.UseTripIndex {
		client, err := tripdb.NewClient(ctx, tripdb.NewConfig(""), logger)
		if err != nil {
			return nil, logging.WrapAndLog(logger, "opening trip index", err)
		}
		application.TripIndex = client
		index = client
	}

	application.Session = session.New(session.Config{
		StationsURL: cfg.StationsURL,
		TripsURL:    cfg.TripsURL,
		Overlays: []session.Overlay{
			{ID: BostonOverlayID, URL: cfg.BostonURL},
			{ID: CambridgeOverlayID, URL: cfg.CambridgeURL},
		},
	}, application.Camera, application.Renderer, loader, index, logger)

	application.Session.OnRedraw(application.Hub.BroadcastState)

	return application, nil
}

// Close releases the trip index.
func (app *Application) Close() {
	if app.TripIndex != nil {
		logging.SafeCloseWithLogging(app.TripIndex, app.Logger, "trip_index")
	}
}
