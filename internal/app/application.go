package app

import (
	"log/slog"

	"bikewatch.bluebikes.org/internal/appconf"
	"bikewatch.bluebikes.org/internal/mapengine"
	"bikewatch.bluebikes.org/internal/render"
	"bikewatch.bluebikes.org/internal/session"
	"bikewatch.bluebikes.org/internal/websocket"
	"bikewatch.bluebikes.org/tripdb"
)

// Application holds the dependencies for our HTTP handlers, helpers,
// and middleware.
type Application struct {
	Config    appconf.Config
	Logger    *slog.Logger
	Camera    *mapengine.Camera
	Renderer  *render.SVG
	Session   *session.Session
	TripIndex *tripdb.Client // nil when the index is disabled
	Hub       *websocket.Hub
}
