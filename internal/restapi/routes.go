package restapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"bikewatch.bluebikes.org/internal/metrics"
	"bikewatch.bluebikes.org/internal/webui"
)

// SetRoutes registers the page, the JSON API, the websocket and the
// operational endpoints on router.
func (api *RestAPI) SetRoutes(router *httprouter.Router) {
	ui := webui.New(api.Application)

	get := func(path string, h http.Handler) {
		router.Handler(http.MethodGet, path, withRoute(path, h))
	}
	post := func(path string, h http.Handler) {
		router.Handler(http.MethodPost, path, withRoute(path, api.limited(h)))
	}
	compressed := func(h http.HandlerFunc) http.Handler {
		return CompressionMiddleware(h)
	}

	get("/", compressed(ui.IndexHandler))
	get("/debug/", compressed(ui.DebugIndexHandler))

	get("/api/state.json", compressed(api.stateHandler))
	get("/api/layers.json", compressed(api.layersHandler))
	get("/api/overlay.svg", compressed(api.overlayHandler))
	get("/api/station/:id", compressed(api.stationHandler))
	get("/api/trips/histogram.json", compressed(api.histogramHandler))

	post("/api/slider", compressed(api.sliderHandler))
	post("/api/camera", compressed(api.cameraHandler))
	post("/api/pointer/:event", compressed(api.pointerHandler))

	get("/ws", http.HandlerFunc(api.websocketHandler))
	get("/healthz", http.HandlerFunc(api.healthHandler))
	get("/metrics", metrics.Handler())

	router.NotFound = http.HandlerFunc(api.sendNotFound)
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.sendError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})
}

// Handler returns the full server handler: routes behind request logging,
// security headers and CORS.
func (api *RestAPI) Handler() http.Handler {
	router := httprouter.New()
	api.SetRoutes(router)

	var handler http.Handler = router
	handler = NewCORSMiddleware(api.Config.CORSOrigins)(handler)
	handler = api.WithSecurityHeaders(handler)
	handler = NewRequestLoggingMiddleware(api.Logger)(handler)
	return handler
}
