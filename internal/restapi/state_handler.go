package restapi

import (
	"bytes"
	"net/http"

	"bikewatch.bluebikes.org/internal/models"
	"bikewatch.bluebikes.org/internal/utils"
)

func (api *RestAPI) stateHandler(w http.ResponseWriter, r *http.Request) {
	api.sendResponse(w, r, models.NewEntryResponse(api.Session.State()))
}

type layersEntry struct {
	Sources []models.Source `json:"sources"`
	Layers  []models.Layer  `json:"layers"`
}

func (api *RestAPI) layersHandler(w http.ResponseWriter, r *http.Request) {
	api.sendResponse(w, r, models.NewEntryResponse(layersEntry{
		Sources: api.Camera.Sources(),
		Layers:  api.Camera.Layers(),
	}))
}

func (api *RestAPI) overlayHandler(w http.ResponseWriter, r *http.Request) {
	cam := api.Camera.State()

	var buf bytes.Buffer
	if err := api.Renderer.WriteSVG(&buf, cam.Width, cam.Height); err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

func (api *RestAPI) stationHandler(w http.ResponseWriter, r *http.Request) {
	id := utils.ExtractIDFromParams(r, "id")
	if err := utils.ValidateID(id); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"id": {err.Error()}})
		return
	}

	if !api.Session.Ready() {
		api.serviceUnavailableResponse(w, r)
		return
	}

	circle, ok := api.Session.Station(id)
	if !ok {
		api.sendNotFound(w, r)
		return
	}
	api.sendResponse(w, r, models.NewEntryResponse(circle))
}
