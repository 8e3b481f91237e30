package restapi

import (
	"errors"
	"net/http"

	"bikewatch.bluebikes.org/internal/models"
	"bikewatch.bluebikes.org/internal/session"
	"bikewatch.bluebikes.org/internal/utils"
)

// Pointer event names accepted by /api/pointer/:event.
const (
	PointerEnter = "enter"
	PointerMove  = "move"
	PointerLeave = "leave"
)

func (api *RestAPI) sliderHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if fieldErrors := utils.RequireParam(query, "value", nil); len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	filter, err := models.ParseTimeFilter(query.Get("value"))
	if err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"value": {err.Error()}})
		return
	}

	err = api.Session.SliderInput(r.Context(), filter)
	if errors.Is(err, session.ErrNotInitialized) {
		api.serviceUnavailableResponse(w, r)
		return
	}
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	api.sendResponse(w, r, models.NewEntryResponse(api.Session.State()))
}

func (api *RestAPI) cameraHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	fieldErrors := make(map[string][]string)

	var p utils.CameraParams
	var hasLon, hasLat bool
	p.Lon, hasLon, fieldErrors = utils.ParseFloatParam(query, "lon", fieldErrors)
	p.Lat, hasLat, fieldErrors = utils.ParseFloatParam(query, "lat", fieldErrors)
	p.Zoom, p.HasZoom, fieldErrors = utils.ParseFloatParam(query, "zoom", fieldErrors)
	p.Width, p.HasWidth, fieldErrors = utils.ParseIntParam(query, "width", fieldErrors)
	p.Height, p.HasHeight, fieldErrors = utils.ParseIntParam(query, "height", fieldErrors)
	p.HasCenter = hasLon && hasLat

	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}
	if hasLon != hasLat {
		api.validationErrorResponse(w, r, map[string][]string{"center": {"lon and lat must be sent together"}})
		return
	}
	if !p.HasCenter && !p.HasZoom && !p.HasWidth && !p.HasHeight {
		api.validationErrorResponse(w, r, map[string][]string{"camera": {"nothing to change"}})
		return
	}

	opts := api.Camera.Options()
	if fieldErrors := utils.ValidateCameraParams(p, opts.MinZoom, opts.MaxZoom); len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	if p.HasWidth {
		api.Camera.Resize(p.Width, p.Height)
	}
	if p.HasCenter || p.HasZoom {
		current := api.Camera.State()
		lon, lat, zoom := current.Center[0], current.Center[1], current.Zoom
		if p.HasCenter {
			lon, lat = p.Lon, p.Lat
		}
		if p.HasZoom {
			zoom = p.Zoom
		}
		api.Camera.JumpTo(lon, lat, zoom)
	}

	api.sendResponse(w, r, models.NewEntryResponse(api.Session.State()))
}

func (api *RestAPI) pointerHandler(w http.ResponseWriter, r *http.Request) {
	event := utils.ExtractIDFromParams(r, "event")
	query := r.URL.Query()

	switch event {
	case PointerEnter, PointerMove:
		fieldErrors := make(map[string][]string)
		x, hasX, fieldErrors := utils.ParseFloatParam(query, "x", fieldErrors)
		y, hasY, fieldErrors := utils.ParseFloatParam(query, "y", fieldErrors)
		if len(fieldErrors) == 0 && (!hasX || !hasY) {
			fieldErrors = utils.RequireParam(query, "x", fieldErrors)
			fieldErrors = utils.RequireParam(query, "y", fieldErrors)
		}

		id := utils.SanitizeInput(query.Get("id"))
		if event == PointerEnter {
			if err := utils.ValidateID(id); err != nil {
				fieldErrors["id"] = append(fieldErrors["id"], err.Error())
			}
		}
		if len(fieldErrors) > 0 {
			api.validationErrorResponse(w, r, fieldErrors)
			return
		}

		if event == PointerMove {
			api.Session.PointerMove(x, y)
			break
		}
		err := api.Session.PointerEnter(id, x, y)
		switch {
		case errors.Is(err, session.ErrNotInitialized):
			api.serviceUnavailableResponse(w, r)
			return
		case errors.Is(err, session.ErrUnknownStation):
			api.sendNotFound(w, r)
			return
		case err != nil:
			api.serverErrorResponse(w, r, err)
			return
		}

	case PointerLeave:
		api.Session.PointerLeave()

	default:
		api.validationErrorResponse(w, r, map[string][]string{
			"event": {"event must be one of enter, move, leave"},
		})
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(api.Session.State()))
}
