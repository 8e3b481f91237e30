package restapi

import (
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"bikewatch.bluebikes.org/internal/logging"
	"bikewatch.bluebikes.org/internal/models"
)

type errorResponse struct {
	Code        int    `json:"code"`
	CurrentTime int64  `json:"currentTime"`
	Text        string `json:"text"`
	Version     int    `json:"version"`
}

// sendError writes the standard error envelope with the given status.
func (api *RestAPI) sendError(w http.ResponseWriter, r *http.Request, status int, text string) {
	setJSONResponseType(w)
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(errorResponse{
		Code:        status,
		CurrentTime: models.ResponseCurrentTime(),
		Text:        text,
		Version:     2,
	})
	if err != nil {
		logging.LogError(api.Logger, "failed to encode error response", err,
			slog.Int("status", status))
	}
}

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(logging.FromContext(r.Context()), "internal server error", err,
		slog.String("path", r.URL.Path))
	api.sendError(w, r, http.StatusInternalServerError, "internal server error")
}

// serviceUnavailableResponse is sent while the session is still loading or
// failed to load its feeds.
func (api *RestAPI) serviceUnavailableResponse(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "5")
	api.sendError(w, r, http.StatusServiceUnavailable, "station data not loaded")
}

// validationErrorResponse sends a 400 Bad Request response with field-specific validation errors
func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	response := struct {
		FieldErrors map[string][]string `json:"fieldErrors"`
	}{
		FieldErrors: fieldErrors,
	}

	setJSONResponseType(w)
	w.WriteHeader(http.StatusBadRequest)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.LogError(api.Logger, "failed to encode validation error response", err)
	}
}
