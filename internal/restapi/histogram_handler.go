package restapi

import (
	"errors"
	"net/http"

	"bikewatch.bluebikes.org/internal/models"
	"bikewatch.bluebikes.org/internal/session"
)

type hourBucket struct {
	Hour  int    `json:"hour"`
	Label string `json:"label"`
	Trips int    `json:"trips"`
}

func (api *RestAPI) histogramHandler(w http.ResponseWriter, r *http.Request) {
	counts, err := api.Session.HourlyCounts(r.Context())
	if errors.Is(err, session.ErrNotInitialized) {
		api.serviceUnavailableResponse(w, r)
		return
	}
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	buckets := make([]hourBucket, len(counts))
	for hour, n := range counts {
		buckets[hour] = hourBucket{
			Hour:  hour,
			Label: models.FormatTime(models.TimeFilter(hour * 60)),
			Trips: n,
		}
	}
	api.sendResponse(w, r, models.NewListResponse(buckets))
}
