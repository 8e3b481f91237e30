package restapi

import (
	"net/http"

	"github.com/goccy/go-json"
)

type healthStatus struct {
	Status    string `json:"status"`
	Stations  int    `json:"stations"`
	Clients   int    `json:"websocketClients"`
	TripIndex bool   `json:"tripIndex"`
}

func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := healthStatus{
		Status:    "ok",
		Stations:  len(api.Session.State().Circles),
		Clients:   api.Hub.ClientCount(),
		TripIndex: api.TripIndex != nil,
	}
	code := http.StatusOK
	if !api.Session.Ready() {
		status.Status = "loading"
		code = http.StatusServiceUnavailable
	}

	setJSONResponseType(w)
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}
