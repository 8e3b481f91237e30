package restapi

import (
	"net/http"
	"net/url"
	"slices"
	"strings"

	gorillaws "github.com/gorilla/websocket"

	"bikewatch.bluebikes.org/internal/logging"
	"bikewatch.bluebikes.org/internal/websocket"
)

func (api *RestAPI) upgrader() gorillaws.Upgrader {
	return gorillaws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 16 * 1024,
		CheckOrigin:     api.checkWebSocketOrigin,
	}
}

// checkWebSocketOrigin accepts same-host origins, origins listed in the CORS
// configuration, and clients that send no Origin at all.
func (api *RestAPI) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	allowed := api.Config.CORSOrigins
	if slices.Contains(allowed, "*") || slices.Contains(allowed, origin) {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func (api *RestAPI) websocketHandler(w http.ResponseWriter, r *http.Request) {
	upgrader := api.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		logging.LogError(logging.FromContext(r.Context()), "websocket upgrade failed", err)
		return
	}

	initial := websocket.Message{Type: websocket.MessageTypeState, Data: api.Session.State()}
	websocket.NewClient(api.Hub, conn).Start(&initial)
}
