package webui

import (
	"net/http"

	"github.com/davecgh/go-spew/spew"
)

type debugData struct {
	Title string
	Pre   string
}

func writeDebugData(w http.ResponseWriter, title string, data any) {
	content := spew.Sdump(data)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; frame-ancestors 'none';")

	err := templates.ExecuteTemplate(w, "debug_index.html", debugData{
		Title: title,
		Pre:   content,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// DebugIndexHandler dumps one part of the running state, chosen by ?dataType=.
func (webUI *WebUI) DebugIndexHandler(w http.ResponseWriter, r *http.Request) {
	dataType := r.URL.Query().Get("dataType")

	var data any
	var title string

	switch dataType {
	case "state":
		data = webUI.Session.State()
		title = "Session - State"
	case "camera":
		data = webUI.Camera.State()
		title = "Map - Camera"
	case "layers":
		data = struct {
			Sources any
			Layers  any
		}{webUI.Camera.Sources(), webUI.Camera.Layers()}
		title = "Map - Sources and Layers"
	case "circles":
		data = webUI.Renderer.Circles()
		title = "Renderer - Bound Circles"
	case "histogram":
		counts, err := webUI.Session.HourlyCounts(r.Context())
		if err != nil {
			data = map[string]string{"error": err.Error()}
		} else {
			data = counts
		}
		title = "Trips - Starts per Hour"
	case "config":
		cfg := webUI.Config
		if cfg.AccessToken != "" {
			cfg.AccessToken = "<redacted>"
		}
		data = cfg
		title = "Configuration"
	default:
		data = map[string]string{
			"error": "Please use one of the following: state, camera, layers, circles, histogram, config.",
		}
		title = "Choose a data type"
	}

	writeDebugData(w, title, data)
}
