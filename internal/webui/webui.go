// Package webui serves the map page and a debug dump of the session.
package webui

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"bikewatch.bluebikes.org/internal/app"
	"bikewatch.bluebikes.org/internal/logging"
)

//go:embed index.html debug_index.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "index.html", "debug_index.html"))

// PageCSP lets the page load the map engine and its tiles.
const PageCSP = "default-src 'self'; " +
	"script-src 'self' 'unsafe-inline' https://api.mapbox.com; " +
	"style-src 'self' 'unsafe-inline' https://api.mapbox.com; " +
	"img-src 'self' data: blob: https:; " +
	"connect-src 'self' ws: wss: https:; " +
	"worker-src blob:; child-src blob:; frame-ancestors 'none';"

type WebUI struct {
	*app.Application
}

func New(application *app.Application) *WebUI {
	return &WebUI{Application: application}
}

type indexData struct {
	AccessToken string
	MapOptions  template.JS
}

// IndexHandler serves the map page with the access token and camera options
// filled in.
func (webUI *WebUI) IndexHandler(w http.ResponseWriter, r *http.Request) {
	opts, err := json.Marshal(webUI.Camera.Options())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := indexData{
		AccessToken: webUI.Config.AccessToken,
		MapOptions:  template.JS(opts),
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		logging.LogError(logging.FromContext(r.Context()), "failed to render index page", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", PageCSP)
	if _, err := buf.WriteTo(w); err != nil {
		logging.LogError(logging.FromContext(r.Context()), "failed to write index page", err,
			slog.String("component", "webui"))
	}
}
