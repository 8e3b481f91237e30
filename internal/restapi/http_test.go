package restapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikewatch.bluebikes.org/internal/app"
	"bikewatch.bluebikes.org/internal/appconf"
	"bikewatch.bluebikes.org/internal/feeds"
	"bikewatch.bluebikes.org/internal/models"
)

const testStations = `{"data":{"stations":[
	{"short_name":"A","name":"Alpha","lat":42.36,"lon":-71.09},
	{"short_name":"B","name":"Bravo","lat":42.35,"lon":-71.10},
	{"short_name":"C","name":"Charlie"}]}}`

const testTrips = "start_station_id,end_station_id,started_at,ended_at\n" +
	"A,B,2024-03-01 08:00:00,2024-03-01 08:10:00\n" +
	"B,A,2024-03-01 18:00:00,2024-03-01 18:30:00\n" +
	"A,A,2024-03-01 18:05:00,2024-03-01 18:20:00\n"

func newTestApplication(t *testing.T, cfg appconf.Config) *app.Application {
	t.Helper()
	dir := t.TempDir()
	cfg.StationsURL = filepath.Join(dir, "stations.json")
	cfg.TripsURL = filepath.Join(dir, "trips.csv")
	cfg.BostonURL = "https://example.org/boston.geojson"
	cfg.CambridgeURL = "https://example.org/cambridge.geojson"
	cfg.Env = appconf.Test
	require.NoError(t, os.WriteFile(cfg.StationsURL, []byte(testStations), 0o600))
	require.NoError(t, os.WriteFile(cfg.TripsURL, []byte(testTrips), 0o600))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	application, err := app.New(context.Background(), cfg, logger, feeds.NewLoader(nil, logger))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = application.Hub.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		application.Close()
	})
	return application
}

func createTestApiWithConfig(t *testing.T, cfg appconf.Config) *RestAPI {
	t.Helper()
	application := newTestApplication(t, cfg)
	application.Camera.Load()
	require.NoError(t, application.Session.Init(context.Background()))

	api := NewRestAPI(application)
	t.Cleanup(api.Close)
	return api
}

func createTestApi(t *testing.T) *RestAPI {
	return createTestApiWithConfig(t, appconf.Config{RateLimit: -1})
}

// serveApiAndRetrieveEndpoint runs one request through the full handler and
// decodes the response envelope.
func serveApiAndRetrieveEndpoint(t *testing.T, api *RestAPI, method, endpoint string) (*http.Response, models.ResponseModel) {
	t.Helper()
	server := httptest.NewServer(api.Handler())
	defer server.Close()

	req, err := http.NewRequest(method, server.URL+endpoint, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var model models.ResponseModel
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") && len(body) > 0 {
		require.NoError(t, json.Unmarshal(body, &model))
	}
	resp.Body = io.NopCloser(strings.NewReader(string(body)))
	return resp, model
}

func entryOf(t *testing.T, model models.ResponseModel) map[string]interface{} {
	t.Helper()
	data, ok := model.Data.(map[string]interface{})
	require.True(t, ok, "data should be an object")
	entry, ok := data["entry"].(map[string]interface{})
	require.True(t, ok, "data should hold an entry")
	return entry
}

func fieldErrorsOf(t *testing.T, resp *http.Response) map[string][]string {
	t.Helper()
	var body struct {
		FieldErrors map[string][]string `json:"fieldErrors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.FieldErrors
}

func TestStateEndpoint(t *testing.T) {
	api := createTestApi(t)
	resp, model := serveApiAndRetrieveEndpoint(t, api, http.MethodGet, "/api/state.json")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, http.StatusOK, model.Code)
	assert.Equal(t, 2, model.Version)
	assert.Equal(t, "OK", model.Text)

	entry := entryOf(t, model)
	assert.Equal(t, true, entry["anyTime"])
	assert.Equal(t, "", entry["timeLabel"])
	assert.Equal(t, float64(3), entry["activeTrips"])
	assert.Equal(t, float64(4), entry["maxTraffic"])

	circles, ok := entry["circles"].([]interface{})
	require.True(t, ok)
	require.Len(t, circles, 3)

	alpha := circles[0].(map[string]interface{})
	assert.Equal(t, "A", alpha["id"])
	assert.Equal(t, float64(4), alpha["totalTraffic"])
	assert.InDelta(t, 25.0, alpha["radius"], 1e-9)

	charlie := circles[2].(map[string]interface{})
	assert.Equal(t, "C", charlie["id"])
	assert.Equal(t, float64(-1000), charlie["x"])
	assert.Equal(t, float64(-1000), charlie["y"])
	assert.Equal(t, float64(0), charlie["radius"])
}

func TestLayersEndpoint(t *testing.T) {
	api := createTestApi(t)
	resp, model := serveApiAndRetrieveEndpoint(t, api, http.MethodGet, "/api/layers.json")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := model.Data.(map[string]interface{})
	entry := data["entry"].(map[string]interface{})
	sources := entry["sources"].([]interface{})
	layers := entry["layers"].([]interface{})
	require.Len(t, sources, 2)
	require.Len(t, layers, 2)

	first := layers[0].(map[string]interface{})
	assert.Equal(t, "boston_route", first["id"])
	assert.Equal(t, "line", first["type"])
}

func TestOverlayEndpoint(t *testing.T) {
	api := createTestApi(t)
	resp, _ := serveApiAndRetrieveEndpoint(t, api, http.MethodGet, "/api/overlay.svg")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	svg := string(body)
	assert.Contains(t, svg, `<svg xmlns="http://www.w3.org/2000/svg" width="1024" height="768"`)
	assert.Contains(t, svg, `data-id="A"`)
	assert.Contains(t, svg, `data-id="C"`)
}

func TestStationEndpoint(t *testing.T) {
	api := createTestApi(t)

	t.Run("known station", func(t *testing.T) {
		resp, model := serveApiAndRetrieveEndpoint(t, api, http.MethodGet, "/api/station/B")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		entry := entryOf(t, model)
		assert.Equal(t, "Bravo", entry["name"])
		assert.Equal(t, float64(1), entry["departures"])
		assert.Equal(t, float64(1), entry["arrivals"])
	})

	t.Run("json suffix is ignored", func(t *testing.T) {
		resp, model := serveApiAndRetrieveEndpoint(t, api, http.MethodGet, "/api/station/A.json")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Alpha", entryOf(t, model)["name"])
	})

	t.Run("unknown station", func(t *testing.T) {
		resp, model := serveApiAndRetrieveEndpoint(t, api, http.MethodGet, "/api/station/ZZZ")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, http.StatusNotFound, model.Code)
		assert.Equal(t, "resource not found", model.Text)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp, _ := serveApiAndRetrieveEndpoint(t, api, http.MethodGet, "/api/station/bad%20id")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, fieldErrorsOf(t, resp), "id")
	})
}

func TestHistogramEndpoint(t *testing.T) {
	api := createTestApi(t)
	resp, model := serveApiAndRetrieveEndpoint(t, api, http.MethodGet, "/api/trips/histogram.json")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := model.Data.(map[string]interface{})
	list := data["list"].([]interface{})
	require.Len(t, list, 24)

	eight := list[8].(map[string]interface{})
	assert.Equal(t, float64(8), eight["hour"])
	assert.Equal(t, "8:00 AM", eight["label"])
	assert.Equal(t, float64(1), eight["trips"])

	six := list[18].(map[string]interface{})
	assert.Equal(t, "6:00 PM", six["label"])
	assert.Equal(t, float64(2), six["trips"])
}

func TestSliderEndpoint(t *testing.T) {
	api := createTestApi(t)

	t.Run("filters to the window", func(t *testing.T) {
		resp, model := serveApiAndRetrieveEndpoint(t, api, http.MethodPost, "/api/slider?value=480")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		entry := entryOf(t, model)
		assert.Equal(t, "8:00 AM", entry["timeLabel"])
		assert.Equal(t, false, entry["anyTime"])
		assert.Equal(t, float64(1), entry["activeTrips"])
		assert.Equal(t, float64(1), entry["maxTraffic"])
	})

	t.Run("back to any time", func(t *testing.T) {
		resp, model := serveApiAndRetrieveEndpoint(t, api, http.MethodPost, "/api/slider?value=-1")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		entry := entryOf(t, model)
		assert.Equal(t, true, entry["anyTime"])
		assert.Equal(t, float64(3), entry["activeTrips"])
	})

	tests := []struct {
		name  string
		query string
	}{
		{"missing value", ""},
		{"past midnight", "?value=1440"},
		{"below sentinel", "?value=-2"},
		{"not a number", "?value=noon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := serveApiAndRetrieveEndpoint(t, api, http.MethodPost, "/api/slider"+tt.query)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, fieldErrorsOf(t, resp), "value")
		})
	}

	t.Run("GET is not allowed", func(t *testing.T) {
		resp, model := serveApiAndRetrieveEndpoint(t, api, http.MethodGet, "/api/slider?value=480")
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, http.StatusMethodNotAllowed, model.Code)
	})
}

func TestCameraEndpoint(t *testing.T) {
	api := createTestApi(t)

	t.Run("zoom and center", func(t *testing.T) {
		before, ok := api.Session.Station("A")
		require.True(t, ok)

		resp, _ := serveApiAndRetrieveEndpoint(t, api, http.MethodPost, "/api/camera?lon=-71.1&lat=42.35&zoom=14")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		cam := api.Camera.State()
		assert.Equal(t, [2]float64{-71.1, 42.35}, cam.Center)
		assert.Equal(t, 14.0, cam.Zoom)

		after, ok := api.Session.Station("A")
		require.True(t, ok)
		assert.NotEqual(t, before.X, after.X)
		assert.Equal(t, before.Radius, after.Radius)
	})

	t.Run("resize", func(t *testing.T) {
		resp, _ := serveApiAndRetrieveEndpoint(t, api, http.MethodPost, "/api/camera?width=800&height=600")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		cam := api.Camera.State()
		assert.Equal(t, 800, cam.Width)
		assert.Equal(t, 600, cam.Height)
	})

	tests := []struct {
		name  string
		query string
		field string
	}{
		{"nothing to change", "", "camera"},
		{"lon without lat", "?lon=-71.1", "center"},
		{"zoom above max", "?zoom=19", "zoom"},
		{"bad latitude", "?lon=-71.1&lat=95", "lat"},
		{"not a number", "?zoom=close", "zoom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := serveApiAndRetrieveEndpoint(t, api, http.MethodPost, "/api/camera"+tt.query)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, fieldErrorsOf(t, resp), tt.field)
		})
	}
}

func TestPointerEndpoint(t *testing.T) {
	api := createTestApi(t)

	t.Run("enter shows the tooltip", func(t *testing.T) {
		resp, model := serveApiAndRetrieveEndpoint(t, api, http.MethodPost, "/api/pointer/enter?id=A&x=100&y=200")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		tooltip := entryOf(t, model)["tooltip"].(map[string]interface{})
		assert.Equal(t, true, tooltip["visible"])
		assert.Equal(t, "Alpha\n4 trips (2 departures, 2 arrivals)", tooltip["text"])
		assert.Equal(t, float64(110), tooltip["x"])
		assert.Equal(t, float64(190), tooltip["y"])
	})

	t.Run("move follows the pointer", func(t *testing.T) {
		resp, model := serveApiAndRetrieveEndpoint(t, api, http.MethodPost, "/api/pointer/move?x=50&y=60")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		tooltip := entryOf(t, model)["tooltip"].(map[string]interface{})
		assert.Equal(t, float64(60), tooltip["x"])
		assert.Equal(t, float64(50), tooltip["y"])
	})

	t.Run("leave hides the tooltip", func(t *testing.T) {
		resp, model := serveApiAndRetrieveEndpoint(t, api, http.MethodPost, "/api/pointer/leave")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		tooltip := entryOf(t, model)["tooltip"].(map[string]interface{})
		assert.Equal(t, false, tooltip["visible"])
	})

	t.Run("unknown station", func(t *testing.T) {
		resp, _ := serveApiAndRetrieveEndpoint(t, api, http.MethodPost, "/api/pointer/enter?id=ZZZ&x=1&y=1")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("enter needs an id", func(t *testing.T) {
		resp, _ := serveApiAndRetrieveEndpoint(t, api, http.MethodPost, "/api/pointer/enter?x=1&y=1")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, fieldErrorsOf(t, resp), "id")
	})

	t.Run("move needs coordinates", func(t *testing.T) {
		resp, _ := serveApiAndRetrieveEndpoint(t, api, http.MethodPost, "/api/pointer/move?x=1")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, fieldErrorsOf(t, resp), "y")
	})

	t.Run("unknown event", func(t *testing.T) {
		resp, _ := serveApiAndRetrieveEndpoint(t, api, http.MethodPost, "/api/pointer/click")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, fieldErrorsOf(t, resp), "event")
	})
}

func TestEndpointsBeforeInit(t *testing.T) {
	application := newTestApplication(t, appconf.Config{RateLimit: -1})
	api := NewRestAPI(application)
	t.Cleanup(api.Close)

	resp, _ := serveApiAndRetrieveEndpoint(t, api, http.MethodPost, "/api/slider?value=480")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "5", resp.Header.Get("Retry-After"))

	resp, _ = serveApiAndRetrieveEndpoint(t, api, http.MethodGet, "/api/station/A")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, _ = serveApiAndRetrieveEndpoint(t, api, http.MethodGet, "/api/trips/histogram.json")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, _ = serveApiAndRetrieveEndpoint(t, api, http.MethodPost, "/api/pointer/enter?id=A&x=1&y=1")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, _ = serveApiAndRetrieveEndpoint(t, api, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	var health healthStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "loading", health.Status)
}

func TestHealthEndpoint(t *testing.T) {
	api := createTestApiWithConfig(t, appconf.Config{RateLimit: -1, UseTripIndex: true})
	resp, _ := serveApiAndRetrieveEndpoint(t, api, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health healthStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 3, health.Stations)
	assert.True(t, health.TripIndex)
}

func TestMetricsEndpoint(t *testing.T) {
	api := createTestApi(t)
	resp, _ := serveApiAndRetrieveEndpoint(t, api, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "bikewatch_recompute_duration_seconds")
	assert.Contains(t, string(body), "bikewatch_active_trips")
}

func TestNotFound(t *testing.T) {
	api := createTestApi(t)
	resp, model := serveApiAndRetrieveEndpoint(t, api, http.MethodGet, "/api/nowhere.json")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, http.StatusNotFound, model.Code)
}

func TestHandlerSetsSecurityHeaders(t *testing.T) {
	api := createTestApi(t)
	resp, _ := serveApiAndRetrieveEndpoint(t, api, http.MethodGet, "/api/state.json")
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "default-src 'none'; frame-ancestors 'none';", resp.Header.Get("Content-Security-Policy"))
}

func TestPageReplacesContentSecurityPolicy(t *testing.T) {
	api := createTestApi(t)
	resp, _ := serveApiAndRetrieveEndpoint(t, api, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Security-Policy"), "api.mapbox.com")
}

func TestEventEndpointsAreRateLimited(t *testing.T) {
	api := createTestApiWithConfig(t, appconf.Config{RateLimit: 2})
	server := httptest.NewServer(api.Handler())
	defer server.Close()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := http.Post(server.URL+"/api/slider?value=480", "text/plain", nil)
		require.NoError(t, err)
		_ = resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Reads are never limited.
	resp, err := http.Get(server.URL + "/api/state.json")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebsocketReceivesState(t *testing.T) {
	api := createTestApi(t)
	server := httptest.NewServer(api.Handler())
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var msg struct {
		Type string       `json:"type"`
		Data models.State `json:"data"`
	}
	readState := func() {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &msg))
	}

	readState()
	assert.Equal(t, "state", msg.Type)
	assert.True(t, msg.Data.AnyTime)
	assert.Len(t, msg.Data.Circles, 3)

	require.Eventually(t, func() bool { return api.Hub.ClientCount() == 1 }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, api.Session.SliderInput(context.Background(), 480))

	readState()
	assert.Equal(t, "8:00 AM", msg.Data.TimeLabel)
	assert.Equal(t, 1, msg.Data.ActiveTrips)
}

func TestWebsocketRejectsForeignOrigin(t *testing.T) {
	api := createTestApiWithConfig(t, appconf.Config{RateLimit: -1, CORSOrigins: []string{"https://bikes.example.org"}})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Host = "localhost:4000"

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, api.checkWebSocketOrigin(req))

	req.Header.Set("Origin", "https://bikes.example.org")
	assert.True(t, api.checkWebSocketOrigin(req))

	req.Header.Set("Origin", "http://localhost:4000")
	assert.True(t, api.checkWebSocketOrigin(req))

	req.Header.Del("Origin")
	assert.True(t, api.checkWebSocketOrigin(req))
}
