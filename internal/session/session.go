// Package session owns the map view state: the station collection, the loaded
// trips, the slider value and the tooltip. Every input event is a method on
// Session and is serialized by its mutex.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bikewatch.bluebikes.org/internal/logging"
	"bikewatch.bluebikes.org/internal/mapengine"
	"bikewatch.bluebikes.org/internal/metrics"
	"bikewatch.bluebikes.org/internal/models"
	"bikewatch.bluebikes.org/internal/projection"
	"bikewatch.bluebikes.org/internal/traffic"
)

// TooltipOffset is how far right of and above the pointer the tooltip sits.
const TooltipOffset = 10.0

var (
	ErrNotInitialized  = errors.New("session not initialized")
	ErrAlreadyStarted  = errors.New("session already initialized")
	ErrInvalidFilter   = errors.New("time filter out of range")
	ErrUnknownStation  = errors.New("unknown station")
	errEngineNotLoaded = errors.New("map engine did not load")
)

// Engine is the part of the map engine the session drives.
type Engine interface {
	projection.Engine
	On(event mapengine.Event, handler func())
	AddSource(source models.Source) error
	AddLayer(layer models.Layer) error
}

// Renderer draws the bound circles and the tooltip.
type Renderer interface {
	Bind(circles []models.Circle)
	SetTooltip(tooltip models.Tooltip)
}

// FeedLoader fetches the two input feeds.
type FeedLoader interface {
	Stations(ctx context.Context, source string) ([]models.Station, error)
	Trips(ctx context.Context, source string) ([]models.Trip, error)
}

// TripIndex selects the trips in a time window. It must agree with
// traffic.FilterByTime.
type TripIndex interface {
	Build(ctx context.Context, trips []models.Trip) error
	Window(ctx context.Context, filter models.TimeFilter) ([]models.Trip, error)
}

// hourlyIndex is implemented by indexes that can count trips per start hour.
type hourlyIndex interface {
	HourlyCounts(ctx context.Context) ([24]int, error)
}

// Overlay is a bike lane GeoJSON source drawn under the stations.
type Overlay struct {
	ID  string
	URL string
}

// Config names the inputs.
type Config struct {
	StationsURL string
	TripsURL    string
	Overlays    []Overlay
}

// Session is safe for concurrent use.
type Session struct {
	cfg       Config
	engine    Engine
	renderer  Renderer
	loader    FeedLoader
	index     TripIndex
	projector *projection.Projector
	scale     *traffic.Scale
	logger    *slog.Logger

	mu          sync.Mutex
	started     bool
	ready       bool
	stations    []models.Station
	positions   []models.Position
	trips       []models.Trip
	activeTrips int
	filter      models.TimeFilter
	tooltip     models.Tooltip
	hovered     string
	layers      []models.Layer
	circles     []models.Circle

	listenersMu sync.RWMutex
	listeners   []func(models.State)
}

// New wires a session. index may be nil, in which case windows are filtered
// in memory.
func New(cfg Config, engine Engine, renderer Renderer, loader FeedLoader, index TripIndex, logger *slog.Logger) *Session {
	return &Session{
		cfg:       cfg,
		engine:    engine,
		renderer:  renderer,
		loader:    loader,
		index:     index,
		projector: projection.NewProjector(engine),
		scale:     traffic.NewScale(),
		logger:    logging.Component(logger, "session"),
		filter:    models.Unfiltered,
	}
}

// OnRedraw registers a listener called with the new state after every redraw.
// Listeners run outside the session lock.
func (s *Session) OnRedraw(fn func(models.State)) {
	s.listenersMu.Lock()
	s.listeners = append(s.listeners, fn)
	s.listenersMu.Unlock()
}

// Ready reports whether Init completed.
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Init waits for the engine to load, adds the bike lane overlays, loads both
// feeds and draws the initial circles. On a feed failure nothing is drawn and
// no camera handlers are registered.
func (s *Session) Init(ctx context.Context) error {
	start := time.Now()

	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	if err := s.waitForLoad(ctx); err != nil {
		return err
	}

	layers, err := s.addOverlays()
	if err != nil {
		return err
	}

	stations, err := s.loader.Stations(ctx, s.cfg.StationsURL)
	if err != nil {
		logging.LogError(s.logger, "failed to load station feed", err,
			slog.String("source", s.cfg.StationsURL))
		return err
	}

	trips, err := s.loader.Trips(ctx, s.cfg.TripsURL)
	if err != nil {
		logging.LogError(s.logger, "failed to load trip feed", err,
			slog.String("source", s.cfg.TripsURL))
		return err
	}

	if s.index != nil {
		if err := s.index.Build(ctx, trips); err != nil {
			logging.LogError(s.logger, "trip index unavailable, filtering in memory", err)
			s.index = nil
		}
	}

	positions := make([]models.Position, len(stations))
	for i := range stations {
		positions[i] = projection.Resolve(stations[i].Fields)
	}

	s.mu.Lock()
	s.stations = stations
	s.positions = positions
	s.trips = trips
	s.layers = layers
	s.recompute(trips)
	s.ready = true
	state := s.stateLocked()
	s.mu.Unlock()

	for _, ev := range []mapengine.Event{mapengine.EventMove, mapengine.EventZoom, mapengine.EventResize, mapengine.EventMoveEnd} {
		s.engine.On(ev, s.CameraChanged)
	}

	metrics.ObserveRecompute("init", start, state.ActiveTrips, state.MaxTraffic)
	logging.LogOperation(s.logger, "session_initialized",
		slog.Int("station_count", len(stations)),
		slog.Int("trip_count", len(trips)),
		slog.Duration("duration", time.Since(start)))

	s.notify(state)
	return nil
}

func (s *Session) waitForLoad(ctx context.Context) error {
	loaded := make(chan struct{})
	var once sync.Once
	s.engine.On(mapengine.EventLoad, func() { once.Do(func() { close(loaded) }) })

	select {
	case <-loaded:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", errEngineNotLoaded, ctx.Err())
	}
}

func (s *Session) addOverlays() ([]models.Layer, error) {
	layers := make([]models.Layer, 0, len(s.cfg.Overlays))
	for _, o := range s.cfg.Overlays {
		source, layer := models.NewBikeLaneLayer(o.ID, o.URL)
		if err := s.engine.AddSource(source); err != nil {
			return nil, fmt.Errorf("adding source %s: %w", o.ID, err)
		}
		if err := s.engine.AddLayer(layer); err != nil {
			return nil, fmt.Errorf("adding layer %s: %w", layer.ID, err)
		}
		layers = append(layers, layer)
	}
	return layers, nil
}

// SliderInput applies a new slider value: the time label changes and the
// circles are recomputed from the trips in the window.
func (s *Session) SliderInput(ctx context.Context, filter models.TimeFilter) error {
	if !filter.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidFilter, filter)
	}
	start := time.Now()

	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	s.filter = filter
	s.recompute(s.window(ctx, filter))
	state := s.stateLocked()
	s.mu.Unlock()

	metrics.ObserveRecompute("slider", start, state.ActiveTrips, state.MaxTraffic)
	s.notify(state)
	return nil
}

// window must be called with s.mu held.
func (s *Session) window(ctx context.Context, filter models.TimeFilter) []models.Trip {
	if s.index != nil && !filter.IsUnfiltered() {
		trips, err := s.index.Window(ctx, filter)
		if err == nil {
			return trips
		}
		logging.LogError(s.logger, "trip index query failed, filtering in memory", err,
			slog.Int("filter", int(filter)))
	}
	return traffic.FilterByTime(s.trips, filter)
}

// CameraChanged re-projects every circle for the current camera.
func (s *Session) CameraChanged() {
	start := time.Now()

	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		return
	}
	s.rebind()
	state := s.stateLocked()
	s.mu.Unlock()

	metrics.ObserveRecompute("camera", start, state.ActiveTrips, state.MaxTraffic)
	s.notify(state)
}

// PointerEnter shows the tooltip for the station circle under the pointer.
func (s *Session) PointerEnter(id string, x, y float64) error {
	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownStation, id)
	}
	s.hovered = id
	s.tooltip = models.Tooltip{
		Visible: true,
		Text:    s.circles[idx].Label(),
		X:       x + TooltipOffset,
		Y:       y - TooltipOffset,
	}
	s.renderer.SetTooltip(s.tooltip)
	state := s.stateLocked()
	s.mu.Unlock()

	s.notify(state)
	return nil
}

// PointerMove keeps a visible tooltip next to the pointer.
func (s *Session) PointerMove(x, y float64) {
	s.mu.Lock()
	if !s.tooltip.Visible {
		s.mu.Unlock()
		return
	}
	s.tooltip.X = x + TooltipOffset
	s.tooltip.Y = y - TooltipOffset
	s.renderer.SetTooltip(s.tooltip)
	state := s.stateLocked()
	s.mu.Unlock()

	s.notify(state)
}

// PointerLeave hides the tooltip.
func (s *Session) PointerLeave() {
	s.mu.Lock()
	s.hovered = ""
	s.tooltip = models.Tooltip{}
	s.renderer.SetTooltip(s.tooltip)
	state := s.stateLocked()
	s.mu.Unlock()

	s.notify(state)
}

// State returns a copy of what is currently drawn.
func (s *Session) State() models.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Station returns the circle of one station.
func (s *Session) Station(id string) (models.Circle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.circles {
		if c.ID == id {
			return c, true
		}
	}
	return models.Circle{}, false
}

// HourlyCounts returns the number of loaded trips starting in each hour,
// regardless of the slider.
func (s *Session) HourlyCounts(ctx context.Context) ([traffic.HoursPerDay]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return [traffic.HoursPerDay]int{}, ErrNotInitialized
	}
	if idx, ok := s.index.(hourlyIndex); ok {
		counts, err := idx.HourlyCounts(ctx)
		if err == nil {
			return counts, nil
		}
		logging.LogError(s.logger, "trip index histogram failed, counting in memory", err)
	}
	return traffic.HourlyCounts(s.trips), nil
}

// recompute aggregates trips, applies the counts to every station as one step,
// refits the scale and rebinds the circles. Must be called with s.mu held.
func (s *Session) recompute(trips []models.Trip) {
	snapshot := traffic.Aggregate(trips)
	snapshot.Apply(s.stations)
	s.activeTrips = snapshot.Trips()
	s.scale.Refit(s.stations)
	s.rebind()

	if s.hovered != "" && s.tooltip.Visible {
		if idx := s.indexOf(s.hovered); idx >= 0 {
			s.tooltip.Text = s.circles[idx].Label()
			s.renderer.SetTooltip(s.tooltip)
		}
	}
}

// rebind must be called with s.mu held.
func (s *Session) rebind() {
	circles := make([]models.Circle, len(s.stations))
	for i, st := range s.stations {
		pt := s.projector.ProjectPosition(s.positions[i])
		circles[i] = models.Circle{
			ID:           st.ShortName,
			Name:         st.Name,
			Radius:       s.scale.Radius(st.TotalTraffic),
			X:            pt.X,
			Y:            pt.Y,
			Arrivals:     st.Arrivals,
			Departures:   st.Departures,
			TotalTraffic: st.TotalTraffic,
		}
	}
	s.circles = circles
	s.renderer.Bind(circles)
}

func (s *Session) indexOf(id string) int {
	for i := range s.stations {
		if s.stations[i].ShortName == id {
			return i
		}
	}
	return -1
}

func (s *Session) stateLocked() models.State {
	circles := make([]models.Circle, len(s.circles))
	copy(circles, s.circles)
	layers := make([]models.Layer, len(s.layers))
	copy(layers, s.layers)

	return models.State{
		Filter:      s.filter,
		TimeLabel:   models.FormatTime(s.filter),
		AnyTime:     s.filter.IsUnfiltered(),
		ActiveTrips: s.activeTrips,
		MaxTraffic:  s.scale.Max(),
		Circles:     circles,
		Tooltip:     s.tooltip,
		Layers:      layers,
	}
}

func (s *Session) notify(state models.State) {
	s.listenersMu.RLock()
	listeners := append([]func(models.State){}, s.listeners...)
	s.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(state)
	}
}
