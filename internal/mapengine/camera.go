// Package mapengine is a Web Mercator camera that mirrors the browser map
// engine: it owns center, zoom and viewport size, projects coordinates to
// pixels, registers overlay sources and layers, and emits camera events.
package mapengine

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"bikewatch.bluebikes.org/internal/models"
)

// Event names match the browser engine's.
type Event string

const (
	EventLoad    Event = "load"
	EventMove    Event = "move"
	EventZoom    Event = "zoom"
	EventResize  Event = "resize"
	EventMoveEnd Event = "moveend"
)

// TileSize is the pixel size of one tile at zoom 0.
const TileSize = 512.0

// maxLatitude is the Web Mercator latitude cutoff.
const maxLatitude = 85.051129

var (
	ErrDuplicateSource = errors.New("source already exists")
	ErrDuplicateLayer  = errors.New("layer already exists")
	ErrUnknownSource   = errors.New("layer references unknown source")
)

// Options are the construction parameters of the browser engine.
type Options struct {
	Container string     `json:"container"`
	Style     string     `json:"style"`
	Center    [2]float64 `json:"center"`
	Zoom      float64    `json:"zoom"`
	MinZoom   float64    `json:"minZoom"`
	MaxZoom   float64    `json:"maxZoom"`
	Width     int        `json:"width"`
	Height    int        `json:"height"`
}

// DefaultOptions centers the camera on Cambridge/Boston.
func DefaultOptions() Options {
	return Options{
		Container: "map",
		Style:     "mapbox://styles/mapbox/streets-v12",
		Center:    [2]float64{-71.09415, 42.36027},
		Zoom:      12,
		MinZoom:   5,
		MaxZoom:   18,
		Width:     1024,
		Height:    768,
	}
}

// CameraState is a copy of the camera parameters.
type CameraState struct {
	Center [2]float64 `json:"center"`
	Zoom   float64    `json:"zoom"`
	Width  int        `json:"width"`
	Height int        `json:"height"`
}

// Camera is safe for concurrent use. Event handlers run synchronously on the
// goroutine that changed the camera, after the camera lock is released.
type Camera struct {
	mu       sync.RWMutex
	opts     Options
	center   [2]float64
	zoom     float64
	width    int
	height   int
	loaded   bool
	handlers map[Event][]func()
	sources  []models.Source
	layers   []models.Layer
}

func NewCamera(opts Options) *Camera {
	if opts.MaxZoom < opts.MinZoom {
		opts.MinZoom, opts.MaxZoom = opts.MaxZoom, opts.MinZoom
	}
	c := &Camera{
		opts:     opts,
		center:   opts.Center,
		width:    opts.Width,
		height:   opts.Height,
		handlers: make(map[Event][]func()),
	}
	c.zoom = c.clampZoom(opts.Zoom)
	return c
}

// Options returns the construction options.
func (c *Camera) Options() Options {
	return c.opts
}

// On registers a handler. Registering for EventLoad after the map has loaded
// calls the handler immediately.
func (c *Camera) On(event Event, handler func()) {
	c.mu.Lock()
	c.handlers[event] = append(c.handlers[event], handler)
	fireNow := event == EventLoad && c.loaded
	c.mu.Unlock()

	if fireNow {
		handler()
	}
}

// Load marks the map ready and emits EventLoad once.
func (c *Camera) Load() {
	c.mu.Lock()
	if c.loaded {
		c.mu.Unlock()
		return
	}
	c.loaded = true
	c.mu.Unlock()

	c.emit(EventLoad)
}

// Loaded reports whether Load has been called.
func (c *Camera) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// State returns the current camera parameters.
func (c *Camera) State() CameraState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CameraState{Center: c.center, Zoom: c.zoom, Width: c.width, Height: c.height}
}

// JumpTo moves the camera, emitting move, zoom (when the zoom changed) and moveend.
func (c *Camera) JumpTo(lon, lat, zoom float64) {
	c.mu.Lock()
	c.center = [2]float64{wrapLongitude(lon), clampLatitude(lat)}
	newZoom := c.clampZoom(zoom)
	zoomChanged := newZoom != c.zoom
	c.zoom = newZoom
	c.mu.Unlock()

	c.emit(EventMove)
	if zoomChanged {
		c.emit(EventZoom)
	}
	c.emit(EventMoveEnd)
}

// Resize changes the viewport size and emits resize.
func (c *Camera) Resize(width, height int) {
	c.mu.Lock()
	c.width = width
	c.height = height
	c.mu.Unlock()

	c.emit(EventResize)
}

// Project converts a longitude/latitude to pixel coordinates in the viewport.
func (c *Camera) Project(lon, lat float64) models.Point {
	c.mu.RLock()
	center, zoom, width, height := c.center, c.zoom, c.width, c.height
	c.mu.RUnlock()

	worldSize := TileSize * math.Pow(2, zoom)
	cx, cy := mercator(center[0], center[1], worldSize)
	x, y := mercator(lon, lat, worldSize)

	return models.Point{
		X: x - cx + float64(width)/2,
		Y: y - cy + float64(height)/2,
	}
}

// AddSource registers a geometry source.
func (c *Camera) AddSource(source models.Source) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range c.sources {
		if s.ID == source.ID {
			return fmt.Errorf("%w: %s", ErrDuplicateSource, source.ID)
		}
	}
	c.sources = append(c.sources, source)
	return nil
}

// AddLayer registers a styled layer drawn from an existing source.
func (c *Camera) AddLayer(layer models.Layer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	found := false
	for _, s := range c.sources {
		if s.ID == layer.Source {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrUnknownSource, layer.Source)
	}
	for _, l := range c.layers {
		if l.ID == layer.ID {
			return fmt.Errorf("%w: %s", ErrDuplicateLayer, layer.ID)
		}
	}
	c.layers = append(c.layers, layer)
	return nil
}

// Sources returns the registered sources.
func (c *Camera) Sources() []models.Source {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Source(nil), c.sources...)
}

// Layers returns the registered layers.
func (c *Camera) Layers() []models.Layer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Layer(nil), c.layers...)
}

func (c *Camera) emit(event Event) {
	c.mu.RLock()
	handlers := append([]func(){}, c.handlers[event]...)
	c.mu.RUnlock()

	for _, h := range handlers {
		h()
	}
}

func (c *Camera) clampZoom(zoom float64) float64 {
	return math.Max(c.opts.MinZoom, math.Min(c.opts.MaxZoom, zoom))
}

// mercator returns world pixel coordinates for a worldSize-pixel wide world.
func mercator(lon, lat, worldSize float64) (float64, float64) {
	lat = clampLatitude(lat)
	x := (180 + lon) / 360 * worldSize
	y := (180 - 180/math.Pi*math.Log(math.Tan(math.Pi/4+lat*math.Pi/360))) / 360 * worldSize
	return x, y
}

func clampLatitude(lat float64) float64 {
	return math.Max(-maxLatitude, math.Min(maxLatitude, lat))
}

func wrapLongitude(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}
