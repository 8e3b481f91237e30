// Package projection turns station records into screen coordinates.
package projection

import (
	"math"
	"strconv"
	"strings"

	"bikewatch.bluebikes.org/internal/models"
)

// Candidate field names, probed in order. Feeds disagree on spelling.
var (
	LonFields = []string{"lon", "Lon", "Long", "long", "longitude", "Longitude", "lng"}
	LatFields = []string{"lat", "Lat", "latitude", "Latitude"}
)

// Engine is the forward projection of the map camera.
type Engine interface {
	Project(lon, lat float64) models.Point
}

// Resolve reads the station's longitude and latitude from the first present
// candidate field of each list.
func Resolve(fields map[string]any) models.Position {
	lon, ok := firstNumber(fields, LonFields)
	if !ok {
		return models.Unresolvable
	}
	lat, ok := firstNumber(fields, LatFields)
	if !ok {
		return models.Unresolvable
	}
	return models.Position{Lon: lon, Lat: lat, Valid: true}
}

// firstNumber returns the value of the first candidate key present in fields.
// A present but non-numeric value ends the probe.
func firstNumber(fields map[string]any, keys []string) (float64, bool) {
	for _, key := range keys {
		v, present := fields[key]
		if !present || v == nil {
			continue
		}
		return toFinite(v)
	}
	return 0, false
}

func toFinite(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case interface{ Float64() (float64, error) }:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Projector projects stations with the engine's current camera.
type Projector struct {
	engine Engine
}

func NewProjector(engine Engine) *Projector {
	return &Projector{engine: engine}
}

// Project returns the station's screen position, or models.Offscreen when its
// coordinates cannot be resolved.
func (p *Projector) Project(station models.Station) models.Point {
	return p.ProjectPosition(Resolve(station.Fields))
}

// ProjectPosition projects an already resolved position.
func (p *Projector) ProjectPosition(pos models.Position) models.Point {
	if !pos.Valid {
		return models.Offscreen
	}
	pt := p.engine.Project(pos.Lon, pos.Lat)
	if math.IsNaN(pt.X) || math.IsNaN(pt.Y) {
		return models.Offscreen
	}
	return pt
}
