package models

import (
	"fmt"
	"math"
	"strconv"
)

// Position is a resolved geographic coordinate. Valid is false when the station
// record had no usable longitude or latitude.
type Position struct {
	Lon   float64 `json:"lon"`
	Lat   float64 `json:"lat"`
	Valid bool    `json:"valid"`
}

// Unresolvable is the position of a station whose coordinates could not be read.
var Unresolvable = Position{}

// Point is a screen coordinate in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Offscreen is where stations without coordinates are drawn.
var Offscreen = Point{X: -1000, Y: -1000}

// Circle is the render datum for one station, keyed by ID (the station short name).
type Circle struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Radius       float64 `json:"radius"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Arrivals     int     `json:"arrivals"`
	Departures   int     `json:"departures"`
	TotalTraffic int     `json:"totalTraffic"`
}

// Label is the tooltip text for the circle.
func (c Circle) Label() string {
	return fmt.Sprintf("%s\n%d trips (%d departures, %d arrivals)",
		c.Name, c.TotalTraffic, c.Departures, c.Arrivals)
}

// Tooltip is the floating label shown while hovering a circle.
type Tooltip struct {
	Visible bool    `json:"visible"`
	Text    string  `json:"text"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// State is a consistent copy of everything the page needs to draw.
type State struct {
	Filter      TimeFilter `json:"filter"`
	TimeLabel   string     `json:"timeLabel"`
	AnyTime     bool       `json:"anyTime"`
	ActiveTrips int        `json:"activeTrips"`
	MaxTraffic  int        `json:"maxTraffic"`
	Circles     []Circle   `json:"circles"`
	Tooltip     Tooltip    `json:"tooltip"`
	Layers      []Layer    `json:"layers"`
}

func formatScalar(v any) string {
	switch n := v.(type) {
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return strconv.FormatInt(int64(n), 10)
		}
		return strconv.FormatFloat(n, 'f', -1, 64)
	case int:
		return strconv.Itoa(n)
	case bool:
		return strconv.FormatBool(n)
	case interface{ String() string }:
		return n.String()
	default:
		return ""
	}
}
