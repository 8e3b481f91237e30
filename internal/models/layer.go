package models

// Source is a geometry source registered with the map engine.
type Source struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data string `json:"data"`
}

// LinePaint holds the static style of a line layer.
type LinePaint struct {
	Color   string  `json:"line-color"`
	Width   float64 `json:"line-width"`
	Opacity float64 `json:"line-opacity"`
}

// Layer is a styled, non-interactive layer drawn from a Source.
type Layer struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Source      string    `json:"source"`
	Paint       LinePaint `json:"paint"`
	Interactive bool      `json:"interactive"`
}

// BikeLanePaint is the style shared by the bike lane overlays.
var BikeLanePaint = LinePaint{
	Color:   "#32D400",
	Width:   5,
	Opacity: 0.6,
}

// NewBikeLaneLayer pairs a GeoJSON source with the bike lane line style.
func NewBikeLaneLayer(id, url string) (Source, Layer) {
	source := Source{ID: id, Type: "geojson", Data: url}
	layer := Layer{
		ID:     id + "-lanes",
		Type:   "line",
		Source: id,
		Paint:  BikeLanePaint,
	}
	return source, layer
}
