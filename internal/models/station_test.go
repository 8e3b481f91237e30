package models

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStation(t *testing.T) {
	t.Run("reads identifier and name", func(t *testing.T) {
		s := NewStation(map[string]any{
			"short_name": "A32000",
			"name":       "Kendall T",
			"lon":        -71.0862,
			"lat":        42.3624,
		})

		assert.Equal(t, "A32000", s.ShortName)
		assert.Equal(t, "Kendall T", s.Name)
		assert.Equal(t, -71.0862, s.Fields["lon"])
		assert.Zero(t, s.TotalTraffic)
	})

	t.Run("stringifies numeric identifiers", func(t *testing.T) {
		var fields map[string]any
		require.NoError(t, json.Unmarshal([]byte(`{"short_name": 1234, "name": "Numbered"}`), &fields))

		s := NewStation(fields)
		assert.Equal(t, "1234", s.ShortName)
	})

	t.Run("missing identifier is empty", func(t *testing.T) {
		s := NewStation(map[string]any{"name": "No id"})
		assert.Equal(t, "", s.ShortName)
	})
}

func TestStationSetTraffic(t *testing.T) {
	var s Station
	s.SetTraffic(3, 4)
	assert.Equal(t, 3, s.Arrivals)
	assert.Equal(t, 4, s.Departures)
	assert.Equal(t, 7, s.TotalTraffic)

	s.SetTraffic(0, 0)
	assert.Equal(t, 0, s.TotalTraffic)
}

func TestNewBikeLaneLayer(t *testing.T) {
	source, layer := NewBikeLaneLayer("boston_route", "https://example.com/boston.geojson")

	assert.Equal(t, "geojson", source.Type)
	assert.Equal(t, "https://example.com/boston.geojson", source.Data)
	assert.Equal(t, "boston_route", layer.Source)
	assert.Equal(t, "line", layer.Type)
	assert.False(t, layer.Interactive)
	assert.Equal(t, BikeLanePaint, layer.Paint)
}

func TestCircleLabel(t *testing.T) {
	c := Circle{Name: "Central Square", Arrivals: 4, Departures: 6, TotalTraffic: 10}
	assert.Equal(t, "Central Square\n10 trips (6 departures, 4 arrivals)", c.Label())
}
