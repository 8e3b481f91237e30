package traffic

import (
	"math"

	"bikewatch.bluebikes.org/internal/models"
)

// MaxRadius is the upper end of the radius range in pixels.
const MaxRadius = 25.0

// Scale is a square-root scale from traffic counts to radii over [0, max].
type Scale struct {
	max      int
	maxRange float64
}

// NewScale returns a scale with an empty domain; every radius is 0 until Refit.
func NewScale() *Scale {
	return &Scale{maxRange: MaxRadius}
}

// Refit sets the domain maximum to the largest total traffic among stations.
func (s *Scale) Refit(stations []models.Station) {
	maxTraffic := 0
	for _, station := range stations {
		if station.TotalTraffic > maxTraffic {
			maxTraffic = station.TotalTraffic
		}
	}
	s.max = maxTraffic
}

// Max is the current domain maximum.
func (s *Scale) Max() int {
	return s.max
}

// Radius maps a traffic count to pixels.
func (s *Scale) Radius(count int) float64 {
	if s.max <= 0 || count <= 0 {
		return 0
	}
	r := math.Sqrt(float64(count)/float64(s.max)) * s.maxRange
	return math.Min(r, s.maxRange)
}
