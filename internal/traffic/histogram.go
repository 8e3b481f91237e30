package traffic

import "bikewatch.bluebikes.org/internal/models"

// HoursPerDay is the number of histogram buckets.
const HoursPerDay = 24

// HourlyCounts counts trips by the hour they started.
func HourlyCounts(trips []models.Trip) [HoursPerDay]int {
	var counts [HoursPerDay]int
	for _, trip := range trips {
		counts[trip.StartedAt.Hour()]++
	}
	return counts
}
