package traffic

import "bikewatch.bluebikes.org/internal/models"

// WindowMinutes is how far either end of a trip may be from the selected minute.
const WindowMinutes = 60

// InWindow reports whether the trip started or ended within WindowMinutes of
// the filter minute. The window does not wrap around midnight.
func InWindow(trip models.Trip, filter models.TimeFilter) bool {
	t := int(filter)
	return abs(trip.StartMinute()-t) <= WindowMinutes || abs(trip.EndMinute()-t) <= WindowMinutes
}

// FilterByTime returns the trips inside the window around filter. The
// unfiltered sentinel returns trips itself.
func FilterByTime(trips []models.Trip, filter models.TimeFilter) []models.Trip {
	if filter.IsUnfiltered() {
		return trips
	}

	filtered := make([]models.Trip, 0, len(trips)/4)
	for _, trip := range trips {
		if InWindow(trip, filter) {
			filtered = append(filtered, trip)
		}
	}
	return filtered
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
