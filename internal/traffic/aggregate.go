// Package traffic holds the per-station traffic computations: grouping trips
// into arrival and departure counts, restricting trips to a time-of-day window,
// and mapping traffic counts onto circle radii.
package traffic

import "bikewatch.bluebikes.org/internal/models"

// Counts is the derived traffic of one station.
type Counts struct {
	Arrivals   int
	Departures int
}

// Total is arrivals plus departures.
func (c Counts) Total() int {
	return c.Arrivals + c.Departures
}

// Snapshot maps station short names to their counts for one trip subset.
type Snapshot struct {
	counts map[string]Counts
	trips  int
}

// Aggregate groups trips by origin (departures) and destination (arrivals).
func Aggregate(trips []models.Trip) Snapshot {
	counts := make(map[string]Counts)
	for _, trip := range trips {
		dep := counts[trip.StartStationID]
		dep.Departures++
		counts[trip.StartStationID] = dep

		arr := counts[trip.EndStationID]
		arr.Arrivals++
		counts[trip.EndStationID] = arr
	}
	return Snapshot{counts: counts, trips: len(trips)}
}

// For returns the counts for a station id; unknown ids have zero counts.
func (s Snapshot) For(id string) Counts {
	return s.counts[id]
}

// Trips is the number of trips the snapshot was built from.
func (s Snapshot) Trips() int {
	return s.trips
}

// Apply writes the snapshot into every station. All three derived fields of a
// station are replaced together.
func (s Snapshot) Apply(stations []models.Station) {
	for i := range stations {
		c := s.counts[stations[i].ShortName]
		stations[i].SetTraffic(c.Arrivals, c.Departures)
	}
}

// ComputeTraffic aggregates trips and applies the result to stations in place,
// returning the same slice.
func ComputeTraffic(stations []models.Station, trips []models.Trip) []models.Station {
	Aggregate(trips).Apply(stations)
	return stations
}
