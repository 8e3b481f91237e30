package models

// Station is a bike-share dock. Fields holds the raw feed attributes so that
// coordinates can be resolved from whichever spelling the feed used.
type Station struct {
	ShortName string         `json:"short_name"`
	Name      string         `json:"name"`
	Fields    map[string]any `json:"-"`

	Arrivals     int `json:"arrivals"`
	Departures   int `json:"departures"`
	TotalTraffic int `json:"totalTraffic"`
}

// NewStation builds a station from a decoded feed record.
func NewStation(fields map[string]any) Station {
	return Station{
		ShortName: stringField(fields, "short_name"),
		Name:      stringField(fields, "name"),
		Fields:    fields,
	}
}

// SetTraffic replaces all derived counts together so totalTraffic always
// equals arrivals + departures.
func (s *Station) SetTraffic(arrivals, departures int) {
	s.Arrivals = arrivals
	s.Departures = departures
	s.TotalTraffic = arrivals + departures
}

func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return formatScalar(v)
	}
}
