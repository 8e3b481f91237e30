package models

import "time"

// Trip is one rental between two stations. Trips are never modified after load.
type Trip struct {
	RideID         string    `json:"rideId,omitempty"`
	BikeType       string    `json:"bikeType,omitempty"`
	Member         bool      `json:"member"`
	StartStationID string    `json:"startStationId"`
	EndStationID   string    `json:"endStationId"`
	StartedAt      time.Time `json:"startedAt"`
	EndedAt        time.Time `json:"endedAt"`
}

// MinutesSinceMidnight returns hour*60+minute of the wall-clock time, ignoring seconds.
func MinutesSinceMidnight(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// StartMinute is the minute of day the trip started.
func (t Trip) StartMinute() int {
	return MinutesSinceMidnight(t.StartedAt)
}

// EndMinute is the minute of day the trip ended.
func (t Trip) EndMinute() int {
	return MinutesSinceMidnight(t.EndedAt)
}
