package rail

import (
	"strconv"
	"strings"
	"time"
)

type Station struct {
	Name          string `json:"name"`
	ScheduledTime string `json:"time"` // HH:MM
	DwellMillis   int    `json:"stopDuration"`
}

// Dwell returns the station dwell as a duration.
func (s Station) Dwell() time.Duration {
	if s.DwellMillis <= 0 {
		return 0
	}
	return time.Duration(s.DwellMillis) * time.Millisecond
}

// ClockTime parses ScheduledTime into hours and minutes. Malformed values
// resolve to midnight.
func (s Station) ClockTime() (hour, minute int) {
	parts := strings.Split(strings.TrimSpace(s.ScheduledTime), ":")
	if len(parts) < 2 {
		return 0, 0
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return h, 0
	}
	return h, m
}

// Route is an ordered stop list. Resolved routes always have at least two
// stations and a terminal with zero dwell.
type Route struct {
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Stations    []Station `json:"stations"`
	Fallback    bool      `json:"fallback,omitempty"`
}

func (r Route) Len() int { return len(r.Stations) }

func (r Route) Terminal() Station {
	if len(r.Stations) == 0 {
		return Station{}
	}
	return r.Stations[len(r.Stations)-1]
}

func (r Route) Names() []string {
	names := make([]string, len(r.Stations))
	for i, s := range r.Stations {
		names[i] = s.Name
	}
	return names
}

type GeoCoordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
