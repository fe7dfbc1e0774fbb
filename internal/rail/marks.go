package rail

type MarkStatus string

const (
	MarkPassed   MarkStatus = "passed"
	MarkCurrent  MarkStatus = "current"
	MarkUpcoming MarkStatus = "upcoming"
)

// StationMark is one station marker along a followed route.
type StationMark struct {
	Name       string        `json:"name"`
	Time       string        `json:"time,omitempty"`
	Status     MarkStatus    `json:"status"`
	Coordinate GeoCoordinate `json:"coordinate"`
	Known      bool          `json:"known"`
}

// TripMarks marks a trip's stations relative to its current index.
func TripMarks(stations []Station, index int) []StationMark {
	out := make([]StationMark, len(stations))
	for i, s := range stations {
		c, ok := Coordinate(s.Name)
		if !ok {
			c = DefaultCoordinate
		}
		st := MarkUpcoming
		switch {
		case i < index:
			st = MarkPassed
		case i == index:
			st = MarkCurrent
		}
		out[i] = StationMark{Name: s.Name, Time: s.ScheduledTime, Status: st, Coordinate: c, Known: ok}
	}
	return out
}
