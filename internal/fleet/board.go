package fleet

import (
	"math"
	"strings"

	"train-tracker/internal/order"
)

// MatchBooking picks the first train matching the booking by number, then
// by name, then by case-insensitive containment of the names either way.
// Empty fields never match.
func MatchBooking(trains []Train, o order.Order) (Train, bool) {
	number := strings.TrimSpace(o.TrainNumber)
	name := strings.TrimSpace(o.TrainName)
	if number != "" {
		for _, t := range trains {
			if t.Number == number {
				return t, true
			}
		}
	}
	if name == "" {
		return Train{}, false
	}
	for _, t := range trains {
		if t.Name == name {
			return t, true
		}
	}
	lname := strings.ToLower(name)
	for _, t := range trains {
		tn := strings.ToLower(t.Name)
		if tn == "" {
			continue
		}
		if strings.Contains(tn, lname) || strings.Contains(lname, tn) {
			return t, true
		}
	}
	return Train{}, false
}

// Query filters the schedule board. Empty or "all" fields match everything.
type Query struct {
	Search string
	Status string
	Route  string
}

func Filter(trains []Train, q Query) []Train {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	route := strings.ToLower(strings.TrimSpace(q.Route))
	out := make([]Train, 0, len(trains))
	for _, t := range trains {
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Name), search) &&
			!strings.Contains(strings.ToLower(t.Route), search) &&
			!strings.Contains(t.Number, search) {
			continue
		}
		if q.Status != "" && q.Status != "all" && t.Status != q.Status {
			continue
		}
		if route != "" && route != "all" && !strings.Contains(strings.ToLower(t.Route), route) {
			continue
		}
		out = append(out, t.clone())
	}
	return out
}

type Summary struct {
	Total      int `json:"total"`
	OnTime     int `json:"onTime"`
	Delayed    int `json:"delayed"`
	Percentage int `json:"percentage"`
}

func Summarize(trains []Train) Summary {
	s := Summary{Total: len(trains)}
	for _, t := range trains {
		switch t.Status {
		case StatusOnTime:
			s.OnTime++
		case StatusDelayed:
			s.Delayed++
		}
	}
	if s.Total > 0 {
		s.Percentage = int(math.Round(float64(s.OnTime) / float64(s.Total) * 100))
	}
	return s
}
