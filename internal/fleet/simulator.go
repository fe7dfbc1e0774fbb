// Package fleet simulates the other trains shown next to the user's own trip.
package fleet

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"train-tracker/internal/geo"
	"train-tracker/internal/order"
	"train-tracker/internal/rail"
)

const (
	// SpeedNormalization converts a km/h speed into progress per tick.
	SpeedNormalization = 15000.0
	// ProgressCap keeps fleet trains short of their terminal so they stay in
	// motion for as long as the simulation runs.
	ProgressCap = 0.99

	DefaultTickInterval = 2 * time.Second
)

// Step is one simulation tick: every train advances by speed/K, capped.
// It does not modify its input.
func Step(trains []Train) []Train {
	out := make([]Train, len(trains))
	for i, t := range trains {
		t = t.clone()
		p := math.Max(t.Progress, 0) + t.Speed/SpeedNormalization
		t.Progress = math.Min(ProgressCap, p)
		out[i] = t
	}
	return out
}

type Metrics interface {
	FleetTickObserve(d time.Duration)
	FollowChangedInc()
}

// Simulator owns the roster, its tick loop and the exclusive follow target.
type Simulator struct {
	mu     sync.RWMutex
	trains []Train
	index  map[string]int

	follow  *FollowTarget
	metrics Metrics
}

func NewSimulator(trains []Train, m Metrics) *Simulator {
	s := &Simulator{
		trains:  make([]Train, len(trains)),
		index:   make(map[string]int, len(trains)),
		metrics: m,
	}
	for i, t := range trains {
		s.trains[i] = t.clone()
		s.index[t.ID] = i
	}
	s.follow = newFollowTarget(func(id string) bool {
		_, ok := s.Train(id)
		return ok
	})
	if m != nil {
		s.follow.OnChange(func(_, _ string) { m.FollowChangedInc() })
	}
	return s
}

// Tick advances the roster once and returns the new state.
func (s *Simulator) Tick() []Train {
	start := time.Now()
	s.mu.Lock()
	s.trains = Step(s.trains)
	out := cloneAll(s.trains)
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.FleetTickObserve(time.Since(start))
	}
	return out
}

// Run ticks every interval until ctx is done. onTick, if set, receives the
// roster after each tick.
func (s *Simulator) Run(ctx context.Context, interval time.Duration, onTick func([]Train)) {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	log.Printf("fleet simulation started: %d trains every %s", s.Len(), interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("fleet simulation stopped")
			return
		case <-ticker.C:
			trains := s.Tick()
			if onTick != nil {
				onTick(trains)
			}
		}
	}
}

func (s *Simulator) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.trains)
}

func (s *Simulator) Trains() []Train {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.trains)
}

func (s *Simulator) Train(id string) (Train, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return Train{}, false
	}
	return s.trains[i].clone(), true
}

// PositionOf interpolates a train's coordinate from its current progress.
func (s *Simulator) PositionOf(id string) (rail.GeoCoordinate, bool) {
	t, ok := s.Train(id)
	if !ok {
		return rail.GeoCoordinate{}, false
	}
	return t.Position(), true
}

func (s *Simulator) FollowTarget() *FollowTarget { return s.follow }

func (s *Simulator) Follow(id string) bool { return s.follow.Follow(id) }

func (s *Simulator) Unfollow() { s.follow.Unfollow() }

func (s *Simulator) Toggle(id string) bool { return s.follow.Toggle(id) }

func (s *Simulator) Following() string { return s.follow.Current() }

// Snapshots renders every train for publication. user, if non-nil, marks
// the train matching the user's booking.
func (s *Simulator) Snapshots(user *order.Order) []Snapshot {
	trains := s.Trains()
	followed := s.Following()
	userTrain := ""
	if user != nil {
		if t, ok := MatchBooking(trains, *user); ok {
			userTrain = t.ID
		}
	}
	out := make([]Snapshot, len(trains))
	for i, t := range trains {
		snap := t.Snapshot()
		snap.IsUserTrain = t.ID == userTrain
		snap.Followed = t.ID == followed
		out[i] = snap
	}
	return out
}

// Position interpolates the train along its station list.
func (t Train) Position() rail.GeoCoordinate {
	if len(t.Stations) < 2 {
		return rail.CoordinateOrDefault("Jakarta Gambir")
	}
	return geo.PositionAlong(t.Stations, t.Progress)
}

// CurrentStation is the station most recently passed; NextStation the one
// after it, or the terminal again at the end of the line.
func (t Train) CurrentStation() string {
	if len(t.Stations) == 0 {
		return ""
	}
	from, _ := geo.SegmentAt(len(t.Stations), t.Progress)
	return t.Stations[from]
}

func (t Train) NextStation() string {
	if len(t.Stations) == 0 {
		return ""
	}
	_, to := geo.SegmentAt(len(t.Stations), t.Progress)
	return t.Stations[to]
}

// Marks labels each station of the train's line for a route overlay.
func (t Train) Marks() []rail.StationMark {
	n := len(t.Stations)
	current := t.CurrentStation()
	out := make([]rail.StationMark, n)
	for i, name := range t.Stations {
		c, ok := rail.Coordinate(name)
		if !ok {
			c = rail.DefaultCoordinate
		}
		st := rail.MarkUpcoming
		passed := n > 1 && t.Progress > float64(i)/float64(n-1)
		switch {
		case name == current:
			st = rail.MarkCurrent
		case passed:
			st = rail.MarkPassed
		}
		out[i] = rail.StationMark{Name: name, Status: st, Coordinate: c, Known: ok}
	}
	return out
}

// Snapshot is the per-train payload published on every tick.
type Snapshot struct {
	ID             string  `json:"id"`
	TrainNumber    string  `json:"trainNumber"`
	Name           string  `json:"name"`
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	Speed          float64 `json:"speed"`
	RouteProgress  float64 `json:"routeProgress"`
	CurrentStation string  `json:"currentStation"`
	NextStation    string  `json:"nextStation"`
	DistanceToNext float64 `json:"distanceToNextKm"`
	Color          string  `json:"color"`
	Status         string  `json:"status"`
	Delay          int     `json:"delay"`
	IsUserTrain    bool    `json:"isUserTrain"`
	Followed       bool    `json:"followed"`
}

func (t Train) Snapshot() Snapshot {
	pos := t.Position()
	return Snapshot{
		ID:             t.ID,
		TrainNumber:    t.Number,
		Name:           t.Name,
		Lat:            pos.Lat,
		Lng:            pos.Lng,
		Speed:          t.Speed,
		RouteProgress:  t.Progress,
		CurrentStation: t.CurrentStation(),
		NextStation:    t.NextStation(),
		DistanceToNext: geo.DistanceAlongKm(pos, []string{t.NextStation()}),
		Color:          t.Color,
		Status:         t.Status,
		Delay:          t.Delay,
	}
}

func cloneAll(trains []Train) []Train {
	out := make([]Train, len(trains))
	for i, t := range trains {
		out[i] = t.clone()
	}
	return out
}
