package progress

import (
	"errors"
	"fmt"
	"time"

	"train-tracker/internal/rail"
)

var ErrEmptyRoute = errors.New("progress: route has no stations")

type Phase int

const (
	Dwelling Phase = iota
	Moving
	Arrived
)

func (p Phase) String() string {
	switch p {
	case Dwelling:
		return "DWELLING"
	case Moving:
		return "MOVING"
	case Arrived:
		return "ARRIVED"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

type Timing struct {
	StartupDelay time.Duration
	MoveDuration time.Duration
	// DefaultDwell applies to intermediate stations declaring no dwell.
	DefaultDwell time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		StartupDelay: 2 * time.Second,
		MoveDuration: 3 * time.Second,
		DefaultDwell: 2 * time.Second,
	}
}

// State is the observable progress of one trip. While Moving, Index already
// points at the station being approached.
type State struct {
	Index    int   `json:"currentStationIndex"`
	Phase    Phase `json:"movementPhase"`
	Stations int   `json:"stations"`
}

// Percent is floor(Index/(Stations-1)*100).
func (s State) Percent() int {
	if s.Stations <= 1 {
		return 100
	}
	return s.Index * 100 / (s.Stations - 1)
}

// Fraction is the route progress in [0,1].
func (s State) Fraction() float64 {
	if s.Stations <= 1 {
		return 1
	}
	return float64(s.Index) / float64(s.Stations-1)
}

type Transition struct {
	From State
	To   State
	At   time.Time
}

// Machine advances a trip through its stations. It owns no timers: callers
// read Deadline and call Fire once it has passed, which keeps it testable
// with synthetic clocks. A Machine is not safe for concurrent use.
type Machine struct {
	stations []rail.Station
	timing   Timing

	state    State
	started  bool
	deadline time.Time
}

func NewMachine(stations []rail.Station, timing Timing) (*Machine, error) {
	if len(stations) == 0 {
		return nil, ErrEmptyRoute
	}
	st := make([]rail.Station, len(stations))
	copy(st, stations)
	return &Machine{
		stations: st,
		timing:   timing,
		state:    State{Stations: len(st)},
	}, nil
}

// Start (re)sets the trip at the origin. The first departure is gated by the
// startup delay; a single-station route is already arrived.
func (m *Machine) Start(now time.Time) State {
	m.started = true
	m.state = State{Index: 0, Phase: Dwelling, Stations: len(m.stations)}
	if len(m.stations) == 1 {
		m.state.Phase = Arrived
		m.deadline = time.Time{}
		return m.state
	}
	m.deadline = now.Add(m.timing.StartupDelay)
	return m.state
}

func (m *Machine) State() State { return m.state }

func (m *Machine) Stations() []rail.Station { return m.stations }

// Deadline reports when the next transition is due. ok is false before
// Start and once the trip has arrived.
func (m *Machine) Deadline() (at time.Time, ok bool) {
	if !m.started || m.state.Phase == Arrived {
		return time.Time{}, false
	}
	return m.deadline, true
}

// Fire performs the pending transition if its deadline is not after now.
// The next deadline chains from the one just consumed, not from now.
func (m *Machine) Fire(now time.Time) (Transition, bool) {
	at, ok := m.Deadline()
	if !ok || now.Before(at) {
		return Transition{}, false
	}
	from := m.state
	last := len(m.stations) - 1

	switch m.state.Phase {
	case Dwelling:
		m.state.Index++
		if m.state.Index >= last {
			m.state.Index = last
			m.state.Phase = Arrived
			m.deadline = time.Time{}
		} else {
			m.state.Phase = Moving
			m.deadline = at.Add(m.timing.MoveDuration)
		}
	case Moving:
		m.state.Phase = Dwelling
		m.deadline = at.Add(m.dwell(m.state.Index))
	}
	return Transition{From: from, To: m.state, At: at}, true
}

// Advance fires every transition due at now, in order.
func (m *Machine) Advance(now time.Time) []Transition {
	var out []Transition
	for {
		tr, ok := m.Fire(now)
		if !ok {
			return out
		}
		out = append(out, tr)
	}
}

func (m *Machine) dwell(i int) time.Duration {
	if d := m.stations[i].Dwell(); d > 0 {
		return d
	}
	return m.timing.DefaultDwell
}
