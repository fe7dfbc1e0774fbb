package tracking

import (
	"fmt"
	"time"

	"train-tracker/internal/eta"
	"train-tracker/internal/geo"
	"train-tracker/internal/order"
	"train-tracker/internal/progress"
	"train-tracker/internal/rail"
)

// TripSnapshot is what a tracking view renders for the user's own trip.
type TripSnapshot struct {
	OrderID             string             `json:"orderId"`
	SessionID           string             `json:"sessionId"`
	Origin              string             `json:"origin"`
	Destination         string             `json:"destination"`
	Date                string             `json:"date"`
	Stations            []rail.Station     `json:"stations"`
	FallbackRoute       bool               `json:"fallbackRoute,omitempty"`
	CurrentStationIndex int                `json:"currentStationIndex"`
	MovementPhase       progress.Phase     `json:"movementPhase"`
	ProgressPercent     int                `json:"progressPercent"`
	Position            rail.GeoCoordinate `json:"position"`
	Bearing             float64            `json:"bearing"`
	RemainingKm         float64            `json:"remainingKm"`
	EtaDisplay          string             `json:"etaDisplay"`
	CurrentStation      string             `json:"currentStation"`
	Status              string             `json:"status"`
	Headline            string             `json:"headline"`
	Message             string             `json:"message"`
	Timeline            []rail.StationMark `json:"timeline"`
	Followed            bool               `json:"followed"`
	UpdatedAt           time.Time          `json:"updatedAt"`
}

// BuildSnapshot derives everything presentable from a trip's state. It has
// no side effects, so it can run on every refresh tick.
func BuildSnapshot(o order.Order, route rail.Route, st progress.State, now time.Time) TripSnapshot {
	names := route.Names()
	n := len(route.Stations)
	idx := st.Index
	if idx > n-1 {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	name := ""
	if n > 0 {
		name = route.Stations[idx].Name
	}

	snap := TripSnapshot{
		OrderID:             o.ID,
		Origin:              o.Origin,
		Destination:         o.Destination,
		Date:                o.Date,
		Stations:            route.Stations,
		FallbackRoute:       route.Fallback,
		CurrentStationIndex: idx,
		MovementPhase:       st.Phase,
		ProgressPercent:     st.Percent(),
		Position:            geo.PositionAlong(names, st.Fraction()),
		Bearing:             bearing(names, idx, st.Phase),
		RemainingKm:         remainingKm(names, idx, st),
		EtaDisplay:          eta.Estimate(o.Date, route.Terminal(), now),
		Timeline:            rail.TripMarks(route.Stations, idx),
		UpdatedAt:           now,
	}

	switch st.Phase {
	case progress.Arrived:
		snap.CurrentStation = name
		snap.Status = "Tiba"
		snap.Headline = "Perjalanan selesai"
		snap.Message = "✅ Kereta telah tiba di " + route.Terminal().Name
	case progress.Moving:
		snap.CurrentStation = "Menuju " + name
		snap.Status = "Bergerak"
		snap.Headline = "Kereta sedang bergerak..."
		snap.Message = fmt.Sprintf("🚆 Kereta sedang menuju %s (%d%% perjalanan)", name, snap.ProgressPercent)
	default:
		snap.CurrentStation = name
		snap.Status = "Berhenti"
		snap.Headline = "Kereta berhenti di stasiun"
		snap.Message = "⏸️ Kereta berhenti di " + name
	}
	return snap
}

// bearing points along the segment the train is on: the one just entered
// while moving, the next one while dwelling, the last one on arrival.
func bearing(names []string, idx int, phase progress.Phase) float64 {
	n := len(names)
	if n < 2 {
		return 0
	}
	from, to := idx, idx+1
	if phase == progress.Moving || to > n-1 {
		from, to = idx-1, idx
	}
	if from < 0 {
		from, to = 0, 1
	}
	return geo.Bearing(rail.CoordinateOrDefault(names[from]), rail.CoordinateOrDefault(names[to]))
}

// remainingKm measures from the trip's position through every station it
// has not reached yet.
func remainingKm(names []string, idx int, st progress.State) float64 {
	if len(names) == 0 || st.Phase == progress.Arrived {
		return 0
	}
	return geo.DistanceAlongKm(geo.PositionAlong(names, st.Fraction()), names[idx:])
}

// EmptyState is shown when there is no booking to track.
type EmptyState struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Action  string `json:"action"`
	Link    string `json:"link"`
}

var NoActiveTrip = EmptyState{
	Title:   "Belum Ada Tiket Aktif",
	Message: "Pesan tiket terlebih dahulu untuk melihat tracking kereta",
	Action:  "Pesan Tiket",
	Link:    "/booking",
}
