package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"train-tracker/internal/fleet"
	"train-tracker/internal/geo"
	"train-tracker/internal/order"
	"train-tracker/internal/progress"
	"train-tracker/internal/tracking"
)

type fakeTracker struct {
	sim      *fleet.Simulator
	trip     *tracking.TripSnapshot
	restarts int
}

func (f *fakeTracker) Current() (tracking.TripSnapshot, error) {
	if f.trip == nil {
		return tracking.TripSnapshot{}, tracking.ErrNoActiveTrip
	}
	return *f.trip, nil
}

func (f *fakeTracker) CurrentOrder() (order.Order, bool) {
	if f.trip == nil {
		return order.Order{}, false
	}
	return order.Order{ID: f.trip.OrderID}, true
}

func (f *fakeTracker) Restart(context.Context) error {
	f.restarts++
	return nil
}

func (f *fakeTracker) FleetSnapshots() []fleet.Snapshot { return f.sim.Snapshots(nil) }
func (f *fakeTracker) View() geo.Viewport               { return geo.FitView(nil) }
func (f *fakeTracker) CenterAll() geo.Viewport {
	f.sim.Unfollow()
	return f.View()
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func setup(t *testing.T, trip *tracking.TripSnapshot) (http.Handler, *fakeTracker) {
	t.Helper()
	sim := fleet.NewSimulator(fleet.DefaultRoster(), nil)
	ft := &fakeTracker{sim: sim, trip: trip}
	if trip != nil {
		sim.FollowTarget().Allow(trip.OrderID)
	}
	h := NewHandler(ft, sim, fakePinger{}, nil)
	return h.Router([]string{"http://localhost:5173"}), ft
}

func do(t *testing.T, h http.Handler, method, target string, out any) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec
}

func TestGetTripEmptyState(t *testing.T) {
	h, _ := setup(t, nil)

	var body tracking.EmptyState
	rec := do(t, h, http.MethodGet, "/api/trip", &body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, tracking.NoActiveTrip, body)
}

func TestGetTrip(t *testing.T) {
	h, ft := setup(t, &tracking.TripSnapshot{OrderID: "KAI-1A2B3C", MovementPhase: progress.Moving, ProgressPercent: 33})

	var body map[string]any
	rec := do(t, h, http.MethodGet, "/api/trip", &body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "KAI-1A2B3C", body["orderId"])
	assert.Equal(t, "MOVING", body["movementPhase"])
	assert.EqualValues(t, 33, body["progressPercent"])

	rec = do(t, h, http.MethodPost, "/api/trip/restart", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ft.restarts)
}

func TestGetFleetFilters(t *testing.T) {
	h, _ := setup(t, nil)

	var all FleetResponse
	do(t, h, http.MethodGet, "/api/fleet", &all)
	assert.Equal(t, 6, all.Count)
	assert.Equal(t, fleet.Summary{Total: 6, OnTime: 5, Delayed: 1, Percentage: 83}, all.Summary)

	var delayed FleetResponse
	do(t, h, http.MethodGet, "/api/fleet?status=TERLAMBAT", &delayed)
	require.Equal(t, 1, delayed.Count)
	assert.Equal(t, "10502", delayed.Trains[0].ID)
	assert.Equal(t, 6, delayed.Summary.Total)

	var search FleetResponse
	do(t, h, http.MethodGet, "/api/fleet?q=malang&route=all", &search)
	assert.Equal(t, 2, search.Count)
}

func TestGetTrain(t *testing.T) {
	h, _ := setup(t, nil)

	var body TrainResponse
	rec := do(t, h, http.MethodGet, "/api/fleet/10503", &body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Taksaka", body.Train.Name)
	assert.Len(t, body.Marks, 5)

	rec = do(t, h, http.MethodGet, "/api/fleet/99999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFollowEndpoints(t *testing.T) {
	h, _ := setup(t, &tracking.TripSnapshot{OrderID: "KAI-1A2B3C"})

	var f FollowResponse
	rec := do(t, h, http.MethodPost, "/api/follow/10501", &f)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "10501", f.Following)

	do(t, h, http.MethodPost, "/api/follow/KAI-1A2B3C", &f)
	assert.Equal(t, "KAI-1A2B3C", f.Following)

	rec = do(t, h, http.MethodPost, "/api/follow/99999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	do(t, h, http.MethodPost, "/api/follow/KAI-1A2B3C/toggle", &f)
	assert.Empty(t, f.Following)
	do(t, h, http.MethodPost, "/api/follow/10504/toggle", &f)
	assert.Equal(t, "10504", f.Following)
	rec = do(t, h, http.MethodPost, "/api/follow/nope/toggle", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var snaps FleetResponse
	do(t, h, http.MethodGet, "/api/fleet?q=10504", &snaps)
	require.Equal(t, 1, snaps.Count)
	assert.True(t, snaps.Trains[0].Followed)

	do(t, h, http.MethodDelete, "/api/follow", &f)
	assert.Empty(t, f.Following)
}

func TestViewEndpoints(t *testing.T) {
	h, ft := setup(t, nil)
	require.True(t, ft.sim.Follow("10501"))

	var v geo.Viewport
	do(t, h, http.MethodGet, "/api/view", &v)
	assert.Equal(t, geo.DefaultZoom, v.Zoom)

	do(t, h, http.MethodPost, "/api/view/center-all", &v)
	assert.Empty(t, ft.sim.Following())
}

func TestHealth(t *testing.T) {
	h, _ := setup(t, nil)
	rec := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"connected"`)

	sim := fleet.NewSimulator(nil, nil)
	down := NewHandler(&fakeTracker{sim: sim}, sim, fakePinger{err: errors.New("gone")}, nil).Router(nil)
	rec = do(t, down, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, down, http.MethodGet, "/healthz", nil)
	assert.Equal(t, "ok", rec.Body.String())
}
