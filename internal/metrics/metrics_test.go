package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCollectorExposesConfigAndCounters(t *testing.T) {
	c := NewCollector(3*time.Second, 2*time.Second, time.Second)

	c.TripStarted(1)
	c.PhaseEntered("MOVING")
	c.PhaseEntered("ARRIVED")
	c.TripFinished(0)
	c.FleetTickObserve(time.Millisecond)
	c.FollowChangedInc()
	c.NATSSetConnected(true)
	c.NATSPublishedInc()

	body := scrape(t, c)
	for _, line := range []string{
		"tracker_move_duration_seconds 3",
		"tracker_fleet_tick_interval_seconds 2",
		"tracker_snapshot_interval_seconds 1",
		"tracker_trips_started_total 1",
		"tracker_trips_finished_total 1",
		"tracker_trips_arrived_total 1",
		"tracker_active_trips 0",
		`tracker_phase_transitions_total{phase="MOVING"} 1`,
		"tracker_fleet_ticks_total 1",
		"tracker_follow_changes_total 1",
		"tracker_nats_connected 1",
		"tracker_nats_published_total 1",
	} {
		assert.Contains(t, body, line)
	}
}

func TestCollectorsAreIndependent(t *testing.T) {
	a := NewCollector(time.Second, time.Second, time.Second)
	b := NewCollector(time.Second, time.Second, time.Second)
	a.FollowChangedInc()

	assert.Contains(t, scrape(t, b), "tracker_follow_changes_total 0")
}
