package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	ActiveTrips   prometheus.Gauge
	TripsStarted  prometheus.Counter
	TripsFinished prometheus.Counter
	TripsArrived  prometheus.Counter

	PhaseTransitions *prometheus.CounterVec // phase label: DWELLING|MOVING|ARRIVED

	FleetTrains   prometheus.Gauge
	FleetTicks    prometheus.Counter
	FollowChanges prometheus.Counter

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge

	TickDuration      prometheus.Histogram
	FleetTickDuration prometheus.Histogram
	PublishDuration   prometheus.Histogram

	MoveDuration      prometheus.Gauge // seconds
	FleetTickInterval prometheus.Gauge // seconds
	SnapshotInterval  prometheus.Gauge // seconds
}

func NewCollector(moveDuration, fleetTick, snapshotInterval time.Duration) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		ActiveTrips: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_active_trips",
			Help: "Number of trips currently being tracked.",
		}),
		TripsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_trips_started_total",
			Help: "Total tracking sessions started.",
		}),
		TripsFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_trips_finished_total",
			Help: "Total tracking sessions torn down.",
		}),
		TripsArrived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_trips_arrived_total",
			Help: "Total trips that reached their terminal station.",
		}),
		PhaseTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_phase_transitions_total",
			Help: "Station progress transitions by phase entered.",
		}, []string{"phase"}),
		FleetTrains: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_fleet_trains",
			Help: "Number of simulated fleet trains.",
		}),
		FleetTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_fleet_ticks_total",
			Help: "Total fleet simulation ticks.",
		}),
		FollowChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_follow_changes_total",
			Help: "Total changes of the followed train.",
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_snapshot_duration_seconds",
			Help:    "Duration of trip snapshot computations.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 15),
		}),
		FleetTickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_fleet_tick_duration_seconds",
			Help:    "Duration of fleet tick computations.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 15),
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		MoveDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_move_duration_seconds",
			Help: "Time a trip spends moving between two stations.",
		}),
		FleetTickInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_fleet_tick_interval_seconds",
			Help: "Fleet tick interval in seconds.",
		}),
		SnapshotInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_snapshot_interval_seconds",
			Help: "Trip snapshot refresh interval in seconds.",
		}),
	}

	reg.MustRegister(
		c.ActiveTrips, c.TripsStarted, c.TripsFinished, c.TripsArrived,
		c.PhaseTransitions,
		c.FleetTrains, c.FleetTicks, c.FollowChanges,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected,
		c.TickDuration, c.FleetTickDuration, c.PublishDuration,
		c.MoveDuration, c.FleetTickInterval, c.SnapshotInterval,
	)

	c.MoveDuration.Set(moveDuration.Seconds())
	c.FleetTickInterval.Set(fleetTick.Seconds())
	c.SnapshotInterval.Set(snapshotInterval.Seconds())

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	log.Printf("metrics listening on %s", addr)
	return srv
}

// The methods below let the collector stand in for the small metrics
// interfaces of fleet, tracking and publisher.

func (c *Collector) FleetTickObserve(d time.Duration) {
	c.FleetTicks.Inc()
	c.FleetTickDuration.Observe(d.Seconds())
}

func (c *Collector) FollowChangedInc() { c.FollowChanges.Inc() }

func (c *Collector) TripStarted(active int) {
	c.TripsStarted.Inc()
	c.ActiveTrips.Set(float64(active))
}

func (c *Collector) TripFinished(active int) {
	c.TripsFinished.Inc()
	c.ActiveTrips.Set(float64(active))
}

func (c *Collector) PhaseEntered(phase string) {
	c.PhaseTransitions.WithLabelValues(phase).Inc()
	if phase == "ARRIVED" {
		c.TripsArrived.Inc()
	}
}

func (c *Collector) SnapshotObserve(d time.Duration) { c.TickDuration.Observe(d.Seconds()) }

func (c *Collector) NATSPublishedInc()              { c.NATSPublished.Inc() }
func (c *Collector) NATSPublishErrInc()             { c.NATSPublishErrs.Inc() }
func (c *Collector) PublishObserve(d time.Duration) { c.PublishDuration.Observe(d.Seconds()) }
func (c *Collector) NATSSetConnected(b bool) {
	if b {
		c.NATSConnected.Set(1)
	} else {
		c.NATSConnected.Set(0)
	}
}
