// Package tracking ties a persisted booking to its simulated progress and
// publishes what a tracking view renders.
package tracking

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"train-tracker/internal/db"
	"train-tracker/internal/fleet"
	"train-tracker/internal/geo"
	"train-tracker/internal/order"
	"train-tracker/internal/progress"
	"train-tracker/internal/rail"
)

var ErrNoActiveTrip = errors.New("no active trip")

type Publisher interface {
	PublishTrip(orderID string, msg any) error
	PublishFleet(trainID string, msg any) error
}

type Metrics interface {
	TripStarted(active int)
	TripFinished(active int)
	PhaseEntered(phase string)
	SnapshotObserve(d time.Duration)
}

// OrderSource yields the booking to track; db.Store satisfies it.
type OrderSource interface {
	Latest(ctx context.Context) (order.Order, error)
}

type Options struct {
	Timing           progress.Timing
	SnapshotInterval time.Duration
	RefreshInterval  time.Duration
	Location         *time.Location
}

type session struct {
	id     string
	order  order.Order
	route  rail.Route
	runner *progress.Runner
	cancel context.CancelFunc
}

type Manager struct {
	orders  OrderSource
	fleet   *fleet.Simulator
	pub     Publisher
	metrics Metrics
	opts    Options
	now     func() time.Time

	mu      sync.Mutex
	base    context.Context
	running map[string]*session // orderID -> session
	current string
	wg      sync.WaitGroup

	refreshCancel context.CancelFunc
	refreshWG     sync.WaitGroup
}

// NewManager wires a manager. pub and metrics may be nil.
func NewManager(orders OrderSource, sim *fleet.Simulator, pub Publisher, m Metrics, opts Options) *Manager {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.SnapshotInterval <= 0 {
		opts.SnapshotInterval = time.Second
	}
	mgr := &Manager{
		orders:  orders,
		fleet:   sim,
		pub:     pub,
		metrics: m,
		opts:    opts,
		base:    context.Background(),
		running: make(map[string]*session),
	}
	mgr.now = func() time.Time { return time.Now().In(mgr.opts.Location) }
	return mgr
}

// Start binds sessions to ctx, tracks the latest order and keeps checking
// for newer ones.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	m.base = ctx
	m.mu.Unlock()
	m.StartRefresher(ctx)
}

// Track starts simulating o unless it is already running. It reports
// whether a new session was started.
func (m *Manager) Track(o order.Order) bool {
	route := rail.ResolveStations(o.Origin, o.Destination)
	machine, err := progress.NewMachine(route.Stations, m.opts.Timing)
	if err != nil {
		log.Printf("order %s: %v", o.ID, err)
		return false
	}

	m.mu.Lock()
	if _, exists := m.running[o.ID]; exists {
		m.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(m.base)
	s := &session{
		id:     uuid.NewString(),
		order:  o,
		route:  route,
		runner: progress.NewRunner(machine),
		cancel: cancel,
	}
	m.running[o.ID] = s
	m.current = o.ID
	m.wg.Add(1)
	if m.metrics != nil {
		m.metrics.TripStarted(len(m.running))
	}
	m.mu.Unlock()

	if m.fleet != nil {
		m.fleet.FollowTarget().Allow(o.ID)
	}
	if route.Fallback {
		log.Printf("no route for %s -> %s, using direct fallback", o.Origin, o.Destination)
	}
	log.Printf("tracking order %s (%s -> %s, %d stations) session %s", o.ID, route.Origin, route.Destination, route.Len(), s.id)

	go func() {
		defer m.wg.Done()
		m.runSession(ctx, s)
		m.mu.Lock()
		if m.running[o.ID] == s {
			delete(m.running, o.ID)
		}
		if m.metrics != nil {
			m.metrics.TripFinished(len(m.running))
		}
		m.mu.Unlock()
	}()
	return true
}

func (m *Manager) runSession(ctx context.Context, s *session) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		// keep the countdown fresh between transitions
		tick := time.NewTicker(m.opts.SnapshotInterval)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
				m.publishTrip(s)
			}
		}
	}()

	err := s.runner.Run(ctx, func(tr progress.Transition) {
		if tr.From != tr.To {
			log.Printf("order %s: %s(%d) -> %s(%d)", s.order.ID, tr.From.Phase, tr.From.Index, tr.To.Phase, tr.To.Index)
			if m.metrics != nil {
				m.metrics.PhaseEntered(tr.To.Phase.String())
			}
		}
		m.publishTrip(s)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("order %s error: %v", s.order.ID, err)
	}
	if err == nil {
		log.Printf("order %s arrived at %s", s.order.ID, s.route.Terminal().Name)
	}
	// the view stays mounted after arrival, so the countdown keeps running
	<-ctx.Done()
	wg.Wait()
}

func (m *Manager) publishTrip(s *session) {
	start := time.Now()
	snap := m.snapshotOf(s)
	if m.metrics != nil {
		m.metrics.SnapshotObserve(time.Since(start))
	}
	if m.pub == nil {
		return
	}
	if err := m.pub.PublishTrip(s.order.ID, snap); err != nil {
		log.Printf("publish error for %s: %v", s.order.ID, err)
	}
}

func (m *Manager) snapshotOf(s *session) TripSnapshot {
	snap := BuildSnapshot(s.order, s.route, s.runner.State(), m.now())
	snap.SessionID = s.id
	if m.fleet != nil {
		snap.Followed = m.fleet.Following() == s.order.ID
	}
	return snap
}

// Untrack tears down the session for orderID, if any.
func (m *Manager) Untrack(orderID string) {
	m.mu.Lock()
	s, ok := m.running[orderID]
	if ok {
		s.cancel()
		delete(m.running, orderID)
	}
	if m.current == orderID {
		m.current = ""
	}
	m.mu.Unlock()
	if ok && m.fleet != nil {
		m.fleet.FollowTarget().Revoke(orderID)
	}
}

// Current returns the snapshot of the trip being tracked.
func (m *Manager) Current() (TripSnapshot, error) {
	m.mu.Lock()
	s, ok := m.running[m.current]
	m.mu.Unlock()
	if !ok {
		return TripSnapshot{}, ErrNoActiveTrip
	}
	return m.snapshotOf(s), nil
}

// CurrentOrder returns the booking being tracked.
func (m *Manager) CurrentOrder() (order.Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.running[m.current]
	if !ok {
		return order.Order{}, false
	}
	return s.order, true
}

// RefreshLatest makes the newest persisted booking the tracked trip. An
// empty store clears tracking.
func (m *Manager) RefreshLatest(ctx context.Context) error {
	o, err := m.orders.Latest(ctx)
	if errors.Is(err, db.ErrNoOrder) {
		m.mu.Lock()
		cur := m.current
		m.mu.Unlock()
		if cur != "" {
			log.Printf("no persisted order, stopping %s", cur)
			m.Untrack(cur)
		}
		return nil
	}
	if err != nil {
		return err
	}
	m.mu.Lock()
	cur := m.current
	_, running := m.running[o.ID]
	m.mu.Unlock()
	if cur == o.ID && running {
		return nil
	}
	if cur != "" {
		m.Untrack(cur)
	}
	m.Track(o)
	return nil
}

// Restart drops the current session and starts the latest booking again
// from its origin.
func (m *Manager) Restart(ctx context.Context) error {
	m.mu.Lock()
	cur := m.current
	m.mu.Unlock()
	if cur != "" {
		m.Untrack(cur)
	}
	return m.RefreshLatest(ctx)
}

// StartRefresher launches a background loop that periodically picks up a
// newer booking.
func (m *Manager) StartRefresher(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	m.refreshCancel = cancel
	m.refreshWG.Add(1)
	go func() {
		defer m.refreshWG.Done()
		// immediate refresh on start
		if err := m.RefreshLatest(ctx); err != nil {
			log.Printf("refresh latest order error: %v", err)
		}
		if m.opts.RefreshInterval <= 0 {
			return
		}
		ticker := time.NewTicker(m.opts.RefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.RefreshLatest(ctx); err != nil {
					log.Printf("refresh latest order error: %v", err)
				}
			}
		}
	}()
}

// PublishFleet publishes every fleet train; it is the fleet tick callback.
func (m *Manager) PublishFleet(_ []fleet.Train) {
	if m.pub == nil || m.fleet == nil {
		return
	}
	for _, snap := range m.FleetSnapshots() {
		if err := m.pub.PublishFleet(snap.ID, snap); err != nil {
			log.Printf("publish error for train %s: %v", snap.ID, err)
		}
	}
}

// FleetSnapshots renders the fleet with the user's train flagged.
func (m *Manager) FleetSnapshots() []fleet.Snapshot {
	if m.fleet == nil {
		return nil
	}
	if o, ok := m.CurrentOrder(); ok {
		return m.fleet.Snapshots(&o)
	}
	return m.fleet.Snapshots(nil)
}

// View is the map viewport: centered on the followed entity, otherwise
// framing every visible train.
func (m *Manager) View() geo.Viewport {
	var followed string
	if m.fleet != nil {
		followed = m.fleet.Following()
	}
	trip, tripErr := m.Current()
	if followed != "" {
		if tripErr == nil && followed == trip.OrderID {
			return geo.FollowView(followed, trip.Position)
		}
		if pos, ok := m.fleet.PositionOf(followed); ok {
			return geo.FollowView(followed, pos)
		}
	}
	var points []rail.GeoCoordinate
	if tripErr == nil {
		points = append(points, trip.Position)
	}
	for _, s := range m.FleetSnapshots() {
		points = append(points, rail.GeoCoordinate{Lat: s.Lat, Lng: s.Lng})
	}
	return geo.FitView(points)
}

// CenterAll releases any follow target and frames everything.
func (m *Manager) CenterAll() geo.Viewport {
	if m.fleet != nil {
		m.fleet.Unfollow()
	}
	return m.View()
}

func (m *Manager) Stop() {
	if m.refreshCancel != nil {
		m.refreshCancel()
	}
	m.refreshWG.Wait()
	m.mu.Lock()
	for _, s := range m.running {
		s.cancel()
	}
	m.mu.Unlock()
	m.wg.Wait()
}
