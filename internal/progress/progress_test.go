package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"train-tracker/internal/rail"
)

var t0 = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func bandungGambir() []rail.Station {
	return rail.Resolve("Bandung", "Jakarta Gambir").Stations
}

func TestMachineBandungToGambir(t *testing.T) {
	m, err := NewMachine(bandungGambir(), DefaultTiming())
	require.NoError(t, err)

	st := m.Start(t0)
	assert.Equal(t, State{Index: 0, Phase: Dwelling, Stations: 4}, st)
	assert.Equal(t, 0, st.Percent())

	steps := []struct {
		after time.Duration
		index int
		phase Phase
	}{
		{2 * time.Second, 1, Moving},
		{5 * time.Second, 1, Dwelling},
		{7 * time.Second, 2, Moving},
		{10 * time.Second, 2, Dwelling},
		{12 * time.Second, 3, Arrived},
	}
	for _, s := range steps {
		at, ok := m.Deadline()
		require.True(t, ok)
		require.Equal(t, t0.Add(s.after), at)

		_, fired := m.Fire(at.Add(-time.Millisecond))
		require.False(t, fired, "fired early at %s", s.after)

		tr, fired := m.Fire(at)
		require.True(t, fired)
		assert.Equal(t, s.index, tr.To.Index, "after %s", s.after)
		assert.Equal(t, s.phase, tr.To.Phase, "after %s", s.after)
	}

	assert.Equal(t, 100, m.State().Percent())
	_, ok := m.Deadline()
	assert.False(t, ok)
	_, fired := m.Fire(t0.Add(time.Hour))
	assert.False(t, fired)
}

func TestMachineInvariants(t *testing.T) {
	stations := rail.Resolve("Cimahi", "Jakarta Gambir").Stations
	m, err := NewMachine(stations, DefaultTiming())
	require.NoError(t, err)

	prev := m.Start(t0)
	transitions := m.Advance(t0.Add(time.Hour))
	require.NotEmpty(t, transitions)

	last := len(stations) - 1
	for _, tr := range transitions {
		assert.Equal(t, prev, tr.From)
		assert.GreaterOrEqual(t, tr.To.Index, tr.From.Index)
		assert.GreaterOrEqual(t, tr.To.Percent(), tr.From.Percent())
		assert.Equal(t, tr.To.Index == last, tr.To.Phase == Arrived)
		if tr.To.Phase == Moving {
			assert.Equal(t, tr.From.Index+1, tr.To.Index)
		}
		prev = tr.To
	}
	assert.Equal(t, Arrived, m.State().Phase)
	assert.Len(t, transitions, 2*last-1)
}

func TestMachineSingleStation(t *testing.T) {
	m, err := NewMachine([]rail.Station{{Name: "Bandung"}}, DefaultTiming())
	require.NoError(t, err)

	st := m.Start(t0)
	assert.Equal(t, Arrived, st.Phase)
	assert.Equal(t, 100, st.Percent())
	assert.Empty(t, m.Advance(t0.Add(time.Hour)))
}

func TestMachineEmptyRoute(t *testing.T) {
	_, err := NewMachine(nil, DefaultTiming())
	assert.ErrorIs(t, err, ErrEmptyRoute)
}

func TestMachineZeroDwellUsesDefault(t *testing.T) {
	stations := []rail.Station{{Name: "A"}, {Name: "B"}, {Name: "C"}}
	timing := Timing{StartupDelay: time.Second, MoveDuration: time.Second, DefaultDwell: 4 * time.Second}
	m, err := NewMachine(stations, timing)
	require.NoError(t, err)

	m.Start(t0)
	m.Advance(t0.Add(2 * time.Second))
	require.Equal(t, State{Index: 1, Phase: Dwelling, Stations: 3}, m.State())

	at, ok := m.Deadline()
	require.True(t, ok)
	assert.Equal(t, t0.Add(6*time.Second), at)
}

func TestMachineStartResets(t *testing.T) {
	m, err := NewMachine(bandungGambir(), DefaultTiming())
	require.NoError(t, err)
	m.Start(t0)
	m.Advance(t0.Add(time.Minute))
	require.Equal(t, Arrived, m.State().Phase)

	st := m.Start(t0.Add(time.Hour))
	assert.Equal(t, 0, st.Index)
	assert.Equal(t, Dwelling, st.Phase)
}

func TestPhaseText(t *testing.T) {
	b, err := Moving.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "MOVING", string(b))
	assert.Equal(t, "Phase(9)", Phase(9).String())
}

func TestRunnerRunsToArrival(t *testing.T) {
	timing := Timing{StartupDelay: 5 * time.Millisecond, MoveDuration: 5 * time.Millisecond, DefaultDwell: 5 * time.Millisecond}
	stations := []rail.Station{{Name: "A"}, {Name: "B"}, {Name: "C"}}
	m, err := NewMachine(stations, timing)
	require.NoError(t, err)
	r := NewRunner(m)

	var (
		mu   sync.Mutex
		seen []Transition
	)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = r.Run(ctx, func(tr Transition) {
		mu.Lock()
		seen = append(seen, tr)
		mu.Unlock()
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 4)
	assert.Equal(t, seen[0].From, seen[0].To)
	assert.Equal(t, Arrived, seen[len(seen)-1].To.Phase)
	assert.Equal(t, Arrived, r.State().Phase)
}

func TestRunnerCancel(t *testing.T) {
	m, err := NewMachine(bandungGambir(), Timing{StartupDelay: time.Hour, MoveDuration: time.Hour})
	require.NoError(t, err)
	r := NewRunner(m)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, nil) }()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("runner did not stop after cancel")
	}
	assert.Equal(t, Dwelling, r.State().Phase)
}
