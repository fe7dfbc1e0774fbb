package progress

import (
	"context"
	"sync"
	"time"
)

// Runner drives a Machine on real timers. Each transition schedules the
// next one, so transitions of a trip never overlap.
type Runner struct {
	mu  sync.Mutex
	m   *Machine
	now func() time.Time
}

func NewRunner(m *Machine) *Runner {
	return &Runner{m: m, now: time.Now}
}

func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m.State()
}

// Run starts the trip and blocks until it arrives or ctx is done. onChange
// sees the start state first (From equal to To), then every transition.
func (r *Runner) Run(ctx context.Context, onChange func(Transition)) error {
	r.mu.Lock()
	now := r.now()
	start := r.m.Start(now)
	r.mu.Unlock()
	if onChange != nil {
		onChange(Transition{From: start, To: start, At: now})
	}

	for {
		r.mu.Lock()
		deadline, ok := r.m.Deadline()
		r.mu.Unlock()
		if !ok {
			return nil
		}

		timer := time.NewTimer(time.Until(deadline))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		r.mu.Lock()
		fired := r.m.Advance(r.now())
		r.mu.Unlock()
		if onChange != nil {
			for _, tr := range fired {
				onChange(tr)
			}
		}
	}
}
