package fleet

import "sync"

// FollowTarget holds the one entity a map view is centered on. Following a
// new id releases the previous one; listeners see every change as (prev,
// next), where an empty id means nothing is followed.
type FollowTarget struct {
	mu        sync.Mutex
	current   string
	known     func(id string) bool
	extra     map[string]struct{}
	listeners map[int]func(prev, next string)
	nextID    int
}

func newFollowTarget(known func(string) bool) *FollowTarget {
	return &FollowTarget{
		known:     known,
		extra:     make(map[string]struct{}),
		listeners: make(map[int]func(prev, next string)),
	}
}

// Allow makes an id outside the roster followable, e.g. the user's trip.
func (f *FollowTarget) Allow(id string) {
	f.mu.Lock()
	f.extra[id] = struct{}{}
	f.mu.Unlock()
}

// Revoke removes an id added with Allow, releasing it if followed.
func (f *FollowTarget) Revoke(id string) {
	f.mu.Lock()
	delete(f.extra, id)
	following := f.current == id
	f.mu.Unlock()
	if following {
		f.set(id, "")
	}
}

// Follow makes id the target. It reports false for unknown ids and when a
// concurrent change won the race.
func (f *FollowTarget) Follow(id string) bool {
	if id == "" || !f.followable(id) {
		return false
	}
	f.mu.Lock()
	prev := f.current
	f.mu.Unlock()
	if prev == id {
		return true
	}
	return f.set(prev, id)
}

func (f *FollowTarget) Unfollow() {
	f.mu.Lock()
	prev := f.current
	f.mu.Unlock()
	if prev != "" {
		f.set(prev, "")
	}
}

// Toggle follows id, or releases it if it is already followed. It reports
// whether id is followed afterwards.
func (f *FollowTarget) Toggle(id string) bool {
	if f.Current() == id && id != "" {
		f.Unfollow()
		return false
	}
	return f.Follow(id)
}

func (f *FollowTarget) Current() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// OnChange registers fn and returns a function that unregisters it.
func (f *FollowTarget) OnChange(fn func(prev, next string)) (unregister func()) {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	}
}

func (f *FollowTarget) followable(id string) bool {
	f.mu.Lock()
	_, ok := f.extra[id]
	f.mu.Unlock()
	if ok {
		return true
	}
	return f.known != nil && f.known(id)
}

// set swaps prev for next and notifies listeners. It reports false, without
// notifying, if the target is no longer prev.
func (f *FollowTarget) set(prev, next string) bool {
	f.mu.Lock()
	if f.current != prev {
		f.mu.Unlock()
		return false
	}
	f.current = next
	fns := make([]func(string, string), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(prev, next)
	}
	return true
}
