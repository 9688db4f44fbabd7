package filter

import "sync"

// State is the session-scoped holder of the active Criteria. Every display
// component shares one *State and reads consistent snapshots from it.
type State struct {
	mu            sync.RWMutex
	criteria      Criteria
	filteredCount int
	nextID        int
	subscribers   []subscriber
}

type subscriber struct {
	id int
	fn func(Criteria)
}

// NewState returns a State with every filter cleared.
func NewState() *State {
	return &State{}
}

// Criteria returns the current filters.
func (s *State) Criteria() Criteria {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.criteria
}

// SetClientFilter toggles the client filter.
func (s *State) SetClientFilter(v string) {
	s.toggle(func(c *Criteria) *string { return &c.Client }, v)
}

// SetSearchFilter toggles the free-text search filter.
func (s *State) SetSearchFilter(v string) {
	s.toggle(func(c *Criteria) *string { return &c.Search }, v)
}

// SetProgramFilter toggles the program filter.
func (s *State) SetProgramFilter(v string) {
	s.toggle(func(c *Criteria) *string { return &c.Program }, v)
}

// SetRoleFilter toggles the role filter.
func (s *State) SetRoleFilter(v string) {
	s.toggle(func(c *Criteria) *string { return &c.Role }, v)
}

// Reset clears every filter.
func (s *State) Reset() {
	s.mu.Lock()
	s.criteria = Criteria{}
	snapshot, subs := s.criteria, s.listeners()
	s.mu.Unlock()
	notify(subs, snapshot)
}

// SetFilteredCount records the size of the last rendered view.
func (s *State) SetFilteredCount(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filteredCount = n
}

// FilteredCount returns the value last passed to SetFilteredCount.
func (s *State) FilteredCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filteredCount
}

// Subscribe registers fn to receive the new Criteria after every change.
// Callbacks run outside the state lock, in registration order. The returned
// func removes the subscription.
func (s *State) Subscribe(fn func(Criteria)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subscribers {
			if sub.id == id {
				s.subscribers = append(s.subscribers[:i:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}

// toggle clears the field when v repeats its current value and assigns v
// otherwise.
func (s *State) toggle(field func(*Criteria) *string, v string) {
	s.mu.Lock()
	f := field(&s.criteria)
	if *f == v {
		*f = ""
	} else {
		*f = v
	}
	snapshot, subs := s.criteria, s.listeners()
	s.mu.Unlock()
	notify(subs, snapshot)
}

func (s *State) listeners() []func(Criteria) {
	out := make([]func(Criteria), 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		out = append(out, sub.fn)
	}
	return out
}

func notify(subs []func(Criteria), c Criteria) {
	for _, fn := range subs {
		fn(c)
	}
}
