package toc

import "unsafe"

// ActiveState is the anchor currently deemed in view. An empty ActiveID
// means nothing is active yet, in which case ParentIDs is empty too.
type ActiveState struct {
	ActiveID  string
	ParentIDs []string
}

// ActiveStore holds the active state and notifies subscribers when it
// changes. It is a pull (State) plus push (Subscribe) pair so consumers that
// do not render the active anchor never hear about scroll updates.
type ActiveStore struct {
	state     *ActiveState
	listeners []activeListener
	nextID    int

	notifying bool
	queued    []ActiveState
}

type activeListener struct {
	id int
	fn func(*ActiveState)
}

func NewActiveStore() *ActiveStore {
	return &ActiveStore{state: &ActiveState{ParentIDs: []string{}}}
}

// State returns the current snapshot. The pointer only changes when Set
// actually replaces the state, so callers may compare it by identity.
func (s *ActiveStore) State() *ActiveState {
	return s.state
}

// Set replaces the state when the active id differs or ParentIDs is a
// different slice. Content equality of ParentIDs is not checked: callers
// build a new slice only when the chain changed.
//
// Listeners run synchronously in registration order. A Set issued from a
// listener is queued and applied after the current pass completes.
func (s *ActiveStore) Set(next ActiveState) {
	if next.ActiveID == "" {
		next.ParentIDs = []string{}
	}
	if s.notifying {
		s.queued = append(s.queued, next)
		return
	}
	s.apply(next)
	for len(s.queued) > 0 {
		follow := s.queued[0]
		s.queued = s.queued[1:]
		s.apply(follow)
	}
}

func (s *ActiveStore) apply(next ActiveState) {
	if next.ActiveID == s.state.ActiveID && sameSlice(next.ParentIDs, s.state.ParentIDs) {
		return
	}
	if next.ParentIDs == nil {
		next.ParentIDs = []string{}
	}
	s.state = &next
	s.notify()
}

func (s *ActiveStore) notify() {
	s.notifying = true
	defer func() { s.notifying = false }()
	state := s.state
	listeners := append([]activeListener(nil), s.listeners...)
	for _, l := range listeners {
		if !s.subscribed(l.id) {
			continue
		}
		l.fn(state)
	}
}

func (s *ActiveStore) subscribed(id int) bool {
	for _, l := range s.listeners {
		if l.id == id {
			return true
		}
	}
	return false
}

// Subscribe registers fn and returns a function removing it. Removing twice
// is harmless.
func (s *ActiveStore) Subscribe(fn func(*ActiveState)) func() {
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, activeListener{id: id, fn: fn})
	return func() {
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// Reset returns the store to the null state.
func (s *ActiveStore) Reset() {
	s.Set(ActiveState{})
}

// IsActive reports whether id is the active anchor.
func (s *ActiveStore) IsActive(id string) bool {
	return id != "" && s.state.ActiveID == id
}

// ParentLevel reports whether id is an ancestor of the active anchor and how
// far up it is: 0 for the immediate parent, 1 for the grandparent, and so on.
func (s *ActiveStore) ParentLevel(id string) (int, bool) {
	parents := s.state.ParentIDs
	for i, parent := range parents {
		if parent == id {
			return len(parents) - 1 - i, true
		}
	}
	return -1, false
}

// sameSlice compares slice identity, not contents.
func sameSlice(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return unsafe.SliceData(a) == unsafe.SliceData(b)
}
