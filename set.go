package teahaz

import "sync"

// Set of string identities, used to dedup channels and seen messages.
type Set struct {
	sync.Mutex
	lookup map[string]struct{}
}

// NewSet creates a new set.
func NewSet() *Set {
	return &Set{
		lookup: map[string]struct{}{},
	}
}

// Len returns the size of the set right now.
func (s *Set) Len() int {
	s.Lock()
	defer s.Unlock()
	return len(s.lookup)
}

// In checks if an item exists in this set.
func (s *Set) In(key string) bool {
	s.Lock()
	_, ok := s.lookup[key]
	s.Unlock()
	return ok
}

// Add item to this set, replace if it exists.
func (s *Set) Add(key string) {
	s.Lock()
	s.lookup[key] = struct{}{}
	s.Unlock()
}

// Clear removes all items and returns the number removed.
func (s *Set) Clear() int {
	s.Lock()
	n := len(s.lookup)
	s.lookup = map[string]struct{}{}
	s.Unlock()
	return n
}
