package session

import (
	"sort"
	"sync"
)

// Store holds one State and notifies subscribers after every dispatch.
type Store struct {
	mu     sync.Mutex
	state  State
	subs   map[int]func(State)
	nextID int
}

func NewStore() *Store {
	return &Store{state: Initial(), subs: make(map[int]func(State))}
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies a and delivers the new state to every subscriber in
// registration order. Subscribers run under the store lock and must not
// dispatch.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, a)
	for _, id := range s.sortedIDs() {
		s.subs[id](s.state)
	}
	return s.state
}

// Subscribe registers fn, delivers the current state to it immediately and
// returns a function that removes it. Calling the returned function more
// than once is harmless.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	fn(s.state)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Store) clear() {
	s.mu.Lock()
	s.subs = make(map[int]func(State))
	s.mu.Unlock()
}

func (s *Store) sortedIDs() []int {
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
