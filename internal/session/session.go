package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"fungible-token-demo/internal/flowtx"
)

var ErrNotFound = errors.New("session not found")

// Session pairs a view's Store with the identity authenticated in it.
type Session struct {
	ID    string
	store *Store

	// setMu orders identity changes so the stored identity and the
	// LoggedIn state always come from the same call.
	setMu     sync.Mutex
	mu        sync.Mutex
	identity  *flowtx.Identity
	observers map[int]func(*flowtx.Identity)
	nextID    int
	done      chan struct{}
}

func newSession(id string) *Session {
	return &Session{
		ID:        id,
		store:     NewStore(),
		observers: make(map[int]func(*flowtx.Identity)),
		done:      make(chan struct{}),
	}
}

func (s *Session) Store() *Store { return s.store }

// Done is closed when the session is removed from its registry.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) Identity() *flowtx.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// SetIdentity logs id in, or logs out when id is nil, and notifies identity
// observers.
func (s *Session) SetIdentity(id *flowtx.Identity) {
	s.setMu.Lock()
	defer s.setMu.Unlock()

	s.mu.Lock()
	s.identity = id
	observers := make([]func(*flowtx.Identity), 0, len(s.observers))
	for i := 0; i < s.nextID; i++ {
		if fn, ok := s.observers[i]; ok {
			observers = append(observers, fn)
		}
	}
	s.mu.Unlock()

	s.store.Dispatch(IdentityChanged{Identity: id})
	for _, fn := range observers {
		fn(id)
	}
}

// OnIdentity registers fn for authentication changes and calls it with the
// current identity.
func (s *Session) OnIdentity(fn func(*flowtx.Identity)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	current := s.identity
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

func (s *Session) close() {
	s.setMu.Lock()
	defer s.setMu.Unlock()

	s.mu.Lock()
	s.identity = nil
	s.observers = make(map[int]func(*flowtx.Identity))
	s.mu.Unlock()
	s.store.clear()
	close(s.done)
}

// Registry tracks the live sessions of a server.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

func (r *Registry) Create() *Session {
	s := newSession(uuid.NewString())
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Close removes the session and drops all of its observers.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	s.close()
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
