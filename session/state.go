package session

import (
	"sync"

	"github.com/progalaxyelabs/stonescript-auth-go/domain"
)

// UserState is a single mutable cell with change notification: the
// published user-state stream collaborators subscribe to. A nil user means
// signed out.
type UserState struct {
	mu      sync.Mutex
	current *domain.User
	subs    map[int]chan *domain.User
	nextID  int
}

// NewUserState creates an empty cell.
func NewUserState() *UserState {
	return &UserState{subs: make(map[int]chan *domain.User)}
}

// Get returns the current value.
func (s *UserState) Get() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Set publishes a new value to every subscriber. Slow subscribers see the
// latest value only; intermediate values may be dropped.
func (s *UserState) Set(u *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = u
	for _, ch := range s.subs {
		select {
		case ch <- u:
		default:
			// drop the stale pending value, then publish the fresh one
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- u:
			default:
			}
		}
	}
}

// Subscribe registers a listener. The returned cancel func must be called
// to release the subscription; afterwards the channel is closed.
func (s *UserState) Subscribe() (<-chan *domain.User, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan *domain.User, 1)
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}
