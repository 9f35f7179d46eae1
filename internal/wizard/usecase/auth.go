package usecase

import "sync"

// AuthEventKind is the kind of auth change pushed to sessions.
type AuthEventKind string

const (
	AuthLogin  AuthEventKind = "login"
	AuthLogout AuthEventKind = "logout"
)

// AuthEvent is pushed by the host whenever a user logs in or out. A login
// names, when known, the wizard session it happened in.
type AuthEvent struct {
	Kind       AuthEventKind
	UserID     string
	SessionKey string
}

// AuthNotifier fans auth events out to subscribers.
type AuthNotifier struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(AuthEvent)
}

// NewAuthNotifier creates an AuthNotifier with no subscribers.
func NewAuthNotifier() *AuthNotifier {
	return &AuthNotifier{subs: make(map[int]func(AuthEvent))}
}

// Subscribe registers fn and returns a function that removes it.
func (n *AuthNotifier) Subscribe(fn func(AuthEvent)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

// Notify delivers ev to every subscriber synchronously.
func (n *AuthNotifier) Notify(ev AuthEvent) {
	n.mu.RLock()
	subs := make([]func(AuthEvent), 0, len(n.subs))
	for _, fn := range n.subs {
		subs = append(subs, fn)
	}
	n.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}
