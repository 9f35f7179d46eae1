package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/wizard/domain"
	"go.uber.org/zap"
)

// Session is the live, in-memory side of one wizard: its catalog lists and
// the id of the user last seen on it. Credentials are never kept here; every
// submission carries the principal of its own request. The draft itself
// lives in the ProgressStore.
type Session struct {
	Key     string
	Catalog *CatalogState

	mu           sync.Mutex
	userID       string
	authRequired bool
	lastUsed     time.Time
	hydrated     bool
}

func newSession(key string, now time.Time) *Session {
	return &Session{Key: key, Catalog: NewCatalogState(), lastUsed: now}
}

// UserID returns the id of the user last authenticated on the session.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Authenticate records the user of p and dismisses a pending login prompt.
func (s *Session) Authenticate(p *domain.Principal) {
	if p == nil || p.UserID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = p.UserID
	s.authRequired = false
}

// AuthRequired reports whether a submission is waiting for the user to log in.
func (s *Session) AuthRequired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authRequired
}

func (s *Session) requireAuth() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = ""
	s.authRequired = true
}

func (s *Session) handleAuth(ev AuthEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch ev.Kind {
	case AuthLogout:
		if s.userID != "" && s.userID == ev.UserID {
			s.userID = ""
			return true
		}
	case AuthLogin:
		if ev.SessionKey == s.Key || (s.userID != "" && s.userID == ev.UserID) {
			if ev.UserID != "" {
				s.userID = ev.UserID
			}
			s.authRequired = false
			return true
		}
	}
	return false
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastUsed)
}

func (s *Session) isHydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrated
}

func (s *Session) setHydrated() {
	s.mu.Lock()
	s.hydrated = true
	s.mu.Unlock()
}

// SessionRegistry holds the live sessions by key and evicts idle ones.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	idleTTL  time.Duration
	now      func() time.Time

	unsubscribe func()
	metrics     *metrics.MetricsManager
	logger      *logger.Logger
}

// NewSessionRegistry creates a registry and subscribes it to notifier.
func NewSessionRegistry(idleTTL time.Duration, notifier *AuthNotifier, m *metrics.MetricsManager, log *logger.Logger) *SessionRegistry {
	r := &SessionRegistry{
		sessions: make(map[string]*Session),
		idleTTL:  idleTTL,
		now:      time.Now,
		metrics:  m,
		logger:   log.Named("SessionRegistry"),
	}
	if notifier != nil {
		r.unsubscribe = notifier.Subscribe(r.handleAuth)
	}
	return r
}

// Get returns the session for key, creating it when absent.
func (r *SessionRegistry) Get(key string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	sess, ok := r.sessions[key]
	if !ok {
		sess = newSession(key, now)
		r.sessions[key] = sess
		r.metrics.ActiveSessions.Set(float64(len(r.sessions)))
		r.logger.Debug("Session opened", zap.String("session", key))
		return sess
	}
	sess.touch(now)
	return sess
}

// Drop forgets the session for key.
func (r *SessionRegistry) Drop(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, key)
	r.metrics.ActiveSessions.Set(float64(len(r.sessions)))
}

// Len is the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *SessionRegistry) handleAuth(ev AuthEvent) {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	affected := 0
	for _, s := range sessions {
		if s.handleAuth(ev) {
			affected++
		}
	}
	if affected > 0 {
		r.logger.Info("Auth change applied to sessions",
			zap.String("kind", string(ev.Kind)),
			zap.String("user_id", ev.UserID),
			zap.Int("sessions", affected))
	}
}

// EvictIdle removes sessions unused for longer than the idle TTL.
func (r *SessionRegistry) EvictIdle() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	evicted := 0
	for key, s := range r.sessions {
		if s.idleSince(now) > r.idleTTL {
			delete(r.sessions, key)
			evicted++
		}
	}
	r.metrics.ActiveSessions.Set(float64(len(r.sessions)))
	return evicted
}

// Run evicts idle sessions periodically until ctx is done.
func (r *SessionRegistry) Run(ctx context.Context) {
	interval := r.idleTTL / 2
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer func() {
		if r.unsubscribe != nil {
			r.unsubscribe()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Session janitor stopped")
			return
		case <-ticker.C:
			if n := r.EvictIdle(); n > 0 {
				r.logger.Info("Evicted idle sessions", zap.Int("count", n))
			}
		}
	}
}
