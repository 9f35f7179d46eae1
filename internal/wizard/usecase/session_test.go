package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/wizard/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestSessionRegistry_GetReusesSession(t *testing.T) {
	m := metrics.NewMetricsManager("session_test")
	r := NewSessionRegistry(time.Hour, nil, m, logger.NewNop())

	a := r.Get("s1")
	assert.Same(t, a, r.Get("s1"))
	assert.NotSame(t, a, r.Get("s2"))
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, float64(2), testutil.ToFloat64(m.ActiveSessions))

	r.Drop("s1")
	assert.Equal(t, 1, r.Len())
}

func TestSessionRegistry_EvictIdle(t *testing.T) {
	r := NewSessionRegistry(10*time.Minute, nil, metrics.NewMetricsManager("session_test"), logger.NewNop())
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	r.Get("old")
	now = now.Add(8 * time.Minute)
	r.Get("fresh")
	now = now.Add(5 * time.Minute)

	assert.Equal(t, 1, r.EvictIdle())
	assert.Equal(t, 1, r.Len())

	now = now.Add(time.Minute)
	r.Get("fresh")
	now = now.Add(9 * time.Minute)
	assert.Zero(t, r.EvictIdle(), "using a session keeps it alive")
}

func TestSessionRegistry_RunStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	notifier := NewAuthNotifier()
	r := NewSessionRegistry(time.Millisecond, notifier, metrics.NewMetricsManager("session_test"), logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	// Unsubscribed on exit: a later login reaches no session.
	sess := r.Get("s1")
	notifier.Notify(AuthEvent{Kind: AuthLogin, UserID: seller.UserID, SessionKey: "s1"})
	assert.Empty(t, sess.UserID())
}

func TestSessionRegistry_AuthEvents(t *testing.T) {
	notifier := NewAuthNotifier()
	r := NewSessionRegistry(time.Hour, notifier, metrics.NewMetricsManager("session_test"), logger.NewNop())

	waiting := r.Get("s1")
	waiting.requireAuth()
	other := r.Get("s2")

	notifier.Notify(AuthEvent{Kind: AuthLogin, UserID: seller.UserID, SessionKey: "s1"})
	assert.False(t, waiting.AuthRequired(), "logging in dismisses the prompt")
	assert.Equal(t, seller.UserID, waiting.UserID())
	assert.Empty(t, other.UserID())

	other.Authenticate(&domain.Principal{UserID: seller.UserID})
	notifier.Notify(AuthEvent{Kind: AuthLogout, UserID: seller.UserID})
	assert.Empty(t, waiting.UserID())
	assert.Empty(t, other.UserID(), "logout applies to every session of the user")
	assert.False(t, waiting.AuthRequired())
}

func TestAuthNotifier_Unsubscribe(t *testing.T) {
	n := NewAuthNotifier()
	var got []AuthEventKind
	unsubscribe := n.Subscribe(func(ev AuthEvent) { got = append(got, ev.Kind) })

	n.Notify(AuthEvent{Kind: AuthLogin})
	unsubscribe()
	n.Notify(AuthEvent{Kind: AuthLogout})
	assert.Equal(t, []AuthEventKind{AuthLogin}, got)
}
