package nats

import (
	"testing"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/wizard/usecase"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthSubscriber_ForwardsLogout(t *testing.T) {
	notifier := usecase.NewAuthNotifier()
	var got []usecase.AuthEvent
	notifier.Subscribe(func(ev usecase.AuthEvent) { got = append(got, ev) })

	s := NewAuthSubscriber(nil, notifier, logger.NewNop())
	s.handle(&nats.Msg{Subject: SubjectUserLoggedOut, Data: []byte(`{"user_id":"u1"}`)})

	require.Len(t, got, 1)
	assert.Equal(t, usecase.AuthLogout, got[0].Kind)
	assert.Equal(t, "u1", got[0].UserID)
}

func TestAuthSubscriber_ForwardsLoginWithSession(t *testing.T) {
	notifier := usecase.NewAuthNotifier()
	var got []usecase.AuthEvent
	notifier.Subscribe(func(ev usecase.AuthEvent) { got = append(got, ev) })

	s := NewAuthSubscriber(nil, notifier, logger.NewNop())
	s.handle(&nats.Msg{
		Subject: SubjectUserLoggedIn,
		Header:  nats.Header{"traceparent": []string{"00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"}},
		Data:    []byte(`{"user_id":"u1","session_key":"s1"}`),
	})

	require.Len(t, got, 1)
	assert.Equal(t, usecase.AuthLogin, got[0].Kind)
	assert.Equal(t, "s1", got[0].SessionKey)
}

func TestAuthSubscriber_IgnoresMalformed(t *testing.T) {
	notifier := usecase.NewAuthNotifier()
	calls := 0
	notifier.Subscribe(func(usecase.AuthEvent) { calls++ })

	s := NewAuthSubscriber(nil, notifier, logger.NewNop())
	s.handle(&nats.Msg{Subject: SubjectUserLoggedOut, Data: []byte(`not json`)})
	s.handle(&nats.Msg{Subject: SubjectUserLoggedOut, Data: []byte(`{}`)})

	assert.Zero(t, calls)
}

func TestHeaderCarrier(t *testing.T) {
	h := nats.Header{}
	c := HeaderCarrier(h)
	c.Set("traceparent", "abc")
	assert.Equal(t, "abc", c.Get("traceparent"))
	assert.Equal(t, []string{"traceparent"}, c.Keys())
}
