package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/wizard/usecase"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// Subjects the user service publishes auth changes on.
const (
	SubjectUserLoggedIn  = "user.logged_in"
	SubjectUserLoggedOut = "user.logged_out"
)

type authMessage struct {
	UserID     string `json:"user_id"`
	SessionKey string `json:"session_key,omitempty"`
}

// AuthSubscriber forwards login and logout events from NATS to the wizard
// sessions, so a session never polls for its user's auth state.
type AuthSubscriber struct {
	conn     *nats.Conn
	notifier *usecase.AuthNotifier
	subs     []*nats.Subscription
	logger   *logger.Logger
}

// NewAuthSubscriber creates an AuthSubscriber.
func NewAuthSubscriber(conn *nats.Conn, notifier *usecase.AuthNotifier, log *logger.Logger) *AuthSubscriber {
	return &AuthSubscriber{conn: conn, notifier: notifier, logger: log.Named("NATSAuthSubscriber")}
}

// Start subscribes to the auth subjects.
func (s *AuthSubscriber) Start() error {
	for _, subject := range []string{SubjectUserLoggedIn, SubjectUserLoggedOut} {
		sub, err := s.conn.Subscribe(subject, s.handle)
		if err != nil {
			s.Stop()
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
		s.subs = append(s.subs, sub)
	}
	s.logger.Info("Subscribed to auth events")
	return nil
}

// Stop removes the subscriptions.
func (s *AuthSubscriber) Stop() {
	for _, sub := range s.subs {
		if err := sub.Unsubscribe(); err != nil {
			s.logger.Warn("Failed to unsubscribe", zap.String("subject", sub.Subject), zap.Error(err))
		}
	}
	s.subs = nil
}

func (s *AuthSubscriber) handle(msg *nats.Msg) {
	ctx := context.Background()
	if msg.Header != nil {
		ctx = otel.GetTextMapPropagator().Extract(ctx, HeaderCarrier(msg.Header))
	}
	_, span := tracer.Start(ctx, "NATS.Handle."+msg.Subject)
	defer span.End()

	var body authMessage
	if err := json.Unmarshal(msg.Data, &body); err != nil || body.UserID == "" {
		s.logger.Warn("Ignoring malformed auth event", zap.String("subject", msg.Subject), zap.Error(err))
		return
	}

	ev := usecase.AuthEvent{UserID: body.UserID, SessionKey: body.SessionKey}
	switch msg.Subject {
	case SubjectUserLoggedIn:
		ev.Kind = usecase.AuthLogin
	case SubjectUserLoggedOut:
		ev.Kind = usecase.AuthLogout
	default:
		return
	}
	s.notifier.Notify(ev)
}
