package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/wizard/domain"
	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/wizard/usecase"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// SessionCookie is the cookie that identifies a browser's wizard.
	SessionCookie = "wizard_session"
	// SessionHeader lets non-browser clients and embedded widgets pass the key explicitly.
	SessionHeader = "X-Wizard-Session"
)

// CookieOptions controls the session cookie issued to new visitors.
type CookieOptions struct {
	TTL time.Duration
	// Secure is set when the service is reached over TLS.
	Secure bool
}

// Opener prepares a session for use.
type Opener interface {
	Open(ctx context.Context, sess *usecase.Session) error
}

func sessionKey(r *http.Request) (string, bool) {
	key := r.Header.Get(SessionHeader)
	if key == "" {
		if c, err := r.Cookie(SessionCookie); err == nil {
			key = c.Value
		}
	}
	if _, err := uuid.Parse(key); err != nil {
		return "", false
	}
	return key, true
}

// Session resolves the wizard session of the request, issuing a new key when
// the request has none, and opens it. The user of a principal attached by
// JWTAuth is recorded on the session; the credentials stay on the request.
func Session(registry *usecase.SessionRegistry, opener Opener, cookie CookieOptions, log *logger.Logger) func(http.Handler) http.Handler {
	log = log.Named("SessionMiddleware")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := sessionKey(r)
			if !ok {
				key = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    key,
					Path:     "/",
					MaxAge:   int(cookie.TTL.Seconds()),
					HttpOnly: true,
					Secure:   cookie.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			w.Header().Set(SessionHeader, key)

			sess := registry.Get(key)
			if p, ok := domain.PrincipalFromContext(r.Context()); ok {
				sess.Authenticate(p)
			}
			if err := opener.Open(r.Context(), sess); err != nil {
				log.Error("Failed to open wizard session", zap.String("session", key), zap.Error(err))
				http.Error(w, "Could not load your draft", http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), SessionCtxKey, sess)))
		})
	}
}
