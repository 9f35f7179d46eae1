package middleware

import (
	"context"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/wizard/usecase"
)

// ContextKey is the type of the keys this package stores in request contexts.
type ContextKey string

const (
	// SessionCtxKey holds the *usecase.Session of the request.
	SessionCtxKey = ContextKey("wizard_session")
)

// SessionFromContext returns the wizard session attached by Session.
func SessionFromContext(ctx context.Context) (*usecase.Session, bool) {
	s, ok := ctx.Value(SessionCtxKey).(*usecase.Session)
	return s, ok && s != nil
}
