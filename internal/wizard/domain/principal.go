package domain

import "context"

// Principal is the authenticated user the wizard acts for.
type Principal struct {
	UserID string
	Email  string
	// Token is the raw bearer token, forwarded to the listing endpoint.
	Token string
}

type principalKey struct{}

// WithPrincipal stores the principal in the context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored by WithPrincipal, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
