package session

import (
	"context"

	"github.com/jobdeck/admin-backend/internal/identity"
)

type contextKey string

const (
	principalKey contextKey = "principal"
	tokenKey     contextKey = "token"
)

// WithPrincipal stores the authenticated principal and its raw bearer token.
// The token is carried so upstream calls can act with the caller's identity.
func WithPrincipal(ctx context.Context, p identity.Principal, rawToken string) context.Context {
	ctx = context.WithValue(ctx, principalKey, p)
	return context.WithValue(ctx, tokenKey, rawToken)
}

func PrincipalFromContext(ctx context.Context) (identity.Principal, bool) {
	p, ok := ctx.Value(principalKey).(identity.Principal)
	return p, ok
}

func TokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}
