package auth

import "context"

var principalCtxKey = &contextKey{"principal"}
var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithPrincipal sets the Principal in the given context. The association
// is strictly request-scoped: the middleware builds a fresh context per
// request and nothing survives the handler.
func WithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey, principal)
}

// PrincipalFromContext finds the principal from the context.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	raw, ok := ctx.Value(principalCtxKey).(*Principal)
	if !ok || raw == nil {
		return nil, false
	}
	return raw, true
}

// WithClaims sets the validated claims in the given context.
func WithClaims(ctx context.Context, claims AuthClaims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, claims)
}

// ClaimsFromContext extracts the claims from the context.
func ClaimsFromContext(ctx context.Context) (AuthClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AuthClaims)
	if !ok || raw == nil {
		return nil, false
	}
	return raw, true
}

// ClearPrincipal drops both the principal and claims associations. Logout
// handlers use it; calling it on a context that has neither is a no-op.
func ClearPrincipal(ctx context.Context) context.Context {
	ctx = context.WithValue(ctx, principalCtxKey, (*Principal)(nil))
	return context.WithValue(ctx, claimsCtxKey, nil)
}
