package bastion

import "context"

type contextKey int

const ctxKeyPrincipal contextKey = iota

// WithPrincipal returns a context carrying the authenticated principal.
// The request layer sets this after authentication; middleware reads it
// back when enforcing capabilities.
func WithPrincipal(ctx context.Context, principal PrincipalID) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, principal)
}

// PrincipalFromContext extracts the authenticated principal from the
// context, if any.
func PrincipalFromContext(ctx context.Context) (PrincipalID, bool) {
	v, ok := ctx.Value(ctxKeyPrincipal).(PrincipalID)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
