package auth

import "context"

type principalContextKey struct{}

// ContextWithPrincipal attaches the request principal to the context.
func ContextWithPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// PrincipalFromContext returns the principal attached to ctx, or Anonymous.
func PrincipalFromContext(ctx context.Context) Principal {
	if ctx == nil {
		return Anonymous
	}
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	if !ok {
		return Anonymous
	}
	return p
}
