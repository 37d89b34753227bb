package rbac

import (
	"context"

	"github.com/ridepass/ridepass/internal/auth"
)

type principalContextKey struct{}

// ContextWithPrincipal stores the validated principal in context.
func ContextWithPrincipal(ctx context.Context, principal auth.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// PrincipalFromContext extracts the validated principal from context.
func PrincipalFromContext(ctx context.Context) (auth.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey{}).(auth.Principal)
	return principal, ok
}
