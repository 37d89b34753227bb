package rbac

import (
	"context"

	"github.com/ridepass/ridepass/internal/auth"
)

// SessionValidator resolves a raw session token to a principal.
type SessionValidator interface {
	Validate(ctx context.Context, rawToken string) (auth.Principal, error)
}

// Decision is the outcome of one access check. An authentication failure is
// never expressed as a Decision: it propagates as an error so callers cannot
// confuse "not logged in" with "logged in but denied".
type Decision struct {
	Principal     auth.Principal
	AllowedRoutes []string
	HasAccess     bool
}

// Evaluator is the request-time decision function. It is stateless per
// request: every check reads session and grant rows fresh, so evaluator
// instances can run concurrently across processes without coordination.
type Evaluator struct {
	sessions SessionValidator
	resolver *Resolver
}

// NewEvaluator constructs an Evaluator.
func NewEvaluator(sessions SessionValidator, resolver *Resolver) *Evaluator {
	return &Evaluator{sessions: sessions, resolver: resolver}
}

// Check validates the session token and decides whether its principal may
// reach path. Membership is equality on NormalizePath output; no pattern
// matching is performed.
func (e *Evaluator) Check(ctx context.Context, rawToken, path string) (Decision, error) {
	principal, err := e.sessions.Validate(ctx, rawToken)
	if err != nil {
		return Decision{}, err
	}
	grants, err := e.resolver.Resolve(ctx, principal)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Principal:     principal,
		AllowedRoutes: grants.Routes(),
		HasAccess:     grants.HasRoute(path),
	}, nil
}
