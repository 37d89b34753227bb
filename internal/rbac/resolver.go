package rbac

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ridepass/ridepass/internal/auth"
)

// GrantRepository defines the row reads the resolver composes. Every call
// reflects current table state; the resolver holds no cache so role and
// permission edits are visible on the very next check.
type GrantRepository interface {
	RoleGrants(ctx context.Context, roleID int64) ([]Grant, error)
	CustomGrants(ctx context.Context, principalID int64) ([]Grant, error)
	AllActiveGrants(ctx context.Context) ([]Grant, error)
}

// Resolver computes the effective grant set of a principal from role-derived
// and individually-granted permissions.
type Resolver struct {
	repo GrantRepository
}

// NewResolver constructs a Resolver.
func NewResolver(repo GrantRepository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve returns the principal's effective grants: the union of the role's
// grants and the principal's custom grants, filtered to entries that are
// global or match the principal's context. The super-role short-circuits to
// every active catalog entry.
func (r *Resolver) Resolve(ctx context.Context, principal auth.Principal) (*GrantSet, error) {
	if IsSuperRole(principal.RoleName) {
		grants, err := r.repo.AllActiveGrants(ctx)
		if err != nil {
			return nil, err
		}
		return newGrantSet(grants), nil
	}

	var roleGrants, customGrants []Grant
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		roleGrants, err = r.repo.RoleGrants(gctx, principal.RoleID)
		return err
	})
	g.Go(func() error {
		var err error
		customGrants, err = r.repo.CustomGrants(gctx, principal.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]Grant, 0, len(roleGrants)+len(customGrants))
	for _, grant := range append(roleGrants, customGrants...) {
		if !matchesContext(grant.ContextType, principal.ContextType) {
			continue
		}
		merged = append(merged, grant)
	}
	return newGrantSet(merged), nil
}

// matchesContext admits global entries and entries scoped to the principal's
// own context type. The comparison is case-insensitive.
func matchesContext(entry, principal *string) bool {
	if entry == nil || *entry == "" {
		return true
	}
	if principal == nil {
		return false
	}
	return strings.EqualFold(*entry, *principal)
}
