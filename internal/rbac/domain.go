package rbac

import (
	"sort"
	"strings"
)

// SuperRoleName names the protected super-role whose effective grant set is
// always every active catalog entry.
const SuperRoleName = "ADMIN"

// IsSuperRole is the single predicate identifying the protected super-role.
// Both the resolver short-circuit and the role administration guard consult
// it; nothing else may hard-code the role name.
func IsSuperRole(roleName string) bool {
	return strings.EqualFold(roleName, SuperRoleName)
}

// Grant is one active catalog entry as seen by the resolver: a permission
// code, the route it unlocks and the context the entry is scoped to (nil
// means global).
type Grant struct {
	Code        string
	Route       string
	ContextType *string
}

// GrantSet is the resolved authorization state of a principal for a single
// request. Membership is decided on normalized routes.
type GrantSet struct {
	codes  map[string]struct{}
	routes map[string]struct{}
}

func newGrantSet(grants []Grant) *GrantSet {
	set := &GrantSet{
		codes:  make(map[string]struct{}, len(grants)),
		routes: make(map[string]struct{}, len(grants)),
	}
	for _, g := range grants {
		set.codes[g.Code] = struct{}{}
		set.routes[NormalizePath(g.Route)] = struct{}{}
	}
	return set
}

// HasCode reports whether the permission code was granted.
func (s *GrantSet) HasCode(code string) bool {
	_, ok := s.codes[code]
	return ok
}

// HasRoute reports whether the normalized form of path is a granted route.
func (s *GrantSet) HasRoute(path string) bool {
	_, ok := s.routes[NormalizePath(path)]
	return ok
}

// Routes returns the granted normalized routes in deterministic order.
func (s *GrantSet) Routes() []string {
	routes := make([]string, 0, len(s.routes))
	for route := range s.routes {
		routes = append(routes, route)
	}
	sort.Strings(routes)
	return routes
}
