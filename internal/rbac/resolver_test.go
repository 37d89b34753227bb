package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ridepass/ridepass/internal/auth"
)

type memoryGrantRepo struct {
	roleGrants   map[int64][]Grant
	customGrants map[int64][]Grant
	allActive    []Grant
}

func newMemoryGrantRepo() *memoryGrantRepo {
	return &memoryGrantRepo{
		roleGrants:   make(map[int64][]Grant),
		customGrants: make(map[int64][]Grant),
	}
}

func (r *memoryGrantRepo) RoleGrants(ctx context.Context, roleID int64) ([]Grant, error) {
	return r.roleGrants[roleID], nil
}

func (r *memoryGrantRepo) CustomGrants(ctx context.Context, principalID int64) ([]Grant, error) {
	return r.customGrants[principalID], nil
}

func (r *memoryGrantRepo) AllActiveGrants(ctx context.Context) ([]Grant, error) {
	return r.allActive, nil
}

func strptr(s string) *string { return &s }

func TestResolveUnionsRoleAndCustomGrants(t *testing.T) {
	repo := newMemoryGrantRepo()
	repo.roleGrants[2] = []Grant{
		{Code: "PERM_BOOK_PASS", Route: "/booking/pass"},
	}
	repo.customGrants[7] = []Grant{
		{Code: "PERM_VIEW_REPORTS", Route: "/admin/reports"},
	}
	resolver := NewResolver(repo)

	set, err := resolver.Resolve(context.Background(), auth.Principal{ID: 7, RoleID: 2, RoleName: "STUDENT"})
	require.NoError(t, err)
	require.True(t, set.HasCode("PERM_BOOK_PASS"))
	require.True(t, set.HasCode("PERM_VIEW_REPORTS"))
	require.True(t, set.HasRoute("/booking/pass"))
	require.True(t, set.HasRoute("/Admin/Reports/"))
	require.False(t, set.HasCode("PERM_MANAGE_USERS"))
}

func TestResolveSuperRoleGetsEverything(t *testing.T) {
	repo := newMemoryGrantRepo()
	repo.allActive = []Grant{
		{Code: "PERM_MANAGE_USERS", Route: "/admin/users"},
		{Code: "PERM_BOOK_PASS", Route: "/booking/pass"},
	}
	// Deliberately no role or custom rows for the admin.
	resolver := NewResolver(repo)

	set, err := resolver.Resolve(context.Background(), auth.Principal{ID: 1, RoleID: 1, RoleName: "admin"})
	require.NoError(t, err)
	require.Equal(t, []string{"/admin/users", "/booking/pass"}, set.Routes())
}

func TestResolveFiltersByContext(t *testing.T) {
	repo := newMemoryGrantRepo()
	repo.roleGrants[3] = []Grant{
		{Code: "PERM_VIEW_SCHEDULE", Route: "/schedule"},
		{Code: "PERM_STATION_GATE", Route: "/station/gate", ContextType: strptr("station")},
		{Code: "PERM_DEPOT_DISPATCH", Route: "/depot/dispatch", ContextType: strptr("depot")},
	}
	resolver := NewResolver(repo)

	station := "Station"
	set, err := resolver.Resolve(context.Background(), auth.Principal{ID: 5, RoleID: 3, RoleName: "CONDUCTOR", ContextType: &station})
	require.NoError(t, err)
	require.True(t, set.HasCode("PERM_VIEW_SCHEDULE"), "global entries always apply")
	require.True(t, set.HasCode("PERM_STATION_GATE"), "context match is case-insensitive")
	require.False(t, set.HasCode("PERM_DEPOT_DISPATCH"))

	set, err = resolver.Resolve(context.Background(), auth.Principal{ID: 6, RoleID: 3, RoleName: "CONDUCTOR"})
	require.NoError(t, err)
	require.True(t, set.HasCode("PERM_VIEW_SCHEDULE"))
	require.False(t, set.HasCode("PERM_STATION_GATE"), "scoped entries need a context")
}

func TestResolveSeesCustomGrantChanges(t *testing.T) {
	repo := newMemoryGrantRepo()
	resolver := NewResolver(repo)
	principal := auth.Principal{ID: 9, RoleID: 2, RoleName: "STAFF"}

	set, err := resolver.Resolve(context.Background(), principal)
	require.NoError(t, err)
	require.False(t, set.HasCode("PERM_VIEW_REPORTS"))

	repo.customGrants[9] = []Grant{{Code: "PERM_VIEW_REPORTS", Route: "/admin/reports"}}
	set, err = resolver.Resolve(context.Background(), principal)
	require.NoError(t, err)
	require.True(t, set.HasCode("PERM_VIEW_REPORTS"), "no caching between checks")
}
