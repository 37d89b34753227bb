package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ridepass/ridepass/internal/platform/httpx"
)

type memoryRepo struct {
	accounts map[int64]*PrincipalAccount
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{accounts: make(map[int64]*PrincipalAccount)}
}

func (r *memoryRepo) ListPrincipals(ctx context.Context) ([]PrincipalAccount, error) {
	var out []PrincipalAccount
	for _, acc := range r.accounts {
		out = append(out, *acc)
	}
	return out, nil
}

func (r *memoryRepo) GetPrincipal(ctx context.Context, id int64) (PrincipalAccount, error) {
	acc, ok := r.accounts[id]
	if !ok {
		return PrincipalAccount{}, httpx.ErrNotFound
	}
	return *acc, nil
}

func (r *memoryRepo) ReplaceCustomPermissions(ctx context.Context, principalID int64, codes []string) error {
	acc, ok := r.accounts[principalID]
	if !ok {
		return httpx.ErrNotFound
	}
	acc.CustomPermissions = codes
	return nil
}

var _ RepositoryPort = (*memoryRepo)(nil)

func TestSetCustomPermissionsReplacesWholeSet(t *testing.T) {
	repo := newMemoryRepo()
	repo.accounts[7] = &PrincipalAccount{
		ID: 7, Username: "student1", RoleName: "STUDENT",
		CustomPermissions: []string{"PERM_VIEW_REPORTS"},
	}
	svc := NewService(repo)
	ctx := context.Background()

	acc, err := svc.SetCustomPermissions(ctx, 7, []string{"PERM_MANAGE_PASSES", " PERM_MANAGE_PASSES ", ""})
	require.NoError(t, err)
	require.Equal(t, []string{"PERM_MANAGE_PASSES"}, acc.CustomPermissions, "prior grants are gone, duplicates and blanks dropped")

	acc, err = svc.SetCustomPermissions(ctx, 7, []string{})
	require.NoError(t, err)
	require.Empty(t, acc.CustomPermissions, "empty set clears every custom grant")
}

func TestSetCustomPermissionsUnknownPrincipal(t *testing.T) {
	svc := NewService(newMemoryRepo())
	_, err := svc.SetCustomPermissions(context.Background(), 99, []string{"PERM_BOOK_PASS"})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}
