package rbac

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ridepass/ridepass/internal/auth"
	"github.com/ridepass/ridepass/internal/platform/httpx"
)

type stubSessions struct {
	tokens map[string]auth.Principal
}

func (s *stubSessions) Validate(ctx context.Context, rawToken string) (auth.Principal, error) {
	if p, ok := s.tokens[rawToken]; ok {
		return p, nil
	}
	return auth.Principal{}, fmt.Errorf("%w: invalid session", httpx.ErrUnauthorized)
}

func TestCheckGrantedAndDenied(t *testing.T) {
	repo := newMemoryGrantRepo()
	repo.roleGrants[2] = []Grant{{Code: "PERM_BOOK_PASS", Route: "/booking/pass"}}
	sessions := &stubSessions{tokens: map[string]auth.Principal{
		"tok-1": {ID: 7, Username: "student1", RoleID: 2, RoleName: "STUDENT"},
	}}
	eval := NewEvaluator(sessions, NewResolver(repo))

	decision, err := eval.Check(context.Background(), "tok-1", "/Booking/Pass/")
	require.NoError(t, err)
	require.True(t, decision.HasAccess)
	require.Equal(t, []string{"/booking/pass"}, decision.AllowedRoutes)
	require.Equal(t, int64(7), decision.Principal.ID)

	decision, err = eval.Check(context.Background(), "tok-1", "/admin/users")
	require.NoError(t, err)
	require.False(t, decision.HasAccess, "known route outside the grant set is a denial, not an error")
	require.Equal(t, []string{"/booking/pass"}, decision.AllowedRoutes)
}

func TestCheckRevokedTokenIsUnauthorized(t *testing.T) {
	repo := newMemoryGrantRepo()
	repo.roleGrants[2] = []Grant{{Code: "PERM_BOOK_PASS", Route: "/booking/pass"}}
	sessions := &stubSessions{tokens: map[string]auth.Principal{}}
	eval := NewEvaluator(sessions, NewResolver(repo))

	_, err := eval.Check(context.Background(), "revoked", "/booking/pass")
	require.ErrorIs(t, err, httpx.ErrUnauthorized)
}
