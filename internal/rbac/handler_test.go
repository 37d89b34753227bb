package rbac

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/ridepass/ridepass/internal/auth"
	_ "github.com/ridepass/ridepass/testing"
)

func newCheckServer(t *testing.T, sessions *stubSessions, repo *memoryGrantRepo) *httptest.Server {
	t.Helper()
	handler := NewHandler(nil, NewEvaluator(sessions, NewResolver(repo)), nil, "rp_session")
	r := chi.NewRouter()
	handler.MountRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func checkRequest(t *testing.T, srv *httptest.Server, token, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/check?path="+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "rp_session", Value: token})
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestCheckEndpointDistinguishesAuthFromAccess(t *testing.T) {
	repo := newMemoryGrantRepo()
	repo.roleGrants[2] = []Grant{{Code: "PERM_BOOK_PASS", Route: "/booking/pass"}}
	sessions := &stubSessions{tokens: map[string]auth.Principal{
		"tok-1": {ID: 7, Username: "student1", RoleID: 2, RoleName: "STUDENT"},
	}}
	srv := newCheckServer(t, sessions, repo)

	// No cookie: authentication failure, not a denial.
	resp := checkRequest(t, srv, "", "/booking/pass")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Valid session, granted route.
	resp = checkRequest(t, srv, "tok-1", "/booking/pass")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body checkResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.True(t, body.Success)
	require.True(t, body.HasAccess)
	require.Equal(t, "student1", body.User.Username)
	require.Equal(t, []string{"/booking/pass"}, body.AllowedRoutes)

	// Valid session, route outside the grant set: 200 with hasAccess false.
	resp = checkRequest(t, srv, "tok-1", "/admin/users")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.True(t, body.Success)
	require.False(t, body.HasAccess)
}
