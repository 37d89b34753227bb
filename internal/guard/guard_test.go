package guard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type checkReply struct {
	status    int
	hasAccess bool
	rawBody   string
}

func newCheckServer(t *testing.T, replies map[string]checkReply) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reply, ok := replies[r.URL.Query().Get("path")]
		if !ok {
			reply = checkReply{status: http.StatusOK}
		}
		w.WriteHeader(reply.status)
		if reply.rawBody != "" {
			_, _ = w.Write([]byte(reply.rawBody))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "hasAccess": reply.hasAccess})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNavigateAllowedStoresLastGoodPath(t *testing.T) {
	srv := newCheckServer(t, map[string]checkReply{
		"/Booking/Pass/": {status: http.StatusOK, hasAccess: true},
	})
	store := NewMemoryStorage()
	nav := NewNavigator(nil, srv.URL, store)

	res := nav.Navigate(context.Background(), "/Booking/Pass/")
	require.True(t, res.Allowed)
	require.False(t, res.Stale)
	require.Equal(t, "/Booking/Pass", res.Path, "canonical form keeps the user's casing")

	stored, ok := store.Get("lastGoodPath")
	require.True(t, ok)
	require.Equal(t, "/Booking/Pass", stored)
}

func TestNavigateDeniedFallsBackToLastGoodPath(t *testing.T) {
	srv := newCheckServer(t, map[string]checkReply{
		"/booking/pass": {status: http.StatusOK, hasAccess: true},
		"/admin/users":  {status: http.StatusOK, hasAccess: false},
	})
	store := NewMemoryStorage()
	nav := NewNavigator(nil, srv.URL, store)

	res := nav.Navigate(context.Background(), "/booking/pass")
	require.True(t, res.Allowed)

	res = nav.Navigate(context.Background(), "/admin/users")
	require.False(t, res.Allowed)
	require.Equal(t, "/booking/pass", res.Path)
}

func TestNavigateDeniedWithoutHistoryGoesHome(t *testing.T) {
	srv := newCheckServer(t, map[string]checkReply{
		"/admin/users": {status: http.StatusOK, hasAccess: false},
		"/":            {status: http.StatusOK, hasAccess: false},
	})
	nav := NewNavigator(nil, srv.URL, NewMemoryStorage())

	res := nav.Navigate(context.Background(), "/admin/users")
	require.False(t, res.Allowed)
	require.Equal(t, "/", res.Path)

	// When the home page itself is the denied path the default fallback
	// would loop, so login takes over.
	res = nav.Navigate(context.Background(), "/")
	require.False(t, res.Allowed)
	require.Equal(t, "/login", res.Path)
}

func TestNavigateBreaksRedirectLoop(t *testing.T) {
	srv := newCheckServer(t, map[string]checkReply{
		"/admin/users":   {status: http.StatusOK, hasAccess: true},
		"/Admin/Users/":  {status: http.StatusOK, hasAccess: false},
		"/admin/reports": {status: http.StatusOK, hasAccess: false},
	})
	store := NewMemoryStorage()
	nav := NewNavigator(nil, srv.URL, store)

	// The stored last-good path later becomes denied; falling back to it
	// would bounce forever, so the guard bails to login instead.
	res := nav.Navigate(context.Background(), "/admin/users")
	require.True(t, res.Allowed)

	res = nav.Navigate(context.Background(), "/Admin/Users/")
	require.Equal(t, "/login", res.Path)
	_, ok := store.Get("lastGoodPath")
	require.False(t, ok, "the looping entry is discarded")

	res = nav.Navigate(context.Background(), "/admin/reports")
	require.Equal(t, "/", res.Path)
}

func TestNavigateFailsClosed(t *testing.T) {
	store := NewMemoryStorage()
	store.Set("lastGoodPath", "/booking/pass")

	// Unreachable server.
	nav := NewNavigator(nil, "http://127.0.0.1:0", store)
	res := nav.Navigate(context.Background(), "/admin/users")
	require.False(t, res.Allowed)
	require.Equal(t, "/booking/pass", res.Path)

	// Server errors and malformed bodies behave the same.
	srv := newCheckServer(t, map[string]checkReply{
		"/a": {status: http.StatusInternalServerError},
		"/b": {status: http.StatusOK, rawBody: "not json"},
	})
	nav = NewNavigator(nil, srv.URL, store)
	res = nav.Navigate(context.Background(), "/a")
	require.False(t, res.Allowed)
	require.Equal(t, "/booking/pass", res.Path)
	res = nav.Navigate(context.Background(), "/b")
	require.False(t, res.Allowed)
	require.Equal(t, "/booking/pass", res.Path)
}

func TestNavigateUnauthenticatedClearsHistory(t *testing.T) {
	srv := newCheckServer(t, map[string]checkReply{
		"/admin/users": {status: http.StatusUnauthorized, rawBody: `{"title":"Unauthorized"}`},
	})
	store := NewMemoryStorage()
	store.Set("lastGoodPath", "/booking/pass")
	nav := NewNavigator(nil, srv.URL, store)

	res := nav.Navigate(context.Background(), "/admin/users")
	require.False(t, res.Allowed)
	require.Equal(t, "/login", res.Path)
	_, ok := store.Get("lastGoodPath")
	require.False(t, ok)
}

func TestNavigatePublicPathSkipsCheck(t *testing.T) {
	// No server at all: a public path must not trigger a request.
	store := NewMemoryStorage()
	nav := NewNavigator(nil, "http://127.0.0.1:0", store, WithPublicPaths("/welcome"))

	res := nav.Navigate(context.Background(), "/Welcome/")
	require.True(t, res.Allowed)
	require.Equal(t, "/Welcome", res.Path)
	stored, ok := store.Get("lastGoodPath")
	require.True(t, ok)
	require.Equal(t, "/Welcome", stored, "public visits refresh the known-good path")

	res = nav.Navigate(context.Background(), "/login")
	require.True(t, res.Allowed, "the login path is always public")
}

func TestNavigatePublicPathRefreshesStaleHistory(t *testing.T) {
	store := NewMemoryStorage()
	store.Set("lastGoodPath", "/old/stale")
	nav := NewNavigator(nil, "http://127.0.0.1:0", store, WithPublicPaths("/welcome"))

	res := nav.Navigate(context.Background(), "/Welcome/")
	require.True(t, res.Allowed)

	// A later blocked navigation lands on the page the user actually
	// left, not some pre-public leftover.
	res = nav.Navigate(context.Background(), "/admin/users")
	require.False(t, res.Allowed)
	require.Equal(t, "/Welcome", res.Path)
}

func TestNavigateLastCallWins(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("path") == "/slow" {
			close(started)
			<-release
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "hasAccess": true})
	}))
	t.Cleanup(srv.Close)
	store := NewMemoryStorage()
	nav := NewNavigator(nil, srv.URL, store)

	slowDone := make(chan Result, 1)
	go func() {
		slowDone <- nav.Navigate(context.Background(), "/slow")
	}()

	// Make sure the slow navigation is in flight before racing it.
	<-started

	res := nav.Navigate(context.Background(), "/fast")
	require.True(t, res.Allowed)
	require.Equal(t, "/fast", res.Path)

	close(release)
	slow := <-slowDone
	require.True(t, slow.Stale, "the superseded navigation must be discarded")

	stored, ok := store.Get("lastGoodPath")
	require.True(t, ok)
	require.Equal(t, "/fast", stored, "only the winning navigation touches history")
}
