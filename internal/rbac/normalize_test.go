package rbac

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"//", "/"},
		{"/admin/users", "/admin/users"},
		{"/Admin/Users/", "/admin/users"},
		{"admin/users", "/admin/users"},
		{"/admin/users///", "/admin/users"},
		{"/admin/users?tab=roles", "/admin/users"},
		{"/Admin/Users/?tab=roles&x=1", "/admin/users"},
		{"?tab=roles", "/"},
		{"/BOOKING/Pass", "/booking/pass"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, NormalizePath(tc.in), "input %q", tc.in)
	}
}

func TestNormalizePathIdempotent(t *testing.T) {
	inputs := []string{"", "/", "/Admin/Users/", "admin/users?x=1", "/a/b/c///"}
	for _, in := range inputs {
		once := NormalizePath(in)
		require.Equal(t, once, NormalizePath(once), "input %q", in)
	}
}

func TestCanonicalPathPreservesCase(t *testing.T) {
	require.Equal(t, "/Admin/Users", CanonicalPath("/Admin/Users/?tab=roles"))
	require.Equal(t, "/", CanonicalPath(""))
	require.Equal(t, "/booking", CanonicalPath("booking///"))
}
