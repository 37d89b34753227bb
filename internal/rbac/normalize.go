package rbac

import "strings"

// NormalizePath reduces a route to its canonical comparison form: the query
// component and trailing slashes are stripped, the remainder is lowercased,
// an empty result collapses to "/" and a single leading slash is guaranteed.
// Both the server evaluator and the client navigation guard rely on this
// exact function; route membership is decided by equality on its output.
func NormalizePath(path string) string {
	if path == "" {
		return "/"
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimRight(path, "/")
	path = strings.ToLower(path)
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

// CanonicalPath applies the same structural cleanup as NormalizePath but
// preserves the original casing. The navigation guard stores this form so a
// restore redirect keeps the URL the user actually saw.
func CanonicalPath(path string) string {
	if path == "" {
		return "/"
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimRight(path, "/")
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}
