package guard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync/atomic"

	"github.com/ridepass/ridepass/internal/rbac"
)

const lastGoodPathKey = "lastGoodPath"

// Navigator decides, before each client-side navigation, whether the target
// path may be shown. Every decision fails closed: when the server cannot be
// reached, answers with an unexpected status, or returns a body that does
// not parse, the navigation is treated as denied.
type Navigator struct {
	client    *http.Client
	baseURL   string
	store     Storage
	public    map[string]struct{}
	loginPath string
	logger    *slog.Logger
	seq       atomic.Uint64
}

// Option customizes a Navigator.
type Option func(*Navigator)

// WithHTTPClient overrides the HTTP client. The client should carry a cookie
// jar holding the session cookie.
func WithHTTPClient(client *http.Client) Option {
	return func(n *Navigator) { n.client = client }
}

// WithPublicPaths marks paths that never require an access check.
func WithPublicPaths(paths ...string) Option {
	return func(n *Navigator) {
		for _, p := range paths {
			n.public[rbac.NormalizePath(p)] = struct{}{}
		}
	}
}

// WithLoginPath overrides the path unauthenticated traffic is sent to.
func WithLoginPath(path string) Option {
	return func(n *Navigator) { n.loginPath = rbac.CanonicalPath(path) }
}

// NewNavigator constructs a Navigator against the given server base URL.
func NewNavigator(logger *slog.Logger, baseURL string, store Storage, opts ...Option) *Navigator {
	if logger == nil {
		logger = slog.Default()
	}
	n := &Navigator{
		client:    http.DefaultClient,
		baseURL:   baseURL,
		store:     store,
		public:    make(map[string]struct{}),
		loginPath: "/login",
		logger:    logger,
	}
	for _, opt := range opts {
		opt(n)
	}
	n.public[rbac.NormalizePath(n.loginPath)] = struct{}{}
	return n
}

// Result is the outcome of a single navigation attempt.
type Result struct {
	// Path is where the client should end up. Equal to the requested path
	// when access was granted, otherwise a fallback or the login path.
	Path string
	// Allowed reports whether the requested path itself was granted.
	Allowed bool
	// Stale marks a decision that was superseded by a newer Navigate call
	// before it completed. The caller must discard it.
	Stale bool
}

type checkPayload struct {
	Success   bool `json:"success"`
	HasAccess bool `json:"hasAccess"`
}

// Navigate checks whether path may be shown and returns where to go. Calls
// may overlap; only the most recent one is applied and earlier in-flight
// results come back marked Stale.
func (n *Navigator) Navigate(ctx context.Context, path string) Result {
	seq := n.seq.Add(1)
	canonical := rbac.CanonicalPath(path)

	if _, ok := n.public[rbac.NormalizePath(path)]; ok {
		// Public pages count as known-good too, so a later denial sends
		// the user back to the page they actually left.
		n.store.Set(lastGoodPathKey, canonical)
		return Result{Path: canonical, Allowed: true}
	}

	payload, status, err := n.check(ctx, path)
	if n.seq.Load() != seq {
		return Result{Stale: true}
	}
	if err != nil {
		n.logger.Warn("access check unreachable", slog.String("path", canonical), slog.Any("error", err))
		return n.deny(canonical)
	}
	if status == http.StatusUnauthorized {
		n.store.Delete(lastGoodPathKey)
		return Result{Path: n.loginPath}
	}
	if status != http.StatusOK || !payload.Success {
		n.logger.Warn("access check failed", slog.String("path", canonical), slog.Int("status", status))
		return n.deny(canonical)
	}
	if !payload.HasAccess {
		return n.deny(canonical)
	}

	n.store.Set(lastGoodPathKey, canonical)
	return Result{Path: canonical, Allowed: true}
}

// deny routes a blocked navigation to the last path that was known good,
// defaulting to the home page when nothing is stored. If the fallback is the
// very path that was just denied, following it would loop, so the login path
// is used instead.
func (n *Navigator) deny(canonical string) Result {
	fallback := "/"
	if stored, ok := n.store.Get(lastGoodPathKey); ok {
		fallback = stored
	}
	if rbac.NormalizePath(fallback) == rbac.NormalizePath(canonical) {
		n.store.Delete(lastGoodPathKey)
		return Result{Path: n.loginPath}
	}
	return Result{Path: fallback}
}

func (n *Navigator) check(ctx context.Context, path string) (checkPayload, int, error) {
	endpoint := n.baseURL + "/api/auth/check?path=" + url.QueryEscape(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return checkPayload{}, 0, err
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return checkPayload{}, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return checkPayload{}, resp.StatusCode, nil
	}
	var payload checkPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return checkPayload{}, 0, fmt.Errorf("decode check response: %w", err)
	}
	return payload, resp.StatusCode, nil
}
