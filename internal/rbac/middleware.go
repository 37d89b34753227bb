package rbac

import (
	"log/slog"
	"net/http"

	"github.com/ridepass/ridepass/internal/platform/httpx"
)

// Middleware wires authorization guards for the administration surface.
type Middleware struct {
	Sessions   SessionValidator
	Resolver   *Resolver
	Logger     *slog.Logger
	CookieName string
}

func (m Middleware) rawToken(r *http.Request) string {
	cookie, err := r.Cookie(m.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// RequirePermission validates the session and requires the given permission
// code. The validated principal is stored in the request context for
// downstream handlers.
func (m Middleware) RequirePermission(code string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := m.Sessions.Validate(r.Context(), m.rawToken(r))
			if err != nil {
				httpx.RespondError(w, err)
				return
			}
			grants, err := m.Resolver.Resolve(r.Context(), principal)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("resolve grants", slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			if !grants.HasCode(code) {
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}
