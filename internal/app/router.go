package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ridepass/ridepass/internal/auth"
	"github.com/ridepass/ridepass/internal/catalog"
	"github.com/ridepass/ridepass/internal/observability"
	"github.com/ridepass/ridepass/internal/rbac"
	"github.com/ridepass/ridepass/internal/roles"
	"github.com/ridepass/ridepass/internal/users"
	"github.com/ridepass/ridepass/jobs"
)

// PermManageUsers gates the permission administration surface.
const PermManageUsers = "PERM_MANAGE_USERS"

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	AuthHandler    *auth.Handler
	CheckHandler   *rbac.Handler
	CatalogHandler *catalog.Handler
	RolesHandler   *roles.Handler
	UsersHandler   *users.Handler
	JobHandler     *jobs.Handler
	RBACMiddleware rbac.Middleware
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with RidePass defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/api/auth", func(api chi.Router) {
		params.AuthHandler.MountRoutes(api)
		params.CheckHandler.MountRoutes(api)
	})

	r.Route("/api/permissions", func(api chi.Router) {
		api.Use(params.RBACMiddleware.RequirePermission(PermManageUsers))
		api.Route("/catalog", params.CatalogHandler.MountRoutes)
		api.Route("/roles", params.RolesHandler.MountRoutes)
		api.Route("/users", params.UsersHandler.MountRoutes)
	})

	if params.JobHandler != nil {
		r.Route("/api/jobs", params.JobHandler.MountRoutes)
	}

	return r
}
