package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ridepass/ridepass/internal/app"
	"github.com/ridepass/ridepass/internal/audit"
	"github.com/ridepass/ridepass/internal/auth"
	"github.com/ridepass/ridepass/internal/catalog"
	"github.com/ridepass/ridepass/internal/observability"
	"github.com/ridepass/ridepass/internal/platform/cache"
	"github.com/ridepass/ridepass/internal/platform/db"
	"github.com/ridepass/ridepass/internal/rbac"
	"github.com/ridepass/ridepass/internal/roles"
	"github.com/ridepass/ridepass/internal/users"
	"github.com/ridepass/ridepass/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	// The throttle fails open, so a dead Redis degrades rather than stops
	// the server.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable", slog.Any("error", err))
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, cfg.SessionTTL, logger)
	throttle := auth.NewLoginThrottle(redisClient, cfg.LoginMaxFailures, cfg.LoginFailureTTL, logger)
	authHandler := auth.NewHandler(logger, authService, throttle, auth.CookieConfig{
		Name:   cfg.SessionCookie,
		MaxAge: int(cfg.SessionTTL / time.Second),
		Secure: cfg.IsProduction(),
	})

	grantRepo := rbac.NewGrantRepository(dbpool)
	resolver := rbac.NewResolver(grantRepo)
	evaluator := rbac.NewEvaluator(authService, resolver)
	metrics := observability.NewMetrics()
	checkHandler := rbac.NewHandler(logger, evaluator, metrics, cfg.SessionCookie)
	rbacMiddleware := rbac.Middleware{
		Sessions:   authService,
		Resolver:   resolver,
		Logger:     logger,
		CookieName: cfg.SessionCookie,
	}

	auditService := audit.NewService(audit.NewRepository(dbpool), logger)

	catalogService := catalog.NewService(catalog.NewRepository(dbpool))
	catalogHandler := catalog.NewHandler(logger, catalogService, auditService)

	rolesService := roles.NewService(roles.NewRepository(dbpool))
	rolesHandler := roles.NewHandler(logger, rolesService, auditService)

	usersService := users.NewService(users.NewRepository(dbpool))
	usersHandler := users.NewHandler(logger, usersService, auditService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		AuthHandler:    authHandler,
		CheckHandler:   checkHandler,
		CatalogHandler: catalogHandler,
		RolesHandler:   rolesHandler,
		UsersHandler:   usersHandler,
		JobHandler:     jobHandler,
		RBACMiddleware: rbacMiddleware,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
