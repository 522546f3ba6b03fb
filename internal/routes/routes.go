package routes

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/passkeep/authsvc/internal/auth"
	"github.com/passkeep/authsvc/internal/challenge"
	"github.com/passkeep/authsvc/internal/config"
	"github.com/passkeep/authsvc/internal/identity"
	"github.com/passkeep/authsvc/internal/metrics"
	"github.com/passkeep/authsvc/internal/middleware"
	"github.com/passkeep/authsvc/internal/notification"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger

	// Registry receives the service metrics and backs GET /metrics. Optional.
	Registry *prometheus.Registry
	// Notifier overrides the log-based delivery of codes and links. Optional.
	Notifier notification.Notifier
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though config also checks.
	if !d.Cfg.IsDevelopment() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	var observer auth.Observer
	if d.Registry != nil {
		m := metrics.New(d.Registry)
		app.Use(m.Middleware())
		app.Get("/metrics", metrics.Handler(d.Registry))
		observer = m
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Services and handlers
	var identityRepo identity.Repository
	if d.DB != nil {
		identityRepo = identity.NewPostgresRepository(d.DB)
	} else {
		identityRepo = identity.NewMemoryRepository()
	}
	identitySvc := identity.NewService(identityRepo, identity.NewBcryptHasher(d.Cfg.BcryptCost))

	var challengeStore challenge.Store
	if d.Cache != nil {
		challengeStore = challenge.NewRedisStore(d.Cache, "")
	} else {
		challengeStore = challenge.NewMemoryStore()
	}
	challenges := challenge.NewIssuer(challengeStore, d.Cfg.OTPTTL, d.Cfg.ResetTokenTTL)

	notifier := d.Notifier
	if notifier == nil {
		notifier = notification.NewLoggerNotifier(d.Logger)
	}

	tokens := auth.NewTokenIssuer([]byte(d.Cfg.JWTSecret), d.Cfg.SessionTTL)
	authSvc := auth.NewService(identitySvc, challenges, tokens, notifier, auth.Options{
		ResetBaseURL: d.Cfg.PublicBaseURL,
		Observer:     observer,
	})

	// API routes
	api := app.Group("/api")

	// Public routes
	RegisterAuthRoutes(api, auth.NewHandler(authSvc), d.Cache, d.Cfg.LoginRateLimit)

	// Protected routes
	RegisterIdentityRoutes(api, identity.NewHandler(identitySvc), middleware.JWTAuth(tokens))

	return nil
}
