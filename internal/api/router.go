package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/alert"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/audience"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/audit"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/auth"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/bus"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/config"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/database"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/match"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/metrics"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/provider"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/ratelimit"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/repository"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/service"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/suspicion"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/webhook"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/ws"
)

// image uploads up to 10MB plus multipart overhead
const bodyLimit = 12 * 1024 * 1024

type Dependencies struct {
	Config     *config.Config
	DB         *pgxpool.Pool
	Identities *repository.IdentityRepository
	Alerts     *repository.AlertRepository
	Comparator provider.Comparator
	Bus        bus.Bus
	Tokens     *auth.JWTService
	Registry   *prometheus.Registry
}

type Router struct {
	app           *fiber.App
	logger        *slog.Logger
	deps          *Dependencies
	rateLimiter   *middleware.RateLimiter
	wsHub         *ws.Hub
	webhookWorker *webhook.Worker
	retention     *alert.RetentionWorker
	aggregator    *metrics.Aggregator
	cancel        context.CancelFunc
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "CampusGuard API",
		BodyLimit:    bodyLimit,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() error {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Swagger documentation (no auth required)
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Health check endpoints (no auth required)
	healthHandler := handler.NewHealthHandler(r.readinessChecks())
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	// Only configure authenticated routes if dependencies were provided
	if r.deps == nil {
		return nil
	}

	var reg prometheus.Registerer
	if r.deps.Registry != nil {
		reg = r.deps.Registry
		r.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(r.deps.Registry, promhttp.HandlerOpts{})))
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	cfg := r.deps.Config
	m := metrics.New(reg)
	auditLogger := audit.NewSlogLogger(r.logger)
	resolver := audience.NewResolver(r.logger)

	// WebSocket hub fed by the alert bus
	r.wsHub = ws.NewHub()
	go r.wsHub.Run(ctx)
	if err := r.deps.Bus.Subscribe(ctx, alert.PushToHub(r.wsHub)); err != nil {
		return fmt.Errorf("subscribe hub to alert bus: %w", err)
	}

	// Webhook delivery and retry worker
	webhookService := webhook.NewService(r.deps.DB, r.logger)
	r.webhookWorker = webhook.NewWorker(r.deps.DB, webhookService, r.logger)
	go r.webhookWorker.Run(ctx)

	// Alert pipeline
	notifier := alert.NewNotifier(r.deps.Identities, resolver, r.deps.Bus, webhookService, m, r.logger)
	analyzer := suspicion.NewAnalyzer(cfg.SuspicionWindow, cfg.SuspicionThreshold)
	dispatcher := alert.NewDispatcher(r.deps.Identities, r.deps.Alerts, notifier, analyzer, auditLogger, m, r.logger)

	verificationService := service.NewVerificationService(
		r.deps.Identities,
		r.deps.Comparator,
		match.NewEvaluator(cfg.MatchThreshold),
		dispatcher,
		auditLogger,
		m,
		r.logger,
	).WithPusher(r.wsHub)
	alertService := service.NewAlertService(r.deps.Alerts, r.deps.Identities, dispatcher, notifier, resolver, r.logger).
		WithFeedLimits(cfg.FeedLimit, cfg.FeedScanLimit)
	identityService := service.NewIdentityService(r.deps.Identities, analyzer, auditLogger, r.logger)

	// Background maintenance
	throttle := ratelimit.NewRateLimiter(r.deps.DB, cfg.VerifyRateWindow)
	r.retention = alert.NewRetentionWorker(r.deps.Identities, cfg.Retention(), m, r.logger, cfg.RetentionInterval).
		WithSweeper(throttle)
	go r.retention.Start(ctx)

	r.aggregator = metrics.NewAggregator(r.deps.Identities, m, cfg.SuspicionWindow, r.logger, 0)
	go r.aggregator.Start(ctx)

	// API v1 group with authentication
	v1 := r.app.Group("/v1")
	v1.Use(middleware.Auth(middleware.AuthDependencies{
		Tokens: r.deps.Tokens,
		Logger: r.logger,
	}))

	// Rate limiting (per identity) - must come after auth to have identity context
	r.rateLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Max:    cfg.RateLimitMax,
		Window: cfg.RateLimitWindow,
		Skip: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodPost && c.Path() == "/v1/alerts/sos"
		},
	})
	v1.Use(r.rateLimiter.Handler())

	staff := middleware.RequireRole(domain.RoleAdmin, domain.RoleSecurity)
	admin := middleware.RequireRole(domain.RoleAdmin)
	verifyThrottle := middleware.Throttle(throttle, "verify", cfg.VerifyRateLimit, int(cfg.VerifyRateWindow.Seconds()), r.logger)

	// Identity routes. Static paths are registered before /identities/:id.
	identitiesHandler := handler.NewIdentitiesHandler(identityService)
	v1.Get("/identities/me", identitiesHandler.Me)
	v1.Patch("/identities/me", identitiesHandler.UpdateMe)
	v1.Get("/identities/staff", identitiesHandler.Staff)
	v1.Get("/identities/:id/attempts", staff, identitiesHandler.Attempts)

	// Verification routes
	verificationHandler := handler.NewVerificationHandler(verificationService)
	v1.Put("/identities/me/reference", verificationHandler.Enroll)
	v1.Post("/verifications", verifyThrottle, verificationHandler.VerifySelf)
	v1.Post("/verifications/scan", staff, verifyThrottle, verificationHandler.VerifyScan)

	// Alert routes. Static paths are registered before /alerts/:id.
	alertsHandler := handler.NewAlertsHandler(alertService)
	v1.Get("/alerts", alertsHandler.Feed)
	v1.Post("/alerts", staff, alertsHandler.Broadcast)
	v1.Post("/alerts/sos", middleware.RequireRole(domain.RoleMember), alertsHandler.SOS)
	v1.Get("/alerts/all", admin, alertsHandler.List)
	v1.Get("/alerts/escalations", admin, alertsHandler.Escalations)
	v1.Get("/alerts/targets", admin, alertsHandler.Targets)
	v1.Post("/alerts/preview", admin, alertsHandler.Preview)
	v1.Get("/alerts/:id", alertsHandler.Get)

	// WebSocket endpoint
	v1.Get("/ws", ws.UpgradeMiddleware(), ws.Handler(r.wsHub))

	// Admin routes
	adminGroup := v1.Group("/admin", admin)
	r.setupAdminRoutes(adminGroup, webhookService)

	return nil
}

func (r *Router) setupAdminRoutes(adminGroup fiber.Router, webhookService *webhook.Service) {
	webhooksHandler := handler.NewWebhooksHandler(webhookService, r.logger)

	// Webhooks routes
	adminGroup.Get("/webhooks", webhooksHandler.List)
	adminGroup.Post("/webhooks", webhooksHandler.Create)
	adminGroup.Delete("/webhooks/:id", webhooksHandler.Delete)
}

func (r *Router) readinessChecks() map[string]handler.ReadinessCheck {
	checks := map[string]handler.ReadinessCheck{}
	if r.deps == nil {
		return checks
	}

	if r.deps.DB != nil {
		db := r.deps.DB
		checks["database"] = func(ctx context.Context) error {
			return database.HealthCheck(ctx, db)
		}
	}
	if p, ok := r.deps.Bus.(database.Pinger); ok {
		checks["bus"] = p.Ping
	}

	return checks
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Hub() *ws.Hub {
	return r.wsHub
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	// Stop hub, webhook worker, retention worker and aggregator
	if r.cancel != nil {
		r.cancel()
	}

	// Stop rate limiter cleanup goroutine
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.Shutdown()
}
