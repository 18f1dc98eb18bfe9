package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/portal-hospitalario/backend/internal/blob"
	"github.com/portal-hospitalario/backend/internal/config"
	"github.com/portal-hospitalario/backend/internal/database"
	"github.com/portal-hospitalario/backend/internal/handlers"
	"github.com/portal-hospitalario/backend/internal/logging"
	"github.com/portal-hospitalario/backend/internal/middleware"
	"github.com/portal-hospitalario/backend/internal/policy"
	"github.com/portal-hospitalario/backend/internal/routes"
	"github.com/portal-hospitalario/backend/internal/seed"
	"github.com/portal-hospitalario/backend/internal/services"
	"github.com/portal-hospitalario/backend/internal/store/gormstore"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	stdout := logging.Setup(cfg.LogLevel)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}
	if cfg.OIDCAudience == "" {
		slog.Warn("OIDC_AUDIENCE is empty, ID token audience is not checked")
	}

	ctx := context.Background()

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch) and 30-day cleanup
	stopDBLogging := logging.AttachDatabase(stdout, db)

	st := gormstore.New(db)

	if cfg.SeedFile != "" {
		file, err := seed.Load(cfg.SeedFile)
		if err != nil {
			slog.Error("failed to load seed file", "path", cfg.SeedFile, "error", err)
			os.Exit(1)
		}
		res, err := seed.Apply(ctx, st.Users, file)
		if err != nil {
			slog.Error("seeding failed", "error", err)
			os.Exit(1)
		}
		slog.Info("accounts seeded", "created", res.Created, "updated", res.Updated)
	}

	blobs, err := blob.New(ctx, blob.Options{
		Bucket:      cfg.BlobBucket,
		Region:      cfg.BlobRegion,
		EndpointURL: cfg.BlobEndpointURL,
		Expiry:      cfg.BlobURLExpiry,
	})
	if err != nil {
		slog.Error("attachment storage init failed", "error", err)
		os.Exit(1)
	}
	if cfg.BlobBucket == "" {
		slog.Warn("BLOB_BUCKET not set, attachment uploads are disabled")
	}

	// Services
	pol := policy.New(cfg.ElectromedicinaEmail, cfg.ApproverEmails, cfg.AllowTicketReopen)
	auditService := services.NewAuditService(st.Audit, pol)
	identityService := services.NewIdentityService(st.Users, auditService,
		services.NewOIDCVerifier(cfg.OIDCJWKSURL, cfg.OIDCIssuer, cfg.OIDCAudience), cfg)
	userService := services.NewUserService(st.Users, auditService, pol)
	ticketService := services.NewTicketService(st.Tickets, auditService, pol)
	suggestionService := services.NewSuggestionService(ticketService, cfg)
	fallaService := services.NewFallaService(st.Fallas, st.Users, auditService, pol)
	approvalService := services.NewApprovalService(st.Approvals, auditService, pol, cfg.ApproverEmails)
	inventoryService := services.NewInventoryService(st.Inventory, auditService, pol)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	routes.Setup(app, cfg, identityService, routes.Handlers{
		Auth:      handlers.NewAuthHandler(identityService),
		Health:    handlers.NewHealthHandler(func() error { return database.Ping(db) }),
		Tickets:   handlers.NewTicketHandler(ticketService, suggestionService, blobs),
		Fallas:    handlers.NewFallaHandler(fallaService, blobs),
		Approvals: handlers.NewApprovalHandler(approvalService),
		Inventory: handlers.NewInventoryHandler(inventoryService),
		Admin:     handlers.NewAdminHandler(auditService, userService),
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	stopDBLogging()
	sentry.Flush(2 * time.Second)

	// Close database connections
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
