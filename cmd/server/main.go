package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/teamnotes-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/teamnotes-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/teamnotes-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/teamnotes-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/teamnotes-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/teamnotes-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/teamnotes-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/teamnotes-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/teamnotes-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// Error log file handler (ERROR+ async batch)
	fileLogHandler, err := logging.NewFileHandler(cfg.LogDir, "errors.log", slog.LevelError)
	if err != nil {
		slog.Error("failed to set up error log file", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		fileLogHandler,
	)))

	// Log file retention
	cleanupDone := make(chan struct{})
	logging.StartCleanup(cfg.LogDir, cfg.LogRetentionDays, cleanupDone)

	// Services
	userRepo := repository.NewGormUserRepository(database.DB)
	noteRepo := repository.NewGormNoteRepository(database.DB)
	hasher := services.NewBcryptHasher(cfg.BcryptCost)
	userService := services.NewUserService(userRepo, noteRepo, hasher, slog.Default())

	// Handlers
	userHandler := handlers.NewUserHandler(userService)
	healthHandler := handlers.NewHealthHandler()

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
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

	// Access log to file, alongside stdout
	requestLog, err := logging.OpenRequestLog(cfg.LogDir)
	if err != nil {
		slog.Error("failed to open request log", "error", err)
		os.Exit(1)
	}
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time}\t${status}\t${latency}\t${ip}\t${method}\t${path}\n",
		Output: requestLog,
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))

	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, userHandler, healthHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(cleanupDone)
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	fileLogHandler.Stop()
	_ = requestLog.Close()

	// Close database connections
	if sqlDB, err := database.DB.DB(); err == nil {
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

	return c.Status(code).JSON(dto.ErrorResponse{
		Error:   true,
		Message: message,
	})
}
