// Package main is the entrypoint for the Keymint API server.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/keymint/keymint/internal/auth"
	"github.com/keymint/keymint/internal/config"
	"github.com/keymint/keymint/internal/handler"
	"github.com/keymint/keymint/internal/middleware"
	"github.com/keymint/keymint/internal/repository"
	"github.com/keymint/keymint/internal/server"
	"github.com/keymint/keymint/internal/service"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	if cfg.HasInsecureSecret() {
		if cfg.IsProduction() {
			logger.Error("JWT_SECRET must be set in production")
			os.Exit(1)
		}
		logger.Warn("using insecure placeholder JWT secret; set JWT_SECRET")
	}

	// Initialize database
	repo, err := repository.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	// Initialize services
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	lifecycle := service.NewLifecycle(repo, logger)

	// Initialize handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(repo)
	userHandler := handler.NewUserHandler(logger, lifecycle)
	adminHandler := handler.NewAdminHandler(logger, repo, tokens, lifecycle)

	// Setup router
	r := setupRouter(h, healthHandler, userHandler, adminHandler, tokens, cfg, logger)

	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	h *handler.Handler,
	healthHandler *handler.HealthHandler,
	userHandler *handler.UserHandler,
	adminHandler *handler.AdminHandler,
	tokens *auth.Tokens,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))

	// Health endpoints (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)

	// Root info endpoint
	r.Get("/", h.Hello)

	// Public endpoints
	r.Post("/user/create", userHandler.Create)
	r.Post("/cekapi", userHandler.CheckKey)

	// Unauthenticated debug listing. Off by default; it exposes every key.
	if cfg.DebugEndpoints {
		logger.Warn("debug endpoint /list is enabled")
		r.Get("/list", userHandler.ListKeys)
	}

	// Auth middleware configuration
	authCfg := middleware.AuthConfig{
		Logger:   logger,
		Verifier: tokens,
	}

	r.Route("/admin", func(r chi.Router) {
		// Registration and login issue the token; everything else needs one.
		r.Post("/register", adminHandler.Register)
		r.Post("/login", adminHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authCfg))

			r.Get("/users", adminHandler.ListUsers)
			r.Get("/apikeys", adminHandler.ListAPIKeys)
			r.Get("/status", adminHandler.Status)
			r.Post("/apikeys/{id}/toggle", adminHandler.ToggleKey)
			r.Put("/users/{id}", adminHandler.UpdateUser)
			r.Delete("/users/{id}", adminHandler.DeleteUser)
			r.Delete("/apikeys/{id}", adminHandler.DeleteKey)
		})
	})

	// Optional static admin pages
	if cfg.StaticDir != "" {
		serveStatic(r, cfg.StaticDir)
	}

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

// serveStatic mounts a file server for the admin pages under /static.
func serveStatic(r chi.Router, dir string) {
	fs := http.StripPrefix("/static", http.FileServer(http.Dir(dir)))
	r.Get("/static/*", func(w http.ResponseWriter, req *http.Request) {
		if strings.Contains(req.URL.Path, "..") {
			http.NotFound(w, req)
			return
		}
		fs.ServeHTTP(w, req)
	})
}
