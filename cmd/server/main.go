package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	h "github.com/gorilla/handlers"
	"github.com/rs/zerolog"

	"github.com/doculens/doculens-api/internal/config"
	"github.com/doculens/doculens-api/internal/handlers"
	"github.com/doculens/doculens-api/internal/middleware"
	"github.com/doculens/doculens-api/internal/migration"
	"github.com/doculens/doculens-api/internal/repository"
	"github.com/doculens/doculens-api/internal/routes"
	"github.com/doculens/doculens-api/internal/sharing"
	"github.com/doculens/doculens-api/internal/webhook"

	_ "github.com/lib/pq" // PostgreSQL driver
)

type application struct {
	config *config.Config
	db     *sql.DB
	logger zerolog.Logger
}

func main() {
	// Set up structured, level-based logging.
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	logger := zerolog.New(consoleWriter).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.SetFlags(0)
	log.SetOutput(logger)

	// Load configuration.
	cfg := config.Load()

	// Initialize database connection.
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ping database")
	}

	// Run database migrations.
	migration.RunMigrations(cfg.DatabaseURL, logger)

	app := &application{
		config: cfg,
		db:     db,
		logger: logger,
	}

	// Initialize the HTTP router and middleware.
	router := app.initRouter(logger)
	loggedRouter := middleware.LoggingMiddleware(app.logger)(router)
	corsHandler := h.CORS(
		h.AllowedOrigins([]string{cfg.AllowedOrigin}),
		h.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		h.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		h.AllowCredentials(),
	)(loggedRouter)

	// Start the HTTP server and handle graceful shutdown.
	app.startServer(corsHandler, logger)

	logger.Info().Msg("Application terminated.")
}

// initRouter sets up all HTTP handlers and returns the router.
func (app *application) initRouter(logger zerolog.Logger) http.Handler {
	// Repositories
	userRepo := repository.NewUserRepository(app.db)
	uploadRepo := repository.NewUploadRepository(app.db)
	invitationRepo := repository.NewInvitationRepository(app.db)
	linkRepo := repository.NewShareLinkRepository(app.db)
	webhookRepo := repository.NewWebhookRepository(app.db)

	// Webhook delivery engine and the sharing core.
	engineOpts := []webhook.Option{webhook.WithTimeout(app.config.Webhook.Timeout)}
	if app.config.Webhook.UserAgent != "" {
		engineOpts = append(engineOpts, webhook.WithUserAgent(app.config.Webhook.UserAgent))
	}
	engine := webhook.NewEngine(webhookRepo, logger, engineOpts...)
	sharingService := sharing.NewService(invitationRepo, linkRepo, uploadRepo, engine, logger)

	// Handlers
	authHandler := handlers.NewAuthHandler(userRepo, app.config.JWTSecret, logger)
	uploadHandler := handlers.NewUploadHandler(uploadRepo, engine, logger)
	invitationHandler := handlers.NewInvitationHandler(sharingService, logger)
	linkHandler := handlers.NewShareLinkHandler(sharingService, logger)
	webhookHandler := handlers.NewWebhookHandler(engine, webhookRepo, logger)

	return routes.NewRouter(authHandler, uploadHandler, invitationHandler, linkHandler, webhookHandler)
}

// startServer launches the HTTP server and handles graceful shutdown.
func (app *application) startServer(handler http.Handler, logger zerolog.Logger) {
	server := &http.Server{
		Addr:    ":" + app.config.ServerPort,
		Handler: handler,
	}

	// Channel to listen for server errors
	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Wait for an interrupt signal or a server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info().Msgf("Received signal: %s. Shutting down...", sig)
	case err := <-serverErrCh:
		logger.Error().Err(err).Msg("Server error occurred")
	}

	// Gracefully shut down the HTTP server.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		logger.Info().Msg("HTTP server shutdown complete.")
	}
}
