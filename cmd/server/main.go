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
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/stanstork/console-api/internal/authz"
	"github.com/stanstork/console-api/internal/config"
	"github.com/stanstork/console-api/internal/handlers"
	"github.com/stanstork/console-api/internal/metrics"
	"github.com/stanstork/console-api/internal/middleware"
	"github.com/stanstork/console-api/internal/migration"
	"github.com/stanstork/console-api/internal/notification"
	"github.com/stanstork/console-api/internal/preferences"
	"github.com/stanstork/console-api/internal/realtime"
	"github.com/stanstork/console-api/internal/repository"
	"github.com/stanstork/console-api/internal/routes"
	"github.com/stanstork/console-api/internal/session"
	"github.com/stanstork/console-api/internal/supabase"

	_ "github.com/lib/pq" // PostgreSQL driver
)

type application struct {
	config        *config.Config
	db            *sql.DB
	logger        zerolog.Logger
	remote        supabase.Client
	sessions      *session.Store
	preferences   *preferences.Store
	notifications notification.Service
	hub           *realtime.Hub
	bridge        *realtime.RedisBridge
	metrics       *metrics.Metrics
}

func main() {
	// Set up structured, level-based logging.
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	logger := zerolog.New(consoleWriter).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.SetFlags(0)
	log.SetOutput(logger)

	gooseAdapter := migration.NewGooseAdapter(logger)
	goose.SetLogger(gooseAdapter)

	// Load configuration.
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &application{
		config:  cfg,
		logger:  logger,
		hub:     realtime.NewHub(logger),
		metrics: metrics.New("console"),
	}

	// Notifications are persisted only when a database is configured.
	var notificationRepo repository.NotificationRepository
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to the database")
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Failed to ping database")
		}
		if err := migration.RunMigrations(cfg.DatabaseURL, logger); err != nil {
			logger.Fatal().Err(err).Msg("Failed to run migrations")
		}
		app.db = db
		notificationRepo = repository.NewNotificationRepository(db)
	} else {
		logger.Warn().Msg("DATABASE_URL not set, notifications use the in-memory sample set")
	}

	remote, err := supabase.NewHTTPClient(cfg.Supabase, &http.Client{Timeout: 30 * time.Second}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to configure Supabase client")
	}
	app.remote = remote

	notifiers := []notification.Notifier{realtime.NewHubNotifier(app.hub)}
	if cfg.Redis.URL != "" {
		bridge, err := realtime.NewRedisBridge(ctx, cfg.Redis.URL, cfg.Redis.Channel, app.hub, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		app.bridge = bridge
		notifiers = append(notifiers, bridge)
		go func() {
			if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("Redis bridge stopped")
			}
		}()
	}

	app.sessions = session.NewStore(remote, session.Options{
		AuthRedirectURL:       cfg.Supabase.AuthRedirectURL,
		CallbackRedirectDelay: cfg.CallbackRedirectDelay,
	}, logger)
	app.preferences = preferences.NewStore()
	app.notifications = notification.NewService(notificationRepo, logger, notifiers...)
	defer app.close()

	// Initialize the HTTP router and middleware.
	router := app.initRouter(logger)
	loggedRouter := middleware.LoggingMiddleware(app.logger)(router)
	corsHandler := h.CORS(
		h.AllowedOrigins(cfg.AllowedOrigins),
		h.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		h.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		h.ExposedHeaders([]string{"Refresh", middleware.RequestIDHeader}),
		h.AllowCredentials(),
	)(loggedRouter)

	// Start the HTTP server and handle graceful shutdown.
	app.startServer(ctx, corsHandler, logger)

	logger.Info().Msg("Application terminated.")
}

// initRouter sets up all HTTP handlers and returns the router.
func (app *application) initRouter(logger zerolog.Logger) http.Handler {
	tokens := authz.NewTokens(app.config.JWTSecret)

	// Handlers
	authHandler := handlers.NewAuthHandler(app.sessions, tokens, logger)
	notificationHandler := handlers.NewNotificationHandler(app.notifications, logger)
	applicationHandler := handlers.NewApplicationHandler(app.remote, app.preferences, logger)
	preferencesHandler := handlers.NewPreferencesHandler(app.preferences, logger)
	wsHandler := handlers.NewWSHandler(app.hub, app.config.AllowedOrigins, logger)

	gate := authz.RequireSession(tokens, app.sessions)

	return routes.NewRouter(authHandler, notificationHandler, applicationHandler, preferencesHandler, wsHandler, gate, app.metrics)
}

// startServer launches the HTTP server and blocks until ctx is cancelled or
// the server fails, then shuts it down gracefully.
func (app *application) startServer(ctx context.Context, handler http.Handler, logger zerolog.Logger) {
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

	select {
	case <-ctx.Done():
		logger.Info().Msg("Received shutdown signal. Shutting down...")
	case err := <-serverErrCh:
		logger.Error().Err(err).Msg("Server error occurred")
	}

	// Gracefully shut down the HTTP server.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		logger.Info().Msg("HTTP server shutdown complete.")
	}
}

// close stops the stores' queues and the Redis bridge.
func (app *application) close() {
	app.notifications.Close()
	app.preferences.Close()
	app.sessions.Close()
	if app.bridge != nil {
		if err := app.bridge.Close(); err != nil {
			app.logger.Error().Err(err).Msg("Failed to close Redis bridge")
		}
	}
}
