package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/HammerMeetNail/birthdaysurprise/internal/config"
	"github.com/HammerMeetNail/birthdaysurprise/internal/database"
	"github.com/HammerMeetNail/birthdaysurprise/internal/handlers"
	"github.com/HammerMeetNail/birthdaysurprise/internal/logging"
	"github.com/HammerMeetNail/birthdaysurprise/internal/middleware"
	"github.com/HammerMeetNail/birthdaysurprise/internal/paramstore"
	"github.com/HammerMeetNail/birthdaysurprise/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logging.Debug("No .env file found, using environment variables")
	}
	if err := run(); err != nil {
		logging.Error("Application error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

func run() error {
	logger := logging.New()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.Server.Debug {
		logger.SetLevel(logging.LevelDebug)
		logging.SetDefaultLevel(logging.LevelDebug)
		logger.Debug("Debug logging enabled", map[string]interface{}{
			"env": cfg.Server.Environment,
		})
	}

	logger.Info("Starting birthday surprise server...")

	store, dbHealth, closeStore, err := openMessageStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	logger.Info("Connecting to Redis", map[string]interface{}{
		"addr": cfg.Redis.Addr(),
	})
	redisDB, err := database.NewRedisDB(database.RedisOptions{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisDB.Close() }()
	logger.Info("Connected to Redis")

	// Initialize services
	sources := buildConfigSources(context.Background(), cfg, logger)
	configService := services.NewSurpriseConfigService(sources, cfg.Surprise.CacheTTL, logger)
	emailService := services.NewEmailService(&cfg.Email, logger)
	messageService := services.NewMessageService(store, emailService, configService, logger)
	visitorService := services.NewVisitorService(services.NewRedisFlagStore(redisDB.Client), configService, cfg.Surprise.VisitorTTL)

	asyncCtx, asyncCancel := context.WithCancel(context.Background())
	defer asyncCancel()
	messageService.SetAsyncContext(asyncCtx)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(dbHealth, redisDB)
	configHandler := handlers.NewConfigHandler(configService)
	messageHandler := handlers.NewMessageHandler(messageService)
	visitorHandler := handlers.NewVisitorHandler(visitorService)
	ogImageHandler := handlers.NewOGImageHandler(configService)
	pageHandler, err := handlers.NewPageHandler(cfg.Server.TemplateDir, configService)
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}

	// Initialize middleware
	requestLogger := middleware.NewRequestLogger(logger)
	messagesLimit := resolveMessagesRateLimit(cfg, logger, os.LookupEnv)
	messagesRateLimiter := middleware.NewRateLimiter(redisDB.Client, messagesLimit, time.Hour, "ratelimit:messages:", middleware.GetClientIP, true)

	mux := http.NewServeMux()

	// Health endpoints (no rate limit)
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /ready", healthHandler.Ready)
	mux.HandleFunc("GET /live", healthHandler.Live)

	// Surprise API
	mux.HandleFunc("GET /api/config", configHandler.Get)
	mux.Handle("POST /api/messages", messagesRateLimiter.Middleware(http.HandlerFunc(messageHandler.Create)))
	mux.HandleFunc("GET /api/visitors/{id}/countdown", visitorHandler.GetCountdown)
	mux.HandleFunc("PUT /api/visitors/{id}/countdown", visitorHandler.MarkCountdown)
	mux.HandleFunc("DELETE /api/visitors/{id}/countdown", visitorHandler.ResetCountdown)

	// Static files
	fs := http.FileServer(http.Dir(cfg.Server.StaticDir))
	mux.Handle("GET /static/", http.StripPrefix("/static/", fs))

	// OpenGraph image (public)
	mux.HandleFunc("GET /og/default.png", ogImageHandler.Default)

	mux.HandleFunc("GET /{$}", pageHandler.Index)
	mux.HandleFunc("GET /", pageHandler.NotFound)

	var handler http.Handler = mux
	handler = requestLogger.Apply(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Server is shutting down...")
		asyncCancel()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Could not gracefully shutdown the server", map[string]interface{}{
				"error": err.Error(),
			})
		}
		close(done)
	}()

	logger.Info("Server listening", map[string]interface{}{
		"addr": addr,
	})
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info("Server stopped")
	return nil
}

// openMessageStore connects the configured database and returns the store
// along with its health check and a close func.
func openMessageStore(cfg *config.Config, logger *logging.Logger) (services.MessageStore, handlers.HealthChecker, func(), error) {
	if cfg.Database.UsesSQLite() {
		logger.Info("Opening SQLite database", map[string]interface{}{
			"path": cfg.Database.SQLitePath,
		})
		db, err := database.NewSQLiteDB(cfg.Database.SQLitePath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("opening sqlite: %w", err)
		}
		return services.NewSQLiteMessageStore(db.DB), db, func() { _ = db.Close() }, nil
	}

	logger.Info("Connecting to PostgreSQL", map[string]interface{}{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
	})
	db, err := database.NewPostgresDB(cfg.Database.DSN(), database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	logger.Info("Connected to PostgreSQL")

	logger.Info("Running database migrations...")
	migrator, err := database.NewMigrator(cfg.Database.DSN(), "migrations")
	if err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("creating migrator: %w", err)
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		db.Close()
		return nil, nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	_ = migrator.Close()
	logger.Info("Migrations completed")

	return services.NewPostgresMessageStore(services.NewPoolAdapter(db.Pool)), db, db.Close, nil
}

var newParamClient = func(ctx context.Context, region string) (paramstore.Getter, error) {
	return paramstore.NewFromEnv(ctx, region)
}

// buildConfigSources orders the surprise document sources: SSM first when a
// parameter is configured, then the local file.
func buildConfigSources(ctx context.Context, cfg *config.Config, logger *logging.Logger) []services.SurpriseConfigSource {
	var sources []services.SurpriseConfigSource
	if cfg.Surprise.SSMParameter != "" {
		params, err := newParamClient(ctx, cfg.Surprise.AWSRegion)
		if err != nil {
			logger.Warn("SSM parameter store unavailable; skipping", map[string]interface{}{
				"parameter": cfg.Surprise.SSMParameter,
				"error":     err.Error(),
			})
		} else {
			sources = append(sources, services.ParamConfigSource{Params: params, Parameter: cfg.Surprise.SSMParameter})
		}
	}
	if cfg.Surprise.DocumentPath != "" {
		sources = append(sources, services.FileConfigSource{Path: cfg.Surprise.DocumentPath})
	}
	return sources
}

func resolveMessagesRateLimit(cfg *config.Config, logger *logging.Logger, lookupEnv func(string) (string, bool)) int64 {
	limit := cfg.RateLimit.MessagesPerHour
	if limit <= 0 {
		limit = 20
	}
	if _, set := lookupEnv("MESSAGES_RATE_LIMIT"); !set && cfg.Server.Environment == "development" {
		limit = 200
		logger.Info("Using development messages rate limit", map[string]interface{}{"limit": limit})
	}
	if v, ok := lookupEnv("MESSAGES_RATE_LIMIT"); ok && v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err != nil || parsed <= 0 {
			logger.Warn("Invalid MESSAGES_RATE_LIMIT; using default", map[string]interface{}{
				"value": v,
				"limit": limit,
			})
		}
	}
	return limit
}
