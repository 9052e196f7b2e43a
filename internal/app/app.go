package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aliuyar1234/formforge/internal/ai"
	"github.com/aliuyar1234/formforge/internal/cache"
	"github.com/aliuyar1234/formforge/internal/config"
	"github.com/aliuyar1234/formforge/internal/db"
	"github.com/aliuyar1234/formforge/internal/realtime"
	"github.com/aliuyar1234/formforge/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Deps are the shared backends handed to the router.
type Deps struct {
	Pool      *pgxpool.Pool
	Hub       *realtime.Hub
	FormCache *cache.FormCache
	Uploads   *storage.S3
	LLM       ai.Completer
}

// App holds the application state
type App struct {
	Config *config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Router http.Handler

	server *http.Server
}

// New creates and initializes a new application instance
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	setupLogger(cfg.LogLevel)

	log.Info().Msg("Initializing FormForge application")
	log.Info().Interface("config", cfg.RedactedValues()).Msg("Configuration loaded")

	log.Info().Msg("Connecting to database...")
	pool, err := db.Connect(ctx, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info().Msg("Database connection established")

	if cfg.IsDev() {
		log.Info().Msg("Development mode: running migrations automatically")
		if err := db.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	} else {
		log.Info().Msg("Production mode: migrations must be run manually")
	}

	app := &App{Config: cfg, DB: pool}

	var bus realtime.Bus
	if cfg.RedisEnabled() {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.Redis = rdb
		bus = realtime.NewRedisBus(rdb)
	} else {
		log.Info().Msg("Redis not configured: public form cache disabled, live updates are instance-local")
	}

	deps := Deps{
		Pool:      pool,
		Hub:       realtime.NewHub(bus),
		FormCache: cache.NewFormCache(app.Redis, time.Duration(cfg.PublicFormCacheTTLS)*time.Second),
		LLM:       ai.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel),
	}

	if cfg.StorageEnabled() {
		uploads, err := storage.NewS3(ctx, storage.Config{
			Bucket:         cfg.S3Bucket,
			Region:         cfg.S3Region,
			PresignMinutes: cfg.S3PresignMinutes,
		})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to initialize upload storage: %w", err)
		}
		deps.Uploads = uploads
		log.Info().Str("bucket", cfg.S3Bucket).Msg("Upload storage configured")
	}

	app.Router = NewRouter(cfg, deps)

	log.Info().Msg("Application initialized successfully")
	return app, nil
}

// Start starts the HTTP server
func (a *App) Start() error {
	addr := a.Config.HTTPAddr
	log.Info().Str("addr", addr).Msg("Starting HTTP server")

	// No WriteTimeout: live response websockets are long-lived.
	a.server = &http.Server{
		Addr:              addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return a.server.ListenAndServe()
}

// Shutdown stops accepting requests, waits for in-flight ones and closes
// the backends.
func (a *App) Shutdown(ctx context.Context) error {
	var err error
	if a.server != nil {
		log.Info().Msg("Stopping HTTP server")
		err = a.server.Shutdown(ctx)
	}
	a.Close()
	return err
}

// Close releases the database and redis connections
func (a *App) Close() {
	log.Info().Msg("Shutting down application")
	if a.Redis != nil {
		log.Info().Msg("Closing redis connection")
		if err := a.Redis.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close redis connection")
		}
	}
	if a.DB != nil {
		log.Info().Msg("Closing database connection")
		a.DB.Close()
	}
}

// setupLogger configures the global logger
func setupLogger(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Debug().Str("level", level).Msg("Logger configured")
}
