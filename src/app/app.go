package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/pondermatic/strategy11-challenge/src/handler"
	"github.com/pondermatic/strategy11-challenge/src/metrics"
	"github.com/pondermatic/strategy11-challenge/src/repository"
	"github.com/pondermatic/strategy11-challenge/src/service"
	"github.com/rs/zerolog"
	postgresDriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// redisKeyPrefix namespaces every transient in a shared Redis
const redisKeyPrefix = "psc:transient"

// upstreamLatencyBuckets covers a remote API from fast to near the client timeout
var upstreamLatencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

type Application struct {
	config AppConfig
	store  repository.TransientStore

	Events           *service.Dispatcher
	Metrics          *metrics.Manager
	ChallengeService *service.ChallengeService
	Presenter        *service.TablePresenter
	CacheWarmer      *service.CacheWarmer
}

// Option customizes how the application is assembled
type Option func(*options)

type options struct {
	httpClient *http.Client
}

// WithHTTPClient sets the client used to call the challenge API
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

func NewApplication(ctx context.Context, config AppConfig, opts ...Option) (*Application, error) {
	logger := zerolog.Ctx(ctx).With().Str("function", "NewApplication").Logger()

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	app := &Application{config: config}

	if err := app.connectStore(ctx); err != nil {
		app.Shutdown(ctx)
		return nil, err
	}

	validator, err := service.NewSchemaValidator()
	if err != nil {
		app.Shutdown(ctx)
		return nil, err
	}

	nonce, err := service.NewNonceIssuer(*config.NonceSecret, config.NonceTTLDuration())
	if err != nil {
		app.Shutdown(ctx)
		return nil, fmt.Errorf("creation of nonce issuer failed: %w", err)
	}

	app.Events = service.NewDispatcher()
	app.Metrics = metrics.NewManager(metrics.WithHistogramBuckets(upstreamLatencyBuckets))
	app.Metrics.Subscribe(app.Events)

	fetcher := service.NewRemoteFetcher(o.httpClient, *config.ChallengeAPIURL)

	app.ChallengeService = service.NewChallengeService(
		service.ChallengeConfig{
			RouteNamespace: *config.RouteNamespace,
			CacheTTL:       config.CacheTTLDuration(),
		},
		app.store,
		fetcher,
		validator,
		nonce,
		app.Events,
	)
	app.Presenter = service.NewTablePresenter(*config.SiteLocale)

	if interval := config.CacheWarmIntervalDuration(); interval > 0 {
		app.CacheWarmer = service.NewCacheWarmer(app.ChallengeService, service.WarmerConfig{Interval: interval})
	}

	logger.Info().
		Str("backend", *config.CacheBackend).
		Str("cache_key", app.ChallengeService.CacheKey()).
		Str("upstream", fetcher.URL()).
		Msg("Challenge pipeline ready")

	return app, nil
}

// connectStore opens the cache backend named by the configuration
func (app *Application) connectStore(ctx context.Context) error {
	logger := zerolog.Ctx(ctx).With().Str("function", "connectStore").Logger()

	switch repository.Backend(*app.config.CacheBackend) {
	case repository.BackendRedis:
		redisOpts, err := redis.ParseURL(*app.config.RedisAddr)
		if err != nil {
			return fmt.Errorf("failed to parse redis URL: %w", err)
		}

		rdb := redis.NewClient(redisOpts)
		app.store = repository.NewRedisTransientStore(rdb, redisKeyPrefix)

		// Test Redis connection
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connection to redis failed: %w", err)
		}
		logger.Info().Msg("Redis connection established")

	case repository.BackendPostgres:
		database, err := gorm.Open(postgresDriver.Open(*app.config.DSN), &gorm.Config{
			Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		})
		if err != nil {
			return fmt.Errorf("connection to database failed: %w", err)
		}
		app.store = repository.NewDBTransientStore(database)

		// Test database connection
		db, err := database.DB()
		if err != nil {
			return fmt.Errorf("failed to get underlying database connection: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("connection to database failed: %w", err)
		}
		logger.Info().Msg("Database connection established")

		// run migration files
		if err := MigrationUp(*app.config.DSN, *app.config.MigrationPath); err != nil {
			return err
		}

	case repository.BackendMemory:
		logger.Warn().Msg("Using in-memory cache; cached data is lost on restart and not shared between processes")
		app.store = repository.NewMemoryTransientStore()

	default:
		return fmt.Errorf("unknown cache backend %q", *app.config.CacheBackend)
	}

	return nil
}

// Backend names the cache backend in use
func (app *Application) Backend() repository.Backend {
	return repository.Backend(*app.config.CacheBackend)
}

// Shutdown closes the cache backend connection. It is safe to call after a
// failed NewApplication.
func (app *Application) Shutdown(ctx context.Context) {
	logger := zerolog.Ctx(ctx).With().Str("function", "Shutdown").Logger()

	if app.store == nil {
		return
	}

	if err := app.store.Close(); err != nil {
		logger.Error().Err(err).Str("backend", *app.config.CacheBackend).Msg("Failed to close cache store")
		return
	}
	logger.Info().Str("backend", *app.config.CacheBackend).Msg("Cache store closed")
}

func (app *Application) RunHTTPServer(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	logger := zerolog.Ctx(ctx).With().Str("function", "RunHTTPServer").Logger()

	// Set to release mode to disable Gin logger
	gin.SetMode(gin.ReleaseMode)

	ginRouter := gin.New()
	ginRouter.Use(gin.Recovery())

	// Register routes
	app.registerRoutes(ctx, ginRouter)

	// Build HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", *app.config.Port),
		Handler:           ginRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().Msgf("HTTP server is on http://localhost:%s/health", *app.config.Port)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Panic().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	// Wait for context cancellation
	<-ctx.Done()

	logger.Info().Msg("Gracefully shutting down HTTP server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Shutdown server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Failed to shutdown HTTP server gracefully")
	} else {
		logger.Info().Msg("HTTP server shutdown complete")
	}
}

// RunCacheWarmer keeps the cache filled until ctx is done. It returns at once
// when the warmer is disabled.
func (app *Application) RunCacheWarmer(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	logger := zerolog.Ctx(ctx).With().Str("function", "RunCacheWarmer").Logger()

	if app.CacheWarmer == nil {
		logger.Debug().Msg("Cache warmer disabled")
		return
	}

	logger.Info().Msg("Starting cache warmer")
	if err := app.CacheWarmer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("Cache warmer failed")
	}
	logger.Info().Msg("Cache warmer stopped")
}

func (app *Application) registerRoutes(ctx context.Context, router *gin.Engine) {
	// Configure CORS
	config := cors.DefaultConfig()
	config.AllowOrigins = *app.config.AllowOrigins
	config.AllowMethods = []string{"GET", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-API-Secret", "X-WP-Nonce", "X-Requested-With"}
	config.ExposeHeaders = []string{"X-Request-ID"}

	router.Use(cors.New(config))

	handler.RegisterRoutes(ctx, router, handler.Routes{
		RouteNamespace:   *app.config.RouteNamespace,
		APISecret:        *app.config.APISecret,
		AdminUser:        *app.config.AdminUser,
		AdminPassword:    *app.config.AdminPassword,
		Lang:             *app.config.SiteLocale,
		ChallengeService: app.ChallengeService,
		Presenter:        app.Presenter,
		Metrics:          app.Metrics,
	})

	if *app.config.AdminPassword == "" {
		zerolog.Ctx(ctx).Warn().Msg("ADMIN_PASSWORD is empty; admin screen is disabled")
	}
}
