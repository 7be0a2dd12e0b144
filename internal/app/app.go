package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/SudaisX/DB-Project/internal/auth"
	"github.com/SudaisX/DB-Project/internal/cache"
	"github.com/SudaisX/DB-Project/internal/config"
	"github.com/SudaisX/DB-Project/internal/event"
	handler "github.com/SudaisX/DB-Project/internal/handler/http"
	"github.com/SudaisX/DB-Project/internal/repository/postgres"
	"github.com/SudaisX/DB-Project/internal/service"
	"github.com/SudaisX/DB-Project/migrations"
	"github.com/SudaisX/DB-Project/pkg/database"
	"github.com/SudaisX/DB-Project/pkg/health"
	pkgkafka "github.com/SudaisX/DB-Project/pkg/kafka"
	"github.com/SudaisX/DB-Project/pkg/middleware"
	"github.com/SudaisX/DB-Project/pkg/tracing"
)

// AppName labels logs, metrics and traces.
const AppName = "storefront"

// App wires together all dependencies and runs the storefront server.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    AppName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	// Initialize PostgreSQL connection pool.
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, AppName)

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Configure slow query logging.
	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})

	catalogCache := a.initCache(ctx, healthHandler)
	publisher := a.initEvents(healthHandler)

	// Build the dependency graph.
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry)
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	eventProducer := event.NewProducer(publisher, logger)

	userRepo := postgres.NewUserRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	reviewRepo := postgres.NewReviewRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)

	services := handler.Services{
		Catalog: service.NewCatalogService(productRepo, reviewRepo, catalogCache, eventProducer, logger),
		Reviews: service.NewReviewService(reviewRepo, catalogCache, eventProducer, logger),
		Orders:  service.NewOrderService(orderRepo, eventProducer, logger),
		Users:   service.NewUserService(userRepo, jwtManager, hasher, eventProducer, logger),
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins

	// HTTP router.
	router := handler.NewRouter(services, healthHandler, handler.RouterConfig{
		AppName:            AppName,
		CORS:               corsCfg,
		PprofEnabled:       cfg.PprofEnabled,
		PprofAllowedCIDRs:  cfg.PprofAllowedCIDRs,
		AuthRateLimitRPS:   cfg.AuthRateLimitRPS,
		AuthRateLimitBurst: cfg.AuthRateLimitBurst,
	}, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// initCache connects the Redis catalog cache. An unreachable Redis is not
// fatal: the catalog is then served straight from PostgreSQL.
func (a *App) initCache(ctx context.Context, h *health.Handler) service.CatalogCache {
	if !a.cfg.CacheEnabled {
		a.logger.Info("catalog cache disabled")
		return cache.Noop{}
	}

	client, err := database.NewRedisClient(ctx, a.cfg.Redis())
	if err != nil {
		a.logger.Warn("redis unavailable, catalog cache disabled", slog.String("error", err.Error()))
		return cache.Noop{}
	}
	a.redis = client
	a.logger.Info("connected to Redis", slog.String("addr", a.cfg.Redis().Addr()))

	catalog := cache.NewCatalog(client, a.cfg.CacheTTL, cache.DefaultBreakerConfig("redis-catalog"), a.logger)
	h.RegisterNonCritical("redis", catalog.Ping)
	return catalog
}

// initEvents creates the Kafka producer, or a publisher that drops events
// when publishing is disabled.
func (a *App) initEvents(h *health.Handler) event.Publisher {
	if !a.cfg.EventsEnabled {
		a.logger.Info("domain events disabled")
		return event.Discard{}
	}

	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(a.cfg.KafkaBrokers), a.logger)
	a.producer = producer
	a.logger.Info("kafka producer initialized", slog.Any("brokers", a.cfg.KafkaBrokers))

	h.RegisterNonCritical("kafka", producer.Ping)
	return producer
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return errors.Join(err, a.Shutdown())
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order: the HTTP server drains
// first, then the tracer flushes, then the Kafka producer, Redis and the
// PostgreSQL pool are closed.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
