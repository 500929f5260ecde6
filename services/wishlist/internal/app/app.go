package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/pawmart/storefront/pkg/database"
	"github.com/pawmart/storefront/pkg/health"
	pkgkafka "github.com/pawmart/storefront/pkg/kafka"
	"github.com/pawmart/storefront/pkg/middleware"
	"github.com/pawmart/storefront/pkg/tracing"
	"github.com/pawmart/storefront/services/wishlist/internal/auth"
	"github.com/pawmart/storefront/services/wishlist/internal/config"
	"github.com/pawmart/storefront/services/wishlist/internal/event"
	handler "github.com/pawmart/storefront/services/wishlist/internal/handler/http"
	"github.com/pawmart/storefront/services/wishlist/internal/repository/postgres"
	"github.com/pawmart/storefront/services/wishlist/internal/service"
	"github.com/pawmart/storefront/services/wishlist/migrations"
)

const serviceName = "wishlist"

// App wires together all dependencies and runs the wishlist service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	consumer       *pkgkafka.Consumer
	limiter        *middleware.Limiter
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.Init(ctx, tracing.Config{
		Enabled:        cfg.OTELEnabled,
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	a := &App{cfg: cfg, logger: logger, tracerShutdown: tracerShutdown}

	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	logger.Info("connected to PostgreSQL", slog.String("database", cfg.PostgresDB))

	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	checks := health.NewRegistry()
	checks.Register("postgres", pool.Ping)

	// Idempotency store for product events: Redis when configured so that
	// replicas share it, memory otherwise.
	var idempotency pkgkafka.IdempotencyStore = pkgkafka.NewMemoryIdempotencyStore(24 * time.Hour)
	if cfg.RedisURL != "" {
		client, err := database.NewRedisClient(ctx, database.RedisConfig{URL: cfg.RedisURL})
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.redis = client
		idempotency = pkgkafka.NewRedisIdempotencyStore(client, "wishlist:events:", 24*time.Hour)
		checks.Register("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}

	wishlists := postgres.NewWishlistRepository(pool)
	products := postgres.NewProductRepository(pool)

	var publisher event.Publisher = event.Discard{}
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = a.producer
		checks.Register("kafka", a.producer.Ping)

		productConsumer := event.NewConsumer(products, logger)
		a.consumer = pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  cfg.ConsumerGroup,
			Topics:   event.ProductTopics(),
			MinBytes: 1,
			MaxBytes: 10e6,
		}, pkgkafka.IdempotentHandler(idempotency, productConsumer.Handle, logger), logger)
	} else {
		logger.Info("kafka disabled, wishlist events are discarded")
	}

	svc := service.NewWishlistService(wishlists, products, event.NewProducer(publisher), logger, cfg.MaxSyncItems)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer)
	a.limiter = middleware.NewLimiter(middleware.RateLimitConfig{
		RPS:   cfg.RateLimitRPS,
		Burst: cfg.RateLimitBurst,
	}, logger)

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins

	router := handler.NewRouter(svc, tokenValidator(jwtManager), a.limiter, checks, logger, handler.RouterConfig{
		CORS:              cors,
		PprofAllowedCIDRs: cfg.PprofAllowedCIDRs,
	})

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

// tokenValidator adapts the JWT manager to the auth middleware.
func tokenValidator(m *auth.JWTManager) middleware.TokenValidator {
	return func(token string) (*middleware.Claims, error) {
		claims, err := m.Validate(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{UserID: claims.Subject(), Email: claims.Email}, nil
	}
}

// Run starts the HTTP server and the product consumer, then blocks until the
// context is canceled or a component fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var wg sync.WaitGroup
	if a.consumer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.consumer.Run(ctx); err != nil {
				errCh <- fmt.Errorf("product consumer: %w", err)
			}
		}()
	}

	sweepDone := make(chan struct{})
	go a.limiter.Run(sweepDone)

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
	}

	close(sweepDone)
	shutdownErr := a.Shutdown()
	wg.Wait()
	return errors.Join(runErr, shutdownErr)
}

// Shutdown stops components in dependency order: HTTP, tracer, consumer,
// producer, redis, postgres.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close consumer: %w", err))
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close producer: %w", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}

	for _, err := range errs {
		a.logger.Error("shutdown error", slog.String("error", err.Error()))
	}
	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
