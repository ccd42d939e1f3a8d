package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/bobpool/internal/adapter/http"
	"github.com/iho/bobpool/internal/adapter/http/handler"
	"github.com/iho/bobpool/internal/adapter/http/middleware"
	"github.com/iho/bobpool/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/bobpool/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/bobpool/internal/adapter/repository/redis"
	"github.com/iho/bobpool/internal/adapter/repository/sqlite"
	"github.com/iho/bobpool/internal/infrastructure/catalog"
	"github.com/iho/bobpool/internal/infrastructure/config"
	"github.com/iho/bobpool/internal/infrastructure/eventpublisher"
	"github.com/iho/bobpool/internal/infrastructure/idgen"
	"github.com/iho/bobpool/internal/infrastructure/logger"
	"github.com/iho/bobpool/internal/infrastructure/metrics"
	"github.com/iho/bobpool/internal/infrastructure/postgres"
	"github.com/iho/bobpool/internal/infrastructure/redis"
	"github.com/iho/bobpool/internal/usecase"
)

const (
	limiterCleanupInterval = time.Minute
	limiterMaxIdle         = 10 * time.Minute
	outboxRetention        = 7 * 24 * time.Hour
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	restaurants, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	log.Info().Int("restaurants", len(restaurants.List())).Msg("catalog loaded")

	st, err := openStore(ctx, cfg, idgen.NewULIDGenerator(), log)
	if err != nil {
		return err
	}
	defer st.close()

	m := metrics.New()

	// Redis is optional; without it there is no summary cache and no idempotency replay.
	var (
		cache       usecase.Cache
		idempotency *middleware.IdempotencyMiddleware
	)
	if cfg.CacheEnabled() {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisClient.Close()
		log.Info().Msg("connected to redis")

		cache = redisRepo.NewCache(redisClient)
		idempotency = middleware.NewIdempotencyMiddleware(redisRepo.NewIdempotencyStore(redisClient), cfg.IdempotencyTTL, log)
		st.pingers["redis"] = redis.NewChecker(redisClient)
	}

	// Initialize use cases
	poolUC := usecase.NewPoolUseCase(st.entries, restaurants, cache, m, log)
	poolUC.SetCacheTTL(cfg.CacheTTL)
	reconciliationUC := usecase.NewReconciliationUseCase(st.entries, st.ledger, restaurants, log)

	var limiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).WithRecorder(m)
	}

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		RestaurantHandler: handler.NewRestaurantHandler(poolUC),
		EntryHandler:      handler.NewEntryHandler(poolUC),
		LedgerHandler:     handler.NewLedgerHandler(reconciliationUC),
		HealthHandler:     handler.NewHealthHandler(st.pingers),
		Idempotency:       idempotency,
		RateLimiter:       limiter,
		Metrics:           m,
		Logger:            log,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("port", cfg.HTTPPort).Str("backend", cfg.DataBackend).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	if limiter != nil {
		g.Go(func() error {
			ticker := time.NewTicker(limiterCleanupInterval)
			defer ticker.Stop()

			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if n := limiter.CleanupLimiters(limiterMaxIdle); n > 0 {
						log.Debug().Int("removed", n).Msg("rate limiter cleanup")
					}
				}
			}
		})
	}

	if st.outbox != nil {
		publisher, closePublisher, err := newPublisher(cfg, log)
		if err != nil {
			return err
		}
		defer closePublisher()

		worker := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: st.outbox,
			Publisher:  publisher,
			Recorder:   m,
			Logger:     log,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxInterval,
			Retention:  outboxRetention,
		})

		g.Go(func() error {
			if err := worker.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	return g.Wait()
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}

// store bundles one Persistence Store backend.
type store struct {
	entries usecase.EntryRepository
	ledger  usecase.LedgerRepository
	outbox  usecase.OutboxRepository // only the postgres backend writes an outbox
	pingers map[string]handler.Pinger
	closers []func()
}

func (s *store) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStore(ctx context.Context, cfg *config.Config, idGen usecase.IDGenerator, log zerolog.Logger) (*store, error) {
	switch cfg.DataBackend {
	case config.BackendMemory:
		repo := memory.NewEntryRepository(idGen)
		log.Warn().Msg("using in-memory store; entries are lost on restart")

		return &store{
			entries: repo,
			ledger:  repo,
			pingers: map[string]handler.Pinger{},
		}, nil

	case config.BackendSQLite:
		repo, err := sqlite.NewEntryRepository(cfg.SQLitePath, idGen, log)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("opened sqlite store")

		return &store{
			entries: repo,
			ledger:  repo,
			pingers: map[string]handler.Pinger{"sqlite": repo},
			closers: []func(){func() { _ = repo.Close() }},
		}, nil

	case config.BackendPostgres:
		if cfg.RunMigrations {
			if err := postgres.RunMigrations(cfg.DatabaseURL, log); err != nil {
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}

		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		log.Info().Msg("connected to postgres")

		return &store{
			entries: postgresRepo.NewEntryRepository(pool, idGen, log),
			ledger:  postgresRepo.NewLedgerRepository(pool),
			outbox:  postgresRepo.NewOutboxRepository(pool),
			pingers: map[string]handler.Pinger{"postgres": pool},
			closers: []func(){pool.Close},
		}, nil

	default:
		return nil, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
	}
}

// newPublisher returns the AMQP publisher when AMQP_URL is set and a log publisher otherwise.
func newPublisher(cfg *config.Config, log zerolog.Logger) (eventpublisher.Publisher, func(), error) {
	if cfg.AMQPURL == "" {
		return eventpublisher.NewLogPublisher(log), func() {}, nil
	}

	p, err := eventpublisher.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to amqp: %w", err)
	}
	log.Info().Str("exchange", cfg.AMQPExchange).Msg("connected to amqp")

	return p, func() { _ = p.Close() }, nil
}
