package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/openpos/ledgerd/internal/actor"
	httpAdapter "github.com/openpos/ledgerd/internal/adapter/http"
	"github.com/openpos/ledgerd/internal/adapter/http/handler"
	memoryStore "github.com/openpos/ledgerd/internal/adapter/snapshotstore/memory"
	postgresStore "github.com/openpos/ledgerd/internal/adapter/snapshotstore/postgres"
	redisStore "github.com/openpos/ledgerd/internal/adapter/snapshotstore/redis"
	sqliteStore "github.com/openpos/ledgerd/internal/adapter/snapshotstore/sqlite"
	"github.com/openpos/ledgerd/internal/domain"
	"github.com/openpos/ledgerd/internal/infrastructure/config"
	"github.com/openpos/ledgerd/internal/infrastructure/logger"
	"github.com/openpos/ledgerd/internal/infrastructure/logging"
	"github.com/openpos/ledgerd/internal/infrastructure/metrics"
	"github.com/openpos/ledgerd/internal/infrastructure/notifier"
	"github.com/openpos/ledgerd/internal/infrastructure/postgres"
	"github.com/openpos/ledgerd/internal/infrastructure/redis"
	"github.com/openpos/ledgerd/internal/ledger"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger

	slogger := logging.New(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	slog.SetDefault(slogger.Logger)

	ctx := context.Background()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	store, checks, closeStore, err := buildStore(ctx, cfg, appLogger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build snapshot store")
	}
	defer closeStore()
	appLogger.Info().Str("backend", cfg.SnapshotBackend).Msg("snapshot store ready")

	if cfg.RedisCacheEnabled {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()

		store = redisStore.NewCache(store, redisClient, cfg.RedisCacheTTL, appLogger)
		checks = append(checks, handler.Check{Name: "redis", Probe: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
		appLogger.Info().Msg("redis snapshot cache enabled")
	}

	rt := actor.New(actor.Config{
		IdleTimeout:           cfg.ActorIdleTimeout,
		MailboxSize:           cfg.ActorMailboxSize,
		MaxConcurrentTurns:    cfg.ActorMaxConcurrentTurns,
		ActivationRetryBudget: cfg.ActorActivationRetryBudget,
	}, store, m, appLogger)
	rt.Register(ledger.NewEntity(nil, nil))

	dispatcher := notifier.NewDispatcher(notifier.Config{
		Logger: slogger.Logger,
		Buffer: cfg.NotifierBuffer,
	})
	notifierCtx, stopNotifier := context.WithCancel(ctx)
	defer stopNotifier()
	notifierDone := make(chan struct{})
	go func() {
		defer close(notifierDone)
		_ = dispatcher.Start(notifierCtx)
	}()

	client := ledger.NewClient(rt, dispatcher, m)
	checks = append(checks, handler.Check{Name: "runtime", Probe: runtimeProbe(client)})

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		HealthHandler: handler.NewHealthHandler(checks...),
		Logger:        appLogger,
		Metrics:       m,
		Registry:      registry,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		appLogger.Info().Str("port", cfg.HTTPPort).Msg("starting ops server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ops server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info().Msg("shutting down...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("ops server forced to shut down")
	}

	// Drain activations before stopping the notifier so events from the
	// final committed commands still get delivered.
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), cfg.ActorDrainTimeout)
	defer cancelDrain()
	if err := rt.Shutdown(drainCtx); err != nil {
		appLogger.Error().Err(err).Msg("actor runtime did not drain cleanly")
	}

	stopNotifier()
	<-notifierDone

	appLogger.Info().Msg("server stopped")
}

// buildStore constructs the snapshot store named by SNAPSHOT_BACKEND along
// with its readiness checks and a close function for shutdown.
func buildStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (actor.SnapshotStore, []handler.Check, func(), error) {
	switch cfg.SnapshotBackend {
	case "memory":
		logger.Warn().Msg("using in-memory snapshot store, state is lost on restart")
		return memoryStore.New(), nil, func() {}, nil

	case "sqlite":
		store, err := sqliteStore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		checks := []handler.Check{{Name: "sqlite", Probe: store.Ping}}
		return store, checks, func() { _ = store.Close() }, nil

	case "postgres":
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			return nil, nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		checks := []handler.Check{{Name: "postgres", Probe: pool.Ping}}
		return postgresStore.NewStore(pool), checks, pool.Close, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown snapshot backend %q", cfg.SnapshotBackend)
	}
}

// runtimeProbe reports readiness by running a throwaway balance query
// through the runtime. Not-found is healthy: it proves an activation
// reached the snapshot store and got an answer.
func runtimeProbe(client *ledger.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if _, err := client.Balance(ctx, "ops-probe", "readiness"); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return nil
	}
}
