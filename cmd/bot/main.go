package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Proton-105/fish-shop-bot/internal/bot"
	"github.com/Proton-105/fish-shop-bot/internal/bot/handlers"
	"github.com/Proton-105/fish-shop-bot/internal/commerce"
	"github.com/Proton-105/fish-shop-bot/internal/conversation"
	"github.com/Proton-105/fish-shop-bot/internal/customer"
	"github.com/Proton-105/fish-shop-bot/internal/database"
	apperrors "github.com/Proton-105/fish-shop-bot/internal/errors"
	"github.com/Proton-105/fish-shop-bot/internal/health"
	"github.com/Proton-105/fish-shop-bot/internal/i18n"
	"github.com/Proton-105/fish-shop-bot/internal/jobs"
	jobhandlers "github.com/Proton-105/fish-shop-bot/internal/jobs/handlers"
	"github.com/Proton-105/fish-shop-bot/internal/lifecycle"
	"github.com/Proton-105/fish-shop-bot/internal/middleware"
	"github.com/Proton-105/fish-shop-bot/internal/ratelimit"
	"github.com/Proton-105/fish-shop-bot/internal/state"
	"github.com/Proton-105/fish-shop-bot/pkg/config"
	"github.com/Proton-105/fish-shop-bot/pkg/graceful"
	"github.com/Proton-105/fish-shop-bot/pkg/logger"
	"github.com/Proton-105/fish-shop-bot/pkg/metrics"
	appredis "github.com/Proton-105/fish-shop-bot/pkg/redis"
)

const sessionMetricsInterval = time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		return apperrors.NewConfigurationError("load configuration", err)
	}

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.AppEnv}); err != nil {
			return apperrors.NewConfigurationError("initialize sentry", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	level := new(slog.LevelVar)
	level.Set(logger.ParseLevel(cfg.Logger.Level))
	log := logger.New(*cfg, level)
	slog.SetDefault(log)

	log.Info("starting fish shop bot", slog.String("mode", cfg.Bot.Mode), slog.String("failure_policy", cfg.Bot.FailurePolicy))

	errHandler := apperrors.NewHandler(log)
	shutdown := lifecycle.NewShutdown(log)
	checker := health.NewChecker(log)

	translations, err := i18n.Load(cfg.Locale.Default)
	if err != nil {
		return apperrors.NewConfigurationError("load translations", err)
	}

	rdb, err := appredis.New(ctx, cfg.Redis)
	if err != nil {
		return apperrors.NewStorageError(err)
	}
	checker.AddCheck("redis", health.NewRedisChecker(rdb))

	storage := state.NewRedisStorage(appredis.NewMetricsClient(rdb), cfg.Session.TTL, log)

	breaker := apperrors.NewCircuitBreaker(apperrors.DefaultBreakerSettings)
	httpClient := &http.Client{Timeout: cfg.Commerce.Timeout}
	tokens := commerce.NewTokenManager(
		commerce.NewOAuthProvider(cfg.Commerce.BaseURL, cfg.Commerce.ClientID, cfg.Commerce.ClientSecret, httpClient),
		cfg.Commerce.TokenMargin,
	)
	catalog := commerce.NewClient(tokens,
		commerce.WithBaseURL(cfg.Commerce.BaseURL),
		commerce.WithHTTPClient(httpClient),
		commerce.WithTimeout(cfg.Commerce.Timeout),
		commerce.WithBreaker(breaker),
		commerce.WithLogger(log),
	)
	checker.AddCheck("commerce", health.NewBreakerChecker(breaker))

	var customers handlers.CustomerRecorder
	var closeDB func(context.Context) error
	if cfg.Postgres.Enabled {
		db, err := database.Connect(ctx, cfg.Postgres, log)
		if err != nil {
			return apperrors.NewStorageError(err)
		}
		if err := database.NewMigrator(cfg.Postgres.MigrationsDir, cfg.Postgres.DSN(), log).Up(); err != nil {
			_ = db.Close()
			return apperrors.NewStorageError(err)
		}

		customers = customer.NewRepository(db, log)
		checker.AddCheck("postgres", health.NewDBChecker(db))
		closeDB = func(context.Context) error { return db.Close() }
	}

	tgBot, err := bot.New(cfg.Bot, log)
	if err != nil {
		return apperrors.NewExternalAPIError("telegram", err)
	}
	checker.AddCheck("telegram", health.NewTelegramChecker(tgBot.Telebot()))

	gateway := tgBot.Gateway()
	shop := handlers.NewShop(catalog, gateway, translations, customers, log)
	engine := conversation.NewEngine(
		storage,
		shop,
		gateway,
		errHandler,
		translations,
		conversation.ParseFailurePolicy(cfg.Bot.FailurePolicy),
		log,
	)

	tgBot.Use(middleware.Metrics)
	if rules := ratelimit.NewRules(cfg.RateLimit); rules.Enabled() {
		limiter := ratelimit.NewAdaptiveLimiter(
			ratelimit.NewRedisLimiter(rdb.Client, log),
			ratelimit.NewMemoryLimiter(log),
			log,
		)
		tgBot.Use(middleware.NewRateLimitMiddleware(limiter, rules, translations, log).Handle)
	}
	tgBot.Mount(engine.Handle, bot.LoggingMiddleware(log))

	config.Watch(v, log, func(next *config.Config) {
		level.Set(logger.ParseLevel(next.Logger.Level))
		engine.SetFailurePolicy(conversation.ParseFailurePolicy(next.Bot.FailurePolicy))
	})

	go metrics.NewStateCollector(storage, sessionMetricsInterval, log).Run(ctx)

	stopJobs, err := startJobs(ctx, cfg, storage, log)
	if err != nil {
		return err
	}

	probes := lifecycle.NewProbes(checker, log)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", probes.Liveness)
	mux.HandleFunc("/readyz", probes.Readiness)

	server := graceful.NewServer(cfg.Server.Addr, logger.Middleware(middleware.New(log)(mux)), cfg.Server.ShutdownTimeout, log)
	serverCtx, stopServer := context.WithCancel(context.Background())
	serverDone := make(chan error, 1)
	go func() { serverDone <- server.ListenAndServe(serverCtx) }()

	go tgBot.Start()

	<-ctx.Done()
	log.Info("shutdown signal received")
	probes.Drain()

	shutdown.Register("telegram", func(context.Context) error {
		tgBot.Stop()
		return nil
	})
	shutdown.Register("jobs", func(context.Context) error {
		stopJobs()
		return nil
	})
	shutdown.Register("http server", func(ctx context.Context) error {
		stopServer()
		select {
		case err := <-serverDone:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	shutdown.Register("postgres", closeDB)
	shutdown.Register("redis", func(context.Context) error { return rdb.Close() })

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	return shutdown.Execute(shutdownCtx)
}

// startJobs runs the idle-session cleanup when an idle timeout is configured.
// The returned func stops everything it started.
func startJobs(ctx context.Context, cfg *config.Config, storage jobhandlers.SessionStore, log *slog.Logger) (func(), error) {
	if cfg.Session.IdleTimeout <= 0 {
		return func() {}, nil
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	worker := jobs.NewWorker(redisOpt, 1, log)
	worker.RegisterHandler(jobs.TaskTypeSessionCleanup, jobhandlers.NewSessionCleanupHandler(storage, log))
	if err := worker.Start(); err != nil {
		return nil, fmt.Errorf("start jobs worker: %w", err)
	}

	scheduler := jobs.NewScheduler(redisOpt, cfg.Session.CleanupCron, cfg.Session.IdleTimeout, log)
	if err := scheduler.RegisterTasks(); err != nil {
		worker.Shutdown()
		return nil, apperrors.NewConfigurationError("register session cleanup", err)
	}
	scheduler.Run()

	manager := jobs.NewManager(redisOpt, log)
	if err := jobs.EnqueueSessionCleanup(ctx, manager, cfg.Session.IdleTimeout); err != nil {
		log.Warn("initial session cleanup not queued", slog.Any("error", err))
	}

	return func() {
		scheduler.Shutdown()
		worker.Shutdown()
		if err := manager.Close(); err != nil {
			log.Warn("failed to close jobs client", slog.Any("error", err))
		}
	}, nil
}
