package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"hiretrack/internal/app"
	"hiretrack/internal/backoff"
	"hiretrack/internal/config"
	"hiretrack/internal/database"
	"hiretrack/internal/domain/application"
	"hiretrack/internal/domain/job"
	"hiretrack/internal/domain/notification"
	"hiretrack/internal/domain/user"
	apphttp "hiretrack/internal/http"
	"hiretrack/internal/http/handlers"
	httpmw "hiretrack/internal/http/middleware"
	"hiretrack/internal/logging"
	"hiretrack/internal/metrics"
	"hiretrack/internal/notify"
	queuememory "hiretrack/internal/queue/memory"
	queueredis "hiretrack/internal/queue/redis"
	"hiretrack/internal/repository/memory"
	"hiretrack/internal/repository/postgres"
	"hiretrack/internal/security"
)

type storage struct {
	applications application.Repository
	jobs         job.Repository
	users        user.Repository
	db           *sql.DB
	demo         *memory.Demo
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New("info", "json")
		bootLogger.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat).With().Str("service", "api").Logger()
	if err := cfg.ValidateAPI(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open storage")
	}
	if store.db != nil {
		defer store.db.Close()
	}

	collector := metrics.NewCollector()
	var (
		queue       notification.Queue
		redisClient *goredis.Client
		limiter     httpmw.Limiter = httpmw.NewRateLimiter()
		workerDone  = make(chan struct{})
	)
	switch cfg.QueueDriver {
	case config.DriverRedis:
		redisClient, err = queueredis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect redis")
		}
		defer redisClient.Close()
		queue = queueredis.New(redisClient, queueredis.Config{
			MaxAttempts:  cfg.QueueMaxAttempts,
			Backoff:      backoff.Jittered{Initial: cfg.QueueBackoffInitial, Max: cfg.QueueBackoffMax},
			BlockTimeout: cfg.QueueBlockTimeout,
		})
		limiter = httpmw.NewRedisLimiter(redisClient, logger)
		close(workerDone)
	default:
		// Without a shared queue the api drains its own notifications.
		mem := queuememory.New(
			queuememory.WithMaxAttempts(cfg.QueueMaxAttempts),
			queuememory.WithBackoff(backoff.Jittered{Initial: cfg.QueueBackoffInitial, Max: cfg.QueueBackoffMax}),
		)
		defer mem.Close()
		queue = mem
		worker := notify.NewWorker(mem, notify.NewLogTransport(logger), notify.WorkerConfig{
			From:          cfg.EmailFrom,
			Concurrency:   cfg.WorkerConcurrency,
			RatePerSecond: cfg.WorkerRatePerSec,
			SendTimeout:   cfg.WorkerSendTimeout,
		}, logger.With().Str("component", "worker").Logger(), collector)
		go func() {
			defer close(workerDone)
			_ = worker.Run(ctx)
		}()
		logger.Warn().Msg("memory queue in use: notifications are lost on restart")
	}

	dispatcher := notify.NewDispatcher(queue,
		notify.WithEnqueueTimeout(cfg.NotifyEnqueueTimeout),
		notify.WithDispatcherLogger(logger.With().Str("component", "dispatcher").Logger()),
	)
	service := app.NewApplicationService(store.applications, store.jobs, store.users, dispatcher, logger.With().Str("component", "lifecycle").Logger(), collector)
	jwtProvider := security.NewJWTProvider(cfg.JWTSecret)
	if store.demo != nil {
		logDemo(logger, jwtProvider, *store.demo)
	}

	router := apphttp.NewRouter(apphttp.RouterDependencies{
		ApplicationHandler: handlers.NewApplicationHandler(service, limiter),
		HealthHandler:      handlers.NewHealthHandler(healthChecks(store.db, redisClient)...),
		MetricsHandler:     metrics.NewHandler(collector),
		AuthMiddleware:     httpmw.NewAuthMiddleware(jwtProvider),
		Metrics:            collector,
		Logger:             logger,
		Limiter:            limiter,
		RateLimitRequests:  cfg.RateLimitRequests,
		RateLimitWindow:    cfg.RateLimitWindow,
		RequestTimeout:     cfg.RequestTimeout,
		MaxBodyBytes:       cfg.MaxBodyBytes,
	})
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Str("storage", cfg.StorageDriver).Str("queue", cfg.QueueDriver).Msg("api started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown")
	}
	<-workerDone
}

func openStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (storage, error) {
	if cfg.StorageDriver == config.DriverMemory {
		logger.Warn().Msg("memory storage in use: data is lost on restart")
		store := memory.NewStore()
		demo := store.SeedDemo(time.Now().UTC())
		return storage{applications: store.Applications(), jobs: store.Jobs(), users: store.Users(), demo: &demo}, nil
	}
	db, err := database.NewPostgres(ctx, database.PostgresConfig{
		DSN:             cfg.PostgresDSN,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxIdle:     cfg.DBConnMaxIdle,
		ConnMaxLifetime: cfg.DBConnMaxLife,
		ReadyTimeout:    cfg.DBReadyTimeout,
	}, logger)
	if err != nil {
		return storage{}, err
	}
	if cfg.MigrateOnStart {
		applied, err := database.Migrate(ctx, db)
		if err != nil {
			_ = db.Close()
			return storage{}, err
		}
		logger.Info().Strs("applied", applied).Msg("migrations done")
	}
	return storage{
		applications: postgres.NewApplicationRepository(db),
		jobs:         postgres.NewJobRepository(db),
		users:        postgres.NewUserRepository(db),
		db:           db,
	}, nil
}

// logDemo prints the seeded ids and a day-long token per seeded user so the
// memory mode can be driven with curl.
func logDemo(logger zerolog.Logger, jwtProvider *security.JWTProvider, demo memory.Demo) {
	for _, u := range []user.User{demo.Recruiter, demo.Candidate} {
		token, _, err := jwtProvider.Generate(u.ID, u.Role, 24*time.Hour)
		if err != nil {
			logger.Error().Err(err).Str("user_id", u.ID.String()).Msg("sign demo token")
			continue
		}
		logger.Info().Str("user_id", u.ID.String()).Str("role", string(u.Role)).Str("token", token).Msg("demo user")
	}
	logger.Info().Str("job_id", demo.Job.ID.String()).Str("company_id", demo.CompanyID.String()).Msg("demo job")
}

func healthChecks(db *sql.DB, client *goredis.Client) []handlers.HealthCheck {
	var checks []handlers.HealthCheck
	if db != nil {
		checks = append(checks, handlers.HealthCheck{Name: "postgres", Check: db.PingContext})
	}
	if client != nil {
		checks = append(checks, handlers.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}})
	}
	return checks
}
