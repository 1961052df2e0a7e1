package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/graficaloja/backend-pdv/internal/backup"
	"github.com/graficaloja/backend-pdv/internal/config"
	"github.com/graficaloja/backend-pdv/internal/events"
	"github.com/graficaloja/backend-pdv/internal/jobs"
	"github.com/graficaloja/backend-pdv/internal/ledger"
	"github.com/graficaloja/backend-pdv/internal/obs"
	"github.com/graficaloja/backend-pdv/internal/repo"
)

const overdueScanBatch = 500

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	obs.MustRegisterDomainMetrics(envOrDefault("OBS_METRICS_NAMESPACE", "pdv"), nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := mustInitDatabase(ctx, cfg, logger)
	defer pool.Close()

	redisClient := mustInitRedis(ctx, cfg, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	bus := &events.Bus{
		Store:     repo.Events{DB: pool},
		Notifiers: []events.Notifier{events.LogNotifier{Logger: logger}},
	}

	backupSvc := &backup.Service{Pool: pool, Events: bus, Logger: logger}
	ledgerSvc := &ledger.Service{Pool: pool, Events: bus, Logger: logger}

	queueOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse queue redis uri")
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(jobs.TypeBackupImport, func(jobCtx context.Context, task *asynq.Task) error {
		payload, err := jobs.ParseBackupImportPayload(task)
		if err != nil {
			return err
		}
		raw, err := redisClient.Get(jobCtx, payload.StorageKey).Bytes()
		if err != nil {
			logger.Error().Err(err).Str("key", payload.StorageKey).Msg("load backup payload")
			return err
		}
		doc, err := backup.ParseDocument(raw, 0)
		if err != nil {
			// The payload was already validated at upload; a parse failure
			// here means the stored copy is corrupt, so retrying is useless.
			logger.Error().Err(err).Str("key", payload.StorageKey).Msg("parse backup payload")
			redisClient.Del(jobCtx, payload.StorageKey)
			return nil
		}
		report, err := backupSvc.Import(jobCtx, doc)
		if err != nil {
			return err
		}
		redisClient.Del(jobCtx, payload.StorageKey)
		logger.Info().
			Int("customersImported", report.Customers.Imported).
			Int("suppliersImported", report.Suppliers.Imported).
			Int("productsImported", report.Products.Imported).
			Int("ordersImported", report.Orders.Imported).
			Int("ledgerImported", report.Ledger.Imported).
			Msg("backup import finished")
		return nil
	})
	mux.HandleFunc(jobs.TypeLedgerOverdueScan, func(jobCtx context.Context, _ *asynq.Task) error {
		flagged, err := ledgerSvc.ScanOverdue(jobCtx, overdueScanBatch)
		if err != nil {
			return err
		}
		logger.Info().Int("flagged", flagged).Msg("overdue scan finished")
		return nil
	})

	srv := asynq.NewServer(queueOpt, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Logger:      asynqLogger{logger},
	})

	scheduler := asynq.NewScheduler(queueOpt, &asynq.SchedulerOpts{})
	if _, err := scheduler.Register(cfg.OverdueScanCron, jobs.NewLedgerOverdueScanTask()); err != nil {
		logger.Fatal().Err(err).Str("cron", cfg.OverdueScanCron).Msg("register overdue scan")
	}
	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("start scheduler")
	}
	defer scheduler.Shutdown()

	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start worker")
	}
	logger.Info().Msg("worker started")

	<-ctx.Done()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}

func mustInitDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "pdv-worker"
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool
}

func mustInitRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *redis.Client {
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return redisClient
}

type asynqLogger struct {
	l zerolog.Logger
}

func (a asynqLogger) Debug(args ...interface{}) { a.l.Debug().Msg(joinArgs(args)) }
func (a asynqLogger) Info(args ...interface{})  { a.l.Info().Msg(joinArgs(args)) }
func (a asynqLogger) Warn(args ...interface{})  { a.l.Warn().Msg(joinArgs(args)) }
func (a asynqLogger) Error(args ...interface{}) { a.l.Error().Msg(joinArgs(args)) }
func (a asynqLogger) Fatal(args ...interface{}) { a.l.Fatal().Msg(joinArgs(args)) }

func joinArgs(args []interface{}) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, fmt.Sprint(arg))
	}
	return strings.Join(parts, " ")
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
