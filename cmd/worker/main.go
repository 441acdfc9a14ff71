package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/pharos-erp/pharos-erp/internal/app"
	"github.com/pharos-erp/pharos-erp/internal/assets"
	"github.com/pharos-erp/pharos-erp/internal/ledger/accounts"
	"github.com/pharos-erp/pharos-erp/internal/ledger/journal"
	"github.com/pharos-erp/pharos-erp/internal/ledger/statements"
	"github.com/pharos-erp/pharos-erp/internal/platform/cache"
	"github.com/pharos-erp/pharos-erp/internal/platform/db"
	"github.com/pharos-erp/pharos-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.Connect(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.Connect(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	// Scheduled postings must invalidate the API's statement cache the same
	// way interactive journal writes do.
	statementCache := statements.NewCache(redisClient, cfg.StatementCacheTTL)

	accountsRepo := accounts.NewRepository(pool)
	journalRepo := journal.NewRepository(pool)
	journalService := journal.NewService(logger, journalRepo, statementCache)

	assetsRepo := assets.NewRepository(pool)
	assetsService := assets.NewService(logger, assetsRepo, journalService, accountsRepo)

	depreciationJob := jobs.NewDepreciationJob(logger, assetsService)
	integrityJob := jobs.NewIntegrityJob(logger, journalRepo)

	depreciationTask, err := jobs.NewDepreciationPostTask(jobs.DepreciationPostPayload{TriggeredAt: time.Now().UTC()})
	if err != nil {
		logger.Error("build depreciation task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskDepreciationPost, Handler: depreciationJob.Handle},
			{Type: jobs.TaskJournalIntegrity, Handler: integrityJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.DepreciationCron, Task: depreciationTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: cfg.IntegrityCron, Task: jobs.NewJournalIntegrityTask(), Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker",
		slog.String("depreciation_cron", cfg.DepreciationCron),
		slog.String("integrity_cron", cfg.IntegrityCron))
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
