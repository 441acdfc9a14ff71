package main

import (
	"context"
	"log/slog"
	"net/http"
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
	"github.com/pharos-erp/pharos-erp/internal/observability"
	"github.com/pharos-erp/pharos-erp/internal/platform/cache"
	"github.com/pharos-erp/pharos-erp/internal/platform/db"
	"github.com/pharos-erp/pharos-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.Connect(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	metrics := observability.NewMetrics()
	statementCache := statements.NewCache(redisClient, cfg.StatementCacheTTL)

	accountsRepo := accounts.NewRepository(dbpool)
	accountsService := accounts.NewService(accountsRepo)
	accountsHandler := accounts.NewHandler(logger, accountsService)

	journalRepo := journal.NewRepository(dbpool)
	journalService := journal.NewService(logger, journalRepo, statementCache)
	journalHandler := journal.NewHandler(logger, journalService, metrics)

	statementsRepo := statements.NewRepository(dbpool)
	statementsService := statements.NewService(logger, statementsRepo, journalRepo, journalRepo, accountsRepo, statementCache, metrics)
	statementsHandler := statements.NewHandler(logger, statementsService)

	assetsRepo := assets.NewRepository(dbpool)
	assetsService := assets.NewService(logger, assetsRepo, journalService, accountsRepo)
	assetsHandler := assets.NewHandler(logger, assetsService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		AccountsHandler:   accountsHandler,
		JournalHandler:    journalHandler,
		StatementsHandler: statementsHandler,
		AssetsHandler:     assetsHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
