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
	"github.com/joho/godotenv"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/accounts"
	accountinghttp "github.com/odyssey-erp/odyssey-books/internal/accounting/http"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/reports"
	"github.com/odyssey-erp/odyssey-books/internal/app"
	"github.com/odyssey-erp/odyssey-books/internal/observability"
	"github.com/odyssey-erp/odyssey-books/internal/payroll"
	payrollhttp "github.com/odyssey-erp/odyssey-books/internal/payroll/http"
	"github.com/odyssey-erp/odyssey-books/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-books/internal/platform/db"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
	"github.com/odyssey-erp/odyssey-books/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PostgresOptions())
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisOptions())
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	idempotencyStore := shared.NewIdempotencyStore(dbpool)
	metrics := observability.NewMetrics()

	periodService := periods.NewService(periods.NewRepository(dbpool), logger)

	reportService := reports.NewService(reports.NewRepository(dbpool), periodService, reports.NewCache(redisClient, cfg.ReportCacheTTL), logger)
	policy := reports.DefaultBalanceSheetPolicy()
	policy.Lexicographic = cfg.BalanceSheetLexicographic
	reportService.WithPolicy(policy)

	journalService := journals.NewService(journals.NewRepository(dbpool), reportService, logger)

	accountService := accounts.NewService(accounts.NewRepository(dbpool))
	mappingRepo := mappings.NewRepository(dbpool)
	mappingService := mappings.NewService(mappingRepo, accountService)

	payrollService := payroll.NewService(
		payroll.NewRepository(dbpool),
		mappingRepo,
		journalService,
		shared.NewRedisLocker(redisClient),
		logger,
	)
	payrollService.WithLockTTL(cfg.PayrollLockTTL)

	redisOpts := cfg.QueueRedis()
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		AccountingHandler: accountinghttp.NewHandler(logger, periodService, journalService, reportService, metrics).
			WithSetup(accountService, mappingService),
		PayrollHandler:    payrollhttp.NewHandler(logger, payrollService, idempotencyStore, metrics),
		JobHandler:        jobs.NewHandler(inspector, jobClient, logger),
		Metrics:           metrics,
		Checks: map[string]app.Pinger{
			"postgres": dbpool,
			"redis":    cache.Checker(redisClient),
		},
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
