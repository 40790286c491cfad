package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/tabella-hq/tabella/internal/app"
	"github.com/tabella-hq/tabella/internal/ledger/accounts"
	"github.com/tabella-hq/tabella/internal/ledger/journals"
	"github.com/tabella-hq/tabella/internal/ledger/mappings"
	"github.com/tabella-hq/tabella/internal/ledger/periods"
	"github.com/tabella-hq/tabella/internal/platform/cache"
	"github.com/tabella-hq/tabella/internal/platform/db"
	"github.com/tabella-hq/tabella/internal/shared"
	"github.com/tabella-hq/tabella/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, status cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)

	accountsRepo := accounts.NewRepository(pool)
	accountsHandler := accounts.NewHandler(logger, accountsRepo)

	mappingsRepo := mappings.NewRepository(pool)
	mappingsService := mappings.NewService(mappingsRepo, accountsRepo, auditLogger)
	mappingsHandler := mappings.NewHandler(logger, mappingsService)

	periodsRepo := periods.NewRepository(pool)
	periodsService := periods.NewService(periodsRepo, auditLogger)
	periodsHandler := periods.NewHandler(logger, periodsService)

	journalsRepo := journals.NewRepository(pool)
	journalsService := journals.NewService(journalsRepo, mappingsService, auditLogger)
	statusCache := journals.NewStatusCache(redisClient, cfg.StatusCacheTTL)
	journalsHandler := journals.NewHandler(logger, journalsService, mappingsService, statusCache)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		AccountsHandler: accountsHandler,
		MappingsHandler: mappingsHandler,
		PeriodsHandler:  periodsHandler,
		JournalsHandler: journalsHandler,
		JobHandler:      jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("http server", slog.Any("error", err))
		os.Exit(1)
	}
}
