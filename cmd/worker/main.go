package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/tabella-hq/tabella/internal/app"
	"github.com/tabella-hq/tabella/internal/ledger/journals"
	"github.com/tabella-hq/tabella/internal/ledger/mappings"
	"github.com/tabella-hq/tabella/internal/ledger/sources"
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
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	auditLogger := shared.NewAuditLogger(pool)
	mappingsService := mappings.NewService(mappings.NewRepository(pool), nil, auditLogger)
	journalsService := journals.NewService(journals.NewRepository(pool), mappingsService, auditLogger)

	statuses := sources.NewStatusRegistry()
	statuses.Register(sources.TagGoodsReceipt, sources.TableStatusWriter(pool, "goods_receipts", nil))
	statuses.Register(sources.TagWaste, sources.TableStatusWriter(pool, "waste_records", nil))
	statuses.Register(sources.TagCashMovement, sources.TableStatusWriter(pool, "cash_movements", nil))
	statuses.Register(sources.TagPayrollRun, sources.TableStatusWriter(pool, "payroll_runs", nil))
	statuses.Register(sources.TagRemittanceBatch, sources.TableStatusWriter(pool, "remittance_batches", nil))

	postHandler := jobs.NewLedgerPostHandler(journalsService, statuses, logger)
	integrityHandler := jobs.NewLedgerIntegrityHandler(pool, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLedgerPost, Handler: postHandler.Handle},
			{Type: jobs.TaskLedgerIntegrity, Handler: integrityHandler.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "45 1 * * *", Task: jobs.NewLedgerIntegrityTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
