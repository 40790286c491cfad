package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LedgerIntegrityHandler sweeps journal entries whose lines no longer
// sum to zero. Drift can only come from out-of-band writes, so hits are
// logged loudly for operators instead of being repaired automatically.
type LedgerIntegrityHandler struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewLedgerIntegrityHandler constructs the handler.
func NewLedgerIntegrityHandler(pool *pgxpool.Pool, logger *slog.Logger) *LedgerIntegrityHandler {
	return &LedgerIntegrityHandler{pool: pool, logger: logger}
}

// Handle runs one sweep.
func (h *LedgerIntegrityHandler) Handle(ctx context.Context, _ *asynq.Task) error {
	rows, err := h.pool.Query(ctx, `
        SELECT jl.je_id, (SUM(jl.debit) - SUM(jl.credit))::text AS drift
          FROM journal_lines jl
         GROUP BY jl.je_id
        HAVING SUM(jl.debit) <> SUM(jl.credit)`)
	if err != nil {
		return fmt.Errorf("integrity sweep: %w", err)
	}
	defer rows.Close()

	unbalanced := 0
	for rows.Next() {
		var entryID int64
		var drift string
		if err := rows.Scan(&entryID, &drift); err != nil {
			return fmt.Errorf("integrity sweep scan: %w", err)
		}
		unbalanced++
		h.logger.Error("unbalanced journal entry",
			slog.Int64("journal_entry_id", entryID),
			slog.String("drift", drift))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("integrity sweep: %w", err)
	}

	if unbalanced == 0 {
		h.logger.Info("ledger integrity sweep clean")
	}
	return nil
}
