package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/tabella-hq/tabella/internal/ledger/journals"
)

// Poster is the posting engine surface the worker calls.
type Poster interface {
	Post(ctx context.Context, doc journals.SourceDocument) (journals.PostingResult, error)
}

// StatusWriter pushes a posting result back onto the source document.
type StatusWriter interface {
	Write(ctx context.Context, sourceTag string, documentID int64, result journals.PostingResult) error
}

// LedgerPostHandler processes detached posting tasks.
type LedgerPostHandler struct {
	poster   Poster
	statuses StatusWriter
	logger   *slog.Logger
}

// NewLedgerPostHandler constructs the handler.
func NewLedgerPostHandler(poster Poster, statuses StatusWriter, logger *slog.Logger) *LedgerPostHandler {
	return &LedgerPostHandler{poster: poster, statuses: statuses, logger: logger}
}

// Handle posts the queued document and writes the result back. Only
// infrastructure failures propagate to Asynq for retry; terminal
// outcomes (posted, skipped, closed period) complete the task.
func (h *LedgerPostHandler) Handle(ctx context.Context, t *asynq.Task) error {
	var payload LedgerPostPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("ledger post payload", slog.Any("error", err))
		return asynq.SkipRetry
	}

	result, err := h.poster.Post(ctx, payload.Document())
	if err != nil && result.Status == "" {
		// Structural defect in the payload itself; retrying cannot fix it.
		h.logger.Error("ledger post rejected",
			slog.String("source", payload.SourceTag),
			slog.Int64("document_id", payload.DocumentID),
			slog.Any("error", err))
		h.writeStatus(ctx, payload, journals.PostingResult{Status: journals.PostingStatusFailed, Err: err.Error()})
		return asynq.SkipRetry
	}

	h.writeStatus(ctx, payload, result)

	if err != nil {
		h.logger.Warn("ledger post will retry",
			slog.String("source", payload.SourceTag),
			slog.Int64("document_id", payload.DocumentID),
			slog.Any("error", err))
		return err
	}

	h.logger.Info("ledger post completed",
		slog.String("source", payload.SourceTag),
		slog.Int64("document_id", payload.DocumentID),
		slog.String("status", string(result.Status)))
	return nil
}

func (h *LedgerPostHandler) writeStatus(ctx context.Context, payload LedgerPostPayload, result journals.PostingResult) {
	if h.statuses == nil {
		return
	}
	if err := h.statuses.Write(ctx, payload.SourceTag, payload.DocumentID, result); err != nil {
		h.logger.Error("write posting status",
			slog.String("source", payload.SourceTag),
			slog.Int64("document_id", payload.DocumentID),
			slog.Any("error", err))
	}
}
