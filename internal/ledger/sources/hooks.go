package sources

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tabella-hq/tabella/internal/ledger/journals"
)

// ErrNoEnqueuer indicates Hooks was built without a queue client.
var ErrNoEnqueuer = errors.New("sources: enqueuer not configured")

// Poster is the posting engine surface the wrappers depend on.
type Poster interface {
	Post(ctx context.Context, doc journals.SourceDocument) (journals.PostingResult, error)
	Reverse(ctx context.Context, originalEntryID int64, reversalTag string) (journals.PostingResult, error)
}

// StatusWriter persists the posting-status fields on the originating
// document. Implementations belong to the owning business module; the
// engine never touches caller-owned tables directly.
type StatusWriter interface {
	Write(ctx context.Context, sourceTag string, documentID int64, result journals.PostingResult) error
}

// Enqueuer submits a detached posting task after the caller's own
// transaction has committed.
type Enqueuer interface {
	EnqueueLedgerPost(ctx context.Context, documentID int64, doc journals.SourceDocument) error
}

// Hooks wires business documents into the posting engine, synchronously
// or detached. It is the one place posting results turn into document
// status updates.
type Hooks struct {
	poster   Poster
	statuses StatusWriter
	enqueuer Enqueuer
	logger   *slog.Logger
}

// NewHooks constructs the wrapper set.
func NewHooks(poster Poster, statuses StatusWriter, enqueuer Enqueuer, logger *slog.Logger) *Hooks {
	return &Hooks{poster: poster, statuses: statuses, enqueuer: enqueuer, logger: logger}
}

// PostGoodsReceipt posts a receipt and writes back its status fields.
func (h *Hooks) PostGoodsReceipt(ctx context.Context, evt GoodsReceipt) (journals.PostingResult, error) {
	return h.post(ctx, evt.ID, GoodsReceiptDocument(evt))
}

// PostWaste posts a waste record and writes back its status fields.
func (h *Hooks) PostWaste(ctx context.Context, evt Waste) (journals.PostingResult, error) {
	return h.post(ctx, evt.ID, WasteDocument(evt))
}

// PostCashMovement posts a drawer movement and writes back its status fields.
func (h *Hooks) PostCashMovement(ctx context.Context, evt CashMovement) (journals.PostingResult, error) {
	return h.post(ctx, evt.ID, CashMovementDocument(evt))
}

// PostPayrollRun posts a payroll accrual and writes back its status fields.
func (h *Hooks) PostPayrollRun(ctx context.Context, evt PayrollRun) (journals.PostingResult, error) {
	return h.post(ctx, evt.ID, PayrollRunDocument(evt))
}

// PostRemittanceBatch posts a remittance settlement and writes back its status fields.
func (h *Hooks) PostRemittanceBatch(ctx context.Context, evt RemittanceBatch) (journals.PostingResult, error) {
	return h.post(ctx, evt.ID, RemittanceBatchDocument(evt))
}

// VoidGoodsReceipt reverses a posted receipt.
func (h *Hooks) VoidGoodsReceipt(ctx context.Context, documentID, journalEntryID int64) (journals.PostingResult, error) {
	return h.void(ctx, TagGoodsReceipt, documentID, journalEntryID)
}

// VoidWaste reverses a posted waste record.
func (h *Hooks) VoidWaste(ctx context.Context, documentID, journalEntryID int64) (journals.PostingResult, error) {
	return h.void(ctx, TagWaste, documentID, journalEntryID)
}

// VoidCashMovement reverses a posted drawer movement.
func (h *Hooks) VoidCashMovement(ctx context.Context, documentID, journalEntryID int64) (journals.PostingResult, error) {
	return h.void(ctx, TagCashMovement, documentID, journalEntryID)
}

// VoidPayrollRun reverses a posted payroll accrual.
func (h *Hooks) VoidPayrollRun(ctx context.Context, documentID, journalEntryID int64) (journals.PostingResult, error) {
	return h.void(ctx, TagPayrollRun, documentID, journalEntryID)
}

// VoidRemittanceBatch reverses a posted remittance settlement.
func (h *Hooks) VoidRemittanceBatch(ctx context.Context, documentID, journalEntryID int64) (journals.PostingResult, error) {
	return h.void(ctx, TagRemittanceBatch, documentID, journalEntryID)
}

// EnqueueGoodsReceipt marks the document pending and detaches posting.
func (h *Hooks) EnqueueGoodsReceipt(ctx context.Context, evt GoodsReceipt) error {
	return h.enqueue(ctx, evt.ID, GoodsReceiptDocument(evt))
}

// EnqueueWaste marks the document pending and detaches posting.
func (h *Hooks) EnqueueWaste(ctx context.Context, evt Waste) error {
	return h.enqueue(ctx, evt.ID, WasteDocument(evt))
}

// EnqueueCashMovement marks the document pending and detaches posting.
func (h *Hooks) EnqueueCashMovement(ctx context.Context, evt CashMovement) error {
	return h.enqueue(ctx, evt.ID, CashMovementDocument(evt))
}

// EnqueuePayrollRun marks the document pending and detaches posting.
func (h *Hooks) EnqueuePayrollRun(ctx context.Context, evt PayrollRun) error {
	return h.enqueue(ctx, evt.ID, PayrollRunDocument(evt))
}

// EnqueueRemittanceBatch marks the document pending and detaches posting.
func (h *Hooks) EnqueueRemittanceBatch(ctx context.Context, evt RemittanceBatch) error {
	return h.enqueue(ctx, evt.ID, RemittanceBatchDocument(evt))
}

func (h *Hooks) post(ctx context.Context, documentID int64, doc journals.SourceDocument) (journals.PostingResult, error) {
	result, err := h.poster.Post(ctx, doc)
	if err != nil && result.Status == "" {
		result = journals.PostingResult{Status: journals.PostingStatusFailed, Err: err.Error()}
	}
	h.writeStatus(ctx, doc.SourceTag, documentID, result)
	return result, err
}

func (h *Hooks) void(ctx context.Context, tag string, documentID, journalEntryID int64) (journals.PostingResult, error) {
	result, err := h.poster.Reverse(ctx, journalEntryID, tag+"_VOID")
	if err != nil && result.Status == "" {
		result = journals.PostingResult{Status: journals.PostingStatusFailed, Err: err.Error()}
	}
	h.writeStatus(ctx, tag, documentID, result)
	return result, err
}

func (h *Hooks) enqueue(ctx context.Context, documentID int64, doc journals.SourceDocument) error {
	if h.enqueuer == nil {
		return ErrNoEnqueuer
	}
	h.writeStatus(ctx, doc.SourceTag, documentID, journals.PostingResult{Status: journals.PostingStatusPending})
	return h.enqueuer.EnqueueLedgerPost(ctx, documentID, doc)
}

func (h *Hooks) writeStatus(ctx context.Context, tag string, documentID int64, result journals.PostingResult) {
	if h.statuses == nil {
		return
	}
	if err := h.statuses.Write(ctx, tag, documentID, result); err != nil && h.logger != nil {
		h.logger.Error("write posting status",
			slog.String("source", tag),
			slog.Int64("document_id", documentID),
			slog.Any("error", err))
	}
}
