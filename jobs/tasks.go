package jobs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/tabella-hq/tabella/internal/ledger/journals"
	"github.com/tabella-hq/tabella/internal/ledger/mappings"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerPost posts one source document to the ledger.
	TaskLedgerPost = "ledger:post"
	// TaskLedgerIntegrity sweeps journal entries for balance drift.
	TaskLedgerIntegrity = "ledger:integrity"
)

// LedgerPostLine is one role breakdown line in a queued posting task.
type LedgerPostLine struct {
	Role   string          `json:"role"`
	Side   string          `json:"side"`
	Amount decimal.Decimal `json:"amount"`
}

// LedgerPostPayload carries everything the worker needs to post a
// document without reading the caller's tables.
type LedgerPostPayload struct {
	DocumentID    int64            `json:"document_id"`
	SourceTag     string           `json:"source_tag"`
	SourceID      uuid.UUID        `json:"source_id"`
	OrgID         int64            `json:"org_id"`
	BranchID      *int64           `json:"branch_id,omitempty"`
	EffectiveDate time.Time        `json:"effective_date"`
	Memo          string           `json:"memo,omitempty"`
	Lines         []LedgerPostLine `json:"lines"`
}

// NewLedgerPostTask constructs an Asynq task from a source document.
func NewLedgerPostTask(documentID int64, doc journals.SourceDocument) (*asynq.Task, error) {
	payload := LedgerPostPayload{
		DocumentID:    documentID,
		SourceTag:     doc.SourceTag,
		SourceID:      doc.SourceID,
		OrgID:         doc.OrgID,
		BranchID:      doc.BranchID,
		EffectiveDate: doc.EffectiveDate,
		Memo:          doc.Memo,
	}
	for _, line := range doc.Lines {
		payload.Lines = append(payload.Lines, LedgerPostLine{
			Role:   string(line.Role),
			Side:   string(line.Side),
			Amount: line.Amount,
		})
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerPost, data, asynq.MaxRetry(5)), nil
}

// Document rebuilds the posting engine's input from the payload.
func (p LedgerPostPayload) Document() journals.SourceDocument {
	doc := journals.SourceDocument{
		SourceTag:     p.SourceTag,
		SourceID:      p.SourceID,
		OrgID:         p.OrgID,
		BranchID:      p.BranchID,
		EffectiveDate: p.EffectiveDate,
		Memo:          p.Memo,
	}
	for _, line := range p.Lines {
		doc.Lines = append(doc.Lines, journals.RoleAmount{
			Role:   mappings.Role(line.Role),
			Side:   journals.Side(line.Side),
			Amount: line.Amount,
		})
	}
	return doc
}

// NewLedgerIntegrityTask constructs the periodic integrity sweep task.
func NewLedgerIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskLedgerIntegrity, nil)
}
