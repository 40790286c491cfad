package journals

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tabella-hq/tabella/internal/ledger/mappings"
	"github.com/tabella-hq/tabella/internal/ledger/shared"
)

// PostingStatus is the lifecycle of a source document's ledger posting.
type PostingStatus string

const (
	PostingStatusPending PostingStatus = "PENDING"
	PostingStatusPosted  PostingStatus = "POSTED"
	PostingStatusFailed  PostingStatus = "FAILED"
	PostingStatusSkipped PostingStatus = "SKIPPED"
)

// Side declares debit or credit intent for a role amount.
type Side string

const (
	SideDebit  Side = "DEBIT"
	SideCredit Side = "CREDIT"
)

// JournalEntry captures one balanced business event in the ledger.
// Unique per (source, source_id); that pair is the idempotency key.
type JournalEntry struct {
	ID            int64
	OrgID         int64
	BranchID      *int64
	SourceTag     string
	SourceID      uuid.UUID
	EffectiveDate time.Time
	Memo          string
	CreatedAt     time.Time
	Lines         []JournalLine
}

// JournalLine stores a debit or credit amount for an account.
// Exactly one of Debit/Credit is strictly positive.
type JournalLine struct {
	ID             int64
	JournalEntryID int64
	AccountID      int64
	Debit          decimal.Decimal
	Credit         decimal.Decimal
}

// RoleAmount is one caller-declared breakdown line of a source document.
type RoleAmount struct {
	Role   mappings.Role
	Side   Side
	Amount decimal.Decimal
}

// SourceDocument is the posting contract every business document type
// shares: receipts, waste, cash movements, payroll runs, remittances all
// reduce to this tuple.
type SourceDocument struct {
	SourceTag     string
	SourceID      uuid.UUID
	OrgID         int64
	BranchID      *int64
	EffectiveDate time.Time
	Memo          string
	Lines         []RoleAmount
}

// Validate rejects structurally defective documents before any IO.
func (d SourceDocument) Validate() error {
	if d.SourceTag == "" || d.SourceID == uuid.Nil || d.OrgID == 0 || d.EffectiveDate.IsZero() {
		return shared.ErrInvalidLine
	}
	for _, line := range d.Lines {
		if line.Amount.IsNegative() {
			return shared.ErrInvalidLine
		}
		if line.Side != SideDebit && line.Side != SideCredit {
			return shared.ErrInvalidLine
		}
	}
	return nil
}

// PostingResult is what the engine hands back; callers persist the
// posting-status fields on their own rows from it.
type PostingResult struct {
	Status         PostingStatus
	JournalEntryID int64
	Err            string
}

// PostingOutcome is the append-only record of one posting attempt,
// written alongside the result so operators can see and replay failures.
type PostingOutcome struct {
	OrgID          int64
	SourceTag      string
	SourceID       uuid.UUID
	Status         PostingStatus
	JournalEntryID int64
	Err            string
	At             time.Time
}

// Filters narrows listing and export queries. Status matches the latest
// posting outcome of an entry's source.
type Filters struct {
	BranchID  *int64
	From      time.Time
	To        time.Time
	SourceTag string
	Status    PostingStatus
}

// balanced reports whether debits equal credits across the lines.
func balanced(lines []JournalLine) bool {
	debits := decimal.Zero
	credits := decimal.Zero
	for _, line := range lines {
		debits = debits.Add(line.Debit)
		credits = credits.Add(line.Credit)
	}
	return debits.Equal(credits)
}
