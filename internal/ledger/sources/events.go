package sources

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source tags shared between first-time postings and their reversals.
const (
	TagGoodsReceipt    = "INV_GOODS_RECEIPT"
	TagWaste           = "INV_WASTE"
	TagCashMovement    = "CASH_MOVEMENT"
	TagPayrollRun      = "PAYROLL_RUN"
	TagRemittanceBatch = "REMITTANCE_BATCH"
)

// ReceiptLine describes one received item for ledger valuation.
type ReceiptLine struct {
	Qty      decimal.Decimal
	UnitCost decimal.Decimal
}

// GoodsReceipt captures details required to post a receipt to the ledger.
type GoodsReceipt struct {
	ID         int64
	OrgID      int64
	BranchID   *int64
	Number     string
	ReceivedAt time.Time
	Lines      []ReceiptLine
}

// WasteLine describes one wasted item for ledger valuation.
type WasteLine struct {
	Qty      decimal.Decimal
	UnitCost decimal.Decimal
}

// Waste captures an inventory waste record ready for posting.
type Waste struct {
	ID         int64
	OrgID      int64
	BranchID   *int64
	Number     string
	RecordedAt time.Time
	Lines      []WasteLine
}

// CashDirection distinguishes drawer overages from shortages.
type CashDirection string

const (
	CashOverage  CashDirection = "OVERAGE"
	CashShortage CashDirection = "SHORTAGE"
)

// CashMovement captures a cash-drawer variance ready for posting.
type CashMovement struct {
	ID         int64
	OrgID      int64
	BranchID   *int64
	Number     string
	Direction  CashDirection
	Amount     decimal.Decimal
	OccurredAt time.Time
}

// PayrollRun captures an approved payroll run ready for posting.
type PayrollRun struct {
	ID       int64
	OrgID    int64
	BranchID *int64
	Number   string
	Gross    decimal.Decimal
	PostedAt time.Time
}

// RemittanceBatch captures a payroll remittance batch ready for posting.
type RemittanceBatch struct {
	ID         int64
	OrgID      int64
	BranchID   *int64
	Number     string
	Amount     decimal.Decimal
	RemittedAt time.Time
}
