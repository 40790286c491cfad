package sources

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tabella-hq/tabella/internal/ledger/journals"
	"github.com/tabella-hq/tabella/internal/ledger/mappings"
)

// SourceID derives a deterministic id from the tag and document id, so a
// replayed event always carries the same idempotency key.
func SourceID(tag string, documentID int64) uuid.UUID {
	return uuid.NewSHA1(uuid.Nil, []byte(fmt.Sprintf("%s:%d", tag, documentID)))
}

// GoodsReceiptDocument values the receipt and books it into inventory
// against the goods-received-not-invoiced liability.
func GoodsReceiptDocument(evt GoodsReceipt) journals.SourceDocument {
	total := decimal.Zero
	for _, line := range evt.Lines {
		total = total.Add(line.Qty.Mul(line.UnitCost).Round(2))
	}
	return journals.SourceDocument{
		SourceTag:     TagGoodsReceipt,
		SourceID:      SourceID(TagGoodsReceipt, evt.ID),
		OrgID:         evt.OrgID,
		BranchID:      evt.BranchID,
		EffectiveDate: evt.ReceivedAt,
		Memo:          fmt.Sprintf("Goods receipt %s", evt.Number),
		Lines: []journals.RoleAmount{
			{Role: mappings.RoleInventoryAsset, Side: journals.SideDebit, Amount: total},
			{Role: mappings.RoleGRNI, Side: journals.SideCredit, Amount: total},
		},
	}
}

// WasteDocument expenses wasted stock out of the inventory asset.
func WasteDocument(evt Waste) journals.SourceDocument {
	total := decimal.Zero
	for _, line := range evt.Lines {
		total = total.Add(line.Qty.Mul(line.UnitCost).Round(2))
	}
	return journals.SourceDocument{
		SourceTag:     TagWaste,
		SourceID:      SourceID(TagWaste, evt.ID),
		OrgID:         evt.OrgID,
		BranchID:      evt.BranchID,
		EffectiveDate: evt.RecordedAt,
		Memo:          fmt.Sprintf("Inventory waste %s", evt.Number),
		Lines: []journals.RoleAmount{
			{Role: mappings.RoleWasteExpense, Side: journals.SideDebit, Amount: total},
			{Role: mappings.RoleInventoryAsset, Side: journals.SideCredit, Amount: total},
		},
	}
}

// CashMovementDocument books a drawer overage into cash on hand, or a
// shortage out of it, against the over/short account.
func CashMovementDocument(evt CashMovement) journals.SourceDocument {
	lines := []journals.RoleAmount{
		{Role: mappings.RoleCashOnHand, Side: journals.SideDebit, Amount: evt.Amount},
		{Role: mappings.RoleCashOverShort, Side: journals.SideCredit, Amount: evt.Amount},
	}
	if evt.Direction == CashShortage {
		lines = []journals.RoleAmount{
			{Role: mappings.RoleCashOverShort, Side: journals.SideDebit, Amount: evt.Amount},
			{Role: mappings.RoleCashOnHand, Side: journals.SideCredit, Amount: evt.Amount},
		}
	}
	return journals.SourceDocument{
		SourceTag:     TagCashMovement,
		SourceID:      SourceID(TagCashMovement, evt.ID),
		OrgID:         evt.OrgID,
		BranchID:      evt.BranchID,
		EffectiveDate: evt.OccurredAt,
		Memo:          fmt.Sprintf("Cash drawer movement %s", evt.Number),
		Lines:         lines,
	}
}

// PayrollRunDocument accrues gross pay against the payroll liability.
func PayrollRunDocument(evt PayrollRun) journals.SourceDocument {
	return journals.SourceDocument{
		SourceTag:     TagPayrollRun,
		SourceID:      SourceID(TagPayrollRun, evt.ID),
		OrgID:         evt.OrgID,
		BranchID:      evt.BranchID,
		EffectiveDate: evt.PostedAt,
		Memo:          fmt.Sprintf("Payroll run %s", evt.Number),
		Lines: []journals.RoleAmount{
			{Role: mappings.RolePayrollExpense, Side: journals.SideDebit, Amount: evt.Gross},
			{Role: mappings.RolePayrollLiability, Side: journals.SideCredit, Amount: evt.Gross},
		},
	}
}

// RemittanceBatchDocument settles the payroll liability into the
// remittance clearing account.
func RemittanceBatchDocument(evt RemittanceBatch) journals.SourceDocument {
	return journals.SourceDocument{
		SourceTag:     TagRemittanceBatch,
		SourceID:      SourceID(TagRemittanceBatch, evt.ID),
		OrgID:         evt.OrgID,
		BranchID:      evt.BranchID,
		EffectiveDate: evt.RemittedAt,
		Memo:          fmt.Sprintf("Remittance batch %s", evt.Number),
		Lines: []journals.RoleAmount{
			{Role: mappings.RolePayrollLiability, Side: journals.SideDebit, Amount: evt.Amount},
			{Role: mappings.RoleRemittanceClearing, Side: journals.SideCredit, Amount: evt.Amount},
		},
	}
}
