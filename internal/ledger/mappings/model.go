package mappings

import "time"

// Role names an accounting slot a posting line can target.
type Role string

const (
	RoleInventoryAsset     Role = "INVENTORY_ASSET"
	RoleCOGS               Role = "COGS"
	RoleWasteExpense       Role = "WASTE_EXPENSE"
	RoleShrinkExpense      Role = "SHRINK_EXPENSE"
	RoleGRNI               Role = "GRNI"
	RoleInventoryGain      Role = "INVENTORY_GAIN"
	RoleCashOnHand         Role = "CASH_ON_HAND"
	RoleCashOverShort      Role = "CASH_OVER_SHORT"
	RolePayrollExpense     Role = "PAYROLL_EXPENSE"
	RolePayrollLiability   Role = "PAYROLL_LIABILITY"
	RoleRemittanceClearing Role = "REMITTANCE_CLEARING"
)

// KnownRoles lists every role the engine understands.
var KnownRoles = []Role{
	RoleInventoryAsset,
	RoleCOGS,
	RoleWasteExpense,
	RoleShrinkExpense,
	RoleGRNI,
	RoleInventoryGain,
	RoleCashOnHand,
	RoleCashOverShort,
	RolePayrollExpense,
	RolePayrollLiability,
	RoleRemittanceClearing,
}

// Mapping binds accounting roles to concrete accounts for one scope.
// BranchID nil means the org-wide default; at most one row per scope.
type Mapping struct {
	ID              int64
	OrgID           int64
	BranchID        *int64
	RoleAccounts    map[Role]int64
	AutoPostEnabled bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AccountFor returns the account bound to role, if any.
func (m Mapping) AccountFor(role Role) (int64, bool) {
	id, ok := m.RoleAccounts[role]
	if !ok || id == 0 {
		return 0, false
	}
	return id, true
}

// IsBranchScoped reports whether the mapping overrides the org default.
func (m Mapping) IsBranchScoped() bool {
	return m.BranchID != nil
}
