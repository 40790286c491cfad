package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tabella-hq/tabella/internal/ledger/shared"
)

// Repository exposes read-only access to the account directory.
// Directory editing belongs to the surrounding platform, not the engine.
type Repository interface {
	List(ctx context.Context, orgID int64) ([]Account, error)
	Get(ctx context.Context, orgID, accountID int64) (Account, error)
	Exists(ctx context.Context, orgID int64, accountIDs []int64) (bool, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, orgID int64) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT id, org_id, code, name, type, normal_balance_side, is_active, created_at, updated_at
FROM accounts WHERE org_id=$1 ORDER BY code`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.OrgID, &a.Code, &a.Name, &a.Type, &a.NormalBalanceSide, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, orgID, accountID int64) (Account, error) {
	var a Account
	err := r.db.QueryRow(ctx, `SELECT id, org_id, code, name, type, normal_balance_side, is_active, created_at, updated_at
FROM accounts WHERE org_id=$1 AND id=$2`, orgID, accountID).
		Scan(&a.ID, &a.OrgID, &a.Code, &a.Name, &a.Type, &a.NormalBalanceSide, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

// Exists reports whether every id belongs to the org's directory.
func (r *repository) Exists(ctx context.Context, orgID int64, accountIDs []int64) (bool, error) {
	if len(accountIDs) == 0 {
		return true, nil
	}
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE org_id=$1 AND id = ANY($2)`, orgID, accountIDs).Scan(&count)
	if err != nil {
		return false, err
	}
	return count == len(accountIDs), nil
}
