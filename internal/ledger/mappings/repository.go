package mappings

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tabella-hq/tabella/internal/ledger/shared"
)

// Repository encapsulates DB operations for GL mappings.
type Repository interface {
	List(ctx context.Context, orgID int64) ([]Mapping, error)
	GetByScope(ctx context.Context, orgID int64, branchID *int64) (Mapping, error)
	GetByID(ctx context.Context, orgID, id int64) (Mapping, error)
	Insert(ctx context.Context, mapping Mapping) (Mapping, error)
	Update(ctx context.Context, mapping Mapping) (Mapping, error)
	Delete(ctx context.Context, orgID, id int64) error
	HasAny(ctx context.Context, orgID int64) (bool, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const mappingColumns = `id, org_id, branch_id, role_accounts, auto_post_enabled, created_at, updated_at`

func scanMapping(row pgx.Row) (Mapping, error) {
	var m Mapping
	var roleJSON []byte
	if err := row.Scan(&m.ID, &m.OrgID, &m.BranchID, &roleJSON, &m.AutoPostEnabled, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return Mapping{}, err
	}
	if len(roleJSON) > 0 {
		if err := json.Unmarshal(roleJSON, &m.RoleAccounts); err != nil {
			return Mapping{}, err
		}
	}
	return m, nil
}

func (r *repository) List(ctx context.Context, orgID int64) ([]Mapping, error) {
	rows, err := r.db.Query(ctx, `SELECT `+mappingColumns+` FROM gl_mappings WHERE org_id=$1 ORDER BY branch_id NULLS FIRST`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Mapping
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repository) GetByScope(ctx context.Context, orgID int64, branchID *int64) (Mapping, error) {
	var row pgx.Row
	if branchID == nil {
		row = r.db.QueryRow(ctx, `SELECT `+mappingColumns+` FROM gl_mappings WHERE org_id=$1 AND branch_id IS NULL`, orgID)
	} else {
		row = r.db.QueryRow(ctx, `SELECT `+mappingColumns+` FROM gl_mappings WHERE org_id=$1 AND branch_id=$2`, orgID, *branchID)
	}
	m, err := scanMapping(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Mapping{}, shared.ErrMappingNotFound
		}
		return Mapping{}, err
	}
	return m, nil
}

func (r *repository) GetByID(ctx context.Context, orgID, id int64) (Mapping, error) {
	m, err := scanMapping(r.db.QueryRow(ctx, `SELECT `+mappingColumns+` FROM gl_mappings WHERE org_id=$1 AND id=$2`, orgID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Mapping{}, shared.ErrMappingNotFound
		}
		return Mapping{}, err
	}
	return m, nil
}

// Insert relies on the partial unique indexes over (org_id, branch_id)
// to reject a second row for the same scope.
func (r *repository) Insert(ctx context.Context, mapping Mapping) (Mapping, error) {
	roleJSON, err := json.Marshal(mapping.RoleAccounts)
	if err != nil {
		return Mapping{}, err
	}
	row := r.db.QueryRow(ctx, `INSERT INTO gl_mappings (org_id, branch_id, role_accounts, auto_post_enabled)
VALUES ($1,$2,$3,$4) RETURNING `+mappingColumns, mapping.OrgID, mapping.BranchID, roleJSON, mapping.AutoPostEnabled)
	inserted, err := scanMapping(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Mapping{}, shared.ErrMappingConflict
		}
		return Mapping{}, err
	}
	return inserted, nil
}

func (r *repository) Update(ctx context.Context, mapping Mapping) (Mapping, error) {
	roleJSON, err := json.Marshal(mapping.RoleAccounts)
	if err != nil {
		return Mapping{}, err
	}
	row := r.db.QueryRow(ctx, `UPDATE gl_mappings SET role_accounts=$3, auto_post_enabled=$4, updated_at=NOW()
WHERE org_id=$1 AND id=$2 RETURNING `+mappingColumns, mapping.OrgID, mapping.ID, roleJSON, mapping.AutoPostEnabled)
	updated, err := scanMapping(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Mapping{}, shared.ErrMappingNotFound
		}
		return Mapping{}, err
	}
	return updated, nil
}

func (r *repository) Delete(ctx context.Context, orgID, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM gl_mappings WHERE org_id=$1 AND id=$2`, orgID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrMappingNotFound
	}
	return nil
}

func (r *repository) HasAny(ctx context.Context, orgID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM gl_mappings WHERE org_id=$1)`, orgID).Scan(&exists)
	return exists, err
}
