package periods

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository encapsulates DB operations for the period registry.
type Repository interface {
	Get(ctx context.Context, orgID int64, year int, month time.Month) (Period, bool, error)
	Upsert(ctx context.Context, period Period) (Period, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, orgID int64, year int, month time.Month) (Period, bool, error) {
	var p Period
	var monthNum int
	err := r.db.QueryRow(ctx, `SELECT id, org_id, year, month, status, closed_at, created_at, updated_at
FROM accounting_periods WHERE org_id=$1 AND year=$2 AND month=$3`, orgID, year, int(month)).
		Scan(&p.ID, &p.OrgID, &p.Year, &monthNum, &p.Status, &p.ClosedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, false, nil
		}
		return Period{}, false, err
	}
	p.Month = time.Month(monthNum)
	return p, true, nil
}

func (r *repository) Upsert(ctx context.Context, period Period) (Period, error) {
	var p = period
	var monthNum int
	err := r.db.QueryRow(ctx, `INSERT INTO accounting_periods (org_id, year, month, status, closed_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (org_id, year, month) DO UPDATE SET status=EXCLUDED.status, closed_at=EXCLUDED.closed_at, updated_at=NOW()
RETURNING id, org_id, year, month, status, closed_at, created_at, updated_at`,
		period.OrgID, period.Year, int(period.Month), period.Status, period.ClosedAt).
		Scan(&p.ID, &p.OrgID, &p.Year, &monthNum, &p.Status, &p.ClosedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Period{}, err
	}
	p.Month = time.Month(monthNum)
	return p, nil
}
