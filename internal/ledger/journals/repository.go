package journals

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tabella-hq/tabella/internal/ledger/periods"
	"github.com/tabella-hq/tabella/internal/ledger/shared"
	"github.com/tabella-hq/tabella/internal/platform/db"
)

// Repository encapsulates DB operations for journal entries.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	FindBySource(ctx context.Context, sourceTag string, sourceID uuid.UUID) (JournalEntry, error)
	GetWithLines(ctx context.Context, entryID int64) (JournalEntry, error)
	List(ctx context.Context, orgID int64, f Filters) ([]JournalEntry, error)
	ListWithLines(ctx context.Context, orgID int64, f Filters) ([]JournalEntry, error)
	RecordOutcome(ctx context.Context, outcome PostingOutcome) error
	CountOutcomes(ctx context.Context, orgID int64) (map[PostingStatus]int64, error)
	ListOutcomes(ctx context.Context, orgID int64, status PostingStatus) ([]PostingOutcome, error)
}

// TxRepository exposes the operations available inside a posting transaction.
type TxRepository interface {
	// PeriodStatus is a point-in-time read at transaction start; a period
	// closing after this snapshot is an accepted race.
	PeriodStatus(ctx context.Context, orgID int64, date time.Time) (periods.PeriodStatus, error)
	InsertEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error)
	InsertLines(ctx context.Context, entryID int64, lines []JournalLine) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const entryColumns = `id, org_id, branch_id, source, source_id, effective_date, memo, created_at`

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	err := row.Scan(&e.ID, &e.OrgID, &e.BranchID, &e.SourceTag, &e.SourceID, &e.EffectiveDate, &e.Memo, &e.CreatedAt)
	return e, err
}

func (r *repository) FindBySource(ctx context.Context, sourceTag string, sourceID uuid.UUID) (JournalEntry, error) {
	entry, err := scanEntry(r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE source=$1 AND source_id=$2`, sourceTag, sourceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrJournalNotFound
		}
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *repository) GetWithLines(ctx context.Context, entryID int64) (JournalEntry, error) {
	entry, err := scanEntry(r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1`, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrJournalNotFound
		}
		return JournalEntry{}, err
	}
	rows, err := r.db.Query(ctx, `SELECT id, je_id, account_id, debit, credit FROM journal_lines WHERE je_id=$1 ORDER BY id ASC`, entryID)
	if err != nil {
		return JournalEntry{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line JournalLine
		if err := rows.Scan(&line.ID, &line.JournalEntryID, &line.AccountID, &line.Debit, &line.Credit); err != nil {
			return JournalEntry{}, err
		}
		entry.Lines = append(entry.Lines, line)
	}
	return entry, rows.Err()
}

func listQuery(orgID int64, f Filters) (string, []any) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE org_id=$1`
	args := []any{orgID}
	if f.BranchID != nil {
		args = append(args, *f.BranchID)
		query += ` AND branch_id=$` + itoa(len(args))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		query += ` AND effective_date >= $` + itoa(len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		query += ` AND effective_date <= $` + itoa(len(args))
	}
	if f.SourceTag != "" {
		args = append(args, f.SourceTag)
		query += ` AND source=$` + itoa(len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += ` AND (source, source_id) IN (SELECT source, source_id FROM (
SELECT DISTINCT ON (source, source_id) source, source_id, status FROM posting_outcomes
WHERE org_id=$1 ORDER BY source, source_id, occurred_at DESC) latest WHERE latest.status=$` + itoa(len(args)) + `)`
	}
	query += ` ORDER BY effective_date ASC, id ASC`
	return query, args
}

func (r *repository) List(ctx context.Context, orgID int64, f Filters) ([]JournalEntry, error) {
	query, args := listQuery(orgID, f)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *repository) ListWithLines(ctx context.Context, orgID int64, f Filters) ([]JournalEntry, error) {
	entries, err := r.List(ctx, orgID, f)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return entries, nil
	}
	ids := make([]int64, len(entries))
	index := make(map[int64]int, len(entries))
	for i, entry := range entries {
		ids[i] = entry.ID
		index[entry.ID] = i
	}
	rows, err := r.db.Query(ctx, `SELECT id, je_id, account_id, debit, credit FROM journal_lines WHERE je_id = ANY($1) ORDER BY je_id ASC, id ASC`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var line JournalLine
		if err := rows.Scan(&line.ID, &line.JournalEntryID, &line.AccountID, &line.Debit, &line.Credit); err != nil {
			return nil, err
		}
		if i, ok := index[line.JournalEntryID]; ok {
			entries[i].Lines = append(entries[i].Lines, line)
		}
	}
	return entries, rows.Err()
}

func (r *repository) RecordOutcome(ctx context.Context, outcome PostingOutcome) error {
	_, err := r.db.Exec(ctx, `INSERT INTO posting_outcomes (org_id, source, source_id, status, je_id, error, occurred_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		outcome.OrgID, outcome.SourceTag, outcome.SourceID, outcome.Status, nullID(outcome.JournalEntryID), outcome.Err, outcome.At)
	return err
}

func (r *repository) CountOutcomes(ctx context.Context, orgID int64) (map[PostingStatus]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT ON (source, source_id) status FROM posting_outcomes
WHERE org_id=$1 ORDER BY source, source_id, occurred_at DESC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[PostingStatus]int64)
	for rows.Next() {
		var status PostingStatus
		if err := rows.Scan(&status); err != nil {
			return nil, err
		}
		counts[status]++
	}
	return counts, rows.Err()
}

// ListOutcomes returns the latest posting outcome per source document,
// optionally narrowed to one status. FAILED and SKIPPED sources have no
// journal entry, so this is the query behind the replay workflow.
func (r *repository) ListOutcomes(ctx context.Context, orgID int64, status PostingStatus) ([]PostingOutcome, error) {
	query := `SELECT org_id, source, source_id, status, je_id, error, occurred_at FROM (
SELECT DISTINCT ON (source, source_id) org_id, source, source_id, status, je_id, error, occurred_at
FROM posting_outcomes WHERE org_id=$1 ORDER BY source, source_id, occurred_at DESC) latest`
	args := []any{orgID}
	if status != "" {
		args = append(args, status)
		query += ` WHERE latest.status=$2`
	}
	query += ` ORDER BY occurred_at DESC`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var outcomes []PostingOutcome
	for rows.Next() {
		var outcome PostingOutcome
		var entryID *int64
		if err := rows.Scan(&outcome.OrgID, &outcome.SourceTag, &outcome.SourceID, &outcome.Status, &entryID, &outcome.Err, &outcome.At); err != nil {
			return nil, err
		}
		if entryID != nil {
			outcome.JournalEntryID = *entryID
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, rows.Err()
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) PeriodStatus(ctx context.Context, orgID int64, date time.Time) (periods.PeriodStatus, error) {
	var status periods.PeriodStatus
	err := r.tx.QueryRow(ctx, `SELECT status FROM accounting_periods WHERE org_id=$1 AND year=$2 AND month=$3`,
		orgID, date.Year(), int(date.Month())).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return periods.PeriodStatusOpen, nil
		}
		return "", err
	}
	return status, nil
}

// InsertEntry translates the unique-constraint violation on
// (source, source_id) into ErrSourceConflict so the service can treat a
// concurrent duplicate as already posted.
func (r *txRepository) InsertEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (org_id, branch_id, source, source_id, effective_date, memo)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id, created_at`,
		entry.OrgID, entry.BranchID, entry.SourceTag, entry.SourceID, entry.EffectiveDate, entry.Memo)
	inserted := entry
	if err := row.Scan(&inserted.ID, &inserted.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return JournalEntry{}, shared.ErrSourceConflict
		}
		return JournalEntry{}, err
	}
	return inserted, nil
}

func (r *txRepository) InsertLines(ctx context.Context, entryID int64, lines []JournalLine) error {
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO journal_lines (je_id, account_id, debit, credit) VALUES ($1,$2,$3,$4)`,
			entryID, line.AccountID, line.Debit, line.Credit); err != nil {
			return err
		}
	}
	return nil
}

// Helpers

func nullID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
