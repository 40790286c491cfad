package journals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tabella-hq/tabella/internal/ledger/mappings"
	"github.com/tabella-hq/tabella/internal/ledger/periods"
	"github.com/tabella-hq/tabella/internal/ledger/shared"
	internalShared "github.com/tabella-hq/tabella/internal/shared"
)

// MappingResolver resolves the effective role->account mapping for a scope.
type MappingResolver interface {
	Resolve(ctx context.Context, orgID int64, branchID *int64) (mappings.Mapping, error)
}

// AuditPort records posting failures and skips.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// Service is the posting engine: the only writer of journal rows.
type Service struct {
	repo     Repository
	resolver MappingResolver
	audit    AuditPort
	now      func() time.Time
}

func NewService(repo Repository, resolver MappingResolver, audit AuditPort) *Service {
	return &Service{repo: repo, resolver: resolver, audit: audit, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Post converts a source document into a balanced journal entry.
//
// Outcomes map to PostingResult statuses: POSTED on success or when an
// entry for (source, source_id) already exists, SKIPPED on configuration
// gaps, FAILED on a closed period or infrastructure trouble. Structural
// defects (unbalanced or malformed lines) return an error and persist
// nothing. A non-nil error alongside a FAILED result marks the failure
// as infrastructure-level and therefore retryable.
//
// The period status is a point-in-time read at transaction start; a
// period closing between that read and commit is an accepted race.
func (s *Service) Post(ctx context.Context, doc SourceDocument) (PostingResult, error) {
	if err := doc.Validate(); err != nil {
		return PostingResult{}, err
	}

	existing, err := s.repo.FindBySource(ctx, doc.SourceTag, doc.SourceID)
	if err == nil {
		return PostingResult{Status: PostingStatusPosted, JournalEntryID: existing.ID}, nil
	}
	if !errors.Is(err, shared.ErrJournalNotFound) {
		return s.fail(ctx, doc, err), err
	}

	mapping, err := s.resolver.Resolve(ctx, doc.OrgID, doc.BranchID)
	if err != nil {
		if errors.Is(err, shared.ErrMappingNotFound) {
			return s.skip(ctx, doc, "no GL mapping configured for org or branch"), nil
		}
		return s.fail(ctx, doc, err), err
	}
	if !mapping.AutoPostEnabled {
		return s.skip(ctx, doc, "auto-posting disabled for scope"), nil
	}

	lines, skipReason := buildLines(doc, mapping)
	if skipReason != "" {
		return s.skip(ctx, doc, skipReason), nil
	}

	entry := JournalEntry{
		OrgID:         doc.OrgID,
		BranchID:      doc.BranchID,
		SourceTag:     doc.SourceTag,
		SourceID:      doc.SourceID,
		EffectiveDate: doc.EffectiveDate,
		Memo:          doc.Memo,
		Lines:         lines,
	}
	return s.commit(ctx, doc, entry)
}

// Reverse emits a mirror-image entry for a previously posted one. The
// reversal carries the original's source id under the void tag, making
// it idempotent the same way first-time postings are. The original is
// never mutated; both entries stay queryable.
func (s *Service) Reverse(ctx context.Context, originalEntryID int64, reversalTag string) (PostingResult, error) {
	original, err := s.repo.GetWithLines(ctx, originalEntryID)
	if err != nil {
		return PostingResult{}, err
	}
	if reversalTag == "" {
		reversalTag = original.SourceTag + "_VOID"
	}

	existing, err := s.repo.FindBySource(ctx, reversalTag, original.SourceID)
	if err == nil {
		return PostingResult{Status: PostingStatusPosted, JournalEntryID: existing.ID}, nil
	}
	if !errors.Is(err, shared.ErrJournalNotFound) {
		return PostingResult{Status: PostingStatusFailed, Err: err.Error()}, err
	}

	reversal := JournalEntry{
		OrgID:         original.OrgID,
		BranchID:      original.BranchID,
		SourceTag:     reversalTag,
		SourceID:      original.SourceID,
		EffectiveDate: original.EffectiveDate,
		Memo:          fmt.Sprintf("Reversal of %s %s", original.SourceTag, original.SourceID),
		Lines:         reverseLines(original.Lines),
	}
	doc := SourceDocument{
		SourceTag:     reversalTag,
		SourceID:      original.SourceID,
		OrgID:         original.OrgID,
		BranchID:      original.BranchID,
		EffectiveDate: original.EffectiveDate,
	}
	return s.commit(ctx, doc, reversal)
}

// List returns entry headers matching the filters.
func (s *Service) List(ctx context.Context, orgID int64, f Filters) ([]JournalEntry, error) {
	return s.repo.List(ctx, orgID, f)
}

// CountsByStatus aggregates the latest posting outcome per source document.
func (s *Service) CountsByStatus(ctx context.Context, orgID int64) (map[PostingStatus]int64, error) {
	return s.repo.CountOutcomes(ctx, orgID)
}

// ListOutcomes returns the latest posting outcome per source document,
// optionally narrowed to one status. This is how operators enumerate
// FAILED and SKIPPED documents for replay.
func (s *Service) ListOutcomes(ctx context.Context, orgID int64, status PostingStatus) ([]PostingOutcome, error) {
	return s.repo.ListOutcomes(ctx, orgID, status)
}

// commit runs the transactional tail of a posting: period gate, header
// insert, line inserts. All-or-nothing; a concurrent duplicate insert is
// resolved to the surviving entry.
func (s *Service) commit(ctx context.Context, doc SourceDocument, entry JournalEntry) (PostingResult, error) {
	if len(entry.Lines) < 2 {
		return PostingResult{}, shared.ErrTooFewLines
	}
	if !balanced(entry.Lines) {
		return PostingResult{}, shared.ErrUnbalanced
	}

	var inserted JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		status, err := tx.PeriodStatus(ctx, entry.OrgID, entry.EffectiveDate)
		if err != nil {
			return err
		}
		if status == periods.PeriodStatusClosed {
			return fmt.Errorf("%w: %s", shared.ErrPeriodClosed, entry.EffectiveDate.Format("2006-01"))
		}
		inserted, err = tx.InsertEntry(ctx, entry)
		if err != nil {
			return err
		}
		return tx.InsertLines(ctx, inserted.ID, entry.Lines)
	})
	switch {
	case err == nil:
		result := PostingResult{Status: PostingStatusPosted, JournalEntryID: inserted.ID}
		s.recordOutcome(ctx, doc, result)
		return result, nil
	case errors.Is(err, shared.ErrSourceConflict):
		// Lost the race; the winning insert is the entry we wanted.
		winner, findErr := s.repo.FindBySource(ctx, doc.SourceTag, doc.SourceID)
		if findErr != nil {
			return s.fail(ctx, doc, findErr), findErr
		}
		return PostingResult{Status: PostingStatusPosted, JournalEntryID: winner.ID}, nil
	case errors.Is(err, shared.ErrPeriodClosed):
		result := PostingResult{Status: PostingStatusFailed, Err: err.Error()}
		s.recordOutcome(ctx, doc, result)
		return result, nil
	default:
		return s.fail(ctx, doc, err), err
	}
}

func (s *Service) skip(ctx context.Context, doc SourceDocument, reason string) PostingResult {
	result := PostingResult{Status: PostingStatusSkipped, Err: reason}
	s.recordOutcome(ctx, doc, result)
	return result
}

func (s *Service) fail(ctx context.Context, doc SourceDocument, cause error) PostingResult {
	result := PostingResult{Status: PostingStatusFailed, Err: cause.Error()}
	s.recordOutcome(ctx, doc, result)
	return result
}

func (s *Service) recordOutcome(ctx context.Context, doc SourceDocument, result PostingResult) {
	outcome := PostingOutcome{
		OrgID:          doc.OrgID,
		SourceTag:      doc.SourceTag,
		SourceID:       doc.SourceID,
		Status:         result.Status,
		JournalEntryID: result.JournalEntryID,
		Err:            result.Err,
		At:             s.now(),
	}
	_ = s.repo.RecordOutcome(ctx, outcome)
	if s.audit != nil && result.Status != PostingStatusPosted {
		_ = s.audit.Record(ctx, internalShared.AuditLog{
			OrgID:    doc.OrgID,
			Action:   "ledger.post." + string(result.Status),
			Entity:   "source_document",
			EntityID: doc.SourceTag + ":" + doc.SourceID.String(),
			Meta: map[string]any{
				"error": result.Err,
			},
			At: s.now(),
		})
	}
}

// buildLines maps each role amount onto a concrete account. A role with
// no mapped account is a configuration gap, not a defect, so it skips
// the document rather than erroring.
func buildLines(doc SourceDocument, mapping mappings.Mapping) ([]JournalLine, string) {
	lines := make([]JournalLine, 0, len(doc.Lines))
	for _, ra := range doc.Lines {
		amount := ra.Amount.Round(2)
		if amount.IsZero() {
			continue
		}
		accountID, ok := mapping.AccountFor(ra.Role)
		if !ok {
			return nil, fmt.Sprintf("role %s has no account mapped", ra.Role)
		}
		line := JournalLine{AccountID: accountID}
		if ra.Side == SideDebit {
			line.Debit = amount
		} else {
			line.Credit = amount
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return nil, "zero-value document"
	}
	return lines, ""
}

func reverseLines(lines []JournalLine) []JournalLine {
	out := make([]JournalLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, JournalLine{
			AccountID: line.AccountID,
			Debit:     line.Credit,
			Credit:    line.Debit,
		})
	}
	return out
}
