package periods

import (
	"context"
	"time"

	internalShared "github.com/tabella-hq/tabella/internal/shared"
	"github.com/tabella-hq/tabella/internal/ledger/shared"
)

// AuditPort records period administration actions.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// Service manages the per-org period registry.
type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// StatusFor returns the posting status for the month containing date.
// An org with no registry row for that month is open for posting.
func (s *Service) StatusFor(ctx context.Context, orgID int64, date time.Time) (PeriodStatus, error) {
	period, found, err := s.repo.Get(ctx, orgID, date.Year(), date.Month())
	if err != nil {
		return "", err
	}
	if !found {
		return PeriodStatusOpen, nil
	}
	return period.Status, nil
}

// Close freezes the month against further postings.
func (s *Service) Close(ctx context.Context, orgID int64, year int, month time.Month, actorID int64) (Period, error) {
	existing, found, err := s.repo.Get(ctx, orgID, year, month)
	if err != nil {
		return Period{}, err
	}
	if found && existing.Status == PeriodStatusClosed {
		return Period{}, shared.ErrPeriodConflict
	}
	closedAt := s.now()
	updated, err := s.repo.Upsert(ctx, Period{OrgID: orgID, Year: year, Month: month, Status: PeriodStatusClosed, ClosedAt: &closedAt})
	if err != nil {
		return Period{}, err
	}
	s.recordAudit(ctx, actorID, "period.close", updated)
	return updated, nil
}

// Reopen lifts the freeze so failed postings can be replayed.
func (s *Service) Reopen(ctx context.Context, orgID int64, year int, month time.Month, actorID int64) (Period, error) {
	existing, found, err := s.repo.Get(ctx, orgID, year, month)
	if err != nil {
		return Period{}, err
	}
	if !found || existing.Status == PeriodStatusOpen {
		return Period{}, shared.ErrPeriodConflict
	}
	updated, err := s.repo.Upsert(ctx, Period{OrgID: orgID, Year: year, Month: month, Status: PeriodStatusOpen})
	if err != nil {
		return Period{}, err
	}
	s.recordAudit(ctx, actorID, "period.reopen", updated)
	return updated, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, period Period) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, internalShared.AuditLog{
		ActorID:  actorID,
		OrgID:    period.OrgID,
		Action:   action,
		Entity:   "accounting_period",
		EntityID: period.Label(),
		Meta: map[string]any{
			"status": string(period.Status),
		},
		At: s.now(),
	})
}
