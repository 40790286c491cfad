package mappings

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/tabella-hq/tabella/internal/ledger/shared"
	internalShared "github.com/tabella-hq/tabella/internal/shared"
)

// AccountDirectory verifies that mapped accounts exist in the org.
type AccountDirectory interface {
	Exists(ctx context.Context, orgID int64, accountIDs []int64) (bool, error)
}

// AuditPort records mapping mutations.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// Service resolves and administers GL mappings.
type Service struct {
	repo     Repository
	accounts AccountDirectory
	audit    AuditPort
	now      func() time.Time
}

func NewService(repo Repository, accounts AccountDirectory, audit AuditPort) *Service {
	return &Service{repo: repo, accounts: accounts, audit: audit, now: time.Now}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Resolve returns the effective mapping for the scope: the branch row
// when present, else the org default, else ErrMappingNotFound. Which
// roles are mandatory is the caller's concern, not enforced here.
func (s *Service) Resolve(ctx context.Context, orgID int64, branchID *int64) (Mapping, error) {
	if branchID != nil {
		mapping, err := s.repo.GetByScope(ctx, orgID, branchID)
		if err == nil {
			return mapping, nil
		}
		if !errors.Is(err, shared.ErrMappingNotFound) {
			return Mapping{}, err
		}
	}
	return s.repo.GetByScope(ctx, orgID, nil)
}

// List returns all mapping rows of the org, default scope first.
func (s *Service) List(ctx context.Context, orgID int64) ([]Mapping, error) {
	return s.repo.List(ctx, orgID)
}

// HasAny reports whether the org configured any mapping at all.
func (s *Service) HasAny(ctx context.Context, orgID int64) (bool, error) {
	return s.repo.HasAny(ctx, orgID)
}

// Create inserts a mapping for a scope that must not be configured yet.
func (s *Service) Create(ctx context.Context, mapping Mapping, actorID int64) (Mapping, error) {
	if err := s.checkAccounts(ctx, mapping); err != nil {
		return Mapping{}, err
	}
	created, err := s.repo.Insert(ctx, mapping)
	if err != nil {
		return Mapping{}, err
	}
	s.recordAudit(ctx, actorID, "gl_mapping.create", created)
	return created, nil
}

// Update replaces role accounts and the auto-post flag of an existing row.
func (s *Service) Update(ctx context.Context, mapping Mapping, actorID int64) (Mapping, error) {
	if err := s.checkAccounts(ctx, mapping); err != nil {
		return Mapping{}, err
	}
	updated, err := s.repo.Update(ctx, mapping)
	if err != nil {
		return Mapping{}, err
	}
	s.recordAudit(ctx, actorID, "gl_mapping.update", updated)
	return updated, nil
}

// Delete removes a mapping row.
func (s *Service) Delete(ctx context.Context, orgID, id int64, actorID int64) error {
	if err := s.repo.Delete(ctx, orgID, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "gl_mapping.delete", Mapping{ID: id, OrgID: orgID})
	return nil
}

func (s *Service) checkAccounts(ctx context.Context, mapping Mapping) error {
	if s.accounts == nil {
		return nil
	}
	ids := make([]int64, 0, len(mapping.RoleAccounts))
	for _, id := range mapping.RoleAccounts {
		if id != 0 {
			ids = append(ids, id)
		}
	}
	ok, err := s.accounts.Exists(ctx, mapping.OrgID, ids)
	if err != nil {
		return err
	}
	if !ok {
		return shared.ErrAccountNotFound
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, mapping Mapping) {
	if s.audit == nil {
		return
	}
	meta := map[string]any{"auto_post_enabled": mapping.AutoPostEnabled}
	if mapping.BranchID != nil {
		meta["branch_id"] = *mapping.BranchID
	}
	_ = s.audit.Record(ctx, internalShared.AuditLog{
		ActorID:  actorID,
		OrgID:    mapping.OrgID,
		Action:   action,
		Entity:   "gl_mapping",
		EntityID: strconv.FormatInt(mapping.ID, 10),
		Meta:     meta,
		At:       s.now(),
	})
}
