package mappings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tabella-hq/tabella/internal/ledger/shared"
)

type memoryRepo struct {
	nextID int64
	rows   []Mapping
}

func (r *memoryRepo) List(_ context.Context, orgID int64) ([]Mapping, error) {
	var out []Mapping
	for _, m := range r.rows {
		if m.OrgID == orgID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memoryRepo) GetByScope(_ context.Context, orgID int64, branchID *int64) (Mapping, error) {
	for _, m := range r.rows {
		if m.OrgID != orgID {
			continue
		}
		if branchID == nil && m.BranchID == nil {
			return m, nil
		}
		if branchID != nil && m.BranchID != nil && *m.BranchID == *branchID {
			return m, nil
		}
	}
	return Mapping{}, shared.ErrMappingNotFound
}

func (r *memoryRepo) GetByID(_ context.Context, orgID, id int64) (Mapping, error) {
	for _, m := range r.rows {
		if m.OrgID == orgID && m.ID == id {
			return m, nil
		}
	}
	return Mapping{}, shared.ErrMappingNotFound
}

func (r *memoryRepo) Insert(_ context.Context, mapping Mapping) (Mapping, error) {
	for _, m := range r.rows {
		sameScope := (m.BranchID == nil && mapping.BranchID == nil) ||
			(m.BranchID != nil && mapping.BranchID != nil && *m.BranchID == *mapping.BranchID)
		if m.OrgID == mapping.OrgID && sameScope {
			return Mapping{}, shared.ErrMappingConflict
		}
	}
	r.nextID++
	mapping.ID = r.nextID
	r.rows = append(r.rows, mapping)
	return mapping, nil
}

func (r *memoryRepo) Update(_ context.Context, mapping Mapping) (Mapping, error) {
	for i, m := range r.rows {
		if m.OrgID == mapping.OrgID && m.ID == mapping.ID {
			r.rows[i].RoleAccounts = mapping.RoleAccounts
			r.rows[i].AutoPostEnabled = mapping.AutoPostEnabled
			return r.rows[i], nil
		}
	}
	return Mapping{}, shared.ErrMappingNotFound
}

func (r *memoryRepo) Delete(_ context.Context, orgID, id int64) error {
	for i, m := range r.rows {
		if m.OrgID == orgID && m.ID == id {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return shared.ErrMappingNotFound
}

func (r *memoryRepo) HasAny(_ context.Context, orgID int64) (bool, error) {
	for _, m := range r.rows {
		if m.OrgID == orgID {
			return true, nil
		}
	}
	return false, nil
}

type stubDirectory struct {
	missing bool
}

func (d stubDirectory) Exists(context.Context, int64, []int64) (bool, error) {
	return !d.missing, nil
}

func branchID(v int64) *int64 { return &v }

func TestResolvePrefersBranchOverOrgDefault(t *testing.T) {
	repo := &memoryRepo{rows: []Mapping{
		{ID: 1, OrgID: 1, RoleAccounts: map[Role]int64{RoleCashOnHand: 1000}},
		{ID: 2, OrgID: 1, BranchID: branchID(7), RoleAccounts: map[Role]int64{RoleCashOnHand: 1700}},
	}}
	svc := NewService(repo, stubDirectory{}, nil)

	resolved, err := svc.Resolve(context.Background(), 1, branchID(7))
	require.NoError(t, err)
	require.Equal(t, int64(2), resolved.ID)
	account, ok := resolved.AccountFor(RoleCashOnHand)
	require.True(t, ok)
	require.Equal(t, int64(1700), account)
}

func TestResolveFallsBackToOrgDefault(t *testing.T) {
	repo := &memoryRepo{rows: []Mapping{
		{ID: 1, OrgID: 1, RoleAccounts: map[Role]int64{RoleCashOnHand: 1000}},
	}}
	svc := NewService(repo, stubDirectory{}, nil)

	resolved, err := svc.Resolve(context.Background(), 1, branchID(7))
	require.NoError(t, err)
	require.Equal(t, int64(1), resolved.ID)
}

func TestResolveWithoutAnyMapping(t *testing.T) {
	svc := NewService(&memoryRepo{}, stubDirectory{}, nil)

	_, err := svc.Resolve(context.Background(), 1, branchID(7))
	require.ErrorIs(t, err, shared.ErrMappingNotFound)
}

func TestCreateRejectsUnknownAccounts(t *testing.T) {
	svc := NewService(&memoryRepo{}, stubDirectory{missing: true}, nil)

	_, err := svc.Create(context.Background(), Mapping{
		OrgID:        1,
		RoleAccounts: map[Role]int64{RoleCashOnHand: 9999},
	}, 1)
	require.ErrorIs(t, err, shared.ErrAccountNotFound)
}

func TestCreateRejectsDuplicateScope(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, stubDirectory{}, nil)

	mapping := Mapping{OrgID: 1, RoleAccounts: map[Role]int64{RoleCashOnHand: 1000}}
	_, err := svc.Create(context.Background(), mapping, 1)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), mapping, 1)
	require.ErrorIs(t, err, shared.ErrMappingConflict)
}

func TestUpdateReplacesRoleAccounts(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, stubDirectory{}, nil)

	created, err := svc.Create(context.Background(), Mapping{
		OrgID:        1,
		RoleAccounts: map[Role]int64{RoleCashOnHand: 1000},
	}, 1)
	require.NoError(t, err)

	created.RoleAccounts = map[Role]int64{RoleCashOnHand: 1100, RoleCashOverShort: 6900}
	created.AutoPostEnabled = true
	updated, err := svc.Update(context.Background(), created, 1)
	require.NoError(t, err)
	require.True(t, updated.AutoPostEnabled)
	account, ok := updated.AccountFor(RoleCashOverShort)
	require.True(t, ok)
	require.Equal(t, int64(6900), account)
}

func TestHasAny(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo, stubDirectory{}, nil)

	ok, err := svc.HasAny(context.Background(), 1)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = svc.Create(context.Background(), Mapping{OrgID: 1, RoleAccounts: map[Role]int64{RoleCashOnHand: 1000}}, 1)
	require.NoError(t, err)

	ok, err = svc.HasAny(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, ok)
}
