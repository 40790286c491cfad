package journals

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type stubMappingStatus struct {
	configured bool
}

func (s stubMappingStatus) HasAny(context.Context, int64) (bool, error) {
	return s.configured, nil
}

func newTestRouter(t *testing.T, repo *memoryRepo, mappingStatus MappingStatusPort) http.Handler {
	t.Helper()
	svc, _ := newTestService(repo, stubResolver{mapping: defaultMapping()})
	handler := NewHandler(slog.Default(), svc, mappingStatus, NewStatusCache(nil, time.Minute))
	r := chi.NewRouter()
	handler.MountRoutes(r)
	return r
}

func TestListRequiresOrgHeader(t *testing.T) {
	router := newTestRouter(t, newMemoryRepo(), stubMappingStatus{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/journals", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListReturnsOrgEntries(t *testing.T) {
	repo := seedExportRepo(t)
	router := newTestRouter(t, repo, stubMappingStatus{})

	req := httptest.NewRequest(http.MethodGet, "/journals?source=INV_WASTE", nil)
	req.Header.Set("X-Org-ID", "1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Journals []entryResponse `json:"journals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Journals, 1)
	require.Equal(t, "INV_WASTE", body.Journals[0].Source)
	require.Equal(t, "2026-03-11", body.Journals[0].EffectiveDate)
}

func TestListRejectsBadDateFilter(t *testing.T) {
	router := newTestRouter(t, newMemoryRepo(), stubMappingStatus{})

	req := httptest.NewRequest(http.MethodGet, "/journals?from=March-1st", nil)
	req.Header.Set("X-Org-ID", "1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRejectsUnknownStatusFilter(t *testing.T) {
	router := newTestRouter(t, newMemoryRepo(), stubMappingStatus{})

	req := httptest.NewRequest(http.MethodGet, "/journals?status=BOGUS", nil)
	req.Header.Set("X-Org-ID", "1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOutcomesEndpointListsFailures(t *testing.T) {
	repo := newMemoryRepo()
	svc, _ := newTestService(repo, stubResolver{mapping: defaultMapping()})

	doc := receiptDoc("50.00")
	repo.closePeriod(doc.OrgID, doc.EffectiveDate)
	result, err := svc.Post(context.Background(), doc)
	require.NoError(t, err)
	require.Equal(t, PostingStatusFailed, result.Status)

	handler := NewHandler(slog.Default(), svc, stubMappingStatus{}, NewStatusCache(nil, time.Minute))
	r := chi.NewRouter()
	handler.MountRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/journals/outcomes?status=FAILED", nil)
	req.Header.Set("X-Org-ID", "1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Outcomes []outcomeResponse `json:"outcomes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Outcomes, 1)
	require.Equal(t, "INV_GOODS_RECEIPT", body.Outcomes[0].Source)
	require.Equal(t, "FAILED", body.Outcomes[0].Status)
	require.Nil(t, body.Outcomes[0].JournalEntryID)
	require.NotEmpty(t, body.Outcomes[0].Error)
}

func TestExportResponseHeaders(t *testing.T) {
	repo := seedExportRepo(t)
	router := newTestRouter(t, repo, stubMappingStatus{})

	req := httptest.NewRequest(http.MethodGet, "/journals/export.csv", nil)
	req.Header.Set("X-Org-ID", "1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Equal(t, `attachment; filename="ledger_export.csv"`, rec.Header().Get("Content-Disposition"))

	digest := rec.Header().Get("X-Content-Digest")
	require.Regexp(t, `^sha256:[0-9a-f]{64}$`, digest)

	body := rec.Body.Bytes()
	require.Equal(t, []byte{0xEF, 0xBB, 0xBF}, body[:3])
}

func TestStatusEndpoint(t *testing.T) {
	repo := newMemoryRepo()
	svc, _ := newTestService(repo, stubResolver{mapping: defaultMapping()})

	_, err := svc.Post(context.Background(), receiptDoc("50.00"))
	require.NoError(t, err)

	handler := NewHandler(slog.Default(), svc, stubMappingStatus{configured: true}, NewStatusCache(nil, time.Minute))
	r := chi.NewRouter()
	handler.MountRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("X-Org-ID", "1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.MappingConfigured)
	require.Equal(t, int64(1), body.Counts["POSTED"])
}
