package journals

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tabella-hq/tabella/internal/platform/httpx"
	internalShared "github.com/tabella-hq/tabella/internal/shared"
)

// MappingStatusPort answers whether an org has any mapping configured.
type MappingStatusPort interface {
	HasAny(ctx context.Context, orgID int64) (bool, error)
}

// Handler wires ledger query endpoints.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	mappings    MappingStatusPort
	statusCache *StatusCache
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mappings MappingStatusPort, statusCache *StatusCache) *Handler {
	return &Handler{logger: logger, service: service, mappings: mappings, statusCache: statusCache}
}

// MountRoutes registers HTTP routes for the ledger module.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/journals", h.list)
	r.Get("/journals/export.csv", h.exportCSV)
	r.Get("/journals/outcomes", h.outcomes)
	r.Get("/status", h.status)
}

type entryResponse struct {
	ID            int64          `json:"id"`
	BranchID      *int64         `json:"branch_id,omitempty"`
	Source        string         `json:"source"`
	SourceID      string         `json:"source_id"`
	EffectiveDate string         `json:"effective_date"`
	Memo          string         `json:"memo,omitempty"`
	Lines         []lineResponse `json:"lines,omitempty"`
}

type lineResponse struct {
	AccountID int64  `json:"account_id"`
	Debit     string `json:"debit"`
	Credit    string `json:"credit"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	orgID, ok := internalShared.OrgFromRequest(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "org scope required")
		return
	}
	filters, ok := parseFilters(w, r)
	if !ok {
		return
	}
	entries, err := h.service.List(r.Context(), orgID, filters)
	if err != nil {
		h.logger.Error("list journals", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	resp := make([]entryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, toEntryResponse(entry))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"journals": resp})
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	orgID, ok := internalShared.OrgFromRequest(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "org scope required")
		return
	}
	filters, ok := parseFilters(w, r)
	if !ok {
		return
	}
	data, digest, err := h.service.Export(r.Context(), orgID, filters)
	if err != nil {
		h.logger.Error("export journals", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="ledger_export.csv"`)
	w.Header().Set("X-Content-Digest", "sha256:"+digest)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type outcomeResponse struct {
	Source         string `json:"source"`
	SourceID       string `json:"source_id"`
	Status         string `json:"status"`
	JournalEntryID *int64 `json:"journal_entry_id,omitempty"`
	Error          string `json:"error,omitempty"`
	At             string `json:"at"`
}

// outcomes lists the latest posting outcome per source document. Unlike
// /journals this covers FAILED and SKIPPED documents, which never got a
// journal entry; operators filter by status to find what needs replay.
func (h *Handler) outcomes(w http.ResponseWriter, r *http.Request) {
	orgID, ok := internalShared.OrgFromRequest(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "org scope required")
		return
	}
	status, ok := parseStatus(w, r.URL.Query().Get("status"))
	if !ok {
		return
	}
	outcomes, err := h.service.ListOutcomes(r.Context(), orgID, status)
	if err != nil {
		h.logger.Error("list posting outcomes", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	resp := make([]outcomeResponse, 0, len(outcomes))
	for _, outcome := range outcomes {
		item := outcomeResponse{
			Source:   outcome.SourceTag,
			SourceID: outcome.SourceID.String(),
			Status:   string(outcome.Status),
			Error:    outcome.Err,
			At:       outcome.At.UTC().Format(time.RFC3339),
		}
		if outcome.JournalEntryID != 0 {
			id := outcome.JournalEntryID
			item.JournalEntryID = &id
		}
		resp = append(resp, item)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"outcomes": resp})
}

type statusResponse struct {
	MappingConfigured bool             `json:"mapping_configured"`
	Counts            map[string]int64 `json:"posting_counts"`
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	orgID, ok := internalShared.OrgFromRequest(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "org scope required")
		return
	}
	var resp statusResponse
	err := h.statusCache.Fetch(r.Context(), statusKey(orgID), &resp, func(ctx context.Context) (any, error) {
		configured, err := h.mappings.HasAny(ctx, orgID)
		if err != nil {
			return nil, err
		}
		counts, err := h.service.CountsByStatus(ctx, orgID)
		if err != nil {
			return nil, err
		}
		out := statusResponse{MappingConfigured: configured, Counts: make(map[string]int64, len(counts))}
		for status, count := range counts {
			out.Counts[string(status)] = count
		}
		return out, nil
	})
	if err != nil {
		h.logger.Error("ledger status", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func statusKey(orgID int64) string {
	return "ledger:status:" + strconv.FormatInt(orgID, 10)
}

func toEntryResponse(entry JournalEntry) entryResponse {
	resp := entryResponse{
		ID:            entry.ID,
		BranchID:      entry.BranchID,
		Source:        entry.SourceTag,
		SourceID:      entry.SourceID.String(),
		EffectiveDate: entry.EffectiveDate.Format("2006-01-02"),
		Memo:          entry.Memo,
	}
	for _, line := range entry.Lines {
		resp.Lines = append(resp.Lines, lineResponse{
			AccountID: line.AccountID,
			Debit:     line.Debit.StringFixed(2),
			Credit:    line.Credit.StringFixed(2),
		})
	}
	return resp
}

func parseFilters(w http.ResponseWriter, r *http.Request) (Filters, bool) {
	var f Filters
	query := r.URL.Query()
	if raw := query.Get("branch_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid branch_id")
			return Filters{}, false
		}
		f.BranchID = &id
	}
	if raw := query.Get("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid from date")
			return Filters{}, false
		}
		f.From = t
	}
	if raw := query.Get("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid to date")
			return Filters{}, false
		}
		f.To = t
	}
	f.SourceTag = query.Get("source")
	status, ok := parseStatus(w, query.Get("status"))
	if !ok {
		return Filters{}, false
	}
	f.Status = status
	return f, true
}

func parseStatus(w http.ResponseWriter, raw string) (PostingStatus, bool) {
	if raw == "" {
		return "", true
	}
	switch status := PostingStatus(raw); status {
	case PostingStatusPending, PostingStatusPosted, PostingStatusFailed, PostingStatusSkipped:
		return status, true
	default:
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid status")
		return "", false
	}
}
