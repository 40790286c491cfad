package accounts

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tabella-hq/tabella/internal/platform/httpx"
	internalShared "github.com/tabella-hq/tabella/internal/shared"
)

// Handler serves the account directory read endpoints.
type Handler struct {
	logger *slog.Logger
	repo   Repository
}

func NewHandler(logger *slog.Logger, repo Repository) *Handler {
	return &Handler{logger: logger, repo: repo}
}

// MountRoutes registers the directory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/accounts", h.list)
}

type accountResponse struct {
	ID                int64  `json:"id"`
	Code              string `json:"code"`
	Name              string `json:"name"`
	Type              string `json:"type"`
	NormalBalanceSide string `json:"normal_balance_side"`
	IsActive          bool   `json:"is_active"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	orgID, ok := internalShared.OrgFromRequest(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "org scope required")
		return
	}
	items, err := h.repo.List(r.Context(), orgID)
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	resp := make([]accountResponse, 0, len(items))
	for _, a := range items {
		resp = append(resp, accountResponse{
			ID:                a.ID,
			Code:              a.Code,
			Name:              a.Name,
			Type:              string(a.Type),
			NormalBalanceSide: string(a.NormalBalanceSide),
			IsActive:          a.IsActive,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"accounts": resp})
}
