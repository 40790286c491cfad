package mappings

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tabella-hq/tabella/internal/ledger/shared"
	"github.com/tabella-hq/tabella/internal/platform/httpx"
	internalShared "github.com/tabella-hq/tabella/internal/shared"
)

// Handler exposes mapping CRUD for operator tooling.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers mapping routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/mappings", h.list)
	r.Post("/mappings", h.create)
	r.Put("/mappings/{id}", h.update)
	r.Delete("/mappings/{id}", h.remove)
}

type mappingPayload struct {
	BranchID        *int64         `json:"branch_id"`
	RoleAccounts    map[Role]int64 `json:"role_accounts" validate:"required,min=1"`
	AutoPostEnabled bool           `json:"auto_post_enabled"`
}

type mappingResponse struct {
	ID              int64          `json:"id"`
	OrgID           int64          `json:"org_id"`
	BranchID        *int64         `json:"branch_id,omitempty"`
	RoleAccounts    map[Role]int64 `json:"role_accounts"`
	AutoPostEnabled bool           `json:"auto_post_enabled"`
}

func toResponse(m Mapping) mappingResponse {
	return mappingResponse{
		ID:              m.ID,
		OrgID:           m.OrgID,
		BranchID:        m.BranchID,
		RoleAccounts:    m.RoleAccounts,
		AutoPostEnabled: m.AutoPostEnabled,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	orgID, ok := internalShared.OrgFromRequest(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "org scope required")
		return
	}
	out, err := h.service.List(r.Context(), orgID)
	if err != nil {
		h.logger.Error("list mappings", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	resp := make([]mappingResponse, 0, len(out))
	for _, m := range out {
		resp = append(resp, toResponse(m))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"mappings": resp})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	orgID, actor, ok := h.authorize(w, r)
	if !ok {
		return
	}
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}
	created, err := h.service.Create(r.Context(), Mapping{
		OrgID:           orgID,
		BranchID:        payload.BranchID,
		RoleAccounts:    payload.RoleAccounts,
		AutoPostEnabled: payload.AutoPostEnabled,
	}, actor.ID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	orgID, actor, ok := h.authorize(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid mapping id")
		return
	}
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}
	updated, err := h.service.Update(r.Context(), Mapping{
		ID:              id,
		OrgID:           orgID,
		RoleAccounts:    payload.RoleAccounts,
		AutoPostEnabled: payload.AutoPostEnabled,
	}, actor.ID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	orgID, actor, ok := h.authorize(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid mapping id")
		return
	}
	if err := h.service.Delete(r.Context(), orgID, id, actor.ID); err != nil {
		h.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) authorize(w http.ResponseWriter, r *http.Request) (int64, internalShared.Actor, bool) {
	orgID, ok := internalShared.OrgFromRequest(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "org scope required")
		return 0, internalShared.Actor{}, false
	}
	actor := internalShared.ActorFromRequest(r)
	if !actor.IsElevated() {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "mapping changes require manager role")
		return 0, internalShared.Actor{}, false
	}
	return orgID, actor, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (mappingPayload, bool) {
	var payload mappingPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return mappingPayload{}, false
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return mappingPayload{}, false
	}
	for role := range payload.RoleAccounts {
		if !isKnownRole(role) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown role "+string(role))
			return mappingPayload{}, false
		}
	}
	return payload, true
}

func isKnownRole(role Role) bool {
	for _, known := range KnownRoles {
		if role == known {
			return true
		}
	}
	return false
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrMappingConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrMappingNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrAccountNotFound):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("mapping mutation", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
