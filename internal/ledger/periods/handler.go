package periods

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tabella-hq/tabella/internal/ledger/shared"
	"github.com/tabella-hq/tabella/internal/platform/httpx"
	internalShared "github.com/tabella-hq/tabella/internal/shared"
)

// Handler exposes period administration endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers period routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/periods/{year}/{month}/close", h.close)
	r.Post("/periods/{year}/{month}/reopen", h.reopen)
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.Close)
}

func (h *Handler) reopen(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.Reopen)
}

type periodMutation func(ctx context.Context, orgID int64, year int, month time.Month, actorID int64) (Period, error)

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, fn periodMutation) {
	orgID, ok := internalShared.OrgFromRequest(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "org scope required")
		return
	}
	actor := internalShared.ActorFromRequest(r)
	if !actor.IsElevated() {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "period administration requires manager role")
		return
	}
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid year")
		return
	}
	monthNum, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || monthNum < 1 || monthNum > 12 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid month")
		return
	}
	period, err := fn(r.Context(), orgID, year, time.Month(monthNum), actor.ID)
	if err != nil {
		if errors.Is(err, shared.ErrPeriodConflict) {
			httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
			return
		}
		h.logger.Error("period mutation", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"period": period.Label(),
		"status": period.Status,
	})
}
