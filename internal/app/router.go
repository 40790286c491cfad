package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tabella-hq/tabella/internal/ledger/accounts"
	"github.com/tabella-hq/tabella/internal/ledger/journals"
	"github.com/tabella-hq/tabella/internal/ledger/mappings"
	"github.com/tabella-hq/tabella/internal/ledger/periods"
	"github.com/tabella-hq/tabella/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	AccountsHandler *accounts.Handler
	MappingsHandler *mappings.Handler
	PeriodsHandler  *periods.Handler
	JournalsHandler *journals.Handler
	JobHandler      *jobs.Handler
}

// NewRouter constructs the chi.Router with service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(params.Config) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/ledger", func(r chi.Router) {
		params.AccountsHandler.MountRoutes(r)
		params.MappingsHandler.MountRoutes(r)
		params.PeriodsHandler.MountRoutes(r)
		params.JournalsHandler.MountRoutes(r)
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	return r
}
