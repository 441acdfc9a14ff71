package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/pharos-erp/pharos-erp/internal/assets"
	"github.com/pharos-erp/pharos-erp/internal/ledger/accounts"
	"github.com/pharos-erp/pharos-erp/internal/ledger/journal"
	"github.com/pharos-erp/pharos-erp/internal/ledger/statements"
	"github.com/pharos-erp/pharos-erp/internal/observability"
	"github.com/pharos-erp/pharos-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	AccountsHandler   *accounts.Handler
	JournalHandler    *journal.Handler
	StatementsHandler *statements.Handler
	AssetsHandler     *assets.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router for the ledger service.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/ledger", func(r chi.Router) {
		if params.AccountsHandler != nil {
			r.Route("/accounts", params.AccountsHandler.MountRoutes)
		}
		if params.JournalHandler != nil {
			r.Route("/journal", params.JournalHandler.MountRoutes)
		}
		if params.StatementsHandler != nil {
			params.StatementsHandler.MountRoutes(r)
		}
	})

	if params.AssetsHandler != nil {
		r.Route("/assets", params.AssetsHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	return r
}
