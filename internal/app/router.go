package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/gits-cloud/billing/internal/fxrates"
	"github.com/gits-cloud/billing/internal/invoices"
	"github.com/gits-cloud/billing/internal/masterdata"
	"github.com/gits-cloud/billing/internal/quotations"
	"github.com/gits-cloud/billing/internal/subscriptions"
	"github.com/gits-cloud/billing/internal/usage"
	"github.com/gits-cloud/billing/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	MasterDataHandler    *masterdata.Handler
	SubscriptionsHandler *subscriptions.Handler
	UsageHandler         *usage.Handler
	FxRatesHandler       *fxrates.Handler
	QuotationsHandler    *quotations.Handler
	InvoicesHandler      *invoices.Handler
	JobHandler           *jobs.Handler
}

// NewRouter constructs the chi.Router for the billing JSON API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		if params.MasterDataHandler != nil {
			params.MasterDataHandler.MountRoutes(r)
		}
		if params.SubscriptionsHandler != nil {
			params.SubscriptionsHandler.MountRoutes(r)
		}
		if params.UsageHandler != nil {
			params.UsageHandler.MountRoutes(r)
		}
		if params.FxRatesHandler != nil {
			params.FxRatesHandler.MountRoutes(r)
		}
		if params.QuotationsHandler != nil {
			params.QuotationsHandler.MountRoutes(r)
		}
		if params.InvoicesHandler != nil {
			params.InvoicesHandler.MountRoutes(r)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	return r
}
