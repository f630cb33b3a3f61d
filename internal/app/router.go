package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/velodesk/velodesk/internal/auth"
	"github.com/velodesk/velodesk/internal/catalog"
	"github.com/velodesk/velodesk/internal/masterdata"
	"github.com/velodesk/velodesk/internal/observability"
	"github.com/velodesk/velodesk/internal/platform/httpx"
	"github.com/velodesk/velodesk/internal/stock"
	"github.com/velodesk/velodesk/internal/workorder"
)

// RouterParams aggregates everything the HTTP router mounts.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	Auth       *auth.Handler
	AuthSvc    *auth.Service
	Masterdata *masterdata.Handler
	Catalog    *catalog.Handler
	Stock      *stock.Handler
	WorkOrders *workorder.Handler
}

// NewRouter assembles the API. Login and health are public; everything
// else requires a bearer token.
func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  p.Logger,
		Config:  p.Config,
		Metrics: p.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", p.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			p.Auth.MountRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(p.AuthSvc.Middleware)

			p.Masterdata.MountRoutes(r)
			p.Catalog.MountRoutes(r)
			r.Route("/stock", func(r chi.Router) {
				p.Stock.MountRoutes(r)
			})
			r.Route("/work-orders", func(r chi.Router) {
				p.WorkOrders.MountRoutes(r)
			})
		})
	})

	return r
}
