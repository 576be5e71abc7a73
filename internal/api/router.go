// Package api wires the HTTP handlers into a chi router.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-metrics/internal/api/handlers"
	"github.com/dvloznov/finance-metrics/internal/api/middleware"
)

// RouterConfig configures the shared middleware.
type RouterConfig struct {
	Log            zerolog.Logger
	RateLimitRPS   float64
	RateLimitBurst int
}

// Handlers groups the endpoint handlers served by the router.
type Handlers struct {
	Reports *handlers.ReportsHandler
	Dataset *handlers.DatasetHandler
	Jobs    *handlers.JobsHandler
}

// NewRouter builds the API routes.
func NewRouter(cfg RouterConfig, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Log))
	r.Use(middleware.Recovery(cfg.Log))
	r.Use(middleware.CORS)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

		r.Get("/dataset", h.Dataset.Status)
		r.Post("/dataset/reload", h.Dataset.Reload)

		r.Get("/jobs", h.Jobs.ListJobs)
		r.Get("/jobs/{id}", h.Jobs.GetJob)

		r.Get("/countries", h.Reports.Countries)
		r.Get("/profit-centers", h.Reports.ProfitCenters)
		r.Get("/time-series/countries", h.Reports.CountryTimeSeries)
		r.Get("/time-series/profit-centers", h.Reports.ProfitCenterTimeSeries)
	})

	return r
}
