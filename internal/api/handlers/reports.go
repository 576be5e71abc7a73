package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-metrics/internal/api/middleware"
	"github.com/dvloznov/finance-metrics/internal/report"
)

// ReportsHandler handles the summary and time-series endpoints.
type ReportsHandler struct {
	svc *report.Service
	log zerolog.Logger
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(svc *report.Service, log zerolog.Logger) *ReportsHandler {
	return &ReportsHandler{
		svc: svc,
		log: log,
	}
}

// Countries handles GET /api/countries
func (h *ReportsHandler) Countries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	window, err := h.svc.SummaryWindow(query.Get("start"), query.Get("end"), query.Get("period"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	rep, err := h.svc.Countries(r.Context(), window)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, rep)
}

// ProfitCenters handles GET /api/profit-centers
func (h *ReportsHandler) ProfitCenters(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	window, err := h.svc.SummaryWindow(query.Get("start"), query.Get("end"), query.Get("period"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	rep, err := h.svc.ProfitCenters(r.Context(), countryParam(r), window)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, rep)
}

// CountryTimeSeries handles GET /api/time-series/countries
func (h *ReportsHandler) CountryTimeSeries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	window, err := h.svc.SeriesWindow(query.Get("start"), query.Get("end"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	series, err := h.svc.CountryTimeSeries(r.Context(), window)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"series": series,
		"count":  len(series),
	})
}

// ProfitCenterTimeSeries handles GET /api/time-series/profit-centers
func (h *ReportsHandler) ProfitCenterTimeSeries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	country := countryParam(r)
	if country == "" {
		middleware.WriteError(w, http.StatusBadRequest, "country is required")
		return
	}

	window, err := h.svc.SeriesWindow(query.Get("start"), query.Get("end"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	series, err := h.svc.ProfitCenterTimeSeries(r.Context(), country, window)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"country": country,
		"series":  series,
		"count":   len(series),
	})
}

func (h *ReportsHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeServiceError(w, h.log, r, err)
}

// writeServiceError maps report errors to status codes.
func writeServiceError(w http.ResponseWriter, log zerolog.Logger, r *http.Request, err error) {
	switch {
	case errors.Is(err, report.ErrInvalidWindow):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, report.ErrNotLoaded):
		middleware.WriteError(w, http.StatusServiceUnavailable, "Dataset not loaded")
	default:
		log.Error().
			Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Str("path", r.URL.Path).
			Msg("Report query failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute report")
	}
}

func countryParam(r *http.Request) string {
	return strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("country")))
}
