package server

import (
	"net/http"

	"github.com/bobmcallan/egxtrends/internal/models"
	"github.com/bobmcallan/egxtrends/internal/services/scan"
)

type scanRequest struct {
	Input     string `json:"input" validate:"required,max=4096"`
	Timeframe string `json:"timeframe" validate:"omitempty,max=3"`
	Filter    string `json:"filter" validate:"omitempty,max=64"`
}

// handleScan handles POST /api/scan
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req scanRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if !s.ValidateRequest(w, &req) {
		return
	}

	tf, err := models.ParseTimeFrame(req.Timeframe)
	if err != nil {
		WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), "invalid_interval")
		return
	}

	dashboard, err := s.app.Scan(req.Input, tf)
	if err != nil {
		writeServiceError(w, err, "Scan error")
		return
	}

	if req.Filter != "" {
		dashboard = filterDashboard(dashboard, req.Filter)
	}

	WriteJSON(w, http.StatusOK, dashboard)
}

// filterDashboard keeps the cards whose stock matches term
func filterDashboard(d models.Dashboard, term string) models.Dashboard {
	stocks := make([]models.Stock, len(d.Cards))
	for i, c := range d.Cards {
		stocks[i] = c.Stock
	}
	keep := make(map[string]bool)
	for _, st := range scan.Filter(stocks, term) {
		keep[st.Symbol] = true
	}

	out := models.Dashboard{Interval: d.Interval, Cards: make([]models.DashboardCard, 0, len(keep))}
	for _, c := range d.Cards {
		if keep[c.Stock.Symbol] {
			out.Cards = append(out.Cards, c)
		}
	}
	out.Count = len(out.Cards)
	return out
}
