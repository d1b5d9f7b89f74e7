package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bobmcallan/egxtrends/internal/models"
	"github.com/bobmcallan/egxtrends/internal/services/chart"
	"github.com/bobmcallan/egxtrends/internal/services/scan"
	"github.com/bobmcallan/egxtrends/internal/symbols"
)

// --- Catalog handlers ---

type catalogResponse struct {
	Index     models.MarketIndex `json:"index"`
	Source    string             `json:"source"`
	FetchedAt time.Time          `json:"fetched_at"`
	Count     int                `json:"count"`
	Stocks    []models.Stock     `json:"stocks"`
}

// handleCatalog handles GET /api/catalog/{index}?refresh=true
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	index, ok := parseIndexParam(w, PathParam(r, "/api/catalog/", ""))
	if !ok {
		return
	}

	stocks, err := s.app.Catalog.List(r.Context(), index, queryBool(r, "refresh"))
	if err != nil {
		writeServiceError(w, err, "Catalog error")
		return
	}

	source, fetchedAt, _ := s.app.Catalog.Source(index)
	WriteJSON(w, http.StatusOK, catalogResponse{
		Index:     index,
		Source:    source,
		FetchedAt: fetchedAt,
		Count:     len(stocks),
		Stocks:    stocks,
	})
}

// --- Analysis handlers ---

// handleAnalysisIndex handles GET /api/analysis/{index}?refresh=true
func (s *Server) handleAnalysisIndex(w http.ResponseWriter, r *http.Request, rawIndex string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	index, ok := parseIndexParam(w, rawIndex)
	if !ok {
		return
	}

	analysis, err := s.app.AnalyzeIndex(r.Context(), index, queryBool(r, "refresh"))
	if err != nil {
		writeServiceError(w, err, "Analysis error")
		return
	}

	WriteJSON(w, http.StatusOK, analysis)
}

type analysisRequest struct {
	Symbols []string `json:"symbols" validate:"required,min=1,max=40,dive,required,max=64"`
	Days    int      `json:"days" validate:"omitempty,min=1,max=60"`
}

// handleAnalysisSymbols handles POST /api/analysis {symbols, days}
func (s *Server) handleAnalysisSymbols(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req analysisRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if !s.ValidateRequest(w, &req) {
		return
	}

	analysis, err := s.app.AnalyzeSymbols(r.Context(), req.Symbols, req.Days)
	if err != nil {
		writeServiceError(w, err, "Analysis error")
		return
	}

	WriteJSON(w, http.StatusOK, analysis)
}

// handleAnalysisChart handles GET /api/analysis/{index}/chart/{symbol}
// and renders the symbol's row of the latest index analysis as PNG.
func (s *Server) handleAnalysisChart(w http.ResponseWriter, r *http.Request, rawIndex, rawSymbol string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	index, ok := parseIndexParam(w, rawIndex)
	if !ok {
		return
	}

	symbol := symbols.Normalize(symbols.StripExchangePrefix(rawSymbol))
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required in path")
		return
	}

	analysis, err := s.app.AnalyzeIndex(r.Context(), index, false)
	if err != nil {
		writeServiceError(w, err, "Analysis error")
		return
	}

	row := analysis.Row(symbol)
	if row == nil {
		WriteErrorWithCode(w, http.StatusNotFound, fmt.Sprintf("%s is not a constituent of %s", symbol, index), "unknown_symbol")
		return
	}

	png, err := chart.RenderHistory(*row)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Chart error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("X-Run-ID", analysis.RunID)
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// --- Chart widget handler ---

// handleChartWidget handles GET /api/chart/{symbol}?interval=D
func (s *Server) handleChartWidget(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := symbols.Normalize(symbols.StripExchangePrefix(PathParam(r, "/api/chart/", "")))
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required in path")
		return
	}

	tf, err := models.ParseTimeFrame(r.URL.Query().Get("interval"))
	if err != nil {
		WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), "invalid_interval")
		return
	}

	WriteJSON(w, http.StatusOK, models.DashboardCard{
		Stock:  scan.Resolve(symbol),
		Widget: chart.Widget(symbol, tf),
	})
}

// --- Usage handlers ---

// handleUsage handles GET /api/usage
func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, s.app.Meter.Snapshot())
}

// handleUsageWS handles GET /api/usage/ws
func (s *Server) handleUsageWS(w http.ResponseWriter, r *http.Request) {
	if s.app.UsageHub == nil {
		WriteError(w, http.StatusServiceUnavailable, "Usage stream unavailable")
		return
	}
	s.app.UsageHub.ServeWS(w, r)
}

// --- helpers ---

func parseIndexParam(w http.ResponseWriter, raw string) (models.MarketIndex, bool) {
	if raw == "" {
		WriteError(w, http.StatusBadRequest, "index is required in path")
		return "", false
	}
	index, err := models.ParseMarketIndex(raw)
	if err != nil {
		WriteErrorWithCode(w, http.StatusNotFound, err.Error(), "unknown_index")
		return "", false
	}
	return index, true
}

func queryBool(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}

// writeServiceError maps service errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error, prefix string) {
	switch {
	case errors.Is(err, scan.ErrEmptyInput):
		WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), "empty_input")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		WriteErrorWithCode(w, http.StatusServiceUnavailable, "Request cancelled", "cancelled")
	default:
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("%s: %v", prefix, err))
	}
}
