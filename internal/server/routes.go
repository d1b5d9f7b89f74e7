package server

import (
	"net/http"
	"strings"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/egxtrends/internal/common"
)

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)

	// Scanner
	mux.HandleFunc("/api/scan", s.handleScan)
	mux.HandleFunc("/api/chart/", s.handleChartWidget)

	// Index catalog
	mux.HandleFunc("/api/catalog/", s.handleCatalog)

	// Analysis
	mux.HandleFunc("/api/analysis/", s.routeAnalysis) // handles {index}, {index}/chart/{symbol}
	mux.HandleFunc("/api/analysis", s.handleAnalysisSymbols)

	// Usage
	mux.HandleFunc("/api/usage/ws", s.handleUsageWS)
	mux.HandleFunc("/api/usage", s.handleUsage)

	// Observability and MCP
	if s.app.Metrics != nil {
		mux.Handle("/metrics", s.app.Metrics.Handler())
	}
	mux.Handle("/mcp", mcpserver.NewStreamableHTTPServer(s.app.MCPServer, mcpserver.WithStateLess(true)))
}

// routeAnalysis dispatches /api/analysis/{index}/* to the appropriate handler.
func (s *Server) routeAnalysis(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/analysis/"), "/")
	if path == "" {
		WriteError(w, http.StatusBadRequest, "index is required in path")
		return
	}

	parts := strings.Split(path, "/")
	switch {
	case len(parts) == 1:
		s.handleAnalysisIndex(w, r, parts[0])
	case len(parts) == 3 && parts[1] == "chart":
		s.handleAnalysisChart(w, r, parts[0], parts[2])
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, common.GetVersionInfo())
}
