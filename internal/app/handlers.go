package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/egxtrends/internal/common"
	"github.com/bobmcallan/egxtrends/internal/interfaces"
	"github.com/bobmcallan/egxtrends/internal/models"
	"github.com/bobmcallan/egxtrends/internal/services/chart"
	"github.com/bobmcallan/egxtrends/internal/services/scan"
)

// MarketAnalyzer produces index and ad-hoc analyses; *App implements it.
type MarketAnalyzer interface {
	AnalyzeIndex(ctx context.Context, index models.MarketIndex, refresh bool) (*models.Analysis, error)
	AnalyzeSymbols(ctx context.Context, symbols []string, days int) (*models.Analysis, error)
}

// handleGetVersion implements the get_version tool
func handleGetVersion(remoteEnabled bool) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		retrieval := "simulated"
		if remoteEnabled {
			retrieval = "remote"
		}
		result := fmt.Sprintf("EGX Trends MCP Server\nVersion: %s\nBuild: %s\nCommit: %s\nRetrieval: %s\nStatus: OK",
			common.GetVersion(), common.GetBuild(), common.GetGitCommit(), retrieval)
		return textResult(result), nil
	}
}

// handleScanSymbols implements the scan_symbols tool
func handleScanSymbols(maxSymbols int, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input, err := request.RequireString("input")
		if err != nil || input == "" {
			return errorResult("Error: input parameter is required"), nil
		}

		tf, err := models.ParseTimeFrame(request.GetString("timeframe", ""))
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		stocks, err := scan.Parse(input, maxSymbols)
		if err != nil {
			return errorResult(fmt.Sprintf("Scan error: %v", err)), nil
		}

		if filter := request.GetString("filter", ""); filter != "" {
			stocks = scan.Filter(stocks, filter)
		}

		logger.Debug().Int("symbols", len(stocks)).Str("timeframe", string(tf)).Msg("Scan completed")
		return textResult(formatDashboard(chart.Dashboard(stocks, tf))), nil
	}
}

// handleGetMarketAnalysis implements the get_market_analysis tool
func handleGetMarketAnalysis(analyzer MarketAnalyzer, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbols := request.GetStringSlice("symbols", nil)

		if len(symbols) > 0 {
			days := request.GetInt("days", 0)
			analysis, err := analyzer.AnalyzeSymbols(ctx, symbols, days)
			if err != nil {
				if errors.Is(err, scan.ErrEmptyInput) {
					return errorResult("Error: no valid symbols given"), nil
				}
				logger.Error().Err(err).Strs("symbols", symbols).Msg("Symbol analysis failed")
				return errorResult(fmt.Sprintf("Analysis error: %v", err)), nil
			}
			return textResult(formatAnalysis(analysis)), nil
		}

		index, err := models.ParseMarketIndex(request.GetString("index", string(models.IndexEGX30)))
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		analysis, err := analyzer.AnalyzeIndex(ctx, index, request.GetBool("refresh", false))
		if err != nil {
			logger.Error().Err(err).Str("index", string(index)).Msg("Index analysis failed")
			return errorResult(fmt.Sprintf("Analysis error: %v", err)), nil
		}
		return textResult(formatAnalysis(analysis)), nil
	}
}

// handleGetIndexCatalog implements the get_index_catalog tool
func handleGetIndexCatalog(catalogService interfaces.CatalogService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := request.RequireString("index")
		if err != nil || raw == "" {
			return errorResult("Error: index parameter is required"), nil
		}

		index, err := models.ParseMarketIndex(raw)
		if err != nil {
			return errorResult(fmt.Sprintf("Error: %v", err)), nil
		}

		stocks, err := catalogService.List(ctx, index, request.GetBool("refresh", false))
		if err != nil {
			logger.Error().Err(err).Str("index", string(index)).Msg("Catalog listing failed")
			return errorResult(fmt.Sprintf("Catalog error: %v", err)), nil
		}
		return textResult(formatCatalog(index, stocks)), nil
	}
}

// handleGetAPIUsage implements the get_api_usage tool
func handleGetAPIUsage(usage interfaces.UsageService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return textResult(formatUsage(usage.Snapshot())), nil
	}
}

// Helper functions

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}
