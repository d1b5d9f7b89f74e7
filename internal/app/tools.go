package app

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createGetVersionTool returns the get_version tool definition
func createGetVersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the EGX Trends server version and status. Use this to verify connectivity."),
	)
}

// createScanSymbolsTool returns the scan_symbols tool definition
func createScanSymbolsTool() mcp.Tool {
	return mcp.NewTool("scan_symbols",
		mcp.WithDescription("Parse a list of Egyptian Exchange symbols or company aliases into normalized tickers with chart widget settings. Accepts inputs like 'comi.ca; CIB; Fawry'."),
		mcp.WithString("input",
			mcp.Required(),
			mcp.Description("Symbols separated by ';' or newlines (e.g., 'COMI; HRHO; EGX:TMGH')"),
		),
		mcp.WithString("timeframe",
			mcp.Description("Chart interval: 1, 5, 15, 60, 240, D, W or M (default: D)"),
		),
		mcp.WithString("filter",
			mcp.Description("Keep only stocks whose name or symbol contains this text"),
		),
	)
}

// createGetMarketAnalysisTool returns the get_market_analysis tool definition
func createGetMarketAnalysisTool() mcp.Tool {
	return mcp.NewTool("get_market_analysis",
		mcp.WithDescription("Get the recent daily closing prices and percentage changes for an EGX index or a list of symbols. Rows marked simulated contain synthetic prices because live retrieval was unavailable."),
		mcp.WithString("index",
			mcp.Description("Index to analyze: EGX30 or EGX70 (default: EGX30). Ignored when symbols are given."),
		),
		mcp.WithArray("symbols",
			mcp.WithStringItems(),
			mcp.Description("Explicit symbols to analyze instead of an index (e.g., ['COMI', 'FWRY'])"),
		),
		mcp.WithNumber("days",
			mcp.Description("Number of trading days to show for a symbol list (default: configured display days)"),
		),
		mcp.WithBoolean("refresh",
			mcp.Description("Run a fresh index analysis instead of returning the latest one (default: false)"),
		),
	)
}

// createGetIndexCatalogTool returns the get_index_catalog tool definition
func createGetIndexCatalogTool() mcp.Tool {
	return mcp.NewTool("get_index_catalog",
		mcp.WithDescription("List the constituents of an EGX index with company name and sector."),
		mcp.WithString("index",
			mcp.Required(),
			mcp.Description("Index to list: EGX30 or EGX70"),
		),
		mcp.WithBoolean("refresh",
			mcp.Description("Fetch a fresh listing instead of the cached one (default: false)"),
		),
	)
}

// createGetAPIUsageTool returns the get_api_usage tool definition
func createGetAPIUsageTool() mcp.Tool {
	return mcp.NewTool("get_api_usage",
		mcp.WithDescription("Get the number of remote data calls made today against the advisory daily quota."),
	)
}
