package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/egxtrends/internal/common"
	"github.com/bobmcallan/egxtrends/internal/models"
	"github.com/bobmcallan/egxtrends/internal/services/usage"
)

// mockAnalyzer records calls and returns a fixed analysis
type mockAnalyzer struct {
	mu           sync.Mutex
	indexCalls   []models.MarketIndex
	refreshFlags []bool
	symbolCalls  [][]string
	daysSeen     []int
	err          error
}

func (m *mockAnalyzer) AnalyzeIndex(ctx context.Context, index models.MarketIndex, refresh bool) (*models.Analysis, error) {
	m.mu.Lock()
	m.indexCalls = append(m.indexCalls, index)
	m.refreshFlags = append(m.refreshFlags, refresh)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	a := sampleAnalysis()
	a.Index = index
	return a, nil
}

func (m *mockAnalyzer) AnalyzeSymbols(ctx context.Context, symbols []string, days int) (*models.Analysis, error) {
	m.mu.Lock()
	m.symbolCalls = append(m.symbolCalls, symbols)
	m.daysSeen = append(m.daysSeen, days)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return sampleAnalysis(), nil
}

// mockCatalog returns a fixed listing
type mockCatalog struct {
	stocks []models.Stock
	forced []bool
	err    error
}

func (m *mockCatalog) List(ctx context.Context, index models.MarketIndex, force bool) ([]models.Stock, error) {
	m.forced = append(m.forced, force)
	if m.err != nil {
		return nil, m.err
	}
	return m.stocks, nil
}

// sampleAnalysis is a two-day analysis with one retrieved and one simulated row
func sampleAnalysis() *models.Analysis {
	return &models.Analysis{
		RunID:       "run-1",
		DisplayDays: 2,
		Dates:       []models.TradingDay{"2026-10-14", "2026-10-13"},
		GeneratedAt: time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC),
		Rows: []models.AnalysisRow{
			{
				Stock: models.Stock{Symbol: "COMI", Name: "Commercial International Bank", Sector: "Banks"},
				History: []models.DailyStat{
					{Date: "2026-10-14", Price: 80.5, ChangePercent: 1.25},
					{Date: "2026-10-13", Price: 79.5, ChangePercent: -0.5},
				},
			},
			{
				Stock: models.Stock{Symbol: "FWRY", Name: "Fawry", Sector: "Technology"},
				History: []models.DailyStat{
					{Date: "2026-10-14", Price: 7.1, ChangePercent: 0},
					{Date: "2026-10-13", Price: 7.1, ChangePercent: 0},
				},
				IsSimulated: true,
			},
		},
	}
}

// testHarness provides an in-process MCP client connected to an EGX server
// with mock services. Tests can configure mock behavior before calling tools.
type testHarness struct {
	t        *testing.T
	client   *client.Client
	analyzer *mockAnalyzer
	catalog  *mockCatalog
	meter    *usage.Meter
}

// newTestHarness registers every tool against mocks and returns an initialized client.
func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	logger := common.NewSilentLogger()
	analyzer := &mockAnalyzer{}
	catalog := &mockCatalog{stocks: []models.Stock{
		{Symbol: "COMI", Name: "Commercial International Bank", Sector: "Banks"},
		{Symbol: "HRHO", Name: "EFG Holding", Sector: "Financial Services"},
	}}
	meter := usage.NewMeter(100, logger)

	mcpServer := server.NewMCPServer(
		"egx-test",
		"test",
		server.WithToolCapabilities(true),
	)
	mcpServer.AddTool(createGetVersionTool(), handleGetVersion(false))
	mcpServer.AddTool(createScanSymbolsTool(), handleScanSymbols(5, logger))
	mcpServer.AddTool(createGetMarketAnalysisTool(), handleGetMarketAnalysis(analyzer, logger))
	mcpServer.AddTool(createGetIndexCatalogTool(), handleGetIndexCatalog(catalog, logger))
	mcpServer.AddTool(createGetAPIUsageTool(), handleGetAPIUsage(meter))

	c, err := newInProcessClient(t, mcpServer)
	if err != nil {
		t.Fatalf("Failed to create in-process client: %v", err)
	}

	h := &testHarness{
		t:        t,
		client:   c,
		analyzer: analyzer,
		catalog:  catalog,
		meter:    meter,
	}
	t.Cleanup(h.close)
	return h
}

// callTool invokes an MCP tool by name with the given arguments.
func (h *testHarness) callTool(name string, args map[string]any) (*mcp.CallToolResult, error) {
	h.t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return h.client.CallTool(context.Background(), req)
}

// getTextContent extracts text from a content block at the given index.
// Fails the test if index is out of range or content is not text.
func (h *testHarness) getTextContent(result *mcp.CallToolResult, index int) string {
	h.t.Helper()
	if index >= len(result.Content) {
		h.t.Fatalf("Content index %d out of range (have %d blocks)", index, len(result.Content))
	}
	tc, ok := result.Content[index].(mcp.TextContent)
	if !ok {
		h.t.Fatalf("Content[%d] is %T, not TextContent", index, result.Content[index])
	}
	return tc.Text
}

func (h *testHarness) close() {
	if h.client != nil {
		h.client.Close()
	}
}
