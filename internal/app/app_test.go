package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/egxtrends/internal/interfaces"
	"github.com/bobmcallan/egxtrends/internal/models"
	"github.com/bobmcallan/egxtrends/internal/reference"
	"github.com/bobmcallan/egxtrends/internal/services/catalog"
	"github.com/bobmcallan/egxtrends/internal/services/history"
)

// TestNewApp_InitializesAllServices verifies that NewApp creates an App with
// all services and the MCP server initialized and non-nil.
func TestNewApp_InitializesAllServices(t *testing.T) {
	configPath := writeTestConfig(t)

	a, err := NewApp(configPath)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	defer a.Close()

	if a.Config == nil {
		t.Error("Config is nil")
	}
	if a.Logger == nil {
		t.Error("Logger is nil")
	}
	if a.Meter == nil {
		t.Error("Meter is nil")
	}
	if a.UsageHub == nil {
		t.Error("UsageHub is nil")
	}
	if a.Metrics == nil {
		t.Error("Metrics is nil")
	}
	if a.History == nil {
		t.Error("History is nil")
	}
	if a.Catalog == nil {
		t.Error("Catalog is nil")
	}
	if a.Runs == nil {
		t.Error("Runs is nil")
	}
	if a.MCPServer == nil {
		t.Error("MCPServer is nil")
	}
	if a.StartupTime.IsZero() {
		t.Error("StartupTime is zero")
	}
	if a.RemoteEnabled() {
		t.Error("RemoteEnabled = true without an API key")
	}
}

// TestNewApp_RegistersAllTools verifies that NewApp registers all expected MCP tools.
func TestNewApp_RegistersAllTools(t *testing.T) {
	a, err := NewApp(writeTestConfig(t))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	defer a.Close()

	c, err := newInProcessClient(t, a.MCPServer)
	if err != nil {
		t.Fatalf("Failed to create in-process client: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	toolsResult, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		t.Fatalf("ListTools failed: %v", err)
	}

	expectedTools := []string{
		"get_version",
		"scan_symbols",
		"get_market_analysis",
		"get_index_catalog",
		"get_api_usage",
	}

	toolNames := make(map[string]bool)
	for _, tool := range toolsResult.Tools {
		toolNames[tool.Name] = true
	}
	for _, name := range expectedTools {
		if !toolNames[name] {
			t.Errorf("Expected tool %q not registered", name)
		}
	}
	if len(toolsResult.Tools) != len(expectedTools) {
		t.Errorf("Expected %d tools, got %d", len(expectedTools), len(toolsResult.Tools))
	}
}

// TestNewApp_GetVersionToolWorks verifies that the get_version tool works
// through a full App initialization.
func TestNewApp_GetVersionToolWorks(t *testing.T) {
	a, err := NewApp(writeTestConfig(t))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	defer a.Close()

	c, err := newInProcessClient(t, a.MCPServer)
	if err != nil {
		t.Fatalf("Failed to create in-process client: %v", err)
	}
	defer c.Close()

	req := mcp.CallToolRequest{}
	req.Params.Name = "get_version"
	result, err := c.CallTool(context.Background(), req)
	if err != nil {
		t.Fatalf("get_version failed: %v", err)
	}

	text := result.Content[0].(mcp.TextContent).Text
	if !strings.Contains(text, "EGX Trends MCP Server") {
		t.Errorf("Expected 'EGX Trends MCP Server' in output, got: %s", text)
	}
}

// TestNewApp_CloseIsIdempotent verifies that calling Close multiple times
// does not panic.
func TestNewApp_CloseIsIdempotent(t *testing.T) {
	a, err := NewApp(writeTestConfig(t))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	require.NoError(t, a.StartScheduler())

	a.Close()
	a.Close()
}

// TestNewApp_InvalidConfigReturnsError verifies that an invalid config file
// returns a meaningful error.
func TestNewApp_InvalidConfigReturnsError(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "bad.toml")
	os.WriteFile(configPath, []byte("{{{{invalid toml"), 0644)

	_, err := NewApp(configPath)
	if err == nil {
		t.Fatal("Expected error for invalid config content, got nil")
	}
}

func TestApp_AnalyzeIndexSimulatesWithoutKey(t *testing.T) {
	a, err := NewApp(writeTestConfig(t))
	require.NoError(t, err)
	defer a.Close()

	analysis, err := a.AnalyzeIndex(context.Background(), models.IndexEGX30, false)
	require.NoError(t, err)

	assert.Equal(t, models.IndexEGX30, analysis.Index)
	assert.True(t, analysis.Simulated)
	assert.Len(t, analysis.Rows, 30)
	assert.Equal(t, 5, analysis.DisplayDays)
	for _, row := range analysis.Rows {
		assert.True(t, row.IsSimulated)
		assert.Len(t, row.History, 5)
	}

	// No generator: nothing is metered
	assert.Equal(t, 0, a.Meter.Count())

	cached, err := a.AnalyzeIndex(context.Background(), models.IndexEGX30, false)
	require.NoError(t, err)
	assert.Same(t, analysis, cached)

	fresh, err := a.AnalyzeIndex(context.Background(), models.IndexEGX30, true)
	require.NoError(t, err)
	assert.NotEqual(t, analysis.RunID, fresh.RunID)

	latest, ok := a.Runs.Latest(string(models.IndexEGX30))
	require.True(t, ok)
	assert.Same(t, fresh, latest)
}

// listingGenerator answers every prompt with the same constituent listing,
// which carries no price data when read as history
type listingGenerator struct {
	listing string
}

func (g *listingGenerator) Generate(_ context.Context, _ string, _ interfaces.GenerateOptions) (string, error) {
	return g.listing, nil
}

func TestApp_AnalyzeIndexUsesStaticConstituents(t *testing.T) {
	a, err := NewApp(writeTestConfig(t))
	require.NoError(t, err)
	defer a.Close()

	entries := make([]string, 12)
	for i := range entries {
		entries[i] = fmt.Sprintf(`{"symbol":"FAKE%d","name":"Fake %d","sector":"Other"}`, i, i)
	}
	gen := &listingGenerator{listing: "[" + strings.Join(entries, ",") + "]"}

	a.Retriever = history.NewRetriever(gen, a.Meter, history.RetrieverConfig{}, a.Logger)
	a.History = history.NewService(a.Retriever, a.Logger,
		history.WithDisplayDays(3),
		history.WithFallbackDelay(0),
	)
	a.Catalog = catalog.NewService(gen, a.Meter, true, a.Logger)
	require.True(t, a.RemoteEnabled())

	analysis, err := a.AnalyzeIndex(context.Background(), models.IndexEGX30, false)
	require.NoError(t, err)

	static := reference.Catalog(models.IndexEGX30)
	want := make([]string, len(static))
	for i, st := range static {
		want[i] = st.Symbol
	}
	got := make([]string, len(analysis.Rows))
	for i, row := range analysis.Rows {
		got[i] = row.Stock.Symbol
		assert.False(t, row.IsSimulated)
		assert.Len(t, row.History, 3)
	}
	assert.ElementsMatch(t, want, got)
	assert.False(t, analysis.Simulated)

	// 30 symbols in chunks of 3; the catalog listing is never consulted
	assert.Equal(t, 10, a.Meter.Count())

	// The catalog endpoints still serve the remote listing
	listed, err := a.Catalog.List(context.Background(), models.IndexEGX30, false)
	require.NoError(t, err)
	assert.Len(t, listed, 12)
	assert.Equal(t, 11, a.Meter.Count())
}

func TestApp_AnalyzeSymbols(t *testing.T) {
	a, err := NewApp(writeTestConfig(t))
	require.NoError(t, err)
	defer a.Close()

	analysis, err := a.AnalyzeSymbols(context.Background(), []string{"cib", "EGX:FWRY", ""}, 3)
	require.NoError(t, err)
	require.Len(t, analysis.Rows, 2)
	assert.Equal(t, "COMI", analysis.Rows[0].Stock.Symbol)
	assert.Equal(t, "FWRY", analysis.Rows[1].Stock.Symbol)
	assert.Len(t, analysis.Rows[0].History, 3)

	capped, err := a.AnalyzeSymbols(context.Background(), []string{"COMI"}, 500)
	require.NoError(t, err)
	assert.Equal(t, MaxAnalysisDays, capped.DisplayDays)

	_, err = a.AnalyzeSymbols(context.Background(), []string{" ", ";"}, 3)
	assert.Error(t, err)
}

func TestApp_Scan(t *testing.T) {
	a, err := NewApp(writeTestConfig(t))
	require.NoError(t, err)
	defer a.Close()

	d, err := a.Scan("comi.ca\nHRHO", models.TimeFrameWeekly)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Count)
	assert.Equal(t, models.TimeFrameWeekly, d.Interval)
	assert.Equal(t, "EGX:COMI", d.Cards[0].Widget.TVSymbol)
}

func TestApp_StartSchedulerRejectsBadSpec(t *testing.T) {
	a, err := NewApp(writeTestConfig(t))
	require.NoError(t, err)
	defer a.Close()

	a.Config.Schedule.CatalogRefresh = "not a cron spec"
	assert.Error(t, a.StartScheduler())
}

func TestApp_WarmCacheCommitsEGX30(t *testing.T) {
	a, err := NewApp(writeTestConfig(t))
	require.NoError(t, err)
	defer a.Close()

	a.warmCache(context.Background())

	latest, ok := a.Runs.Latest(string(models.IndexEGX30))
	require.True(t, ok)
	assert.Len(t, latest.Rows, 30)
}

// --- test helpers ---

// writeTestConfig creates a minimal egx.toml in a temp directory for testing.
// No API key is configured, so every analysis is simulated without delay.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	for _, name := range []string{"GEMINI_API_KEY", "EGX_GEMINI_API_KEY", "GOOGLE_API_KEY", "API_KEY", "EGX_CONFIG"} {
		t.Setenv(name, "")
	}

	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "logs"), 0755)

	config := `
[analysis]
display_days = 5
fallback_delay = "0s"

[schedule]
catalog_refresh = ""
warm_on_start = false

[logging]
level = "error"
outputs = ["console"]
file_path = "` + filepath.Join(dir, "logs", "egx.log") + `"
`
	configPath := filepath.Join(dir, "egx.toml")
	if err := os.WriteFile(configPath, []byte(config), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return configPath
}

// newInProcessClient creates an mcp-go in-process client connected to the given
// MCP server. Handles initialization handshake.
func newInProcessClient(t *testing.T, mcpServer *server.MCPServer) (*client.Client, error) {
	t.Helper()

	c, err := client.NewInProcessClient(mcpServer)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		return nil, err
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}
