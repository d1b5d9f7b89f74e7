package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/egxtrends/internal/app"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	for _, name := range []string{"GEMINI_API_KEY", "EGX_GEMINI_API_KEY", "GOOGLE_API_KEY", "API_KEY", "EGX_CONFIG", "EGX_SERVER_URL"} {
		t.Setenv(name, "")
	}

	dir := t.TempDir()
	config := `
[analysis]
display_days = 3
fallback_delay = "0s"

[schedule]
catalog_refresh = ""
warm_on_start = false

[logging]
level = "error"
outputs = ["console"]
file_path = "` + filepath.Join(dir, "egx.log") + `"
`
	path := filepath.Join(dir, "egx.toml")
	require.NoError(t, os.WriteFile(path, []byte(config), 0o644))

	a, err := app.NewApp(path)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

// newStdioClient connects an MCP client to serveStdio over pipes.
func newStdioClient(t *testing.T, a *app.App) *client.Client {
	t.Helper()

	serverIn, clientOut := io.Pipe()
	clientIn, serverOut := io.Pipe()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- serveStdio(ctx, a, serverIn, serverOut)
	}()

	stdioTransport := transport.NewIO(clientIn, clientOut, io.NopCloser(strings.NewReader("")))
	require.NoError(t, stdioTransport.Start(context.Background()))

	c := client.NewClient(stdioTransport)

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "egx-stdio-test", Version: "1.0.0"}
	initCtx, initCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer initCancel()
	_, err := c.Initialize(initCtx, initReq)
	require.NoError(t, err)

	t.Cleanup(func() {
		c.Close()
		cancel()
		clientOut.Close()
		select {
		case <-errCh:
		case <-time.After(2 * time.Second):
		}
	})
	return c
}

func callTool(t *testing.T, c *client.Client, name string, args map[string]interface{}) string {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	result, err := c.CallTool(ctx, req)
	require.NoError(t, err)
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

func TestStdio_Version(t *testing.T) {
	c := newStdioClient(t, newTestApp(t))

	text := callTool(t, c, "get_version", nil)
	assert.Contains(t, text, "EGX Trends MCP Server")
	assert.Contains(t, text, "Retrieval: simulated")
	assert.Contains(t, text, "Status: OK")
}

func TestStdio_ListTools(t *testing.T) {
	c := newStdioClient(t, newTestApp(t))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tools, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	require.NoError(t, err)

	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"get_version", "scan_symbols", "get_market_analysis", "get_index_catalog", "get_api_usage",
	}, names)
}

func TestStdio_ScanSymbols(t *testing.T) {
	c := newStdioClient(t, newTestApp(t))

	text := callTool(t, c, "scan_symbols", map[string]interface{}{"input": "comi, EGX:FWRY"})
	assert.Contains(t, text, "COMI")
	assert.Contains(t, text, "EGX:FWRY")
}

func TestStdio_MarketAnalysisSimulated(t *testing.T) {
	c := newStdioClient(t, newTestApp(t))

	text := callTool(t, c, "get_market_analysis", map[string]interface{}{
		"symbols": []interface{}{"COMI"},
		"days":    2,
	})
	assert.Contains(t, text, "Market Analysis")
	assert.Contains(t, text, "COMI")
	assert.Contains(t, text, "simulated")
}
