package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/egxtrends/internal/app"
)

func main() {
	if serverURL := os.Getenv("EGX_SERVER_URL"); serverURL != "" {
		proxy := &StdioProxy{
			serverURL: strings.TrimRight(serverURL, "/") + "/mcp",
			httpClient: &http.Client{
				Timeout: 120 * time.Second,
			},
		}
		if err := proxy.RunWithIO(os.Stdin, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "proxy error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	configPath := ""
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	a, err := app.NewApp(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	a.StartWarmCache()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serveStdio(ctx, a, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		a.Logger.Error().Err(err).Msg("Stdio server failed")
	}
}

// serveStdio runs the app's MCP tools over newline-delimited JSON-RPC until
// in closes or ctx is cancelled.
func serveStdio(ctx context.Context, a *app.App, in io.Reader, out io.Writer) error {
	a.Logger.Info().Msg("Serving MCP over stdio")
	return mcpserver.NewStdioServer(a.MCPServer).Listen(ctx, in, out)
}
