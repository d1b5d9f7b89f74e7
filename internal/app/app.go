package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/robfig/cron/v3"

	"github.com/bobmcallan/egxtrends/internal/calendar"
	"github.com/bobmcallan/egxtrends/internal/clients/gemini"
	"github.com/bobmcallan/egxtrends/internal/common"
	"github.com/bobmcallan/egxtrends/internal/interfaces"
	"github.com/bobmcallan/egxtrends/internal/metrics"
	"github.com/bobmcallan/egxtrends/internal/models"
	"github.com/bobmcallan/egxtrends/internal/services/catalog"
	"github.com/bobmcallan/egxtrends/internal/services/chart"
	"github.com/bobmcallan/egxtrends/internal/services/history"
	"github.com/bobmcallan/egxtrends/internal/services/scan"
	"github.com/bobmcallan/egxtrends/internal/services/usage"
)

// MaxAnalysisDays caps the width of an ad-hoc analysis
const MaxAnalysisDays = 60

// App holds all initialized services, clients, and the MCP server.
// It is the shared core used by both cmd/egx-server and cmd/egx-mcp.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Generator   interfaces.TextGenerator // nil when no API key is configured
	Meter       *usage.Meter
	UsageHub    *usage.Hub
	Metrics     *metrics.Metrics
	Retriever   *history.Retriever
	History     *history.Service
	Catalog     *catalog.Service
	Runs        *history.RunTracker
	MCPServer   *server.MCPServer
	StartupTime time.Time

	scheduler       *cron.Cron
	schedulerCancel context.CancelFunc
	warmCacheCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// resolveConfigPath checks the provided path, EGX_CONFIG, the binary dir, then config/egx.toml.
func resolveConfigPath(configPath, binDir string) string {
	if configPath == "" {
		configPath = os.Getenv("EGX_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "egx.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/egx.toml" // fallback for development
		}
	}
	return configPath
}

// NewApp initializes all services, clients, and the MCP server.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	binDir := getBinaryDir()
	configPath = resolveConfigPath(configPath, binDir)

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative log file path to binary directory
	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(binDir, config.Logging.FilePath)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	ctx := context.Background()

	geminiKey, err := common.ResolveAPIKey("gemini_api_key", config.Clients.Gemini.APIKey)
	if err != nil {
		logger.Warn().Msg("Gemini API key not configured - analysis will use simulated prices")
	}

	// Keep the interface nil unless a client exists, so the retriever sees "unavailable"
	var generator interfaces.TextGenerator
	if geminiKey != "" {
		client, err := gemini.NewClient(ctx, geminiKey,
			gemini.WithLogger(logger),
			gemini.WithModel(config.Clients.Gemini.Model),
			gemini.WithRateLimit(config.Clients.Gemini.RateLimit),
			gemini.WithTimeout(config.Clients.Gemini.GetTimeout()),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini client")
		} else {
			generator = client
		}
	}

	meter := usage.NewMeter(config.Usage.DailyQuota, logger)
	hub := usage.NewHub(meter, logger)
	go hub.Run()

	m := metrics.New(meter)

	grounding := config.Clients.Gemini.SearchGrounding
	retriever := history.NewRetriever(generator, meter, history.RetrieverConfig{
		ChunkSize:       config.Analysis.ChunkSize,
		HistorySessions: config.Analysis.HistorySessions,
		SearchGrounding: grounding,
	}, logger)

	days := calendar.NewGenerator(calendar.WithLocation(scheduleLocation(config, logger)))
	historyService := history.NewService(retriever, logger,
		history.WithCalendar(days),
		history.WithDisplayDays(config.Analysis.DisplayDays),
		history.WithFallbackDelay(config.Analysis.GetFallbackDelay()),
		history.WithObserver(m),
	)

	catalogService := catalog.NewService(generator, meter, grounding, logger)
	catalogService.SetObserver(m)

	mcpServer := server.NewMCPServer(
		"egx",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	a := &App{
		Config:      config,
		Logger:      logger,
		Generator:   generator,
		Meter:       meter,
		UsageHub:    hub,
		Metrics:     m,
		Retriever:   retriever,
		History:     historyService,
		Catalog:     catalogService,
		Runs:        history.NewRunTracker(),
		MCPServer:   mcpServer,
		StartupTime: startupStart,
	}

	a.registerTools()

	logger.Info().
		Bool("remote_retrieval", generator != nil).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a, nil
}

// scheduleLocation returns the configured exchange timezone, defaulting to Cairo.
func scheduleLocation(config *common.Config, logger *common.Logger) *time.Location {
	if config.Schedule.Timezone == "" {
		return calendar.CairoLocation
	}
	loc, err := time.LoadLocation(config.Schedule.Timezone)
	if err != nil {
		logger.Warn().Err(err).Str("timezone", config.Schedule.Timezone).Msg("Unknown schedule timezone, using Africa/Cairo")
		return calendar.CairoLocation
	}
	return loc
}

// RemoteEnabled reports whether a text generator is configured.
func (a *App) RemoteEnabled() bool {
	return a.Retriever != nil && a.Retriever.Available()
}

// Close releases all resources held by the App.
// Shutdown order: cancel and drain scheduled jobs, cancel warm cache, stop usage stream.
func (a *App) Close() {
	if a.schedulerCancel != nil {
		a.schedulerCancel()
		a.schedulerCancel = nil
	}
	if a.scheduler != nil {
		<-a.scheduler.Stop().Done()
		a.scheduler = nil
	}
	if a.warmCacheCancel != nil {
		a.warmCacheCancel()
		a.warmCacheCancel = nil
	}
	if a.UsageHub != nil {
		a.UsageHub.Stop()
		a.UsageHub = nil
	}
}

// AnalyzeIndex returns the analysis for an index. The newest committed run is
// reused unless refresh is set. A run that is overtaken by a newer one while
// in flight is still returned to its caller but never replaces the newer result.
func (a *App) AnalyzeIndex(ctx context.Context, index models.MarketIndex, refresh bool) (*models.Analysis, error) {
	key := string(index)
	if !refresh {
		if latest, ok := a.Runs.Latest(key); ok {
			return latest, nil
		}
	}

	token := a.Runs.Begin(key)

	// Rows always follow the static constituents; remote listings only feed the catalog endpoints
	analysis, err := a.History.AnalyzeIndex(ctx, index)
	if err != nil {
		return nil, err
	}

	if !a.Runs.Commit(key, token, analysis) {
		a.Logger.Info().
			Str("index", key).
			Str("run_id", analysis.RunID).
			Msg("Analysis superseded by a newer run, not stored")
	}
	return analysis, nil
}

// AnalyzeSymbols assembles an ad-hoc analysis for a scanned symbol list.
// days <= 0 selects the configured display width; larger values are capped at MaxAnalysisDays.
func (a *App) AnalyzeSymbols(ctx context.Context, symbols []string, days int) (*models.Analysis, error) {
	stocks, err := scan.ParseSymbols(symbols, a.Config.Analysis.MaxScanSymbols)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		days = a.History.DisplayDays()
	}
	if days > MaxAnalysisDays {
		days = MaxAnalysisDays
	}
	return a.History.Assemble(ctx, stocks, days)
}

// Scan parses a scanner input into a dashboard of chart widgets.
func (a *App) Scan(input string, tf models.TimeFrame) (models.Dashboard, error) {
	stocks, err := scan.Parse(input, a.Config.Analysis.MaxScanSymbols)
	if err != nil {
		return models.Dashboard{}, err
	}
	return chart.Dashboard(stocks, tf), nil
}

// registerTools registers all MCP tools on the App's MCPServer.
func (a *App) registerTools() {
	s := a.MCPServer
	logger := a.Logger

	s.AddTool(createGetVersionTool(), handleGetVersion(a.RemoteEnabled()))
	s.AddTool(createScanSymbolsTool(), handleScanSymbols(a.Config.Analysis.MaxScanSymbols, logger))
	s.AddTool(createGetMarketAnalysisTool(), handleGetMarketAnalysis(a, logger))
	s.AddTool(createGetIndexCatalogTool(), handleGetIndexCatalog(a.Catalog, logger))
	s.AddTool(createGetAPIUsageTool(), handleGetAPIUsage(a.Meter))
}
