// Package common provides shared utilities for EGX Trends
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for EGX Trends
type Config struct {
	Environment string         `toml:"environment"`
	Server      ServerConfig   `toml:"server"`
	Clients     ClientsConfig  `toml:"clients"`
	Analysis    AnalysisConfig `toml:"analysis"`
	Usage       UsageConfig    `toml:"usage"`
	Schedule    ScheduleConfig `toml:"schedule"`
	Logging     LoggingConfig  `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Gemini GeminiConfig `toml:"gemini"`
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey          string `toml:"api_key"`
	Model           string `toml:"model"`
	RateLimit       int    `toml:"rate_limit"` // requests per minute
	Timeout         string `toml:"timeout"`
	SearchGrounding bool   `toml:"search_grounding"`
}

// GetTimeout parses and returns the timeout duration
func (c *GeminiConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 2 * time.Minute
	}
	return d
}

// AnalysisConfig holds history assembly settings
type AnalysisConfig struct {
	DisplayDays     int    `toml:"display_days"`
	HistorySessions int    `toml:"history_sessions"`
	ChunkSize       int    `toml:"chunk_size"`
	FallbackDelay   string `toml:"fallback_delay"`
	MaxScanSymbols  int    `toml:"max_scan_symbols"`
}

// GetFallbackDelay parses and returns the delay applied before full simulation
func (c *AnalysisConfig) GetFallbackDelay() time.Duration {
	d, err := time.ParseDuration(c.FallbackDelay)
	if err != nil || d < 0 {
		return 1500 * time.Millisecond
	}
	return d
}

// UsageConfig holds the advisory remote-call quota
type UsageConfig struct {
	DailyQuota int `toml:"daily_quota"`
}

// ScheduleConfig holds background job settings.
// CatalogRefresh is a cron spec with a leading seconds field; empty disables the job.
type ScheduleConfig struct {
	CatalogRefresh string `toml:"catalog_refresh"`
	Timezone       string `toml:"timezone"`
	WarmOnStart    bool   `toml:"warm_on_start"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Clients: ClientsConfig{
			Gemini: GeminiConfig{
				Model:           "gemini-2.5-flash",
				RateLimit:       15,
				Timeout:         "2m",
				SearchGrounding: true,
			},
		},
		Analysis: AnalysisConfig{
			DisplayDays:     15,
			HistorySessions: 20,
			ChunkSize:       3,
			FallbackDelay:   "1500ms",
			MaxScanSymbols:  40,
		},
		Usage: UsageConfig{
			DailyQuota: 1500,
		},
		Schedule: ScheduleConfig{
			CatalogRefresh: "0 0 9 * * 0-4",
			Timezone:       "Africa/Cairo",
			WarmOnStart:    false,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			Outputs:    []string{"console"},
			FilePath:   "./logs/egx.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	config.Validate()

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("EGX_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("EGX_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("EGX_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("EGX_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if model := os.Getenv("EGX_GEMINI_MODEL"); model != "" {
		config.Clients.Gemini.Model = model
	}

	if days := os.Getenv("EGX_DISPLAY_DAYS"); days != "" {
		if d, err := strconv.Atoi(days); err == nil {
			config.Analysis.DisplayDays = d
		}
	}

	if quota := os.Getenv("EGX_DAILY_QUOTA"); quota != "" {
		if q, err := strconv.Atoi(quota); err == nil {
			config.Usage.DailyQuota = q
		}
	}

	if spec, ok := os.LookupEnv("EGX_CATALOG_REFRESH"); ok {
		config.Schedule.CatalogRefresh = spec
	}
}

// Validate resets out-of-range values to their defaults
func (c *Config) Validate() {
	defaults := NewDefaultConfig()

	if c.Analysis.DisplayDays <= 0 {
		c.Analysis.DisplayDays = defaults.Analysis.DisplayDays
	}
	if c.Analysis.HistorySessions < c.Analysis.DisplayDays+1 {
		c.Analysis.HistorySessions = c.Analysis.DisplayDays + 1
	}
	if c.Analysis.ChunkSize <= 0 {
		c.Analysis.ChunkSize = defaults.Analysis.ChunkSize
	}
	if c.Analysis.MaxScanSymbols <= 0 {
		c.Analysis.MaxScanSymbols = defaults.Analysis.MaxScanSymbols
	}
	if c.Usage.DailyQuota <= 0 {
		c.Usage.DailyQuota = defaults.Usage.DailyQuota
	}
	if c.Clients.Gemini.RateLimit <= 0 {
		c.Clients.Gemini.RateLimit = defaults.Clients.Gemini.RateLimit
	}
	if c.Clients.Gemini.Model == "" {
		c.Clients.Gemini.Model = defaults.Clients.Gemini.Model
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ResolveAPIKey resolves an API key from the environment, falling back to the config value
func ResolveAPIKey(name string, fallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"gemini_api_key": {"GEMINI_API_KEY", "EGX_GEMINI_API_KEY", "GOOGLE_API_KEY", "API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if fallback != "" {
		return fallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config", name)
}
