package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port default = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Analysis.DisplayDays != 15 {
		t.Errorf("Analysis.DisplayDays default = %d, want 15", cfg.Analysis.DisplayDays)
	}
	if cfg.Analysis.ChunkSize != 3 {
		t.Errorf("Analysis.ChunkSize default = %d, want 3", cfg.Analysis.ChunkSize)
	}
	if cfg.Usage.DailyQuota != 1500 {
		t.Errorf("Usage.DailyQuota default = %d, want 1500", cfg.Usage.DailyQuota)
	}
	if got := cfg.Analysis.GetFallbackDelay(); got != 1500*time.Millisecond {
		t.Errorf("GetFallbackDelay = %v, want 1.5s", got)
	}
}

func TestConfig_PortEnvOverride(t *testing.T) {
	t.Setenv("EGX_PORT", "9090")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d after env override, want %d", cfg.Server.Port, 9090)
	}
}

func TestConfig_InvalidPortEnvIgnored(t *testing.T) {
	t.Setenv("EGX_PORT", "not-a-port")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "egx.toml")
	content := `
environment = "production"

[server]
port = 7070

[analysis]
display_days = 10
chunk_size = 5
fallback_delay = "0s"

[clients.gemini]
model = "gemini-test"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("EGX_LOG_LEVEL", "debug")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Analysis.DisplayDays)
	assert.Equal(t, 5, cfg.Analysis.ChunkSize)
	assert.Equal(t, time.Duration(0), cfg.Analysis.GetFallbackDelay())
	assert.Equal(t, "gemini-test", cfg.Clients.Gemini.Model)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched sections keep their defaults
	assert.Equal(t, 1500, cfg.Usage.DailyQuota)
	assert.True(t, cfg.Clients.Gemini.SearchGrounding)
}

func TestLoadConfig_MissingFileSkipped(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"), "")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadConfig_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\nport ="), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfig_ValidateResetsOutOfRange(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Analysis.DisplayDays = 0
	cfg.Analysis.ChunkSize = -1
	cfg.Analysis.HistorySessions = 2
	cfg.Usage.DailyQuota = 0
	cfg.Clients.Gemini.Model = ""

	cfg.Validate()

	assert.Equal(t, 15, cfg.Analysis.DisplayDays)
	assert.Equal(t, 3, cfg.Analysis.ChunkSize)
	assert.Equal(t, 16, cfg.Analysis.HistorySessions)
	assert.Equal(t, 1500, cfg.Usage.DailyQuota)
	assert.Equal(t, "gemini-2.5-flash", cfg.Clients.Gemini.Model)
}

func TestResolveAPIKey_EnvBeatsFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")

	key, err := ResolveAPIKey("gemini_api_key", "from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)
}

func TestResolveAPIKey_Fallback(t *testing.T) {
	for _, name := range []string{"GEMINI_API_KEY", "EGX_GEMINI_API_KEY", "GOOGLE_API_KEY", "API_KEY"} {
		t.Setenv(name, "")
	}

	key, err := ResolveAPIKey("gemini_api_key", "from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-config", key)

	_, err = ResolveAPIKey("gemini_api_key", "")
	assert.Error(t, err)
}
