package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jcmxo/98-pfm-traza-2025/internal/engine"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	require.Equal(t, "localhost:8311", cfg.Listen)
	require.False(t, cfg.Debug)
	require.False(t, cfg.Database.InMemory)
	require.NotEmpty(t, cfg.Database.Path)
	require.Equal(t, engine.DefaultTraceCacheTTL, cfg.Cache.TraceTTL)
	require.False(t, cfg.Cache.Disabled)
	require.False(t, cfg.Tracing.Enabled)
	require.Equal(t, "file", cfg.Tracing.Exporter)
}

func TestDefaults_Validate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate(), "defaults should always validate")
}

func TestValidate_BadListenAddress(t *testing.T) {
	cfg := Defaults()
	cfg.Listen = "not-an-address"

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "listen address")
}

func TestValidate_MissingDatabasePath(t *testing.T) {
	cfg := Defaults()
	cfg.Database.Path = ""

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "database.path")
}

func TestValidate_InMemoryNeedsNoPath(t *testing.T) {
	cfg := Defaults()
	cfg.Database.Path = ""
	cfg.Database.InMemory = true

	require.NoError(t, cfg.Validate())
}

func TestValidate_NegativeTraceTTL(t *testing.T) {
	cfg := Defaults()
	cfg.Cache.TraceTTL = -time.Second

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "trace_ttl")
}

func TestDefaultDatabasePath(t *testing.T) {
	path := DefaultDatabasePath()
	require.True(t, strings.HasSuffix(path, filepath.Join(".traza", "traza.db")))
}

func TestWriteDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "nested", "config.yaml")

	err := WriteDefaultConfig(configPath)
	require.NoError(t, err)

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "listen: localhost:8311")
	require.Contains(t, string(data), "trace_ttl: 10m")
}

func TestDefaultConfigTemplate_MatchesDefaults(t *testing.T) {
	// The commented template should advertise the same listen address
	// the code falls back to.
	require.Contains(t, DefaultConfigTemplate(), Defaults().Listen)
}
