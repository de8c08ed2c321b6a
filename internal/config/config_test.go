
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/olcayay/shopify-tracker-sub001/internal/keywords"
	"github.com/olcayay/shopify-tracker-sub001/internal/similarity"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadDefaults()
	require.NoError(t, err)
	require.Equal(t, keywords.DefaultWeights(), cfg.Keywords.Weights)
	require.Equal(t, similarity.DefaultWeights(), cfg.Similarity.Weights)
	require.Equal(t, 2, cfg.Parser.SubcategorySegment)
	require.Equal(t, 24, cfg.Parser.MaxListings)
	require.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvDatabase, "")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultDatabasePath(), cfg.Database)
	require.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestLoadOverlaysFile(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
keywords:
  extra_stop_words: [chat]
  weights:
    name: 12
similarity:
  weights: {category: 0.4, feature: 0.2, keyword: 0.2, text: 0.2}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, slog.LevelDebug, cfg.Level())
	require.Equal(t, 12.0, cfg.Keywords.Weights.Name)
	require.Equal(t, 6.0, cfg.Keywords.Weights.Subtitle, "keys the file omits keep their defaults")
	require.Equal(t, 0.4, cfg.Similarity.Weights.Category)
	require.Equal(t, 24, cfg.Parser.MaxListings)

	tables := cfg.KeywordTables()
	require.True(t, tables.StopWords.Contains("chat"))
	require.True(t, tables.StopWords.Contains("shopify"))
	require.Equal(t, 2, tables.MinSources)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvDatabase, "/tmp/tracker-test.db")
	t.Setenv(EnvPort, "9090")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvConfig, writeConfig(t, "log_level: error\n"))

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "/tmp/tracker-test.db", cfg.Database)
	require.Equal(t, ":9090", cfg.Server.Addr)
	require.Equal(t, slog.LevelWarn, cfg.Level())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad weights", "similarity:\n  weights: {category: 1, feature: 1, keyword: 0, text: 0}\n"},
		{"bad level", "log_level: loud\n"},
		{"bad base url", "parser:\n  base_url: ftp://example.com\n"},
		{"bad timeout", "fetch:\n  timeout: soon\n"},
		{"bad segment", "parser:\n  subcategory_segment: -1\n"},
		{"too many keyword words", "keywords:\n  max_words: 4\n"},
		{"no keyword words", "keywords:\n  max_words: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
		})
	}
}

func TestFetchSettings(t *testing.T) {
	cfg := &Config{Fetch: FetchConfig{Timeout: "invalid", Concurrency: 0}}
	require.Equal(t, 20.0, cfg.FetchTimeout().Seconds())
	require.Equal(t, 1, cfg.FetchConcurrency())

	cfg.Fetch.Timeout = "5s"
	cfg.Fetch.Concurrency = 8
	require.Equal(t, 5.0, cfg.FetchTimeout().Seconds())
	require.Equal(t, 8, cfg.FetchConcurrency())
}
