
package config

import (
	"embed"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/olcayay/shopify-tracker-sub001/internal/keywords"
	"github.com/olcayay/shopify-tracker-sub001/internal/parser"
	"github.com/olcayay/shopify-tracker-sub001/internal/similarity"
	"github.com/olcayay/shopify-tracker-sub001/internal/textutil"
	"github.com/olcayay/shopify-tracker-sub001/pkg/logger"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

const appName = "shopify-tracker"

// Environment overrides, applied after the file is read.
const (
	EnvConfig   = "TRACKER_CONFIG"
	EnvDatabase = "TRACKER_DB"
	EnvLogLevel = "TRACKER_LOG_LEVEL"
	EnvPort     = "PORT"
)

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type ParserConfig struct {
	BaseURL            string `yaml:"base_url"`
	SubcategorySegment int    `yaml:"subcategory_segment"`
	MaxListings        int    `yaml:"max_listings"`
}

type KeywordConfig struct {
	MinSources       int                   `yaml:"min_sources"`
	MaxWords         int                   `yaml:"max_words"`
	MinUnigramLength int                   `yaml:"min_unigram_length"`
	ExtraStopWords   []string              `yaml:"extra_stop_words"`
	Weights          keywords.FieldWeights `yaml:"weights"`
}

type SimilarityConfig struct {
	MinTokenLength int                `yaml:"min_token_length"`
	Weights        similarity.Weights `yaml:"weights"`
}

type FetchConfig struct {
	Timeout      string `yaml:"timeout"`
	SizeCapBytes int64  `yaml:"size_cap_bytes"`
	MaxPages     int    `yaml:"max_pages"`
	Concurrency  int    `yaml:"concurrency"`
	UserAgent    string `yaml:"user_agent"`
}

type Config struct {
	Database   string           `yaml:"database"`
	LogLevel   string           `yaml:"log_level"`
	Server     ServerConfig     `yaml:"server"`
	Parser     ParserConfig     `yaml:"parser"`
	Keywords   KeywordConfig    `yaml:"keywords"`
	Similarity SimilarityConfig `yaml:"similarity"`
	Fetch      FetchConfig      `yaml:"fetch"`
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

func DefaultDatabasePath() string {
	return filepath.Join(xdg.DataHome, appName, "tracker.db")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads the config at path over the embedded defaults. An empty path
// falls back to $TRACKER_CONFIG, then the XDG config location; a missing
// file is not an error.
func Load(path string) (*Config, error) {
	cfg, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if cfg.Database == "" {
		cfg.Database = DefaultDatabasePath()
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDatabase); v != "" {
		c.Database = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		c.Server.Addr = ":" + v
	}
}

func validate(cfg *Config) error {
	if _, err := logger.ParseLevel(cfg.LogLevel); err != nil {
		return err
	}
	u, err := url.Parse(cfg.Parser.BaseURL)
	if err != nil {
		return fmt.Errorf("parser.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("parser.base_url: scheme must be http or https, got %q", u.Scheme)
	}
	if cfg.Parser.SubcategorySegment < 0 {
		return fmt.Errorf("parser.subcategory_segment must be >= 0")
	}
	if cfg.Keywords.MaxWords < 1 || cfg.Keywords.MaxWords > keywords.MaxKeywordWords {
		return fmt.Errorf("keywords.max_words must be between 1 and %d, got %d", keywords.MaxKeywordWords, cfg.Keywords.MaxWords)
	}
	if err := cfg.Similarity.Weights.Validate(); err != nil {
		return fmt.Errorf("similarity.weights: %w", err)
	}
	if _, err := time.ParseDuration(cfg.Fetch.Timeout); cfg.Fetch.Timeout != "" && err != nil {
		return fmt.Errorf("fetch.timeout: %w", err)
	}
	return nil
}

func (c *Config) Level() slog.Level {
	l, _ := logger.ParseLevel(c.LogLevel)
	return l
}

func (c *Config) ParserOptions(log *slog.Logger) []parser.Option {
	return []parser.Option{
		parser.WithLogger(log),
		parser.WithBaseURL(c.Parser.BaseURL),
		parser.WithSubcategorySegment(c.Parser.SubcategorySegment),
		parser.WithMaxListings(c.Parser.MaxListings),
	}
}

func (c *Config) KeywordTables() keywords.Tables {
	t := keywords.DefaultTables()
	t.Weights = c.Keywords.Weights
	t.StopWords = t.StopWords.With(c.Keywords.ExtraStopWords...)
	if c.Keywords.MinSources > 0 {
		t.MinSources = c.Keywords.MinSources
	}
	t.MaxWords = c.Keywords.MaxWords
	if c.Keywords.MinUnigramLength > 0 {
		t.MinUnigramLen = c.Keywords.MinUnigramLength
	}
	return t
}

func (c *Config) SimilarityOptions(log *slog.Logger) []similarity.Option {
	opts := []similarity.Option{
		similarity.WithWeights(c.Similarity.Weights),
		similarity.WithStopWords(textutil.DefaultStopWords().With(c.Keywords.ExtraStopWords...)),
		similarity.WithLogger(log),
	}
	if c.Similarity.MinTokenLength > 0 {
		opts = append(opts, similarity.WithMinTokenLength(c.Similarity.MinTokenLength))
	}
	return opts
}

func (c *Config) FetchTimeout() time.Duration {
	d, err := time.ParseDuration(c.Fetch.Timeout)
	if err != nil || d <= 0 {
		return 20 * time.Second
	}
	return d
}

// FetchConcurrency returns the worker count for batch commands, at least 1.
func (c *Config) FetchConcurrency() int {
	if c.Fetch.Concurrency < 1 {
		return 1
	}
	return c.Fetch.Concurrency
}
