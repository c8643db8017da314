// Package config loads application configuration from file and environment.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Renderer RendererConfig `yaml:"renderer" mapstructure:"renderer"`
	Crawl    CrawlConfig    `yaml:"crawl" mapstructure:"crawl"`
	Extract  ExtractConfig  `yaml:"extract" mapstructure:"extract"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the local cache/history database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// RendererConfig holds page-renderer API settings.
type RendererConfig struct {
	Key          string  `yaml:"key" mapstructure:"key"`
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerSec   float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	RateBurst    int     `yaml:"rate_burst" mapstructure:"rate_burst"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	ProbeTimeout int     `yaml:"probe_timeout_secs" mapstructure:"probe_timeout_secs"`
}

// CrawlConfig configures discovery.
type CrawlConfig struct {
	MaxPages         int `yaml:"max_pages" mapstructure:"max_pages"`
	MaxDepth         int `yaml:"max_depth" mapstructure:"max_depth"`
	PollIntervalSecs int `yaml:"poll_interval_secs" mapstructure:"poll_interval_secs"`
	MaxPollAttempts  int `yaml:"max_poll_attempts" mapstructure:"max_poll_attempts"`
	CacheTTLHours    int `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// ExtractConfig configures the extraction stage.
type ExtractConfig struct {
	Concurrency       int `yaml:"concurrency" mapstructure:"concurrency"`
	MinListingRecords int `yaml:"min_listing_records" mapstructure:"min_listing_records"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment. An empty path searches
// the working directory for config.yaml; a non-empty path names the file
// explicitly and missing-file errors are no longer ignored.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("PORTFOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.path", "portfolio-scout.db")
	v.SetDefault("renderer.key", "")
	v.SetDefault("renderer.base_url", "https://api.firecrawl.dev/v1")
	v.SetDefault("renderer.rate_per_sec", 5.0)
	v.SetDefault("renderer.rate_burst", 10)
	v.SetDefault("renderer.timeout_secs", 25)
	v.SetDefault("renderer.probe_timeout_secs", 15)
	v.SetDefault("crawl.max_pages", 50)
	v.SetDefault("crawl.max_depth", 2)
	v.SetDefault("crawl.poll_interval_secs", 2)
	v.SetDefault("crawl.max_poll_attempts", 30)
	v.SetDefault("crawl.cache_ttl_hours", 48)
	v.SetDefault("extract.concurrency", 4)
	v.SetDefault("extract.min_listing_records", 3)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// The default search is optional; an explicit path must exist.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
