package config

import (
	"errors"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// Validation errors reported by Config.Validate.
var (
	ErrNoDatabasePath  = errors.New("config: database path is empty")
	ErrNoModelPath     = errors.New("config: model path is empty")
	ErrNoVocabPath     = errors.New("config: vocab path is empty")
	ErrNoDashboardAddr = errors.New("config: dashboard address is empty")
)

const (
	configPathEnv      = "FINNEWS_CONFIG"
	databasePathEnv    = "FINNEWS_DB"
	newsAPIKeyEnv      = "NEWSAPI_API_KEY"
	marketauxKeyEnv    = "MARKETAUX_API_KEY"
	modelPathEnv       = "FINNEWS_MODEL_PATH"
	onnxSharedLibEnv   = "ONNX_SHARED_LIB"
	dashboardListenEnv = "FINNEWS_DASHBOARD_ADDR"
	metricsListenEnv   = "FINNEWS_METRICS_ADDR"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Providers ProviderConfig  `yaml:"providers"`
	Model     ModelConfig     `yaml:"model"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// DatabaseConfig describes the SQLite file location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig controls the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// FetchConfig defines what one pipeline pass asks the providers for.
type FetchConfig struct {
	Categories []string `yaml:"categories"`
	Countries  []string `yaml:"countries"`
	Language   string   `yaml:"language"`
	PageSize   int      `yaml:"pageSize"`
}

// ProviderConfig groups settings for headline sources. API keys come from
// environment variables only and are never written to the YAML file.
type ProviderConfig struct {
	NewsAPI   NewsAPIConfig   `yaml:"newsapi"`
	Marketaux MarketauxConfig `yaml:"marketaux"`
	Scrape    []ScrapeSource  `yaml:"scrape"`
}

// NewsAPIConfig wires the NewsAPI top-headlines client.
type NewsAPIConfig struct {
	Enabled     bool    `yaml:"enabled"`
	BaseURL     string  `yaml:"baseUrl"`
	APIKey      string  `yaml:"-"`
	RateLimitMs int     `yaml:"rateLimitMs"`
	TimeoutSec  float64 `yaml:"timeoutSec"`
}

// MarketauxConfig wires the MarketAux market-news client.
type MarketauxConfig struct {
	Enabled     bool    `yaml:"enabled"`
	BaseURL     string  `yaml:"baseUrl"`
	APIKey      string  `yaml:"-"`
	Symbols     string  `yaml:"symbols"`
	Limit       int     `yaml:"limit"`
	RateLimitMs int     `yaml:"rateLimitMs"`
	TimeoutSec  float64 `yaml:"timeoutSec"`
}

// ScrapeSource describes one HTML page to pull headlines from.
type ScrapeSource struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Selector string `yaml:"selector"`
}

// ModelConfig locates the sentiment model artifacts.
type ModelConfig struct {
	Path      string `yaml:"path"`
	VocabPath string `yaml:"vocabPath"`
	SharedLib string `yaml:"sharedLib"`
	Engine    string `yaml:"engine"`
}

// DashboardConfig defines the read-only dashboard listener.
type DashboardConfig struct {
	Addr string `yaml:"addr"`
}

// MetricsConfig defines the pipeline process's own metrics listener. Counters
// live in the incrementing process, so the pipeline exposes them itself; an
// empty address disables the listener.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// Validate checks the fields every process depends on. Provider enablement is
// not validated here; a run with zero providers is legal and simply fetches
// nothing.
func (c Config) Validate() error {
	if c.Database.Path == "" {
		return ErrNoDatabasePath
	}
	if c.Model.Path == "" {
		return ErrNoModelPath
	}
	if c.Model.VocabPath == "" {
		return ErrNoVocabPath
	}
	if c.Dashboard.Addr == "" {
		return ErrNoDashboardAddr
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(newsAPIKeyEnv); v != "" {
		c.Providers.NewsAPI.APIKey = v
	}

	if v := os.Getenv(marketauxKeyEnv); v != "" {
		c.Providers.Marketaux.APIKey = v
	}

	if v := os.Getenv(modelPathEnv); v != "" {
		c.Model.Path = v
	}

	if v := os.Getenv(onnxSharedLibEnv); v != "" {
		c.Model.SharedLib = v
	}

	if v := os.Getenv(dashboardListenEnv); v != "" {
		c.Dashboard.Addr = v
	}

	if v := os.Getenv(metricsListenEnv); v != "" {
		c.Metrics.Addr = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if len(override.Fetch.Categories) > 0 {
		base.Fetch.Categories = override.Fetch.Categories
	}
	if len(override.Fetch.Countries) > 0 {
		base.Fetch.Countries = override.Fetch.Countries
	}
	if override.Fetch.Language != "" {
		base.Fetch.Language = override.Fetch.Language
	}
	if override.Fetch.PageSize > 0 {
		base.Fetch.PageSize = override.Fetch.PageSize
	}

	if override.Providers.NewsAPI.BaseURL != "" {
		base.Providers.NewsAPI.BaseURL = override.Providers.NewsAPI.BaseURL
	}
	base.Providers.NewsAPI.Enabled = base.Providers.NewsAPI.Enabled || override.Providers.NewsAPI.Enabled
	if override.Providers.NewsAPI.RateLimitMs > 0 {
		base.Providers.NewsAPI.RateLimitMs = override.Providers.NewsAPI.RateLimitMs
	}
	if override.Providers.NewsAPI.TimeoutSec > 0 {
		base.Providers.NewsAPI.TimeoutSec = override.Providers.NewsAPI.TimeoutSec
	}

	if override.Providers.Marketaux.BaseURL != "" {
		base.Providers.Marketaux.BaseURL = override.Providers.Marketaux.BaseURL
	}
	base.Providers.Marketaux.Enabled = base.Providers.Marketaux.Enabled || override.Providers.Marketaux.Enabled
	if override.Providers.Marketaux.Symbols != "" {
		base.Providers.Marketaux.Symbols = override.Providers.Marketaux.Symbols
	}
	if override.Providers.Marketaux.Limit > 0 {
		base.Providers.Marketaux.Limit = override.Providers.Marketaux.Limit
	}
	if override.Providers.Marketaux.RateLimitMs > 0 {
		base.Providers.Marketaux.RateLimitMs = override.Providers.Marketaux.RateLimitMs
	}
	if override.Providers.Marketaux.TimeoutSec > 0 {
		base.Providers.Marketaux.TimeoutSec = override.Providers.Marketaux.TimeoutSec
	}

	if len(override.Providers.Scrape) > 0 {
		base.Providers.Scrape = override.Providers.Scrape
	}

	if override.Model.Path != "" {
		base.Model.Path = override.Model.Path
	}
	if override.Model.VocabPath != "" {
		base.Model.VocabPath = override.Model.VocabPath
	}
	if override.Model.SharedLib != "" {
		base.Model.SharedLib = override.Model.SharedLib
	}
	if override.Model.Engine != "" {
		base.Model.Engine = override.Model.Engine
	}

	if override.Dashboard.Addr != "" {
		base.Dashboard.Addr = override.Dashboard.Addr
	}

	if override.Metrics.Addr != "" {
		base.Metrics.Addr = override.Metrics.Addr
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Database: DatabaseConfig{Path: "storage/finnews.db"},
		Logging:  LoggingConfig{Level: "info"},
		Fetch: FetchConfig{
			Categories: []string{"business"},
			Countries:  []string{"us"},
			Language:   "en",
			PageSize:   100,
		},
		Providers: ProviderConfig{
			NewsAPI: NewsAPIConfig{
				Enabled:     true,
				BaseURL:     "https://newsapi.org/v2",
				RateLimitMs: 250,
				TimeoutSec:  15,
			},
			Marketaux: MarketauxConfig{
				Enabled:     false,
				BaseURL:     "https://api.marketaux.com/v1",
				Limit:       25,
				RateLimitMs: 250,
				TimeoutSec:  15,
			},
		},
		Model: ModelConfig{
			Path:      "models/finbert_finetuned_v1/model.onnx",
			VocabPath: "models/finbert_finetuned_v1/vocab.txt",
			Engine:    "finbert_finetuned_v1",
		},
		Dashboard: DashboardConfig{Addr: ":8090"},
	}
}
