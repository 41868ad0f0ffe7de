package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Database.Path != "storage/finnews.db" {
		t.Fatalf("unexpected db path: %s", cfg.Database.Path)
	}
	if len(cfg.Fetch.Categories) != 1 || cfg.Fetch.Categories[0] != "business" {
		t.Fatalf("unexpected categories: %v", cfg.Fetch.Categories)
	}
	if cfg.Fetch.Language != "en" {
		t.Fatalf("unexpected language: %s", cfg.Fetch.Language)
	}
	if !cfg.Providers.NewsAPI.Enabled {
		t.Fatal("newsapi should be enabled by default")
	}
	if cfg.Providers.Marketaux.Enabled {
		t.Fatal("marketaux should be disabled by default")
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("FINNEWS_DB", "/tmp/override.db")
	t.Setenv("NEWSAPI_API_KEY", "key-from-env")
	t.Setenv("MARKETAUX_API_KEY", "aux-from-env")
	t.Setenv("ONNX_SHARED_LIB", "/opt/onnx/libonnxruntime.so")
	t.Setenv("FINNEWS_METRICS_ADDR", ":9091")

	cfg := Load()

	if cfg.Database.Path != "/tmp/override.db" {
		t.Fatalf("db override not applied: %s", cfg.Database.Path)
	}
	if cfg.Providers.NewsAPI.APIKey != "key-from-env" {
		t.Fatal("newsapi key override not applied")
	}
	if cfg.Providers.Marketaux.APIKey != "aux-from-env" {
		t.Fatal("marketaux key override not applied")
	}
	if cfg.Model.SharedLib != "/opt/onnx/libonnxruntime.so" {
		t.Fatal("shared lib override not applied")
	}
	if cfg.Metrics.Addr != ":9091" {
		t.Fatal("metrics addr override not applied")
	}
}

func TestLoadMergesYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
database:
  path: data/news.db
fetch:
  categories: [business, technology]
  countries: [us, gb]
providers:
  marketaux:
    enabled: true
    symbols: "AAPL,TSLA"
    limit: 10
  scrape:
    - name: Reuters Technology
      url: https://www.reuters.com/technology/
      selector: a[data-testid="Link"]
model:
  engine: finbert_v2
dashboard:
  addr: ":9000"
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("FINNEWS_CONFIG", path)

	cfg := Load()

	if cfg.Database.Path != "data/news.db" {
		t.Fatalf("file db path not applied: %s", cfg.Database.Path)
	}
	if len(cfg.Fetch.Categories) != 2 || len(cfg.Fetch.Countries) != 2 {
		t.Fatalf("fetch overrides not applied: %+v", cfg.Fetch)
	}
	// Defaults survive where the file is silent.
	if cfg.Fetch.Language != "en" || cfg.Fetch.PageSize != 100 {
		t.Fatalf("defaults lost in merge: %+v", cfg.Fetch)
	}
	if !cfg.Providers.Marketaux.Enabled || cfg.Providers.Marketaux.Limit != 10 {
		t.Fatalf("marketaux overrides not applied: %+v", cfg.Providers.Marketaux)
	}
	if len(cfg.Providers.Scrape) != 1 || cfg.Providers.Scrape[0].Name != "Reuters Technology" {
		t.Fatalf("scrape sources not applied: %+v", cfg.Providers.Scrape)
	}
	if cfg.Model.Engine != "finbert_v2" {
		t.Fatalf("model engine not applied: %s", cfg.Model.Engine)
	}
	if cfg.Dashboard.Addr != ":9000" {
		t.Fatalf("dashboard addr not applied: %s", cfg.Dashboard.Addr)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"defaults are valid", func(*Config) {}, nil},
		{"missing db path", func(c *Config) { c.Database.Path = "" }, ErrNoDatabasePath},
		{"missing model path", func(c *Config) { c.Model.Path = "" }, ErrNoModelPath},
		{"missing vocab path", func(c *Config) { c.Model.VocabPath = "" }, ErrNoVocabPath},
		{"missing dashboard addr", func(c *Config) { c.Dashboard.Addr = "" }, ErrNoDashboardAddr},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := defaultConfig()
			tt.mutate(&cfg)

			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadIgnoresUnreadableConfig(t *testing.T) {
	t.Setenv("FINNEWS_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := Load()
	if cfg.Database.Path != "storage/finnews.db" {
		t.Fatalf("expected defaults, got %s", cfg.Database.Path)
	}
}
