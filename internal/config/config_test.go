package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_PORT", "REDIS_URL", "PRICE_SOURCE", "DEFAULT_FORUMS", "DEFAULT_POST_LIMIT",
		"DEFAULT_PERIOD", "DEFAULT_INTERVAL", "FETCH_TIMEOUT_SECS", "MATCH_MODE", "SENTIMENT_MODEL", "WATCHLIST_PATH", "MCP_TRANSPORT"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default port, got %s", cfg.HTTPPort)
	}
	if cfg.RedisURL != "" {
		t.Fatalf("expected empty redis url, got %s", cfg.RedisURL)
	}
	if cfg.PriceSource != "yahoo" || cfg.DefaultPeriod != "7d" || cfg.DefaultInterval != "1h" {
		t.Fatalf("unexpected price defaults: %+v", cfg)
	}
	if cfg.DefaultLimit != 100 {
		t.Fatalf("expected default limit 100, got %d", cfg.DefaultLimit)
	}
	if len(cfg.DefaultForums) != 4 || cfg.DefaultForums[0] != "CryptoCurrency" {
		t.Fatalf("unexpected default forums: %v", cfg.DefaultForums)
	}
	if cfg.FetchTimeout != 20*time.Second {
		t.Fatalf("expected 20s fetch timeout, got %s", cfg.FetchTimeout)
	}
	if cfg.MatchMode != "substring" || cfg.SentimentModel != "lexicon" || cfg.MCPTransport != "stdio" {
		t.Fatalf("unexpected mode defaults: %+v", cfg)
	}
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("REDIS_URL", "redis:6379")
	t.Setenv("PRICE_SOURCE", "Binance")
	t.Setenv("DEFAULT_FORUMS", " Bitcoin , ,rss:https://example.com/feed ")
	t.Setenv("DEFAULT_POST_LIMIT", "900")
	t.Setenv("DEFAULT_PERIOD", "1mo")
	t.Setenv("DEFAULT_INTERVAL", "4h")
	t.Setenv("MATCH_MODE", "word")
	t.Setenv("INCLUDE_COMMENTS", "true")

	cfg := Load()
	if cfg.HTTPPort != "9000" || cfg.RedisURL != "redis:6379" || cfg.PriceSource != "binance" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.DefaultForums) != 2 || cfg.DefaultForums[1] != "rss:https://example.com/feed" {
		t.Fatalf("unexpected forums: %v", cfg.DefaultForums)
	}
	if cfg.DefaultLimit != MaxPostLimit {
		t.Fatalf("expected limit clamped to %d, got %d", MaxPostLimit, cfg.DefaultLimit)
	}
	if cfg.DefaultPeriod != "1mo" || cfg.DefaultInterval != "4h" {
		t.Fatalf("unexpected period/interval: %s %s", cfg.DefaultPeriod, cfg.DefaultInterval)
	}
	if cfg.MatchMode != "word" || !cfg.IncludeComments {
		t.Fatalf("unexpected match settings: %+v", cfg)
	}
}

func TestLoadCacheWarmer(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	t.Setenv("CACHE_WARM_INTERVAL_SECS", "30")
	if cfg := Load(); cfg.CacheWarmInterval != 0 {
		t.Fatalf("warmer should be disabled without redis, got %s", cfg.CacheWarmInterval)
	}

	t.Setenv("REDIS_URL", "redis:6379")
	t.Setenv("CACHE_WARM_BATCH", "2")
	cfg := Load()
	if cfg.CacheWarmInterval != 30*time.Second || cfg.CacheWarmBatch != 2 {
		t.Fatalf("unexpected warmer settings: %s %d", cfg.CacheWarmInterval, cfg.CacheWarmBatch)
	}
}

func TestLoadFallsBackOnInvalidValues(t *testing.T) {
	t.Setenv("PRICE_SOURCE", "kraken")
	t.Setenv("DEFAULT_PERIOD", "2w")
	t.Setenv("DEFAULT_INTERVAL", "2h")
	t.Setenv("FETCH_TIMEOUT_SECS", "bad")
	t.Setenv("SENTIMENT_MODEL", "openai")
	t.Setenv("OPENAI_API_KEY", "")

	cfg := Load()
	if cfg.PriceSource != "yahoo" || cfg.DefaultPeriod != "7d" || cfg.DefaultInterval != "1h" {
		t.Fatalf("invalid values should fall back to defaults: %+v", cfg)
	}
	if cfg.FetchTimeout != 20*time.Second {
		t.Fatalf("invalid timeout should fall back, got %s", cfg.FetchTimeout)
	}
	if cfg.SentimentModel != "lexicon" {
		t.Fatalf("openai without key should fall back to lexicon, got %s", cfg.SentimentModel)
	}
}

func TestLoadWatchlist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.yaml")
	content := `
assets:
  - symbol: pepe
    name: Pepe
    coingeckoId: pepe
    binanceSymbol: PEPEUSDT
  - symbol: BTC
    yahooTicker: BTC-USD
forums:
  - SatoshiStreetBets
  - " "
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WATCHLIST_PATH", path)
	t.Setenv("DEFAULT_FORUMS", "")

	cfg := Load()
	if len(cfg.Assets) != 2 {
		t.Fatalf("expected 2 assets, got %d", len(cfg.Assets))
	}
	if cfg.Assets[0].Symbol != "PEPE" || cfg.Assets[0].YahooTicker != "PEPE-USD" || cfg.Assets[0].CoinGeckoID != "pepe" {
		t.Fatalf("unexpected asset: %+v", cfg.Assets[0])
	}
	if len(cfg.DefaultForums) != 1 || cfg.DefaultForums[0] != "SatoshiStreetBets" {
		t.Fatalf("unexpected forums: %v", cfg.DefaultForums)
	}
}

func TestLoadWatchlistRejectsMissingSymbol(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.yaml")
	if err := os.WriteFile(path, []byte("assets:\n  - name: nameless\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadWatchlist(path); err == nil {
		t.Fatal("expected error for asset without symbol")
	}
}

func TestLoadIgnoresBrokenWatchlist(t *testing.T) {
	t.Setenv("WATCHLIST_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	cfg := Load()
	if len(cfg.Assets) == 0 || cfg.Assets[0].Symbol != "BTC" {
		t.Fatalf("expected built-in assets, got %v", cfg.Assets)
	}
}
