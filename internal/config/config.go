package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"sentiment-lens/internal/domain"
	"sentiment-lens/pkg/logger"

	"gopkg.in/yaml.v3"
)

const (
	MinPostLimit = 1
	MaxPostLimit = 500
)

type Config struct {
	HTTPPort string
	APIKey   string
	RedisURL string

	PriceSource     string
	Assets          []domain.Asset
	DefaultForums   []string
	DefaultLimit    int
	DefaultPeriod   string
	DefaultInterval string
	BinanceBaseURL  string
	CoinGeckoAPIKey string
	RedditUserAgent string

	FetchTimeout    time.Duration
	FetchMaxRetries int
	MatchMode       string
	IncludeComments bool

	CacheWarmInterval time.Duration
	CacheWarmBatch    int

	SentimentModel string
	OpenAIAPIKey   string
	OpenAIModel    string

	TelegramBotToken string

	SSHPort               int
	SSHHostKeyPath        string
	SSHAuthorizedKeysPath string

	MCPTransport      string
	MCPHTTPBind       string
	MCPHTTPPort       int
	MCPAuthToken      string
	MCPRequestTimeout time.Duration

	ExportDir          string
	ExportS3Bucket     string
	ExportS3Region     string
	ExportS3Endpoint   string
	ExportS3Prefix     string
	ExportS3AccessKey  string
	ExportS3SecretKey  string
	ParquetCompression string

	LogLevel     string
	LogFormat    string
	LogFile      string
	LogMaxSizeMB int
}

// Watchlist is the optional YAML file that overrides tracked assets and
// default forums.
//
//	assets:
//	  - symbol: BTC
//	    name: Bitcoin
//	    yahooTicker: BTC-USD
//	    coingeckoId: bitcoin
//	    binanceSymbol: BTCUSDT
//	forums: [CryptoCurrency, Bitcoin]
type Watchlist struct {
	Assets []domain.Asset `yaml:"assets"`
	Forums []string       `yaml:"forums"`
}

func Load() *Config {
	log := configLog()
	cfg := &Config{
		APIKey:            strings.TrimSpace(os.Getenv("API_KEY")),
		RedisURL:          strings.TrimSpace(os.Getenv("REDIS_URL")),
		CoinGeckoAPIKey:   strings.TrimSpace(os.Getenv("COINGECKO_API_KEY")),
		OpenAIAPIKey:      strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		TelegramBotToken:  strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		ExportS3Bucket:    strings.TrimSpace(os.Getenv("EXPORT_S3_BUCKET")),
		ExportS3Endpoint:  strings.TrimSpace(os.Getenv("EXPORT_S3_ENDPOINT")),
		ExportS3Prefix:    strings.TrimSpace(os.Getenv("EXPORT_S3_PREFIX")),
		ExportS3AccessKey: strings.TrimSpace(os.Getenv("EXPORT_S3_ACCESS_KEY_ID")),
		ExportS3SecretKey: strings.TrimSpace(os.Getenv("EXPORT_S3_SECRET_ACCESS_KEY")),
		LogFile:           strings.TrimSpace(os.Getenv("LOG_FILE")),
		IncludeComments:   envBool("INCLUDE_COMMENTS"),
		Assets:            domain.DefaultAssets,
		DefaultForums:     domain.DefaultForums,
	}

	cfg.HTTPPort = envString("HTTP_PORT", "8080")
	if cfg.APIKey == "" {
		log.Warn("API_KEY not set, API routes are unauthenticated")
	}
	if cfg.RedisURL == "" {
		log.Info("REDIS_URL not set, price cache disabled")
	}

	cfg.PriceSource = strings.ToLower(envString("PRICE_SOURCE", "yahoo"))
	if !slices.Contains([]string{"yahoo", "coingecko", "binance"}, cfg.PriceSource) {
		log.Warnf("unsupported PRICE_SOURCE=%q, defaulting to yahoo", cfg.PriceSource)
		cfg.PriceSource = "yahoo"
	}
	cfg.BinanceBaseURL = envString("BINANCE_BASE_URL", "https://api.binance.com")
	cfg.RedditUserAgent = envString("REDDIT_USER_AGENT", "sentiment-lens/1.0")

	if v := strings.TrimSpace(os.Getenv("DEFAULT_FORUMS")); v != "" {
		cfg.DefaultForums = splitList(v)
	}

	cfg.DefaultLimit = envInt("DEFAULT_POST_LIMIT", 100)
	if cfg.DefaultLimit < MinPostLimit || cfg.DefaultLimit > MaxPostLimit {
		clamped := min(max(cfg.DefaultLimit, MinPostLimit), MaxPostLimit)
		log.Warnf("DEFAULT_POST_LIMIT=%d out of range, clamping to %d", cfg.DefaultLimit, clamped)
		cfg.DefaultLimit = clamped
	}

	cfg.DefaultPeriod = envString("DEFAULT_PERIOD", "7d")
	if !slices.Contains(domain.SupportedPeriods, cfg.DefaultPeriod) {
		log.Warnf("unsupported DEFAULT_PERIOD=%q, defaulting to 7d", cfg.DefaultPeriod)
		cfg.DefaultPeriod = "7d"
	}
	cfg.DefaultInterval = envString("DEFAULT_INTERVAL", "1h")
	if !slices.Contains(domain.SupportedIntervals, cfg.DefaultInterval) {
		log.Warnf("unsupported DEFAULT_INTERVAL=%q, defaulting to 1h", cfg.DefaultInterval)
		cfg.DefaultInterval = "1h"
	}

	cfg.FetchTimeout = time.Duration(envInt("FETCH_TIMEOUT_SECS", 20)) * time.Second
	cfg.FetchMaxRetries = envInt("FETCH_MAX_RETRIES", 3)

	if strings.TrimSpace(os.Getenv("CACHE_WARM_INTERVAL_SECS")) != "" {
		cfg.CacheWarmInterval = time.Duration(envInt("CACHE_WARM_INTERVAL_SECS", 60)) * time.Second
		if cfg.RedisURL == "" {
			log.Warn("CACHE_WARM_INTERVAL_SECS set without REDIS_URL, cache warmer disabled")
			cfg.CacheWarmInterval = 0
		}
	}
	cfg.CacheWarmBatch = envInt("CACHE_WARM_BATCH", 4)

	cfg.MatchMode = strings.ToLower(envString("MATCH_MODE", "substring"))
	if cfg.MatchMode != "substring" && cfg.MatchMode != "word" {
		log.Warnf("unsupported MATCH_MODE=%q, defaulting to substring", cfg.MatchMode)
		cfg.MatchMode = "substring"
	}

	cfg.SentimentModel = strings.ToLower(envString("SENTIMENT_MODEL", "lexicon"))
	if cfg.SentimentModel != "lexicon" && cfg.SentimentModel != "openai" {
		log.Warnf("unsupported SENTIMENT_MODEL=%q, defaulting to lexicon", cfg.SentimentModel)
		cfg.SentimentModel = "lexicon"
	}
	if cfg.SentimentModel == "openai" && cfg.OpenAIAPIKey == "" {
		log.Warn("SENTIMENT_MODEL=openai but OPENAI_API_KEY not set, using lexicon")
		cfg.SentimentModel = "lexicon"
	}
	cfg.OpenAIModel = envString("OPENAI_MODEL", "gpt-4o-mini")

	if cfg.TelegramBotToken == "" {
		log.Info("TELEGRAM_BOT_TOKEN not set, bot disabled")
	}

	cfg.SSHPort = envInt("SSH_PORT", 2222)
	cfg.SSHHostKeyPath = envString("SSH_HOST_KEY_PATH", ".ssh/sentiment_lens_ed25519")
	cfg.SSHAuthorizedKeysPath = strings.TrimSpace(os.Getenv("SSH_AUTHORIZED_KEYS_PATH"))

	cfg.MCPTransport = strings.ToLower(envString("MCP_TRANSPORT", "stdio"))
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Warnf("unsupported MCP_TRANSPORT=%q, defaulting to stdio", cfg.MCPTransport)
		cfg.MCPTransport = "stdio"
	}
	cfg.MCPHTTPBind = envString("MCP_HTTP_BIND", "127.0.0.1")
	cfg.MCPHTTPPort = envInt("MCP_HTTP_PORT", 8090)
	cfg.MCPAuthToken = strings.TrimSpace(os.Getenv("MCP_AUTH_TOKEN"))
	cfg.MCPRequestTimeout = time.Duration(envInt("MCP_REQUEST_TIMEOUT_SECS", 120)) * time.Second

	cfg.ExportDir = envString("EXPORT_DIR", "exports")
	cfg.ExportS3Region = envString("EXPORT_S3_REGION", "us-east-1")
	cfg.ParquetCompression = strings.ToLower(envString("PARQUET_COMPRESSION", "snappy"))
	if !slices.Contains([]string{"snappy", "gzip", "zstd", "none"}, cfg.ParquetCompression) {
		log.Warnf("unsupported PARQUET_COMPRESSION=%q, defaulting to snappy", cfg.ParquetCompression)
		cfg.ParquetCompression = "snappy"
	}

	cfg.LogLevel = strings.ToLower(envString("LOG_LEVEL", "info"))
	cfg.LogFormat = strings.ToLower(envString("LOG_FORMAT", "json"))
	cfg.LogMaxSizeMB = envInt("LOG_MAX_SIZE_MB", 100)

	if path := strings.TrimSpace(os.Getenv("WATCHLIST_PATH")); path != "" {
		wl, err := LoadWatchlist(path)
		if err != nil {
			log.WithError(err).Warnf("ignoring watchlist %s", path)
		} else {
			if len(wl.Assets) > 0 {
				cfg.Assets = wl.Assets
			}
			if len(wl.Forums) > 0 {
				cfg.DefaultForums = wl.Forums
			}
		}
	}

	return cfg
}

// LoadWatchlist reads and validates a watchlist file.
func LoadWatchlist(path string) (*Watchlist, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read watchlist: %w", err)
	}
	var wl Watchlist
	if err := yaml.Unmarshal(raw, &wl); err != nil {
		return nil, fmt.Errorf("parse watchlist: %w", err)
	}
	for i, a := range wl.Assets {
		a.Symbol = domain.NormalizeSymbol(a.Symbol)
		if a.Symbol == "" {
			return nil, fmt.Errorf("watchlist asset %d: symbol is required", i)
		}
		if a.YahooTicker == "" {
			a.YahooTicker = a.Symbol + "-USD"
		}
		wl.Assets[i] = a
	}
	forums := wl.Forums[:0]
	for _, f := range wl.Forums {
		if f = strings.TrimSpace(f); f != "" {
			forums = append(forums, f)
		}
	}
	wl.Forums = forums
	return &wl, nil
}

func configLog() *logger.Entry {
	return logger.Get().WithComponent("config")
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		configLog().Warnf("invalid %s=%q, defaulting to %d", key, v, def)
		return def
	}
	return n
}

func envBool(key string) bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv(key)), "true")
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
