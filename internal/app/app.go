// Package app wires configuration into the analysis pipeline shared by
// every binary.
package app

import (
	"context"
	"time"

	"sentiment-lens/internal/cache"
	"sentiment-lens/internal/config"
	"sentiment-lens/internal/corpus"
	"sentiment-lens/internal/domain"
	"sentiment-lens/internal/export"
	"sentiment-lens/internal/metrics"
	"sentiment-lens/internal/prices"
	"sentiment-lens/internal/provider"
	"sentiment-lens/internal/sentiment"
	"sentiment-lens/internal/service"
	"sentiment-lens/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

type App struct {
	Config   *config.Config
	Tracer   trace.Tracer
	Assets   *domain.AssetBook
	Analysis *service.AnalysisService
	Prices   *prices.Fetcher
	Sink     *export.Sink
	Uploader *export.S3Uploader

	redis *redis.Client
}

var (
	initRedisFunc   = cache.InitRedis
	newUploaderFunc = export.NewS3Uploader
)

// ConfigureLogging applies the LOG_* settings. fallbackOutput is used when
// LOG_FILE is empty.
func ConfigureLogging(cfg *config.Config, fallbackOutput string) {
	output := cfg.LogFile
	if output == "" {
		output = fallbackOutput
	}
	if _, err := logger.Configure(cfg.LogLevel, cfg.LogFormat, output, cfg.LogMaxSizeMB); err != nil {
		logger.Get().WithError(err).Warn("invalid logging config, keeping defaults")
	}
}

// Build constructs providers, fetchers, the scorer and the analysis
// service. Redis and S3 are optional; failing to reach them is logged and
// the feature is disabled.
func Build(ctx context.Context, cfg *config.Config, tracer trace.Tracer) *App {
	log := logger.Get().WithComponent("app")
	metrics.Init()

	assets := domain.NewAssetBook(cfg.Assets)
	retry := provider.RetryPolicy{
		MaxTries: uint(cfg.FetchMaxRetries) + 1,
		Timeout:  cfg.FetchTimeout,
	}

	a := &App{Config: cfg, Tracer: tracer, Assets: assets}

	rdb, err := initRedisFunc(ctx, cfg.RedisURL)
	if err != nil {
		log.WithError(err).Warn("redis unavailable, price cache disabled")
	}
	var priceCache prices.RedisClient
	if rdb != nil {
		a.redis = rdb
		priceCache = rdb
	}

	sources := []prices.Source{
		provider.NewYahooProvider(tracer),
		provider.NewCoinGeckoProvider(tracer, cfg.CoinGeckoAPIKey),
		provider.NewBinanceProvider(tracer, cfg.BinanceBaseURL),
	}
	priceFetcher := prices.NewFetcher(tracer, assets, sources, cfg.PriceSource, priceCache, retry)
	a.Prices = priceFetcher

	events := corpus.NewFetcher(
		tracer,
		provider.NewRedditProvider(tracer, cfg.RedditUserAgent),
		provider.NewRSSProvider(tracer),
		corpus.Options{
			Matcher:         corpus.NewMatcher(cfg.MatchMode, cfg.Assets),
			IncludeComments: cfg.IncludeComments,
			Retry:           retry,
		},
	)

	scorer := sentiment.NewScorer(nil)
	if cfg.SentimentModel == "openai" {
		if model := sentiment.NewOpenAIModel(cfg.OpenAIAPIKey, cfg.OpenAIModel, sentiment.DefaultLexicon()); model != nil {
			scorer = sentiment.NewScorer(model)
			log.WithFields(logger.Fields{"model": cfg.OpenAIModel}).Info("openai sentiment model enabled")
		}
	}

	a.Analysis = service.NewAnalysisService(tracer, assets, events, priceFetcher, scorer, service.Defaults{
		Forums:   cfg.DefaultForums,
		Limit:    cfg.DefaultLimit,
		Period:   cfg.DefaultPeriod,
		Interval: cfg.DefaultInterval,
	})

	if cfg.ExportS3Bucket != "" {
		uploader, err := newUploaderFunc(ctx, export.S3Config{
			Bucket:          cfg.ExportS3Bucket,
			Region:          cfg.ExportS3Region,
			Endpoint:        cfg.ExportS3Endpoint,
			Prefix:          cfg.ExportS3Prefix,
			AccessKeyID:     cfg.ExportS3AccessKey,
			SecretAccessKey: cfg.ExportS3SecretKey,
		})
		if err != nil {
			log.WithError(err).Warn("s3 export disabled")
		} else {
			a.Uploader = uploader
		}
	}
	a.Sink = &export.Sink{Dir: cfg.ExportDir, Compression: cfg.ParquetCompression, Uploader: a.Uploader}

	log.WithFields(logger.Fields{
		"price_source": priceFetcher.DefaultSource(),
		"assets":       len(assets.Symbols()),
		"cache":        rdb != nil,
		"s3":           a.Uploader != nil,
	}).Info("pipeline ready")
	return a
}

// CacheEnabled reports whether price series are cached in Redis.
func (a *App) CacheEnabled() bool {
	return a.redis != nil
}

func (a *App) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// RunTimeout bounds a whole analysis run: both fetches with their retries.
func (a *App) RunTimeout() time.Duration {
	return a.Config.FetchTimeout*time.Duration(a.Config.FetchMaxRetries+1) + 30*time.Second
}
