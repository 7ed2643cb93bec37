package prices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"sentiment-lens/internal/domain"
	"sentiment-lens/internal/metrics"
	"sentiment-lens/internal/provider"
	"sentiment-lens/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const seriesCacheTTL = 90 * time.Second

// Source is one market-data collaborator.
type Source interface {
	Name() string
	FetchSeries(ctx context.Context, asset domain.Asset, period, interval string) ([]domain.PricePoint, error)
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// Fetcher validates price requests, resolves the asset, calls a source with
// retries and returns a normalized series. Series are cached briefly in
// Redis when a client is configured.
type Fetcher struct {
	tracer        trace.Tracer
	assets        *domain.AssetBook
	sources       map[string]Source
	defaultSource string
	redis         RedisClient
	retry         provider.RetryPolicy
	log           *logger.Entry
}

func NewFetcher(
	tracer trace.Tracer,
	assets *domain.AssetBook,
	sources []Source,
	defaultSource string,
	redisClient RedisClient,
	retry provider.RetryPolicy,
) *Fetcher {
	bySource := make(map[string]Source, len(sources))
	for _, s := range sources {
		bySource[s.Name()] = s
	}
	if _, ok := bySource[defaultSource]; !ok && len(sources) > 0 {
		defaultSource = sources[0].Name()
	}
	return &Fetcher{
		tracer:        tracer,
		assets:        assets,
		sources:       bySource,
		defaultSource: defaultSource,
		redis:         redisClient,
		retry:         retry,
		log:           logger.Get().WithComponent("prices"),
	}
}

// Sources lists configured source names, sorted.
func (f *Fetcher) Sources() []string {
	names := make([]string, 0, len(f.sources))
	for name := range f.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (f *Fetcher) DefaultSource() string {
	return f.defaultSource
}

// Fetch reads from the default source.
func (f *Fetcher) Fetch(ctx context.Context, ticker, period, interval string) ([]domain.PricePoint, error) {
	return f.FetchFrom(ctx, "", ticker, period, interval)
}

// FetchFrom returns the series for ticker over period sampled at interval,
// ascending and deduplicated. ticker is a tracked symbol (BTC) or, for the
// yahoo source, a raw Yahoo ticker (BTC-USD). An empty series is not an error.
func (f *Fetcher) FetchFrom(ctx context.Context, source, ticker, period, interval string) ([]domain.PricePoint, error) {
	ctx, span := f.tracer.Start(ctx, "prices.fetch")
	defer span.End()

	if source == "" {
		source = f.defaultSource
	}
	span.SetAttributes(
		attribute.String("price.source", source),
		attribute.String("price.ticker", ticker),
		attribute.String("price.period", period),
		attribute.String("price.interval", interval),
	)

	src, ok := f.sources[source]
	if !ok {
		return nil, fmt.Errorf("%w: unknown price source %q", domain.ErrInvalidRequest, source)
	}
	if !slices.Contains(domain.SupportedPeriods, period) {
		return nil, fmt.Errorf("%w: unsupported period %q", domain.ErrInvalidRequest, period)
	}
	if !slices.Contains(domain.SupportedIntervals, interval) {
		return nil, fmt.Errorf("%w: unsupported interval %q", domain.ErrInvalidRequest, interval)
	}
	asset, err := f.resolve(source, ticker)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("prices:%s:%s:%s:%s", source, asset.Symbol, period, interval)
	if cached, ok := f.getCache(ctx, key); ok {
		metrics.RecordCacheHit(source)
		span.SetAttributes(attribute.Bool("price.cache_hit", true))
		return cached, nil
	}

	start := time.Now()
	points, err := provider.Retry(ctx, f.retry, func(ctx context.Context) ([]domain.PricePoint, error) {
		return src.FetchSeries(ctx, asset, period, interval)
	})
	metrics.RecordFetch(source, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		f.log.WithFields(logger.Fields{"source": source, "ticker": ticker}).WithError(err).Warn("price fetch failed")
		return nil, &domain.FetchError{
			Collaborator: source,
			Params:       map[string]string{"ticker": ticker, "period": period, "interval": interval},
			Err:          err,
		}
	}

	points = Normalize(points)
	span.SetAttributes(attribute.Int("price.points", len(points)))
	f.setCache(ctx, key, points)
	return points, nil
}

func (f *Fetcher) resolve(source, ticker string) (domain.Asset, error) {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return domain.Asset{}, fmt.Errorf("%w: ticker is required", domain.ErrInvalidRequest)
	}
	if f.assets != nil {
		if a, ok := f.assets.Lookup(ticker); ok {
			return a, nil
		}
	}
	if source == "yahoo" && strings.Contains(ticker, "-") {
		t := strings.ToUpper(ticker)
		return domain.Asset{Symbol: t, YahooTicker: t}, nil
	}
	return domain.Asset{}, fmt.Errorf("%w: unknown ticker %q", domain.ErrInvalidRequest, ticker)
}

func (f *Fetcher) getCache(ctx context.Context, key string) ([]domain.PricePoint, bool) {
	if f.redis == nil {
		return nil, false
	}
	raw, err := f.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			f.log.WithError(err).Warn("redis cache read error")
		}
		return nil, false
	}
	var points []domain.PricePoint
	if err := json.Unmarshal(raw, &points); err != nil {
		return nil, false
	}
	return points, true
}

func (f *Fetcher) setCache(ctx context.Context, key string, points []domain.PricePoint) {
	if f.redis == nil {
		return
	}
	data, err := json.Marshal(points)
	if err != nil {
		return
	}
	if err := f.redis.Set(ctx, key, data, seriesCacheTTL).Err(); err != nil {
		f.log.WithError(err).Warn("redis cache write error")
	}
}
