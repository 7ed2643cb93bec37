package provider

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sentiment-lens/internal/domain"
	"sentiment-lens/internal/schema"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoProvider fetches price history from the CoinGecko free API.
type CoinGeckoProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	tracer  trace.Tracer
	limiter *RateLimiter
	now     func() time.Time
}

// NewCoinGeckoProvider creates a new provider with built-in rate limiting.
// Rate limited to 8 requests per minute (one token every 7.5 seconds).
func NewCoinGeckoProvider(tracer trace.Tracer, apiKey string) *CoinGeckoProvider {
	return &CoinGeckoProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: coingeckoBaseURL,
		apiKey:  strings.TrimSpace(apiKey),
		tracer:  tracer,
		limiter: NewRateLimiter(8, 7500*time.Millisecond),
		now:     time.Now,
	}
}

func (p *CoinGeckoProvider) Name() string { return "coingecko" }

// FetchSeries reads market_chart prices and resamples them to interval. The
// API picks its own granularity from the day count (5 minutes for one day,
// hourly up to 90 days, daily beyond) so short intervals over long periods
// come back sparser than requested.
func (p *CoinGeckoProvider) FetchSeries(ctx context.Context, asset domain.Asset, period, interval string) ([]domain.PricePoint, error) {
	ctx, span := p.tracer.Start(ctx, "coingecko.fetch-series")
	defer span.End()
	span.SetAttributes(
		attribute.String("asset.symbol", asset.Symbol),
		attribute.String("price.period", period),
		attribute.String("price.interval", interval),
	)

	if asset.CoinGeckoID == "" {
		return nil, fmt.Errorf("%w: no coingecko id for %s", domain.ErrInvalidRequest, asset.Symbol)
	}
	width := domain.IntervalDuration(interval)
	lookback := domain.PeriodDuration(period)
	if width == 0 || lookback == 0 {
		return nil, fmt.Errorf("%w: period %q interval %q", domain.ErrInvalidRequest, period, interval)
	}
	days := int(math.Ceil(lookback.Hours() / 24))

	u := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%d",
		strings.TrimRight(p.baseURL, "/"), url.PathEscape(asset.CoinGeckoID), days)
	headers := map[string]string{"Accept": "application/json"}
	if p.apiKey != "" {
		headers["x-cg-demo-api-key"] = p.apiKey
	}

	body, err := getBody(ctx, p.client, p.limiter, "coingecko", u, headers)
	if err != nil {
		return nil, fmt.Errorf("fetch market chart for %s: %w", asset.Symbol, err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: coingecko returned invalid JSON", domain.ErrSchemaMismatch)
	}

	// Response shape: {"prices": [[ms, price], ...], "market_caps": [...], "total_volumes": [...]}
	prices := gjson.GetBytes(body, "prices")
	if !prices.Exists() {
		return nil, fmt.Errorf("%w: coingecko response has no prices", domain.ErrSchemaMismatch)
	}
	table, err := schema.FromTuples(prices, "timestamp", "close")
	if err != nil {
		return nil, err
	}
	points, err := schema.PricePoints(table)
	if err != nil {
		return nil, err
	}

	now := p.now()
	return resampleCloses(withinPeriod(points, now, lookback), width), nil
}
