package provider

import (
	"context"
	"fmt"
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

const (
	yahooBaseURL = "https://query1.finance.yahoo.com"
	yahooUA      = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// yahooNative maps an interval to the bar size requested from Yahoo. Yahoo
// has no 4h bars, so those are built from hourly ones.
var yahooNative = map[string]string{
	"5m":  "5m",
	"15m": "15m",
	"30m": "30m",
	"1h":  "1h",
	"4h":  "1h",
	"1d":  "1d",
}

// YahooProvider reads the Yahoo Finance chart endpoint.
type YahooProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
	now     func() time.Time
}

func NewYahooProvider(tracer trace.Tracer) *YahooProvider {
	return &YahooProvider{
		client:  &http.Client{Timeout: 20 * time.Second},
		baseURL: yahooBaseURL,
		tracer:  tracer,
		limiter: NewRateLimiter(4, 500*time.Millisecond),
		now:     time.Now,
	}
}

func (p *YahooProvider) Name() string { return "yahoo" }

// FetchSeries returns closes for the asset's Yahoo ticker. Yahoo stamps bars
// with their open time; each point is restamped with the bar's end so a
// close is never visible before the bar finished.
func (p *YahooProvider) FetchSeries(ctx context.Context, asset domain.Asset, period, interval string) ([]domain.PricePoint, error) {
	ctx, span := p.tracer.Start(ctx, "yahoo.fetch-series")
	defer span.End()
	span.SetAttributes(
		attribute.String("asset.ticker", asset.YahooTicker),
		attribute.String("price.period", period),
		attribute.String("price.interval", interval),
	)

	if asset.YahooTicker == "" {
		return nil, fmt.Errorf("%w: no yahoo ticker for %s", domain.ErrInvalidRequest, asset.Symbol)
	}
	native, ok := yahooNative[interval]
	lookback := domain.PeriodDuration(period)
	if !ok || lookback == 0 {
		return nil, fmt.Errorf("%w: period %q interval %q", domain.ErrInvalidRequest, period, interval)
	}

	now := p.now()
	q := url.Values{}
	q.Set("period1", fmt.Sprint(now.Add(-lookback).Unix()))
	q.Set("period2", fmt.Sprint(now.Unix()))
	q.Set("interval", native)
	q.Set("includePrePost", "false")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", strings.TrimRight(p.baseURL, "/"), url.PathEscape(asset.YahooTicker), q.Encode())

	body, err := getBody(ctx, p.client, p.limiter, "yahoo", u, map[string]string{
		"Accept":     "application/json",
		"User-Agent": yahooUA,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch chart for %s: %w", asset.YahooTicker, err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: yahoo returned invalid JSON", domain.ErrSchemaMismatch)
	}

	if desc := gjson.GetBytes(body, "chart.error.description"); desc.Exists() && desc.String() != "" {
		return nil, fmt.Errorf("%w: yahoo chart error: %s", domain.ErrSourceUnavailable, desc.String())
	}
	result := gjson.GetBytes(body, "chart.result.0")
	if !result.Exists() {
		return nil, fmt.Errorf("%w: yahoo response has no chart result", domain.ErrSchemaMismatch)
	}
	// Yahoo omits the timestamp array when nothing traded in the window.
	if !result.Get("timestamp").Exists() {
		return []domain.PricePoint{}, nil
	}

	table, err := schema.FromColumns(result)
	if err != nil {
		return nil, err
	}
	points, err := schema.PricePoints(table, asset.YahooTicker)
	if err != nil {
		return nil, err
	}

	width := domain.IntervalDuration(native)
	for i := range points {
		points[i].Timestamp = closeStamp(points[i].Timestamp, width, now)
	}
	if native != interval {
		points = resampleCloses(points, domain.IntervalDuration(interval))
	}
	return points, nil
}
