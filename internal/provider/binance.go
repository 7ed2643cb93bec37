package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"sentiment-lens/internal/domain"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const maxBinanceKlines = 1000

// BinanceProvider reads public spot klines. No API key is required.
type BinanceProvider struct {
	client  *binance.Client
	tracer  trace.Tracer
	limiter *RateLimiter
	now     func() time.Time
}

func NewBinanceProvider(tracer trace.Tracer, baseURL string) *BinanceProvider {
	client := binance.NewClient("", "")
	client.HTTPClient = &http.Client{Timeout: 20 * time.Second}
	if baseURL != "" {
		client.BaseURL = baseURL
	}
	return &BinanceProvider{
		client:  client,
		tracer:  tracer,
		limiter: NewRateLimiter(10, 100*time.Millisecond),
		now:     time.Now,
	}
}

func (p *BinanceProvider) Name() string { return "binance" }

// FetchSeries pages through klines from now-period forward. Each close is
// stamped one millisecond after the kline's close time, which is the bar's
// end; the still-open bar is stamped now.
func (p *BinanceProvider) FetchSeries(ctx context.Context, asset domain.Asset, period, interval string) ([]domain.PricePoint, error) {
	ctx, span := p.tracer.Start(ctx, "binance.fetch-series")
	defer span.End()
	span.SetAttributes(
		attribute.String("asset.binance_symbol", asset.BinanceSymbol),
		attribute.String("price.period", period),
		attribute.String("price.interval", interval),
	)

	if asset.BinanceSymbol == "" {
		return nil, fmt.Errorf("%w: no binance symbol for %s", domain.ErrInvalidRequest, asset.Symbol)
	}
	lookback := domain.PeriodDuration(period)
	if domain.IntervalDuration(interval) == 0 || lookback == 0 {
		return nil, fmt.Errorf("%w: period %q interval %q", domain.ErrInvalidRequest, period, interval)
	}

	now := p.now()
	start := now.Add(-lookback).UnixMilli()
	points := make([]domain.PricePoint, 0, 256)
	for {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: binance rate limit wait: %w", domain.ErrSourceUnavailable, err)
		}
		klines, err := p.client.NewKlinesService().
			Symbol(asset.BinanceSymbol).
			Interval(interval).
			StartTime(start).
			EndTime(now.UnixMilli()).
			Limit(maxBinanceKlines).
			Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("binance klines for %s: %w", asset.BinanceSymbol, binanceError(err))
		}

		for _, k := range klines {
			closePrice, err := strconv.ParseFloat(k.Close, 64)
			if err != nil || closePrice <= 0 {
				return nil, fmt.Errorf("%w: binance kline %d has close %q", domain.ErrSchemaMismatch, k.OpenTime, k.Close)
			}
			ts := time.UnixMilli(k.CloseTime + 1).UTC()
			if ts.After(now) {
				ts = now.UTC()
			}
			points = append(points, domain.PricePoint{Timestamp: ts, Close: closePrice})
		}

		if len(klines) < maxBinanceKlines {
			break
		}
		start = klines[len(klines)-1].OpenTime + 1
	}
	return points, nil
}

// binanceError maps SDK errors onto the provider error kinds. Of the API
// error codes only the rate limit one is retryable.
func binanceError(err error) error {
	var apiErr *common.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	switch apiErr.Code {
	case -1003:
		return &StatusError{Source: "binance", Code: http.StatusTooManyRequests, Body: apiErr.Message}
	case -1121:
		return fmt.Errorf("%w: %s", domain.ErrInvalidRequest, apiErr.Message)
	default:
		return &StatusError{Source: "binance", Code: http.StatusBadRequest, Body: apiErr.Message}
	}
}
