package provider

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"sentiment-lens/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func stringResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

var btc = domain.Asset{Symbol: "BTC", YahooTicker: "BTC-USD", CoinGeckoID: "bitcoin", BinanceSymbol: "BTCUSDT"}

func TestCoinGeckoProviderFetchSeries(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	provider := NewCoinGeckoProvider(testTracer, "demo-key")
	provider.baseURL = "http://example"
	provider.now = func() time.Time { return now }
	provider.limiter = NewRateLimiter(10, time.Millisecond)
	provider.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if !strings.Contains(req.URL.Path, "/coins/bitcoin/market_chart") {
				t.Fatalf("unexpected path: %s", req.URL.Path)
			}
			if req.URL.Query().Get("days") != "1" {
				t.Fatalf("expected days=1, got %s", req.URL.RawQuery)
			}
			if req.Header.Get("x-cg-demo-api-key") != "demo-key" {
				t.Fatalf("expected api key header")
			}
			// 11:00 and 11:02 share a 5m bucket; 10:00 the day before falls outside the period.
			body := `{"prices":[[1735646000000,1],[1735729200000,10],[1735729320000,12],[1735729560000,9]],"total_volumes":[]}`
			return stringResponse(http.StatusOK, body), nil
		}),
	}

	points, err := provider.FetchSeries(context.Background(), btc, "1d", "5m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %+v", points)
	}
	if points[0].Close != 12 || !points[0].Timestamp.Equal(time.UnixMilli(1735729320000)) {
		t.Fatalf("expected last sample of first bucket, got %+v", points[0])
	}
	if points[1].Close != 9 {
		t.Fatalf("unexpected second point: %+v", points[1])
	}
}

func TestCoinGeckoProviderErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{name: "upstream failure", status: http.StatusBadGateway, body: "oops", want: domain.ErrSourceUnavailable},
		{name: "invalid json", status: http.StatusOK, body: "<html>", want: domain.ErrSchemaMismatch},
		{name: "missing prices", status: http.StatusOK, body: `{"error":"coin not found"}`, want: domain.ErrSchemaMismatch},
		{name: "string price", status: http.StatusOK, body: `{"prices":[[1735729200000,"abc"]]}`, want: domain.ErrSchemaMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			provider := NewCoinGeckoProvider(testTracer, "")
			provider.limiter = NewRateLimiter(10, time.Millisecond)
			provider.client = &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
				return stringResponse(tc.status, tc.body), nil
			})}
			_, err := provider.FetchSeries(context.Background(), btc, "1d", "1h")
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCoinGeckoProviderRejectsUnknownAsset(t *testing.T) {
	provider := NewCoinGeckoProvider(testTracer, "")
	_, err := provider.FetchSeries(context.Background(), domain.Asset{Symbol: "ZZZ"}, "1d", "1h")
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected invalid request, got %v", err)
	}
}
