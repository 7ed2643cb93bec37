package provider

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sentiment-lens/internal/domain"
)

func TestRateLimiterSharedBurst(t *testing.T) {
	limiter := NewRateLimiter(4, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var granted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Wait(ctx) == nil {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := granted.Load(); got != 4 {
		t.Fatalf("expected 4 callers through the burst, got %d", got)
	}
}

func TestRateLimiterRegainsTokens(t *testing.T) {
	limiter := NewRateLimiter(1, 5*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 3; i++ {
		if err := limiter.Wait(ctx); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
	}
}

func TestGetBodyStopsAtLimiter(t *testing.T) {
	var calls atomic.Int32
	client := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		calls.Add(1)
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("{}")), Header: make(http.Header)}, nil
	})}
	limiter := NewRateLimiter(1, time.Hour)

	if _, err := getBody(context.Background(), client, limiter, "test", "https://example.test", nil); err != nil {
		t.Fatalf("first call: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := getBody(ctx, client, limiter, "test", "https://example.test", nil)
	if err == nil {
		t.Fatal("expected the limiter to refuse a wait past the deadline")
	}
	if !errors.Is(err, domain.ErrSourceUnavailable) || !IsTransient(err) {
		t.Fatalf("throttled call should be a transient source failure, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one upstream call, got %d", calls.Load())
	}
}

func TestThrottledPriceFetchIsSourceUnavailable(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	var calls atomic.Int32
	cg := NewCoinGeckoProvider(testTracer, "")
	cg.baseURL = "http://example"
	cg.now = func() time.Time { return now }
	cg.limiter = NewRateLimiter(1, time.Hour)
	cg.client = &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		calls.Add(1)
		return stringResponse(http.StatusOK, `{"prices":[[1735729200000,10]]}`), nil
	})}

	bn := newTestBinance(func(*http.Request) (*http.Response, error) {
		calls.Add(1)
		return stringResponse(http.StatusOK, "[]"), nil
	}, now)
	bn.limiter = NewRateLimiter(1, time.Hour)

	for name, fetch := range map[string]func(context.Context) ([]domain.PricePoint, error){
		"coingecko": func(ctx context.Context) ([]domain.PricePoint, error) { return cg.FetchSeries(ctx, btc, "1d", "1h") },
		"binance":   func(ctx context.Context) ([]domain.PricePoint, error) { return bn.FetchSeries(ctx, btc, "1d", "1h") },
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := fetch(context.Background()); err != nil {
				t.Fatalf("first fetch: %v", err)
			}
			policy := RetryPolicy{MaxTries: 2, Timeout: 20 * time.Millisecond, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}
			_, err := Retry(context.Background(), policy, fetch)
			if !errors.Is(err, domain.ErrSourceUnavailable) {
				t.Fatalf("expected source unavailable, got %v", err)
			}
		})
	}
}
