package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"sentiment-lens/internal/domain"
)

func TestRSSFetchFeed(t *testing.T) {
	p := NewRSSProvider(testTracer)
	p.client = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		xml := `<?xml version="1.0"?><rss version="2.0"><channel><title>Example Feed</title><item><title>ETH adoption rises</title><link>https://news.example/eth</link><description><![CDATA[<p>Ethereum growth <b>continues</b></p>]]></description><guid>guid-1</guid><pubDate>Fri, 13 Feb 2026 10:00:00 +0000</pubDate><author>Reporter</author></item></channel></rss>`
		return stringResponse(http.StatusOK, xml), nil
	})}

	items, err := p.FetchFeed(context.Background(), "https://news.example/rss", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	item := items[0]
	if item.Source != "rss" || item.SourceItemID != "guid-1" || item.Forum != "https://news.example/rss" {
		t.Fatalf("unexpected item: %+v", item)
	}
	if item.Body != "Ethereum growth continues" {
		t.Fatalf("expected html stripped body, got %q", item.Body)
	}
	if item.URL != "https://news.example/eth" {
		t.Fatalf("unexpected link: %q", item.URL)
	}
	if !item.PublishedAt.Equal(time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date: %v", item.PublishedAt)
	}
}

func TestRSSFetchAtomFeed(t *testing.T) {
	p := NewRSSProvider(testTracer)
	p.client = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		xml := `<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"><title>Atom</title><entry><title>SOL rallies</title><link href="https://news.example/sol"/><summary>Solana up</summary></entry></feed>`
		return stringResponse(http.StatusOK, xml), nil
	})}

	items, err := p.FetchFeed(context.Background(), "https://news.example/atom", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].URL != "https://news.example/sol" || items[0].Body != "Solana up" {
		t.Fatalf("unexpected atom item: %+v", items[0])
	}
	if !items[0].PublishedAt.IsZero() {
		t.Fatalf("undated entries should keep a zero time, got %v", items[0].PublishedAt)
	}
}

func TestRSSKeepsLongDescriptions(t *testing.T) {
	long := strings.Repeat("a", 4100) + " BTC"
	p := NewRSSProvider(testTracer)
	p.client = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		xml := `<?xml version="1.0"?><rss version="2.0"><channel><title>Feed</title><item><title>Weekly digest</title><description>` + long + `</description><guid>g</guid></item></channel></rss>`
		return stringResponse(http.StatusOK, xml), nil
	})}

	items, err := p.FetchFeed(context.Background(), "https://news.example/rss", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || !strings.HasSuffix(items[0].Text(), " BTC") {
		t.Fatalf("expected the full description, got %d bytes", len(items[0].Text()))
	}
}

func TestRSSMalformedFeed(t *testing.T) {
	p := NewRSSProvider(testTracer)
	p.client = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return stringResponse(http.StatusOK, "<rss><channel><item>"), nil
	})}
	if _, err := p.FetchFeed(context.Background(), "https://news.example/rss", 10); !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected source unavailable, got %v", err)
	}
}
