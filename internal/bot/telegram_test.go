package bot

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"sentiment-lens/internal/domain"
)

type fakeAnalyzer struct {
	analysis *domain.Analysis
	err      error
	got      domain.AnalysisRequest
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req domain.AnalysisRequest) (*domain.Analysis, error) {
	f.got = req
	return f.analysis, f.err
}

func (f *fakeAnalyzer) Assets() []domain.Asset {
	return []domain.Asset{{Symbol: "BTC"}, {Symbol: "ETH"}}
}

func TestStartTelegramBotSkipsWithoutToken(t *testing.T) {
	if b := StartTelegramBot("", &fakeAnalyzer{}); b != nil {
		t.Fatal("expected nil bot without token")
	}
}

func TestSentimentReplyUsage(t *testing.T) {
	got := sentimentReply(context.Background(), &fakeAnalyzer{}, nil)
	if !strings.HasPrefix(got, "Usage: /sentiment") || !strings.Contains(got, "BTC, ETH") {
		t.Fatalf("unexpected usage reply: %s", got)
	}
}

func TestSentimentReplySummary(t *testing.T) {
	first, last := 50000.0, 51000.0
	f := &fakeAnalyzer{analysis: &domain.Analysis{
		Symbol: "BTC", Period: "1mo", Interval: "4h", PriceSource: "yahoo",
		Summary: domain.Summary{Events: 3, RecordsWithPrice: 2, MeanPolarity: 0.25, MeanSubjectivity: 0.5, FirstClose: &first, LastClose: &last},
	}}

	got := sentimentReply(context.Background(), f, []string{"btc", "1mo", "4h"})
	if f.got.Symbol != "btc" || f.got.Period != "1mo" || f.got.Interval != "4h" || f.got.Surface != "bot" {
		t.Fatalf("unexpected request: %+v", f.got)
	}
	for _, want := range []string{"BTC sentiment (1mo, 4h bars, yahoo)", "Mentions: 3 (2 with price)", "+0.250", "$50000.00 -> $51000.00"} {
		if !strings.Contains(got, want) {
			t.Fatalf("reply missing %q:\n%s", want, got)
		}
	}
}

func TestSentimentReplyNoMentions(t *testing.T) {
	f := &fakeAnalyzer{analysis: &domain.Analysis{Symbol: "ETH", Period: "7d", Forums: []string{"Ethereum"}}}
	got := sentimentReply(context.Background(), f, []string{"ETH"})
	if got != "ETH: no mentions found in Ethereum over 7d." {
		t.Fatalf("unexpected reply: %s", got)
	}
}

func TestSentimentReplyErrors(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: unknown symbol", domain.ErrInvalidRequest), "Invalid request"},
		{&domain.FetchError{Collaborator: "reddit", Err: domain.ErrSourceUnavailable}, "Could not reach reddit"},
		{fmt.Errorf("boom"), "Error analyzing BTC"},
	}
	for _, tt := range tests {
		got := sentimentReply(context.Background(), &fakeAnalyzer{err: tt.err}, []string{"btc"})
		if !strings.HasPrefix(got, tt.want) {
			t.Fatalf("expected %q prefix, got %s", tt.want, got)
		}
	}
}
