// Package mcpserver exposes the analysis pipeline as an MCP tool.
package mcpserver

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"sentiment-lens/internal/domain"
	"sentiment-lens/pkg/logger"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	ToolName          = "analyze_sentiment"
	defaultMaxRecords = 200
)

type Analyzer interface {
	Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.Analysis, error)
}

type Options struct {
	Version        string
	RequestTimeout time.Duration
}

type AnalyzeInput struct {
	Symbol     string   `json:"symbol" jsonschema:"asset symbol such as BTC, or a Yahoo ticker such as PEPE-USD"`
	Forums     []string `json:"forums,omitempty" jsonschema:"subreddit names or rss:<url> feeds; server defaults when empty"`
	Limit      int      `json:"limit,omitempty" jsonschema:"items fetched per forum, 1 to 500"`
	Period     string   `json:"period,omitempty" jsonschema:"lookback window: 1d, 5d, 7d, 1mo, 3mo, 6mo or 1y"`
	Interval   string   `json:"interval,omitempty" jsonschema:"price interval: 5m, 15m, 30m, 1h, 4h or 1d"`
	Source     string   `json:"source,omitempty" jsonschema:"price source: yahoo, coingecko or binance"`
	MaxRecords int      `json:"max_records,omitempty" jsonschema:"most recent aligned records to return, default 200"`
}

type Record struct {
	Timestamp    string   `json:"timestamp"`
	Polarity     float64  `json:"polarity"`
	Subjectivity float64  `json:"subjectivity"`
	Close        *float64 `json:"close"`
}

type Summary struct {
	Events           int      `json:"events"`
	PricePoints      int      `json:"price_points"`
	RecordsWithPrice int      `json:"records_with_price"`
	MeanPolarity     float64  `json:"mean_polarity"`
	MeanSubjectivity float64  `json:"mean_subjectivity"`
	FirstClose       *float64 `json:"first_close"`
	LastClose        *float64 `json:"last_close"`
}

type AnalyzeOutput struct {
	RunID       string   `json:"run_id"`
	Symbol      string   `json:"symbol"`
	Ticker      string   `json:"ticker"`
	PriceSource string   `json:"price_source"`
	Period      string   `json:"period"`
	Interval    string   `json:"interval"`
	Forums      []string `json:"forums"`
	Summary     Summary  `json:"summary"`
	Truncated   bool     `json:"truncated"`
	Records     []Record `json:"records"`
}

// New builds an MCP server with the analyze_sentiment tool.
func New(analyzer Analyzer, opts Options) *mcp.Server {
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}
	server := mcp.NewServer(&mcp.Implementation{Name: "sentiment-lens", Version: opts.Version}, nil)
	t := &tool{analyzer: analyzer, timeout: opts.RequestTimeout, log: logger.Get().WithComponent("mcp")}
	mcp.AddTool(server, &mcp.Tool{
		Name: ToolName,
		Description: "Scores forum mentions of a crypto asset and joins each sentiment score " +
			"to the most recent closing price at or before it. Records without an earlier price have a null close.",
	}, t.analyze)
	return server
}

type tool struct {
	analyzer Analyzer
	timeout  time.Duration
	log      *logger.Entry
}

func (t *tool) analyze(ctx context.Context, _ *mcp.CallToolRequest, in AnalyzeInput) (*mcp.CallToolResult, AnalyzeOutput, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	a, err := t.analyzer.Analyze(ctx, domain.AnalysisRequest{
		Symbol:      in.Symbol,
		Forums:      in.Forums,
		Limit:       in.Limit,
		Period:      in.Period,
		Interval:    in.Interval,
		PriceSource: in.Source,
		Surface:     "mcp",
	})
	if err != nil {
		t.log.WithError(err).WithFields(logger.Fields{"symbol": in.Symbol}).Warn("tool call failed")
		return nil, AnalyzeOutput{}, err
	}
	return nil, toOutput(a, in.MaxRecords), nil
}

// toOutput keeps the newest maxRecords records.
func toOutput(a *domain.Analysis, maxRecords int) AnalyzeOutput {
	if maxRecords <= 0 {
		maxRecords = defaultMaxRecords
	}
	records := a.Records
	truncated := len(records) > maxRecords
	if truncated {
		records = records[len(records)-maxRecords:]
	}
	out := AnalyzeOutput{
		RunID:       a.RunID,
		Symbol:      a.Symbol,
		Ticker:      a.Ticker,
		PriceSource: a.PriceSource,
		Period:      a.Period,
		Interval:    a.Interval,
		Forums:      a.Forums,
		Summary:     Summary(a.Summary),
		Truncated:   truncated,
		Records:     make([]Record, 0, len(records)),
	}
	for _, r := range records {
		out.Records = append(out.Records, Record{
			Timestamp:    r.Timestamp.UTC().Format(time.RFC3339),
			Polarity:     r.Polarity,
			Subjectivity: r.Subjectivity,
			Close:        r.Close,
		})
	}
	return out
}

// HTTPHandler serves the streamable HTTP transport. A non-empty token
// requires "Authorization: Bearer <token>".
func HTTPHandler(server *mcp.Server, token string) http.Handler {
	h := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
	if token == "" {
		return h
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		provided, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		h.ServeHTTP(w, r)
	})
}
