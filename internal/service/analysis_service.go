package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"sentiment-lens/internal/align"
	"sentiment-lens/internal/domain"
	"sentiment-lens/internal/metrics"
	"sentiment-lens/pkg/logger"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

type EventFetcher interface {
	Fetch(ctx context.Context, symbols, forums []string, maxPerForum int) ([]domain.TextEvent, error)
}

type PriceFetcher interface {
	FetchFrom(ctx context.Context, source, ticker, period, interval string) ([]domain.PricePoint, error)
	Sources() []string
	DefaultSource() string
}

type SentimentScorer interface {
	ScoreContext(ctx context.Context, events []domain.TextEvent) []domain.SentimentObservation
}

// Defaults fill the zero fields of an AnalysisRequest.
type Defaults struct {
	Forums   []string
	Limit    int
	Period   string
	Interval string
}

// AnalysisService runs the fetch, score and align pipeline for one symbol.
type AnalysisService struct {
	tracer   trace.Tracer
	assets   *domain.AssetBook
	events   EventFetcher
	prices   PriceFetcher
	scorer   SentimentScorer
	defaults Defaults
	now      func() time.Time
	log      *logger.Entry
}

func NewAnalysisService(
	tracer trace.Tracer,
	assets *domain.AssetBook,
	events EventFetcher,
	prices PriceFetcher,
	scorer SentimentScorer,
	defaults Defaults,
) *AnalysisService {
	return &AnalysisService{
		tracer:   tracer,
		assets:   assets,
		events:   events,
		prices:   prices,
		scorer:   scorer,
		defaults: defaults,
		now:      time.Now,
		log:      logger.Get().WithComponent("analysis"),
	}
}

func (s *AnalysisService) Assets() []domain.Asset {
	symbols := s.assets.Symbols()
	out := make([]domain.Asset, 0, len(symbols))
	for _, sym := range symbols {
		a, _ := s.assets.Lookup(sym)
		out = append(out, a)
	}
	return out
}

func (s *AnalysisService) Defaults() Defaults {
	return s.defaults
}

// Analyze fetches forum mentions and the price series concurrently, scores
// the mentions and joins each score to the latest close at or before it.
// No mentions is a successful run with zero records even when the price
// fetch failed.
func (s *AnalysisService) Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.Analysis, error) {
	start := s.now()
	ctx, span := s.tracer.Start(ctx, "analysis.run")
	defer span.End()

	req, err := s.normalize(req)
	if err != nil {
		metrics.RecordAnalysis(req.Surface, time.Since(start), 0, 0, err)
		return nil, err
	}
	symbol, ticker := s.resolve(req.Symbol, req.PriceSource)
	runID := uuid.NewString()
	span.SetAttributes(
		attribute.String("analysis.run_id", runID),
		attribute.String("analysis.symbol", symbol),
		attribute.String("analysis.price_source", req.PriceSource),
		attribute.String("analysis.period", req.Period),
		attribute.String("analysis.interval", req.Interval),
	)
	log := s.log.WithFields(logger.Fields{"run_id": runID, "symbol": symbol, "surface": req.Surface})

	var (
		events   []domain.TextEvent
		points   []domain.PricePoint
		priceErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = s.events.Fetch(gctx, []string{symbol}, req.Forums, req.Limit)
		return err
	})
	g.Go(func() error {
		points, priceErr = s.prices.FetchFrom(gctx, req.PriceSource, req.Symbol, req.Period, req.Interval)
		return nil
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		log.WithError(err).Warn("text fetch failed")
		metrics.RecordAnalysis(req.Surface, time.Since(start), 0, 0, err)
		return nil, err
	}

	analysis := &domain.Analysis{
		RunID:       runID,
		Symbol:      symbol,
		Ticker:      ticker,
		PriceSource: req.PriceSource,
		Period:      req.Period,
		Interval:    req.Interval,
		Forums:      req.Forums,
		Limit:       req.Limit,
		GeneratedAt: s.now().UTC(),
		Records:     []domain.AlignedRecord{},
	}

	if len(events) == 0 {
		if priceErr == nil {
			analysis.Summary = domain.Summarize(nil, len(points))
		}
		log.Info("no mentions found")
		metrics.RecordAnalysis(req.Surface, time.Since(start), 0, 0, nil)
		return analysis, nil
	}
	if priceErr != nil {
		span.RecordError(priceErr)
		log.WithError(priceErr).Warn("price fetch failed")
		metrics.RecordAnalysis(req.Surface, time.Since(start), len(events), 0, priceErr)
		return nil, priceErr
	}

	_, scoreSpan := s.tracer.Start(ctx, "analysis.score")
	observations := s.scorer.ScoreContext(ctx, events)
	scoreSpan.End()

	_, alignSpan := s.tracer.Start(ctx, "analysis.align")
	analysis.Records = align.AsOf(observations, points)
	alignSpan.End()

	analysis.Summary = domain.Summarize(analysis.Records, len(points))
	withoutPrice := analysis.Summary.Events - analysis.Summary.RecordsWithPrice
	span.SetAttributes(
		attribute.Int("analysis.events", len(events)),
		attribute.Int("analysis.price_points", len(points)),
		attribute.Int("analysis.records_without_price", withoutPrice),
	)
	log.WithFields(logger.Fields{
		"events":        len(events),
		"price_points":  len(points),
		"without_price": withoutPrice,
	}).Info("analysis complete")
	metrics.RecordAnalysis(req.Surface, time.Since(start), len(events), withoutPrice, nil)
	return analysis, nil
}

func (s *AnalysisService) normalize(req domain.AnalysisRequest) (domain.AnalysisRequest, error) {
	req.Symbol = strings.TrimSpace(req.Symbol)
	if req.Surface == "" {
		req.Surface = "unknown"
	}
	if req.Symbol == "" {
		return req, fmt.Errorf("%w: symbol is required", domain.ErrInvalidRequest)
	}
	if len(req.Forums) == 0 {
		req.Forums = s.defaults.Forums
	}
	if len(req.Forums) == 0 {
		return req, fmt.Errorf("%w: at least one forum is required", domain.ErrInvalidRequest)
	}
	if req.Limit == 0 {
		req.Limit = s.defaults.Limit
	}
	if req.Period == "" {
		req.Period = s.defaults.Period
	}
	if req.Interval == "" {
		req.Interval = s.defaults.Interval
	}
	if req.PriceSource == "" {
		req.PriceSource = s.prices.DefaultSource()
	}
	req.PriceSource = strings.ToLower(req.PriceSource)
	if !slices.Contains(domain.SupportedPeriods, req.Period) {
		return req, fmt.Errorf("%w: unsupported period %q", domain.ErrInvalidRequest, req.Period)
	}
	if !slices.Contains(domain.SupportedIntervals, req.Interval) {
		return req, fmt.Errorf("%w: unsupported interval %q", domain.ErrInvalidRequest, req.Interval)
	}
	if !slices.Contains(s.prices.Sources(), req.PriceSource) {
		return req, fmt.Errorf("%w: unknown price source %q", domain.ErrInvalidRequest, req.PriceSource)
	}
	if _, ok := s.assets.Lookup(req.Symbol); !ok && !(req.PriceSource == "yahoo" && strings.Contains(req.Symbol, "-")) {
		return req, fmt.Errorf("%w: unknown symbol %q", domain.ErrInvalidRequest, req.Symbol)
	}
	return req, nil
}

// resolve returns the symbol matched in text and the ticker the price
// source is queried with. A raw Yahoo ticker such as PEPE-USD matches PEPE.
func (s *AnalysisService) resolve(requested, source string) (symbol, ticker string) {
	if a, ok := s.assets.Lookup(requested); ok {
		ticker = a.YahooTicker
		switch source {
		case "coingecko":
			ticker = a.CoinGeckoID
		case "binance":
			ticker = a.BinanceSymbol
		}
		return a.Symbol, ticker
	}
	raw := domain.NormalizeSymbol(requested)
	base, _, _ := strings.Cut(raw, "-")
	return base, raw
}

// IsClientError reports whether err was caused by the request rather than a
// collaborator.
func IsClientError(err error) bool {
	return errors.Is(err, domain.ErrInvalidRequest)
}
