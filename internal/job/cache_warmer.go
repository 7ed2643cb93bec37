// Package job holds background loops that run alongside the API server.
package job

import (
	"context"
	"time"

	"sentiment-lens/internal/domain"
	"sentiment-lens/pkg/logger"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SeriesFetcher fetches and caches a price series.
type SeriesFetcher interface {
	Fetch(ctx context.Context, ticker, period, interval string) ([]domain.PricePoint, error)
}

// CacheWarmer keeps the short-lived price cache populated for the default
// period and interval so interactive requests skip the upstream call.
// Symbols are visited round-robin, batch per tick.
type CacheWarmer struct {
	tracer   trace.Tracer
	prices   SeriesFetcher
	symbols  []string
	period   string
	interval string
	every    time.Duration
	batch    int
	next     int
}

func NewCacheWarmer(tracer trace.Tracer, prices SeriesFetcher, symbols []string, period, interval string, every time.Duration, batch int) *CacheWarmer {
	if batch <= 0 || batch > len(symbols) {
		batch = len(symbols)
	}
	return &CacheWarmer{
		tracer:   tracer,
		prices:   prices,
		symbols:  append([]string(nil), symbols...),
		period:   period,
		interval: interval,
		every:    every,
		batch:    batch,
	}
}

// Start blocks until ctx is cancelled.
func (w *CacheWarmer) Start(ctx context.Context) {
	log := logger.Get().WithComponent("cache-warmer")
	if len(w.symbols) == 0 || w.every <= 0 {
		log.Warn("cache warmer has nothing to do")
		return
	}
	log.WithFields(logger.Fields{
		"symbols":  len(w.symbols),
		"every":    w.every.String(),
		"batch":    w.batch,
		"period":   w.period,
		"interval": w.interval,
	}).Info("cache warmer starting")

	w.warmBatch(ctx)

	ticker := time.NewTicker(w.every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("cache warmer stopped")
			return
		case <-ticker.C:
			w.warmBatch(ctx)
		}
	}
}

func (w *CacheWarmer) warmBatch(ctx context.Context) {
	ctx, span := w.tracer.Start(ctx, "job.cache_warm")
	defer span.End()

	warmed := 0
	for i := 0; i < w.batch; i++ {
		if ctx.Err() != nil {
			return
		}
		symbol := w.symbols[w.next%len(w.symbols)]
		w.next++

		if _, err := w.prices.Fetch(ctx, symbol, w.period, w.interval); err != nil {
			logger.Get().WithComponent("cache-warmer").
				WithFields(logger.Fields{"symbol": symbol}).
				WithError(err).Debug("warm fetch failed")
			continue
		}
		warmed++
	}
	span.SetAttributes(attribute.Int("job.warmed", warmed))
}
