package provider

import (
	"sort"
	"time"

	"sentiment-lens/internal/domain"
)

// resampleCloses buckets points into epoch-aligned windows of width interval
// and keeps the last sample of each window. The surviving point keeps the
// sample's own timestamp, so no close is stamped earlier than it was observed.
func resampleCloses(points []domain.PricePoint, interval time.Duration) []domain.PricePoint {
	if len(points) == 0 || interval <= 0 {
		return points
	}

	sorted := append([]domain.PricePoint(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	out := make([]domain.PricePoint, 0, len(sorted))
	var current time.Time
	for i, pt := range sorted {
		bucket := pt.Timestamp.Truncate(interval)
		if i > 0 && bucket.Equal(current) {
			out[len(out)-1] = pt
			continue
		}
		current = bucket
		out = append(out, pt)
	}
	return out
}

// withinPeriod drops points older than now-period.
func withinPeriod(points []domain.PricePoint, now time.Time, period time.Duration) []domain.PricePoint {
	if period <= 0 {
		return points
	}
	cutoff := now.Add(-period)
	out := make([]domain.PricePoint, 0, len(points))
	for _, pt := range points {
		if !pt.Timestamp.Before(cutoff) {
			out = append(out, pt)
		}
	}
	return out
}

// closeStamp converts a bar's open time into the time its close became
// known, capped at now for the still-forming bar.
func closeStamp(open time.Time, width time.Duration, now time.Time) time.Time {
	end := open.Add(width)
	if end.After(now) {
		return now.UTC()
	}
	return end.UTC()
}
