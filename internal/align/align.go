// Package align joins a sentiment stream with a price stream on time.
package align

import (
	"sort"

	"sentiment-lens/internal/domain"
)

// AsOf performs a backward as-of join: every observation is paired with the
// close of the latest price point whose timestamp is at or before its own.
// Observations before the first price point get a nil close. When several
// price points share a timestamp, the one appearing last wins.
//
// Inputs are not modified. Unsorted inputs are sorted on private copies with
// a stable sort, so equal timestamps keep their insertion order.
func AsOf(observations []domain.SentimentObservation, prices []domain.PricePoint) []domain.AlignedRecord {
	if len(observations) == 0 {
		return []domain.AlignedRecord{}
	}
	obs := sortedObservations(observations)
	pts := sortedPrices(prices)

	out := make([]domain.AlignedRecord, len(obs))
	cursor := 0
	for i, s := range obs {
		for cursor < len(pts) && !pts[cursor].Timestamp.After(s.Timestamp) {
			cursor++
		}
		rec := domain.AlignedRecord{
			Symbol:       s.Symbol,
			Timestamp:    s.Timestamp,
			Polarity:     s.Polarity,
			Subjectivity: s.Subjectivity,
		}
		if cursor > 0 {
			c := pts[cursor-1].Close
			rec.Close = &c
		}
		out[i] = rec
	}
	return out
}

func sortedObservations(in []domain.SentimentObservation) []domain.SentimentObservation {
	less := func(a, b domain.SentimentObservation) bool { return a.Timestamp.Before(b.Timestamp) }
	if sort.SliceIsSorted(in, func(i, j int) bool { return less(in[i], in[j]) }) {
		return in
	}
	cp := append([]domain.SentimentObservation(nil), in...)
	sort.SliceStable(cp, func(i, j int) bool { return less(cp[i], cp[j]) })
	return cp
}

func sortedPrices(in []domain.PricePoint) []domain.PricePoint {
	less := func(a, b domain.PricePoint) bool { return a.Timestamp.Before(b.Timestamp) }
	if sort.SliceIsSorted(in, func(i, j int) bool { return less(in[i], in[j]) }) {
		return in
	}
	cp := append([]domain.PricePoint(nil), in...)
	sort.SliceStable(cp, func(i, j int) bool { return less(cp[i], cp[j]) })
	return cp
}
