package prices

import (
	"sort"

	"sentiment-lens/internal/domain"
)

// Normalize returns points ascending by timestamp with one point per
// timestamp. When a timestamp repeats, the point that came later in the
// input wins. The input is not modified.
func Normalize(points []domain.PricePoint) []domain.PricePoint {
	out := make([]domain.PricePoint, len(points))
	copy(out, points)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	n := 0
	for _, pt := range out {
		pt.Timestamp = pt.Timestamp.UTC()
		if n > 0 && out[n-1].Timestamp.Equal(pt.Timestamp) {
			out[n-1] = pt
			continue
		}
		out[n] = pt
		n++
	}
	return out[:n]
}
