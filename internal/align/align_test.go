package align

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"sentiment-lens/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Unix(0, 0).UTC()

func at(sec int64) time.Time { return epoch.Add(time.Duration(sec) * time.Second) }

func obsAt(secs ...int64) []domain.SentimentObservation {
	out := make([]domain.SentimentObservation, 0, len(secs))
	for _, s := range secs {
		out = append(out, domain.SentimentObservation{Symbol: "BTC", Timestamp: at(s), Polarity: 0.1})
	}
	return out
}

func closes(records []domain.AlignedRecord) []any {
	out := make([]any, len(records))
	for i, r := range records {
		if r.Close == nil {
			out[i] = nil
			continue
		}
		out[i] = *r.Close
	}
	return out
}

func TestAsOfMonotonicFill(t *testing.T) {
	prices := []domain.PricePoint{{Timestamp: at(0), Close: 10}, {Timestamp: at(10), Close: 20}}
	got := AsOf(obsAt(-1, 5, 15), prices)
	assert.Equal(t, []any{nil, 10.0, 20.0}, closes(got))
}

func TestAsOfExactTimestampUsesThatPoint(t *testing.T) {
	prices := []domain.PricePoint{{Timestamp: at(0), Close: 10}, {Timestamp: at(10), Close: 20}}
	got := AsOf(obsAt(0, 10), prices)
	assert.Equal(t, []any{10.0, 20.0}, closes(got))
}

func TestAsOfTieBreakLastWins(t *testing.T) {
	prices := []domain.PricePoint{
		{Timestamp: at(5), Close: 10},
		{Timestamp: at(5), Close: 20},
	}
	got := AsOf(obsAt(5), prices)
	assert.Equal(t, []any{20.0}, closes(got))
}

func TestAsOfTieBreakSurvivesSorting(t *testing.T) {
	prices := []domain.PricePoint{
		{Timestamp: at(9), Close: 99},
		{Timestamp: at(5), Close: 10},
		{Timestamp: at(5), Close: 20},
	}
	got := AsOf(obsAt(6), prices)
	assert.Equal(t, []any{20.0}, closes(got))
}

func TestAsOfEmptyPrices(t *testing.T) {
	got := AsOf(obsAt(1, 2, 3), nil)
	require.Len(t, got, 3)
	for _, r := range got {
		assert.Nil(t, r.Close)
	}
}

func TestAsOfEmptyObservations(t *testing.T) {
	got := AsOf(nil, []domain.PricePoint{{Timestamp: at(0), Close: 1}})
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAsOfDisjointRanges(t *testing.T) {
	prices := []domain.PricePoint{{Timestamp: at(100), Close: 1}, {Timestamp: at(200), Close: 2}}
	assert.Equal(t, []any{nil, nil}, closes(AsOf(obsAt(1, 2), prices)))
	assert.Equal(t, []any{2.0, 2.0}, closes(AsOf(obsAt(300, 400), prices)))
}

func TestAsOfSortsUnorderedObservationsWithoutMutatingInput(t *testing.T) {
	in := obsAt(15, -1, 5)
	prices := []domain.PricePoint{{Timestamp: at(10), Close: 20}, {Timestamp: at(0), Close: 10}}
	got := AsOf(in, prices)

	require.Len(t, got, 3)
	assert.Equal(t, at(-1), got[0].Timestamp)
	assert.Equal(t, at(5), got[1].Timestamp)
	assert.Equal(t, at(15), got[2].Timestamp)
	assert.Equal(t, []any{nil, 10.0, 20.0}, closes(got))

	assert.Equal(t, at(15), in[0].Timestamp)
	assert.Equal(t, at(10), prices[0].Timestamp)
}

func TestAsOfCarriesObservationFields(t *testing.T) {
	in := []domain.SentimentObservation{{Symbol: "ETH", Timestamp: at(3), Polarity: -0.4, Subjectivity: 0.7}}
	got := AsOf(in, []domain.PricePoint{{Timestamp: at(1), Close: 3000}})
	require.Len(t, got, 1)
	assert.Equal(t, "ETH", got[0].Symbol)
	assert.Equal(t, -0.4, got[0].Polarity)
	assert.Equal(t, 0.7, got[0].Subjectivity)
}

func TestAsOfIsIdempotent(t *testing.T) {
	prices := []domain.PricePoint{{Timestamp: at(0), Close: 10}, {Timestamp: at(10), Close: 20}}
	obs := obsAt(-1, 5, 15)
	assert.Equal(t, AsOf(obs, prices), AsOf(obs, prices))
}

func TestAsOfEndToEndNoLookahead(t *testing.T) {
	obs := []domain.SentimentObservation{{Symbol: "BTC", Timestamp: at(100), Polarity: 0.5}}
	prices := []domain.PricePoint{{Timestamp: at(50), Close: 50000}, {Timestamp: at(150), Close: 51000}}
	got := AsOf(obs, prices)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Close)
	assert.Equal(t, 50000.0, *got[0].Close)
}

// Compares against a brute-force join over random inputs.
func TestAsOfMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		obs := make([]domain.SentimentObservation, rng.Intn(20))
		for i := range obs {
			obs[i] = domain.SentimentObservation{Timestamp: at(int64(rng.Intn(50)))}
		}
		prices := make([]domain.PricePoint, rng.Intn(20))
		for i := range prices {
			prices[i] = domain.PricePoint{Timestamp: at(int64(rng.Intn(50))), Close: float64(i + 1)}
		}

		got := AsOf(obs, prices)
		require.Len(t, got, len(obs))
		require.True(t, sort.SliceIsSorted(got, func(i, j int) bool {
			return got[i].Timestamp.Before(got[j].Timestamp)
		}))

		for _, r := range got {
			var want *float64
			var wantTS time.Time
			for _, p := range prices {
				if p.Timestamp.After(r.Timestamp) {
					continue
				}
				// later index wins among equal timestamps because the stable sort keeps input order
				if want == nil || !p.Timestamp.Before(wantTS) {
					c := p.Close
					want = &c
					wantTS = p.Timestamp
				}
			}
			if want == nil {
				assert.Nil(t, r.Close)
				continue
			}
			require.NotNil(t, r.Close)
			assert.Equal(t, *want, *r.Close, "round %d at %v", round, r.Timestamp)
		}
	}
}
