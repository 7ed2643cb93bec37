package prices

import (
	"testing"
	"time"

	"sentiment-lens/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	in := []domain.PricePoint{
		{Timestamp: at(20), Close: 20},
		{Timestamp: at(10), Close: 10},
		{Timestamp: at(20), Close: 21},
		{Timestamp: time.Unix(10, 0).In(time.FixedZone("X", 3600)), Close: 11},
	}
	got := Normalize(in)

	assert.Equal(t, []domain.PricePoint{
		{Timestamp: at(10), Close: 11},
		{Timestamp: at(20), Close: 21},
	}, got)
	assert.Equal(t, 20.0, in[0].Close, "input must not be modified")
}

func TestNormalizeEmpty(t *testing.T) {
	got := Normalize(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
