package schema

import (
	"errors"
	"testing"
	"time"

	"sentiment-lens/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestPricePointsFlatRows(t *testing.T) {
	doc := gjson.Parse(`[
		{"Datetime":"2025-01-01T00:00:00Z","Open":1,"Close":100.5},
		{"Datetime":"2025-01-01T01:00:00Z","Open":2,"Close":"101.25"}
	]`)
	table, err := FromRows(doc)
	require.NoError(t, err)

	pts, err := PricePoints(table)
	require.NoError(t, err)
	require.Len(t, pts, 2)
	assert.Equal(t, time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC), pts[1].Timestamp)
	assert.Equal(t, 101.25, pts[1].Close)
}

func TestPricePointsNestedByTicker(t *testing.T) {
	doc := gjson.Parse(`[
		{"Date":1735689600,"Adj Close":{"BTC-USD":1},"Close":{"ETH-USD":3300,"BTC-USD":94000}}
	]`)
	table, err := FromRows(doc)
	require.NoError(t, err)
	assert.Contains(t, table.Columns(), "Close_BTC-USD")

	pts, err := PricePoints(table, "BTC-USD")
	require.NoError(t, err)
	require.Len(t, pts, 1)
	assert.Equal(t, 94000.0, pts[0].Close)
	assert.Equal(t, time.Unix(1735689600, 0).UTC(), pts[0].Timestamp)
}

func TestPricePointsCompoundLabelWithoutHintUsesDocumentOrder(t *testing.T) {
	doc := gjson.Parse(`[{"date":"2025-01-01","Close_SOL-USD":200,"Close_BTC-USD":90000}]`)
	table, err := FromRows(doc)
	require.NoError(t, err)

	col, err := table.Resolve(CloseField)
	require.NoError(t, err)
	assert.Equal(t, "Close_SOL-USD", col)
}

func TestPricePointsColumnar(t *testing.T) {
	doc := gjson.Parse(`{
		"meta":{"symbol":"BTC-USD","validRanges":["1d","5d"]},
		"timestamp":[1735689600,1735693200,1735696800],
		"indicators":{"quote":[{"open":[1,2,3],"close":[10,null,12]}],"adjclose":[{"adjclose":[1,1,1]}]}
	}`)
	table, err := FromColumns(doc)
	require.NoError(t, err)
	assert.Contains(t, table.Columns(), "indicators_quote_close")
	assert.Equal(t, 3, table.Rows())

	pts, err := PricePoints(table)
	require.NoError(t, err)
	require.Len(t, pts, 2, "null close is skipped")
	assert.Equal(t, 12.0, pts[1].Close)
}

func TestPricePointsTuples(t *testing.T) {
	doc := gjson.Parse(`[[1735689600000, 94000.1], [1735693200000, 94100.2, 99]]`)
	table, err := FromTuples(doc, "timestamp", "close")
	require.NoError(t, err)

	pts, err := PricePoints(table)
	require.NoError(t, err)
	require.Len(t, pts, 2)
	assert.Equal(t, time.UnixMilli(1735693200000).UTC(), pts[1].Timestamp)
}

func TestPricePointsMissingCloseIsSchemaMismatch(t *testing.T) {
	table, err := FromRows(gjson.Parse(`[{"date":"2025-01-01","price":1}]`))
	require.NoError(t, err)

	_, err = PricePoints(table)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSchemaMismatch))
}

func TestPricePointsRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"non numeric": `[{"date":"2025-01-01","close":"abc"}]`,
		"negative":    `[{"date":"2025-01-01","close":-1}]`,
		"bad time":    `[{"date":"yesterday","close":1}]`,
		"bool close":  `[{"date":"2025-01-01","close":true}]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			table, err := FromRows(gjson.Parse(raw))
			require.NoError(t, err)
			_, err = PricePoints(table)
			assert.ErrorIs(t, err, domain.ErrSchemaMismatch)
		})
	}
}

func TestFromRowsRejectsNonArray(t *testing.T) {
	_, err := FromRows(gjson.Parse(`{"close":1}`))
	assert.ErrorIs(t, err, domain.ErrSchemaMismatch)

	_, err = FromRows(gjson.Parse(`[1,2]`))
	assert.ErrorIs(t, err, domain.ErrSchemaMismatch)
}

func TestFromTuplesRejectsShortTuple(t *testing.T) {
	_, err := FromTuples(gjson.Parse(`[[1]]`), "timestamp", "close")
	assert.ErrorIs(t, err, domain.ErrSchemaMismatch)
}

func TestTimestampFallsBackToFirstColumn(t *testing.T) {
	table, err := FromRows(gjson.Parse(`[{"Index":"2025-01-01 05:00:00","Close":5}]`))
	require.NoError(t, err)

	pts, err := PricePoints(table)
	require.NoError(t, err)
	require.Len(t, pts, 1)
	assert.Equal(t, time.Date(2025, 1, 1, 5, 0, 0, 0, time.UTC), pts[0].Timestamp)
}

func TestEmptyTableYieldsEmptySeries(t *testing.T) {
	table, err := FromTuples(gjson.Parse(`[]`), "timestamp", "close")
	require.NoError(t, err)

	pts, err := PricePoints(table)
	require.NoError(t, err)
	assert.Empty(t, pts)
}

func TestParseTime(t *testing.T) {
	ms, err := ParseTime(gjson.Parse(`"1735689600000"`))
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1735689600, 0).UTC(), ms)

	_, err = ParseTime(gjson.Parse(`null`))
	assert.Error(t, err)
}
