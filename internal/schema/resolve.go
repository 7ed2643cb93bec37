package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"sentiment-lens/internal/domain"

	"github.com/tidwall/gjson"
)

// Field describes the labels a logical field may carry upstream.
type Field struct {
	Name string
	// Exact labels, compared case-insensitively, in priority order.
	Exact []string
	// Segments match any "_"-separated segment of a flattened label.
	Segments []string
	// FirstColumn falls back to the first column when nothing else matches.
	FirstColumn bool
}

var (
	CloseField = Field{
		Name:     "close",
		Exact:    []string{"close"},
		Segments: []string{"close"},
	}
	TimestampField = Field{
		Name:        "timestamp",
		Exact:       []string{"timestamp", "datetime", "date", "time", "t"},
		Segments:    []string{"timestamp", "datetime", "date", "time"},
		FirstColumn: true,
	}
)

// Resolve picks exactly one column for f. Exact labels win over segment
// matches; among several segment matches, those mentioning one of hints
// (e.g. the ticker) are preferred, then document order decides.
func (t *Table) Resolve(f Field, hints ...string) (string, error) {
	for _, want := range f.Exact {
		for _, col := range t.columns {
			if strings.EqualFold(col, want) {
				return col, nil
			}
		}
	}

	var matches []string
	for _, col := range t.columns {
		if hasSegment(col, f.Segments) {
			matches = append(matches, col)
		}
	}
	if len(matches) > 0 {
		for _, h := range hints {
			h = strings.ToLower(strings.TrimSpace(h))
			if h == "" {
				continue
			}
			for _, col := range matches {
				if strings.Contains(strings.ToLower(col), h) {
					return col, nil
				}
			}
		}
		return matches[0], nil
	}

	if f.FirstColumn && len(t.columns) > 0 {
		return t.columns[0], nil
	}
	return "", fmt.Errorf("%w: no %s field among columns %v", domain.ErrSchemaMismatch, f.Name, t.columns)
}

func hasSegment(label string, segments []string) bool {
	for _, part := range strings.Split(strings.ToLower(label), "_") {
		part = strings.TrimSpace(part)
		for _, seg := range segments {
			if part == seg {
				return true
			}
		}
	}
	return false
}

// PricePoints resolves the timestamp and close columns and converts every
// row into a PricePoint, in table order. Rows whose close is null are
// skipped (an empty bucket upstream); any other unparseable or non-positive
// value fails the whole table.
func PricePoints(t *Table, hints ...string) ([]domain.PricePoint, error) {
	closeCol, err := t.Resolve(CloseField, hints...)
	if err != nil {
		return nil, err
	}
	tsCol, err := t.Resolve(TimestampField)
	if err != nil {
		return nil, err
	}
	if tsCol == closeCol {
		return nil, fmt.Errorf("%w: timestamp and close resolve to the same column %q", domain.ErrSchemaMismatch, tsCol)
	}

	stamps, closes := t.Column(tsCol), t.Column(closeCol)
	if len(stamps) != len(closes) {
		return nil, fmt.Errorf("%w: %q has %d values but %q has %d", domain.ErrSchemaMismatch, tsCol, len(stamps), closeCol, len(closes))
	}

	out := make([]domain.PricePoint, 0, len(closes))
	for i := range closes {
		c := closes[i]
		if !c.Exists() || c.Type == gjson.Null {
			continue
		}
		v, err := parseClose(c)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d column %q: %v", domain.ErrSchemaMismatch, i, closeCol, err)
		}
		ts, err := ParseTime(stamps[i])
		if err != nil {
			return nil, fmt.Errorf("%w: row %d column %q: %v", domain.ErrSchemaMismatch, i, tsCol, err)
		}
		out = append(out, domain.PricePoint{Timestamp: ts, Close: v})
	}
	return out, nil
}

func parseClose(r gjson.Result) (float64, error) {
	var v float64
	switch r.Type {
	case gjson.Number:
		v = r.Float()
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		if err != nil {
			return 0, fmt.Errorf("close %q is not numeric", r.Str)
		}
		v = f
	default:
		return 0, fmt.Errorf("close has unsupported type %s", r.Type)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("close %v is not a positive price", v)
	}
	return v, nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime accepts unix seconds or milliseconds (number or numeric string)
// and the common ISO layouts. Results are UTC.
func ParseTime(r gjson.Result) (time.Time, error) {
	switch r.Type {
	case gjson.Number:
		return fromUnix(r.Int()), nil
	case gjson.String:
		s := strings.TrimSpace(r.Str)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return fromUnix(n), nil
		}
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized time %q", s)
	default:
		return time.Time{}, fmt.Errorf("time has unsupported type %s", r.Type)
	}
}

func fromUnix(n int64) time.Time {
	if n > 1_000_000_000_000 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}
