// Package export renders aligned records as CSV or Parquet and optionally
// ships the artifact to S3.
package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"sentiment-lens/internal/domain"
	"sentiment-lens/internal/metrics"
)

const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// Columns is the column order of every export format.
var Columns = []string{"symbol", "timestamp", "polarity", "subjectivity", "close"}

// Artifact is an encoded export ready to be written or uploaded.
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
}

// Encode renders records in format. compression only applies to Parquet.
func Encode(a *domain.Analysis, format, compression string) (*Artifact, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	var (
		buf         bytes.Buffer
		contentType string
		err         error
	)
	switch format {
	case FormatCSV:
		contentType = "text/csv"
		err = WriteCSV(&buf, a.Records)
	case FormatParquet:
		contentType = "application/vnd.apache.parquet"
		err = WriteParquet(&buf, a.Records, compression)
	default:
		err = fmt.Errorf("%w: unsupported export format %q", domain.ErrInvalidRequest, format)
	}
	metrics.RecordExport(format, err)
	if err != nil {
		return nil, err
	}
	return &Artifact{Name: FileName(a, format), ContentType: contentType, Data: buf.Bytes()}, nil
}

// FileName is symbol_period_interval_generated.ext.
func FileName(a *domain.Analysis, format string) string {
	generated := a.GeneratedAt
	if generated.IsZero() {
		generated = time.Now().UTC()
	}
	return fmt.Sprintf("%s_%s_%s_%s.%s",
		strings.ToLower(a.Symbol), a.Period, a.Interval, generated.UTC().Format("20060102T150405Z"), format)
}
