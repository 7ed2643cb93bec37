package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"sentiment-lens/internal/domain"
)

// WriteCSV writes a header row then one row per record. A missing close is
// an empty cell.
func WriteCSV(w io.Writer, records []domain.AlignedRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	row := make([]string, len(Columns))
	for _, r := range records {
		row[0] = r.Symbol
		row[1] = r.Timestamp.UTC().Format(time.RFC3339)
		row[2] = strconv.FormatFloat(r.Polarity, 'f', -1, 64)
		row[3] = strconv.FormatFloat(r.Subjectivity, 'f', -1, 64)
		row[4] = ""
		if r.Close != nil {
			row[4] = strconv.FormatFloat(*r.Close, 'f', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
