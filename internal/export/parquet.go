package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"sentiment-lens/internal/domain"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

type parquetRecord struct {
	Symbol       string   `parquet:"name=symbol, type=BYTE_ARRAY, convertedtype=UTF8"`
	Timestamp    int64    `parquet:"name=timestamp, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	Polarity     float64  `parquet:"name=polarity, type=DOUBLE"`
	Subjectivity float64  `parquet:"name=subjectivity, type=DOUBLE"`
	Close        *float64 `parquet:"name=close, type=DOUBLE, repetitiontype=OPTIONAL"`
}

type memFile struct {
	buffer *bytes.Buffer
}

func (m *memFile) Create(string) (source.ParquetFile, error) { return m, nil }
func (m *memFile) Open(string) (source.ParquetFile, error)   { return m, nil }
func (m *memFile) Seek(int64, int) (int64, error)            { return int64(m.buffer.Len()), nil }
func (m *memFile) Read([]byte) (int, error)                  { return 0, fmt.Errorf("read not supported") }
func (m *memFile) Write(b []byte) (int, error)               { return m.buffer.Write(b) }
func (m *memFile) Close() error                              { return nil }

// WriteParquet writes records as a single-row-group Parquet file. close is
// an optional column.
func WriteParquet(w io.Writer, records []domain.AlignedRecord, compression string) error {
	mem := &memFile{buffer: &bytes.Buffer{}}
	pw, err := writer.NewParquetWriter(mem, new(parquetRecord), 1)
	if err != nil {
		return fmt.Errorf("new parquet writer: %w", err)
	}
	pw.CompressionType = compressionCodec(compression)

	for _, r := range records {
		rec := parquetRecord{
			Symbol:       r.Symbol,
			Timestamp:    r.Timestamp.UTC().UnixMilli(),
			Polarity:     r.Polarity,
			Subjectivity: r.Subjectivity,
		}
		if r.Close != nil {
			c := *r.Close
			rec.Close = &c
		}
		if err := pw.Write(rec); err != nil {
			_ = pw.WriteStop()
			return fmt.Errorf("write parquet record: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finalize parquet: %w", err)
	}
	if _, err := w.Write(mem.buffer.Bytes()); err != nil {
		return fmt.Errorf("copy parquet: %w", err)
	}
	return nil
}

func compressionCodec(name string) parquet.CompressionCodec {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "snappy":
		return parquet.CompressionCodec_SNAPPY
	case "gzip":
		return parquet.CompressionCodec_GZIP
	case "zstd":
		return parquet.CompressionCodec_ZSTD
	default:
		return parquet.CompressionCodec_UNCOMPRESSED
	}
}
