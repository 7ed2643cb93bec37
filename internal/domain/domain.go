package domain

import "time"

type ItemKind string

const (
	KindPost    ItemKind = "post"
	KindComment ItemKind = "comment"
)

// TextEvent is one matched mention of an asset in a forum item.
type TextEvent struct {
	Symbol    string    `json:"symbol"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`

	Forum  string   `json:"forum,omitempty"`
	Source string   `json:"source,omitempty"`
	ItemID string   `json:"item_id,omitempty"`
	Kind   ItemKind `json:"kind,omitempty"`
}

// SentimentObservation is a scored TextEvent.
type SentimentObservation struct {
	Symbol       string    `json:"symbol"`
	Timestamp    time.Time `json:"timestamp"`
	Polarity     float64   `json:"polarity"`
	Subjectivity float64   `json:"subjectivity"`
}

// PricePoint is one observed closing price.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Close     float64   `json:"close"`
}

// AlignedRecord is a sentiment observation joined with the most recent close
// at or before its timestamp. Close is nil when no such price exists.
type AlignedRecord struct {
	Symbol       string    `json:"symbol"`
	Timestamp    time.Time `json:"timestamp"`
	Polarity     float64   `json:"polarity"`
	Subjectivity float64   `json:"subjectivity"`
	Close        *float64  `json:"close"`
}

// AnalysisRequest describes one run. Zero values take the service defaults.
type AnalysisRequest struct {
	Symbol      string
	Forums      []string
	Limit       int
	Period      string
	Interval    string
	PriceSource string

	// Surface names the caller (api, bot, tui, mcp, cli) for metrics.
	Surface string
}

type Analysis struct {
	RunID       string          `json:"run_id"`
	Symbol      string          `json:"symbol"`
	Ticker      string          `json:"ticker"`
	PriceSource string          `json:"price_source"`
	Period      string          `json:"period"`
	Interval    string          `json:"interval"`
	Forums      []string        `json:"forums"`
	Limit       int             `json:"limit"`
	GeneratedAt time.Time       `json:"generated_at"`
	Summary     Summary         `json:"summary"`
	Records     []AlignedRecord `json:"records"`
}
