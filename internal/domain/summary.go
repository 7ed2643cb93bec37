package domain

// Summary is a descriptive digest of an aligned series for presentation.
type Summary struct {
	Events           int      `json:"events"`
	PricePoints      int      `json:"price_points"`
	RecordsWithPrice int      `json:"records_with_price"`
	MeanPolarity     float64  `json:"mean_polarity"`
	MeanSubjectivity float64  `json:"mean_subjectivity"`
	FirstClose       *float64 `json:"first_close"`
	LastClose        *float64 `json:"last_close"`
}

func Summarize(records []AlignedRecord, pricePoints int) Summary {
	s := Summary{Events: len(records), PricePoints: pricePoints}
	if len(records) == 0 {
		return s
	}
	var polSum, subjSum float64
	for _, r := range records {
		polSum += r.Polarity
		subjSum += r.Subjectivity
		if r.Close == nil {
			continue
		}
		s.RecordsWithPrice++
		c := *r.Close
		if s.FirstClose == nil {
			s.FirstClose = &c
		}
		s.LastClose = &c
	}
	s.MeanPolarity = polSum / float64(len(records))
	s.MeanSubjectivity = subjSum / float64(len(records))
	return s
}
