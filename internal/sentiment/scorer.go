package sentiment

import (
	"context"
	"math"
	"strings"

	"sentiment-lens/internal/domain"
	"sentiment-lens/pkg/logger"
)

// Score is a polarity in [-1, 1] and a subjectivity in [0, 1].
type Score struct {
	Polarity     float64 `json:"polarity"`
	Subjectivity float64 `json:"subjectivity"`
}

func (s Score) clamped() Score {
	return Score{Polarity: clamp(s.Polarity, -1, 1), Subjectivity: clamp(s.Subjectivity, 0, 1)}
}

// Model scores one text. Implementations must be deterministic: the same
// text always yields the same score.
type Model interface {
	Score(text string) Score
}

// Preparer is implemented by models that need I/O before scoring, such as a
// remote model. Prepare returns the model to score one run's texts with; it
// may be non-nil alongside an error.
type Preparer interface {
	Prepare(ctx context.Context, texts []string) (Model, error)
}

// Scorer converts TextEvents into SentimentObservations.
type Scorer struct {
	model Model
}

// NewScorer wraps model; nil selects the default lexicon.
func NewScorer(model Model) *Scorer {
	if model == nil {
		model = DefaultLexicon()
	}
	return &Scorer{model: model}
}

// Score returns one observation per event in input order. Blank text
// scores (0, 0).
func (s *Scorer) Score(events []domain.TextEvent) []domain.SentimentObservation {
	return scoreWith(s.model, events)
}

func scoreWith(model Model, events []domain.TextEvent) []domain.SentimentObservation {
	out := make([]domain.SentimentObservation, len(events))
	for i, ev := range events {
		sc := scoreText(model, ev.Text)
		out[i] = domain.SentimentObservation{
			Symbol:       ev.Symbol,
			Timestamp:    ev.Timestamp,
			Polarity:     sc.Polarity,
			Subjectivity: sc.Subjectivity,
		}
	}
	return out
}

// ScoreContext prepares the model for this call's texts when it needs I/O,
// then scores. Prepared state lives only for the call. A failed preparation
// is logged and scoring proceeds with whatever the model can do offline.
func (s *Scorer) ScoreContext(ctx context.Context, events []domain.TextEvent) []domain.SentimentObservation {
	model := s.model
	if p, ok := s.model.(Preparer); ok && len(events) > 0 {
		texts := make([]string, 0, len(events))
		for _, ev := range events {
			texts = append(texts, ev.Text)
		}
		prepared, err := p.Prepare(ctx, texts)
		if err != nil {
			logger.Get().WithComponent("sentiment").WithError(err).Warn("model preparation failed, using fallback scores")
		}
		if prepared != nil {
			model = prepared
		}
	}
	return scoreWith(model, events)
}

func (s *Scorer) ScoreText(text string) Score {
	return scoreText(s.model, text)
}

func scoreText(model Model, text string) Score {
	if strings.TrimSpace(text) == "" {
		return Score{}
	}
	return model.Score(text).clamped()
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(lo, math.Min(hi, v))
}
