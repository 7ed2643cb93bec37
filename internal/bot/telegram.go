package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sentiment-lens/internal/domain"
	"sentiment-lens/pkg/logger"

	tele "gopkg.in/telebot.v3"
)

const commandTimeout = 90 * time.Second

type Analyzer interface {
	Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.Analysis, error)
	Assets() []domain.Asset
}

// StartTelegramBot registers /ping, /assets and /sentiment and starts long
// polling in the background. It returns nil without a token.
func StartTelegramBot(token string, analyzer Analyzer) *tele.Bot {
	log := logger.Get().WithComponent("telegram")
	if token == "" {
		log.Info("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.WithError(err).Error("failed to create Telegram bot")
		return nil
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/assets", func(c tele.Context) error {
		return c.Send("Tracked: " + strings.Join(symbols(analyzer.Assets()), ", "))
	})

	b.Handle("/sentiment", func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		_ = c.Notify(tele.Typing)
		return c.Send(sentimentReply(ctx, analyzer, c.Args()))
	})

	log.Info("Telegram bot started")
	go b.Start()
	return b
}

// sentimentReply handles "/sentiment SYMBOL [period] [interval]".
func sentimentReply(ctx context.Context, analyzer Analyzer, args []string) string {
	if len(args) == 0 {
		return fmt.Sprintf("Usage: /sentiment BTC [period] [interval]\nSupported: %s", strings.Join(symbols(analyzer.Assets()), ", "))
	}
	req := domain.AnalysisRequest{Symbol: args[0], Surface: "bot"}
	if len(args) > 1 {
		req.Period = args[1]
	}
	if len(args) > 2 {
		req.Interval = args[2]
	}

	a, err := analyzer.Analyze(ctx, req)
	if err != nil {
		var fe *domain.FetchError
		switch {
		case errors.Is(err, domain.ErrInvalidRequest):
			return fmt.Sprintf("Invalid request: %v", err)
		case errors.As(err, &fe):
			return fmt.Sprintf("Could not reach %s, try again later.", fe.Collaborator)
		default:
			return fmt.Sprintf("Error analyzing %s: %v", strings.ToUpper(args[0]), err)
		}
	}
	return formatAnalysis(a)
}

func formatAnalysis(a *domain.Analysis) string {
	s := a.Summary
	if s.Events == 0 {
		return fmt.Sprintf("%s: no mentions found in %s over %s.", a.Symbol, strings.Join(a.Forums, ", "), a.Period)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s sentiment (%s, %s bars, %s)\n", a.Symbol, a.Period, a.Interval, a.PriceSource)
	fmt.Fprintf(&b, "Mentions: %d (%d with price)\n", s.Events, s.RecordsWithPrice)
	fmt.Fprintf(&b, "Mean polarity: %+.3f\n", s.MeanPolarity)
	fmt.Fprintf(&b, "Mean subjectivity: %.3f\n", s.MeanSubjectivity)
	if s.FirstClose != nil && s.LastClose != nil {
		fmt.Fprintf(&b, "Close: $%.2f -> $%.2f", *s.FirstClose, *s.LastClose)
	} else {
		b.WriteString("Close: n/a")
	}
	return b.String()
}

func symbols(assets []domain.Asset) []string {
	out := make([]string, 0, len(assets))
	for _, a := range assets {
		out = append(out, a.Symbol)
	}
	return out
}
