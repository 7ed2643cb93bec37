package tui

import (
	"fmt"
	"math"
	"strings"

	"sentiment-lens/internal/domain"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

var (
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Padding(0, 1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	posStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	negStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	priceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).Bold(true)
	s.Selected = s.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	return s
}

func (m *AppModel) View() string {
	var b strings.Builder
	title := "sentiment-lens"
	if m.svc.Username != "" {
		title += " · " + m.svc.Username
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	switch m.state {
	case stateInput:
		b.WriteString(m.input.View())
		fmt.Fprintf(&b, "\n%s %s   %s %s\n",
			labelStyle.Render("period"), accentStyle.Render(m.svc.Periods[m.period]),
			labelStyle.Render("interval"), accentStyle.Render(m.svc.Intervals[m.interval]))
		if m.err != nil {
			b.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
		}
		b.WriteString("\n" + helpStyle.Render("enter run · tab period · shift+tab interval · esc back/quit"))

	case stateLoading:
		fmt.Fprintf(&b, "%s fetching forums and prices...\n", m.spinner.View())

	case stateResults:
		b.WriteString(m.resultsView())
	}
	return b.String()
}

func (m *AppModel) resultsView() string {
	a := m.analysis
	s := a.Summary
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %s %s  %s %s  %s %s\n",
		accentStyle.Bold(true).Render(a.Symbol),
		labelStyle.Render("period"), a.Period,
		labelStyle.Render("interval"), a.Interval,
		labelStyle.Render("source"), a.PriceSource)
	fmt.Fprintf(&b, "%s %d  %s %d  %s %s  %s %.2f\n",
		labelStyle.Render("mentions"), s.Events,
		labelStyle.Render("priced"), s.RecordsWithPrice,
		labelStyle.Render("polarity"), polarityText(s.MeanPolarity),
		labelStyle.Render("subjectivity"), s.MeanSubjectivity)

	if s.Events == 0 {
		b.WriteString("\nno mentions found\n")
	} else {
		width := max(m.width-14, 10)
		polarity, closes := series(a.Records)
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("sentiment "), accentStyle.Render(sparkline(polarity, width)))
		fmt.Fprintf(&b, "%s %s\n\n", labelStyle.Render("close     "), priceStyle.Render(sparkline(closes, width)))
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(m.status + "\n")
	}
	b.WriteString(helpStyle.Render("↑/↓ scroll · e export csv · p export parquet · n new query · q quit"))
	return b.String()
}

func polarityText(v float64) string {
	text := fmt.Sprintf("%+.3f", v)
	switch {
	case v > 0.05:
		return posStyle.Render(text)
	case v < -0.05:
		return negStyle.Render(text)
	}
	return text
}

// series splits records into polarity and close values. Records without a
// close are skipped in the close series.
func series(records []domain.AlignedRecord) (polarity, closes []float64) {
	polarity = make([]float64, 0, len(records))
	closes = make([]float64, 0, len(records))
	for _, r := range records {
		polarity = append(polarity, r.Polarity)
		if r.Close != nil {
			closes = append(closes, *r.Close)
		}
	}
	return polarity, closes
}

// sparkline renders values as block characters, averaging into at most
// width buckets.
func sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}
	buckets := values
	if len(values) > width {
		buckets = make([]float64, width)
		for i := range buckets {
			lo := i * len(values) / width
			hi := (i + 1) * len(values) / width
			var sum float64
			for _, v := range values[lo:hi] {
				sum += v
			}
			buckets[i] = sum / float64(hi-lo)
		}
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range buckets {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	out := make([]rune, len(buckets))
	top := len(sparkBlocks) - 1
	for i, v := range buckets {
		idx := top / 2
		if hi > lo {
			idx = int(math.Round((v - lo) / (hi - lo) * float64(top)))
		}
		out[i] = sparkBlocks[idx]
	}
	return string(out)
}
