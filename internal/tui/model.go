// Package tui is the terminal dashboard served over SSH.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sentiment-lens/internal/domain"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const runTimeout = 2 * time.Minute

type Analyzer interface {
	Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.Analysis, error)
}

type Exporter interface {
	Save(ctx context.Context, a *domain.Analysis, format string) (string, error)
}

// Services are the dependencies of one session. Exporter may be nil.
type Services struct {
	Analysis Analyzer
	Exporter Exporter
	Username string

	Periods   []string
	Intervals []string
	Period    string
	Interval  string
}

type state int

const (
	stateInput state = iota
	stateLoading
	stateResults
)

type analysisMsg struct {
	analysis *domain.Analysis
	err      error
}

type exportMsg struct {
	location string
	err      error
}

type AppModel struct {
	svc Services

	state    state
	input    textinput.Model
	spinner  spinner.Model
	table    table.Model
	period   int
	interval int

	analysis *domain.Analysis
	err      error
	status   string

	width  int
	height int
}

func NewAppModel(svc Services) *AppModel {
	if len(svc.Periods) == 0 {
		svc.Periods = domain.SupportedPeriods
	}
	if len(svc.Intervals) == 0 {
		svc.Intervals = domain.SupportedIntervals
	}

	ti := textinput.New()
	ti.Placeholder = "BTC"
	ti.CharLimit = 16
	ti.Width = 16
	ti.Prompt = "symbol > "
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = accentStyle

	return &AppModel{
		svc:      svc,
		input:    ti,
		spinner:  sp,
		table:    newRecordTable(nil, 10),
		period:   indexOf(svc.Periods, svc.Period),
		interval: indexOf(svc.Intervals, svc.Interval),
		width:    80,
		height:   24,
	}
}

func (m *AppModel) SetSize(width, height int) {
	if width > 0 {
		m.width = width
	}
	if height > 0 {
		m.height = height
	}
	m.table.SetHeight(m.tableHeight())
}

func (m *AppModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.state {
		case stateInput:
			return m.updateInput(msg)
		case stateResults:
			return m.updateResults(msg)
		}
		return m, nil

	case analysisMsg:
		m.state = stateInput
		m.err = msg.err
		if msg.err == nil {
			m.analysis = msg.analysis
			m.table = newRecordTable(msg.analysis.Records, m.tableHeight())
			m.state = stateResults
			m.input.Blur()
		}
		return m, nil

	case exportMsg:
		if msg.err != nil {
			m.status = "export failed: " + msg.err.Error()
		} else {
			m.status = "exported to " + msg.location
		}
		return m, nil

	case spinner.TickMsg:
		if m.state != stateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.state == stateInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *AppModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.analysis != nil {
			m.state = stateResults
			m.input.Blur()
			return m, nil
		}
		return m, tea.Quit
	case "tab":
		m.period = (m.period + 1) % len(m.svc.Periods)
		return m, nil
	case "shift+tab":
		m.interval = (m.interval + 1) % len(m.svc.Intervals)
		return m, nil
	case "enter":
		symbol := strings.TrimSpace(m.input.Value())
		if symbol == "" {
			symbol = m.input.Placeholder
		}
		m.state = stateLoading
		m.err = nil
		m.status = ""
		return m, tea.Batch(m.spinner.Tick, m.run(symbol))
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *AppModel) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "n", "/":
		m.state = stateInput
		m.status = ""
		m.input.Focus()
		return m, textinput.Blink
	case "e":
		return m, m.export("csv")
	case "p":
		return m, m.export("parquet")
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *AppModel) run(symbol string) tea.Cmd {
	req := domain.AnalysisRequest{
		Symbol:   symbol,
		Period:   m.svc.Periods[m.period],
		Interval: m.svc.Intervals[m.interval],
		Surface:  "tui",
	}
	analyzer := m.svc.Analysis
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		a, err := analyzer.Analyze(ctx, req)
		return analysisMsg{analysis: a, err: err}
	}
}

func (m *AppModel) export(format string) tea.Cmd {
	if m.svc.Exporter == nil || m.analysis == nil {
		m.status = "export is not configured"
		return nil
	}
	m.status = "exporting " + format + "..."
	exporter, a := m.svc.Exporter, m.analysis
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		loc, err := exporter.Save(ctx, a, format)
		return exportMsg{location: loc, err: err}
	}
}

func (m *AppModel) tableHeight() int {
	// header, summary, two sparklines, help and borders
	return max(m.height-14, 3)
}

func newRecordTable(records []domain.AlignedRecord, height int) table.Model {
	columns := []table.Column{
		{Title: "Time (UTC)", Width: 17},
		{Title: "Polarity", Width: 9},
		{Title: "Subj.", Width: 6},
		{Title: "Close", Width: 14},
	}
	rows := make([]table.Row, 0, len(records))
	for _, r := range records {
		closeCell := "-"
		if r.Close != nil {
			closeCell = fmt.Sprintf("%.2f", *r.Close)
		}
		rows = append(rows, table.Row{
			r.Timestamp.UTC().Format("2006-01-02 15:04"),
			fmt.Sprintf("%+.3f", r.Polarity),
			fmt.Sprintf("%.2f", r.Subjectivity),
			closeCell,
		})
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)
	t.SetStyles(tableStyles())
	return t
}

func indexOf(values []string, v string) int {
	for i, candidate := range values {
		if candidate == v {
			return i
		}
	}
	return 0
}
