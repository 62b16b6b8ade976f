package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/akaul/reportdash/internal/keys"
	"github.com/akaul/reportdash/internal/model"
	"github.com/akaul/reportdash/internal/store"
	"github.com/akaul/reportdash/internal/theme"
)

// BackMsg signals the parent to navigate back to the suite list.
type BackMsg struct{}

// HistoryLoadedMsg carries the loaded execution history for a suite.
type HistoryLoadedMsg struct {
	Suite   string
	Records []model.ReportRecord
}

// LoadErrMsg carries a store read failure.
type LoadErrMsg struct {
	Err error
}

// sparkLevels are the glyphs of the pass-rate trend, lowest to highest.
var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// historyShown caps how many executions the history table renders.
const historyShown = 20

// Model is the per-suite dashboard view component.
type Model struct {
	suite    string
	records  []model.ReportRecord
	viewport viewport.Model
	store    store.Store
	keys     *keys.KeyMap
	width    int
	height   int
	loading  bool
}

// New creates a new dashboard view model.
func New(s store.Store, k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		store:    s,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the dashboard view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Load returns a command that reads the execution history of a suite,
// most-recent first.
func (m *Model) Load(suite string) tea.Cmd {
	m.suite = suite
	m.loading = true
	s := m.store
	return func() tea.Msg {
		records, err := s.QueryBySuite(context.Background(), suite)
		if err != nil {
			return LoadErrMsg{Err: err}
		}
		return HistoryLoadedMsg{Suite: suite, Records: records}
	}
}

// Update handles messages for the dashboard view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case HistoryLoadedMsg:
		if msg.Suite == m.suite {
			m.records = msg.Records
			m.loading = false
			m.viewport.SetContent(m.renderContent())
			m.viewport.GotoTop()
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.Refresh):
			return m, m.Load(m.suite)
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the dashboard view.
func (m Model) View() string {
	if m.loading {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("Loading suite history...")
	}

	if len(m.records) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No executions recorded for " + m.suite)
	}

	return m.viewport.View()
}

// renderContent builds the full dashboard content for the viewport.
func (m Model) renderContent() string {
	if len(m.records) == 0 {
		return ""
	}
	latest := m.records[0]

	sections := []string{
		m.renderLatest(latest),
		m.renderTrend(),
		m.renderHistory(),
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderLatest renders the latest-execution metric panel.
func (m Model) renderLatest(latest model.ReportRecord) string {
	title := theme.HeaderStyle.Render(m.suite + " — Latest Execution")

	metrics := lipgloss.JoinHorizontal(
		lipgloss.Top,
		metric("Total", fmt.Sprintf("%d", latest.Total), theme.MetricValueStyle),
		metric("Passed", fmt.Sprintf("%d", latest.Passed), theme.OutcomeStyle("passed")),
		metric("Failed", fmt.Sprintf("%d", latest.Failed), theme.OutcomeStyle("failed")),
		metric("Skipped", fmt.Sprintf("%d", latest.Skipped), theme.OutcomeStyle("skipped")),
		metric("Pass %", fmt.Sprintf("%.1f%%", latest.PassPercent),
			theme.PassRateStyle(latest.PassPercent)),
	)

	lines := []string{
		title,
		"",
		metrics,
		"",
		m.renderBreakdownBar(latest),
		theme.MetricLabelStyle.Render(
			"executed " + latest.ExecutedAt.Format("2006-01-02 15:04"),
		),
	}

	if !latest.Consistent() {
		lines = append(lines, theme.WarnStyle.Render(
			"⚠ counts do not add up — the source report omitted a column",
		))
	}

	return theme.PanelStyle.Width(m.width - 4).Render(
		lipgloss.JoinVertical(lipgloss.Left, lines...),
	)
}

// metric renders one labeled metric cell.
func metric(label, value string, style lipgloss.Style) string {
	return lipgloss.NewStyle().MarginRight(4).Render(
		lipgloss.JoinVertical(
			lipgloss.Left,
			style.Render(value),
			theme.MetricLabelStyle.Render(label),
		),
	)
}

// renderBreakdownBar renders a proportional passed/failed/skipped bar.
func (m Model) renderBreakdownBar(rec model.ReportRecord) string {
	width := m.width - 10
	if width < 10 {
		width = 10
	}
	total := rec.Passed + rec.Failed + rec.Skipped
	if total == 0 {
		return ""
	}

	passedW := rec.Passed * width / total
	failedW := rec.Failed * width / total
	skippedW := width - passedW - failedW

	return theme.OutcomeStyle("passed").Render(strings.Repeat("█", passedW)) +
		theme.OutcomeStyle("failed").Render(strings.Repeat("█", failedW)) +
		theme.OutcomeStyle("skipped").Render(strings.Repeat("█", skippedW))
}

// renderTrend renders the pass-rate sparkline, oldest on the left.
func (m Model) renderTrend() string {
	title := theme.HeaderStyle.Render("Pass % Trend")

	var spark strings.Builder
	for i := len(m.records) - 1; i >= 0; i-- {
		pct := m.records[i].PassPercent
		level := int(pct / 100 * float64(len(sparkLevels)-1))
		if level < 0 {
			level = 0
		}
		if level >= len(sparkLevels) {
			level = len(sparkLevels) - 1
		}
		spark.WriteString(
			theme.PassRateStyle(pct).Render(string(sparkLevels[level])),
		)
	}

	return theme.PanelStyle.Width(m.width - 4).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, "", spark.String()),
	)
}

// renderHistory renders the execution history table, most-recent first.
func (m Model) renderHistory() string {
	title := theme.HeaderStyle.Render("Execution History")

	header := fmt.Sprintf(
		"%-17s %6s %7s %7s %8s %8s",
		"DATE", "TOTAL", "PASSED", "FAILED", "SKIPPED", "PASS %",
	)

	rows := []string{title, "", theme.MetricLabelStyle.Render(header)}
	for i, rec := range m.records {
		if i >= historyShown {
			rows = append(rows, theme.MetricLabelStyle.Render(
				fmt.Sprintf("… %d more", len(m.records)-historyShown),
			))
			break
		}

		marker := " "
		if !rec.Consistent() {
			marker = theme.WarnStyle.Render("⚠")
		}

		line := fmt.Sprintf(
			"%-17s %6d %7d %7d %8d %s %s",
			rec.ExecutedAt.Format("2006-01-02 15:04"),
			rec.Total, rec.Passed, rec.Failed, rec.Skipped,
			theme.PassRateStyle(rec.PassPercent).
				Render(fmt.Sprintf("%7.1f%%", rec.PassPercent)),
			marker,
		)
		rows = append(rows, line)
	}

	return theme.PanelStyle.Width(m.width - 4).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// SetSize updates the dashboard dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if len(m.records) > 0 {
		m.viewport.SetContent(m.renderContent())
	}
}
