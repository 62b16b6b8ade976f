package suitelist

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/akaul/reportdash/internal/model"
	"github.com/akaul/reportdash/internal/theme"
)

// SuiteItem wraps one suite and its most recent execution so it can be
// used in a bubbles/list.
type SuiteItem struct {
	Name   string
	Latest model.ReportRecord
}

// FilterValue returns the string used for filtering.
func (i SuiteItem) FilterValue() string { return i.Name }

// ItemDelegate implements list.ItemDelegate for rendering suite lines.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single suite line: name, latest pass rate, counts,
// and how long ago the suite last ran.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	suite, ok := item.(SuiteItem)
	if !ok {
		return
	}

	rate := theme.PassRateStyle(suite.Latest.PassPercent).
		Render(fmt.Sprintf("%5.1f%%", suite.Latest.PassPercent))

	counts := fmt.Sprintf(
		"%d/%d passed", suite.Latest.Passed, suite.Latest.Total,
	)

	line := fmt.Sprintf(
		"%s  %s  %s  %s",
		suite.Name, rate, counts, relativeTime(suite.Latest.ExecutedAt),
	)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw ago", int(d.Hours()/24/7))
	}
}
