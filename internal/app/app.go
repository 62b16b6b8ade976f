// Package app hosts the root Bubble Tea model of the report viewer.
// The viewer is a read-only consumer of the report store: it renders
// the persisted series and never triggers ingestion.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/akaul/reportdash/internal/keys"
	"github.com/akaul/reportdash/internal/model"
	"github.com/akaul/reportdash/internal/store"
	"github.com/akaul/reportdash/internal/theme"
	"github.com/akaul/reportdash/internal/ui"
	"github.com/akaul/reportdash/internal/ui/dashboard"
	helpview "github.com/akaul/reportdash/internal/ui/help"
	"github.com/akaul/reportdash/internal/ui/suitelist"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDashboard
	ViewHelp
)

// latestRunMsg carries the most recent ingestion run for the header.
type latestRunMsg struct {
	run *model.RunRecord
}

// Model is the root Bubble Tea model that manages view routing, layout,
// and access to the persistence layer.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	store        *store.SQLiteStore
	keys         *keys.KeyMap
	suiteList    suitelist.Model
	dashboard    dashboard.Model
	helpView     helpview.Model
	lastRun      *model.RunRecord
	errMessage   string
	ready        bool
}

// New creates a new root application model with the given store.
func New(s *store.SQLiteStore) Model {
	k := keys.DefaultKeyMap()

	return Model{
		currentView: ViewList,
		store:       s,
		keys:        k,
	}
}

// Init starts loading the suite overview and the last-ingestion status.
func (m Model) Init() tea.Cmd {
	return m.loadLatestRun()
}

// loadLatestRun reads the most recent ingestion run record.
func (m Model) loadLatestRun() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		run, err := s.LatestRun(context.Background())
		if err != nil {
			// Header status only; the series views surface their own
			// errors.
			return latestRunMsg{run: nil}
		}
		return latestRunMsg{run: run}
	}
}

// Update handles messages for the root model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		if !m.ready {
			m.suiteList = suitelist.New(m.store, m.keys, w, h)
			m.dashboard = dashboard.New(m.store, m.keys, w, h)
			m.helpView = helpview.New(m.keys, w, h)
			m.ready = true
			return m, m.suiteList.Init()
		}
		m.suiteList.SetSize(w, h)
		m.dashboard.SetSize(w, h)
		m.helpView.SetSize(w, h)
		return m, nil

	case latestRunMsg:
		m.lastRun = msg.run
		return m, nil

	case suitelist.SelectedSuiteMsg:
		m.currentView = ViewDashboard
		return m, m.dashboard.Load(msg.Name)

	case dashboard.BackMsg:
		m.currentView = ViewList
		return m, nil

	case suitelist.LoadErrMsg:
		m.errMessage = msg.Err.Error()
		return m, nil

	case dashboard.LoadErrMsg:
		m.errMessage = msg.Err.Error()
		return m, nil

	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKeys(msg); handled {
			return m, cmd
		}
	}

	if !m.ready {
		return m, nil
	}

	var cmds []tea.Cmd

	// A refresh also re-reads the header's last-ingestion status, on
	// top of whatever the active view reloads.
	if keyMsg, ok := msg.(tea.KeyMsg); ok &&
		key.Matches(keyMsg, m.keys.Refresh) &&
		!(m.currentView == ViewList && m.suiteList.Searching()) {
		cmds = append(cmds, m.loadLatestRun())
	}

	var cmd tea.Cmd
	switch m.currentView {
	case ViewList:
		m.suiteList, cmd = m.suiteList.Update(msg)
	case ViewDashboard:
		m.dashboard, cmd = m.dashboard.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleGlobalKeys processes keys that apply regardless of the current
// view. Returns handled=false when the active view should see the key
// instead (e.g. while the suite search box is focused).
func (m *Model) handleGlobalKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	if m.currentView == ViewList && m.ready && m.suiteList.Searching() {
		return nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit, true

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
		} else {
			m.previousView = m.currentView
			m.currentView = ViewHelp
		}
		return nil, true

	case key.Matches(msg, m.keys.Back):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return nil, true
		}
		return nil, false
	}

	return nil, false
}

// View renders the full application frame.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	var content string
	switch m.currentView {
	case ViewList:
		content = m.suiteList.View()
	case ViewDashboard:
		content = m.dashboard.View()
	case ViewHelp:
		content = m.helpView.View()
	}

	header := m.layout.RenderHeader("reportdash", m.ingestStatus())

	hints := "j/k navigate · enter open · / search · r refresh · ? help · q quit"
	if m.errMessage != "" {
		hints = theme.WarnStyle.Render("error: " + m.errMessage)
	}
	statusBar := m.layout.RenderStatusBar(hints)

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// ingestStatus summarizes the last ingestion run for the header.
func (m Model) ingestStatus() string {
	if m.lastRun == nil {
		return "no ingestion runs yet"
	}
	if m.lastRun.Error != "" {
		return "last ingestion failed"
	}

	age := time.Since(m.lastRun.FinishedAt).Round(time.Minute)
	return fmt.Sprintf(
		"ingested %s ago · %d new", age, m.lastRun.Accepted,
	)
}

// Run starts the viewer on the given store and blocks until exit.
func Run(s *store.SQLiteStore) error {
	p := tea.NewProgram(New(s), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running viewer: %w", err)
	}
	return nil
}
