package suitelist

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/akaul/reportdash/internal/keys"
	"github.com/akaul/reportdash/internal/store"
	"github.com/akaul/reportdash/internal/theme"
)

// SuitesLoadedMsg is sent when the suite overview has been loaded from
// the store.
type SuitesLoadedMsg struct {
	Items []SuiteItem
}

// SelectedSuiteMsg is sent when the user opens a suite's dashboard.
type SelectedSuiteMsg struct {
	Name string
}

// LoadErrMsg carries a store read failure.
type LoadErrMsg struct {
	Err error
}

// Model is the suite overview list component.
type Model struct {
	list        list.Model
	store       store.Store
	keys        *keys.KeyMap
	items       []SuiteItem
	query       string
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new suite list model.
func New(s store.Store, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Test Suites"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search suites..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		store:       s,
		keys:        k,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns a command that loads the initial suite overview.
func (m Model) Init() tea.Cmd {
	return m.LoadSuites()
}

// LoadSuites reads the distinct suites and each one's latest record.
func (m Model) LoadSuites() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx := context.Background()

		names, err := s.Suites(ctx)
		if err != nil {
			return LoadErrMsg{Err: err}
		}

		items := make([]SuiteItem, 0, len(names))
		for _, name := range names {
			records, err := s.QueryBySuite(ctx, name)
			if err != nil {
				return LoadErrMsg{Err: err}
			}
			if len(records) == 0 {
				continue
			}
			// QueryBySuite is most-recent first.
			items = append(items, SuiteItem{Name: name, Latest: records[0]})
		}

		return SuitesLoadedMsg{Items: items}
	}
}

// Update handles messages for the suite list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SuitesLoadedMsg:
		m.items = msg.Items
		return m, m.applyFilter()

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.query = m.searchInput.Value()
		return m, m.applyFilter()
	case "esc":
		m.searchMode = false
		m.searchInput.SetValue("")
		m.query = ""
		return m, m.applyFilter()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Select):
		if suite, ok := m.list.SelectedItem().(SuiteItem); ok {
			return m, func() tea.Msg {
				return SelectedSuiteMsg{Name: suite.Name}
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.LoadSuites()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// applyFilter rebuilds the visible list from the loaded items and the
// current search query.
func (m *Model) applyFilter() tea.Cmd {
	items := make([]list.Item, 0, len(m.items))
	for _, it := range m.items {
		if m.query != "" &&
			!strings.Contains(
				strings.ToLower(it.Name), strings.ToLower(m.query),
			) {
			continue
		}
		items = append(items, it)
	}
	return m.list.SetItems(items)
}

// View renders the suite list view.
func (m Model) View() string {
	if m.searchMode {
		return m.searchInput.View() + "\n" + m.list.View()
	}
	return m.list.View()
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
