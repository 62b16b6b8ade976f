package suitelist

// Searching reports whether the view is capturing text input, so the
// parent knows not to treat keystrokes as global shortcuts.
func (m Model) Searching() bool {
	return m.searchMode
}
