package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wexinc/cargo-upgrade/internal/tui/styles"
)

// ShortcutDef defines a single keyboard shortcut.
type ShortcutDef struct {
	Key  string
	Desc string
}

// ShortcutBar displays keyboard hints under the picker.
type ShortcutBar struct {
	shortcuts []ShortcutDef
	width     int
	centered  bool
}

// NewShortcutBar creates a new ShortcutBar with the given shortcuts.
func NewShortcutBar(shortcuts ...ShortcutDef) *ShortcutBar {
	return &ShortcutBar{shortcuts: shortcuts}
}

// SetWidth sets the bar width for alignment.
func (s *ShortcutBar) SetWidth(width int) {
	s.width = width
}

// SetCentered controls whether the bar content is centered.
func (s *ShortcutBar) SetCentered(centered bool) {
	s.centered = centered
}

// View renders the shortcut bar.
func (s *ShortcutBar) View() string {
	if len(s.shortcuts) == 0 {
		return ""
	}

	parts := make([]string, 0, len(s.shortcuts))
	for _, sc := range s.shortcuts {
		parts = append(parts, styles.KeyStyle.Render(sc.Key)+styles.HelpStyle.Render(":"+sc.Desc))
	}
	content := strings.Join(parts, lipgloss.NewStyle().Foreground(styles.Muted).Render(" │ "))

	if s.centered && s.width > 0 {
		return lipgloss.NewStyle().Width(s.width).Align(lipgloss.Center).Render(content)
	}
	return content
}

// PickerShortcuts are the hints shown by the upgrade picker.
var PickerShortcuts = []ShortcutDef{
	{"↑↓", "move"},
	{"Space", "toggle"},
	{"a", "all"},
	{"n", "none"},
	{"Enter", "apply"},
	{"q", "cancel"},
}
