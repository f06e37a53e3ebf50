// Package styles provides Lip Gloss styles for the interactive upgrade picker.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette.
var (
	Primary    = lipgloss.Color("#7C3AED") // Purple
	Secondary  = lipgloss.Color("#06B6D4") // Cyan
	Success    = lipgloss.Color("#10B981") // Green
	Warning    = lipgloss.Color("#F59E0B") // Amber
	Error      = lipgloss.Color("#EF4444") // Red
	Muted      = lipgloss.Color("#6B7280") // Gray
	MutedLight = lipgloss.Color("#9CA3AF") // Light Gray
	Foreground = lipgloss.Color("#F9FAFB") // White
)

// Header styles.
var (
	// TitleStyle is for the picker title.
	TitleStyle = lipgloss.NewStyle().
			Foreground(Foreground).
			Background(Primary).
			Bold(true).
			Padding(0, 1)

	// ManifestStyle is for the manifest group headings.
	ManifestStyle = lipgloss.NewStyle().
			Foreground(MutedLight).
			Bold(true)
)

// Row styles.
var (
	// NameStyle is for crate names.
	NameStyle = lipgloss.NewStyle().
			Foreground(Foreground)

	// NameFocusedStyle is for the crate name under the cursor.
	NameFocusedStyle = lipgloss.NewStyle().
				Foreground(Secondary).
				Bold(true)

	// OldVersionStyle is for the requirement being replaced.
	OldVersionStyle = lipgloss.NewStyle().
			Foreground(Error)

	// NewVersionStyle is for the replacement requirement.
	NewVersionStyle = lipgloss.NewStyle().
			Foreground(Success)

	// SectionStyle is for the dependency table a row belongs to.
	SectionStyle = lipgloss.NewStyle().
			Foreground(Muted)

	// CheckboxCheckedStyle is for checked checkboxes.
	CheckboxCheckedStyle = lipgloss.NewStyle().
				Foreground(Success)

	// CheckboxUncheckedStyle is for unchecked checkboxes.
	CheckboxUncheckedStyle = lipgloss.NewStyle().
				Foreground(Muted)
)

// Status bar styles.
var (
	// KeyStyle is for keyboard shortcut keys.
	KeyStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	// HelpStyle is for help text.
	HelpStyle = lipgloss.NewStyle().
			Foreground(Muted)

	// CountStyle is for the selected count.
	CountStyle = lipgloss.NewStyle().
			Foreground(Warning)
)
