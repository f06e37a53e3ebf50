// Package components provides the rows and bars the upgrade picker is built from.
package components

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wexinc/cargo-upgrade/internal/tui/styles"
)

// Checkbox is a toggleable row describing one proposed upgrade.
type Checkbox struct {
	name    string
	section string
	from    string
	to      string
	checked bool
	focused bool
	id      string
}

// NewCheckbox creates a checked row for the upgrade of name from one
// requirement to another.
func NewCheckbox(id, name, section, from, to string) *Checkbox {
	return &Checkbox{
		id:      id,
		name:    name,
		section: section,
		from:    from,
		to:      to,
		checked: true,
	}
}

// ID returns the row's unique identifier.
func (c *Checkbox) ID() string {
	return c.id
}

// Focus focuses the row.
func (c *Checkbox) Focus() tea.Cmd {
	c.focused = true
	return nil
}

// Blur removes focus from the row.
func (c *Checkbox) Blur() {
	c.focused = false
}

// Focused returns whether the row is focused.
func (c *Checkbox) Focused() bool {
	return c.focused
}

// Toggle toggles the row.
func (c *Checkbox) Toggle() {
	c.checked = !c.checked
}

// SetChecked sets the row state.
func (c *Checkbox) SetChecked(checked bool) {
	c.checked = checked
}

// Checked returns whether the upgrade is selected.
func (c *Checkbox) Checked() bool {
	return c.checked
}

// Update handles messages for the row.
func (c *Checkbox) Update(msg tea.Msg) (*Checkbox, tea.Cmd) {
	if !c.focused {
		return c, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case " ", "x":
			c.Toggle()
		}
	}

	return c, nil
}

// View renders the row.
func (c *Checkbox) View() string {
	box := styles.CheckboxUncheckedStyle.Render("[ ]")
	if c.checked {
		box = styles.CheckboxCheckedStyle.Render("[x]")
	}

	cursor := "  "
	nameStyle := styles.NameStyle
	if c.focused {
		cursor = styles.KeyStyle.Render("> ")
		nameStyle = styles.NameFocusedStyle
	}

	return cursor + box + " " +
		nameStyle.Render(c.name) + " " +
		styles.OldVersionStyle.Render(c.from) + " -> " +
		styles.NewVersionStyle.Render(c.to) + " " +
		styles.SectionStyle.Render("("+c.section+")")
}
