package components

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func newRow() *Checkbox {
	return NewCheckbox("0", "docopt", "dependencies", "0.4", "0.8.3")
}

func TestNewCheckbox(t *testing.T) {
	cb := newRow()
	if cb.ID() != "0" {
		t.Errorf("Expected ID '0', got '%s'", cb.ID())
	}
	if !cb.Checked() {
		t.Error("Proposed upgrades should start selected")
	}
}

func TestCheckboxToggle(t *testing.T) {
	cb := newRow()

	cb.Toggle()
	if cb.Checked() {
		t.Error("Checkbox should be unchecked after Toggle()")
	}

	cb.Toggle()
	if !cb.Checked() {
		t.Error("Checkbox should be checked after second Toggle()")
	}
}

func TestCheckboxFocus(t *testing.T) {
	cb := newRow()

	if cb.Focused() {
		t.Error("Checkbox should not be focused initially")
	}
	cb.Focus()
	if !cb.Focused() {
		t.Error("Checkbox should be focused after Focus()")
	}
	cb.Blur()
	if cb.Focused() {
		t.Error("Checkbox should not be focused after Blur()")
	}
}

func TestCheckboxUpdateSpace(t *testing.T) {
	cb := newRow()
	cb.Focus()

	updated, _ := cb.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{' '}})
	if updated.Checked() {
		t.Error("Checkbox should be unchecked after Space")
	}
}

func TestCheckboxUpdateWithoutFocus(t *testing.T) {
	cb := newRow()

	cb.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{' '}})
	if !cb.Checked() {
		t.Error("Checkbox should not toggle without focus")
	}
}

func TestCheckboxView(t *testing.T) {
	cb := newRow()

	view := cb.View()
	for _, want := range []string{"[x]", "docopt", "0.4", "0.8.3", "(dependencies)"} {
		if !strings.Contains(view, want) {
			t.Errorf("View should contain %q, got %q", want, view)
		}
	}

	cb.SetChecked(false)
	if !strings.Contains(cb.View(), "[ ]") {
		t.Error("Unchecked row should show [ ]")
	}

	cb.Focus()
	if !strings.Contains(cb.View(), "> ") {
		t.Error("Focused row should show the cursor")
	}
}

func TestShortcutBarView(t *testing.T) {
	bar := NewShortcutBar(PickerShortcuts...)
	view := bar.View()
	for _, want := range []string{"Space", "toggle", "Enter", "apply"} {
		if !strings.Contains(view, want) {
			t.Errorf("View should contain %q, got %q", want, view)
		}
	}
	if NewShortcutBar().View() != "" {
		t.Error("empty bar should render nothing")
	}
}
