// Package tui implements the interactive picker used to choose which
// proposed upgrades are applied.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wexinc/cargo-upgrade/internal/tui/components"
	"github.com/wexinc/cargo-upgrade/internal/tui/styles"
	"github.com/wexinc/cargo-upgrade/internal/upgrade"
)

// ErrCancelled is returned when the user leaves the picker without applying.
var ErrCancelled = errors.New("upgrade selection cancelled")

// Item is one proposed upgrade shown in the picker.
type Item struct {
	Plan     *upgrade.ManifestPlan
	Decision upgrade.Decision
}

// Items lists the upgrades of plan in traversal order.
func Items(plan *upgrade.Plan) []Item {
	var items []Item
	for _, mp := range plan.Manifests {
		for _, d := range mp.Upgrades() {
			items = append(items, Item{Plan: mp, Decision: d})
		}
	}
	return items
}

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	All    key.Binding
	None   key.Binding
	Apply  key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k")),
	Down:   key.NewBinding(key.WithKeys("down", "j")),
	Toggle: key.NewBinding(key.WithKeys(" ", "x")),
	All:    key.NewBinding(key.WithKeys("a")),
	None:   key.NewBinding(key.WithKeys("n")),
	Apply:  key.NewBinding(key.WithKeys("enter")),
	Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c")),
}

// Picker is the bubbletea model of the upgrade picker.
type Picker struct {
	items     []Item
	rows      []*components.Checkbox
	cursor    int
	width     int
	bar       *components.ShortcutBar
	applied   bool
	cancelled bool
}

// NewPicker returns a picker with every item selected.
func NewPicker(items []Item) *Picker {
	p := &Picker{
		items: items,
		rows:  make([]*components.Checkbox, len(items)),
		bar:   components.NewShortcutBar(components.PickerShortcuts...),
	}
	for i, it := range items {
		d := it.Decision
		p.rows[i] = components.NewCheckbox(strconv.Itoa(i), d.Dependency.Name, d.Dependency.Section.String(), d.Old, d.New)
	}
	if len(p.rows) > 0 {
		p.rows[0].Focus()
	}
	return p
}

// Init implements tea.Model.
func (p *Picker) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (p *Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.bar.SetWidth(msg.Width)
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			p.cancelled = true
			return p, tea.Quit
		case key.Matches(msg, keys.Apply):
			p.applied = true
			return p, tea.Quit
		case key.Matches(msg, keys.Up):
			p.move(-1)
		case key.Matches(msg, keys.Down):
			p.move(1)
		case key.Matches(msg, keys.All):
			p.setAll(true)
		case key.Matches(msg, keys.None):
			p.setAll(false)
		case key.Matches(msg, keys.Toggle):
			if len(p.rows) > 0 {
				p.rows[p.cursor].Update(msg)
			}
		}
	}
	return p, nil
}

func (p *Picker) move(delta int) {
	if len(p.rows) == 0 {
		return
	}
	next := p.cursor + delta
	if next < 0 || next >= len(p.rows) {
		return
	}
	p.rows[p.cursor].Blur()
	p.cursor = next
	p.rows[p.cursor].Focus()
}

func (p *Picker) setAll(checked bool) {
	for _, r := range p.rows {
		r.SetChecked(checked)
	}
}

// View implements tea.Model.
func (p *Picker) View() string {
	if p.applied || p.cancelled {
		return ""
	}
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("cargo upgrade"))
	b.WriteString("\n\n")

	var current *upgrade.ManifestPlan
	for i, it := range p.items {
		if it.Plan != current {
			current = it.Plan
			b.WriteString(styles.ManifestStyle.Render(current.Manifest.Path))
			b.WriteString("\n")
		}
		b.WriteString(p.rows[i].View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.CountStyle.Render(fmt.Sprintf("%d of %d selected", p.selectedCount(), len(p.rows))))
	b.WriteString("\n")
	b.WriteString(p.bar.View())
	b.WriteString("\n")
	return b.String()
}

func (p *Picker) selectedCount() int {
	n := 0
	for _, r := range p.rows {
		if r.Checked() {
			n++
		}
	}
	return n
}

// Applied reports whether the user confirmed the selection.
func (p *Picker) Applied() bool { return p.applied }

// Selected returns the items left checked.
func (p *Picker) Selected() []Item {
	var out []Item
	for i, r := range p.rows {
		if r.Checked() {
			out = append(out, p.items[i])
		}
	}
	return out
}

// Keep returns a filter for upgrade.Engine.Commit accepting exactly the
// selected items.
func Keep(selected []Item) func(*upgrade.ManifestPlan, upgrade.Decision) bool {
	type id struct {
		plan    *upgrade.ManifestPlan
		section string
		name    string
	}
	set := make(map[id]bool, len(selected))
	for _, it := range selected {
		set[id{it.Plan, it.Decision.Dependency.Section.String(), it.Decision.Dependency.Name}] = true
	}
	return func(mp *upgrade.ManifestPlan, d upgrade.Decision) bool {
		return set[id{mp, d.Dependency.Section.String(), d.Dependency.Name}]
	}
}

// Pick shows the picker on in/out and returns the items the user kept.
// It returns ErrCancelled when the user quits without applying.
func Pick(ctx context.Context, items []Item, in io.Reader, out io.Writer) ([]Item, error) {
	if len(items) == 0 {
		return nil, nil
	}
	program := tea.NewProgram(NewPicker(items),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	final, err := program.Run()
	if err != nil {
		return nil, err
	}
	p, ok := final.(*Picker)
	if !ok || !p.Applied() {
		return nil, ErrCancelled
	}
	return p.Selected(), nil
}
