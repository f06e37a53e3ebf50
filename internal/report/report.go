// Package report renders the outcome of an upgrade run for the terminal or
// for machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/wexinc/cargo-upgrade/internal/config"
	"github.com/wexinc/cargo-upgrade/internal/upgrade"
)

// Change is one rewritten requirement.
type Change struct {
	Name    string `json:"name" yaml:"name"`
	Section string `json:"section" yaml:"section"`
	Old     string `json:"old" yaml:"old"`
	New     string `json:"new" yaml:"new"`
}

// Skip is a dependency that was left alone.
type Skip struct {
	Name    string `json:"name" yaml:"name"`
	Section string `json:"section" yaml:"section"`
	Reason  string `json:"reason" yaml:"reason"`
}

// Manifest summarises the run for one manifest.
type Manifest struct {
	Path    string   `json:"path" yaml:"path"`
	Name    string   `json:"name,omitempty" yaml:"name,omitempty"`
	Written bool     `json:"written" yaml:"written"`
	Changes []Change `json:"changes" yaml:"changes"`
	Skipped []Skip   `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Missing []string `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// Summary is the machine-readable form of a run.
type Summary struct {
	DryRun    bool       `json:"dry_run" yaml:"dry_run"`
	Manifests []Manifest `json:"manifests" yaml:"manifests"`
}

// Summarize converts engine results into a Summary.
func Summarize(results []upgrade.Result, dryRun bool) Summary {
	s := Summary{DryRun: dryRun, Manifests: make([]Manifest, 0, len(results))}
	for _, r := range results {
		m := Manifest{
			Path:    r.Path,
			Name:    r.Name,
			Written: r.Written,
			Changes: make([]Change, 0, len(r.Changes)),
			Missing: r.Missing,
		}
		for _, d := range r.Changes {
			m.Changes = append(m.Changes, Change{
				Name:    d.Dependency.Name,
				Section: d.Dependency.Section.String(),
				Old:     d.Old,
				New:     d.New,
			})
		}
		for _, d := range r.Skipped {
			m.Skipped = append(m.Skipped, Skip{
				Name:    d.Dependency.Name,
				Section: d.Dependency.Section.String(),
				Reason:  d.Reason,
			})
		}
		s.Manifests = append(s.Manifests, m)
	}
	return s
}

// Printer writes reports. Results go to out, warnings to errOut.
type Printer struct {
	out    io.Writer
	errOut io.Writer
	format config.OutputFormat

	name  *color.Color
	old   *color.Color
	new   *color.Color
	warn  *color.Color
	added *color.Color
	gone  *color.Color
}

// NewPrinter returns a printer for format. Colors are used when useColor
// is set and the format is text.
func NewPrinter(out, errOut io.Writer, format config.OutputFormat, useColor bool) *Printer {
	p := &Printer{
		out:    out,
		errOut: errOut,
		format: format,
		name:   color.New(color.Bold),
		old:    color.New(color.FgRed),
		new:    color.New(color.FgGreen),
		warn:   color.New(color.FgYellow),
		added:  color.New(color.FgGreen),
		gone:   color.New(color.FgRed),
	}
	for _, c := range []*color.Color{p.name, p.old, p.new, p.warn, p.added, p.gone} {
		if useColor && format == config.OutputText {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// UseColor decides whether output to w should be colored.
func UseColor(mode config.ColorMode, w io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Upgraded prints the line announcing one applied upgrade.
func (p *Printer) Upgraded(d upgrade.Decision) {
	if p.format != config.OutputText {
		return
	}
	fmt.Fprintf(p.out, "Upgrading %s v%s -> v%s\n",
		p.name.Sprint(d.Dependency.Name), p.old.Sprint(d.Old), p.new.Sprint(d.New))
}

// Skipped warns about a dependency that could not be upgraded. Path and
// git dependencies without a version are not worth a warning.
func (p *Printer) Skipped(d upgrade.Decision) {
	if d.Reason == upgrade.ReasonNoVersion || d.Reason == upgrade.ReasonExcluded {
		return
	}
	fmt.Fprintf(p.errOut, "%s %s (%s): %s\n", p.warn.Sprint("warning:"), d.Dependency.Name, d.Dependency.Section, d.Reason)
}

// Missing warns about a requested dependency that no manifest declares.
func (p *Printer) Missing(err error) {
	fmt.Fprintf(p.errOut, "%s %v\n", p.warn.Sprint("warning:"), err)
}

// Summary writes the run summary. Text output has already been streamed
// by Upgraded, so only a closing line is written for it.
func (p *Printer) Summary(results []upgrade.Result, dryRun bool) error {
	s := Summarize(results, dryRun)
	switch p.format {
	case config.OutputJSON:
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case config.OutputYAML:
		enc := yaml.NewEncoder(p.out)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	default:
		changes := 0
		for _, m := range s.Manifests {
			changes += len(m.Changes)
		}
		if dryRun && changes > 0 {
			fmt.Fprintf(p.out, "%s dry run, no manifest was written\n", p.warn.Sprint("note:"))
		}
		return nil
	}
}
