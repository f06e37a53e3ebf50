package report

import (
	"fmt"
	"strings"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"

	"github.com/wexinc/cargo-upgrade/internal/config"
)

// LineDiff returns the line-level differences between before and after as
// "-" and "+" prefixed lines, each preceded by its line number in the file
// it comes from. It returns "" when the texts are equal.
func LineDiff(before, after string) string {
	if before == after {
		return ""
	}
	dmp := diffpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	oldLine, newLine := 1, 1
	for _, d := range diffs {
		for _, line := range splitLines(d.Text) {
			switch d.Type {
			case diffpatch.DiffDelete:
				fmt.Fprintf(&sb, "%4d -%s\n", oldLine, line)
				oldLine++
			case diffpatch.DiffInsert:
				fmt.Fprintf(&sb, "%4d +%s\n", newLine, line)
				newLine++
			case diffpatch.DiffEqual:
				oldLine++
				newLine++
			}
		}
	}
	return sb.String()
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return []string{""}
	}
	return strings.Split(s, "\n")
}

// Diff prints the changes a run made, or would make, to one manifest.
func (p *Printer) Diff(path string, before, after []byte) {
	if p.format != config.OutputText {
		return
	}
	body := LineDiff(string(before), string(after))
	if body == "" {
		return
	}
	fmt.Fprintf(p.out, "%s\n", p.name.Sprint("--- "+path))
	for _, line := range strings.SplitAfter(strings.TrimSuffix(body, "\n"), "\n") {
		line = strings.TrimSuffix(line, "\n")
		switch {
		case len(line) > 5 && line[5] == '-':
			fmt.Fprintln(p.out, p.gone.Sprint(line))
		case len(line) > 5 && line[5] == '+':
			fmt.Fprintln(p.out, p.added.Sprint(line))
		default:
			fmt.Fprintln(p.out, line)
		}
	}
}
