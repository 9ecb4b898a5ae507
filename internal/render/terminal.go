package render

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fatih/color"
)

// SortBy selects the row order of the terminal table.
type SortBy string

const (
	// SortByLine keeps input order.
	SortByLine SortBy = "line"
	// SortByComp groups rows by component, then input order.
	SortByComp SortBy = "comp"
)

// ParseSortBy validates a sort key.
func ParseSortBy(s string) (SortBy, error) {
	switch SortBy(strings.ToLower(s)) {
	case SortByLine, "":
		return SortByLine, nil
	case SortByComp:
		return SortByComp, nil
	}
	return "", fmt.Errorf("unknown sort key %q (want line or comp)", s)
}

// TableOptions controls WriteTable.
type TableOptions struct {
	Sort SortBy
	// MaxWidth truncates log content to this many runes; 0 disables.
	MaxWidth int
}

// palette cycles through the terminal colors for components.
var palette = []color.Attribute{
	color.FgGreen,
	color.FgYellow,
	color.FgBlue,
	color.FgMagenta,
	color.FgCyan,
	color.FgRed,
	color.FgHiGreen,
	color.FgHiYellow,
	color.FgHiBlue,
	color.FgHiMagenta,
	color.FgHiCyan,
	color.FgHiRed,
}

func compColor(id int) *color.Color {
	i := id % len(palette)
	if i < 0 {
		i += len(palette)
	}
	return color.New(palette[i])
}

// WriteTable prints r as an aligned, per-component colored table.
func WriteTable(w io.Writer, r *Report, opts TableOptions) error {
	rows := slices.Clone(r.LogLines)
	if opts.Sort == SortByComp {
		slices.SortStableFunc(rows, func(a, b LogLine) int {
			return a.CompID - b.CompID
		})
	}

	lineWidth := len(fmt.Sprint(max(r.NumLines-1, 0)))
	compWidth := len(fmt.Sprint(max(r.NumComps-1, 0)))
	lineWidth = max(lineWidth, len("line"))
	compWidth = max(compWidth, len("comp"))

	header := color.New(color.Bold)
	if _, err := header.Fprintf(w, "comp %d/lines %d\n", r.NumComps, r.NumLines); err != nil {
		return err
	}
	if _, err := header.Fprintf(w, "%*s  %*s  %s\n", lineWidth, "line", compWidth, "comp", "log"); err != nil {
		return err
	}

	for _, row := range rows {
		content := row.Content
		if opts.MaxWidth > 0 {
			content = truncate(content, opts.MaxWidth)
		}
		c := compColor(row.CompID)
		if _, err := c.Fprintf(w, "%*d  %*d  %s\n", lineWidth, row.LogID, compWidth, row.CompID, content); err != nil {
			return err
		}
	}
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 1 {
		return string(runes[:n])
	}
	return string(runes[:n-1]) + "…"
}
