package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/chazu/tapevm/pkg/value"
)

var (
	errorColor  = color.New(color.FgRed, color.Bold)
	nameColor   = color.New(color.FgCyan)
	resultColor = color.New(color.FgGreen, color.Bold)
	dimColor    = color.New(color.Faint)
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	cellStyle   = lipgloss.NewStyle()
	fastStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

// printGlobals writes one "name = value" line per global.
func printGlobals(w io.Writer, names []string, values []value.Value) {
	for i, name := range names {
		if i >= len(values) {
			break
		}
		fmt.Fprintf(w, "  %s = %s\n", nameColor.Sprint(name), values[i])
	}
}

// table renders rows in aligned columns. The first row is the header.
// Cells listed in highlight are drawn with fastStyle.
type table struct {
	rows      [][]string
	highlight map[[2]int]bool
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) mark(row, col int) {
	if t.highlight == nil {
		t.highlight = make(map[[2]int]bool)
	}
	t.highlight[[2]int{row, col}] = true
}

func (t *table) render(w io.Writer, plain bool) {
	var widths []int
	for _, row := range t.rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	for r, row := range t.rows {
		for c, cell := range row {
			style := cellStyle
			switch {
			case plain:
			case r == 0:
				style = headerStyle
			case t.highlight[[2]int{r, c}]:
				style = fastStyle
			}
			text := style.Width(widths[c]).Render(cell)
			if c > 0 {
				fmt.Fprint(w, "  ")
			}
			fmt.Fprint(w, text)
		}
		fmt.Fprintln(w)
	}
}
