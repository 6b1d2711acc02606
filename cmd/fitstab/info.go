package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/tuannm99/novafits/internal/column"
	"github.com/tuannm99/novafits/internal/table"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	formatStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

func runInfo(args []string) error {
	g := newFlagSet("info")
	hdr := g.fs.String("header", "", "Header text file of the table")
	data := g.fs.String("data", "", "Data file of the table")
	if _, err := g.parse(args); err != nil {
		return err
	}
	if err := need("header", *hdr, "data", *data); err != nil {
		return err
	}
	e, err := readExtension(*hdr, *data)
	if err != nil {
		return err
	}
	cs, err := column.FromHeader(e.Header)
	if err != nil {
		return err
	}
	fmt.Println(renderInfo(e.Summary(), cs, termWidth()))
	return nil
}

// termWidth is the stdout width, or 0 when stdout is not a terminal.
func termWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return w
}

func renderInfo(s table.Summary, cs *column.ColumnSet, width int) string {
	var b strings.Builder
	name := s.Name
	if name == "" {
		name = "(unnamed)"
	}
	b.WriteString(titleStyle.Render(name))
	b.WriteString(" ")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%s  %s  %d cards", s.Type, s.Dims, s.Cards)))
	b.WriteString("\n\n")

	nameWidth := 4
	for _, n := range cs.Names() {
		nameWidth = max(nameWidth, len(n))
	}
	for i, c := range cs.Columns() {
		line := nameStyle.Render(fmt.Sprintf("%-*s", nameWidth, c.Name)) + "  " +
			formatStyle.Render(fmt.Sprintf("%-10s", cs.TForm(i)))
		var extra []string
		if c.Unit != "" {
			extra = append(extra, "unit="+c.Unit)
		}
		if c.Dim != "" {
			extra = append(extra, "dim="+c.Dim)
		}
		if c.Scale != 0 || c.Zero != 0 {
			extra = append(extra, fmt.Sprintf("scale=%g zero=%g", c.ScaleFactor(), c.Zero))
		}
		if len(extra) > 0 {
			line += "  " + dimStyle.Render(strings.Join(extra, " "))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	out := strings.TrimRight(b.String(), "\n")
	if width > 0 {
		out = lipgloss.NewStyle().MaxWidth(width).Render(out)
	}
	return out
}
