package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Field is one key/value line of a report box
type Field struct {
	Key   string
	Value string
}

// RenderReport renders a titled box of fields. Fields keep their order.
func RenderReport(title string, fields []Field, width int) string {
	lines := []string{TitleStyle.Render(title), ""}
	for _, f := range fields {
		lines = append(lines, KeyStyle.Render(f.Key+":")+" "+ValueStyle.Render(f.Value))
	}
	return BoxStyle(width, PrimaryColor).Render(strings.Join(lines, "\n"))
}

// RenderError renders a failure box for err
func RenderError(title string, err error, width int) string {
	lines := []string{ErrorMessageStyle.Bold(true).Render(FailureMarker + "  " + title)}
	if err != nil {
		lines = append(lines, "", ErrorMessageStyle.Render("Error: "+err.Error()))
	}
	return BoxStyle(width, ErrorColor).Render(strings.Join(lines, "\n"))
}

// Printer writes rendered boxes to a writer at the terminal width.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a Printer. If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{out: w, width: GetTerminalWidth()}
}

// SetWidth overrides the detected width
func (p *Printer) SetWidth(w int) *Printer {
	p.width = clampWidth(w)
	return p
}

func (p *Printer) PrintReport(title string, fields []Field) {
	_, _ = fmt.Fprintln(p.out, RenderReport(title, fields, p.width))
}

func (p *Printer) PrintError(title string, err error) {
	_, _ = fmt.Fprintln(p.out, RenderError(title, err, p.width))
}

// Println writes a plain line
func (p *Printer) Println(a ...any) {
	_, _ = fmt.Fprintln(p.out, a...)
}
