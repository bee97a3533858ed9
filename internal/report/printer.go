// Package report renders the probe checklist to a terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"

	"tasnim.dev/aws-probe/internal/utils"
)

const (
	ruleWidth   = 60
	detailPad   = 3
	labelColumn = 14
)

// Printer writes the human-readable report. Colors are downsampled (or
// stripped) by lipgloss according to the destination writer.
type Printer struct {
	w io.Writer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Rule prints a full-width separator.
func (p *Printer) Rule() {
	lipgloss.Fprintln(p.w, MutedStyle.Render(strings.Repeat("=", ruleWidth)))
}

// Title prints a bold title line.
func (p *Printer) Title(s string) {
	lipgloss.Fprintln(p.w, TitleStyle.Render(s))
}

// Step prints a numbered step heading, preceded by a blank line after the first.
func (p *Printer) Step(n int, title string) {
	if n > 1 {
		fmt.Fprintln(p.w)
	}
	lipgloss.Fprintln(p.w, StepStyle.Render(fmt.Sprintf("%d. %s...", n, title)))
}

func (p *Printer) OK(format string, args ...any) {
	p.tagged(SuccessStyle.Render("✓"), fmt.Sprintf(format, args...))
}

func (p *Printer) Warn(format string, args ...any) {
	p.tagged(WarningStyle.Render("⚠"), fmt.Sprintf(format, args...))
}

func (p *Printer) Fail(format string, args ...any) {
	p.tagged(ErrorStyle.Render("✗"), fmt.Sprintf(format, args...))
}

func (p *Printer) Skip(format string, args ...any) {
	p.tagged(MutedStyle.Render("-"), MutedStyle.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) Info(format string, args ...any) {
	lipgloss.Fprintln(p.w, strings.Repeat(" ", detailPad)+fmt.Sprintf(format, args...))
}

func (p *Printer) tagged(tag, msg string) {
	lipgloss.Fprintln(p.w, tag+" "+msg)
}

// Details returns a builder for an indented key/value block; flush it with Write.
func (p *Printer) Details() *utils.DetailBuilder {
	return utils.NewDetailBuilder(detailPad, labelColumn, LabelStyle)
}

// Write flushes a detail block.
func (p *Printer) Write(d *utils.DetailBuilder) {
	if d.Len() == 0 {
		return
	}
	lipgloss.Fprint(p.w, d.String())
}

// Trace prints a multi-line stack trace, dimmed and indented.
func (p *Printer) Trace(trace string) {
	trace = strings.TrimRight(trace, "\n")
	if trace == "" {
		return
	}
	for _, line := range strings.Split(trace, "\n") {
		lipgloss.Fprintln(p.w, MutedStyle.Render(strings.Repeat(" ", detailPad)+line))
	}
}

// Banner prints a message framed by rules.
func (p *Printer) Banner(style lipgloss.Style, msg string) {
	fmt.Fprintln(p.w)
	p.Rule()
	lipgloss.Fprintln(p.w, style.Render(msg))
	p.Rule()
}
