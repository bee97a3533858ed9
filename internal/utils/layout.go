package utils

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
)

// DetailBuilder builds indented key-value blocks for the console report.
type DetailBuilder struct {
	b          strings.Builder
	indent     string
	labelStyle lipgloss.Style
}

// NewDetailBuilder creates a builder with a fixed-width label column,
// indented by indent spaces.
func NewDetailBuilder(indent, labelWidth int, labelStyle lipgloss.Style) *DetailBuilder {
	return &DetailBuilder{
		indent:     strings.Repeat(" ", indent),
		labelStyle: labelStyle.Width(labelWidth),
	}
}

// Row writes a labeled key-value row.
func (d *DetailBuilder) Row(label, value string) {
	fmt.Fprintf(&d.b, "%s%s %s\n", d.indent, d.labelStyle.Render(label+":"), value)
}

// List writes a heading followed by one "- item" line per item.
func (d *DetailBuilder) List(heading string, items []string) {
	fmt.Fprintf(&d.b, "%s%s\n", d.indent, heading)
	for _, it := range items {
		fmt.Fprintf(&d.b, "%s  - %s\n", d.indent, it)
	}
}

// Len returns the number of bytes written so far.
func (d *DetailBuilder) Len() int {
	return d.b.Len()
}

// String returns the accumulated content.
func (d *DetailBuilder) String() string {
	return d.b.String()
}
