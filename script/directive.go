// Package script assembles the renderer script as an ordered sequence of
// typed directive records. Aggregation code appends records; renderer
// syntax exists only in the final serialization step.
package script

import (
	"fmt"
	"strings"
)

// Directive is one record in the generated script.
type Directive interface {
	emit(b *strings.Builder)
}

// Raw holds prologue/styling lines that need no structure of their own.
type Raw struct {
	Lines []string
}

func (d Raw) emit(b *strings.Builder) {
	for _, line := range d.Lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
}

// Dataset declares a named inline data block.
type Dataset struct {
	Name string
	Rows []string
}

func (d Dataset) emit(b *strings.Builder) {
	fmt.Fprintf(b, "$%s << EOD\n", d.Name)
	for _, row := range d.Rows {
		b.WriteString(row)
		b.WriteByte('\n')
	}
	b.WriteString("EOD\n")
}

// Smooth asks the renderer to interpolate a dataset into a new named table.
// The builder never interpolates itself.
type Smooth struct {
	Src  string
	Dst  string
	Mode string
}

func (d Smooth) emit(b *strings.Builder) {
	fmt.Fprintf(b, "set table $%s\n", d.Dst)
	fmt.Fprintf(b, "plot $%s using 1:2 smooth %s\n", d.Src, d.Mode)
	b.WriteString("unset table\n")
}

// PageBegin opens a page laid out as Rows charts stacked vertically.
type PageBegin struct {
	Rows int
}

func (d PageBegin) emit(b *strings.Builder) {
	fmt.Fprintf(b, "set multiplot layout %d,1\n", d.Rows)
}

// PageEnd closes the current page.
type PageEnd struct{}

func (d PageEnd) emit(b *strings.Builder) {
	b.WriteString("unset multiplot\n")
}

// Chart renders one chart: target-range shading, summary label boxes and
// the plot clauses, with per-chart state reset afterwards.
type Chart struct {
	Title       string
	RangeLow    float64
	RangeHigh   float64
	RangeAlpha  float64
	MedianLabel string
	A1CLabel    string
	Plots       []string
}

func (d Chart) emit(b *strings.Builder) {
	fmt.Fprintf(b, "set title %q\n", d.Title)
	fmt.Fprintf(b, "set object 1 rectangle from graph 0, first %g to graph 1, first %g fc rgb \"#0072b2\" fs transparent solid %.2f noborder behind\n",
		d.RangeLow, d.RangeHigh, d.RangeAlpha)
	if d.MedianLabel != "" {
		fmt.Fprintf(b, "set label 1 %q at graph 0.95, graph 0.85 right front boxed\n", d.MedianLabel)
	}
	if d.A1CLabel != "" {
		fmt.Fprintf(b, "set label 2 %q at graph 0.05, graph 0.85 left front boxed\n", d.A1CLabel)
	}
	b.WriteString("plot \\\n    ")
	b.WriteString(strings.Join(d.Plots, ", \\\n    "))
	b.WriteByte('\n')
	if d.MedianLabel != "" {
		b.WriteString("unset label 1\n")
	}
	if d.A1CLabel != "" {
		b.WriteString("unset label 2\n")
	}
	b.WriteString("unset object 1\n")
}

// Cleanup releases the named datasets at the end of the run.
type Cleanup struct {
	Names []string
}

func (d Cleanup) emit(b *strings.Builder) {
	for _, name := range d.Names {
		fmt.Fprintf(b, "undefine $%s\n", name)
	}
}
