package script

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"glucograph/bucket"
	"glucograph/reading"
	"glucograph/stats"
)

// Chart palette, shared with the original report output.
const (
	colorLine     = "#02538f" // in-range line
	colorOutside  = "#d71920" // out-of-range line, below-target fill
	colorAbove    = "#f1b80e" // above-target fill
	colorBand     = "#979797" // interval max/min band
	smoothingMode = "sbezier"
	titleLayout   = "Monday, 2 January 2006"
)

// Config is the chart-level configuration threaded into the builder.
type Config struct {
	Unit          reading.Unit
	Low           float64
	High          float64
	GraphMin      float64
	GraphMax      float64
	PageWidth     float64 // inches
	PageHeight    float64 // inches
	ChartsPerPage int
	Icons         bool
}

// Builder accumulates directives in report order and serializes them once.
type Builder struct {
	cfg        Config
	directives []Directive
	names      []string
}

// NewBuilder returns a builder for one report run.
func NewBuilder(cfg Config) *Builder {
	if cfg.ChartsPerPage < 1 {
		cfg.ChartsPerPage = 2
	}
	return &Builder{cfg: cfg}
}

// Build assembles the full report: prologue, datasets, smoothing stages,
// the three chart groups and cleanup. Weeks and days chart newest first.
// Empty categories are skipped; no empty chart is ever emitted.
func (b *Builder) Build(days []bucket.DaySeries, weeks []bucket.WeekGroup, all []reading.Reading) {
	b.prologue()

	// Datasets are declared in chart order: overall, weeks newest first,
	// days newest first.
	if len(all) > 0 {
		b.dataset("Overall", collapsedRows(all))
		b.dataset("OverallRange", rangeRows(all))
	}
	for i := len(weeks) - 1; i >= 0; i-- {
		b.dataset(weekName(weeks[i].Key), collapsedRows(weeks[i].Readings))
		b.dataset(weekName(weeks[i].Key)+"Range", rangeRows(weeks[i].Readings))
	}
	for i := len(days) - 1; i >= 0; i-- {
		b.dataset(dayName(days[i].Date), collapsedRows(days[i].Readings))
		if rows := markRows(days[i].Readings); b.cfg.Icons && len(rows) > 0 {
			b.dataset(dayName(days[i].Date)+"Marks", rows)
		}
	}

	// One smoothing stage per value series; range bands plot unsmoothed.
	if len(all) > 0 {
		b.smooth("Overall")
	}
	for i := len(weeks) - 1; i >= 0; i-- {
		b.smooth(weekName(weeks[i].Key))
	}
	for i := len(days) - 1; i >= 0; i-- {
		b.smooth(dayName(days[i].Date))
	}

	if len(all) > 0 {
		b.page([]Chart{b.overallChart(all)})
	}
	b.page(b.weekCharts(weeks))
	b.page(b.dayCharts(days))

	if len(b.names) > 0 {
		b.directives = append(b.directives, Cleanup{Names: b.names})
	}
}

// Script serializes the accumulated directives to renderer text.
func (b *Builder) Script() string {
	var out strings.Builder
	for _, d := range b.directives {
		d.emit(&out)
	}
	return out.String()
}

// Directives exposes the ordered sequence, mainly for tests.
func (b *Builder) Directives() []Directive { return b.directives }

func (b *Builder) prologue() {
	unit := string(b.cfg.Unit)
	if unit == "" {
		unit = string(reading.UnitMMOLL)
	}
	b.directives = append(b.directives, Raw{Lines: []string{
		fmt.Sprintf("set terminal pdfcairo enhanced color size %.2fin,%.2fin font \"sans,8\"", b.cfg.PageWidth, b.cfg.PageHeight),
		"set encoding utf8",
		"set datafile separator whitespace",
		"set xdata time",
		`set timefmt "%H:%M"`,
		`set format x "%H:%M"`,
		`set xrange ["00:00":"23:59"]`,
		fmt.Sprintf("set yrange [%g:%g]", b.cfg.GraphMin, b.cfg.GraphMax),
		`set xlabel "Time"`,
		fmt.Sprintf("set ylabel \"Blood Glucose (%s)\"", unit),
		fmt.Sprintf("set linetype 11 lc rgb %q lw 2", colorLine),
		fmt.Sprintf("set linetype 12 lc rgb %q lw 2", colorOutside),
		`set grid xtics ytics lc rgb "#f0f0f0"`,
		"set key off",
	}})
}

func (b *Builder) dataset(name string, rows []string) {
	b.directives = append(b.directives, Dataset{Name: name, Rows: rows})
	b.names = append(b.names, name)
}

func (b *Builder) smooth(name string) {
	dst := name + "Smooth"
	b.directives = append(b.directives, Smooth{Src: name, Dst: dst, Mode: smoothingMode})
	b.names = append(b.names, dst)
}

// page lays charts out at the configured count per page. A page break goes
// in only when the running chart count hits an exact multiple of the page
// size and more charts remain; the last page never ends with a spare break.
func (b *Builder) page(charts []Chart) {
	if len(charts) == 0 {
		return
	}
	b.directives = append(b.directives, PageBegin{Rows: b.cfg.ChartsPerPage})
	for i, c := range charts {
		b.directives = append(b.directives, c)
		if (i+1)%b.cfg.ChartsPerPage == 0 && i+1 < len(charts) {
			b.directives = append(b.directives, PageEnd{}, PageBegin{Rows: b.cfg.ChartsPerPage})
		}
	}
	b.directives = append(b.directives, PageEnd{})
}

func (b *Builder) overallChart(all []reading.Reading) Chart {
	summary := stats.Summarize(stats.Values(all), b.cfg.Unit)
	first, last := all[0].Time, all[len(all)-1].Time
	title := fmt.Sprintf("Overall Average Glucose Summary for %s to %s",
		first.Format(titleLayout), last.Format(titleLayout))
	return Chart{
		Title:       title,
		RangeLow:    b.cfg.Low,
		RangeHigh:   b.cfg.High,
		RangeAlpha:  0.10,
		MedianLabel: b.medianLabel(summary),
		A1CLabel:    a1cLabel(summary),
		Plots: []string{
			bandClause("OverallRange"),
			b.boundedLineClause("OverallSmooth"),
		},
	}
}

func (b *Builder) weekCharts(weeks []bucket.WeekGroup) []Chart {
	charts := make([]Chart, 0, len(weeks))
	for i := len(weeks) - 1; i >= 0; i-- {
		group := weeks[i]
		summary := stats.Summarize(stats.Values(group.Readings), b.cfg.Unit)
		title := fmt.Sprintf("Average Glucose for %s to %s",
			group.Key.Start().Format(titleLayout), group.Key.End().Format(titleLayout))
		charts = append(charts, Chart{
			Title:       title,
			RangeLow:    b.cfg.Low,
			RangeHigh:   b.cfg.High,
			RangeAlpha:  0.10,
			MedianLabel: b.medianLabel(summary),
			A1CLabel:    a1cLabel(summary),
			Plots: []string{
				bandClause(weekName(group.Key) + "Range"),
				b.boundedLineClause(weekName(group.Key) + "Smooth"),
			},
		})
	}
	return charts
}

func (b *Builder) dayCharts(days []bucket.DaySeries) []Chart {
	charts := make([]Chart, 0, len(days))
	for i := len(days) - 1; i >= 0; i-- {
		day := days[i]
		summary := stats.Summarize(stats.Values(day.Readings), b.cfg.Unit)
		smoothed := dayName(day.Date) + "Smooth"
		plots := []string{
			fmt.Sprintf("$%s using 1:2 with filledcurves above y=%g fc rgb %q fs transparent solid 0.7 noborder", smoothed, b.cfg.High, colorAbove),
			fmt.Sprintf("$%s using 1:2 with filledcurves below y=%g fc rgb %q fs transparent solid 0.7 noborder", smoothed, b.cfg.Low, colorOutside),
			b.boundedLineClause(smoothed),
		}
		if b.cfg.Icons && len(markRows(day.Readings)) > 0 {
			plots = append(plots, fmt.Sprintf("$%sMarks using 1:2:3 with labels rotate by 45 font \",10\" textcolor rgb %q", dayName(day.Date), colorLine))
		}
		charts = append(charts, Chart{
			Title:       "Daily Glucose Summary for " + day.Date.Format(titleLayout),
			RangeLow:    b.cfg.Low,
			RangeHigh:   b.cfg.High,
			RangeAlpha:  0.20,
			MedianLabel: b.medianLabel(summary),
			Plots:       plots,
		})
	}
	return charts
}

// boundedLineClause colors the line by whether each sample breaches the
// target bounds (linetype 12) or stays inside (linetype 11).
func (b *Builder) boundedLineClause(name string) string {
	return fmt.Sprintf("$%s using 1:2:($2 > %g || $2 < %g ? 12 : 11) with lines lc variable",
		name, b.cfg.High, b.cfg.Low)
}

func bandClause(name string) string {
	return fmt.Sprintf("$%s using 1:2:3 with filledcurves fc rgb %q fs transparent solid 0.5 noborder", name, colorBand)
}

func (b *Builder) medianLabel(s stats.Summary) string {
	if b.cfg.Unit == reading.UnitMGDL {
		return fmt.Sprintf("Median glucose: %.0f %s", s.Median, b.cfg.Unit)
	}
	return fmt.Sprintf("Median glucose: %.1f %s", s.Median, b.cfg.Unit)
}

func a1cLabel(s stats.Summary) string {
	return fmt.Sprintf("Median HbA1c: %.1f%%", s.A1C)
}

// collapsedRows projects readings onto the intraday axis, sorted by time of
// day, as "HH:MM value" rows.
func collapsedRows(readings []reading.Reading) []string {
	sorted := make([]reading.Reading, len(readings))
	copy(sorted, readings)
	sort.Slice(sorted, func(i, j int) bool {
		return intradayLess(sorted[i], sorted[j])
	})
	rows := make([]string, len(sorted))
	for i := range sorted {
		rows[i] = sorted[i].Time.Format("15:04") + " " + formatValue(sorted[i].Value)
	}
	return rows
}

// rangeRows folds readings into interval buckets and renders the band
// series as "HH:MM low high" rows in key order.
func rangeRows(readings []reading.Reading) []string {
	intervals := bucket.SortedIntervals(bucket.Fold(readings))
	rows := make([]string, len(intervals))
	for i, iv := range intervals {
		rows[i] = iv.Key.String() + " " + formatValue(iv.Low) + " " + formatValue(iv.High)
	}
	return rows
}

// markRows renders the annotated readings only, as "HH:MM value label".
func markRows(readings []reading.Reading) []string {
	var rows []string
	for i := range readings {
		label := readings[i].Label()
		if label == "" {
			continue
		}
		rows = append(rows, readings[i].Time.Format("15:04")+" "+formatValue(readings[i].Value)+" "+label)
	}
	return rows
}

func intradayLess(a, b reading.Reading) bool {
	am := a.Time.Hour()*60 + a.Time.Minute()
	bm := b.Time.Hour()*60 + b.Time.Minute()
	if am != bm {
		return am < bm
	}
	return a.Time.Before(b.Time)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func dayName(date time.Time) string {
	return "Day_" + date.Format("2006_01_02")
}

func weekName(k bucket.WeekKey) string {
	return fmt.Sprintf("Week_%d_%02d", k.Year, k.Week)
}
