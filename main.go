// Command glucograph converts a glucometer CSV export into a paginated PDF
// report: readings are aggregated into daily, weekly and overall summaries
// and handed to an external renderer as a generated script.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"glucograph/archive"
	"glucograph/bucket"
	"glucograph/config"
	"glucograph/ingest"
	"glucograph/reading"
	"glucograph/render"
	"glucograph/script"
	"glucograph/stats"
)

// Graph bounds applied when unit auto-detection lands on mg/dL but the
// config still carries the mmol/L-scaled defaults.
const (
	graphMinMGDL = 0
	graphMaxMGDL = 400
)

func main() {
	configPath := flag.String("config", "glucograph.yaml", "Path to config YAML")
	inputPath := flag.String("input", "", "CSV export to read (required)")
	outputPath := flag.String("output", "", "Destination report path (required)")
	rendererBin := flag.String("renderer", "", "Override the renderer binary")
	scriptOnly := flag.Bool("script-only", false, "Print the generated renderer script and exit")
	flag.Parse()

	if *inputPath == "" || *outputPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config: %v\n", err)
		os.Exit(1)
	}
	if *rendererBin != "" {
		cfg.Renderer.Binary = *rendererBin
	}

	fanout, err := setupLogging(cfg.Logging, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging: %v\n", err)
	}
	log.SetFlags(0)
	log.SetOutput(fanout)
	defer fanout.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *inputPath, *outputPath, *scriptOnly, os.Stdout); err != nil {
		log.Fatalf("glucograph: %v", err)
	}
}

// run executes the whole pipeline: ingest, bucket, build, archive, render.
func run(ctx context.Context, cfg config.Config, inputPath, outputPath string, scriptOnly bool, stdout io.Writer) error {
	started := time.Now()

	res, err := ingest.ParseFile(inputPath, ingest.Options{
		Fingerstick: cfg.Report.Fingerstick,
		Icons:       cfg.Report.Icons,
		FillGap:     time.Duration(cfg.Report.FillGapsMinutes) * time.Minute,
	})
	if err != nil {
		return err
	}
	if res.Dropped > 0 {
		log.Printf("Ingest: dropped %s malformed rows (of %s)",
			humanize.Comma(int64(res.Dropped)), humanize.Comma(int64(res.Total)))
	}
	if res.Duplicates > 0 {
		log.Printf("Ingest: suppressed %s duplicate rows", humanize.Comma(int64(res.Duplicates)))
	}
	if res.Skipped > 0 {
		log.Printf("Ingest: filtered %s ketone/fingerstick rows", humanize.Comma(int64(res.Skipped)))
	}
	if len(res.Readings) == 0 {
		return fmt.Errorf("no usable readings in %s", inputPath)
	}

	scfg := chartConfig(cfg.Report, res.Readings)
	first := res.Readings[0].Time
	last := res.Readings[len(res.Readings)-1].Time
	log.Printf("Ingest: %s readings (%s) covering %s to %s",
		humanize.Comma(int64(len(res.Readings))), scfg.Unit,
		first.Format("2006-01-02"), last.Format("2006-01-02"))

	days := bucket.Days(res.Readings)
	weeks := bucket.Weeks(res.Readings, cfg.Report.MinWeekSamples)

	builder := script.NewBuilder(scfg)
	builder.Build(days, weeks, res.Readings)
	text := builder.Script()
	log.Printf("Report: 1 overall, %d week and %d day charts at %d per page",
		len(weeks), len(days), scfg.ChartsPerPage)

	if scriptOnly {
		fmt.Fprint(stdout, text)
		return nil
	}

	archiveRun(cfg, inputPath, scfg.Unit, started, res)

	rres, err := render.Run(ctx, text, outputPath, render.Options{
		Binary: cfg.Renderer.Binary,
		Diagnostics: func(line string) {
			log.Printf("Renderer: %s", line)
		},
	})
	if err != nil {
		return err
	}
	if rres.ExitCode != 0 {
		log.Printf("Warning: renderer exited with status %d; keeping the artifact written so far", rres.ExitCode)
	}
	if !rres.Complete {
		log.Printf("Warning: output stream incomplete; %s is not a finished report", outputPath)
	}
	log.Printf("Wrote %s (%s) in %s", outputPath,
		humanize.Bytes(uint64(rres.BytesWritten)), time.Since(started).Round(time.Millisecond))
	return nil
}

// chartConfig resolves the measurement convention and rescales the target
// range and graph bounds when auto-detection picks mg/dL over the mmol/L
// defaults.
func chartConfig(rc config.ReportConfig, readings []reading.Reading) script.Config {
	unit := stats.ResolveUnit(readings, rc.Unit())
	low, high := rc.Low, rc.High
	graphMin, graphMax := rc.GraphMin, rc.GraphMax
	if unit == reading.UnitMGDL && high < 35 {
		low = stats.Convert(low, reading.UnitMMOLL)
		high = stats.Convert(high, reading.UnitMMOLL)
	}
	if unit == reading.UnitMGDL && graphMax < 35 {
		graphMin, graphMax = graphMinMGDL, graphMaxMGDL
	}
	width, height := rc.PageSizeInches()
	return script.Config{
		Unit:          unit,
		Low:           low,
		High:          high,
		GraphMin:      graphMin,
		GraphMax:      graphMax,
		PageWidth:     width,
		PageHeight:    height,
		ChartsPerPage: rc.ChartsPerPage,
		Icons:         rc.Icons,
	}
}

// archiveRun records the run when the archive is enabled. Archive trouble
// is reported and otherwise ignored; the report still renders.
func archiveRun(cfg config.Config, inputPath string, unit reading.Unit, started time.Time, res *ingest.Result) {
	if !cfg.Archive.Enabled {
		return
	}
	store, err := archive.Open(cfg.Archive)
	if err != nil {
		log.Printf("Warning: %v", err)
		return
	}
	defer store.Close()
	info := archive.RunInfo{
		ID:         uuid.New(),
		Started:    started,
		InputPath:  inputPath,
		Units:      unit,
		Dropped:    res.Dropped,
		Duplicates: res.Duplicates,
	}
	if err := store.RecordRun(info, res.Readings); err != nil {
		log.Printf("Warning: %v", err)
		return
	}
	log.Printf("Archive: recorded run %s (%s readings)",
		info.ID, humanize.Comma(int64(len(res.Readings))))
}
