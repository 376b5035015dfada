// Package config loads the report pipeline configuration from YAML with
// sensible defaults for every section.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"glucograph/reading"
)

// Config represents the complete pipeline configuration
type Config struct {
	Report   ReportConfig   `yaml:"report"`
	Renderer RendererConfig `yaml:"renderer"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ReportConfig contains chart and aggregation settings
type ReportConfig struct {
	Units           string  `yaml:"units"` // "mmol/L", "mg/dL" or "auto"
	Low             float64 `yaml:"low"`
	High            float64 `yaml:"high"`
	GraphMin        float64 `yaml:"graph_min"`
	GraphMax        float64 `yaml:"graph_max"`
	PageSize        string  `yaml:"page_size"` // "a4", "letter" or "WxH" in inches
	ChartsPerPage   int     `yaml:"charts_per_page"`
	Icons           bool    `yaml:"icons"`
	Fingerstick     bool    `yaml:"fingerstick"`
	FillGapsMinutes int     `yaml:"fill_gaps_minutes"` // 0 disables gap filling
	MinWeekSamples  int     `yaml:"min_week_samples"`
}

// RendererConfig contains external renderer settings
type RendererConfig struct {
	Binary string `yaml:"binary"`
}

// ArchiveConfig contains the optional run archive settings
type ArchiveConfig struct {
	Enabled       bool   `yaml:"enabled"`
	DBPath        string `yaml:"db_path"`
	BusyTimeoutMS int    `yaml:"busy_timeout_ms"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	File    string `yaml:"file"`
}

// Default returns the configuration used when no file (or an empty file) is
// present: mmol/L defaults with the standard 4-8 target range.
func Default() Config {
	return Config{
		Report: ReportConfig{
			Units:           "auto",
			Low:             4,
			High:            8,
			GraphMin:        0,
			GraphMax:        21,
			PageSize:        "a4",
			ChartsPerPage:   2,
			Icons:           true,
			Fingerstick:     true,
			FillGapsMinutes: 10,
			MinWeekSamples:  96,
		},
		Renderer: RendererConfig{
			Binary: "gnuplot",
		},
		Archive: ArchiveConfig{
			Enabled:       false,
			DBPath:        "data/glucograph.db",
			BusyTimeoutMS: 5000,
		},
		Logging: LoggingConfig{
			Enabled: false,
			File:    "data/glucograph.log",
		},
	}
}

// Load reads configuration from a YAML file, overlaying the defaults. A
// missing file is not an error; the defaults apply unchanged.
func Load(filename string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Report.ChartsPerPage < 1 {
		cfg.Report.ChartsPerPage = 2
	}
	return cfg, nil
}

// Unit maps the configured units string onto the reading convention.
// Anything mentioning "mg" is mg/dL, anything mentioning "mm" is mmol/L,
// everything else resolves from the data.
func (r ReportConfig) Unit() reading.Unit {
	lower := strings.ToLower(r.Units)
	switch {
	case strings.Contains(lower, "mg"):
		return reading.UnitMGDL
	case strings.Contains(lower, "mm"):
		return reading.UnitMMOLL
	default:
		return reading.UnitAuto
	}
}

// PageSizeInches resolves the configured page size to landscape
// width/height in inches. Unrecognized values fall back to A4.
func (r ReportConfig) PageSizeInches() (width, height float64) {
	lower := strings.ToLower(strings.TrimSpace(r.PageSize))
	switch {
	case strings.Contains(lower, "letter"):
		return 11, 8.5
	case strings.Contains(lower, "a4"):
		return 11.69, 8.27
	}
	if parts := strings.SplitN(lower, "x", 2); len(parts) == 2 {
		w, werr := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		h, herr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if werr == nil && herr == nil && w > 0 && h > 0 {
			return w, h
		}
	}
	return 11.69, 8.27
}

// Print displays the effective configuration
func (c *Config) Print() {
	units := c.Report.Units
	if c.Report.Unit() == reading.UnitAuto {
		units = "auto"
	}
	fmt.Printf("Report: units=%s target=%g-%g charts/page=%d\n",
		units, c.Report.Low, c.Report.High, c.Report.ChartsPerPage)
	fmt.Printf("Renderer: %s\n", c.Renderer.Binary)
	if c.Archive.Enabled {
		fmt.Printf("Archive: %s\n", c.Archive.DBPath)
	}
}
