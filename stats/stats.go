// Package stats computes the summary figures shown on each chart: mean and
// median glucose and the estimated A1C derived from the median.
package stats

import (
	"math"
	"sort"

	"glucograph/reading"
)

// unitThreshold separates the two common glucose scales: a median at or
// above 35 cannot plausibly be mmol/L.
const unitThreshold = 35

// Mean returns the arithmetic mean. Undefined for an empty slice; callers
// must guard.
func Mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Median returns the middle value (or the mean of the two middle values).
// Undefined for an empty slice; callers must guard.
func Median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// EstimateA1C converts a median glucose value to an estimated A1C
// percentage using the linear formula for the given unit convention. With
// auto units the scale is inferred from the value's magnitude; existing
// reports depend on this exact fallback.
func EstimateA1C(median float64, unit reading.Unit) float64 {
	switch unit {
	case reading.UnitMGDL:
		return (median + 46.7) / 28.7
	case reading.UnitMMOLL:
		return (median + 2.59) / 1.59
	default:
		if median >= unitThreshold {
			return (median + 46.7) / 28.7
		}
		return (median + 2.59) / 1.59
	}
}

// Summary carries the per-chart figures.
type Summary struct {
	Mean   float64
	Median float64
	A1C    float64
}

// Summarize computes the chart summary for a non-empty value set. Mean and
// median are rounded to one decimal before the A1C derivation, matching the
// labels the report prints.
func Summarize(values []float64, unit reading.Unit) Summary {
	mean := round1(Mean(values))
	median := round1(Median(values))
	return Summary{
		Mean:   mean,
		Median: median,
		A1C:    EstimateA1C(median, unit),
	}
}

// Values extracts the glucose values from a reading slice.
func Values(readings []reading.Reading) []float64 {
	out := make([]float64, len(readings))
	for i := range readings {
		out[i] = readings[i].Value
	}
	return out
}

// ResolveUnit settles the measurement convention for a run. An explicit
// unit wins; auto picks mg/dL when the overall mean is at or above the
// magnitude threshold.
func ResolveUnit(readings []reading.Reading, unit reading.Unit) reading.Unit {
	if unit != reading.UnitAuto {
		return unit
	}
	if len(readings) == 0 {
		return reading.UnitMMOLL
	}
	if Mean(Values(readings)) >= unitThreshold {
		return reading.UnitMGDL
	}
	return reading.UnitMMOLL
}

// Convert translates a glucose value to the other unit convention: mg/dL
// divides by 18 (two decimals), mmol/L multiplies by 18 (whole number).
func Convert(value float64, from reading.Unit) float64 {
	if from == reading.UnitMGDL {
		return math.Round(value/18.0*100) / 100
	}
	return math.Round(value * 18.0)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
