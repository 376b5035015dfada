package stats

import (
	"math"
	"testing"
	"time"

	"glucograph/reading"
)

func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMedianOddAndEven(t *testing.T) {
	if got := Median([]float64{5, 9, 3}); got != 5 {
		t.Fatalf("odd median = %g, want 5", got)
	}
	if got := Median([]float64{4, 8, 2, 6}); got != 5 {
		t.Fatalf("even median = %g, want 5", got)
	}
}

func TestEstimateA1CFormulas(t *testing.T) {
	if got := EstimateA1C(154, reading.UnitMGDL); !almost(got, (154+46.7)/28.7) {
		t.Fatalf("mg/dL A1C = %g", got)
	}
	if got := EstimateA1C(8.6, reading.UnitMMOLL); !almost(got, (8.6+2.59)/1.59) {
		t.Fatalf("mmol/L A1C = %g", got)
	}
}

func TestEstimateA1CAutoFallback(t *testing.T) {
	// The magnitude heuristic cuts at 35: at or above reads as mg/dL.
	if got := EstimateA1C(35, reading.UnitAuto); !almost(got, (35+46.7)/28.7) {
		t.Fatalf("auto A1C at threshold = %g", got)
	}
	if got := EstimateA1C(34.999, reading.UnitAuto); !almost(got, (34.999+2.59)/1.59) {
		t.Fatalf("auto A1C below threshold = %g", got)
	}
}

func TestSummarizeRoundsBeforeA1C(t *testing.T) {
	s := Summarize([]float64{5.04, 5.04, 5.04}, reading.UnitMMOLL)
	if s.Median != 5.0 {
		t.Fatalf("median = %g, want 5.0", s.Median)
	}
	if !almost(s.A1C, (5.0+2.59)/1.59) {
		t.Fatalf("A1C derived from unrounded median: %g", s.A1C)
	}
}

func readingsWith(values ...float64) []reading.Reading {
	out := make([]reading.Reading, len(values))
	ts := time.Date(2018, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, v := range values {
		out[i] = reading.Reading{Time: ts, Value: v}
		ts = ts.Add(15 * time.Minute)
	}
	return out
}

func TestResolveUnit(t *testing.T) {
	low := readingsWith(5, 6, 7)
	high := readingsWith(100, 120, 140)

	if got := ResolveUnit(high, reading.UnitMMOLL); got != reading.UnitMMOLL {
		t.Fatalf("explicit unit overridden: %v", got)
	}
	if got := ResolveUnit(low, reading.UnitAuto); got != reading.UnitMMOLL {
		t.Fatalf("auto on small values = %v", got)
	}
	if got := ResolveUnit(high, reading.UnitAuto); got != reading.UnitMGDL {
		t.Fatalf("auto on large values = %v", got)
	}
}

func TestConvertRoundTrip(t *testing.T) {
	if got := Convert(108, reading.UnitMGDL); got != 6 {
		t.Fatalf("108 mg/dL = %g mmol/L", got)
	}
	if got := Convert(6, reading.UnitMMOLL); got != 108 {
		t.Fatalf("6 mmol/L = %g mg/dL", got)
	}
	// mg/dL conversions keep two decimals.
	if got := Convert(100, reading.UnitMGDL); got != 5.56 {
		t.Fatalf("100 mg/dL = %g mmol/L", got)
	}
}
