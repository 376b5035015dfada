package bucket

import (
	"testing"
	"time"

	"glucograph/reading"
)

func at(day, hour, min int, value float64) reading.Reading {
	return reading.Reading{
		Time:  time.Date(2018, 1, day, hour, min, 0, 0, time.UTC),
		Value: value,
	}
}

func TestKeyForQuantizesToGranularity(t *testing.T) {
	k := KeyFor(time.Date(2018, 1, 2, 6, 7, 42, 0, time.UTC))
	if k.String() != "06:00" {
		t.Fatalf("key for 06:07 = %q", k)
	}
	k = KeyFor(time.Date(2018, 1, 2, 6, 15, 0, 0, time.UTC))
	if k.String() != "06:15" {
		t.Fatalf("key for 06:15 = %q", k)
	}
}

func TestKeyStableAcrossDates(t *testing.T) {
	a := KeyFor(time.Date(2018, 1, 2, 6, 20, 0, 0, time.UTC))
	b := KeyFor(time.Date(2019, 7, 30, 6, 25, 0, 0, time.UTC))
	if a != b {
		t.Fatalf("same time of day must share a key: %v vs %v", a, b)
	}
}

func TestFoldTighteningUpdate(t *testing.T) {
	readings := []reading.Reading{
		at(2, 6, 0, 5),
		at(3, 6, 5, 9),
		at(4, 6, 10, 3),
	}
	intervals := Fold(readings)
	b, ok := intervals[KeyFor(readings[0].Time)]
	if !ok {
		t.Fatalf("missing bucket for 06:00")
	}
	// The tightening update, preserved from the original aggregation: Low
	// climbs to the largest value seen, High falls to the smallest.
	if b.Low != 9 {
		t.Fatalf("tightened low = %g, want 9", b.Low)
	}
	if b.High != 3 {
		t.Fatalf("tightened high = %g, want 3", b.High)
	}
}

func TestFoldOrderIndependent(t *testing.T) {
	forward := []reading.Reading{at(2, 6, 0, 5), at(3, 6, 5, 9), at(4, 6, 10, 3)}
	reversed := []reading.Reading{at(4, 6, 10, 3), at(3, 6, 5, 9), at(2, 6, 0, 5)}
	a := SortedIntervals(Fold(forward))
	b := SortedIntervals(Fold(reversed))
	if len(a) != len(b) {
		t.Fatalf("interval counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("interval %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestDaysGroupsByCalendarDate(t *testing.T) {
	readings := []reading.Reading{
		at(3, 8, 0, 5),
		at(2, 23, 45, 6),
		at(2, 0, 15, 7),
	}
	days := Days(readings)
	if len(days) != 2 {
		t.Fatalf("expected 2 day series, got %d", len(days))
	}
	if !days[0].Date.Before(days[1].Date) {
		t.Fatalf("days not ascending: %v, %v", days[0].Date, days[1].Date)
	}
	if len(days[0].Readings) != 2 {
		t.Fatalf("expected 2 readings on first day, got %d", len(days[0].Readings))
	}
	if !days[0].Readings[0].Time.Before(days[0].Readings[1].Time) {
		t.Fatalf("day readings not ordered")
	}
}

func TestWeekForFixedQuantization(t *testing.T) {
	// Week 1 covers Jan 1-7, week 2 starts Jan 8; not ISO-8601.
	if k := WeekFor(time.Date(2018, 1, 7, 12, 0, 0, 0, time.UTC)); k.Week != 1 {
		t.Fatalf("Jan 7 week = %d, want 1", k.Week)
	}
	k := WeekFor(time.Date(2018, 1, 8, 0, 0, 0, 0, time.UTC))
	if k.Week != 2 {
		t.Fatalf("Jan 8 week = %d, want 2", k.Week)
	}
	if got := k.Start(); !got.Equal(time.Date(2018, 1, 8, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("week 2 start = %v", got)
	}
	if got := k.End(); !got.Equal(time.Date(2018, 1, 14, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("week 2 end = %v", got)
	}
}

func weekOfReadings(t *testing.T, n int) []reading.Reading {
	t.Helper()
	readings := make([]reading.Reading, 0, n)
	ts := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		readings = append(readings, reading.Reading{Time: ts, Value: 5})
		ts = ts.Add(15 * time.Minute)
	}
	return readings
}

func TestWeeksMinimumSampleFloor(t *testing.T) {
	if weeks := Weeks(weekOfReadings(t, DefaultMinWeekSamples-1), DefaultMinWeekSamples); len(weeks) != 0 {
		t.Fatalf("week with %d samples retained", DefaultMinWeekSamples-1)
	}
	weeks := Weeks(weekOfReadings(t, DefaultMinWeekSamples), DefaultMinWeekSamples)
	if len(weeks) != 1 {
		t.Fatalf("week with %d samples not retained", DefaultMinWeekSamples)
	}
	if weeks[0].SampleCount() != DefaultMinWeekSamples {
		t.Fatalf("sample count = %d", weeks[0].SampleCount())
	}
}

func TestWeekGroupDates(t *testing.T) {
	readings := weekOfReadings(t, DefaultMinWeekSamples+10)
	weeks := Weeks(readings, DefaultMinWeekSamples)
	if len(weeks) != 1 {
		t.Fatalf("expected 1 week, got %d", len(weeks))
	}
	dates := weeks[0].Dates()
	if len(dates) != 2 {
		t.Fatalf("expected 2 member dates, got %d", len(dates))
	}
	if !dates[0].Before(dates[1]) {
		t.Fatalf("dates not ascending")
	}
}
