// Package ingest parses the glucometer CSV export into normalized readings.
// Rows that fail the date/time/value shape check are dropped from all
// time-keyed structures; the caller gets counters for observability.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"glucograph/reading"
)

// Options controls filtering and annotation decoding during ingestion.
type Options struct {
	Fingerstick bool          // include manual blood-sample rows
	Icons       bool          // decode food/insulin comments into annotations
	FillGap     time.Duration // insert synthetic readings across gaps; 0 disables
}

// Result carries the normalized readings plus row accounting for the run.
type Result struct {
	Readings   []reading.Reading
	Total      int // rows read from the export
	Dropped    int // rows failing the shape check
	Duplicates int // exact duplicate rows suppressed
	Skipped    int // ketone and excluded fingerstick rows
}

var (
	// Comment tokens are ';'-separated phrases like
	// "Rapid-acting insulin (4.0)" or "Food (snack)".
	relevantComment = regexp.MustCompile(`(?i)(Food|Rapid-acting insulin|Long-acting insulin) \((.*?)\)`)
	ketoneRow       = regexp.MustCompile(`(?i)ketone`)
	fingerstickRow  = regexp.MustCompile(`(?i)blood`)
)

// maxGapFill bounds gap filling so multi-day holes in the export are left
// alone rather than bridged with a day-long synthetic ramp.
const maxGapFill = 24 * time.Hour

// ParseFile reads and parses the export at path.
func ParseFile(path string, opts Options) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: open %s: %w", path, err)
	}
	defer f.Close()
	res, err := Parse(f, opts)
	if err != nil {
		return nil, fmt.Errorf("ingest: parse %s: %w", path, err)
	}
	return res, nil
}

// Parse consumes the export one record at a time. The returned readings are
// sorted by timestamp, with gap filling applied when configured.
func Parse(r io.Reader, opts Options) (*Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	res := &Result{}
	seen := make(map[uint64]struct{})
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A row the CSV layer cannot even tokenize is a shape failure.
			if _, ok := err.(*csv.ParseError); ok {
				res.Total++
				res.Dropped++
				continue
			}
			return nil, fmt.Errorf("read record: %w", err)
		}
		res.Total++

		rd, ok := parseRecord(record, opts)
		if !ok {
			res.Dropped++
			continue
		}
		if rd == nil {
			res.Skipped++
			continue
		}
		if _, dup := seen[rd.Hash()]; dup {
			res.Duplicates++
			continue
		}
		seen[rd.Hash()] = struct{}{}
		res.Readings = append(res.Readings, *rd)
	}

	sort.Slice(res.Readings, func(i, j int) bool {
		return res.Readings[i].Time.Before(res.Readings[j].Time)
	})
	if opts.FillGap > 0 {
		res.Readings = FillGaps(res.Readings, opts.FillGap)
	}
	return res, nil
}

// parseRecord normalizes one CSV record. ok=false means the row failed the
// shape check; a nil reading with ok=true means the row was filtered out.
func parseRecord(record []string, opts Options) (*reading.Reading, bool) {
	if len(record) < 2 {
		return nil, false
	}
	ts, err := time.Parse(reading.TimestampLayout, strings.TrimSpace(record[0]))
	if err != nil {
		return nil, false
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
	if err != nil {
		return nil, false
	}

	var meal, method, comment string
	if len(record) > 2 {
		meal = strings.TrimSpace(record[2])
	}
	if len(record) > 3 {
		method = strings.TrimSpace(record[3])
	}
	if len(record) > 4 {
		comment = strings.TrimSpace(record[4])
	}

	// Ketone entries never chart as glucose; fingerstick results only when
	// requested.
	if ketoneRow.MatchString(method) || ketoneRow.MatchString(comment) {
		return nil, true
	}
	if !opts.Fingerstick && fingerstickRow.MatchString(comment) {
		return nil, true
	}

	rd := &reading.Reading{
		Time:   ts,
		Value:  value,
		Method: method,
	}
	switch {
	case strings.EqualFold(meal, string(reading.MealBefore)):
		rd.Meal = reading.MealBefore
	case strings.EqualFold(meal, string(reading.MealAfter)):
		rd.Meal = reading.MealAfter
	}
	if opts.Icons {
		decodeComment(rd, comment)
	}
	return rd, true
}

// decodeComment turns the ';'-separated comment phrases into symbolic
// annotations. Multiple insulin tokens merge into one combined marker;
// a food token stays independent.
func decodeComment(rd *reading.Reading, comment string) {
	if comment == "" {
		return
	}
	for _, part := range strings.Split(comment, "; ") {
		m := relevantComment.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		category, dose := m[1], truncateDose(m[2])
		switch {
		case strings.Contains(strings.ToLower(category), "rapid"):
			rd.Insulin = rd.Insulin.MergeInsulin(dose, false)
		case strings.Contains(strings.ToLower(category), "long"):
			rd.Insulin = rd.Insulin.MergeInsulin(dose, true)
		default:
			rd.Food = reading.AnnotationFood
		}
	}
}

// truncateDose reduces a parenthesized dose to its integer part; non-numeric
// doses pass through untouched.
func truncateDose(raw string) string {
	raw = strings.TrimSpace(raw)
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	return strconv.Itoa(int(f))
}

// FillGaps inserts linearly interpolated synthetic readings wherever two
// consecutive readings are more than interval apart (but less than a day),
// smoothing the later curve and fill stages. Input must be sorted by time.
func FillGaps(readings []reading.Reading, interval time.Duration) []reading.Reading {
	filled := make([]reading.Reading, 0, len(readings))
	for i := range readings {
		filled = append(filled, readings[i])
		if i >= len(readings)-1 {
			continue
		}
		gap := readings[i+1].Time.Sub(readings[i].Time)
		if gap <= interval || gap >= maxGapFill {
			continue
		}
		n := int(gap / interval)
		lower, upper := readings[i].Value, readings[i+1].Value
		for j := 1; j <= n; j++ {
			frac := float64(j) / float64(n+1)
			t := readings[i].Time.Add(time.Duration(frac * float64(gap))).Truncate(time.Second)
			v := lower + (upper-lower)*frac
			filled = append(filled, reading.Reading{
				Time:      t,
				Value:     math.Round(v*100) / 100,
				Method:    "Estimate",
				Synthetic: true,
			})
		}
	}
	return filled
}
