// Package reading defines the canonical glucose reading structure and helpers
// used across the report pipeline: annotation encoding, record normalization,
// and content hashing for duplicate suppression.
package reading

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/xxh3"
)

// TimestampLayout is the timestamp format used by the glucometer CSV export.
const TimestampLayout = "2006-01-02 15:04:05"

// Unit identifies the glucose measurement convention.
type Unit string

const (
	UnitMGDL  Unit = "mg/dL"
	UnitMMOLL Unit = "mmol/L"
	UnitAuto  Unit = "" // resolved from the data before charting
)

// Meal is the meal context recorded with a reading, when present.
type Meal string

const (
	MealNone   Meal = ""
	MealBefore Meal = "Before"
	MealAfter  Meal = "After"
)

// Annotation is the symbolic encoding of a free-text meal/insulin comment.
// Insulin markers carry the dose and acting speed in renderer enhanced-text
// form, e.g. "I$^{4R}$" (4 units rapid-acting) or "I$^{4R/10L}$" after a
// merge. Food is the bare marker "F".
type Annotation string

// AnnotationFood marks a food-intake comment.
const AnnotationFood Annotation = "F"

const annotationSuffix = "}$"

// InsulinAnnotation encodes a single insulin dose. Rapid-acting doses are
// tagged R, long-acting doses L.
func InsulinAnnotation(dose string, longActing bool) Annotation {
	tag := "R"
	if longActing {
		tag = "L"
	}
	return Annotation("I$^{" + dose + tag + annotationSuffix)
}

// MergeInsulin folds a second insulin dose into an existing annotation so a
// reading carries at most one combined insulin marker. A reading with a
// rapid-acting and a long-acting dose ends up as e.g. "I$^{4R/10L}$".
func (a Annotation) MergeInsulin(dose string, longActing bool) Annotation {
	if a == "" {
		return InsulinAnnotation(dose, longActing)
	}
	tag := "R"
	if longActing {
		tag = "L"
	}
	base := strings.TrimSuffix(string(a), annotationSuffix)
	return Annotation(base + "/" + dose + tag + annotationSuffix)
}

// Reading is one normalized glucose measurement. Immutable once parsed;
// ordering key is Time.
type Reading struct {
	Time      time.Time
	Value     float64
	Meal      Meal
	Method    string     // measurement method from the export ("CGM", "Estimate", ...)
	Insulin   Annotation // combined insulin marker, at most one per reading
	Food      Annotation // food marker, independent of the insulin marker
	Synthetic bool       // inserted by gap filling, not present in the export
}

// Label returns the combined annotation column for chart datasets, or the
// empty string when the reading carries no annotations.
func (r *Reading) Label() string {
	return string(r.Insulin) + string(r.Food)
}

// Record returns the whitespace-joined normalized record for the reading:
// date, time, value and annotation sub-fields in export order.
func (r *Reading) Record() string {
	fields := []string{
		r.Time.Format("2006-01-02"),
		r.Time.Format("15:04:05"),
		strconv.FormatFloat(r.Value, 'f', -1, 64),
	}
	if label := r.Label(); label != "" {
		fields = append(fields, label)
	}
	return strings.Join(fields, " ")
}

// Hash returns a content hash of the fields that identify a row in the
// export. Two rows with the same timestamp, value, meal context and comment
// annotations hash identically.
func (r *Reading) Hash() uint64 {
	return xxh3.HashString(fmt.Sprintf("%s|%g|%s|%s%s",
		r.Time.Format(TimestampLayout), r.Value, r.Meal, r.Insulin, r.Food))
}
