package reading

import (
	"testing"
	"time"
)

func TestInsulinAnnotationTagsActingSpeed(t *testing.T) {
	if got := InsulinAnnotation("4", false); got != "I$^{4R}$" {
		t.Fatalf("rapid annotation = %q", got)
	}
	if got := InsulinAnnotation("10", true); got != "I$^{10L}$" {
		t.Fatalf("long annotation = %q", got)
	}
}

func TestMergeInsulinCombinesDoses(t *testing.T) {
	a := InsulinAnnotation("4", false)
	merged := a.MergeInsulin("10", true)
	if merged != "I$^{4R/10L}$" {
		t.Fatalf("merged annotation = %q", merged)
	}
	// Merging into an empty annotation behaves like a fresh one.
	var empty Annotation
	if got := empty.MergeInsulin("2", false); got != "I$^{2R}$" {
		t.Fatalf("merge into empty = %q", got)
	}
}

func TestLabelCombinesInsulinAndFood(t *testing.T) {
	r := Reading{
		Insulin: InsulinAnnotation("4", false),
		Food:    AnnotationFood,
	}
	if got := r.Label(); got != "I$^{4R}$F" {
		t.Fatalf("label = %q", got)
	}
	var bare Reading
	if got := bare.Label(); got != "" {
		t.Fatalf("expected empty label, got %q", got)
	}
}

func TestRecordJoinsNormalizedFields(t *testing.T) {
	r := Reading{
		Time:  time.Date(2018, 1, 2, 6, 30, 0, 0, time.UTC),
		Value: 5.5,
		Food:  AnnotationFood,
	}
	if got := r.Record(); got != "2018-01-02 06:30:00 5.5 F" {
		t.Fatalf("record = %q", got)
	}
}

func TestHashDistinguishesContent(t *testing.T) {
	base := Reading{Time: time.Date(2018, 1, 2, 6, 30, 0, 0, time.UTC), Value: 5.5}
	same := base
	if base.Hash() != same.Hash() {
		t.Fatalf("identical readings must hash identically")
	}
	changed := base
	changed.Value = 5.6
	if base.Hash() == changed.Hash() {
		t.Fatalf("different values must hash differently")
	}
}
