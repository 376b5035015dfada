package archive

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"glucograph/config"
	"glucograph/reading"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(config.ArchiveConfig{
		DBPath:        filepath.Join(t.TempDir(), "archive.db"),
		BusyTimeoutMS: 1000,
	})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordRunPersistsReadings(t *testing.T) {
	store := testStore(t)

	readings := []reading.Reading{
		{Time: time.Date(2018, 1, 2, 6, 0, 0, 0, time.UTC), Value: 5.5, Method: "CGM"},
		{Time: time.Date(2018, 1, 2, 6, 15, 0, 0, time.UTC), Value: 5.7, Method: "CGM", Food: reading.AnnotationFood},
		{Time: time.Date(2018, 1, 2, 6, 30, 0, 0, time.UTC), Value: 5.9, Method: "Estimate", Synthetic: true},
	}
	info := RunInfo{
		ID:        uuid.New(),
		Started:   time.Now(),
		InputPath: "export.csv",
		Units:     reading.UnitMMOLL,
		Dropped:   2,
	}
	if err := store.RecordRun(info, readings); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	runs, err := store.RunCount()
	if err != nil {
		t.Fatalf("RunCount failed: %v", err)
	}
	if runs != 1 {
		t.Fatalf("run count = %d, want 1", runs)
	}
	n, err := store.ReadingCount(info.ID)
	if err != nil {
		t.Fatalf("ReadingCount failed: %v", err)
	}
	if n != len(readings) {
		t.Fatalf("reading count = %d, want %d", n, len(readings))
	}
}

func TestRecordRunKeepsRunsSeparate(t *testing.T) {
	store := testStore(t)

	first := RunInfo{ID: uuid.New(), Started: time.Now(), InputPath: "a.csv", Units: reading.UnitMMOLL}
	second := RunInfo{ID: uuid.New(), Started: time.Now(), InputPath: "b.csv", Units: reading.UnitMGDL}
	one := []reading.Reading{{Time: time.Date(2018, 1, 2, 6, 0, 0, 0, time.UTC), Value: 5.5}}

	if err := store.RecordRun(first, one); err != nil {
		t.Fatalf("first RecordRun failed: %v", err)
	}
	if err := store.RecordRun(second, nil); err != nil {
		t.Fatalf("second RecordRun failed: %v", err)
	}

	runs, err := store.RunCount()
	if err != nil {
		t.Fatalf("RunCount failed: %v", err)
	}
	if runs != 2 {
		t.Fatalf("run count = %d, want 2", runs)
	}
	n, err := store.ReadingCount(second.ID)
	if err != nil {
		t.Fatalf("ReadingCount failed: %v", err)
	}
	if n != 0 {
		t.Fatalf("empty run archived %d readings", n)
	}
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "archive.db")
	store, err := Open(config.ArchiveConfig{DBPath: path})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()
	if _, err := store.RunCount(); err != nil {
		t.Fatalf("schema not usable: %v", err)
	}
}
