package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"glucograph/config"
)

func TestLogFanoutSplitsPartialWrites(t *testing.T) {
	var console bytes.Buffer
	fanout, err := setupLogging(config.LoggingConfig{}, &console)
	if err != nil {
		t.Fatalf("setupLogging failed: %v", err)
	}
	defer fanout.Close()

	// Lines arriving across write boundaries still come out whole.
	fanout.Write([]byte("first li"))
	fanout.Write([]byte("ne\nsecond line\n"))

	lines := strings.Split(strings.TrimRight(console.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), console.String())
	}
	if !strings.HasSuffix(lines[0], " first line") {
		t.Fatalf("first line = %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], " second line") {
		t.Fatalf("second line = %q", lines[1])
	}
}

func TestLogFanoutWritesFileWhenEnabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")
	var console bytes.Buffer
	fanout, err := setupLogging(config.LoggingConfig{Enabled: true, File: path}, &console)
	if err != nil {
		t.Fatalf("setupLogging failed: %v", err)
	}

	fanout.Write([]byte("archived run\n"))
	if err := fanout.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "archived run") {
		t.Fatalf("log file = %q", data)
	}
	if !strings.Contains(console.String(), "archived run") {
		t.Fatalf("console missed the line: %q", console.String())
	}
}

func TestSetupLoggingSurvivesBadFilePath(t *testing.T) {
	tmp := t.TempDir()
	blocker := filepath.Join(tmp, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	// The parent "directory" is a regular file; the sink cannot open.
	var console bytes.Buffer
	fanout, err := setupLogging(config.LoggingConfig{Enabled: true, File: filepath.Join(blocker, "run.log")}, &console)
	if err == nil {
		t.Fatalf("expected file sink error")
	}
	if fanout == nil {
		t.Fatalf("expected usable console fanout despite the error")
	}
	fanout.Write([]byte("still logging\n"))
	if !strings.Contains(console.String(), "still logging") {
		t.Fatalf("console fanout unusable: %q", console.String())
	}
}
