package logging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileLoggerWritesJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "export.log")

	l, err := NewFileLogger(FileLoggerConfig{Path: path, Format: FormatJSON, Level: InfoLevel})
	if err != nil {
		t.Fatalf("new file logger: %v", err)
	}
	l.Info(context.Background(), "export started", Fields{"run_id": "abc"})
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected log output")
	}
}

func TestWithFieldsMerges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "export.log")

	l, err := NewFileLogger(FileLoggerConfig{Path: path, Format: FormatJSON, Level: DebugLevel})
	if err != nil {
		t.Fatalf("new file logger: %v", err)
	}
	defer l.Close()

	scoped := l.WithFields(Fields{"run_id": "abc"})
	scoped.Info(context.Background(), "hello", nil)
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"warning": WarnLevel,
		"ERROR":   ErrorLevel,
		"bogus":   InfoLevel,
	}
	for s, want := range cases {
		if got := ParseLevel(s); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", s, got, want)
		}
	}
}
