package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultIsInvalidWithoutRootDir(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for missing root_dir")
	}
}

func TestDefaultValidAfterSettingRootDir(t *testing.T) {
	cfg := Default()
	cfg.Export.RootDir = "/tmp/photos"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := Default()
	cfg.Export.RootDir = "/tmp/photos"
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for bad log level")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := Default()
	cfg.Export.RootDir = filepath.Join(dir, "library")
	cfg.Export.Workers = 8
	cfg.Continuous.Enabled = true

	if err := SaveToFile(cfg, path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Export.RootDir != cfg.Export.RootDir {
		t.Fatalf("root dir = %q, want %q", loaded.Export.RootDir, cfg.Export.RootDir)
	}
	if loaded.Export.Workers != 8 {
		t.Fatalf("workers = %d, want 8", loaded.Export.Workers)
	}
	if !loaded.Continuous.Enabled {
		t.Fatalf("expected continuous export to be enabled")
	}
}

func TestLoadDefaultFallsBackWhenFileMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := LoadDefault()
	if err != nil {
		t.Fatalf("load default: %v", err)
	}
	if cfg.Export.Workers != Default().Export.Workers {
		t.Fatalf("expected default workers, got %d", cfg.Export.Workers)
	}
}
