package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("COACH_MEMORY_DB", "/tmp/coach.db")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Path != "/tmp/coach.db" {
		t.Errorf("expected db path from env, got %q", cfg.Database.Path)
	}
	if cfg.Retrieval.MaxResults != 5 {
		t.Errorf("expected max_results 5, got %d", cfg.Retrieval.MaxResults)
	}
	if cfg.Themes.Days != 30 || cfg.Themes.MinOccurrences != 2 {
		t.Errorf("unexpected themes defaults: %+v", cfg.Themes)
	}
	if cfg.Memory.ImportanceThreshold != 0.6 {
		t.Errorf("expected threshold 0.6, got %v", cfg.Memory.ImportanceThreshold)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "retrieval:\n  max_results: 8\nthemes:\n  days: 14\nlog:\n  mode: prod\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("COACH_MEMORY_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Retrieval.MaxResults != 8 {
		t.Errorf("expected 8, got %d", cfg.Retrieval.MaxResults)
	}
	if cfg.Themes.Days != 14 {
		t.Errorf("expected 14, got %d", cfg.Themes.Days)
	}
	if cfg.Log.Mode != "prod" || cfg.Log.Level != "debug" {
		t.Errorf("unexpected log config: %+v", cfg.Log)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{
		Retrieval: RetrievalConfig{MaxResults: 0},
		Themes:    ThemesConfig{Days: 30},
		Memory:    MemoryConfig{ImportanceThreshold: 2},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error")
	}
}
