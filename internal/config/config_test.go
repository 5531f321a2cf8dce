package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OfficeName != "Your Immigration Law Office" {
		t.Errorf("OfficeName = %q, want default", cfg.OfficeName)
	}
	if cfg.DBMaxOpenConns != 0 {
		t.Errorf("DBMaxOpenConns = %d, want 0", cfg.DBMaxOpenConns)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	content := `{
		"office_name": "Rivera & Associates",
		"notify_from": "intake@rivera.example",
		"db_max_open_conns": 1,
		"allowed_paths": ["/srv/exports", " ", "/srv/exports"]
	}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OfficeName != "Rivera & Associates" {
		t.Errorf("OfficeName = %q", cfg.OfficeName)
	}
	if cfg.NotifyFrom != "intake@rivera.example" {
		t.Errorf("NotifyFrom = %q", cfg.NotifyFrom)
	}
	if cfg.DBMaxOpenConns != 1 {
		t.Errorf("DBMaxOpenConns = %d, want 1", cfg.DBMaxOpenConns)
	}
	if len(cfg.AllowedPaths) != 1 || cfg.AllowedPaths[0] != "/srv/exports" {
		t.Errorf("AllowedPaths = %v, want deduplicated single entry", cfg.AllowedPaths)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{nope"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestMerge(t *testing.T) {
	base := &Config{
		OfficeName:     "Base Office",
		DBMaxOpenConns: 2,
		AllowedPaths:   []string{"/a"},
	}
	overlay := &Config{
		OfficeName:       "Overlay Office",
		AllowUnsafePaths: true,
		AllowedPaths:     []string{"/b", "/a"},
	}

	got := Merge(base, overlay)
	if got.OfficeName != "Overlay Office" {
		t.Errorf("OfficeName = %q, overlay should win", got.OfficeName)
	}
	if got.DBMaxOpenConns != 2 {
		t.Errorf("DBMaxOpenConns = %d, base should survive zero overlay", got.DBMaxOpenConns)
	}
	if !got.AllowUnsafePaths {
		t.Error("AllowUnsafePaths should be true")
	}
	if len(got.AllowedPaths) != 2 {
		t.Errorf("AllowedPaths = %v, want merged dedup", got.AllowedPaths)
	}
}
