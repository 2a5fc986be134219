package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mapdirect/internal/platform/config"
	apperrors "mapdirect/internal/platform/errors"
)

func TestNewDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := config.New("/data")
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	if cfg.Zoom != 13 || cfg.MaxZoom != 18 {
		t.Fatalf("unexpected zoom defaults: %+v", cfg)
	}
	if !cfg.Alternatives {
		t.Fatalf("alternatives should default to on")
	}
	if cfg.DragInterval != 200*time.Millisecond {
		t.Fatalf("expected 200ms drag interval, got %s", cfg.DragInterval)
	}
	if got := cfg.ServiceURLFor("routed-bike"); got != "https://routing.openstreetmap.de/routed-bike/route/v1" {
		t.Fatalf("unexpected service url: %s", got)
	}
	if cfg.DBPath != filepath.Join("/data", ".mapdirect", "mapdirect.db") {
		t.Fatalf("unexpected db path: %s", cfg.DBPath)
	}
	if _, err := config.New(""); err == nil {
		t.Fatalf("empty data dir should fail")
	}
}

func TestLoadOverridesFromYAML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "mapdirect.yaml")
	body := "service_url: http://localhost:5000/{profile}/route/v1\nzoom: 15\ndrag_interval: 50ms\ncenter:\n  lat: 48.85\n  lng: 2.35\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(dir, path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Zoom != 15 || cfg.DragInterval != 50*time.Millisecond {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Center.Lat != 48.85 || cfg.Center.Lng != 2.35 {
		t.Fatalf("center not applied: %+v", cfg.Center)
	}
	if cfg.MaxZoom != 18 {
		t.Fatalf("unset keys must keep defaults, got max zoom %d", cfg.MaxZoom)
	}
	if !cfg.Alternatives {
		t.Fatalf("alternatives should stay enabled unless configured")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("service_url: http://localhost/route/v1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := config.Load(dir, path); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for missing placeholder, got %v", err)
	}
	if err := os.WriteFile(path, []byte("zoom: 30\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := config.Load(dir, path); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for zoom, got %v", err)
	}
	if _, err := config.Load(dir, filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("missing file should fail")
	}
}

func TestLoadCanDisableAlternatives(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "mapdirect.yaml")
	if err := os.WriteFile(path, []byte("alternatives: false\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(dir, path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Alternatives {
		t.Fatalf("alternatives should be disabled by the config file")
	}
}
