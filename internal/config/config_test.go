package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.ListenAddr != ":8085" {
		t.Errorf("listen_addr=%q", cfg.ListenAddr)
	}
	if cfg.BackendURL != "http://localhost:8090" {
		t.Errorf("backend_url=%q", cfg.BackendURL)
	}
	if cfg.DBPath != "engine_history.db" {
		t.Errorf("db_path=%q", cfg.DBPath)
	}
	if cfg.Poller.Interval != 5*time.Second {
		t.Errorf("interval=%s", cfg.Poller.Interval)
	}
	if cfg.Poller.MaxAttempts != 15 || cfg.Poller.RequiredStreak != 3 {
		t.Errorf("limits: max=%d streak=%d", cfg.Poller.MaxAttempts, cfg.Poller.RequiredStreak)
	}
	if cfg.Poller.MinConfidence != 75 {
		t.Errorf("min_confidence=%.0f", cfg.Poller.MinConfidence)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfigFile(t, `
listen_addr: ":9000"
backend_url: "http://analysis.internal:8090"
poller:
  interval: 2s
  max_attempts: 30
  score_tolerance: 0.2
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":9000" {
		t.Errorf("listen_addr=%q", cfg.ListenAddr)
	}
	if cfg.BackendURL != "http://analysis.internal:8090" {
		t.Errorf("backend_url=%q", cfg.BackendURL)
	}
	if cfg.Poller.Interval != 2*time.Second {
		t.Errorf("interval=%s", cfg.Poller.Interval)
	}
	if cfg.Poller.MaxAttempts != 30 {
		t.Errorf("max_attempts=%d", cfg.Poller.MaxAttempts)
	}
	if cfg.Poller.ScoreTolerance != 0.2 {
		t.Errorf("score_tolerance=%.2f", cfg.Poller.ScoreTolerance)
	}

	// Unset fields fall back to defaults.
	if cfg.DBPath != "engine_history.db" {
		t.Errorf("db_path=%q, want default back-filled", cfg.DBPath)
	}
	if cfg.Poller.RequiredStreak != 3 {
		t.Errorf("required_streak=%d, want default back-filled", cfg.Poller.RequiredStreak)
	}
	if cfg.Poller.ConfidenceTolerance != 1.0 {
		t.Errorf("confidence_tolerance=%.1f, want default back-filled", cfg.Poller.ConfidenceTolerance)
	}
}

func TestLoadFileRejectsBadYAML(t *testing.T) {
	path := writeConfigFile(t, "poller: [not a map")
	if _, err := LoadFile(path); err == nil {
		t.Fatal("invalid yaml must be rejected")
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("missing file must be an error")
	}
}

func TestToPollerConfig(t *testing.T) {
	cfg := Default()
	cfg.Poller.Interval = 3 * time.Second
	cfg.Poller.MaxAttempts = 7
	cfg.Poller.ScoreTolerance = 0.3
	cfg.Poller.MinConfidence = 50

	pc := cfg.ToPollerConfig()
	if pc.Interval != 3*time.Second || pc.MaxAttempts != 7 {
		t.Errorf("interval=%s max=%d", pc.Interval, pc.MaxAttempts)
	}
	if pc.Tolerances.Score != 0.3 {
		t.Errorf("score tolerance=%.2f", pc.Tolerances.Score)
	}
	if pc.Completeness.MinConfidence != 50 {
		t.Errorf("min confidence=%.0f", pc.Completeness.MinConfidence)
	}
}
