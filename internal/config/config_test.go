package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.TickInterval != time.Second {
		t.Errorf("expected 1s tick, got %s", cfg.TickInterval)
	}
	if cfg.Rules != DefaultRules() {
		t.Errorf("expected default rules, got %+v", cfg.Rules)
	}
}

func TestLoadConfig_Valid(t *testing.T) {
	cfg, err := Load("testdata/valid.yaml", "")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Track != "sovereign" {
		t.Errorf("expected sovereign track, got %s", cfg.Track)
	}
	if cfg.TickInterval != 250*time.Millisecond {
		t.Errorf("expected 250ms tick, got %s", cfg.TickInterval)
	}
	if cfg.Rules.DurationSeconds != 30 || cfg.Rules.MaxActive != 2 {
		t.Errorf("unexpected rules: %+v", cfg.Rules)
	}
	if cfg.Rules.WaitPenalty != 10 {
		t.Errorf("expected unset fields to keep defaults, got %+v", cfg.Rules)
	}
}

func TestLoadConfig_RepoSchema(t *testing.T) {
	if _, err := Load("../../config/stresstest.yaml", "../../schemas/stresstest.cue"); err != nil {
		t.Fatalf("shipped config does not validate: %v", err)
	}
}

func TestLoadConfig_UnknownFieldRejected(t *testing.T) {
	if _, err := Load("testdata/unknown_field.yaml", ""); err == nil {
		t.Fatalf("expected schema error for unknown field")
	}
}

func TestLoadConfig_BadProbabilityRejected(t *testing.T) {
	if _, err := Load("testdata/bad_probability.yaml", ""); err == nil {
		t.Fatalf("expected schema error for probability > 1")
	}
}

func TestLoadConfig_EnvOverlay(t *testing.T) {
	t.Setenv("LNOPS_TRACK", "wallet-mastery")
	t.Setenv("LNOPS_TICK_INTERVAL", "2s")
	t.Setenv("LNOPS_SEED", "42")
	cfg, err := Load("testdata/valid.yaml", "")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Track != "wallet-mastery" {
		t.Errorf("expected env track, got %s", cfg.Track)
	}
	if cfg.TickInterval != 2*time.Second {
		t.Errorf("expected env tick, got %s", cfg.TickInterval)
	}
	if cfg.Seed != 42 {
		t.Errorf("expected env seed, got %d", cfg.Seed)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := Load(path, ""); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidateRejectsNonPositiveTick(t *testing.T) {
	cfg := Default()
	cfg.TickInterval = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for zero tick interval")
	}
}

func TestValidateWithCueCustomSchema(t *testing.T) {
	dir := t.TempDir()
	schema := filepath.Join(dir, "strict.cue")
	if err := os.WriteFile(schema, []byte("#Config: {track: \"sovereign\"}\n"), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	if err := ValidateWithCue("testdata/valid.yaml", schema); err == nil {
		t.Fatalf("expected strict schema to reject extra fields")
	}
}
