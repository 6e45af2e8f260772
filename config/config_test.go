package config

import (
	"os"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.MatchSize != 2 {
		t.Errorf("expected MatchSize=2, got %d", cfg.MatchSize)
	}
	if cfg.MatchDurationMS != 30000 {
		t.Errorf("expected MatchDurationMS=30000, got %d", cfg.MatchDurationMS)
	}
	if cfg.StartDelayMS != 2000 {
		t.Errorf("expected StartDelayMS=2000, got %d", cfg.StartDelayMS)
	}
	if cfg.CleanupDelayMS != 5000 {
		t.Errorf("expected CleanupDelayMS=5000, got %d", cfg.CleanupDelayMS)
	}
	if cfg.MaxTapsPerSecond != 10 {
		t.Errorf("expected MaxTapsPerSecond=10, got %d", cfg.MaxTapsPerSecond)
	}
	if cfg.TapClockSkewWindowMS != 100 {
		t.Errorf("expected TapClockSkewWindowMS=100, got %d", cfg.TapClockSkewWindowMS)
	}
	if cfg.WSPort != 8080 {
		t.Errorf("expected WSPort=8080, got %d", cfg.WSPort)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	os.Setenv("MATCH_SIZE", "4")
	os.Setenv("MATCH_DURATION_MS", "15000")
	os.Setenv("WS_PORT", "9090")
	defer func() {
		os.Unsetenv("MATCH_SIZE")
		os.Unsetenv("MATCH_DURATION_MS")
		os.Unsetenv("WS_PORT")
	}()

	cfg := Load()

	if cfg.MatchSize != 4 {
		t.Errorf("expected MatchSize=4 after env override, got %d", cfg.MatchSize)
	}
	if cfg.MatchDurationMS != 15000 {
		t.Errorf("expected MatchDurationMS=15000 after env override, got %d", cfg.MatchDurationMS)
	}
	if cfg.WSPort != 9090 {
		t.Errorf("expected WSPort=9090 after env override, got %d", cfg.WSPort)
	}
	// Non-overridden fields should remain default
	if cfg.StartDelayMS != 2000 {
		t.Errorf("expected StartDelayMS=2000 (default), got %d", cfg.StartDelayMS)
	}
}

func TestLoadWithInvalidEnv(t *testing.T) {
	os.Setenv("MATCH_SIZE", "invalid")
	defer os.Unsetenv("MATCH_SIZE")

	cfg := Load()

	// Should fall back to default when env value is invalid
	if cfg.MatchSize != 2 {
		t.Errorf("expected MatchSize=2 (default) with invalid env, got %d", cfg.MatchSize)
	}
}

func TestLoadRejectsMatchSizeBelowTwo(t *testing.T) {
	os.Setenv("MATCH_SIZE", "1")
	defer os.Unsetenv("MATCH_SIZE")

	cfg := Load()

	if cfg.MatchSize != 2 {
		t.Errorf("expected MatchSize clamped to 2, got %d", cfg.MatchSize)
	}
}
