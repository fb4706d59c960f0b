package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port() != DefaultPort {
		t.Errorf("Port() = %d, want %d", cfg.Port(), DefaultPort)
	}
	if cfg.DriftTolerance() != DefaultDriftToleranceS {
		t.Errorf("DriftTolerance() = %v, want %v", cfg.DriftTolerance(), DefaultDriftToleranceS)
	}
	if cfg.UpdateThrottle() != DefaultUpdateThrottleMs*time.Millisecond {
		t.Errorf("UpdateThrottle() = %v, want %v", cfg.UpdateThrottle(), DefaultUpdateThrottleMs*time.Millisecond)
	}
	if cfg.FrameClockHz() != DefaultFrameClockHz {
		t.Errorf("FrameClockHz() = %d, want %d", cfg.FrameClockHz(), DefaultFrameClockHz)
	}
	if cfg.SimulatePlayback() {
		t.Error("SimulatePlayback() should default to false")
	}
}

func TestPortFromEnv(t *testing.T) {
	t.Setenv(EnvPort, "9090")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 9090 {
		t.Errorf("Port() = %d, want 9090", cfg.Port())
	}
}

func TestPortInvalid(t *testing.T) {
	t.Setenv(EnvPort, "not-a-port")
	if _, err := New(); err == nil {
		t.Error("New() should reject non-numeric port")
	}

	t.Setenv(EnvPort, "70000")
	if _, err := New(); err == nil {
		t.Error("New() should reject out-of-range port")
	}
}

func TestDriftToleranceFromEnv(t *testing.T) {
	t.Setenv(EnvDriftTolerance, "0.1")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DriftTolerance() != 0.1 {
		t.Errorf("DriftTolerance() = %v, want 0.1", cfg.DriftTolerance())
	}
}

func TestDriftToleranceInvalid(t *testing.T) {
	t.Setenv(EnvDriftTolerance, "-1")
	if _, err := New(); err == nil {
		t.Error("New() should reject nonpositive drift tolerance")
	}
}

func TestUpdateThrottleFromEnv(t *testing.T) {
	t.Setenv(EnvUpdateThrottle, "50")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.UpdateThrottle() != 50*time.Millisecond {
		t.Errorf("UpdateThrottle() = %v, want 50ms", cfg.UpdateThrottle())
	}
}

func TestDataDirPaths(t *testing.T) {
	t.Setenv(EnvDataDir, "/tmp/snapcut-test")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DBPath() != "/tmp/snapcut-test/snapcut.db" {
		t.Errorf("DBPath() = %s", cfg.DBPath())
	}
	if cfg.ThumbsDir() != "/tmp/snapcut-test/thumbs" {
		t.Errorf("ThumbsDir() = %s", cfg.ThumbsDir())
	}
}

func TestBoolFlags(t *testing.T) {
	t.Setenv(EnvSimulatePlayback, "1")
	t.Setenv(EnvHeadless, "true")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.SimulatePlayback() {
		t.Error("SimulatePlayback() = false, want true")
	}
	if !cfg.Headless() {
		t.Error("Headless() = false, want true")
	}
}
