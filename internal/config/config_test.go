package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/setpoint/internal/control"
	"github.com/san-kum/setpoint/internal/profile"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mechanism != "arm" {
		t.Errorf("expected mechanism arm, got %s", cfg.Mechanism)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
	if cfg.Steps() != 300 {
		t.Errorf("expected 300 cycles, got %d", cfg.Steps())
	}
}

func TestAllPresetsValidate(t *testing.T) {
	for mech, presets := range Presets {
		for name, cfg := range presets {
			if err := cfg.Validate(); err != nil {
				t.Errorf("%s/%s: %v", mech, name, err)
			}
			if cfg.Mechanism != mech {
				t.Errorf("%s/%s: mechanism %q", mech, name, cfg.Mechanism)
			}
		}
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("arm", "relative-encoder")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Plant.StartCalibrated {
		t.Error("relative encoder preset must start uncalibrated")
	}

	cfg.Script[0].At = 99
	if Presets["arm"]["relative-encoder"].Script[0].At == 99 {
		t.Error("GetPreset must not hand out the shared script")
	}

	if GetPreset("arm", "nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if GetPreset("nonexistent", "stow") != nil {
		t.Error("expected nil for nonexistent mechanism")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("elevator")
	if len(presets) != 3 || presets[0] != "home" {
		t.Errorf("unexpected elevator presets %v", presets)
	}
	if ListPresets("nonexistent") != nil {
		t.Error("expected nil for nonexistent mechanism")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		also   error
	}{
		{"zero cycle", func(c *Config) { c.Cycle = 0 }, nil},
		{"negative duration", func(c *Config) { c.Duration = -1 }, nil},
		{"unknown mechanism", func(c *Config) { c.Mechanism = "catapult" }, nil},
		{"unknown integrator", func(c *Config) { c.Integrator = "rk45" }, nil},
		{"bad deadband", func(c *Config) { c.Input.Deadband = 1 }, nil},
		{"bad profile", func(c *Config) { c.Profile.MaxVelocity = 0 }, profile.ErrInvalidConstraints},
		{"bad arbiter", func(c *Config) { c.Arbiter.ReleaseThreshold = 0.5 }, control.ErrInvalidArbiterConfig},
		{"negative event", func(c *Config) { c.Script = []Event{{At: -1}} }, nil},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(cfg)
		err := cfg.Validate()
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: expected ErrInvalidConfig, got %v", tt.name, err)
		}
		if tt.also != nil && !errors.Is(err, tt.also) {
			t.Errorf("%s: expected %v in chain, got %v", tt.name, tt.also, err)
		}
	}
}

func TestDisabledProfileSkipsConstraints(t *testing.T) {
	cfg := GetPreset("scorer", "spinup")
	if cfg.Profile.Enabled {
		t.Fatal("scorer runs without a profile")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "elevator.yaml")
	cfg := GetPreset("elevator", "home")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Plant.StartPosition != 0.8 || !loaded.Plant.ReferenceSwitch {
		t.Errorf("plant not restored: %+v", loaded.Plant)
	}
	if len(loaded.Script) != 1 || *loaded.Script[0].Target != 1.2 {
		t.Errorf("script not restored: %+v", loaded.Script)
	}
	if loaded.Profile.MaxAcceleration != 2 {
		t.Errorf("inline constraints not restored: %+v", loaded.Profile)
	}
}

func TestLoadOverlaysMechanismDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := []byte("mechanism: elevator\nduration: 3\npid:\n  kp: 9\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Duration != 3 || cfg.PID.Kp != 9 {
		t.Errorf("overlay not applied: duration %v kp %v", cfg.Duration, cfg.PID.Kp)
	}
	if cfg.PID.Ki != 2 || cfg.Plant.Motor.GravityTorque != 10 {
		t.Error("expected elevator defaults under the overlay")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("cycle: -1\n"), 0644)
	if _, err := Load(path); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
