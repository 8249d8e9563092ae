package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Scenario.Vref != 20 {
		t.Errorf("expected vref 20, got %g", cfg.Scenario.Vref)
	}
	if cfg.Scenario.Samples != 151 {
		t.Errorf("expected 151 samples, got %d", cfg.Scenario.Samples)
	}
	if cfg.Controller.Kp != 0.5 || cfg.Controller.Ki != 0.1 {
		t.Errorf("unexpected gains kp=%g ki=%g", cfg.Controller.Kp, cfg.Controller.Ki)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestVehicleParams(t *testing.T) {
	cfg := DefaultConfig()
	p := cfg.VehicleParams()

	if p.Mass != 1000 || p.Tm != 190 || p.OmegaM != 420 {
		t.Errorf("unexpected params %+v", p)
	}
	if len(p.Ratios) != 5 || p.Ratios[3] != 12 {
		t.Errorf("unexpected gear ratios %v", p.Ratios)
	}

	// Mutating the copy must not touch the config.
	p.Ratios[0] = 0
	if cfg.Vehicle.Ratios[0] != 40 {
		t.Error("VehicleParams must copy the ratio slice")
	}
}

func TestLoadSaveRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cruise.yaml")

	cfg := DefaultConfig()
	cfg.Scenario.GradeDeg = 6
	cfg.Controller.Kp = 0.8
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Scenario.GradeDeg != 6 {
		t.Errorf("grade_deg = %g, want 6", loaded.Scenario.GradeDeg)
	}
	if loaded.Controller.Kp != 0.8 {
		t.Errorf("kp = %g, want 0.8", loaded.Controller.Kp)
	}
	// Untouched fields keep defaults.
	if loaded.Scenario.Vref != 20 {
		t.Errorf("vref = %g, want default 20", loaded.Scenario.Vref)
	}
}

func TestValidateRejectsBadScenario(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scenario.Gear = 7
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for gear outside gearbox")
	}

	cfg = DefaultConfig()
	cfg.Scenario.Samples = 1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for single sample")
	}

	cfg = DefaultConfig()
	cfg.Controller.Ki = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero Ki")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
