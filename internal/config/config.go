// Package config defines the YAML run configuration: vehicle parameters,
// controller gains, the disturbance scenario and solver settings.
// Defaults reproduce the stock hill-response study; a config file
// overrides any subset, and CLI flags override the file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nmoray/cruisesim/internal/vehicle"
)

const (
	DefaultVref     = 20.0
	DefaultGear     = 4
	DefaultHillTime = 5.0
	DefaultGradeDeg = 4.0
	DefaultRamp     = 1.0
	DefaultHorizon  = 25.0
	DefaultSamples  = 151
)

type Config struct {
	Vehicle    VehicleConfig    `yaml:"vehicle"`
	Controller ControllerConfig `yaml:"controller"`
	Scenario   ScenarioConfig   `yaml:"scenario"`
	Solver     SolverConfig     `yaml:"solver"`
}

type VehicleConfig struct {
	Mass     float64   `yaml:"mass"`
	Gravity  float64   `yaml:"gravity"`
	Friction float64   `yaml:"friction"`
	Ratios   []float64 `yaml:"gear_ratios"`
	Tm       float64   `yaml:"tm"`
	OmegaM   float64   `yaml:"omega_m"`
	Beta     float64   `yaml:"beta"`
}

type ControllerConfig struct {
	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
}

type ScenarioConfig struct {
	Vref     float64 `yaml:"vref"`
	Gear     int     `yaml:"gear"`
	HillTime float64 `yaml:"t_hill"`
	GradeDeg float64 `yaml:"grade_deg"`
	Ramp     float64 `yaml:"ramp"`
	Horizon  float64 `yaml:"horizon"`
	Samples  int     `yaml:"samples"`
}

type SolverConfig struct {
	Integrator string  `yaml:"integrator"`
	Tol        float64 `yaml:"tol"`
	TrimTol    float64 `yaml:"trim_tol"`
	MaxIter    int     `yaml:"max_iter"`
	MaxStages  int     `yaml:"max_stages"`
}

func DefaultConfig() *Config {
	p := vehicle.DefaultParams()
	return &Config{
		Vehicle: VehicleConfig{
			Mass:     p.Mass,
			Gravity:  p.Gravity,
			Friction: p.Friction,
			Ratios:   p.Ratios,
			Tm:       p.Tm,
			OmegaM:   p.OmegaM,
			Beta:     p.Beta,
		},
		Controller: ControllerConfig{Kp: 0.5, Ki: 0.1},
		Scenario: ScenarioConfig{
			Vref:     DefaultVref,
			Gear:     DefaultGear,
			HillTime: DefaultHillTime,
			GradeDeg: DefaultGradeDeg,
			Ramp:     DefaultRamp,
			Horizon:  DefaultHorizon,
			Samples:  DefaultSamples,
		},
		Solver: SolverConfig{
			Integrator: "rk45",
			Tol:        1e-8,
			TrimTol:    1e-10,
			MaxIter:    50,
			MaxStages:  200000,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// VehicleParams converts the vehicle block to model parameters.
func (c *Config) VehicleParams() vehicle.Params {
	return vehicle.Params{
		Mass:     c.Vehicle.Mass,
		Gravity:  c.Vehicle.Gravity,
		Friction: c.Vehicle.Friction,
		Ratios:   append([]float64(nil), c.Vehicle.Ratios...),
		Tm:       c.Vehicle.Tm,
		OmegaM:   c.Vehicle.OmegaM,
		Beta:     c.Vehicle.Beta,
	}
}

func (c *Config) Validate() error {
	if err := c.VehicleParams().Validate(); err != nil {
		return err
	}
	s := c.Scenario
	if s.Gear < 1 || s.Gear > len(c.Vehicle.Ratios) {
		return fmt.Errorf("config: gear %d not in 1..%d", s.Gear, len(c.Vehicle.Ratios))
	}
	if s.Horizon <= 0 {
		return fmt.Errorf("config: horizon must be positive, got %g", s.Horizon)
	}
	if s.Samples < 2 {
		return fmt.Errorf("config: need at least 2 samples, got %d", s.Samples)
	}
	if s.Ramp <= 0 {
		return fmt.Errorf("config: ramp duration must be positive, got %g", s.Ramp)
	}
	if c.Controller.Kp <= 0 || c.Controller.Ki <= 0 {
		return fmt.Errorf("config: controller gains must be positive")
	}
	return nil
}
