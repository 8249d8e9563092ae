package vehicle

import "fmt"

// Params holds the physical constants of the longitudinal vehicle model.
// A value is immutable for the duration of a simulation run.
type Params struct {
	Mass     float64   // vehicle mass, kg
	Gravity  float64   // gravitational constant, m/s^2
	Friction float64   // rolling friction coefficient
	Ratios   []float64 // gear ratio over wheel radius, per gear
	Tm       float64   // peak engine torque, Nm
	OmegaM   float64   // engine angular speed at peak torque, rad/s
	Beta     float64   // torque rolloff coefficient
}

// DefaultParams returns the parameters of a 1000 kg compact car with a
// five-speed gearbox.
func DefaultParams() Params {
	return Params{
		Mass:     1000.0,
		Gravity:  9.8,
		Friction: 0.01,
		Ratios:   []float64{40, 25, 16, 12, 10},
		Tm:       190.0,
		OmegaM:   420.0,
		Beta:     0.4,
	}
}

// Validate rejects parameter sets that make the model degenerate.
func (p Params) Validate() error {
	if p.Mass <= 0 {
		return fmt.Errorf("vehicle: mass must be positive, got %g", p.Mass)
	}
	if p.OmegaM <= 0 {
		return fmt.Errorf("vehicle: peak angular speed must be positive, got %g", p.OmegaM)
	}
	if len(p.Ratios) == 0 {
		return fmt.Errorf("vehicle: at least one gear ratio required")
	}
	for i, r := range p.Ratios {
		if r <= 0 {
			return fmt.Errorf("vehicle: gear %d ratio must be positive, got %g", i+1, r)
		}
	}
	return nil
}
