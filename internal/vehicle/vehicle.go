package vehicle

import (
	"fmt"
	"math"

	"github.com/nmoray/cruisesim/internal/sim"
)

// Vehicle is a point-mass longitudinal model with a discrete gearbox.
// State: velocity v (m/s). Inputs: throttle u, gear, road slope theta
// (rad). Output: velocity. Throttle is clamped to [0, 1] at evaluation
// time; gear must be an exact integer within the gearbox range.
type Vehicle struct {
	p Params
}

func New(p Params) (*Vehicle, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	v := Vehicle{p: p}
	v.p.Ratios = append([]float64(nil), p.Ratios...)
	return &v, nil
}

func (v *Vehicle) Params() Params {
	p := v.p
	p.Ratios = append([]float64(nil), v.p.Ratios...)
	return p
}

// Torque returns the engine torque available at angular speed omega: a
// downward parabola peaking at OmegaM, clipped so the engine never
// produces negative torque.
func (v *Vehicle) Torque(omega float64) float64 {
	r := omega/v.p.OmegaM - 1
	return math.Max(0, v.p.Tm*(1-v.p.Beta*r*r))
}

// Derivative returns the acceleration dv/dt. The friction term uses
// sgn(v) with sgn(0) = +1, matching the floating-point sign convention.
func (v *Vehicle) Derivative(x sim.State, u sim.Input, t float64) (sim.State, error) {
	if len(x) != 1 || len(u) != 3 {
		return nil, sim.ErrDimension
	}

	vel := x[0]
	throttle := clamp(u[0], 0, 1)
	gear, err := v.gearIndex(u[1])
	if err != nil {
		return nil, err
	}
	theta := u[2]

	alpha := v.p.Ratios[gear-1]
	omega := alpha * vel
	force := alpha * v.Torque(omega) * throttle

	grade := v.p.Mass * v.p.Gravity * math.Sin(theta)
	friction := v.p.Mass * v.p.Gravity * v.p.Friction * math.Copysign(1, vel)

	return sim.State{(force - grade - friction) / v.p.Mass}, nil
}

func (v *Vehicle) Output(x sim.State, u sim.Input, t float64) ([]float64, error) {
	if len(x) != 1 {
		return nil, sim.ErrDimension
	}
	return []float64{x[0]}, nil
}

func (v *Vehicle) StateDim() int  { return 1 }
func (v *Vehicle) InputDim() int  { return 3 }
func (v *Vehicle) OutputDim() int { return 1 }

func (v *Vehicle) InputNames() []string  { return []string{"u", "gear", "theta"} }
func (v *Vehicle) OutputNames() []string { return []string{"v"} }

// gearIndex validates a gear command. Fractional or out-of-range values
// are rejected rather than rounded.
func (v *Vehicle) gearIndex(g float64) (int, error) {
	n := int(g)
	if float64(n) != g {
		return 0, fmt.Errorf("%w: gear %g is not an integer", sim.ErrGear, g)
	}
	if n < 1 || n > len(v.p.Ratios) {
		return 0, fmt.Errorf("%w: gear %d not in 1..%d", sim.ErrGear, n, len(v.p.Ratios))
	}
	return n, nil
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
