// Package integrators provides fixed and adaptive ODE steppers for
// sim.System values under time-varying exogenous forcing, and the
// Response driver that integrates a system across a time grid.
package integrators

import (
	"sort"

	"github.com/nmoray/cruisesim/internal/sim"
)

// Forcing supplies the exogenous input vector at a given time.
type Forcing func(t float64) sim.Input

// Constant returns a forcing that ignores time.
func Constant(u sim.Input) Forcing {
	c := u.Clone()
	return func(float64) sim.Input { return c }
}

// Interp returns a forcing that linearly interpolates the columns of U
// over the grid T. U holds one row per input, one column per grid point.
// Times outside the grid clamp to the nearest end.
func Interp(T []float64, U [][]float64) Forcing {
	return func(t float64) sim.Input {
		u := make(sim.Input, len(U))
		if t <= T[0] {
			for i := range U {
				u[i] = U[i][0]
			}
			return u
		}
		last := len(T) - 1
		if t >= T[last] {
			for i := range U {
				u[i] = U[i][last]
			}
			return u
		}
		k := sort.SearchFloat64s(T, t)
		// T[k-1] < t <= T[k] after the boundary checks above.
		w := (t - T[k-1]) / (T[k] - T[k-1])
		for i := range U {
			u[i] = U[i][k-1] + w*(U[i][k]-U[i][k-1])
		}
		return u
	}
}

// Integrator advances a forced system by one step.
type Integrator interface {
	Step(sys sim.System, x sim.State, f Forcing, t, dt float64) (sim.State, error)
}

// Adaptive is implemented by integrators that can advance to a target
// time under local error control, spending at most budget derivative
// stages.
type Adaptive interface {
	Integrator
	Advance(sys sim.System, x sim.State, f Forcing, t0, t1, tol float64, budget int) (sim.State, error)
}
