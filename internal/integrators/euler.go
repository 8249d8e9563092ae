package integrators

import "github.com/nmoray/cruisesim/internal/sim"

// Euler is the explicit first-order method. Cheap and crude; useful as a
// baseline and in tests.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys sim.System, x sim.State, f Forcing, t, dt float64) (sim.State, error) {
	k, err := sys.Derivative(x, f(t), t)
	if err != nil {
		return nil, err
	}
	next := make(sim.State, len(x))
	for i := range x {
		next[i] = x[i] + dt*k[i]
	}
	return next, nil
}
